package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"time"
)

// -------------------- 统计 --------------------

type APITestStats struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	totalLatency       time.Duration
	MaxLatency         time.Duration
	MinLatency         time.Duration
	statusCodes        map[int]int
	mu                 sync.Mutex
}

func (s *APITestStats) Add(status int, success bool, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusCodes == nil {
		s.statusCodes = make(map[int]int)
	}
	s.statusCodes[status]++
	s.TotalRequests++
	if !success {
		s.FailedRequests++
		return
	}
	s.SuccessfulRequests++
	s.totalLatency += latency
	if latency > s.MaxLatency {
		s.MaxLatency = latency
	}
	if s.MinLatency == 0 || latency < s.MinLatency {
		s.MinLatency = latency
	}
}

func (s *APITestStats) Print(title string, took time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Printf("\n=== %s ===\n", title)
	fmt.Printf("耗时: %v\n", took)
	fmt.Printf("总请求: %d 成功: %d 失败: %d\n", s.TotalRequests, s.SuccessfulRequests, s.FailedRequests)
	if s.SuccessfulRequests > 0 {
		avg := s.totalLatency / time.Duration(s.SuccessfulRequests)
		fmt.Printf("延迟 平均: %v 最大: %v 最小: %v\n", avg, s.MaxLatency, s.MinLatency)
	}
	if took > 0 {
		fmt.Printf("QPS: %.2f\n", float64(s.SuccessfulRequests)/took.Seconds())
	}
	fmt.Printf("状态码分布: %v\n", s.statusCodes)
}

// -------------------- HTTP 客户端 --------------------

type client struct {
	base string
	http *http.Client
}

func (c *client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

func (c *client) register(username string) (int, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"username":   username,
		"first_name": "Bench",
		"last_name":  "User",
		"phone":      "+14155552671",
		"sex":        "Woman",
		"email":      username + "@bench.local",
		"password":   "benchpassword",
	}
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	_ = w.Close()

	req, err := http.NewRequest(http.MethodPost, c.base+"/auth/register", &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	code, _, err := c.do(req)
	return code, err
}

func (c *client) token(username string) (int, string, error) {
	form := url.Values{"username": {username}, "password": {"benchpassword"}, "grant_type": {"password"}}
	req, err := http.NewRequest(http.MethodPost, c.base+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	code, body, err := c.do(req)
	if err != nil || code != http.StatusOK {
		return code, "", err
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return code, "", err
	}
	return code, out.AccessToken, nil
}

func (c *client) me(token string) (int, uint, error) {
	req, err := http.NewRequest(http.MethodGet, c.base+"/users/me", nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	code, body, err := c.do(req)
	if err != nil || code != http.StatusOK {
		return code, 0, err
	}
	var out struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return code, 0, err
	}
	return code, out.Data.ID, nil
}

func (c *client) send(token string, recipient uint, content string) (int, error) {
	payload, _ := json.Marshal(map[string]interface{}{"recipient_id": recipient, "content": content})
	req, err := http.NewRequest(http.MethodPost, c.base+"/messages/send", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	code, _, err := c.do(req)
	return code, err
}

// -------------------- 场景 --------------------

// runRegistrationRace 多个协程同时注册同一个用户名，应当恰好一个成功
func runRegistrationRace(c *client, concurrency int, username string) {
	stats := &APITestStats{}
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t := time.Now()
			code, err := c.register(username)
			stats.Add(code, err == nil && code == http.StatusCreated, time.Since(t))
		}()
	}
	wg.Wait()
	stats.Print("同名并发注册", time.Since(start))
	if stats.SuccessfulRequests != 1 {
		fmt.Printf("异常: 期望恰好一个注册成功，实际 %d\n", stats.SuccessfulRequests)
	}
}

// runSessionBench 每个协程注册独立用户、登录，然后向固定接收者发送消息
func runSessionBench(c *client, concurrency, perGoroutine int, prefix string, recipient uint) {
	regStats, tokenStats, sendStats := &APITestStats{}, &APITestStats{}, &APITestStats{}
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			username := fmt.Sprintf("%s_%d", prefix, id)

			t := time.Now()
			code, err := c.register(username)
			regStats.Add(code, err == nil && code == http.StatusCreated, time.Since(t))

			t = time.Now()
			code, token, err := c.token(username)
			tokenStats.Add(code, err == nil && token != "", time.Since(t))
			if token == "" {
				return
			}

			for j := 0; j < perGoroutine; j++ {
				t = time.Now()
				code, err := c.send(token, recipient, fmt.Sprintf("msg %d from %s", j, username))
				sendStats.Add(code, err == nil && code == http.StatusCreated, time.Since(t))
			}
		}(i)
	}
	wg.Wait()

	took := time.Since(start)
	regStats.Print("注册", took)
	tokenStats.Print("登录", took)
	sendStats.Print("发送消息", took)
}

// -------------------- 入口 --------------------

func main() {
	baseURL := flag.String("base", "http://localhost:8000", "服务地址")
	concurrency := flag.Int("c", 5, "并发协程数")
	perGoroutine := flag.Int("n", 10, "每个协程发送的消息数")
	flag.Parse()

	c := &client{base: strings.TrimRight(*baseURL, "/"), http: &http.Client{Timeout: 8 * time.Second}}
	run := time.Now().Format("150405")

	fmt.Println("=== workin-messenger 并发测试 ===")
	fmt.Printf("开始时间: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Printf("目标: %s 并发: %d 每协程消息: %d\n", c.base, *concurrency, *perGoroutine)

	// 接收者
	recipientName := "bench_recipient_" + run
	if code, err := c.register(recipientName); err != nil || code != http.StatusCreated {
		fmt.Printf("创建接收者失败: status=%d err=%v\n", code, err)
		return
	}
	_, token, err := c.token(recipientName)
	if err != nil || token == "" {
		fmt.Printf("接收者登录失败: %v\n", err)
		return
	}
	_, recipientID, err := c.me(token)
	if err != nil || recipientID == 0 {
		fmt.Printf("获取接收者ID失败: %v\n", err)
		return
	}

	runRegistrationRace(c, *concurrency, "bench_race_"+run)
	runSessionBench(c, *concurrency, *perGoroutine, "bench_"+run, recipientID)

	fmt.Printf("\nGoroutines: %d\n", runtime.NumGoroutine())
	fmt.Println("\n=== 测试完成 ===")
}
