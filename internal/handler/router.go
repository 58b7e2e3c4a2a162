package handler

import (
	"time"

	"workin-messenger/pkg/jwt"
	"workin-messenger/pkg/logger"
	"workin-messenger/pkg/response"

	"github.com/gin-gonic/gin"
)

// RouterOptions 路由依赖
type RouterOptions struct {
	Users     *UserHandler
	Messages  *MessageHandler
	Resolver  jwt.IdentityResolver
	AvatarDir string

	// HealthCheck 为 nil 时健康检查只返回 ok
	HealthCheck func() error
}

// NewRouter 注册全部路由
func NewRouter(opts RouterOptions) *gin.Engine {
	router := gin.New()

	// 使用中间件
	router.Use(logger.RequestLogger())         // 请求日志
	router.Use(logger.ErrorLoggerMiddleware()) // panic 恢复

	setupBasicRoutes(router, opts.HealthCheck)

	auth := jwt.AuthMiddleware(opts.Resolver)

	// 头像静态文件
	router.Static("/media/avatars", opts.AvatarDir)

	authGroup := router.Group("/auth")
	{
		// 公开接口（无需认证）
		authGroup.POST("/token", opts.Users.Token)
		authGroup.POST("/register", opts.Users.Register)

		// 需要认证的接口
		authGroup.PATCH("/account", auth, opts.Users.ChangeAccount)
	}

	users := router.Group("/users")
	users.Use(auth)
	{
		users.GET("/me", opts.Users.Me)
		users.GET("/search", opts.Users.Search)
	}

	messages := router.Group("/messages")
	messages.Use(auth)
	{
		messages.POST("/send", opts.Messages.SendMessage)
	}

	return router
}

// setupBasicRoutes 设置基础路由
func setupBasicRoutes(router *gin.Engine, healthCheck func() error) {
	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		if healthCheck != nil {
			if err := healthCheck(); err != nil {
				status = "db-down"
			}
		}
		response.Success(c, gin.H{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "workin-messenger",
			"status":  "running",
		})
	})
}
