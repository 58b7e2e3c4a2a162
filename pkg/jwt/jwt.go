package jwt

import (
	"errors"
	"fmt"
	"time"

	"workin-messenger/config"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpiredToken   = errors.New("token expired")
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("bad token signature")
)

// JWTService 提供 JWT 生成与校验能力
// 使用对称密钥（HS256/HS384/HS512），Subject 存放用户名
// 没有吊销机制：签名正确且未过期的令牌总是有效

type JWTService struct {
	secretKey   []byte              // 对称密钥
	method      jwtv5.SigningMethod // 签名算法
	issuer      string              // 签发者
	expireAfter time.Duration       // 默认过期时间
	now         func() time.Time    // 时钟，测试中可替换
}

// Claims 令牌载荷
type Claims struct {
	jwtv5.RegisteredClaims
}

// Username 令牌中的用户名
func (c *Claims) Username() string {
	return c.Subject
}

// NewJWTService 创建 JWT 服务，密钥为空或算法不支持时返回错误
func NewJWTService(cfg config.JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	method, err := signingMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	if cfg.ExpireMinutes <= 0 {
		return nil, fmt.Errorf("invalid token ttl: %d minutes", cfg.ExpireMinutes)
	}
	return &JWTService{
		secretKey:   []byte(cfg.Secret),
		method:      method,
		issuer:      cfg.Issuer,
		expireAfter: cfg.ExpireTime(),
		now:         time.Now,
	}, nil
}

func signingMethod(alg string) (jwtv5.SigningMethod, error) {
	switch alg {
	case "", "HS256":
		return jwtv5.SigningMethodHS256, nil
	case "HS384":
		return jwtv5.SigningMethodHS384, nil
	case "HS512":
		return jwtv5.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
}

// GenerateToken 使用默认有效期签发访问令牌
func (s *JWTService) GenerateToken(username string) (string, error) {
	return s.Issue(username, s.expireAfter)
}

// Issue 签发访问令牌，过期时间 = 签发时间 + ttl
func (s *JWTService) Issue(username string, ttl time.Duration) (string, error) {
	if username == "" {
		return "", errors.New("subject is required")
	}

	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   username,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwtv5.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token failed: %w", err)
	}
	return signed, nil
}

// Verify 校验并解析令牌
// 返回 ErrExpiredToken / ErrMalformedToken / ErrBadSignature 之一
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{s.method.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(s.issuer))
	}

	parsed, err := jwtv5.ParseWithClaims(tokenString, claims, func(token *jwtv5.Token) (interface{}, error) {
		return s.secretKey, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpiredToken, err)
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid), errors.Is(err, jwtv5.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
