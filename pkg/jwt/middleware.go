package jwt

import (
	"context"
	"strings"

	"workin-messenger/internal/model"
	"workin-messenger/pkg/logger"
	"workin-messenger/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// ContextUserKey 当前用户在gin.Context中的键名
	ContextUserKey = "current_user"
)

// IdentityResolver 根据令牌解析出当前用户
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// AuthMiddleware JWT认证中间件
// 从请求头中提取Authorization: Bearer <token>
// 解析出用户并存入gin.Context；任何失败统一返回401，不区分原因
func AuthMiddleware(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, "Not authenticated")
			c.Abort()
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debug("令牌校验失败",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			response.Unauthorized(c, "Could not validate credentials")
			c.Abort()
			return
		}

		// 将用户信息存入Context
		c.Set(ContextUserKey, user)

		logger.Debug("用户访问接口",
			zap.Uint("user_id", user.ID),
			zap.String("username", user.Username),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)

		c.Next()
	}
}

// bearerToken 解析 "Bearer <token>"，方案名不区分大小写
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetCurrentUser 从gin.Context中获取当前用户
func GetCurrentUser(c *gin.Context) *model.User {
	if v, exists := c.Get(ContextUserKey); exists {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}
