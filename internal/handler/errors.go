package handler

import (
	"errors"
	"net/http"

	"workin-messenger/internal/service"
	"workin-messenger/pkg/logger"
	"workin-messenger/pkg/response"
	"workin-messenger/pkg/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errImageTooLarge = errors.New("image too large")

// writeError 把业务错误映射为 HTTP 状态码
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPhone):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "Invalid phone number",
			map[string]string{"phone": "is not a feasible phone number"})
	case errors.Is(err, service.ErrPasswordTooShort):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "Password too short",
			map[string]string{"password": "must be at least 8 characters"})
	case errors.Is(err, service.ErrPasswordTooLong):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "Password too long",
			map[string]string{"password": "must be at most 72 bytes"})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrEmptyMessage):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, service.ErrUnsupportedImageFormat):
		response.Error(c, http.StatusUnsupportedMediaType, "Unsupported image format, only JPEG and PNG are accepted")
	case errors.Is(err, errImageTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "Image too large")
	case errors.Is(err, service.ErrDuplicateUsername):
		response.Conflict(c, "Username already registered")
	case errors.Is(err, service.ErrIncorrectPassword):
		response.Unauthorized(c, "Incorrect password")
	case errors.Is(err, service.ErrUnauthorized):
		response.Unauthorized(c, "Could not validate credentials")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, "User not found")
	default:
		// 未分类的持久化错误也按 4xx 返回原始信息
		_ = c.Error(err)
		logger.Error("请求处理失败",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		response.BadRequest(c, err.Error())
	}
}

// writeBindError 请求参数绑定或校验失败
func writeBindError(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "Validation failed", validation.ToDetails(err))
}
