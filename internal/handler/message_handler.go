package handler

import (
	"workin-messenger/internal/service"
	"workin-messenger/pkg/jwt"
	"workin-messenger/pkg/response"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息处理器
type MessageHandler struct {
	service *service.MessageService
}

// NewMessageHandler 创建MessageHandler实例
func NewMessageHandler(s *service.MessageService) *MessageHandler {
	return &MessageHandler{service: s}
}

type sendMessageRequest struct {
	RecipientID uint   `json:"recipient_id" binding:"required,gt=0"`
	Content     string `json:"content" binding:"required,max=4096"`
}

// SendMessage 以当前用户身份发送私聊消息
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var r sendMessageRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		writeBindError(c, err)
		return
	}

	message, err := h.service.SendMessage(c.Request.Context(), jwt.GetCurrentUser(c), r.RecipientID, r.Content)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, "消息发送成功", response.FilterMessageInfo(message))
}
