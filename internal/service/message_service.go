package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"workin-messenger/internal/model"
	"workin-messenger/internal/repository"
	"workin-messenger/pkg/logger"

	"go.uber.org/zap"
)

// MessageStore 消息持久化
type MessageStore interface {
	Create(ctx context.Context, message *model.Message) error
}

// RecipientFinder 按ID查找用户
type RecipientFinder interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

// MessageService 消息服务
type MessageService struct {
	messageRepo MessageStore
	userRepo    RecipientFinder
}

// NewMessageService 创建MessageService实例
func NewMessageService(messageRepo MessageStore, userRepo RecipientFinder) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

// SendMessage 发送私聊消息，发送者为当前认证用户
func (s *MessageService) SendMessage(ctx context.Context, sender *model.User, recipientID uint, content string) (*model.Message, error) {
	if sender == nil {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	// 检查接收者是否存在
	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load recipient: %w", err)
	}

	message := &model.Message{
		SenderID:    sender.ID,
		RecipientID: recipientID,
		Content:     content,
	}

	// 保存消息
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	logger.Debug("消息已发送",
		zap.Uint("msg_id", message.ID),
		zap.Uint("from", sender.ID),
		zap.Uint("to", recipientID),
	)
	return message, nil
}
