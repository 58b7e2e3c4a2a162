package service

import (
	"context"
	"errors"
	"fmt"

	"workin-messenger/internal/model"
	"workin-messenger/internal/repository"
	"workin-messenger/pkg/jwt"
	"workin-messenger/pkg/logger"

	"go.uber.org/zap"
)

// TokenVerifier 令牌校验
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// UserFinder 按用户名查找用户
type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// IdentityResolver 根据 Bearer 令牌解析当前用户，不做缓存，每次都查库
type IdentityResolver struct {
	tokens TokenVerifier
	users  UserFinder
}

func NewIdentityResolver(tokens TokenVerifier, users UserFinder) *IdentityResolver {
	return &IdentityResolver{tokens: tokens, users: users}
}

// Resolve 过期、签名错误、格式错误、用户不存在统一返回 ErrUnauthorized
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (*model.User, error) {
	claims, err := r.tokens.Verify(token)
	if err != nil {
		logger.Debug("令牌无效", zap.Error(err))
		return nil, ErrUnauthorized
	}

	user, err := r.users.GetByUsername(ctx, claims.Username())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Debug("令牌对应的用户不存在", zap.String("username", claims.Username()))
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
