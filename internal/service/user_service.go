package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"unicode/utf8"

	"workin-messenger/internal/model"
	"workin-messenger/internal/repository"
	"workin-messenger/pkg/logger"
	"workin-messenger/pkg/password"
	"workin-messenger/pkg/storage"

	"go.uber.org/zap"
)

const (
	minPasswordLen = 8
	maxPasswordLen = password.MaxLength
)

// UserStore 用户持久化
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	SearchByUsername(ctx context.Context, query string) ([]*model.User, error)
	UpdateAccount(ctx context.Context, userID uint, fields map[string]interface{}, newAvatar *model.Avatar) (*model.User, *model.Avatar, error)
}

// AvatarStorage 头像文件存储
type AvatarStorage interface {
	Save(data []byte, originalName string) (string, error)
	Delete(name string) error
}

// PasswordHasher 密码哈希
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// PhoneValidator 手机号可行性校验
type PhoneValidator interface {
	IsFeasible(number string) bool
}

// TokenIssuer 访问令牌签发
type TokenIssuer interface {
	GenerateToken(username string) (string, error)
}

// ImageUpload 上传的头像
type ImageUpload struct {
	Filename string
	Data     []byte
}

// RegisterInput 注册参数
type RegisterInput struct {
	Username  string
	FirstName string
	LastName  string
	Phone     string
	Sex       model.Sex
	Email     string
	Password  string
	Image     *ImageUpload
}

// AccountChanges 稀疏更新：nil 表示不修改
type AccountChanges struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Sex       *model.Sex
	Email     *string
}

// ChangeAccountInput 修改账户参数
type ChangeAccountInput struct {
	CurrentPassword string
	Changes         AccountChanges
	NewPassword     *string
	Image           *ImageUpload
}

// UserService 账户管理：注册、登录、修改账户、搜索
type UserService struct {
	repo    UserStore
	hasher  PasswordHasher
	phones  PhoneValidator
	avatars AvatarStorage
	tokens  TokenIssuer

	// 用户不存在时也做一次哈希比较，避免通过耗时判断用户是否存在
	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(repo UserStore, hasher PasswordHasher, phones PhoneValidator, avatars AvatarStorage, tokens TokenIssuer) *UserService {
	return &UserService{
		repo:    repo,
		hasher:  hasher,
		phones:  phones,
		avatars: avatars,
		tokens:  tokens,
	}
}

// Register 注册
// 校验全部在写文件和计算哈希之前完成；事务失败时删除已写入的头像文件
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	firstName, lastName, email := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName), strings.TrimSpace(in.Email)
	if firstName == "" || lastName == "" || email == "" {
		return nil, fmt.Errorf("%w: first_name, last_name and email are required", ErrInvalidInput)
	}
	if !in.Sex.Valid() {
		return nil, fmt.Errorf("%w: sex must be %s or %s", ErrInvalidInput, model.SexMan, model.SexWoman)
	}
	if !s.phones.IsFeasible(in.Phone) {
		return nil, ErrInvalidPhone
	}
	plain, err := normalizePassword(in.Password)
	if err != nil {
		return nil, err
	}
	if err := checkImage(in.Image); err != nil {
		return nil, err
	}

	// 密码哈希
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        strings.TrimSpace(in.Phone),
		Sex:          in.Sex,
		Email:        email,
	}

	if in.Image != nil {
		src, err := s.avatars.Save(in.Image.Data, in.Image.Filename)
		if err != nil {
			return nil, fmt.Errorf("save avatar: %w", err)
		}
		user.Avatar = &model.Avatar{Src: src, Alt: model.AvatarAlt(username)}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if user.Avatar != nil {
			s.discardAvatar(user.Avatar.Src)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info("用户注册成功",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Bool("avatar", user.Avatar != nil),
	)
	return user, nil
}

// Authenticate 校验用户名和密码；用户不存在与密码错误返回同一个错误
func (s *UserService) Authenticate(ctx context.Context, username, plainPassword string) (*model.User, error) {
	username = strings.TrimSpace(username)
	plainPassword = strings.TrimSpace(plainPassword)

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Verify(plainPassword, s.fallbackHash())
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(plainPassword, u.PasswordHash) {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// Login 登录并签发访问令牌
func (s *UserService) Login(ctx context.Context, username, plainPassword string) (*model.User, string, error) {
	u, err := s.Authenticate(ctx, username, plainPassword)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.GenerateToken(u.Username)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ChangeAccount 修改账户
// 1. 校验当前密码 2. 重新读取用户行 3. 可选修改密码 4. 可选替换头像 5. 稀疏更新 6. 提交
// 同一用户的并发修改不互斥，按语句后写者胜
func (s *UserService) ChangeAccount(ctx context.Context, current *model.User, in ChangeAccountInput) (*model.User, error) {
	if current == nil {
		return nil, ErrUnauthorized
	}

	fields, err := s.collectChanges(in.Changes)
	if err != nil {
		return nil, err
	}
	var newPlain string
	if in.NewPassword != nil {
		if newPlain, err = normalizePassword(*in.NewPassword); err != nil {
			return nil, err
		}
	}
	if err := checkImage(in.Image); err != nil {
		return nil, err
	}

	if !s.hasher.Verify(strings.TrimSpace(in.CurrentPassword), current.PasswordHash) {
		return nil, ErrIncorrectPassword
	}

	if in.NewPassword != nil {
		hash, err := s.hasher.Hash(newPlain)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		fields["password_hash"] = hash
	}

	var newAvatar *model.Avatar
	if in.Image != nil {
		src, err := s.avatars.Save(in.Image.Data, in.Image.Filename)
		if err != nil {
			return nil, fmt.Errorf("save avatar: %w", err)
		}
		newAvatar = &model.Avatar{Src: src, Alt: model.AvatarAlt(current.Username)}
	}

	updated, replaced, err := s.repo.UpdateAccount(ctx, current.ID, fields, newAvatar)
	if err != nil {
		if newAvatar != nil {
			s.discardAvatar(newAvatar.Src)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("update account: %w", err)
	}

	// 事务已提交，再删除旧头像文件；文件缺失只记录警告
	if replaced != nil {
		if err := s.avatars.Delete(replaced.Src); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn("旧头像文件不存在", zap.String("src", replaced.Src), zap.Uint("user_id", current.ID))
			} else {
				logger.Warn("删除旧头像文件失败", zap.String("src", replaced.Src), zap.Error(err))
			}
		}
	}

	logger.Info("账户已更新",
		zap.Uint("user_id", updated.ID),
		zap.Int("fields", len(fields)),
		zap.Bool("avatar_replaced", newAvatar != nil),
	)
	return updated, nil
}

// SearchUsers 按用户名子串搜索
func (s *UserService) SearchUsers(ctx context.Context, query string) ([]*model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: username query is required", ErrInvalidInput)
	}
	return s.repo.SearchByUsername(ctx, query)
}

// collectChanges 只收集显式提供的字段，并在任何写操作之前完成校验
func (s *UserService) collectChanges(c AccountChanges) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	if c.FirstName != nil {
		v := strings.TrimSpace(*c.FirstName)
		if v == "" {
			return nil, fmt.Errorf("%w: first_name must not be empty", ErrInvalidInput)
		}
		fields["first_name"] = v
	}
	if c.LastName != nil {
		v := strings.TrimSpace(*c.LastName)
		if v == "" {
			return nil, fmt.Errorf("%w: last_name must not be empty", ErrInvalidInput)
		}
		fields["last_name"] = v
	}
	if c.Phone != nil {
		if !s.phones.IsFeasible(*c.Phone) {
			return nil, ErrInvalidPhone
		}
		fields["phone"] = strings.TrimSpace(*c.Phone)
	}
	if c.Sex != nil {
		if !c.Sex.Valid() {
			return nil, fmt.Errorf("%w: sex must be %s or %s", ErrInvalidInput, model.SexMan, model.SexWoman)
		}
		fields["sex"] = *c.Sex
	}
	if c.Email != nil {
		v := strings.TrimSpace(*c.Email)
		if v == "" {
			return nil, fmt.Errorf("%w: email must not be empty", ErrInvalidInput)
		}
		fields["email"] = v
	}
	return fields, nil
}

func (s *UserService) discardAvatar(src string) {
	if err := s.avatars.Delete(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("回滚头像文件失败", zap.String("src", src), zap.Error(err))
	}
}

func (s *UserService) fallbackHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("fallback-password-for-timing")
	})
	return s.dummyHash
}

func normalizePassword(p string) (string, error) {
	p = strings.TrimSpace(p)
	if utf8.RuneCountInString(p) < minPasswordLen {
		return "", ErrPasswordTooShort
	}
	if len(p) > maxPasswordLen {
		return "", ErrPasswordTooLong
	}
	return p, nil
}

func checkImage(img *ImageUpload) error {
	if img == nil {
		return nil
	}
	if _, err := storage.DetectImage(img.Data); err != nil {
		return ErrUnsupportedImageFormat
	}
	return nil
}
