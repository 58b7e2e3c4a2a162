package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"workin-messenger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	orm *gorm.DB
}

func NewUserRepository(orm *gorm.DB) *UserRepository {
	return &UserRepository{orm: orm}
}

// Create 在同一事务中写入头像（如有）和用户，要么都成功要么都不提交
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if user.Avatar != nil {
			if err := tx.Create(user.Avatar).Error; err != nil {
				return fmt.Errorf("create avatar: %w", err)
			}
			user.AvatarID = &user.Avatar.ID
		}
		return tx.Omit("Avatar").Create(user).Error
	})
	if err != nil {
		if user.Avatar != nil {
			user.Avatar.ID = 0
			user.AvatarID = nil
		}
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: username %q", ErrDuplicate, user.Username)
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.orm.WithContext(ctx).Preload("Avatar").First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := r.orm.WithContext(ctx).Preload("Avatar").Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// SearchByUsername 用户名子串搜索，不区分大小写
func (r *UserRepository) SearchByUsername(ctx context.Context, query string) ([]*model.User, error) {
	var users []*model.User
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	err := r.orm.WithContext(ctx).
		Preload("Avatar").
		Where("LOWER(username) LIKE ? ESCAPE '!'", pattern).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// UpdateAccount 在一个事务中完成稀疏更新与头像替换
// fields 只包含需要修改的列；newAvatar 不为空时创建新头像并删除旧头像行
// 返回更新后的用户和被替换掉的旧头像（用于事务提交后删除文件）
func (r *UserRepository) UpdateAccount(ctx context.Context, userID uint, fields map[string]interface{}, newAvatar *model.Avatar) (*model.User, *model.Avatar, error) {
	var (
		updated  model.User
		replaced *model.Avatar
	)
	err := r.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 重新读取当前行并加行锁，并发替换头像按提交顺序串行（SQLite 忽略该子句，由单写者保证）
		var current model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Avatar").First(&current, userID).Error; err != nil {
			return notFound(err)
		}

		changes := make(map[string]interface{}, len(fields)+1)
		for k, v := range fields {
			changes[k] = v
		}
		if newAvatar != nil {
			if err := tx.Create(newAvatar).Error; err != nil {
				return fmt.Errorf("create avatar: %w", err)
			}
			changes["avatar_id"] = newAvatar.ID
		}

		if len(changes) > 0 {
			if err := tx.Model(&model.User{}).Where("id = ?", userID).Updates(changes).Error; err != nil {
				return fmt.Errorf("update user: %w", err)
			}
		}

		if newAvatar != nil && current.AvatarID != nil {
			if err := tx.Delete(&model.Avatar{}, *current.AvatarID).Error; err != nil {
				return fmt.Errorf("delete old avatar: %w", err)
			}
			replaced = current.Avatar
		}

		return tx.Preload("Avatar").First(&updated, userID).Error
	})
	if err != nil {
		if newAvatar != nil {
			newAvatar.ID = 0
		}
		return nil, nil, err
	}
	return &updated, replaced, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
