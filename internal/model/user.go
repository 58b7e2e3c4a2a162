package model

import (
	"fmt"
	"time"
)

// Sex 性别，只允许两个取值
type Sex string

const (
	SexMan   Sex = "Man"
	SexWoman Sex = "Woman"
)

// Valid 判断取值是否合法
func (s Sex) Valid() bool {
	return s == SexMan || s == SexWoman
}

// User 用户模型
// 索引与唯一约束：用户名唯一，由数据库唯一索引保证
// 说明：密码仅存储哈希（PasswordHash），不存储明文，也不参与序列化
// 头像为可选的一对一关系：用户指向头像（AvatarID），删除头像行不会级联删除用户

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(64);not null;uniqueIndex;comment:用户名" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null;comment:密码哈希" json:"-"`
	FirstName    string    `gorm:"type:varchar(128);not null;comment:名" json:"first_name"`
	LastName     string    `gorm:"type:varchar(128);not null;comment:姓" json:"last_name"`
	Phone        string    `gorm:"type:varchar(20);not null;comment:手机号" json:"phone"`
	Sex          Sex       `gorm:"type:varchar(8);not null;comment:性别" json:"sex"`
	Email        string    `gorm:"type:varchar(128);not null;comment:邮箱" json:"email"`
	AvatarID     *uint     `gorm:"index;comment:头像ID" json:"-"`
	Avatar       *Avatar   `gorm:"foreignKey:AvatarID;constraint:OnDelete:SET NULL" json:"avatar"`
	CreatedAt    time.Time `gorm:"comment:创建时间" json:"-"`
	UpdatedAt    time.Time `gorm:"comment:更新时间" json:"-"`
}

// TableName 指定表名（全局配置使用单数表名）
func (User) TableName() string { return "user" }

// AvatarAlt 头像替代文本
func AvatarAlt(username string) string {
	return fmt.Sprintf("%s's avatar", username)
}
