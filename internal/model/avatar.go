package model

import "time"

// Avatar 头像模型
// Src 为头像目录下的文件名（不是完整路径），同时也是对外公开的引用

type Avatar struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Src       string    `gorm:"type:varchar(255);not null;comment:文件名" json:"src"`
	Alt       string    `gorm:"type:varchar(255);not null;comment:替代文本" json:"alt"`
	CreatedAt time.Time `gorm:"autoCreateTime;<-:create;comment:创建时间" json:"-"`
}

func (Avatar) TableName() string { return "avatar" }
