package model

import "time"

// Message 消息模型
// 只有发送一种生命周期，创建后不再修改

type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uint      `gorm:"not null;index;comment:发送者ID" json:"sender_id"`
	RecipientID uint      `gorm:"not null;index;comment:接收者ID" json:"recipient_id"`
	Content     string    `gorm:"type:text;not null;comment:消息内容" json:"content"`
	CreatedAt   time.Time `gorm:"comment:创建时间" json:"-"`
}

func (Message) TableName() string { return "message" }
