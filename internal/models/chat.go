package models

import (
	"time"
)

// ChatSession 聊天会话模型
// 访客无需登录即可发起会话，登录用户的会话会关联用户 ID
type ChatSession struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionKey    string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"session_key"`
	UserID        *int64     `gorm:"index" json:"user_id,omitempty"`
	Status        int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User     *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Messages []ChatMessage `gorm:"foreignKey:SessionID" json:"messages,omitempty"`
}

// TableName 表名
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatSessionStatus 会话状态
const (
	ChatSessionStatusClosed = 0 // 已关闭
	ChatSessionStatusActive = 1 // 进行中
)

// ChatRole 消息发送方
const (
	ChatRoleUser = "user" // 访客
	ChatRoleBot  = "bot"  // 机器人
)

// ChatMessage 聊天消息模型
// 消息持久化在存储层，进程内不保留会话内存状态
type ChatMessage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID int64     `gorm:"index;not null" json:"session_id"`
	Role      string    `gorm:"type:varchar(10);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Intent    *string   `gorm:"type:varchar(50)" json:"intent,omitempty"`
	FAQID     *int64    `gorm:"column:faq_id" json:"faq_id,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Session *ChatSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}

// TableName 表名
func (ChatMessage) TableName() string {
	return "chat_messages"
}
