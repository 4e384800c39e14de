// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/models"
)

// ChatRepository 聊天仓储
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建聊天仓储
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateSession 创建会话
func (r *ChatRepository) CreateSession(ctx context.Context, session *models.ChatSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetSessionByKey 根据会话键获取会话
func (r *ChatRepository) GetSessionByKey(ctx context.Context, sessionKey string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.WithContext(ctx).Where("session_key = ?", sessionKey).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// TouchSession 更新会话最近消息时间
func (r *ChatRepository) TouchSession(ctx context.Context, sessionID int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("id = ?", sessionID).
		Update("last_message_at", at).Error
}

// CloseSession 关闭会话
func (r *ChatRepository) CloseSession(ctx context.Context, sessionID int64) error {
	return r.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("id = ?", sessionID).
		Update("status", models.ChatSessionStatusClosed).Error
}

// CreateMessage 创建消息
func (r *ChatRepository) CreateMessage(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListMessages 获取会话的消息历史（按时间正序）
func (r *ChatRepository) ListMessages(ctx context.Context, sessionID int64, limit int) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage
	query := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&messages).Error
	return messages, err
}

// ListSessionsByUser 获取用户的会话列表
func (r *ChatRepository) ListSessionsByUser(ctx context.Context, userID int64) ([]*models.ChatSession, error) {
	var sessions []*models.ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&sessions).Error
	return sessions, err
}
