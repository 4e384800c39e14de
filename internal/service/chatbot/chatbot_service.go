// Package chatbot 提供基于规则匹配的客服机器人服务
// 以 FAQ 为知识库做关键词打分，不依赖外部大模型
package chatbot

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/common/errors"
	"github.com/tatchunari/neatly-backend/internal/common/logger"
	"github.com/tatchunari/neatly-backend/internal/common/metrics"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/internal/repository"
)

// 意图标识
const (
	IntentFAQ      = "faq"      // 命中知识库
	IntentGreeting = "greeting" // 问候
	IntentFallback = "fallback" // 未识别
)

// fallbackReply 未识别时的兜底回复
const fallbackReply = "抱歉，我还没能理解您的问题。您可以换个说法，或拨打前台电话 02-xxx-xxxx 获得人工帮助。"

// greetingReply 问候回复
const greetingReply = "您好，欢迎来到 Neatly！我可以解答预订、支付、设施和入住政策相关的问题，请问有什么可以帮您？"

// greetingPhrases 问候短语表（子串匹配）
var greetingPhrases = []string{
	"你好", "您好", "สวัสดี", "good morning", "good afternoon", "good evening",
}

// greetingTokens 英文问候词表（整词匹配，避免 "this" 误判为 "hi"）
var greetingTokens = map[string]struct{}{
	"hello": {}, "hi": {}, "hey": {},
}

// Service 客服机器人服务
type Service struct {
	chatRepo    *repository.ChatRepository
	contentRepo *repository.ContentRepository
}

// NewService 创建客服机器人服务
func NewService(chatRepo *repository.ChatRepository, contentRepo *repository.ContentRepository) *Service {
	return &Service{chatRepo: chatRepo, contentRepo: contentRepo}
}

// StartSession 创建新会话
// userID 为 0 时创建匿名会话
func (s *Service) StartSession(ctx context.Context, userID int64) (*models.ChatSession, error) {
	session := &models.ChatSession{
		SessionKey: uuid.NewString(),
		Status:     models.ChatSessionStatusActive,
	}
	if userID > 0 {
		session.UserID = &userID
	}

	if err := s.chatRepo.CreateSession(ctx, session); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("聊天会话已创建", logger.String("session_key", session.SessionKey))
	return session, nil
}

// getActiveSession 根据会话键获取进行中的会话
func (s *Service) getActiveSession(ctx context.Context, sessionKey string) (*models.ChatSession, error) {
	session, err := s.chatRepo.GetSessionByKey(ctx, sessionKey)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrSessionNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if session.Status != models.ChatSessionStatusActive {
		return nil, errors.ErrSessionNotFound
	}
	return session, nil
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

// Reply 机器人回复
type Reply struct {
	SessionKey string              `json:"session_key"`
	Question   *models.ChatMessage `json:"question"`
	Answer     *models.ChatMessage `json:"answer"`
	Intent     string              `json:"intent"`
}

// SendMessage 发送消息并获取机器人回复
// 访客消息与机器人回复均持久化，回复记录命中意图与 FAQ
func (s *Service) SendMessage(ctx context.Context, sessionKey string, req *SendMessageRequest) (*Reply, error) {
	session, err := s.getActiveSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, errors.ErrInvalidParams.WithMessage("消息内容不能为空")
	}

	// 1. 持久化访客消息
	question := &models.ChatMessage{
		SessionID: session.ID,
		Role:      models.ChatRoleUser,
		Content:   content,
	}
	if err := s.chatRepo.CreateMessage(ctx, question); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	// 2. 规则匹配生成回复
	intent, replyText, faq := s.classify(ctx, content)

	answer := &models.ChatMessage{
		SessionID: session.ID,
		Role:      models.ChatRoleBot,
		Content:   replyText,
		Intent:    &intent,
	}
	if faq != nil {
		answer.FAQID = &faq.ID
	}
	if err := s.chatRepo.CreateMessage(ctx, answer); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	// 3. 刷新会话活跃时间
	if err := s.chatRepo.TouchSession(ctx, session.ID, time.Now()); err != nil {
		logger.Warn("刷新会话时间失败", logger.String("session_key", sessionKey), logger.Err(err))
	}

	metrics.GetMetrics().RecordChatMessage(intent)

	return &Reply{
		SessionKey: sessionKey,
		Question:   question,
		Answer:     answer,
		Intent:     intent,
	}, nil
}

// classify 对消息做意图识别
// 问候词直接回复；其余在已发布 FAQ 中按关键词与问题文本打分取最高
func (s *Service) classify(ctx context.Context, content string) (string, string, *models.FAQ) {
	lower := strings.ToLower(content)

	if isGreeting(lower) {
		return IntentGreeting, greetingReply, nil
	}

	faqs, err := s.contentRepo.ListPublishedFAQs(ctx, "")
	if err != nil {
		logger.Error("加载知识库失败", logger.Err(err))
		return IntentFallback, fallbackReply, nil
	}

	var best *models.FAQ
	bestScore := 0
	for _, faq := range faqs {
		score := matchScore(lower, faq)
		if score > bestScore {
			bestScore = score
			best = faq
		}
	}

	if best == nil {
		return IntentFallback, fallbackReply, nil
	}
	return IntentFAQ, best.Answer, best
}

// isGreeting 判断消息是否为问候语
func isGreeting(lower string) bool {
	for _, phrase := range greetingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, token := range tokens {
		if _, ok := greetingTokens[token]; ok {
			return true
		}
	}
	return false
}

// matchScore 计算消息与 FAQ 的匹配得分
// 关键词命中计 2 分，问题文本词命中计 1 分
func matchScore(lowerContent string, faq *models.FAQ) int {
	score := 0
	for _, keyword := range faq.Keywords {
		k := strings.ToLower(strings.TrimSpace(keyword))
		if k != "" && strings.Contains(lowerContent, k) {
			score += 2
		}
	}
	for _, word := range strings.Fields(strings.ToLower(faq.Question)) {
		// 过短的词（冠词、介词等）不参与打分
		if len(word) >= 4 && strings.Contains(lowerContent, word) {
			score++
		}
	}
	return score
}

// History 获取会话消息历史
func (s *Service) History(ctx context.Context, sessionKey string, limit int) ([]*models.ChatMessage, error) {
	session, err := s.chatRepo.GetSessionByKey(ctx, sessionKey)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrSessionNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	messages, err := s.chatRepo.ListMessages(ctx, session.ID, limit)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return messages, nil
}

// CloseSession 关闭会话
func (s *Service) CloseSession(ctx context.Context, sessionKey string) error {
	session, err := s.getActiveSession(ctx, sessionKey)
	if err != nil {
		return err
	}
	if err := s.chatRepo.CloseSession(ctx, session.ID); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}
