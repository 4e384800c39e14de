// Package mailer 邮件发送服务
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"
)

// Message 邮件消息
type Message struct {
	To      string
	Subject string
	Body    string
	HTML    bool
}

// Sender 邮件发送器接口
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Config SMTP 配置
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPSender SMTP 邮件发送器
type SMTPSender struct {
	config *Config
}

// NewSMTPSender 创建 SMTP 邮件发送器
func NewSMTPSender(config *Config) *SMTPSender {
	return &SMTPSender{config: config}
}

// Send 发送邮件
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	contentType := "text/plain; charset=UTF-8"
	if msg.HTML {
		contentType = "text/html; charset=UTF-8"
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	fmt.Fprintf(&b, "\r\n%s", msg.Body)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, s.config.From, []string{msg.To}, []byte(b.String()))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("发送邮件失败: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MockSender 模拟邮件发送器（用于开发/测试）
type MockSender struct {
	mu       sync.Mutex
	Messages []SentMessage
}

// SentMessage 已发送消息记录
type SentMessage struct {
	Message Message
	SentAt  time.Time
}

// NewMockSender 创建模拟发送器
func NewMockSender() *MockSender {
	return &MockSender{Messages: make([]SentMessage, 0)}
}

// Send 模拟发送
func (m *MockSender) Send(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, SentMessage{Message: *msg, SentAt: time.Now()})
	return nil
}

// GetLastMessage 获取最后发送的消息
func (m *MockSender) GetLastMessage() *SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Messages) == 0 {
		return nil
	}
	return &m.Messages[len(m.Messages)-1]
}

// Clear 清空消息记录
func (m *MockSender) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = make([]SentMessage, 0)
}
