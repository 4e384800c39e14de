// Package sms 短信服务
package sms

import (
	"context"
	"sync"
	"time"
)

// Sender 短信发送器接口
type Sender interface {
	Send(ctx context.Context, phone, templateCode string, params map[string]string) error
	SendBookingConfirmed(ctx context.Context, phone, bookingNo string) error
	SendBookingCancelled(ctx context.Context, phone, bookingNo string) error
	SendRefundNotify(ctx context.Context, phone, bookingNo, amount string) error
}

// DefaultTemplates 默认模板编码
var DefaultTemplates = map[string]string{
	"booking_confirmed": "SMS_BOOKING_CONFIRMED", // 预订确认模板
	"booking_cancelled": "SMS_BOOKING_CANCELLED", // 预订取消模板
	"refund_notify":     "SMS_REFUND_NOTIFY",     // 退款通知模板
}

// MockSender 模拟短信发送器（用于开发/测试）
type MockSender struct {
	mu           sync.Mutex
	SentMessages []MockMessage
}

// MockMessage 模拟消息
type MockMessage struct {
	Phone        string
	TemplateCode string
	Params       map[string]string
	SentAt       time.Time
}

// NewMockSender 创建模拟发送器
func NewMockSender() *MockSender {
	return &MockSender{
		SentMessages: make([]MockMessage, 0),
	}
}

// Send 模拟发送
func (s *MockSender) Send(ctx context.Context, phone, templateCode string, params map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SentMessages = append(s.SentMessages, MockMessage{
		Phone:        phone,
		TemplateCode: templateCode,
		Params:       params,
		SentAt:       time.Now(),
	})
	return nil
}

// SendBookingConfirmed 模拟发送预订确认通知
func (s *MockSender) SendBookingConfirmed(ctx context.Context, phone, bookingNo string) error {
	return s.Send(ctx, phone, "booking_confirmed", map[string]string{"booking_no": bookingNo})
}

// SendBookingCancelled 模拟发送预订取消通知
func (s *MockSender) SendBookingCancelled(ctx context.Context, phone, bookingNo string) error {
	return s.Send(ctx, phone, "booking_cancelled", map[string]string{"booking_no": bookingNo})
}

// SendRefundNotify 模拟发送退款通知
func (s *MockSender) SendRefundNotify(ctx context.Context, phone, bookingNo, amount string) error {
	return s.Send(ctx, phone, "refund_notify", map[string]string{"booking_no": bookingNo, "amount": amount})
}

// GetLastMessage 获取最后发送的消息
func (s *MockSender) GetLastMessage() *MockMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.SentMessages) == 0 {
		return nil
	}
	return &s.SentMessages[len(s.SentMessages)-1]
}

// Clear 清空消息记录
func (s *MockSender) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SentMessages = make([]MockMessage, 0)
}
