// Package sms 短信服务
package sms

import (
	"context"
	"encoding/json"
	"fmt"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi "github.com/alibabacloud-go/dysmsapi-20170525/v3/client"
	"github.com/alibabacloud-go/tea/tea"
)

// AliyunConfig 阿里云短信配置
type AliyunConfig struct {
	AccessKeyID     string
	AccessKeySecret string
	SignName        string
	Endpoint        string // 默认 dysmsapi.aliyuncs.com
}

// AliyunSender 阿里云短信发送器
type AliyunSender struct {
	client    *dysmsapi.Client
	signName  string
	templates map[string]string
}

// NewAliyunSender 创建阿里云短信发送器
func NewAliyunSender(config *AliyunConfig) (*AliyunSender, error) {
	cfg := &openapi.Config{
		AccessKeyId:     tea.String(config.AccessKeyID),
		AccessKeySecret: tea.String(config.AccessKeySecret),
	}

	if config.Endpoint != "" {
		cfg.Endpoint = tea.String(config.Endpoint)
	} else {
		cfg.Endpoint = tea.String("dysmsapi.aliyuncs.com")
	}

	client, err := dysmsapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建阿里云短信客户端失败: %v", err)
	}

	templates := make(map[string]string, len(DefaultTemplates))
	for k, v := range DefaultTemplates {
		templates[k] = v
	}

	return &AliyunSender{
		client:    client,
		signName:  config.SignName,
		templates: templates,
	}, nil
}

// SetTemplates 设置模板编码
func (s *AliyunSender) SetTemplates(templates map[string]string) {
	for k, v := range templates {
		s.templates[k] = v
	}
}

// Send 发送短信
func (s *AliyunSender) Send(ctx context.Context, phone, templateCode string, params map[string]string) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("序列化参数失败: %v", err)
	}

	req := &dysmsapi.SendSmsRequest{
		PhoneNumbers:  tea.String(phone),
		SignName:      tea.String(s.signName),
		TemplateCode:  tea.String(templateCode),
		TemplateParam: tea.String(string(paramsJSON)),
	}

	resp, err := s.client.SendSms(req)
	if err != nil {
		return fmt.Errorf("发送短信失败: %v", err)
	}

	if resp.Body == nil || *resp.Body.Code != "OK" {
		msg := "未知错误"
		if resp.Body != nil && resp.Body.Message != nil {
			msg = *resp.Body.Message
		}
		return fmt.Errorf("发送短信失败: %s", msg)
	}

	return nil
}

// SendBookingConfirmed 发送预订确认通知
func (s *AliyunSender) SendBookingConfirmed(ctx context.Context, phone, bookingNo string) error {
	templateCode, ok := s.templates["booking_confirmed"]
	if !ok {
		return fmt.Errorf("预订确认模板未配置")
	}

	return s.Send(ctx, phone, templateCode, map[string]string{
		"booking_no": bookingNo,
	})
}

// SendBookingCancelled 发送预订取消通知
func (s *AliyunSender) SendBookingCancelled(ctx context.Context, phone, bookingNo string) error {
	templateCode, ok := s.templates["booking_cancelled"]
	if !ok {
		return fmt.Errorf("预订取消模板未配置")
	}

	return s.Send(ctx, phone, templateCode, map[string]string{
		"booking_no": bookingNo,
	})
}

// SendRefundNotify 发送退款通知
func (s *AliyunSender) SendRefundNotify(ctx context.Context, phone, bookingNo, amount string) error {
	templateCode, ok := s.templates["refund_notify"]
	if !ok {
		return fmt.Errorf("退款通知模板未配置")
	}

	return s.Send(ctx, phone, templateCode, map[string]string{
		"booking_no": bookingNo,
		"amount":     amount,
	})
}
