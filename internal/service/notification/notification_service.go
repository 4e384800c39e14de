// Package notification 提供预订相关的邮件/短信通知服务
// 所有通知均为尽力投递：失败只记录日志，不影响主流程
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/tatchunari/neatly-backend/internal/common/logger"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/pkg/mailer"
	"github.com/tatchunari/neatly-backend/pkg/sms"
)

// Service 通知服务
type Service struct {
	mailSender mailer.Sender
	smsSender  sms.Sender
	timeout    time.Duration
}

// NewService 创建通知服务
// mailSender 与 smsSender 允许为 nil，对应的通道会被跳过
func NewService(mailSender mailer.Sender, smsSender sms.Sender) *Service {
	return &Service{
		mailSender: mailSender,
		smsSender:  smsSender,
		timeout:    10 * time.Second,
	}
}

// NotifyBookingConfirmed 通知预订确认成功
func (s *Service) NotifyBookingConfirmed(booking *models.Booking, email string) {
	go s.run("booking_confirmed", booking.BookingNo, func(ctx context.Context) {
		if s.mailSender != nil && email != "" {
			msg := &mailer.Message{
				To:      email,
				Subject: fmt.Sprintf("预订确认 - %s", booking.BookingNo),
				Body: fmt.Sprintf(
					"您的预订 %s 已确认。\n入住日期: %s\n退房日期: %s\n订单金额: %.2f\n期待您的光临。",
					booking.BookingNo,
					booking.CheckInDate.Format("2006-01-02"),
					booking.CheckOutDate.Format("2006-01-02"),
					booking.TotalAmount,
				),
			}
			if err := s.mailSender.Send(ctx, msg); err != nil {
				logger.Warn("预订确认邮件发送失败",
					logger.BookingNo(booking.BookingNo), logger.Err(err))
			}
		}
		if s.smsSender != nil && booking.GuestPhone != nil && *booking.GuestPhone != "" {
			if err := s.smsSender.SendBookingConfirmed(ctx, *booking.GuestPhone, booking.BookingNo); err != nil {
				logger.Warn("预订确认短信发送失败",
					logger.BookingNo(booking.BookingNo), logger.Err(err))
			}
		}
	})
}

// NotifyBookingCancelled 通知预订已取消
func (s *Service) NotifyBookingCancelled(booking *models.Booking, email string) {
	go s.run("booking_cancelled", booking.BookingNo, func(ctx context.Context) {
		if s.mailSender != nil && email != "" {
			msg := &mailer.Message{
				To:      email,
				Subject: fmt.Sprintf("预订已取消 - %s", booking.BookingNo),
				Body: fmt.Sprintf(
					"您的预订 %s 已取消。\n如有已完成的支付，退款将原路退回。",
					booking.BookingNo,
				),
			}
			if err := s.mailSender.Send(ctx, msg); err != nil {
				logger.Warn("取消通知邮件发送失败",
					logger.BookingNo(booking.BookingNo), logger.Err(err))
			}
		}
		if s.smsSender != nil && booking.GuestPhone != nil && *booking.GuestPhone != "" {
			if err := s.smsSender.SendBookingCancelled(ctx, *booking.GuestPhone, booking.BookingNo); err != nil {
				logger.Warn("取消通知短信发送失败",
					logger.BookingNo(booking.BookingNo), logger.Err(err))
			}
		}
	})
}

// NotifyRefund 通知退款完成
func (s *Service) NotifyRefund(booking *models.Booking, email string, amount float64) {
	go s.run("refund", booking.BookingNo, func(ctx context.Context) {
		amountText := fmt.Sprintf("%.2f", amount)
		if s.mailSender != nil && email != "" {
			msg := &mailer.Message{
				To:      email,
				Subject: fmt.Sprintf("退款通知 - %s", booking.BookingNo),
				Body: fmt.Sprintf(
					"您的预订 %s 的退款 %s 已发起，预计 3-7 个工作日内到账。",
					booking.BookingNo, amountText,
				),
			}
			if err := s.mailSender.Send(ctx, msg); err != nil {
				logger.Warn("退款通知邮件发送失败",
					logger.BookingNo(booking.BookingNo), logger.Err(err))
			}
		}
		if s.smsSender != nil && booking.GuestPhone != nil && *booking.GuestPhone != "" {
			if err := s.smsSender.SendRefundNotify(ctx, *booking.GuestPhone, booking.BookingNo, amountText); err != nil {
				logger.Warn("退款通知短信发送失败",
					logger.BookingNo(booking.BookingNo), logger.Err(err))
			}
		}
	})
}

// run 在独立 goroutine 中带超时和 panic 保护执行通知任务
func (s *Service) run(kind, bookingNo string, fn func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("通知任务 panic",
				logger.String("kind", kind),
				logger.BookingNo(bookingNo),
				logger.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	fn(ctx)
}
