// Package payment 提供支付单生命周期与退款服务
package payment

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/common/cache"
	"github.com/tatchunari/neatly-backend/internal/common/errors"
	"github.com/tatchunari/neatly-backend/internal/common/logger"
	"github.com/tatchunari/neatly-backend/internal/common/metrics"
	"github.com/tatchunari/neatly-backend/internal/common/utils"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/internal/repository"
	"github.com/tatchunari/neatly-backend/internal/service/notification"
	"github.com/tatchunari/neatly-backend/pkg/paygate"
	"github.com/tatchunari/neatly-backend/pkg/promptpay"
)

// Service 支付服务
type Service struct {
	db              *gorm.DB
	paymentRepo     *repository.PaymentRepository
	bookingRepo     *repository.BookingRepository
	processor       paygate.Processor
	idempotency     *cache.Idempotency
	notifySvc       *notification.Service
	promptPayTarget string
}

// NewService 创建支付服务
// idempotency 允许为 nil（未启用 Redis 时跳过幂等键检查）
func NewService(
	db *gorm.DB,
	paymentRepo *repository.PaymentRepository,
	bookingRepo *repository.BookingRepository,
	processor paygate.Processor,
	idempotency *cache.Idempotency,
	notifySvc *notification.Service,
	promptPayTarget string,
) *Service {
	return &Service{
		db:              db,
		paymentRepo:     paymentRepo,
		bookingRepo:     bookingRepo,
		processor:       processor,
		idempotency:     idempotency,
		notifySvc:       notifySvc,
		promptPayTarget: promptPayTarget,
	}
}

// CreatePaymentRequest 创建支付单请求
type CreatePaymentRequest struct {
	BookingID      int64   `json:"booking_id" binding:"required"`
	Method         string  `json:"method" binding:"required"`
	Amount         float64 `json:"amount" binding:"required,gt=0"`
	CardLast4      *string `json:"card_last4"`
	IdempotencyKey string  `json:"-"`
}

// CreatePayment 创建支付单
// 金额必须与预订总额一致；同一预订同时只允许一笔未失败的支付单；
// 带幂等键的重复请求返回首次创建的支付单
func (s *Service) CreatePayment(ctx context.Context, userID int64, req *CreatePaymentRequest) (*models.Payment, error) {
	if !models.ValidPaymentMethod(req.Method) {
		return nil, errors.ErrPaymentMethodError
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if userID > 0 && booking.UserID != userID {
		return nil, errors.ErrBookingNotFound
	}
	if booking.Status != models.BookingStatusPending {
		return nil, errors.ErrInvalidBookingState
	}
	if utils.RoundMoney(req.Amount) != booking.TotalAmount {
		return nil, errors.ErrAmountMismatch
	}

	paymentNo := utils.GenerateOrderNo("PY")

	// 幂等键：重复请求直接返回首次创建的支付单
	if s.idempotency != nil && req.IdempotencyKey != "" {
		claimed, existing, err := s.idempotency.Claim(ctx, req.IdempotencyKey, paymentNo)
		if err != nil {
			return nil, errors.ErrCacheError.WithError(err)
		}
		if !claimed {
			if existing == "" {
				return nil, errors.ErrIdempotencyConflict
			}
			payment, err := s.paymentRepo.GetByPaymentNo(ctx, existing)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return nil, errors.ErrIdempotencyConflict
				}
				return nil, errors.ErrDatabaseError.WithError(err)
			}
			return payment, nil
		}
	}

	payment := &models.Payment{
		PaymentNo: paymentNo,
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Amount:    booking.TotalAmount,
		Method:    req.Method,
		Status:    models.PaymentStatusPending,
		CardLast4: req.CardLast4,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 行锁读取预订，复核状态
		locked, err := s.bookingRepo.GetByIDForUpdate(tx, booking.ID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if locked.Status != models.BookingStatusPending {
			return errors.ErrInvalidBookingState
		}

		// 2. 阻止同一预订并发产生多笔在途支付
		count, err := s.paymentRepo.CountNonFailedByBookingID(tx, booking.ID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if count > 0 {
			return errors.ErrDuplicatePayment
		}

		// 3. PromptPay 生成扫码载荷
		if req.Method == models.PaymentMethodPromptPay {
			payload, err := promptpay.BuildPayload(s.promptPayTarget, booking.TotalAmount)
			if err != nil {
				return errors.ErrPaymentProcessorError.WithError(err)
			}
			payment.QRPayload = &payload
		}

		return s.paymentRepo.CreateInTx(tx, payment)
	})
	if err != nil {
		// 创建失败回滚幂等键占用，允许重试
		if s.idempotency != nil && req.IdempotencyKey != "" {
			if relErr := s.idempotency.Release(ctx, req.IdempotencyKey); relErr != nil {
				logger.Warn("幂等键释放失败", logger.Err(relErr))
			}
		}
		return nil, err
	}

	metrics.GetMetrics().RecordPayment(payment.Method, string(payment.Status))
	logger.Info("支付单已创建",
		logger.PaymentNo(payment.PaymentNo),
		logger.BookingNo(booking.BookingNo),
		logger.String("method", payment.Method),
		logger.Float64("amount", payment.Amount),
	)

	return payment, nil
}

// ProcessPaymentRequest 执行扣款请求
type ProcessPaymentRequest struct {
	CardToken string `json:"card_token"`
}

// ProcessPayment 执行扣款
// 网关超时结果未知，支付单保持 pending 供查询后重试；
// 网关拒绝则支付单转 failed，预订保持待支付可重新发起；
// 扣款成功时支付单转 completed 且预订在同一事务内确认
func (s *Service) ProcessPayment(ctx context.Context, userID, paymentID int64, req *ProcessPaymentRequest) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if userID > 0 && payment.UserID != userID {
		return nil, errors.ErrPaymentNotFound
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, errors.ErrInvalidPaymentTransition
	}
	if payment.Method == models.PaymentMethodCash {
		return nil, errors.ErrPaymentMethodError.WithMessage("现金支付请在前台确认")
	}

	// 1. 调用支付网关
	resp, err := s.processor.Charge(ctx, &paygate.ChargeRequest{
		PaymentNo: payment.PaymentNo,
		Amount:    payment.Amount,
		Currency:  "THB",
		Method:    payment.Method,
		CardToken: req.CardToken,
	})
	if err != nil {
		if stderrors.Is(err, paygate.ErrTimeout) {
			// 结果未知，保持 pending
			logger.Warn("支付网关超时", logger.PaymentNo(payment.PaymentNo))
			return nil, errors.ErrPaymentProcessorError.WithMessage("支付网关超时，请稍后查询支付状态")
		}
		if stderrors.Is(err, paygate.ErrDeclined) {
			return s.markFailed(ctx, payment, err.Error())
		}
		return nil, errors.ErrPaymentProcessorError.WithError(err)
	}

	// 2. 扣款成功：支付单完成且预订确认，同一事务保证一致
	now := time.Now()
	var booking *models.Booking
	var bookingCancelled bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.paymentRepo.UpdateStatusInTx(tx, payment.ID,
			models.PaymentStatusPending, models.PaymentStatusCompleted,
			map[string]interface{}{
				"paid_at":        now,
				"transaction_id": resp.TransactionID,
			})
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if rows == 0 {
			return errors.ErrInvalidPaymentTransition
		}

		locked, err := s.bookingRepo.GetByIDForUpdate(tx, payment.BookingID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		booking = locked

		// 预订可能已被并发取消，此时扣款需走退款而不是确认；
		// 支付单仍提交为 completed，钱已实际扣出，回滚会让退款无据可依
		rows, err = s.bookingRepo.UpdateStatusInTx(tx, payment.BookingID,
			models.BookingStatusPending, models.BookingStatusConfirmed,
			map[string]interface{}{"confirmed_at": now})
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if rows == 0 {
			bookingCancelled = true
			return nil
		}
		booking.Status = models.BookingStatusConfirmed
		booking.ConfirmedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	payment.Status = models.PaymentStatusCompleted
	payment.PaidAt = &now
	payment.TransactionID = &resp.TransactionID

	if bookingCancelled {
		logger.Warn("扣款成功但预订已取消，发起原路退款",
			logger.PaymentNo(payment.PaymentNo),
			logger.BookingNo(booking.BookingNo),
		)
		if _, refundErr := s.refund(ctx, payment, "预订已取消"); refundErr != nil {
			logger.Error("预订取消后自动退款失败，需人工处理",
				logger.PaymentNo(payment.PaymentNo),
				logger.Err(refundErr),
			)
		}
		return nil, errors.ErrInvalidBookingState.WithMessage("预订已取消，款项将原路退回")
	}

	metrics.GetMetrics().RecordPayment(payment.Method, string(payment.Status))
	metrics.GetMetrics().RecordBooking(string(models.BookingStatusConfirmed))
	logger.Info("支付成功",
		logger.PaymentNo(payment.PaymentNo),
		logger.BookingNo(booking.BookingNo),
		logger.String("transaction_id", resp.TransactionID),
	)

	if s.notifySvc != nil {
		s.notifySvc.NotifyBookingConfirmed(booking, booking.GuestEmail)
	}

	return payment, nil
}

// markFailed 标记支付失败
// failed 为终态，重试支付需创建新的支付单
func (s *Service) markFailed(ctx context.Context, payment *models.Payment, reason string) (*models.Payment, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.paymentRepo.UpdateStatusInTx(tx, payment.ID,
			models.PaymentStatusPending, models.PaymentStatusFailed,
			map[string]interface{}{"fail_reason": reason})
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if rows == 0 {
			return errors.ErrInvalidPaymentTransition
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payment.Status = models.PaymentStatusFailed
	payment.FailReason = &reason

	metrics.GetMetrics().RecordPayment(payment.Method, string(payment.Status))
	logger.Warn("支付被拒绝",
		logger.PaymentNo(payment.PaymentNo),
		logger.String("reason", reason),
	)

	return payment, errors.ErrPaymentProcessorError.WithMessage("支付被拒绝：" + reason)
}

// ConfirmCash 确认到店现金支付（管理端）
// 支付单完成且预订确认，同一事务保证一致
func (s *Service) ConfirmCash(ctx context.Context, paymentID int64) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if payment.Method != models.PaymentMethodCash {
		return nil, errors.ErrPaymentMethodError
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, errors.ErrInvalidPaymentTransition
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.paymentRepo.UpdateStatusInTx(tx, payment.ID,
			models.PaymentStatusPending, models.PaymentStatusCompleted,
			map[string]interface{}{"paid_at": now})
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if rows == 0 {
			return errors.ErrInvalidPaymentTransition
		}

		rows, err = s.bookingRepo.UpdateStatusInTx(tx, payment.BookingID,
			models.BookingStatusPending, models.BookingStatusConfirmed,
			map[string]interface{}{"confirmed_at": now})
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if rows == 0 {
			return errors.ErrInvalidBookingState
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payment.Status = models.PaymentStatusCompleted
	payment.PaidAt = &now
	metrics.GetMetrics().RecordPayment(payment.Method, string(payment.Status))
	return payment, nil
}

// Refund 对支付单发起退款（管理端）
func (s *Service) Refund(ctx context.Context, paymentID int64, reason string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.refund(ctx, payment, reason)
}

// RefundForBooking 对预订的已完成支付发起退款
// 预订取消流程调用；没有已完成支付时静默返回
func (s *Service) RefundForBooking(ctx context.Context, bookingID int64, reason string) error {
	payment, err := s.paymentRepo.GetCompletedByBookingID(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	_, err = s.refund(ctx, payment, reason)
	return err
}

// refund 执行退款
func (s *Service) refund(ctx context.Context, payment *models.Payment, reason string) (*models.Payment, error) {
	if !payment.CanRefund() {
		return nil, errors.ErrRefundNotAllowed
	}

	refundNo := utils.GenerateOrderNo("RF")

	// 现金/转账等无网关交易号的支付走线下退款，只记账
	if payment.TransactionID != nil && *payment.TransactionID != "" {
		_, err := s.processor.Refund(ctx, &paygate.RefundRequest{
			TransactionID: *payment.TransactionID,
			RefundNo:      refundNo,
			Amount:        payment.Amount,
			Reason:        reason,
		})
		if err != nil {
			if stderrors.Is(err, paygate.ErrTimeout) {
				return nil, errors.ErrPaymentProcessorError.WithMessage("退款网关超时，请稍后重试")
			}
			return nil, errors.ErrPaymentProcessorError.WithError(err)
		}
	}

	now := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.paymentRepo.UpdateStatusInTx(tx, payment.ID,
			models.PaymentStatusCompleted, models.PaymentStatusRefunded,
			map[string]interface{}{
				"refunded_at": now,
				"refund_no":   refundNo,
			})
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if rows == 0 {
			return errors.ErrRefundNotAllowed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payment.Status = models.PaymentStatusRefunded
	payment.RefundedAt = &now
	payment.RefundNo = &refundNo

	metrics.GetMetrics().RecordPayment(payment.Method, string(payment.Status))
	logger.Info("退款已发起",
		logger.PaymentNo(payment.PaymentNo),
		logger.String("refund_no", refundNo),
		logger.Float64("amount", payment.Amount),
	)

	if s.notifySvc != nil {
		if booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID); err == nil {
			s.notifySvc.NotifyRefund(booking, booking.GuestEmail, payment.Amount)
		}
	}

	return payment, nil
}

// GetPayment 获取支付单详情
// userID > 0 时校验归属
func (s *Service) GetPayment(ctx context.Context, userID, paymentID int64) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if userID > 0 && payment.UserID != userID {
		return nil, errors.ErrPaymentNotFound
	}
	return payment, nil
}

// GetQRCode 获取 PromptPay 支付二维码 PNG
func (s *Service) GetQRCode(ctx context.Context, userID, paymentID int64, size int) ([]byte, error) {
	payment, err := s.GetPayment(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Method != models.PaymentMethodPromptPay || payment.QRPayload == nil {
		return nil, errors.ErrPaymentMethodError.WithMessage("该支付单不支持扫码支付")
	}
	png, err := promptpay.GenerateQR(*payment.QRPayload, size)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return png, nil
}

// ListBookingPayments 获取预订的支付单列表
func (s *Service) ListBookingPayments(ctx context.Context, userID, bookingID int64) ([]*models.Payment, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if userID > 0 && booking.UserID != userID {
		return nil, errors.ErrBookingNotFound
	}
	payments, err := s.paymentRepo.ListByBookingID(ctx, bookingID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return payments, nil
}

// ListPayments 获取支付单列表（管理端）
func (s *Service) ListPayments(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Payment, int64, error) {
	if filters == nil {
		filters = map[string]interface{}{}
	}
	list, total, err := s.paymentRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}
