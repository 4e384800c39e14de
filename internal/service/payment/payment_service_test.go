// Package payment 支付服务单元测试
package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tatchunari/neatly-backend/internal/common/errors"
	"github.com/tatchunari/neatly-backend/internal/common/utils"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/internal/repository"
	"github.com/tatchunari/neatly-backend/internal/service/notification"
	"github.com/tatchunari/neatly-backend/pkg/paygate"
)

type paymentTestEnv struct {
	db        *gorm.DB
	svc       *Service
	processor *paygate.MockProcessor
	booking   *models.Booking
}

func setupPaymentTest(t *testing.T) *paymentTestEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.RoomType{}, &models.Room{}, &models.Booking{}, &models.BookingAddon{}, &models.Payment{})
	require.NoError(t, err)

	processor := paygate.NewMockProcessor()
	svc := NewService(
		db,
		repository.NewPaymentRepository(db),
		repository.NewBookingRepository(db),
		processor,
		nil,
		notification.NewService(nil, nil),
		"0812345678",
	)

	checkIn := utils.Today().AddDate(0, 0, 7)
	booking := &models.Booking{
		BookingNo:    "BKPAYTEST01",
		UserID:       1,
		RoomID:       1,
		RoomTypeID:   1,
		CheckInDate:  checkIn,
		CheckOutDate: checkIn.AddDate(0, 0, 2),
		Nights:       2,
		GuestCount:   2,
		GuestName:    "测试客人",
		GuestEmail:   "guest@example.com",
		RoomAmount:   4000,
		TotalAmount:  4000,
		Status:       models.BookingStatusPending,
	}
	require.NoError(t, db.Create(booking).Error)

	return &paymentTestEnv{db: db, svc: svc, processor: processor, booking: booking}
}

func TestService_CreatePayment(t *testing.T) {
	env := setupPaymentTest(t)
	ctx := context.Background()

	t.Run("金额不一致拒绝", func(t *testing.T) {
		_, err := env.svc.CreatePayment(ctx, 1, &CreatePaymentRequest{
			BookingID: env.booking.ID,
			Method:    models.PaymentMethodCreditCard,
			Amount:    3999,
		})
		assert.ErrorIs(t, err, errors.ErrAmountMismatch)
	})

	t.Run("不支持的支付方式拒绝", func(t *testing.T) {
		_, err := env.svc.CreatePayment(ctx, 1, &CreatePaymentRequest{
			BookingID: env.booking.ID,
			Method:    "bitcoin",
			Amount:    4000,
		})
		assert.ErrorIs(t, err, errors.ErrPaymentMethodError)
	})

	t.Run("非本人预订拒绝", func(t *testing.T) {
		_, err := env.svc.CreatePayment(ctx, 99, &CreatePaymentRequest{
			BookingID: env.booking.ID,
			Method:    models.PaymentMethodCreditCard,
			Amount:    4000,
		})
		assert.ErrorIs(t, err, errors.ErrBookingNotFound)
	})

	t.Run("创建成功", func(t *testing.T) {
		payment, err := env.svc.CreatePayment(ctx, 1, &CreatePaymentRequest{
			BookingID: env.booking.ID,
			Method:    models.PaymentMethodCreditCard,
			Amount:    4000,
		})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, payment.Status)
		assert.Equal(t, 4000.0, payment.Amount)
		assert.NotEmpty(t, payment.PaymentNo)
	})

	t.Run("在途支付未结束时拒绝重复创建", func(t *testing.T) {
		_, err := env.svc.CreatePayment(ctx, 1, &CreatePaymentRequest{
			BookingID: env.booking.ID,
			Method:    models.PaymentMethodCreditCard,
			Amount:    4000,
		})
		assert.ErrorIs(t, err, errors.ErrDuplicatePayment)
	})
}

func TestService_CreatePayment_PromptPay(t *testing.T) {
	env := setupPaymentTest(t)
	ctx := context.Background()

	payment, err := env.svc.CreatePayment(ctx, 1, &CreatePaymentRequest{
		BookingID: env.booking.ID,
		Method:    models.PaymentMethodPromptPay,
		Amount:    4000,
	})
	require.NoError(t, err)
	require.NotNil(t, payment.QRPayload)
	// EMVCo 载荷以固定头开始，含泰铢币种与金额字段
	assert.Contains(t, *payment.QRPayload, "000201")
	assert.Contains(t, *payment.QRPayload, "5303764")
	assert.Contains(t, *payment.QRPayload, "4000.00")
}

func TestService_ProcessPayment_Success(t *testing.T) {
	env := setupPaymentTest(t)
	ctx := context.Background()

	payment, err := env.svc.CreatePayment(ctx, 1, &CreatePaymentRequest{
		BookingID: env.booking.ID,
		Method:    models.PaymentMethodCreditCard,
		Amount:    4000,
	})
	require.NoError(t, err)

	processed, err := env.svc.ProcessPayment(ctx, 1, payment.ID, &ProcessPaymentRequest{CardToken: "tok_visa"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, processed.Status)
	require.NotNil(t, processed.PaidAt)
	require.NotNil(t, processed.TransactionID)

	// 预订在同一事务内被确认
	var booking models.Booking
	require.NoError(t, env.db.First(&booking, env.booking.ID).Error)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	require.NotNil(t, booking.ConfirmedAt)

	// 已完成的支付不可重复执行
	_, err = env.svc.ProcessPayment(ctx, 1, payment.ID, &ProcessPaymentRequest{})
	assert.ErrorIs(t, err, errors.ErrInvalidPaymentTransition)
}

func TestService_ProcessPayment_Declined(t *testing.T) {
	env := setupPaymentTest(t)
	ctx := context.Background()

	payment, err := env.svc.CreatePayment(ctx, 1, &CreatePaymentRequest{
		BookingID: env.booking.ID,
		Method:    models.PaymentMethodCreditCard,
		Amount:    4000,
	})
	require.NoError(t, err)

	env.processor.FailNext = true
	_, err = env.svc.ProcessPayment(ctx, 1, payment.ID, &ProcessPaymentRequest{})
	assert.ErrorIs(t, err, errors.ErrPaymentProcessorError)

	// 支付单转入失败终态，预订保持待支付
	var reloaded models.Payment
	require.NoError(t, env.db.First(&reloaded, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusFailed, reloaded.Status)
	require.NotNil(t, reloaded.FailReason)

	var booking models.Booking
	require.NoError(t, env.db.First(&booking, env.booking.ID).Error)
	assert.Equal(t, models.BookingStatusPending, booking.Status)

	// 失败后可创建新的支付单重试
	retry, err := env.svc.CreatePayment(ctx, 1, &CreatePaymentRequest{
		BookingID: env.booking.ID,
		Method:    models.PaymentMethodCreditCard,
		Amount:    4000,
	})
	require.NoError(t, err)

	processed, err := env.svc.ProcessPayment(ctx, 1, retry.ID, &ProcessPaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, processed.Status)
}

func TestService_ProcessPayment_Timeout(t *testing.T) {
	env := setupPaymentTest(t)
	ctx := context.Background()

	payment, err := env.svc.CreatePayment(ctx, 1, &CreatePaymentRequest{
		BookingID: env.booking.ID,
		Method:    models.PaymentMethodCreditCard,
		Amount:    4000,
	})
	require.NoError(t, err)

	env.processor.TimeoutNext = true
	_, err = env.svc.ProcessPayment(ctx, 1, payment.ID, &ProcessPaymentRequest{})
	assert.ErrorIs(t, err, errors.ErrPaymentProcessorError)

	// 结果未知，支付单保持 pending 供后续重试
	var reloaded models.Payment
	require.NoError(t, env.db.First(&reloaded, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusPending, reloaded.Status)

	// 重试成功
	processed, err := env.svc.ProcessPayment(ctx, 1, payment.ID, &ProcessPaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, processed.Status)
}

func TestService_ProcessPayment_BookingCancelledMeanwhile(t *testing.T) {
	env := setupPaymentTest(t)
	ctx := context.Background()

	payment, err := env.svc.CreatePayment(ctx, 1, &CreatePaymentRequest{
		BookingID: env.booking.ID,
		Method:    models.PaymentMethodCreditCard,
		Amount:    4000,
	})
	require.NoError(t, err)

	// 扣款发起前预订被取消
	require.NoError(t, env.db.Model(&models.Booking{}).
		Where("id = ?", env.booking.ID).
		Update("status", models.BookingStatusCancelled).Error)

	_, err = env.svc.ProcessPayment(ctx, 1, payment.ID, &ProcessPaymentRequest{CardToken: "tok_visa"})
	assert.ErrorIs(t, err, errors.ErrInvalidBookingState)

	// 已扣的款不能留在 pending：支付单落为已退款
	var reloaded models.Payment
	require.NoError(t, env.db.First(&reloaded, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusRefunded, reloaded.Status)
	require.NotNil(t, reloaded.TransactionID)
	require.NotNil(t, reloaded.RefundedAt)
	require.NotNil(t, reloaded.RefundNo)

	// 预订保持取消状态
	var booking models.Booking
	require.NoError(t, env.db.First(&booking, env.booking.ID).Error)
	assert.Equal(t, models.BookingStatusCancelled, booking.Status)
	assert.Nil(t, booking.ConfirmedAt)
}

func TestService_RefundForBooking(t *testing.T) {
	env := setupPaymentTest(t)
	ctx := context.Background()

	t.Run("无已完成支付时静默返回", func(t *testing.T) {
		require.NoError(t, env.svc.RefundForBooking(ctx, env.booking.ID, "预订取消"))
		assert.Empty(t, env.processor.Refunds)
	})

	payment, err := env.svc.CreatePayment(ctx, 1, &CreatePaymentRequest{
		BookingID: env.booking.ID,
		Method:    models.PaymentMethodCreditCard,
		Amount:    4000,
	})
	require.NoError(t, err)
	_, err = env.svc.ProcessPayment(ctx, 1, payment.ID, &ProcessPaymentRequest{})
	require.NoError(t, err)

	t.Run("退款成功", func(t *testing.T) {
		require.NoError(t, env.svc.RefundForBooking(ctx, env.booking.ID, "预订取消"))

		var reloaded models.Payment
		require.NoError(t, env.db.First(&reloaded, payment.ID).Error)
		assert.Equal(t, models.PaymentStatusRefunded, reloaded.Status)
		require.NotNil(t, reloaded.RefundedAt)
		require.NotNil(t, reloaded.RefundNo)

		require.Len(t, env.processor.Refunds, 1)
		assert.Equal(t, 4000.0, env.processor.Refunds[0].Amount)
	})

	t.Run("已退款不可再退", func(t *testing.T) {
		_, err := env.svc.Refund(ctx, payment.ID, "重复退款")
		assert.ErrorIs(t, err, errors.ErrRefundNotAllowed)
	})
}

func TestService_ConfirmCash(t *testing.T) {
	env := setupPaymentTest(t)
	ctx := context.Background()

	payment, err := env.svc.CreatePayment(ctx, 1, &CreatePaymentRequest{
		BookingID: env.booking.ID,
		Method:    models.PaymentMethodCash,
		Amount:    4000,
	})
	require.NoError(t, err)

	t.Run("现金支付不可走网关", func(t *testing.T) {
		_, err := env.svc.ProcessPayment(ctx, 1, payment.ID, &ProcessPaymentRequest{})
		assert.ErrorIs(t, err, errors.ErrPaymentMethodError)
	})

	t.Run("前台确认后完成并确认预订", func(t *testing.T) {
		confirmed, err := env.svc.ConfirmCash(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, confirmed.Status)

		var booking models.Booking
		require.NoError(t, env.db.First(&booking, env.booking.ID).Error)
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	})
}
