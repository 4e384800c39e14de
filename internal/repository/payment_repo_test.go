// Package repository 支付仓储单元测试
package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tatchunari/neatly-backend/internal/models"
)

func setupPaymentTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.Booking{}, &models.Payment{})
	require.NoError(t, err)

	return db
}

func seedPayment(t *testing.T, db *gorm.DB, no string, bookingID int64, amount float64, status models.PaymentStatus) *models.Payment {
	payment := &models.Payment{
		PaymentNo: no,
		BookingID: bookingID,
		UserID:    1,
		Amount:    amount,
		Method:    models.PaymentMethodCreditCard,
		Status:    status,
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}

func TestPaymentRepository_GetCompletedByBookingID(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	seedPayment(t, db, "PAY001", 1, 2400, models.PaymentStatusFailed)
	seedPayment(t, db, "PAY002", 1, 2400, models.PaymentStatusCompleted)

	found, err := repo.GetCompletedByBookingID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "PAY002", found.PaymentNo)

	_, err = repo.GetCompletedByBookingID(ctx, 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPaymentRepository_CountNonFailedByBookingID(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewPaymentRepository(db)

	// 失败单不阻止重试，在途与已完成单阻止
	seedPayment(t, db, "PAY101", 1, 2400, models.PaymentStatusFailed)
	count, err := repo.CountNonFailedByBookingID(db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	seedPayment(t, db, "PAY102", 1, 2400, models.PaymentStatusPending)
	count, err = repo.CountNonFailedByBookingID(db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPaymentRepository_UpdateStatusInTx(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewPaymentRepository(db)

	payment := seedPayment(t, db, "PAY201", 1, 2400, models.PaymentStatusPending)

	t.Run("前置状态匹配时更新成功", func(t *testing.T) {
		now := time.Now()
		affected, err := repo.UpdateStatusInTx(db, payment.ID, models.PaymentStatusPending, models.PaymentStatusCompleted,
			map[string]interface{}{"paid_at": now})
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		var found models.Payment
		require.NoError(t, db.First(&found, payment.ID).Error)
		assert.Equal(t, models.PaymentStatusCompleted, found.Status)
		assert.NotNil(t, found.PaidAt)
	})

	t.Run("重复完成零行受影响", func(t *testing.T) {
		affected, err := repo.UpdateStatusInTx(db, payment.ID, models.PaymentStatusPending, models.PaymentStatusCompleted, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})
}

func TestPaymentRepository_ListByBookingID(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	seedPayment(t, db, "PAY301", 1, 2400, models.PaymentStatusFailed)
	seedPayment(t, db, "PAY302", 1, 2400, models.PaymentStatusCompleted)
	seedPayment(t, db, "PAY303", 2, 1000, models.PaymentStatusPending)

	payments, err := repo.ListByBookingID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
	// 按 ID 倒序
	assert.Equal(t, "PAY302", payments[0].PaymentNo)
}

func TestPaymentRepository_CountByStatus(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	seedPayment(t, db, "PAY401", 1, 2400, models.PaymentStatusCompleted)
	seedPayment(t, db, "PAY402", 2, 1200, models.PaymentStatusCompleted)
	seedPayment(t, db, "PAY403", 3, 800, models.PaymentStatusFailed)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.PaymentStatusCompleted])
	assert.Equal(t, int64(1), counts[models.PaymentStatusFailed])
}
