// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tatchunari/neatly-backend/internal/models"
)

// PaymentRepository 支付仓储
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// DB 返回底层数据库句柄（用于跨仓储事务）
func (r *PaymentRepository) DB() *gorm.DB {
	return r.db
}

// Create 创建支付单
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// CreateInTx 在事务内创建支付单
func (r *PaymentRepository) CreateInTx(tx *gorm.DB, payment *models.Payment) error {
	return tx.Create(payment).Error
}

// GetByID 根据 ID 获取支付单
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByPaymentNo 根据支付单号获取支付单
func (r *PaymentRepository) GetByPaymentNo(ctx context.Context, paymentNo string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("payment_no = ?", paymentNo).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByIDForUpdate 在事务内加行锁获取支付单
func (r *PaymentRepository) GetByIDForUpdate(tx *gorm.DB, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetCompletedByBookingID 获取预订的已完成支付单
func (r *PaymentRepository) GetCompletedByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, models.PaymentStatusCompleted).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// CountNonFailedByBookingID 在事务内统计预订的未失败支付单数
// 配合 payments 表的部分唯一索引，阻止同一预订并发产生多个在途支付
func (r *PaymentRepository) CountNonFailedByBookingID(tx *gorm.DB, bookingID int64) (int64, error) {
	var count int64
	err := tx.Model(&models.Payment{}).
		Where("booking_id = ?", bookingID).
		Where("status IN ?", []models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusCompleted}).
		Count(&count).Error
	return count, err
}

// UpdateStatusInTx 在事务内以状态前置条件更新支付状态
// 返回受影响行数，为 0 表示当前状态已不满足前置条件（被并发修改）
func (r *PaymentRepository) UpdateStatusInTx(tx *gorm.DB, id int64, from, to models.PaymentStatus, extra map[string]interface{}) (int64, error) {
	fields := map[string]interface{}{"status": to}
	for k, v := range extra {
		fields[k] = v
	}
	result := tx.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// ListByBookingID 获取预订的支付单列表
func (r *PaymentRepository) ListByBookingID(ctx context.Context, bookingID int64) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("id DESC").
		Find(&payments).Error
	return payments, err
}

// ListByUser 获取用户的支付单列表
func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*models.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payment{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// List 获取支付单列表（管理端）
func (r *PaymentRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payment{})

	// 应用过滤条件
	if status, ok := filters["status"].(models.PaymentStatus); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if method, ok := filters["method"].(string); ok && method != "" {
		query = query.Where("method = ?", method)
	}
	if bookingID, ok := filters["booking_id"].(int64); ok && bookingID > 0 {
		query = query.Where("booking_id = ?", bookingID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// SumCompletedBetween 统计时间段内完成支付的金额
func (r *PaymentRepository) SumCompletedBetween(ctx context.Context, start, end time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", models.PaymentStatusCompleted).
		Where("paid_at >= ? AND paid_at < ?", start, end).
		Scan(&total).Error
	return total, err
}

// CountByStatus 按状态统计支付单数
func (r *PaymentRepository) CountByStatus(ctx context.Context) (map[models.PaymentStatus]int64, error) {
	type row struct {
		Status models.PaymentStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[models.PaymentStatus]int64, len(rows))
	for _, r := range rows {
		result[r.Status] = r.Count
	}
	return result, nil
}
