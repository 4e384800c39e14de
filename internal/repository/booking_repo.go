// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tatchunari/neatly-backend/internal/models"
)

// blockingStatuses 占用房间库存的预订状态
var blockingStatuses = []models.BookingStatus{
	models.BookingStatusPending,
	models.BookingStatusConfirmed,
}

// BookingRepository 预订仓储
type BookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository 创建预订仓储
func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// DB 返回底层数据库句柄（用于跨仓储事务）
func (r *BookingRepository) DB() *gorm.DB {
	return r.db
}

// Create 创建预订
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// CreateInTx 在事务内创建预订
func (r *BookingRepository) CreateInTx(tx *gorm.DB, booking *models.Booking) error {
	return tx.Create(booking).Error
}

// GetByID 根据 ID 获取预订
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Room").
		Preload("RoomType").
		Preload("Addons").
		First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByBookingNo 根据预订号获取预订
func (r *BookingRepository) GetByBookingNo(ctx context.Context, bookingNo string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Room").
		Preload("RoomType").
		Preload("Addons").
		Where("booking_no = ?", bookingNo).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDForUpdate 在事务内加行锁获取预订
func (r *BookingRepository) GetByIDForUpdate(tx *gorm.DB, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindBlockedRoomIDs 查询在给定日期区间内已被占用的房间 ID
// 半开区间 [checkIn, checkOut)：仅 check_in < checkOut 且 check_out > checkIn 视为重叠
func (r *BookingRepository) FindBlockedRoomIDs(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time) ([]int64, error) {
	var roomIDs []int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("room_type_id = ?", roomTypeID).
		Where("status IN ?", blockingStatuses).
		Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn).
		Distinct().
		Pluck("room_id", &roomIDs).Error
	return roomIDs, err
}

// CountOverlapping 统计指定房间在给定日期区间内的占用预订数
// 在事务内配合行锁使用，作为应用层的重复预订防线
func (r *BookingRepository) CountOverlapping(tx *gorm.DB, roomID int64, checkIn, checkOut time.Time) (int64, error) {
	var count int64
	err := tx.Model(&models.Booking{}).
		Where("room_id = ?", roomID).
		Where("status IN ?", blockingStatuses).
		Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn).
		Count(&count).Error
	return count, err
}

// LockRoom 在事务内锁定房间行，序列化同一房间的并发预订
func (r *BookingRepository) LockRoom(tx *gorm.DB, roomID int64) (*models.Room, error) {
	var room models.Room
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Update 更新预订
func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

// UpdateFieldsInTx 在事务内更新指定字段
func (r *BookingRepository) UpdateFieldsInTx(tx *gorm.DB, id int64, fields map[string]interface{}) error {
	return tx.Model(&models.Booking{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateStatusInTx 在事务内以状态前置条件更新预订状态
// 返回受影响行数，为 0 表示当前状态已不满足前置条件（被并发修改）
func (r *BookingRepository) UpdateStatusInTx(tx *gorm.DB, id int64, from, to models.BookingStatus, extra map[string]interface{}) (int64, error) {
	fields := map[string]interface{}{"status": to}
	for k, v := range extra {
		fields[k] = v
	}
	result := tx.Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// ListByUser 获取用户的预订列表
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, offset, limit int, status models.BookingStatus) ([]*models.Booking, int64, error) {
	var bookings []*models.Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Booking{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("RoomType").
		Preload("Room").
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// List 获取预订列表（管理端）
func (r *BookingRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Booking, int64, error) {
	var bookings []*models.Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Booking{})

	// 应用过滤条件
	if status, ok := filters["status"].(models.BookingStatus); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if bookingNo, ok := filters["booking_no"].(string); ok && bookingNo != "" {
		query = query.Where("booking_no = ?", bookingNo)
	}
	if guestName, ok := filters["guest_name"].(string); ok && guestName != "" {
		query = query.Where("guest_name LIKE ?", "%"+guestName+"%")
	}
	if roomTypeID, ok := filters["room_type_id"].(int64); ok && roomTypeID > 0 {
		query = query.Where("room_type_id = ?", roomTypeID)
	}
	if checkInFrom, ok := filters["check_in_from"].(time.Time); ok {
		query = query.Where("check_in_date >= ?", checkInFrom)
	}
	if checkInTo, ok := filters["check_in_to"].(time.Time); ok {
		query = query.Where("check_in_date <= ?", checkInTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("RoomType").
		Preload("Room").
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// CountByStatus 按状态统计预订数
func (r *BookingRepository) CountByStatus(ctx context.Context) (map[models.BookingStatus]int64, error) {
	type row struct {
		Status models.BookingStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[models.BookingStatus]int64, len(rows))
	for _, r := range rows {
		result[r.Status] = r.Count
	}
	return result, nil
}

// ListExpiredPending 列出超过支付有效期仍未支付的预订
// 过期关单由外部定时任务调用，服务内不起调度器
func (r *BookingRepository) ListExpiredPending(ctx context.Context, createdBefore time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ?", models.BookingStatusPending).
		Where("created_at < ?", createdBefore).
		Find(&bookings).Error
	return bookings, err
}

// CountCreatedBetween 统计时间段内创建的预订数
func (r *BookingRepository) CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error
	return count, err
}

// SumRevenueBetween 统计时间段内确认预订的营收
func (r *BookingRepository) SumRevenueBetween(ctx context.Context, start, end time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("status IN ?", []models.BookingStatus{models.BookingStatusConfirmed, models.BookingStatusCompleted}).
		Where("confirmed_at >= ? AND confirmed_at < ?", start, end).
		Scan(&total).Error
	return total, err
}

// CountOccupiedRoomsOn 统计指定日期被占用的房间数（入住率分子）
func (r *BookingRepository) CountOccupiedRoomsOn(ctx context.Context, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("status IN ?", blockingStatuses).
		Where("check_in_date <= ? AND check_out_date > ?", date, date).
		Distinct("room_id").
		Count(&count).Error
	return count, err
}

// CreateAddonsInTx 在事务内批量创建预订附加服务明细
func (r *BookingRepository) CreateAddonsInTx(tx *gorm.DB, addons []models.BookingAddon) error {
	if len(addons) == 0 {
		return nil
	}
	return tx.Create(&addons).Error
}
