// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/models"
)

// RoomRepository 房型与房间仓储
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository 创建房型与房间仓储
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// CreateRoomType 创建房型
func (r *RoomRepository) CreateRoomType(ctx context.Context, roomType *models.RoomType) error {
	return r.db.WithContext(ctx).Create(roomType).Error
}

// GetRoomTypeByID 根据 ID 获取房型
func (r *RoomRepository) GetRoomTypeByID(ctx context.Context, id int64) (*models.RoomType, error) {
	var roomType models.RoomType
	err := r.db.WithContext(ctx).First(&roomType, id).Error
	if err != nil {
		return nil, err
	}
	return &roomType, nil
}

// GetRoomTypeWithRooms 根据 ID 获取房型（包含可售房间）
func (r *RoomRepository) GetRoomTypeWithRooms(ctx context.Context, id int64) (*models.RoomType, error) {
	var roomType models.RoomType
	err := r.db.WithContext(ctx).
		Preload("Rooms", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.RoomStatusActive).Order("room_no ASC")
		}).
		First(&roomType, id).Error
	if err != nil {
		return nil, err
	}
	return &roomType, nil
}

// UpdateRoomType 更新房型
func (r *RoomRepository) UpdateRoomType(ctx context.Context, roomType *models.RoomType) error {
	return r.db.WithContext(ctx).Save(roomType).Error
}

// UpdateRoomTypeFields 更新房型指定字段
func (r *RoomRepository) UpdateRoomTypeFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.RoomType{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteRoomType 删除房型
func (r *RoomRepository) DeleteRoomType(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.RoomType{}, id).Error
}

// ListRoomTypes 获取房型列表
func (r *RoomRepository) ListRoomTypes(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.RoomType, int64, error) {
	var roomTypes []*models.RoomType
	var total int64

	query := r.db.WithContext(ctx).Model(&models.RoomType{})

	// 应用过滤条件
	if name, ok := filters["name"].(string); ok && name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if capacity, ok := filters["capacity"].(int); ok && capacity > 0 {
		query = query.Where("capacity >= ?", capacity)
	}
	if status, ok := filters["status"].(int8); ok {
		query = query.Where("status = ?", status)
	}

	// 统计总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 查询列表
	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&roomTypes).Error; err != nil {
		return nil, 0, err
	}

	return roomTypes, total, nil
}

// ListActiveRoomTypes 获取上架房型列表（用户端）
func (r *RoomRepository) ListActiveRoomTypes(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.RoomType, int64, error) {
	filters["status"] = int8(models.RoomTypeStatusActive)
	return r.ListRoomTypes(ctx, offset, limit, filters)
}

// CountRoomTypes 统计房型数量
func (r *RoomRepository) CountRoomTypes(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RoomType{}).Count(&count).Error
	return count, err
}

// CreateRoom 创建房间
func (r *RoomRepository) CreateRoom(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// GetRoomByID 根据 ID 获取房间
func (r *RoomRepository) GetRoomByID(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).Preload("RoomType").First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// UpdateRoom 更新房间
func (r *RoomRepository) UpdateRoom(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// UpdateRoomStatus 更新房间状态
func (r *RoomRepository) UpdateRoomStatus(ctx context.Context, id int64, status int8) error {
	return r.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Update("status", status).Error
}

// DeleteRoom 删除房间
func (r *RoomRepository) DeleteRoom(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Room{}, id).Error
}

// ListRoomsByType 获取指定房型的房间列表
func (r *RoomRepository) ListRoomsByType(ctx context.Context, roomTypeID int64) ([]*models.Room, error) {
	var rooms []*models.Room
	err := r.db.WithContext(ctx).
		Where("room_type_id = ?", roomTypeID).
		Order("room_no ASC").
		Find(&rooms).Error
	return rooms, err
}

// ListActiveRoomsByType 获取指定房型的可售房间列表
func (r *RoomRepository) ListActiveRoomsByType(ctx context.Context, roomTypeID int64) ([]*models.Room, error) {
	var rooms []*models.Room
	err := r.db.WithContext(ctx).
		Where("room_type_id = ? AND status = ?", roomTypeID, models.RoomStatusActive).
		Order("room_no ASC").
		Find(&rooms).Error
	return rooms, err
}

// CountActiveRooms 统计可售房间总数
func (r *RoomRepository) CountActiveRooms(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).
		Where("status = ?", models.RoomStatusActive).
		Count(&count).Error
	return count, err
}

// CreateAddon 创建附加服务
func (r *RoomRepository) CreateAddon(ctx context.Context, addon *models.Addon) error {
	return r.db.WithContext(ctx).Create(addon).Error
}

// GetAddonByID 根据 ID 获取附加服务
func (r *RoomRepository) GetAddonByID(ctx context.Context, id int64) (*models.Addon, error) {
	var addon models.Addon
	err := r.db.WithContext(ctx).First(&addon, id).Error
	if err != nil {
		return nil, err
	}
	return &addon, nil
}

// GetAddonsByIDs 根据 ID 集合批量获取附加服务
func (r *RoomRepository) GetAddonsByIDs(ctx context.Context, ids []int64) ([]*models.Addon, error) {
	var addons []*models.Addon
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&addons).Error
	return addons, err
}

// UpdateAddon 更新附加服务
func (r *RoomRepository) UpdateAddon(ctx context.Context, addon *models.Addon) error {
	return r.db.WithContext(ctx).Save(addon).Error
}

// DeleteAddon 删除附加服务
func (r *RoomRepository) DeleteAddon(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Addon{}, id).Error
}

// ListActiveAddons 获取上架的附加服务列表
func (r *RoomRepository) ListActiveAddons(ctx context.Context) ([]*models.Addon, error) {
	var addons []*models.Addon
	err := r.db.WithContext(ctx).
		Where("status = ?", models.AddonStatusActive).
		Order("id ASC").
		Find(&addons).Error
	return addons, err
}
