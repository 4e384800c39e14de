// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/models"
)

// PromoRepository 优惠码仓储
type PromoRepository struct {
	db *gorm.DB
}

// NewPromoRepository 创建优惠码仓储
func NewPromoRepository(db *gorm.DB) *PromoRepository {
	return &PromoRepository{db: db}
}

// Create 创建优惠码
func (r *PromoRepository) Create(ctx context.Context, promo *models.PromoCode) error {
	return r.db.WithContext(ctx).Create(promo).Error
}

// GetByID 根据 ID 获取优惠码
func (r *PromoRepository) GetByID(ctx context.Context, id int64) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").First(&promo, id).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// GetByCode 根据码值获取优惠码
func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.WithContext(ctx).
		Where("code = ? AND deleted_at IS NULL", code).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// GetByCodeInTx 在事务内根据码值获取优惠码
// 事务内查询必须复用 tx，避免占用第二个连接与外层事务互相等待
func (r *PromoRepository) GetByCodeInTx(tx *gorm.DB, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := tx.
		Where("code = ? AND deleted_at IS NULL", code).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// ExistsByCode 判断码值是否已存在
func (r *PromoRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PromoCode{}).
		Where("code = ? AND deleted_at IS NULL", code).
		Count(&count).Error
	return count > 0, err
}

// Update 更新优惠码
func (r *PromoRepository) Update(ctx context.Context, promo *models.PromoCode) error {
	return r.db.WithContext(ctx).Save(promo).Error
}

// UpdateFields 更新指定字段
func (r *PromoRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.PromoCode{}).Where("id = ?", id).Updates(fields).Error
}

// SoftDelete 软删除优惠码
func (r *PromoRepository) SoftDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.PromoCode{}).
		Where("id = ?", id).
		Update("deleted_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

// IncrementUsedCount 原子增加使用次数
// 带次数上限守卫：受影响行数为 0 表示次数已耗尽（或被并发请求用完）
func (r *PromoRepository) IncrementUsedCount(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PromoCode{}).
		Where("id = ? AND enabled = ? AND (usage_limit = 0 OR used_count < usage_limit)", id, true).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementUsedCountInTx 在事务内原子增加使用次数
func (r *PromoRepository) IncrementUsedCountInTx(tx *gorm.DB, id int64) (bool, error) {
	result := tx.Model(&models.PromoCode{}).
		Where("id = ? AND enabled = ? AND (usage_limit = 0 OR used_count < usage_limit)", id, true).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementUsedCount 原子减少使用次数（预订取消时回补）
func (r *PromoRepository) DecrementUsedCount(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.PromoCode{}).
		Where("id = ? AND used_count > 0", id).
		UpdateColumn("used_count", gorm.Expr("used_count - 1")).Error
}

// DecrementUsedCountInTx 在事务内原子减少使用次数
func (r *PromoRepository) DecrementUsedCountInTx(tx *gorm.DB, id int64) error {
	return tx.Model(&models.PromoCode{}).
		Where("id = ? AND used_count > 0", id).
		UpdateColumn("used_count", gorm.Expr("used_count - 1")).Error
}

// List 获取优惠码列表（管理端）
func (r *PromoRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.PromoCode, int64, error) {
	var promos []*models.PromoCode
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PromoCode{}).Where("deleted_at IS NULL")

	// 应用过滤条件
	if code, ok := filters["code"].(string); ok && code != "" {
		query = query.Where("code LIKE ?", "%"+code+"%")
	}
	if enabled, ok := filters["enabled"].(bool); ok {
		query = query.Where("enabled = ?", enabled)
	}
	if discountType, ok := filters["discount_type"].(models.DiscountType); ok && discountType != "" {
		query = query.Where("discount_type = ?", discountType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&promos).Error; err != nil {
		return nil, 0, err
	}

	return promos, total, nil
}
