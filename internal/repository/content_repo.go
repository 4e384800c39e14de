// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/models"
)

// ContentRepository 内容仓储（内容块、住客评价、FAQ）
type ContentRepository struct {
	db *gorm.DB
}

// NewContentRepository 创建内容仓储
func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// CreateBlock 创建内容块
func (r *ContentRepository) CreateBlock(ctx context.Context, block *models.ContentBlock) error {
	return r.db.WithContext(ctx).Create(block).Error
}

// GetBlockByKey 根据键获取内容块
func (r *ContentRepository) GetBlockByKey(ctx context.Context, key string) (*models.ContentBlock, error) {
	var block models.ContentBlock
	err := r.db.WithContext(ctx).Where("block_key = ?", key).First(&block).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// GetBlockByID 根据 ID 获取内容块
func (r *ContentRepository) GetBlockByID(ctx context.Context, id int64) (*models.ContentBlock, error) {
	var block models.ContentBlock
	err := r.db.WithContext(ctx).First(&block, id).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// UpdateBlock 更新内容块
func (r *ContentRepository) UpdateBlock(ctx context.Context, block *models.ContentBlock) error {
	return r.db.WithContext(ctx).Save(block).Error
}

// DeleteBlock 删除内容块
func (r *ContentRepository) DeleteBlock(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.ContentBlock{}, id).Error
}

// ListPublishedBlocks 获取已发布的内容块列表（用户端）
func (r *ContentRepository) ListPublishedBlocks(ctx context.Context) ([]*models.ContentBlock, error) {
	var blocks []*models.ContentBlock
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ContentStatusPublished).
		Order("sort_order ASC, id ASC").
		Find(&blocks).Error
	return blocks, err
}

// ListAllBlocks 获取全部内容块列表（管理端）
func (r *ContentRepository) ListAllBlocks(ctx context.Context) ([]*models.ContentBlock, error) {
	var blocks []*models.ContentBlock
	err := r.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&blocks).Error
	return blocks, err
}

// CreateTestimonial 创建住客评价
func (r *ContentRepository) CreateTestimonial(ctx context.Context, item *models.Testimonial) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateTestimonial 更新住客评价
func (r *ContentRepository) UpdateTestimonial(ctx context.Context, item *models.Testimonial) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteTestimonial 删除住客评价
func (r *ContentRepository) DeleteTestimonial(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Testimonial{}, id).Error
}

// ListPublishedTestimonials 获取已发布的住客评价列表
func (r *ContentRepository) ListPublishedTestimonials(ctx context.Context, limit int) ([]*models.Testimonial, error) {
	var items []*models.Testimonial
	query := r.db.WithContext(ctx).
		Where("status = ?", models.ContentStatusPublished).
		Order("sort_order ASC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&items).Error
	return items, err
}

// CreateFAQ 创建常见问题
func (r *ContentRepository) CreateFAQ(ctx context.Context, faq *models.FAQ) error {
	return r.db.WithContext(ctx).Create(faq).Error
}

// GetFAQByID 根据 ID 获取常见问题
func (r *ContentRepository) GetFAQByID(ctx context.Context, id int64) (*models.FAQ, error) {
	var faq models.FAQ
	err := r.db.WithContext(ctx).First(&faq, id).Error
	if err != nil {
		return nil, err
	}
	return &faq, nil
}

// UpdateFAQ 更新常见问题
func (r *ContentRepository) UpdateFAQ(ctx context.Context, faq *models.FAQ) error {
	return r.db.WithContext(ctx).Save(faq).Error
}

// DeleteFAQ 删除常见问题
func (r *ContentRepository) DeleteFAQ(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.FAQ{}, id).Error
}

// ListPublishedFAQs 获取已发布的常见问题列表
func (r *ContentRepository) ListPublishedFAQs(ctx context.Context, category string) ([]*models.FAQ, error) {
	var faqs []*models.FAQ
	query := r.db.WithContext(ctx).Where("status = ?", models.ContentStatusPublished)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.Order("sort_order ASC, id ASC").Find(&faqs).Error
	return faqs, err
}

// ListAllFAQs 获取全部常见问题列表（管理端）
func (r *ContentRepository) ListAllFAQs(ctx context.Context, offset, limit int) ([]*models.FAQ, int64, error) {
	var faqs []*models.FAQ
	var total int64

	query := r.db.WithContext(ctx).Model(&models.FAQ{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("sort_order ASC, id ASC").Offset(offset).Limit(limit).Find(&faqs).Error
	if err != nil {
		return nil, 0, err
	}
	return faqs, total, nil
}
