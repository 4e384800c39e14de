// Package content 提供营销内容与常见问题服务
package content

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/common/errors"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/internal/repository"
)

// Service 内容服务
type Service struct {
	contentRepo *repository.ContentRepository
}

// NewService 创建内容服务
func NewService(contentRepo *repository.ContentRepository) *Service {
	return &Service{contentRepo: contentRepo}
}

// HomeContent 首页聚合内容
type HomeContent struct {
	Blocks       []*models.ContentBlock `json:"blocks"`
	Testimonials []*models.Testimonial  `json:"testimonials"`
}

// GetHomeContent 获取首页聚合内容（用户端）
func (s *Service) GetHomeContent(ctx context.Context) (*HomeContent, error) {
	blocks, err := s.contentRepo.ListPublishedBlocks(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	testimonials, err := s.contentRepo.ListPublishedTestimonials(ctx, 10)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return &HomeContent{Blocks: blocks, Testimonials: testimonials}, nil
}

// GetBlock 根据键获取单个已发布内容块（用户端）
func (s *Service) GetBlock(ctx context.Context, key string) (*models.ContentBlock, error) {
	block, err := s.contentRepo.GetBlockByKey(ctx, key)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrContentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if block.Status != models.ContentStatusPublished {
		return nil, errors.ErrContentNotFound
	}
	return block, nil
}

// ListFAQs 获取已发布的常见问题列表（用户端）
func (s *Service) ListFAQs(ctx context.Context, category string) ([]*models.FAQ, error) {
	faqs, err := s.contentRepo.ListPublishedFAQs(ctx, category)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return faqs, nil
}

// ---- 管理端 ----

// BlockRequest 内容块创建/更新请求
type BlockRequest struct {
	BlockKey  string      `json:"block_key" binding:"required,max=50"`
	Title     string      `json:"title" binding:"required,max=200"`
	Subtitle  *string     `json:"subtitle"`
	Body      *string     `json:"body"`
	ImageURL  *string     `json:"image_url"`
	Extra     models.JSON `json:"extra"`
	SortOrder int         `json:"sort_order"`
	Status    *int8       `json:"status"`
}

// SaveBlock 创建或按键更新内容块（管理端）
// 内容块按 block_key 幂等维护，重复提交同一键即覆盖内容
func (s *Service) SaveBlock(ctx context.Context, req *BlockRequest) (*models.ContentBlock, error) {
	key := strings.TrimSpace(req.BlockKey)

	block, err := s.contentRepo.GetBlockByKey(ctx, key)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if block == nil {
		block = &models.ContentBlock{BlockKey: key, Status: models.ContentStatusPublished}
	}
	block.Title = strings.TrimSpace(req.Title)
	block.Subtitle = req.Subtitle
	block.Body = req.Body
	block.ImageURL = req.ImageURL
	block.Extra = req.Extra
	block.SortOrder = req.SortOrder
	if req.Status != nil {
		block.Status = *req.Status
	}

	if block.ID == 0 {
		err = s.contentRepo.CreateBlock(ctx, block)
	} else {
		err = s.contentRepo.UpdateBlock(ctx, block)
	}
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return block, nil
}

// ListAllBlocks 获取全部内容块（管理端）
func (s *Service) ListAllBlocks(ctx context.Context) ([]*models.ContentBlock, error) {
	blocks, err := s.contentRepo.ListAllBlocks(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return blocks, nil
}

// DeleteBlock 删除内容块（管理端）
func (s *Service) DeleteBlock(ctx context.Context, id int64) error {
	if _, err := s.contentRepo.GetBlockByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrContentNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return s.contentRepo.DeleteBlock(ctx, id)
}

// TestimonialRequest 住客评价创建/更新请求
type TestimonialRequest struct {
	GuestName string  `json:"guest_name" binding:"required,max=100"`
	AvatarURL *string `json:"avatar_url"`
	Rating    int     `json:"rating" binding:"required,min=1,max=5"`
	Content   string  `json:"content" binding:"required"`
	SortOrder int     `json:"sort_order"`
	Status    *int8   `json:"status"`
}

// CreateTestimonial 创建住客评价（管理端）
func (s *Service) CreateTestimonial(ctx context.Context, req *TestimonialRequest) (*models.Testimonial, error) {
	status := int8(models.ContentStatusPublished)
	if req.Status != nil {
		status = *req.Status
	}
	item := &models.Testimonial{
		GuestName: strings.TrimSpace(req.GuestName),
		AvatarURL: req.AvatarURL,
		Rating:    req.Rating,
		Content:   req.Content,
		SortOrder: req.SortOrder,
		Status:    status,
	}
	if err := s.contentRepo.CreateTestimonial(ctx, item); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return item, nil
}

// DeleteTestimonial 删除住客评价（管理端）
func (s *Service) DeleteTestimonial(ctx context.Context, id int64) error {
	if err := s.contentRepo.DeleteTestimonial(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// FAQRequest 常见问题创建/更新请求
type FAQRequest struct {
	Question  string            `json:"question" binding:"required,max=500"`
	Answer    string            `json:"answer" binding:"required"`
	Category  string            `json:"category"`
	Keywords  models.StringList `json:"keywords"`
	SortOrder int               `json:"sort_order"`
	Status    *int8             `json:"status"`
}

// CreateFAQ 创建常见问题（管理端）
func (s *Service) CreateFAQ(ctx context.Context, req *FAQRequest) (*models.FAQ, error) {
	category := req.Category
	if category == "" {
		category = models.FAQCategoryGeneral
	}
	status := int8(models.ContentStatusPublished)
	if req.Status != nil {
		status = *req.Status
	}

	faq := &models.FAQ{
		Question:  strings.TrimSpace(req.Question),
		Answer:    req.Answer,
		Category:  category,
		Keywords:  req.Keywords,
		SortOrder: req.SortOrder,
		Status:    status,
	}
	if err := s.contentRepo.CreateFAQ(ctx, faq); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return faq, nil
}

// UpdateFAQ 更新常见问题（管理端）
func (s *Service) UpdateFAQ(ctx context.Context, id int64, req *FAQRequest) (*models.FAQ, error) {
	faq, err := s.contentRepo.GetFAQByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrFAQNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	faq.Question = strings.TrimSpace(req.Question)
	faq.Answer = req.Answer
	if req.Category != "" {
		faq.Category = req.Category
	}
	faq.Keywords = req.Keywords
	faq.SortOrder = req.SortOrder
	if req.Status != nil {
		faq.Status = *req.Status
	}

	if err := s.contentRepo.UpdateFAQ(ctx, faq); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return faq, nil
}

// DeleteFAQ 删除常见问题（管理端）
func (s *Service) DeleteFAQ(ctx context.Context, id int64) error {
	if _, err := s.contentRepo.GetFAQByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrFAQNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return s.contentRepo.DeleteFAQ(ctx, id)
}

// ListAllFAQs 获取全部常见问题（管理端）
func (s *Service) ListAllFAQs(ctx context.Context, offset, limit int) ([]*models.FAQ, int64, error) {
	faqs, total, err := s.contentRepo.ListAllFAQs(ctx, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return faqs, total, nil
}
