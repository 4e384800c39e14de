// Package promotion 提供优惠码校验与管理服务
package promotion

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/common/errors"
	"github.com/tatchunari/neatly-backend/internal/common/logger"
	"github.com/tatchunari/neatly-backend/internal/common/utils"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/internal/repository"
)

// Service 优惠码服务
type Service struct {
	promoRepo *repository.PromoRepository
}

// NewService 创建优惠码服务
func NewService(promoRepo *repository.PromoRepository) *Service {
	return &Service{promoRepo: promoRepo}
}

// ValidationResult 校验结果
type ValidationResult struct {
	Promo          *models.PromoCode `json:"promo"`
	DiscountAmount float64           `json:"discount_amount"`
}

// Validate 只读校验优惠码
// 不消耗使用次数，返回按 baseAmount 计算出的折扣金额（已截断不超过基础金额）
func (s *Service) Validate(ctx context.Context, code string, baseAmount float64) (*ValidationResult, error) {
	promo, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.check(promo, baseAmount, time.Now()); err != nil {
		return nil, err
	}

	discount := promo.DiscountFor(baseAmount)
	if discount > baseAmount {
		discount = baseAmount
	}

	return &ValidationResult{
		Promo:          promo,
		DiscountAmount: utils.RoundMoney(discount),
	}, nil
}

// Apply 消耗一次优惠码使用次数
// 使用条件递增守卫，并发请求不会使 used_count 超过上限
func (s *Service) Apply(ctx context.Context, code string, baseAmount float64) (*ValidationResult, error) {
	promo, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.check(promo, baseAmount, time.Now()); err != nil {
		return nil, err
	}

	ok, err := s.promoRepo.IncrementUsedCount(ctx, promo.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !ok {
		// 守卫拒绝：被并发请求用完或已禁用
		return nil, errors.ErrPromoCodeLimitReached
	}

	discount := promo.DiscountFor(baseAmount)
	if discount > baseAmount {
		discount = baseAmount
	}

	return &ValidationResult{
		Promo:          promo,
		DiscountAmount: utils.RoundMoney(discount),
	}, nil
}

// ApplyInTx 在事务内消耗一次使用次数（供预订创建流程调用）
func (s *Service) ApplyInTx(tx *gorm.DB, promoID int64) error {
	ok, err := s.promoRepo.IncrementUsedCountInTx(tx, promoID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if !ok {
		return errors.ErrPromoCodeLimitReached
	}
	return nil
}

// ValidateInTx 在事务内校验优惠码
// 与 Validate 语义一致，查询走 tx，供持有事务的调用方使用
func (s *Service) ValidateInTx(tx *gorm.DB, code string, baseAmount float64) (*ValidationResult, error) {
	normalized := utils.NormalizePromoCode(code)
	if !utils.ValidatePromoCode(normalized) {
		return nil, errors.ErrPromoCodeInvalid
	}

	promo, err := s.promoRepo.GetByCodeInTx(tx, normalized)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPromoCodeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if err := s.check(promo, baseAmount, time.Now()); err != nil {
		return nil, err
	}

	discount := promo.DiscountFor(baseAmount)
	if discount > baseAmount {
		discount = baseAmount
	}

	return &ValidationResult{
		Promo:          promo,
		DiscountAmount: utils.RoundMoney(discount),
	}, nil
}

// ReleaseInTx 在事务内回补一次使用次数（预订取消时调用）
func (s *Service) ReleaseInTx(tx *gorm.DB, code string) error {
	normalized := utils.NormalizePromoCode(code)
	promo, err := s.promoRepo.GetByCodeInTx(tx, normalized)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// 码已被删除，无可回补
			return nil
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return s.promoRepo.DecrementUsedCountInTx(tx, promo.ID)
}

// lookup 规范化并查找优惠码
func (s *Service) lookup(ctx context.Context, code string) (*models.PromoCode, error) {
	normalized := utils.NormalizePromoCode(code)
	if !utils.ValidatePromoCode(normalized) {
		return nil, errors.ErrPromoCodeInvalid
	}

	promo, err := s.promoRepo.GetByCode(ctx, normalized)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPromoCodeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return promo, nil
}

// check 校验优惠码可用性
func (s *Service) check(promo *models.PromoCode, baseAmount float64, now time.Time) error {
	if !promo.Enabled {
		return errors.ErrPromoCodeDisabled
	}
	if !promo.IsWithinWindow(now) {
		return errors.ErrPromoCodeExpired
	}
	if promo.IsExhausted() {
		return errors.ErrPromoCodeLimitReached
	}
	if promo.MinAmount > 0 && baseAmount < promo.MinAmount {
		return errors.ErrPromoCodeInvalid.WithMessage("未达到优惠码最低消费金额")
	}
	return nil
}

// CreateRequest 创建优惠码请求
type CreateRequest struct {
	Code          string              `json:"code" binding:"required"`
	Description   *string             `json:"description"`
	DiscountType  models.DiscountType `json:"discount_type" binding:"required"`
	DiscountValue float64             `json:"discount_value" binding:"required,gt=0"`
	MinAmount     float64             `json:"min_amount"`
	StartAt       time.Time           `json:"start_at" binding:"required"`
	EndAt         time.Time           `json:"end_at" binding:"required"`
	UsageLimit    int                 `json:"usage_limit"`
	Enabled       *bool               `json:"enabled"`
}

// Create 创建优惠码（管理端）
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*models.PromoCode, error) {
	code := utils.NormalizePromoCode(req.Code)
	if !utils.ValidatePromoCode(code) {
		return nil, errors.ErrInvalidParams.WithMessage("优惠码仅支持 3-32 位字母数字")
	}
	if !req.DiscountType.Valid() {
		return nil, errors.ErrInvalidParams.WithMessage("折扣类型必须为 percent 或 fixed")
	}
	if req.DiscountType == models.DiscountTypePercent && (req.DiscountValue <= 0 || req.DiscountValue > 100) {
		return nil, errors.ErrInvalidParams.WithMessage("百分比折扣取值范围为 (0, 100]")
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, errors.ErrInvalidParams.WithMessage("结束时间必须晚于开始时间")
	}
	if req.UsageLimit < 0 {
		return nil, errors.ErrInvalidParams.WithMessage("使用上限不能为负数")
	}

	exists, err := s.promoRepo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrPromoCodeExists
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	promo := &models.PromoCode{
		Code:          code,
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinAmount:     req.MinAmount,
		StartAt:       req.StartAt,
		EndAt:         req.EndAt,
		UsageLimit:    req.UsageLimit,
		Enabled:       enabled,
	}

	if err := s.promoRepo.Create(ctx, promo); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("优惠码已创建",
		logger.String("code", promo.Code),
		logger.String("discount_type", string(promo.DiscountType)),
		logger.Float64("discount_value", promo.DiscountValue),
	)

	return promo, nil
}

// UpdateRequest 更新优惠码请求
type UpdateRequest struct {
	Description   *string    `json:"description"`
	DiscountValue *float64   `json:"discount_value"`
	MinAmount     *float64   `json:"min_amount"`
	StartAt       *time.Time `json:"start_at"`
	EndAt         *time.Time `json:"end_at"`
	UsageLimit    *int       `json:"usage_limit"`
	Enabled       *bool      `json:"enabled"`
}

// Update 更新优惠码（管理端）
func (s *Service) Update(ctx context.Context, id int64, req *UpdateRequest) (*models.PromoCode, error) {
	promo, err := s.promoRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPromoCodeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	fields := map[string]interface{}{}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.DiscountValue != nil {
		if promo.DiscountType == models.DiscountTypePercent && (*req.DiscountValue <= 0 || *req.DiscountValue > 100) {
			return nil, errors.ErrInvalidParams.WithMessage("百分比折扣取值范围为 (0, 100]")
		}
		fields["discount_value"] = *req.DiscountValue
	}
	if req.MinAmount != nil {
		fields["min_amount"] = *req.MinAmount
	}
	if req.StartAt != nil {
		fields["start_at"] = *req.StartAt
	}
	if req.EndAt != nil {
		fields["end_at"] = *req.EndAt
	}
	if req.UsageLimit != nil {
		if *req.UsageLimit < 0 {
			return nil, errors.ErrInvalidParams.WithMessage("使用上限不能为负数")
		}
		fields["usage_limit"] = *req.UsageLimit
	}
	if req.Enabled != nil {
		fields["enabled"] = *req.Enabled
	}

	if len(fields) > 0 {
		if err := s.promoRepo.UpdateFields(ctx, id, fields); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	return s.promoRepo.GetByID(ctx, id)
}

// Delete 删除优惠码（管理端，软删除保留使用记录）
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.promoRepo.GetByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrPromoCodeNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if err := s.promoRepo.SoftDelete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// GetByID 获取优惠码详情（管理端）
func (s *Service) GetByID(ctx context.Context, id int64) (*models.PromoCode, error) {
	promo, err := s.promoRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPromoCodeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return promo, nil
}

// List 获取优惠码列表（管理端）
func (s *Service) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.PromoCode, int64, error) {
	list, total, err := s.promoRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}
