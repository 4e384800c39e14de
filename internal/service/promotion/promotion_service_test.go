// Package promotion 优惠码服务单元测试
package promotion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tatchunari/neatly-backend/internal/common/errors"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/internal/repository"
)

func setupPromoTest(t *testing.T) (*gorm.DB, *Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.PromoCode{}))

	return db, NewService(repository.NewPromoRepository(db))
}

func seedPromo(t *testing.T, db *gorm.DB, promo *models.PromoCode) *models.PromoCode {
	if promo.StartAt.IsZero() {
		promo.StartAt = time.Now().Add(-time.Hour)
	}
	if promo.EndAt.IsZero() {
		promo.EndAt = time.Now().Add(24 * time.Hour)
	}
	require.NoError(t, db.Create(promo).Error)
	return promo
}

func TestService_Validate(t *testing.T) {
	db, svc := setupPromoTest(t)
	ctx := context.Background()

	seedPromo(t, db, &models.PromoCode{
		Code: "SAVE20", DiscountType: models.DiscountTypePercent, DiscountValue: 20,
		MinAmount: 1000, Enabled: true,
	})

	t.Run("命中并计算折扣", func(t *testing.T) {
		result, err := svc.Validate(ctx, "save20", 2000)
		require.NoError(t, err)
		assert.Equal(t, 400.0, result.DiscountAmount)
	})

	t.Run("未达最低消费", func(t *testing.T) {
		_, err := svc.Validate(ctx, "SAVE20", 999)
		assert.ErrorIs(t, err, errors.ErrPromoCodeInvalid)
	})

	t.Run("不存在的码", func(t *testing.T) {
		_, err := svc.Validate(ctx, "NOPE123", 2000)
		assert.ErrorIs(t, err, errors.ErrPromoCodeNotFound)
	})

	t.Run("非法格式", func(t *testing.T) {
		_, err := svc.Validate(ctx, "a!", 2000)
		assert.ErrorIs(t, err, errors.ErrPromoCodeInvalid)
	})

	t.Run("窗口外拒绝", func(t *testing.T) {
		seedPromo(t, db, &models.PromoCode{
			Code: "EXPIRED", DiscountType: models.DiscountTypeFixed, DiscountValue: 100,
			StartAt: time.Now().Add(-48 * time.Hour),
			EndAt:   time.Now().Add(-24 * time.Hour),
			Enabled: true,
		})
		_, err := svc.Validate(ctx, "EXPIRED", 2000)
		assert.ErrorIs(t, err, errors.ErrPromoCodeExpired)
	})

	t.Run("禁用拒绝", func(t *testing.T) {
		seedPromo(t, db, &models.PromoCode{
			Code: "OFF", DiscountType: models.DiscountTypeFixed, DiscountValue: 100,
			Enabled: false,
		})
		_, err := svc.Validate(ctx, "OFF", 2000)
		assert.ErrorIs(t, err, errors.ErrPromoCodeDisabled)
	})

	t.Run("固定折扣不超过基础金额", func(t *testing.T) {
		seedPromo(t, db, &models.PromoCode{
			Code: "BIG500", DiscountType: models.DiscountTypeFixed, DiscountValue: 500,
			Enabled: true,
		})
		result, err := svc.Validate(ctx, "BIG500", 300)
		require.NoError(t, err)
		assert.Equal(t, 300.0, result.DiscountAmount)
	})
}

func TestService_Apply(t *testing.T) {
	db, svc := setupPromoTest(t)
	ctx := context.Background()

	promo := seedPromo(t, db, &models.PromoCode{
		Code: "TWICE", DiscountType: models.DiscountTypeFixed, DiscountValue: 100,
		UsageLimit: 2, Enabled: true,
	})

	// 前两次成功
	for i := 0; i < 2; i++ {
		_, err := svc.Apply(ctx, "TWICE", 1000)
		require.NoError(t, err)
	}

	// 第三次被递增守卫拒绝
	_, err := svc.Apply(ctx, "TWICE", 1000)
	assert.ErrorIs(t, err, errors.ErrPromoCodeLimitReached)

	var reloaded models.PromoCode
	require.NoError(t, db.First(&reloaded, promo.ID).Error)
	assert.Equal(t, 2, reloaded.UsedCount)
}

func TestService_Create(t *testing.T) {
	_, svc := setupPromoTest(t)
	ctx := context.Background()

	valid := &CreateRequest{
		Code:          "welcome10",
		DiscountType:  models.DiscountTypePercent,
		DiscountValue: 10,
		StartAt:       time.Now(),
		EndAt:         time.Now().Add(72 * time.Hour),
		UsageLimit:    100,
	}

	t.Run("码被规范化为大写", func(t *testing.T) {
		promo, err := svc.Create(ctx, valid)
		require.NoError(t, err)
		assert.Equal(t, "WELCOME10", promo.Code)
		assert.True(t, promo.Enabled)
	})

	t.Run("重复码拒绝", func(t *testing.T) {
		_, err := svc.Create(ctx, valid)
		assert.ErrorIs(t, err, errors.ErrPromoCodeExists)
	})

	t.Run("百分比越界拒绝", func(t *testing.T) {
		bad := *valid
		bad.Code = "BAD"
		bad.DiscountValue = 120
		_, err := svc.Create(ctx, &bad)
		assert.ErrorIs(t, err, errors.ErrInvalidParams)
	})

	t.Run("时间窗口倒置拒绝", func(t *testing.T) {
		bad := *valid
		bad.Code = "BAD2"
		bad.EndAt = bad.StartAt.Add(-time.Hour)
		_, err := svc.Create(ctx, &bad)
		assert.ErrorIs(t, err, errors.ErrInvalidParams)
	})
}

func TestService_Delete(t *testing.T) {
	db, svc := setupPromoTest(t)
	ctx := context.Background()

	promo := seedPromo(t, db, &models.PromoCode{
		Code: "GONE", DiscountType: models.DiscountTypeFixed, DiscountValue: 50, Enabled: true,
	})

	require.NoError(t, svc.Delete(ctx, promo.ID))

	// 软删除后对校验不可见
	_, err := svc.Validate(ctx, "GONE", 1000)
	assert.ErrorIs(t, err, errors.ErrPromoCodeNotFound)

	// 重复删除报不存在
	assert.ErrorIs(t, svc.Delete(ctx, promo.ID), errors.ErrPromoCodeNotFound)
}

func TestService_CreateDisabled(t *testing.T) {
	db, svc := setupPromoTest(t)
	ctx := context.Background()

	disabled := false
	promo, err := svc.Create(ctx, &CreateRequest{
		Code:          "PAUSED",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 100,
		StartAt:       time.Now(),
		EndAt:         time.Now().Add(72 * time.Hour),
		Enabled:       &disabled,
	})
	require.NoError(t, err)
	assert.False(t, promo.Enabled)

	// 停用状态必须落库，不能被列默认值覆盖
	var reloaded models.PromoCode
	require.NoError(t, db.First(&reloaded, promo.ID).Error)
	assert.False(t, reloaded.Enabled)

	_, err = svc.Validate(ctx, "PAUSED", 1000)
	assert.ErrorIs(t, err, errors.ErrPromoCodeDisabled)
}
