// Package repository 优惠码仓储单元测试
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

func setupPromoTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.PromoCode{})
	require.NoError(t, err)

	return db
}

func seedPromo(t *testing.T, db *gorm.DB, code string, usageLimit, usedCount int, enabled bool) *models.PromoCode {
	promo := &models.PromoCode{
		Code:          code,
		DiscountType:  models.DiscountTypePercent,
		DiscountValue: 10,
		StartAt:       time.Now().Add(-24 * time.Hour),
		EndAt:         time.Now().Add(24 * time.Hour),
		UsageLimit:    usageLimit,
		UsedCount:     usedCount,
		Enabled:       enabled,
	}
	require.NoError(t, db.Create(promo).Error)
	return promo
}

func TestPromoRepository_GetByCode(t *testing.T) {
	db := setupPromoTestDB(t)
	repo := NewPromoRepository(db)
	ctx := context.Background()

	seedPromo(t, db, "WELCOME10", 100, 0, true)

	found, err := repo.GetByCode(ctx, "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", found.Code)

	_, err = repo.GetByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPromoRepository_IncrementUsedCount(t *testing.T) {
	db := setupPromoTestDB(t)
	repo := NewPromoRepository(db)
	ctx := context.Background()

	t.Run("未达上限时递增成功", func(t *testing.T) {
		promo := seedPromo(t, db, "LIMIT2", 2, 0, true)

		ok, err := repo.IncrementUsedCount(ctx, promo.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.IncrementUsedCount(ctx, promo.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		// 第三次超出上限，守卫拒绝
		ok, err = repo.IncrementUsedCount(ctx, promo.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		found, err := repo.GetByID(ctx, promo.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.UsedCount)
	})

	t.Run("零上限表示不限次数", func(t *testing.T) {
		promo := seedPromo(t, db, "NOLIMIT", 0, 999, true)

		ok, err := repo.IncrementUsedCount(ctx, promo.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("禁用的码拒绝递增", func(t *testing.T) {
		promo := seedPromo(t, db, "DISABLED", 10, 0, false)

		ok, err := repo.IncrementUsedCount(ctx, promo.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPromoRepository_DecrementUsedCount(t *testing.T) {
	db := setupPromoTestDB(t)
	repo := NewPromoRepository(db)
	ctx := context.Background()

	promo := seedPromo(t, db, "REFUND10", 10, 3, true)

	require.NoError(t, repo.DecrementUsedCount(ctx, promo.ID))

	found, err := repo.GetByID(ctx, promo.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.UsedCount)

	// 归零后不再递减为负
	require.NoError(t, repo.DecrementUsedCount(ctx, promo.ID))
	require.NoError(t, repo.DecrementUsedCount(ctx, promo.ID))
	require.NoError(t, repo.DecrementUsedCount(ctx, promo.ID))

	found, err = repo.GetByID(ctx, promo.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.UsedCount)
}

func TestPromoRepository_SoftDelete(t *testing.T) {
	db := setupPromoTestDB(t)
	repo := NewPromoRepository(db)
	ctx := context.Background()

	promo := seedPromo(t, db, "GONE10", 10, 0, true)

	require.NoError(t, repo.SoftDelete(ctx, promo.ID))

	_, err := repo.GetByCode(ctx, "GONE10")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	exists, err := repo.ExistsByCode(ctx, "GONE10")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPromoRepository_List(t *testing.T) {
	db := setupPromoTestDB(t)
	repo := NewPromoRepository(db)
	ctx := context.Background()

	seedPromo(t, db, "SUMMER10", 100, 0, true)
	seedPromo(t, db, "SUMMER20", 100, 0, false)

	list, total, err := repo.List(ctx, 0, 10, map[string]interface{}{"code": "SUMMER"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	list, total, err = repo.List(ctx, 0, 10, map[string]interface{}{"enabled": true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "SUMMER10", list[0].Code)
}
