// Package content 内容服务单元测试
package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tatchunari/neatly-backend/internal/common/errors"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/internal/repository"
)

func setupContentTest(t *testing.T) (*gorm.DB, *Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.ContentBlock{}, &models.Testimonial{}, &models.FAQ{},
	))

	return db, NewService(repository.NewContentRepository(db))
}

func TestService_SaveBlock(t *testing.T) {
	_, svc := setupContentTest(t)
	ctx := context.Background()

	t.Run("首次保存即创建", func(t *testing.T) {
		block, err := svc.SaveBlock(ctx, &BlockRequest{
			BlockKey: "hero", Title: "A Best Place for Your Neatly Experience",
		})
		require.NoError(t, err)
		assert.NotZero(t, block.ID)
		assert.Equal(t, int8(models.ContentStatusPublished), block.Status)
	})

	t.Run("同键再次保存即覆盖", func(t *testing.T) {
		first, err := svc.SaveBlock(ctx, &BlockRequest{BlockKey: "hero", Title: "初版标题"})
		require.NoError(t, err)

		second, err := svc.SaveBlock(ctx, &BlockRequest{BlockKey: "hero", Title: "改版标题"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		got, err := svc.GetBlock(ctx, "hero")
		require.NoError(t, err)
		assert.Equal(t, "改版标题", got.Title)
	})

	t.Run("隐藏内容块对用户端不可见", func(t *testing.T) {
		hidden := int8(models.ContentStatusHidden)
		_, err := svc.SaveBlock(ctx, &BlockRequest{
			BlockKey: "draft", Title: "未发布区块", Status: &hidden,
		})
		require.NoError(t, err)

		_, err = svc.GetBlock(ctx, "draft")
		assert.ErrorIs(t, err, errors.ErrContentNotFound)
	})
}

func TestService_GetHomeContent(t *testing.T) {
	_, svc := setupContentTest(t)
	ctx := context.Background()

	_, err := svc.SaveBlock(ctx, &BlockRequest{BlockKey: "hero", Title: "首页主视觉"})
	require.NoError(t, err)
	_, err = svc.SaveBlock(ctx, &BlockRequest{BlockKey: "services", Title: "服务介绍"})
	require.NoError(t, err)

	_, err = svc.CreateTestimonial(ctx, &TestimonialRequest{
		GuestName: "Somchai", Rating: 5, Content: "非常棒的入住体验",
	})
	require.NoError(t, err)
	hidden := int8(models.ContentStatusHidden)
	_, err = svc.CreateTestimonial(ctx, &TestimonialRequest{
		GuestName: "匿名", Rating: 1, Content: "待审核评价", Status: &hidden,
	})
	require.NoError(t, err)

	home, err := svc.GetHomeContent(ctx)
	require.NoError(t, err)
	assert.Len(t, home.Blocks, 2)
	require.Len(t, home.Testimonials, 1)
	assert.Equal(t, "Somchai", home.Testimonials[0].GuestName)
}

func TestService_FAQ(t *testing.T) {
	_, svc := setupContentTest(t)
	ctx := context.Background()

	faq, err := svc.CreateFAQ(ctx, &FAQRequest{
		Question: "入住和退房时间是几点？",
		Answer:   "入住时间 14:00，退房时间 12:00。",
		Keywords: models.StringList{"入住", "退房"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.FAQCategoryGeneral, faq.Category)

	_, err = svc.CreateFAQ(ctx, &FAQRequest{
		Question: "可以带宠物吗？", Answer: "抱歉，暂不允许携带宠物。", Category: "policy",
	})
	require.NoError(t, err)

	t.Run("按分类过滤", func(t *testing.T) {
		faqs, err := svc.ListFAQs(ctx, "policy")
		require.NoError(t, err)
		require.Len(t, faqs, 1)
		assert.Equal(t, "可以带宠物吗？", faqs[0].Question)
	})

	t.Run("更新后隐藏对用户端不可见", func(t *testing.T) {
		hidden := int8(models.ContentStatusHidden)
		_, err := svc.UpdateFAQ(ctx, faq.ID, &FAQRequest{
			Question: faq.Question, Answer: faq.Answer, Status: &hidden,
		})
		require.NoError(t, err)

		faqs, err := svc.ListFAQs(ctx, "")
		require.NoError(t, err)
		assert.Len(t, faqs, 1)

		// 管理端仍可见
		all, total, err := svc.ListAllFAQs(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, all, 2)
	})

	t.Run("删除不存在的返回未找到", func(t *testing.T) {
		require.NoError(t, svc.DeleteFAQ(ctx, faq.ID))
		err := svc.DeleteFAQ(ctx, faq.ID)
		assert.ErrorIs(t, err, errors.ErrFAQNotFound)
	})
}
