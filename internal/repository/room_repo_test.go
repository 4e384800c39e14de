// Package repository 房型仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tatchunari/neatly-backend/internal/models"
)

func setupRoomTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.RoomType{}, &models.Room{}, &models.Addon{})
	require.NoError(t, err)

	return db
}

func TestRoomRepository_CreateRoomType(t *testing.T) {
	db := setupRoomTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	promo := 899.0
	rt := &models.RoomType{
		Name:           "高级双床房",
		BedType:        "twin",
		Capacity:       2,
		PricePerNight:  1200,
		PromotionPrice: &promo,
		Amenities:      models.StringList{"wifi", "breakfast"},
	}

	err := repo.CreateRoomType(ctx, rt)
	require.NoError(t, err)
	assert.NotZero(t, rt.ID)

	found, err := repo.GetRoomTypeByID(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, "高级双床房", found.Name)
	require.NotNil(t, found.PromotionPrice)
	assert.Equal(t, 899.0, *found.PromotionPrice)
	assert.Equal(t, models.StringList{"wifi", "breakfast"}, found.Amenities)
}

func TestRoomRepository_GetRoomTypeWithRooms(t *testing.T) {
	db := setupRoomTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	rt := &models.RoomType{Name: "套房", BedType: "king", Capacity: 4, PricePerNight: 3000}
	require.NoError(t, db.Create(rt).Error)

	db.Create(&models.Room{RoomTypeID: rt.ID, RoomNo: "501", Status: models.RoomStatusActive})
	db.Create(&models.Room{RoomTypeID: rt.ID, RoomNo: "502", Status: models.RoomStatusOutOfService})

	found, err := repo.GetRoomTypeWithRooms(ctx, rt.ID)
	require.NoError(t, err)
	// 仅包含可售房间
	require.Len(t, found.Rooms, 1)
	assert.Equal(t, "501", found.Rooms[0].RoomNo)
}

func TestRoomRepository_ListActiveRoomTypes(t *testing.T) {
	db := setupRoomTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	db.Create(&models.RoomType{Name: "标准房", BedType: "queen", Capacity: 2, PricePerNight: 800, Status: models.RoomTypeStatusActive})
	db.Create(&models.RoomType{Name: "家庭房", BedType: "double", Capacity: 4, PricePerNight: 1500, Status: models.RoomTypeStatusActive})
	db.Create(&models.RoomType{Name: "下架房型", BedType: "queen", Capacity: 2, PricePerNight: 500, Status: models.RoomTypeStatusDisabled})

	list, total, err := repo.ListActiveRoomTypes(ctx, 0, 10, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	// 按容纳人数过滤
	list, total, err = repo.ListActiveRoomTypes(ctx, 0, 10, map[string]interface{}{"capacity": 3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "家庭房", list[0].Name)
}

func TestRoomRepository_Addons(t *testing.T) {
	db := setupRoomTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	breakfast := &models.Addon{Name: "双人早餐", Price: 350, PerNight: true, Status: models.AddonStatusActive}
	pickup := &models.Addon{Name: "机场接送", Price: 900, Status: models.AddonStatusActive}
	hidden := &models.Addon{Name: "已下架服务", Price: 100, Status: models.AddonStatusDisabled}
	require.NoError(t, repo.CreateAddon(ctx, breakfast))
	require.NoError(t, repo.CreateAddon(ctx, pickup))
	require.NoError(t, repo.CreateAddon(ctx, hidden))

	active, err := repo.ListActiveAddons(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	byIDs, err := repo.GetAddonsByIDs(ctx, []int64{breakfast.ID, pickup.ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}
