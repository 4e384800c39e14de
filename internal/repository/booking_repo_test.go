// Package repository 预订仓储单元测试
package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tatchunari/neatly-backend/internal/models"
)

func setupBookingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.RoomType{}, &models.Room{}, &models.Booking{}, &models.BookingAddon{})
	require.NoError(t, err)

	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedRoomType(t *testing.T, db *gorm.DB) (*models.RoomType, []*models.Room) {
	rt := &models.RoomType{
		Name:          "豪华大床房",
		BedType:       "king",
		Capacity:      2,
		PricePerNight: 1200,
		Status:        models.RoomTypeStatusActive,
	}
	require.NoError(t, db.Create(rt).Error)

	rooms := []*models.Room{
		{RoomTypeID: rt.ID, RoomNo: "201", Status: models.RoomStatusActive},
		{RoomTypeID: rt.ID, RoomNo: "202", Status: models.RoomStatusActive},
	}
	for _, room := range rooms {
		require.NoError(t, db.Create(room).Error)
	}
	return rt, rooms
}

var bookingSeq int64

func seedBooking(t *testing.T, db *gorm.DB, roomTypeID, roomID int64, checkIn, checkOut time.Time, status models.BookingStatus) *models.Booking {
	bookingSeq++
	booking := &models.Booking{
		BookingNo:    fmt.Sprintf("BKTEST%06d", bookingSeq),
		UserID:       1,
		RoomID:       roomID,
		RoomTypeID:   roomTypeID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		Nights:       int(checkOut.Sub(checkIn).Hours() / 24),
		GuestCount:   2,
		GuestName:    "测试客人",
		GuestEmail:   "guest@example.com",
		RoomAmount:   2400,
		TotalAmount:  2400,
		Status:       status,
	}
	require.NoError(t, db.Create(booking).Error)
	return booking
}

func TestBookingRepository_FindBlockedRoomIDs(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	rt, rooms := seedRoomType(t, db)

	// 房间 201 在 10-10 ~ 10-12 有 pending 预订
	seedBooking(t, db, rt.ID, rooms[0].ID, date(2026, 10, 10), date(2026, 10, 12), models.BookingStatusPending)

	t.Run("重叠区间返回被占房间", func(t *testing.T) {
		blocked, err := repo.FindBlockedRoomIDs(ctx, rt.ID, date(2026, 10, 11), date(2026, 10, 13))
		require.NoError(t, err)
		assert.Equal(t, []int64{rooms[0].ID}, blocked)
	})

	t.Run("半开区间边界不算重叠", func(t *testing.T) {
		// 退房日等于新预订的入住日：同一天退房与入住允许接续
		blocked, err := repo.FindBlockedRoomIDs(ctx, rt.ID, date(2026, 10, 12), date(2026, 10, 14))
		require.NoError(t, err)
		assert.Empty(t, blocked)

		// 新预订的退房日等于已有预订的入住日
		blocked, err = repo.FindBlockedRoomIDs(ctx, rt.ID, date(2026, 10, 8), date(2026, 10, 10))
		require.NoError(t, err)
		assert.Empty(t, blocked)
	})

	t.Run("完全包含视为重叠", func(t *testing.T) {
		blocked, err := repo.FindBlockedRoomIDs(ctx, rt.ID, date(2026, 10, 9), date(2026, 10, 13))
		require.NoError(t, err)
		assert.Equal(t, []int64{rooms[0].ID}, blocked)
	})

	t.Run("已取消预订不占库存", func(t *testing.T) {
		seedBooking(t, db, rt.ID, rooms[1].ID, date(2026, 10, 10), date(2026, 10, 12), models.BookingStatusCancelled)

		blocked, err := repo.FindBlockedRoomIDs(ctx, rt.ID, date(2026, 10, 10), date(2026, 10, 12))
		require.NoError(t, err)
		assert.Equal(t, []int64{rooms[0].ID}, blocked)
	})

	t.Run("已确认预订占库存", func(t *testing.T) {
		seedBooking(t, db, rt.ID, rooms[1].ID, date(2026, 11, 1), date(2026, 11, 3), models.BookingStatusConfirmed)

		blocked, err := repo.FindBlockedRoomIDs(ctx, rt.ID, date(2026, 11, 2), date(2026, 11, 4))
		require.NoError(t, err)
		assert.Equal(t, []int64{rooms[1].ID}, blocked)
	})
}

func TestBookingRepository_CountOverlapping(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewBookingRepository(db)

	rt, rooms := seedRoomType(t, db)
	seedBooking(t, db, rt.ID, rooms[0].ID, date(2026, 10, 10), date(2026, 10, 12), models.BookingStatusPending)

	count, err := repo.CountOverlapping(db, rooms[0].ID, date(2026, 10, 11), date(2026, 10, 13))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountOverlapping(db, rooms[0].ID, date(2026, 10, 12), date(2026, 10, 14))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = repo.CountOverlapping(db, rooms[1].ID, date(2026, 10, 11), date(2026, 10, 13))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestBookingRepository_UpdateStatusInTx(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewBookingRepository(db)

	rt, rooms := seedRoomType(t, db)
	booking := seedBooking(t, db, rt.ID, rooms[0].ID, date(2026, 10, 10), date(2026, 10, 12), models.BookingStatusPending)

	t.Run("前置状态匹配时更新成功", func(t *testing.T) {
		now := time.Now()
		affected, err := repo.UpdateStatusInTx(db, booking.ID, models.BookingStatusPending, models.BookingStatusConfirmed,
			map[string]interface{}{"confirmed_at": now})
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		var found models.Booking
		require.NoError(t, db.First(&found, booking.ID).Error)
		assert.Equal(t, models.BookingStatusConfirmed, found.Status)
		assert.NotNil(t, found.ConfirmedAt)
	})

	t.Run("前置状态不匹配时零行受影响", func(t *testing.T) {
		affected, err := repo.UpdateStatusInTx(db, booking.ID, models.BookingStatusPending, models.BookingStatusCancelled, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})
}

func TestBookingRepository_ListByUser(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	rt, rooms := seedRoomType(t, db)
	seedBooking(t, db, rt.ID, rooms[0].ID, date(2026, 10, 10), date(2026, 10, 12), models.BookingStatusPending)
	seedBooking(t, db, rt.ID, rooms[1].ID, date(2026, 11, 1), date(2026, 11, 3), models.BookingStatusConfirmed)

	list, total, err := repo.ListByUser(ctx, 1, 0, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	list, total, err = repo.ListByUser(ctx, 1, 0, 10, models.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, models.BookingStatusConfirmed, list[0].Status)

	_, total, err = repo.ListByUser(ctx, 999, 0, 10, "")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestBookingRepository_CountByStatus(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	rt, rooms := seedRoomType(t, db)
	seedBooking(t, db, rt.ID, rooms[0].ID, date(2026, 10, 10), date(2026, 10, 12), models.BookingStatusPending)
	seedBooking(t, db, rt.ID, rooms[1].ID, date(2026, 11, 1), date(2026, 11, 3), models.BookingStatusConfirmed)
	seedBooking(t, db, rt.ID, rooms[1].ID, date(2026, 12, 1), date(2026, 12, 3), models.BookingStatusCancelled)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.BookingStatusPending])
	assert.Equal(t, int64(1), counts[models.BookingStatusConfirmed])
	assert.Equal(t, int64(1), counts[models.BookingStatusCancelled])
}

func TestBookingRepository_ListExpiredPending(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	rt, rooms := seedRoomType(t, db)
	stale := seedBooking(t, db, rt.ID, rooms[0].ID, date(2026, 10, 10), date(2026, 10, 12), models.BookingStatusPending)
	fresh := seedBooking(t, db, rt.ID, rooms[1].ID, date(2026, 10, 10), date(2026, 10, 12), models.BookingStatusPending)
	paid := seedBooking(t, db, rt.ID, rooms[1].ID, date(2026, 11, 1), date(2026, 11, 3), models.BookingStatusConfirmed)

	// 回拨 stale 的创建时间，模拟超过支付有效期
	cutoff := time.Now().Add(-30 * time.Minute)
	require.NoError(t, db.Model(&models.Booking{}).
		Where("id = ?", stale.ID).
		Update("created_at", cutoff.Add(-time.Hour)).Error)

	expired, err := repo.ListExpiredPending(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)

	for _, b := range expired {
		assert.NotEqual(t, fresh.ID, b.ID)
		assert.NotEqual(t, paid.ID, b.ID)
	}
}
