// Package admin 看板服务单元测试
package admin

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
	"github.com/tatchunari/neatly-backend/internal/common/utils"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/internal/repository"
)

func setupDashboardTest(t *testing.T) (*gorm.DB, *Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.RoomType{}, &models.Room{},
		&models.Booking{}, &models.Payment{},
	))

	svc := NewService(
		repository.NewBookingRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewRoomRepository(db),
		repository.NewUserRepository(db),
	)
	return db, svc
}

// seedDashboardData 造一组跨状态的预订与支付数据
// 房态：2 间可售 + 1 间停用，今日 1 间被占用
func seedDashboardData(t *testing.T, db *gorm.DB) {
	today := utils.Today()
	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)

	users := []models.User{
		{Email: "admin@neatly.com", Username: "admin", PasswordHash: "x", FullName: "Admin", Role: "admin", Status: models.UserStatusActive},
		{Email: "guest@example.com", Username: "guest", PasswordHash: "x", FullName: "Guest", Role: "customer", Status: models.UserStatusActive},
	}
	require.NoError(t, db.Create(&users).Error)

	roomType := models.RoomType{Name: "Deluxe", BedType: "King", Capacity: 2, PricePerNight: 1600, Status: models.RoomTypeStatusActive}
	require.NoError(t, db.Create(&roomType).Error)

	rooms := []models.Room{
		{RoomTypeID: roomType.ID, RoomNo: "201", Status: models.RoomStatusActive},
		{RoomTypeID: roomType.ID, RoomNo: "202", Status: models.RoomStatusActive},
		{RoomTypeID: roomType.ID, RoomNo: "203", Status: models.RoomStatusOutOfService},
	}
	require.NoError(t, db.Create(&rooms).Error)

	bookings := []models.Booking{
		{
			BookingNo: "BK20260829A001", UserID: users[1].ID, RoomID: rooms[0].ID, RoomTypeID: roomType.ID,
			CheckInDate: today.AddDate(0, 0, -1), CheckOutDate: today.AddDate(0, 0, 1), Nights: 2,
			GuestCount: 2, GuestName: "Guest", GuestEmail: "guest@example.com",
			RoomAmount: 3200, TotalAmount: 3200,
			Status: models.BookingStatusConfirmed, ConfirmedAt: &now,
		},
		{
			BookingNo: "BK20260829A002", UserID: users[1].ID, RoomID: rooms[1].ID, RoomTypeID: roomType.ID,
			CheckInDate: today.AddDate(0, 0, 5), CheckOutDate: today.AddDate(0, 0, 6), Nights: 1,
			GuestCount: 1, GuestName: "Guest", GuestEmail: "guest@example.com",
			RoomAmount: 1600, TotalAmount: 1600,
			Status: models.BookingStatusPending,
		},
		{
			BookingNo: "BK20260829A003", UserID: users[1].ID, RoomID: rooms[1].ID, RoomTypeID: roomType.ID,
			CheckInDate: today.AddDate(0, 0, -3), CheckOutDate: today.AddDate(0, 0, -2), Nights: 1,
			GuestCount: 1, GuestName: "Guest", GuestEmail: "guest@example.com",
			RoomAmount: 1600, TotalAmount: 1600,
			Status: models.BookingStatusCancelled, CancelledAt: &now,
		},
	}
	require.NoError(t, db.Create(&bookings).Error)

	payments := []models.Payment{
		{PaymentNo: "PAY20260829A001", BookingID: bookings[0].ID, UserID: users[1].ID, Amount: 2500, Method: "credit_card", Status: models.PaymentStatusCompleted, PaidAt: &now},
		{PaymentNo: "PAY20260829A002", BookingID: bookings[0].ID, UserID: users[1].ID, Amount: 1800, Method: "promptpay", Status: models.PaymentStatusCompleted, PaidAt: &yesterday},
		{PaymentNo: "PAY20260829A003", BookingID: bookings[1].ID, UserID: users[1].ID, Amount: 1600, Method: "promptpay", Status: models.PaymentStatusPending},
	}
	require.NoError(t, db.Create(&payments).Error)
}

func TestService_GetDashboard(t *testing.T) {
	db, svc := setupDashboardTest(t)
	seedDashboardData(t, db)
	ctx := context.Background()

	dash, err := svc.GetDashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), dash.BookingsByStatus[models.BookingStatusConfirmed])
	assert.Equal(t, int64(1), dash.BookingsByStatus[models.BookingStatusPending])
	assert.Equal(t, int64(1), dash.BookingsByStatus[models.BookingStatusCancelled])
	assert.Equal(t, int64(2), dash.PaymentsByStatus[models.PaymentStatusCompleted])
	assert.Equal(t, int64(1), dash.PaymentsByStatus[models.PaymentStatusPending])

	// 三笔预订均为今日创建
	assert.Equal(t, int64(3), dash.TodayBookings)
	// 今日营收只含今日支付成功的 2500，昨日的 1800 不计入
	assert.Equal(t, 2500.0, dash.TodayRevenue)

	assert.Equal(t, int64(2), dash.TotalUsers)
	assert.Equal(t, int64(2), dash.TotalRooms)
	assert.Equal(t, int64(1), dash.OccupiedRooms)
	assert.Equal(t, 50.0, dash.OccupancyRate)
}

func TestService_GetDashboard_Empty(t *testing.T) {
	_, svc := setupDashboardTest(t)

	dash, err := svc.GetDashboard(context.Background())
	require.NoError(t, err)

	assert.Empty(t, dash.BookingsByStatus)
	assert.Zero(t, dash.TodayRevenue)
	assert.Zero(t, dash.TotalRooms)
	// 无可售房间时入住率为 0 而非除零
	assert.Zero(t, dash.OccupancyRate)
}

func TestService_GetRevenueReport(t *testing.T) {
	db, svc := setupDashboardTest(t)
	seedDashboardData(t, db)
	ctx := context.Background()

	today := utils.Today()
	start := today.AddDate(0, 0, -2).Format("2006-01-02")
	end := today.Format("2006-01-02")

	t.Run("统计区间含首尾两天", func(t *testing.T) {
		report, err := svc.GetRevenueReport(ctx, start, end)
		require.NoError(t, err)
		assert.Equal(t, start, report.Start)
		assert.Equal(t, end, report.End)
		// 确认预订营收按 confirmed_at 归属
		assert.Equal(t, 3200.0, report.BookingRevenue)
		// 昨日与今日的支付都落在区间内
		assert.Equal(t, 4300.0, report.PaymentTotal)
		assert.Equal(t, int64(3), report.BookingCount)
	})

	t.Run("开始日期格式错误", func(t *testing.T) {
		_, err := svc.GetRevenueReport(ctx, "2026/08/01", end)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidParams)
	})

	t.Run("结束日期早于开始日期", func(t *testing.T) {
		_, err := svc.GetRevenueReport(ctx, end, start)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidParams)
	})
}

func TestService_ListUsers(t *testing.T) {
	db, svc := setupDashboardTest(t)
	seedDashboardData(t, db)
	ctx := context.Background()

	t.Run("全量列表", func(t *testing.T) {
		users, total, err := svc.ListUsers(ctx, 0, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, users, 2)
	})

	t.Run("按角色筛选", func(t *testing.T) {
		users, total, err := svc.ListUsers(ctx, 0, 10, map[string]interface{}{"role": "admin"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, users, 1)
		assert.Equal(t, "admin@neatly.com", users[0].Email)
	})
}

func TestService_SetUserStatus(t *testing.T) {
	db, svc := setupDashboardTest(t)
	seedDashboardData(t, db)
	ctx := context.Background()

	var guest models.User
	require.NoError(t, db.Where("role = ?", "customer").First(&guest).Error)

	t.Run("禁用用户", func(t *testing.T) {
		require.NoError(t, svc.SetUserStatus(ctx, guest.ID, models.UserStatusDisabled))

		var got models.User
		require.NoError(t, db.First(&got, guest.ID).Error)
		assert.Equal(t, int8(models.UserStatusDisabled), got.Status)
	})

	t.Run("用户不存在", func(t *testing.T) {
		err := svc.SetUserStatus(ctx, 99999, models.UserStatusActive)
		assert.ErrorIs(t, err, errors.ErrUserNotFound)
	})
}
