// Package booking 预订服务单元测试
package booking

import (
	"context"
	"sync"
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
	"github.com/tatchunari/neatly-backend/internal/service/notification"
	"github.com/tatchunari/neatly-backend/internal/service/promotion"
)

type bookingTestEnv struct {
	db       *gorm.DB
	svc      *Service
	promoSvc *promotion.Service
	roomType *models.RoomType
	rooms    []*models.Room
}

func setupBookingTest(t *testing.T) *bookingTestEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.RoomType{}, &models.Room{}, &models.Addon{},
		&models.Booking{}, &models.BookingAddon{}, &models.PromoCode{},
	)
	require.NoError(t, err)

	bookingRepo := repository.NewBookingRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	promoRepo := repository.NewPromoRepository(db)
	promoSvc := promotion.NewService(promoRepo)
	notifySvc := notification.NewService(nil, nil)

	rt := &models.RoomType{
		Name:          "豪华海景房",
		BedType:       "king",
		Capacity:      2,
		PricePerNight: 2000,
		Status:        models.RoomTypeStatusActive,
	}
	require.NoError(t, db.Create(rt).Error)

	rooms := []*models.Room{
		{RoomTypeID: rt.ID, RoomNo: "301", Status: models.RoomStatusActive},
		{RoomTypeID: rt.ID, RoomNo: "302", Status: models.RoomStatusActive},
	}
	for _, room := range rooms {
		require.NoError(t, db.Create(room).Error)
	}

	return &bookingTestEnv{
		db:       db,
		svc:      NewService(db, bookingRepo, roomRepo, promoSvc, notifySvc),
		promoSvc: promoSvc,
		roomType: rt,
		rooms:    rooms,
	}
}

// stayDates 返回距今 offset 天起住 nights 晚的日期对
func stayDates(offset, nights int) (string, string) {
	checkIn := utils.Today().AddDate(0, 0, offset)
	checkOut := checkIn.AddDate(0, 0, nights)
	return checkIn.Format(utils.DateLayout), checkOut.Format(utils.DateLayout)
}

func TestService_CheckAvailability(t *testing.T) {
	env := setupBookingTest(t)
	ctx := context.Background()

	checkIn := utils.Today().AddDate(0, 0, 7)
	checkOut := checkIn.AddDate(0, 0, 2)

	t.Run("全部空闲", func(t *testing.T) {
		result, err := env.svc.CheckAvailability(ctx, env.roomType.ID, checkIn, checkOut, 2)
		require.NoError(t, err)
		assert.True(t, result.Available)
		assert.Equal(t, 2, result.AvailableRooms)
		assert.Equal(t, 2, result.Nights)
		assert.Equal(t, 4000.0, result.RoomAmount)
	})

	t.Run("入住日期早于今天", func(t *testing.T) {
		_, err := env.svc.CheckAvailability(ctx, env.roomType.ID,
			utils.Today().AddDate(0, 0, -1), checkOut, 2)
		assert.ErrorIs(t, err, errors.ErrInvalidDateRange)
	})

	t.Run("退房不晚于入住", func(t *testing.T) {
		_, err := env.svc.CheckAvailability(ctx, env.roomType.ID, checkIn, checkIn, 2)
		assert.ErrorIs(t, err, errors.ErrInvalidDateRange)
	})

	t.Run("人数超过房型容量", func(t *testing.T) {
		_, err := env.svc.CheckAvailability(ctx, env.roomType.ID, checkIn, checkOut, 3)
		assert.ErrorIs(t, err, errors.ErrCapacityExceeded)
	})

	t.Run("人数不足一人", func(t *testing.T) {
		_, err := env.svc.CheckAvailability(ctx, env.roomType.ID, checkIn, checkOut, 0)
		assert.ErrorIs(t, err, errors.ErrGuestCountInvalid)
	})

	t.Run("房型不存在", func(t *testing.T) {
		_, err := env.svc.CheckAvailability(ctx, 9999, checkIn, checkOut, 2)
		assert.ErrorIs(t, err, errors.ErrRoomTypeNotFound)
	})

	t.Run("满房不是错误", func(t *testing.T) {
		for _, room := range env.rooms {
			require.NoError(t, env.db.Create(&models.Booking{
				BookingNo:    "BKFULL" + room.RoomNo,
				UserID:       1,
				RoomID:       room.ID,
				RoomTypeID:   env.roomType.ID,
				CheckInDate:  checkIn,
				CheckOutDate: checkOut,
				Nights:       2,
				GuestCount:   2,
				GuestName:    "占用",
				GuestEmail:   "x@example.com",
				RoomAmount:   4000,
				TotalAmount:  4000,
				Status:       models.BookingStatusConfirmed,
			}).Error)
		}

		result, err := env.svc.CheckAvailability(ctx, env.roomType.ID, checkIn, checkOut, 2)
		require.NoError(t, err)
		assert.False(t, result.Available)
		assert.Equal(t, 0, result.AvailableRooms)

		// 退房当天入住不算重叠
		result, err = env.svc.CheckAvailability(ctx, env.roomType.ID, checkOut, checkOut.AddDate(0, 0, 1), 2)
		require.NoError(t, err)
		assert.True(t, result.Available)
	})
}

func TestService_ComputeQuote(t *testing.T) {
	env := setupBookingTest(t)
	ctx := context.Background()
	checkIn, checkOut := stayDates(7, 3)

	t.Run("促销价优先于基础价", func(t *testing.T) {
		promo := 1500.0
		require.NoError(t, env.db.Model(env.roomType).Update("promotion_price", promo).Error)
		defer env.db.Model(env.roomType).Update("promotion_price", nil)

		quote, err := env.svc.ComputeQuote(ctx, &QuoteRequest{
			RoomTypeID:   env.roomType.ID,
			CheckInDate:  checkIn,
			CheckOutDate: checkOut,
			GuestCount:   2,
		})
		require.NoError(t, err)
		assert.Equal(t, 1500.0, quote.PricePerNight)
		assert.Equal(t, 4500.0, quote.RoomAmount)
		assert.Equal(t, 4500.0, quote.TotalAmount)
	})

	t.Run("按晚附加服务乘以间夜数", func(t *testing.T) {
		breakfast := &models.Addon{Name: "双人早餐", Price: 300, PerNight: true, Status: models.AddonStatusActive}
		pickup := &models.Addon{Name: "机场接送", Price: 800, PerNight: false, Status: models.AddonStatusActive}
		require.NoError(t, env.db.Create(breakfast).Error)
		require.NoError(t, env.db.Create(pickup).Error)

		quote, err := env.svc.ComputeQuote(ctx, &QuoteRequest{
			RoomTypeID:   env.roomType.ID,
			CheckInDate:  checkIn,
			CheckOutDate: checkOut,
			GuestCount:   2,
			Addons: []AddonSelection{
				{AddonID: breakfast.ID, Quantity: 1},
				{AddonID: pickup.ID, Quantity: 2},
			},
		})
		require.NoError(t, err)
		// 早餐 300×3晚 + 接送 800×2次
		assert.Equal(t, 2500.0, quote.AddonAmount)
		assert.Equal(t, 6000.0, quote.RoomAmount)
		assert.Equal(t, 8500.0, quote.TotalAmount)
	})

	t.Run("下架附加服务不可选", func(t *testing.T) {
		disabled := &models.Addon{Name: "已下架", Price: 100, Status: models.AddonStatusDisabled}
		require.NoError(t, env.db.Create(disabled).Error)

		_, err := env.svc.ComputeQuote(ctx, &QuoteRequest{
			RoomTypeID:   env.roomType.ID,
			CheckInDate:  checkIn,
			CheckOutDate: checkOut,
			GuestCount:   2,
			Addons:       []AddonSelection{{AddonID: disabled.ID}},
		})
		assert.ErrorIs(t, err, errors.ErrAddonNotFound)
	})

	t.Run("百分比折扣", func(t *testing.T) {
		require.NoError(t, env.db.Create(&models.PromoCode{
			Code:          "SAVE10",
			DiscountType:  models.DiscountTypePercent,
			DiscountValue: 10,
			StartAt:       time.Now().Add(-time.Hour),
			EndAt:         time.Now().Add(24 * time.Hour),
			Enabled:       true,
		}).Error)

		quote, err := env.svc.ComputeQuote(ctx, &QuoteRequest{
			RoomTypeID:   env.roomType.ID,
			CheckInDate:  checkIn,
			CheckOutDate: checkOut,
			GuestCount:   2,
			PromoCode:    "save10",
		})
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", quote.PromoCode)
		assert.Equal(t, 600.0, quote.DiscountAmount)
		assert.Equal(t, 5400.0, quote.TotalAmount)
	})

	t.Run("固定折扣不会使总额为负", func(t *testing.T) {
		require.NoError(t, env.db.Create(&models.PromoCode{
			Code:          "HUGE",
			DiscountType:  models.DiscountTypeFixed,
			DiscountValue: 99999,
			StartAt:       time.Now().Add(-time.Hour),
			EndAt:         time.Now().Add(24 * time.Hour),
			Enabled:       true,
		}).Error)

		quote, err := env.svc.ComputeQuote(ctx, &QuoteRequest{
			RoomTypeID:   env.roomType.ID,
			CheckInDate:  checkIn,
			CheckOutDate: checkOut,
			GuestCount:   2,
			PromoCode:    "HUGE",
		})
		require.NoError(t, err)
		assert.Equal(t, 0.0, quote.TotalAmount)
	})
}

func TestService_CreateBooking(t *testing.T) {
	env := setupBookingTest(t)
	ctx := context.Background()
	checkIn, checkOut := stayDates(10, 2)

	req := &CreateBookingRequest{
		RoomTypeID:   env.roomType.ID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		GuestCount:   2,
		GuestName:    "张三",
		GuestEmail:   "zhangsan@example.com",
	}

	t.Run("创建成功为待支付", func(t *testing.T) {
		booking, err := env.svc.CreateBooking(ctx, 1, req)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
		assert.NotEmpty(t, booking.BookingNo)
		assert.Equal(t, 4000.0, booking.TotalAmount)
		assert.Contains(t, []int64{env.rooms[0].ID, env.rooms[1].ID}, booking.RoomID)
	})

	t.Run("同房型仍有第二间可订", func(t *testing.T) {
		booking, err := env.svc.CreateBooking(ctx, 2, req)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
	})

	t.Run("满房后拒绝", func(t *testing.T) {
		_, err := env.svc.CreateBooking(ctx, 3, req)
		assert.ErrorIs(t, err, errors.ErrRoomUnavailable)
	})

	t.Run("指定已占用房间拒绝", func(t *testing.T) {
		reqWithRoom := *req
		reqWithRoom.RoomID = env.rooms[0].ID
		_, err := env.svc.CreateBooking(ctx, 3, &reqWithRoom)
		assert.ErrorIs(t, err, errors.ErrRoomUnavailable)
	})
}

func TestService_CreateBooking_PromoConsumption(t *testing.T) {
	env := setupBookingTest(t)
	ctx := context.Background()

	promo := &models.PromoCode{
		Code:          "ONCE",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 500,
		StartAt:       time.Now().Add(-time.Hour),
		EndAt:         time.Now().Add(24 * time.Hour),
		UsageLimit:    1,
		Enabled:       true,
	}
	require.NoError(t, env.db.Create(promo).Error)

	newReq := func(offset int) *CreateBookingRequest {
		in, out := stayDates(10+offset*5, 2)
		return &CreateBookingRequest{
			RoomTypeID:   env.roomType.ID,
			CheckInDate:  in,
			CheckOutDate: out,
			GuestCount:   2,
			GuestName:    "李四",
			GuestEmail:   "lisi@example.com",
			PromoCode:    "ONCE",
		}
	}

	// 首单消耗唯一一次使用机会
	booking, err := env.svc.CreateBooking(ctx, 1, newReq(0))
	require.NoError(t, err)
	assert.Equal(t, 500.0, booking.DiscountAmount)
	assert.Equal(t, 3500.0, booking.TotalAmount)

	var reloaded models.PromoCode
	require.NoError(t, env.db.First(&reloaded, promo.ID).Error)
	assert.Equal(t, 1, reloaded.UsedCount)

	// 第二单因次数耗尽被拒绝
	_, err = env.svc.CreateBooking(ctx, 2, newReq(1))
	assert.ErrorIs(t, err, errors.ErrPromoCodeLimitReached)

	// 失败的单不会留下预订记录
	var count int64
	require.NoError(t, env.db.Model(&models.Booking{}).Where("user_id = ?", 2).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestService_Cancel(t *testing.T) {
	env := setupBookingTest(t)
	ctx := context.Background()

	promo := &models.PromoCode{
		Code:          "BACK",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 200,
		StartAt:       time.Now().Add(-time.Hour),
		EndAt:         time.Now().Add(24 * time.Hour),
		UsageLimit:    5,
		Enabled:       true,
	}
	require.NoError(t, env.db.Create(promo).Error)

	checkIn, checkOut := stayDates(10, 2)
	booking, err := env.svc.CreateBooking(ctx, 1, &CreateBookingRequest{
		RoomTypeID:   env.roomType.ID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		GuestCount:   2,
		GuestName:    "王五",
		GuestEmail:   "wangwu@example.com",
		PromoCode:    "BACK",
	})
	require.NoError(t, err)

	t.Run("非本人不可取消", func(t *testing.T) {
		_, err := env.svc.Cancel(ctx, 99, booking.ID, "")
		assert.ErrorIs(t, err, errors.ErrBookingNotFound)
	})

	t.Run("待支付可取消并回补优惠码", func(t *testing.T) {
		cancelled, err := env.svc.Cancel(ctx, 1, booking.ID, "行程有变")
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledAt)
		require.NotNil(t, cancelled.CancelReason)
		assert.Equal(t, "行程有变", *cancelled.CancelReason)

		var reloaded models.PromoCode
		require.NoError(t, env.db.First(&reloaded, promo.ID).Error)
		assert.Equal(t, 0, reloaded.UsedCount)
	})

	t.Run("已取消不可再取消", func(t *testing.T) {
		_, err := env.svc.Cancel(ctx, 1, booking.ID, "")
		assert.ErrorIs(t, err, errors.ErrBookingNotCancelable)
	})

	t.Run("取消后释放库存", func(t *testing.T) {
		in, _ := utils.ParseDate(checkIn)
		out, _ := utils.ParseDate(checkOut)
		result, err := env.svc.CheckAvailability(ctx, env.roomType.ID, in, out, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, result.AvailableRooms)
	})
}

func TestService_Transitions(t *testing.T) {
	env := setupBookingTest(t)
	ctx := context.Background()

	checkIn, checkOut := stayDates(5, 1)
	booking, err := env.svc.CreateBooking(ctx, 1, &CreateBookingRequest{
		RoomTypeID:   env.roomType.ID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		GuestCount:   1,
		GuestName:    "赵六",
		GuestEmail:   "zhaoliu@example.com",
	})
	require.NoError(t, err)

	t.Run("待支付不可直接完成", func(t *testing.T) {
		_, err := env.svc.Complete(ctx, booking.ID)
		assert.ErrorIs(t, err, errors.ErrInvalidTransition)
	})

	t.Run("确认后可完成", func(t *testing.T) {
		confirmed, err := env.svc.Confirm(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)

		completed, err := env.svc.Complete(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCompleted, completed.Status)
	})

	t.Run("完成后成为终态", func(t *testing.T) {
		_, err := env.svc.Confirm(ctx, booking.ID)
		assert.ErrorIs(t, err, errors.ErrInvalidTransition)
		_, err = env.svc.Cancel(ctx, 1, booking.ID, "")
		assert.ErrorIs(t, err, errors.ErrBookingNotCancelable)
	})
}

// refundRecorder 记录退款调用的桩实现
type refundRecorder struct {
	calls []int64
}

func (r *refundRecorder) RefundForBooking(ctx context.Context, bookingID int64, reason string) error {
	r.calls = append(r.calls, bookingID)
	return nil
}

func TestService_CancelTriggersRefund(t *testing.T) {
	env := setupBookingTest(t)
	ctx := context.Background()

	recorder := &refundRecorder{}
	env.svc.SetRefunder(recorder)

	checkIn, checkOut := stayDates(8, 2)
	booking, err := env.svc.CreateBooking(ctx, 1, &CreateBookingRequest{
		RoomTypeID:   env.roomType.ID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		GuestCount:   2,
		GuestName:    "孙七",
		GuestEmail:   "sunqi@example.com",
	})
	require.NoError(t, err)

	_, err = env.svc.Confirm(ctx, booking.ID)
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, 1, booking.ID, "测试退款联动")
	require.NoError(t, err)

	require.Len(t, recorder.calls, 1)
	assert.Equal(t, booking.ID, recorder.calls[0])
}

// 并发抢订同一房型：成功数不得超过可售房间数
func TestService_ConcurrentCreateBooking(t *testing.T) {
	env := setupBookingTest(t)
	checkIn, checkOut := stayDates(20, 1)

	const attempts = 8
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := env.svc.CreateBooking(context.Background(), userID, &CreateBookingRequest{
				RoomTypeID:   env.roomType.ID,
				CheckInDate:  checkIn,
				CheckOutDate: checkOut,
				GuestCount:   2,
				GuestName:    "并发客人",
				GuestEmail:   "race@example.com",
			})
			results <- err
		}(int64(i + 1))
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, errors.ErrRoomUnavailable)
		rejected++
	}

	assert.Equal(t, len(env.rooms), succeeded)
	assert.Equal(t, attempts-len(env.rooms), rejected)

	var count int64
	require.NoError(t, env.db.Model(&models.Booking{}).
		Where("status = ?", models.BookingStatusPending).
		Count(&count).Error)
	assert.Equal(t, int64(len(env.rooms)), count)
}

func TestService_ApplyPromoCode(t *testing.T) {
	env := setupBookingTest(t)
	ctx := context.Background()

	first := &models.PromoCode{
		Code:          "FIRST",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 300,
		StartAt:       time.Now().Add(-time.Hour),
		EndAt:         time.Now().Add(24 * time.Hour),
		UsageLimit:    5,
		Enabled:       true,
	}
	second := &models.PromoCode{
		Code:          "SECOND",
		DiscountType:  models.DiscountTypePercent,
		DiscountValue: 10,
		StartAt:       time.Now().Add(-time.Hour),
		EndAt:         time.Now().Add(24 * time.Hour),
		UsageLimit:    5,
		Enabled:       true,
	}
	require.NoError(t, env.db.Create(first).Error)
	require.NoError(t, env.db.Create(second).Error)

	checkIn, checkOut := stayDates(10, 2)
	booking, err := env.svc.CreateBooking(ctx, 1, &CreateBookingRequest{
		RoomTypeID:   env.roomType.ID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		GuestCount:   2,
		GuestName:    "王五",
		GuestEmail:   "wangwu@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, 4000.0, booking.TotalAmount)

	promoUsed := func(id int64) int {
		var p models.PromoCode
		require.NoError(t, env.db.First(&p, id).Error)
		return p.UsedCount
	}

	t.Run("应用优惠码后金额更新", func(t *testing.T) {
		updated, err := env.svc.ApplyPromoCode(ctx, 1, booking.ID, "FIRST")
		require.NoError(t, err)
		assert.Equal(t, 300.0, updated.DiscountAmount)
		assert.Equal(t, 3700.0, updated.TotalAmount)
		assert.Equal(t, 1, promoUsed(first.ID))
	})

	t.Run("同码重复应用幂等", func(t *testing.T) {
		updated, err := env.svc.ApplyPromoCode(ctx, 1, booking.ID, "FIRST")
		require.NoError(t, err)
		assert.Equal(t, 3700.0, updated.TotalAmount)
		assert.Equal(t, 1, promoUsed(first.ID))
	})

	t.Run("大小写不同的同码同样幂等", func(t *testing.T) {
		updated, err := env.svc.ApplyPromoCode(ctx, 1, booking.ID, "first")
		require.NoError(t, err)
		assert.Equal(t, 3700.0, updated.TotalAmount)
		assert.Equal(t, 1, promoUsed(first.ID))
	})

	t.Run("换码回补旧码次数", func(t *testing.T) {
		updated, err := env.svc.ApplyPromoCode(ctx, 1, booking.ID, "SECOND")
		require.NoError(t, err)
		assert.Equal(t, 400.0, updated.DiscountAmount)
		assert.Equal(t, 3600.0, updated.TotalAmount)
		assert.Equal(t, 0, promoUsed(first.ID))
		assert.Equal(t, 1, promoUsed(second.ID))
	})

	t.Run("非本人不可操作", func(t *testing.T) {
		_, err := env.svc.ApplyPromoCode(ctx, 2, booking.ID, "FIRST")
		assert.ErrorIs(t, err, errors.ErrBookingNotFound)
	})

	t.Run("非待支付状态拒绝", func(t *testing.T) {
		_, err := env.svc.Confirm(ctx, booking.ID)
		require.NoError(t, err)
		_, err = env.svc.ApplyPromoCode(ctx, 1, booking.ID, "FIRST")
		assert.ErrorIs(t, err, errors.ErrInvalidTransition)
	})
}
