// Package admin 提供后台运营看板服务
package admin

import (
	"context"

	"github.com/tatchunari/neatly-backend/internal/common/errors"
	"github.com/tatchunari/neatly-backend/internal/common/metrics"
	"github.com/tatchunari/neatly-backend/internal/common/utils"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/internal/repository"
)

// Service 看板服务
type Service struct {
	bookingRepo *repository.BookingRepository
	paymentRepo *repository.PaymentRepository
	roomRepo    *repository.RoomRepository
	userRepo    *repository.UserRepository
}

// NewService 创建看板服务
func NewService(
	bookingRepo *repository.BookingRepository,
	paymentRepo *repository.PaymentRepository,
	roomRepo *repository.RoomRepository,
	userRepo *repository.UserRepository,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		roomRepo:    roomRepo,
		userRepo:    userRepo,
	}
}

// Dashboard 运营看板数据
type Dashboard struct {
	BookingsByStatus map[models.BookingStatus]int64 `json:"bookings_by_status"`
	PaymentsByStatus map[models.PaymentStatus]int64 `json:"payments_by_status"`
	TodayBookings    int64                          `json:"today_bookings"`
	TodayRevenue     float64                        `json:"today_revenue"`
	TotalUsers       int64                          `json:"total_users"`
	TotalRooms       int64                          `json:"total_rooms"`
	OccupiedRooms    int64                          `json:"occupied_rooms"`
	OccupancyRate    float64                        `json:"occupancy_rate"`
}

// GetDashboard 聚合运营看板数据
// 入住率 = 当日被占用房间数 / 可售房间总数
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	bookingCounts, err := s.bookingRepo.CountByStatus(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	paymentCounts, err := s.paymentRepo.CountByStatus(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	today := utils.Today()
	tomorrow := today.AddDate(0, 0, 1)

	todayBookings, err := s.bookingRepo.CountCreatedBetween(ctx, today, tomorrow)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	todayRevenue, err := s.paymentRepo.SumCompletedBetween(ctx, today, tomorrow)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	totalRooms, err := s.roomRepo.CountActiveRooms(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	occupied, err := s.bookingRepo.CountOccupiedRoomsOn(ctx, today)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	var occupancyRate float64
	if totalRooms > 0 {
		occupancyRate = utils.RoundMoney(float64(occupied) / float64(totalRooms) * 100)
	}

	metrics.GetMetrics().SetPendingBookings(float64(bookingCounts[models.BookingStatusPending]))

	return &Dashboard{
		BookingsByStatus: bookingCounts,
		PaymentsByStatus: paymentCounts,
		TodayBookings:    todayBookings,
		TodayRevenue:     todayRevenue,
		TotalUsers:       totalUsers,
		TotalRooms:       totalRooms,
		OccupiedRooms:    occupied,
		OccupancyRate:    occupancyRate,
	}, nil
}

// RevenueReport 营收报表
type RevenueReport struct {
	Start          string  `json:"start"`
	End            string  `json:"end"`
	BookingRevenue float64 `json:"booking_revenue"`
	PaymentTotal   float64 `json:"payment_total"`
	BookingCount   int64   `json:"booking_count"`
}

// GetRevenueReport 统计时间段内的营收
// start/end 为日期，区间为 [start, end+1day)
func (s *Service) GetRevenueReport(ctx context.Context, startDate, endDate string) (*RevenueReport, error) {
	start, err := utils.ParseDate(startDate)
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessage("无效的开始日期格式")
	}
	end, err := utils.ParseDate(endDate)
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessage("无效的结束日期格式")
	}
	if end.Before(start) {
		return nil, errors.ErrInvalidParams.WithMessage("结束日期不能早于开始日期")
	}
	endExclusive := end.AddDate(0, 0, 1)

	bookingRevenue, err := s.bookingRepo.SumRevenueBetween(ctx, start, endExclusive)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	paymentTotal, err := s.paymentRepo.SumCompletedBetween(ctx, start, endExclusive)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	bookingCount, err := s.bookingRepo.CountCreatedBetween(ctx, start, endExclusive)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return &RevenueReport{
		Start:          startDate,
		End:            endDate,
		BookingRevenue: bookingRevenue,
		PaymentTotal:   paymentTotal,
		BookingCount:   bookingCount,
	}, nil
}

// ListUsers 获取用户列表（管理端）
func (s *Service) ListUsers(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.User, int64, error) {
	if filters == nil {
		filters = map[string]interface{}{}
	}
	users, total, err := s.userRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return users, total, nil
}

// SetUserStatus 启用/禁用用户（管理端）
func (s *Service) SetUserStatus(ctx context.Context, userID int64, status int8) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return errors.ErrUserNotFound
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"status": status}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}
