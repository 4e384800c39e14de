// Package booking 提供空房查询、报价与预订生命周期服务
package booking

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/common/errors"
	"github.com/tatchunari/neatly-backend/internal/common/logger"
	"github.com/tatchunari/neatly-backend/internal/common/metrics"
	"github.com/tatchunari/neatly-backend/internal/common/utils"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/internal/repository"
	"github.com/tatchunari/neatly-backend/internal/service/notification"
	"github.com/tatchunari/neatly-backend/internal/service/promotion"
)

// Refunder 退款触发接口
// 由支付服务实现，预订取消时对已完成支付发起退款
type Refunder interface {
	RefundForBooking(ctx context.Context, bookingID int64, reason string) error
}

// Service 预订服务
type Service struct {
	db          *gorm.DB
	bookingRepo *repository.BookingRepository
	roomRepo    *repository.RoomRepository
	promoSvc    *promotion.Service
	notifySvc   *notification.Service
	refunder    Refunder
}

// NewService 创建预订服务
func NewService(
	db *gorm.DB,
	bookingRepo *repository.BookingRepository,
	roomRepo *repository.RoomRepository,
	promoSvc *promotion.Service,
	notifySvc *notification.Service,
) *Service {
	return &Service{
		db:          db,
		bookingRepo: bookingRepo,
		roomRepo:    roomRepo,
		promoSvc:    promoSvc,
		notifySvc:   notifySvc,
	}
}

// SetRefunder 注入退款触发器（支付服务在装配阶段注入，避免循环依赖）
func (s *Service) SetRefunder(r Refunder) {
	s.refunder = r
}

// validateStay 校验入住区间与人数
// 入住日期按 UTC 日期语义，不早于今天；退房必须晚于入住
func (s *Service) validateStay(checkIn, checkOut time.Time, guestCount, capacity int) error {
	if checkIn.Before(utils.Today()) {
		return errors.ErrInvalidDateRange.WithMessage("入住日期不能早于今天")
	}
	if !checkOut.After(checkIn) {
		return errors.ErrInvalidDateRange
	}
	if guestCount < 1 {
		return errors.ErrGuestCountInvalid
	}
	if guestCount > capacity {
		return errors.ErrCapacityExceeded
	}
	return nil
}

// AvailabilityResult 空房查询结果
type AvailabilityResult struct {
	RoomTypeID     int64   `json:"room_type_id"`
	RoomTypeName   string  `json:"room_type_name"`
	CheckInDate    string  `json:"check_in_date"`
	CheckOutDate   string  `json:"check_out_date"`
	Nights         int     `json:"nights"`
	AvailableRooms int     `json:"available_rooms"`
	Available      bool    `json:"available"`
	PricePerNight  float64 `json:"price_per_night"`
	RoomAmount     float64 `json:"room_amount"`
}

// CheckAvailability 查询房型在给定日期区间内的空房情况
// 无空房不是错误，返回 Available=false
func (s *Service) CheckAvailability(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, guestCount int) (*AvailabilityResult, error) {
	roomType, err := s.roomRepo.GetRoomTypeByID(ctx, roomTypeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomTypeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if roomType.Status != models.RoomTypeStatusActive {
		return nil, errors.ErrRoomTypeNotFound
	}

	if err := s.validateStay(checkIn, checkOut, guestCount, roomType.Capacity); err != nil {
		return nil, err
	}

	free, err := s.findAvailableRooms(ctx, roomTypeID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	metrics.GetMetrics().RecordAvailabilityCheck()

	nights := utils.Nights(checkIn, checkOut)
	price := roomType.EffectivePricePerNight()
	return &AvailabilityResult{
		RoomTypeID:     roomType.ID,
		RoomTypeName:   roomType.Name,
		CheckInDate:    checkIn.Format(utils.DateLayout),
		CheckOutDate:   checkOut.Format(utils.DateLayout),
		Nights:         nights,
		AvailableRooms: len(free),
		Available:      len(free) > 0,
		PricePerNight:  price,
		RoomAmount:     utils.RoundMoney(price * float64(nights)),
	}, nil
}

// findAvailableRooms 计算房型下在区间内未被占用的可售房间
func (s *Service) findAvailableRooms(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time) ([]*models.Room, error) {
	rooms, err := s.roomRepo.ListActiveRoomsByType(ctx, roomTypeID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	blockedIDs, err := s.bookingRepo.FindBlockedRoomIDs(ctx, roomTypeID, checkIn, checkOut)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	blocked := make(map[int64]struct{}, len(blockedIDs))
	for _, id := range blockedIDs {
		blocked[id] = struct{}{}
	}

	free := make([]*models.Room, 0, len(rooms))
	for _, room := range rooms {
		if _, ok := blocked[room.ID]; !ok {
			free = append(free, room)
		}
	}
	return free, nil
}

// AddonSelection 附加服务选择
type AddonSelection struct {
	AddonID  int64 `json:"addon_id" binding:"required"`
	Quantity int   `json:"quantity"`
}

// QuoteRequest 报价请求
type QuoteRequest struct {
	RoomTypeID   int64            `json:"room_type_id" binding:"required"`
	CheckInDate  string           `json:"check_in_date" binding:"required"`
	CheckOutDate string           `json:"check_out_date" binding:"required"`
	GuestCount   int              `json:"guest_count" binding:"required,min=1"`
	Addons       []AddonSelection `json:"addons"`
	PromoCode    string           `json:"promo_code"`
}

// QuoteAddonLine 报价中的附加服务明细行
type QuoteAddonLine struct {
	AddonID   int64   `json:"addon_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	PerNight  bool    `json:"per_night"`
	Amount    float64 `json:"amount"`
}

// Quote 报价结果
type Quote struct {
	RoomTypeID     int64            `json:"room_type_id"`
	Nights         int              `json:"nights"`
	PricePerNight  float64          `json:"price_per_night"`
	RoomAmount     float64          `json:"room_amount"`
	AddonLines     []QuoteAddonLine `json:"addon_lines,omitempty"`
	AddonAmount    float64          `json:"addon_amount"`
	PromoCode      string           `json:"promo_code,omitempty"`
	DiscountAmount float64          `json:"discount_amount"`
	TotalAmount    float64          `json:"total_amount"`

	checkIn  time.Time
	checkOut time.Time
	roomType *models.RoomType
	promoID  int64
}

// ComputeQuote 计算报价
// 房费按生效价 × 间夜数；按晚计费的附加服务乘以间夜数；
// 折扣对房费+附加服务总额生效，订单总额不会低于 0
func (s *Service) ComputeQuote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	checkIn, err := utils.ParseDate(req.CheckInDate)
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessage("无效的入住日期格式")
	}
	checkOut, err := utils.ParseDate(req.CheckOutDate)
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessage("无效的退房日期格式")
	}

	roomType, err := s.roomRepo.GetRoomTypeByID(ctx, req.RoomTypeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomTypeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if roomType.Status != models.RoomTypeStatusActive {
		return nil, errors.ErrRoomTypeNotFound
	}

	if err := s.validateStay(checkIn, checkOut, req.GuestCount, roomType.Capacity); err != nil {
		return nil, err
	}

	nights := utils.Nights(checkIn, checkOut)
	price := roomType.EffectivePricePerNight()
	quote := &Quote{
		RoomTypeID:    roomType.ID,
		Nights:        nights,
		PricePerNight: price,
		RoomAmount:    utils.RoundMoney(price * float64(nights)),
		checkIn:       checkIn,
		checkOut:      checkOut,
		roomType:      roomType,
	}

	// 附加服务明细
	if len(req.Addons) > 0 {
		lines, addonAmount, err := s.buildAddonLines(ctx, req.Addons, nights)
		if err != nil {
			return nil, err
		}
		quote.AddonLines = lines
		quote.AddonAmount = addonAmount
	}

	base := quote.RoomAmount + quote.AddonAmount

	// 优惠码（只读校验，下单时才消耗使用次数）
	if req.PromoCode != "" {
		result, err := s.promoSvc.Validate(ctx, req.PromoCode, base)
		if err != nil {
			metrics.GetMetrics().RecordPromoValidation("rejected")
			return nil, err
		}
		metrics.GetMetrics().RecordPromoValidation("accepted")
		quote.PromoCode = result.Promo.Code
		quote.DiscountAmount = result.DiscountAmount
		quote.promoID = result.Promo.ID
	}

	total := base - quote.DiscountAmount
	if total < 0 {
		total = 0
	}
	quote.TotalAmount = utils.RoundMoney(total)
	return quote, nil
}

// buildAddonLines 构建附加服务明细并计算小计
func (s *Service) buildAddonLines(ctx context.Context, selections []AddonSelection, nights int) ([]QuoteAddonLine, float64, error) {
	ids := make([]int64, 0, len(selections))
	for _, sel := range selections {
		if sel.Quantity < 0 {
			return nil, 0, errors.ErrInvalidParams.WithMessage("附加服务数量不能为负数")
		}
		ids = append(ids, sel.AddonID)
	}

	addons, err := s.roomRepo.GetAddonsByIDs(ctx, ids)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	byID := make(map[int64]*models.Addon, len(addons))
	for _, a := range addons {
		byID[a.ID] = a
	}

	var lines []QuoteAddonLine
	var total float64
	for _, sel := range selections {
		addon, ok := byID[sel.AddonID]
		if !ok || addon.Status != models.AddonStatusActive {
			return nil, 0, errors.ErrAddonNotFound
		}
		quantity := sel.Quantity
		if quantity == 0 {
			quantity = 1
		}
		multiplier := float64(quantity)
		if addon.PerNight {
			multiplier *= float64(nights)
		}
		amount := utils.RoundMoney(addon.Price * multiplier)
		lines = append(lines, QuoteAddonLine{
			AddonID:   addon.ID,
			Name:      addon.Name,
			UnitPrice: addon.Price,
			Quantity:  quantity,
			PerNight:  addon.PerNight,
			Amount:    amount,
		})
		total += amount
	}
	return lines, utils.RoundMoney(total), nil
}

// CreateBookingRequest 创建预订请求
type CreateBookingRequest struct {
	RoomTypeID     int64            `json:"room_type_id" binding:"required"`
	RoomID         int64            `json:"room_id"` // 可选，不指定时自动分配
	CheckInDate    string           `json:"check_in_date" binding:"required"`
	CheckOutDate   string           `json:"check_out_date" binding:"required"`
	GuestCount     int              `json:"guest_count" binding:"required,min=1"`
	GuestName      string           `json:"guest_name" binding:"required,max=100"`
	GuestEmail     string           `json:"guest_email" binding:"required,email"`
	GuestPhone     *string          `json:"guest_phone"`
	SpecialRequest *string          `json:"special_request"`
	Addons         []AddonSelection `json:"addons"`
	PromoCode      string           `json:"promo_code"`
}

// CreateBooking 创建预订
// 在事务内锁定房间行并复查重叠预订，配合数据库排他约束防止超卖；
// 优惠码使用次数在同一事务内消耗，预订失败自动回滚
func (s *Service) CreateBooking(ctx context.Context, userID int64, req *CreateBookingRequest) (*models.Booking, error) {
	// 1. 计算报价（含日期、人数、附加服务与优惠码校验）
	quote, err := s.ComputeQuote(ctx, &QuoteRequest{
		RoomTypeID:   req.RoomTypeID,
		CheckInDate:  req.CheckInDate,
		CheckOutDate: req.CheckOutDate,
		GuestCount:   req.GuestCount,
		Addons:       req.Addons,
		PromoCode:    req.PromoCode,
	})
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		BookingNo:      utils.GenerateOrderNo("BK"),
		UserID:         userID,
		RoomTypeID:     req.RoomTypeID,
		CheckInDate:    quote.checkIn,
		CheckOutDate:   quote.checkOut,
		Nights:         quote.Nights,
		GuestCount:     req.GuestCount,
		GuestName:      strings.TrimSpace(req.GuestName),
		GuestEmail:     strings.TrimSpace(req.GuestEmail),
		GuestPhone:     req.GuestPhone,
		SpecialRequest: req.SpecialRequest,
		RoomAmount:     quote.RoomAmount,
		AddonAmount:    quote.AddonAmount,
		DiscountAmount: quote.DiscountAmount,
		TotalAmount:    quote.TotalAmount,
		Status:         models.BookingStatusPending,
	}
	if quote.PromoCode != "" {
		booking.PromoCode = &quote.PromoCode
	}

	// 2. 事务内分配房间并落库
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.allocateRoom(tx, req, quote)
		if err != nil {
			return err
		}
		booking.RoomID = room.ID

		// 3. 消耗优惠码使用次数（条件递增，超限回滚整个事务）
		if quote.promoID > 0 {
			if err := s.promoSvc.ApplyInTx(tx, quote.promoID); err != nil {
				return err
			}
		}

		// 4. 创建预订与附加服务明细
		if err := s.bookingRepo.CreateInTx(tx, booking); err != nil {
			if isExclusionViolation(err) {
				return errors.ErrRoomUnavailable
			}
			return errors.ErrDatabaseError.WithError(err)
		}

		if len(quote.AddonLines) > 0 {
			addonRows := make([]models.BookingAddon, 0, len(quote.AddonLines))
			for _, line := range quote.AddonLines {
				addonRows = append(addonRows, models.BookingAddon{
					BookingID: booking.ID,
					AddonID:   line.AddonID,
					Name:      line.Name,
					UnitPrice: line.UnitPrice,
					Quantity:  line.Quantity,
					Amount:    line.Amount,
				})
			}
			if err := s.bookingRepo.CreateAddonsInTx(tx, addonRows); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.GetMetrics().RecordBooking(string(models.BookingStatusPending))
	logger.Info("预订已创建",
		logger.BookingNo(booking.BookingNo),
		logger.UserID(userID),
		logger.Int64("room_id", booking.RoomID),
		logger.Float64("total_amount", booking.TotalAmount),
	)

	return booking, nil
}

// allocateRoom 在事务内锁定并分配房间
// 指定房间时校验归属与状态；未指定时在空闲房间中顺序尝试
func (s *Service) allocateRoom(tx *gorm.DB, req *CreateBookingRequest, quote *Quote) (*models.Room, error) {
	if req.RoomID > 0 {
		room, err := s.bookingRepo.LockRoom(tx, req.RoomID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.ErrRoomNotFound
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if room.RoomTypeID != req.RoomTypeID {
			return nil, errors.ErrRoomNotFound
		}
		if room.Status != models.RoomStatusActive {
			return nil, errors.ErrRoomDisabled
		}
		count, err := s.bookingRepo.CountOverlapping(tx, room.ID, quote.checkIn, quote.checkOut)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if count > 0 {
			return nil, errors.ErrRoomUnavailable
		}
		return room, nil
	}

	// 自动分配：逐个锁定候选房间，取第一个无重叠的
	var rooms []*models.Room
	if err := tx.Where("room_type_id = ? AND status = ?", req.RoomTypeID, models.RoomStatusActive).
		Order("room_no ASC").Find(&rooms).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	for _, candidate := range rooms {
		room, err := s.bookingRepo.LockRoom(tx, candidate.ID)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		count, err := s.bookingRepo.CountOverlapping(tx, room.ID, quote.checkIn, quote.checkOut)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if count == 0 {
			return room, nil
		}
	}
	return nil, errors.ErrRoomUnavailable
}

// isExclusionViolation 判断是否为数据库排他/唯一约束冲突
func isExclusionViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "exclusion constraint") ||
		strings.Contains(msg, "conflicting key value") ||
		strings.Contains(msg, "duplicate key")
}

// GetBooking 获取预订详情
// userID > 0 时校验归属，非本人预订按不存在处理
func (s *Service) GetBooking(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if userID > 0 && booking.UserID != userID {
		return nil, errors.ErrBookingNotFound
	}
	return booking, nil
}

// GetByBookingNo 根据预订号获取预订详情
func (s *Service) GetByBookingNo(ctx context.Context, userID int64, bookingNo string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByBookingNo(ctx, bookingNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if userID > 0 && booking.UserID != userID {
		return nil, errors.ErrBookingNotFound
	}
	return booking, nil
}

// ListUserBookings 获取用户预订列表
func (s *Service) ListUserBookings(ctx context.Context, userID int64, offset, limit int, status models.BookingStatus) ([]*models.Booking, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, errors.ErrInvalidParams.WithMessage("无效的预订状态")
	}
	list, total, err := s.bookingRepo.ListByUser(ctx, userID, offset, limit, status)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// ListBookings 获取预订列表（管理端）
func (s *Service) ListBookings(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Booking, int64, error) {
	if filters == nil {
		filters = map[string]interface{}{}
	}
	list, total, err := s.bookingRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// ApplyPromoCode 对待支付预订换用优惠码
// 同一优惠码重复应用为幂等操作；换码时回补旧码使用次数后再消耗新码，
// 折扣按房费+附加服务总额重算，订单总额随之更新
func (s *Service) ApplyPromoCode(ctx context.Context, userID, bookingID int64, code string) (*models.Booking, error) {
	var booking *models.Booking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = s.bookingRepo.GetByIDForUpdate(tx, bookingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrBookingNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if userID > 0 && booking.UserID != userID {
			return errors.ErrBookingNotFound
		}
		// 金额只能在支付前变更
		if booking.Status != models.BookingStatusPending {
			return errors.ErrInvalidTransition
		}

		// 幂等：同一张码重复应用不重复计数
		if booking.PromoCode != nil && *booking.PromoCode == utils.NormalizePromoCode(code) {
			return nil
		}

		base := booking.RoomAmount + booking.AddonAmount
		// 事务内校验必须走 tx，否则在单连接下与外层事务互相等待
		result, err := s.promoSvc.ValidateInTx(tx, code, base)
		if err != nil {
			metrics.GetMetrics().RecordPromoValidation("rejected")
			return err
		}
		metrics.GetMetrics().RecordPromoValidation("accepted")

		// 换码：先回补旧码
		if booking.PromoCode != nil && *booking.PromoCode != "" {
			if err := s.promoSvc.ReleaseInTx(tx, *booking.PromoCode); err != nil {
				return err
			}
		}
		if err := s.promoSvc.ApplyInTx(tx, result.Promo.ID); err != nil {
			return err
		}

		total := base - result.DiscountAmount
		if total < 0 {
			total = 0
		}
		total = utils.RoundMoney(total)

		if err := s.bookingRepo.UpdateFieldsInTx(tx, bookingID, map[string]interface{}{
			"promo_code":      result.Promo.Code,
			"discount_amount": result.DiscountAmount,
			"total_amount":    total,
		}); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		promoCode := result.Promo.Code
		booking.PromoCode = &promoCode
		booking.DiscountAmount = result.DiscountAmount
		booking.TotalAmount = total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Cancel 取消预订
// userID > 0 时校验归属；仅待支付/已确认可取消，
// 取消后回补优惠码使用次数，并对已完成支付发起退款
func (s *Service) Cancel(ctx context.Context, userID, bookingID int64, reason string) (*models.Booking, error) {
	var booking *models.Booking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 行锁读取，取消与支付确认串行化
		var err error
		booking, err = s.bookingRepo.GetByIDForUpdate(tx, bookingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrBookingNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if userID > 0 && booking.UserID != userID {
			return errors.ErrBookingNotFound
		}
		if !booking.CanCancel() {
			return errors.ErrBookingNotCancelable
		}

		// 2. 条件更新状态
		now := time.Now()
		extra := map[string]interface{}{"cancelled_at": now}
		if reason != "" {
			extra["cancel_reason"] = reason
		}
		rows, err := s.bookingRepo.UpdateStatusInTx(tx, bookingID, booking.Status, models.BookingStatusCancelled, extra)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if rows == 0 {
			return errors.ErrInvalidTransition
		}

		// 3. 回补优惠码使用次数
		if booking.PromoCode != nil && *booking.PromoCode != "" {
			if err := s.promoSvc.ReleaseInTx(tx, *booking.PromoCode); err != nil {
				return err
			}
		}

		booking.Status = models.BookingStatusCancelled
		booking.CancelledAt = &now
		if reason != "" {
			booking.CancelReason = &reason
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.GetMetrics().RecordBooking(string(models.BookingStatusCancelled))
	logger.Info("预订已取消",
		logger.BookingNo(booking.BookingNo),
		logger.String("reason", reason),
	)

	// 4. 对已完成支付发起退款（失败不回滚取消，留待人工处理）
	if s.refunder != nil {
		if err := s.refunder.RefundForBooking(ctx, bookingID, "预订取消"); err != nil {
			logger.Error("取消后自动退款失败",
				logger.BookingNo(booking.BookingNo), logger.Err(err))
		}
	}

	if s.notifySvc != nil {
		s.notifySvc.NotifyBookingCancelled(booking, booking.GuestEmail)
	}

	return booking, nil
}

// Confirm 确认预订（管理端，用于到店现金等线下收款场景）
func (s *Service) Confirm(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.transition(ctx, bookingID, models.BookingStatusPending, models.BookingStatusConfirmed,
		map[string]interface{}{"confirmed_at": time.Now()})
	if err != nil {
		return nil, err
	}

	metrics.GetMetrics().RecordBooking(string(models.BookingStatusConfirmed))
	if s.notifySvc != nil {
		s.notifySvc.NotifyBookingConfirmed(booking, booking.GuestEmail)
	}
	return booking, nil
}

// Complete 完成预订（管理端，离店结算）
func (s *Service) Complete(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.transition(ctx, bookingID, models.BookingStatusConfirmed, models.BookingStatusCompleted,
		map[string]interface{}{"completed_at": time.Now()})
	if err != nil {
		return nil, err
	}
	metrics.GetMetrics().RecordBooking(string(models.BookingStatusCompleted))
	return booking, nil
}

// transition 在事务内执行一次带前置状态校验的状态转移
func (s *Service) transition(ctx context.Context, bookingID int64, from, to models.BookingStatus, extra map[string]interface{}) (*models.Booking, error) {
	var booking *models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = s.bookingRepo.GetByIDForUpdate(tx, bookingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrBookingNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if booking.Status != from || !from.CanTransitionTo(to) {
			return errors.ErrInvalidTransition
		}

		rows, err := s.bookingRepo.UpdateStatusInTx(tx, bookingID, from, to, extra)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if rows == 0 {
			return errors.ErrInvalidTransition
		}
		booking.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}
