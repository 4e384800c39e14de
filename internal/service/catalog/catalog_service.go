// Package catalog 提供房型、房间与附加服务的目录服务
package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/common/errors"
	"github.com/tatchunari/neatly-backend/internal/common/logger"
	"github.com/tatchunari/neatly-backend/internal/common/utils"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/internal/repository"
)

// Service 目录服务
type Service struct {
	roomRepo    *repository.RoomRepository
	bookingRepo *repository.BookingRepository
}

// NewService 创建目录服务
func NewService(roomRepo *repository.RoomRepository, bookingRepo *repository.BookingRepository) *Service {
	return &Service{roomRepo: roomRepo, bookingRepo: bookingRepo}
}

// RoomTypeInfo 房型展示信息（用户端）
type RoomTypeInfo struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	Description    *string           `json:"description,omitempty"`
	MainImageURL   *string           `json:"main_image_url,omitempty"`
	GalleryImages  models.StringList `json:"gallery_images,omitempty"`
	Amenities      models.StringList `json:"amenities,omitempty"`
	Area           *float64          `json:"area,omitempty"`
	BedType        string            `json:"bed_type"`
	Capacity       int               `json:"capacity"`
	PricePerNight  float64           `json:"price_per_night"`
	PromotionPrice *float64          `json:"promotion_price,omitempty"`
	EffectivePrice float64           `json:"effective_price"`
	HasPromotion   bool              `json:"has_promotion"`
}

// convertRoomTypeInfo 转换房型展示信息
func convertRoomTypeInfo(rt *models.RoomType) *RoomTypeInfo {
	info := &RoomTypeInfo{
		ID:             rt.ID,
		Name:           rt.Name,
		Description:    rt.Description,
		MainImageURL:   rt.MainImageURL,
		GalleryImages:  rt.GalleryImages,
		Amenities:      rt.Amenities,
		Area:           rt.Area,
		BedType:        rt.BedType,
		Capacity:       rt.Capacity,
		PricePerNight:  rt.PricePerNight,
		EffectivePrice: rt.EffectivePricePerNight(),
		HasPromotion:   rt.HasPromotion(),
	}
	if info.HasPromotion {
		info.PromotionPrice = rt.PromotionPrice
	}
	return info
}

// ListRoomTypes 获取上架房型列表（用户端）
func (s *Service) ListRoomTypes(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*RoomTypeInfo, int64, error) {
	if filters == nil {
		filters = map[string]interface{}{}
	}
	roomTypes, total, err := s.roomRepo.ListActiveRoomTypes(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	infos := make([]*RoomTypeInfo, 0, len(roomTypes))
	for _, rt := range roomTypes {
		infos = append(infos, convertRoomTypeInfo(rt))
	}
	return infos, total, nil
}

// GetRoomType 获取房型详情（用户端，房型需为上架状态）
func (s *Service) GetRoomType(ctx context.Context, id int64) (*RoomTypeInfo, error) {
	rt, err := s.roomRepo.GetRoomTypeByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomTypeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if rt.Status != models.RoomTypeStatusActive {
		return nil, errors.ErrRoomTypeNotFound
	}
	return convertRoomTypeInfo(rt), nil
}

// ListAddons 获取上架附加服务列表（用户端）
func (s *Service) ListAddons(ctx context.Context) ([]*models.Addon, error) {
	addons, err := s.roomRepo.ListActiveAddons(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return addons, nil
}

// ---- 管理端 ----

// RoomTypeRequest 房型创建/更新请求
type RoomTypeRequest struct {
	Name           string            `json:"name" binding:"required,max=100"`
	Description    *string           `json:"description"`
	MainImageURL   *string           `json:"main_image_url"`
	GalleryImages  models.StringList `json:"gallery_images"`
	Amenities      models.StringList `json:"amenities"`
	Area           *float64          `json:"area"`
	BedType        string            `json:"bed_type" binding:"required,max=50"`
	Capacity       int               `json:"capacity" binding:"required,min=1"`
	PricePerNight  float64           `json:"price_per_night" binding:"required,gt=0"`
	PromotionPrice *float64          `json:"promotion_price"`
	Status         *int8             `json:"status"`
}

// validatePromotionPrice 校验促销价
// 促销价必须非负且严格低于基础价
func validatePromotionPrice(promotionPrice *float64, pricePerNight float64) error {
	if promotionPrice == nil {
		return nil
	}
	if *promotionPrice < 0 || *promotionPrice >= pricePerNight {
		return errors.ErrPromoPriceInvalid
	}
	return nil
}

// CreateRoomType 创建房型（管理端）
func (s *Service) CreateRoomType(ctx context.Context, req *RoomTypeRequest) (*models.RoomType, error) {
	if err := validatePromotionPrice(req.PromotionPrice, req.PricePerNight); err != nil {
		return nil, err
	}

	status := int8(models.RoomTypeStatusActive)
	if req.Status != nil {
		status = *req.Status
	}

	rt := &models.RoomType{
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		MainImageURL:   req.MainImageURL,
		GalleryImages:  req.GalleryImages,
		Amenities:      req.Amenities,
		Area:           req.Area,
		BedType:        req.BedType,
		Capacity:       req.Capacity,
		PricePerNight:  req.PricePerNight,
		PromotionPrice: req.PromotionPrice,
		Status:         status,
	}

	if err := s.roomRepo.CreateRoomType(ctx, rt); err != nil {
		if isDuplicateKeyError(err) {
			return nil, errors.ErrAlreadyExists.WithMessage("房型名称已存在")
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("房型已创建", logger.Int64("room_type_id", rt.ID), logger.String("name", rt.Name))
	return rt, nil
}

// UpdateRoomType 更新房型（管理端）
func (s *Service) UpdateRoomType(ctx context.Context, id int64, req *RoomTypeRequest) (*models.RoomType, error) {
	rt, err := s.roomRepo.GetRoomTypeByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomTypeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if err := validatePromotionPrice(req.PromotionPrice, req.PricePerNight); err != nil {
		return nil, err
	}

	rt.Name = strings.TrimSpace(req.Name)
	rt.Description = req.Description
	rt.MainImageURL = req.MainImageURL
	rt.GalleryImages = req.GalleryImages
	rt.Amenities = req.Amenities
	rt.Area = req.Area
	rt.BedType = req.BedType
	rt.Capacity = req.Capacity
	rt.PricePerNight = req.PricePerNight
	rt.PromotionPrice = req.PromotionPrice
	if req.Status != nil {
		rt.Status = *req.Status
	}

	if err := s.roomRepo.UpdateRoomType(ctx, rt); err != nil {
		if isDuplicateKeyError(err) {
			return nil, errors.ErrAlreadyExists.WithMessage("房型名称已存在")
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return rt, nil
}

// GetRoomTypeDetail 获取房型详情（管理端，包含房间列表）
func (s *Service) GetRoomTypeDetail(ctx context.Context, id int64) (*models.RoomType, error) {
	rt, err := s.roomRepo.GetRoomTypeByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomTypeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	rooms, err := s.roomRepo.ListRoomsByType(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	rt.Rooms = make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		rt.Rooms = append(rt.Rooms, *room)
	}
	return rt, nil
}

// ListAllRoomTypes 获取房型列表（管理端，含下架）
func (s *Service) ListAllRoomTypes(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.RoomType, int64, error) {
	if filters == nil {
		filters = map[string]interface{}{}
	}
	list, total, err := s.roomRepo.ListRoomTypes(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// DeleteRoomType 删除房型（管理端）
// 名下仍有房间的房型不可删除
func (s *Service) DeleteRoomType(ctx context.Context, id int64) error {
	if _, err := s.roomRepo.GetRoomTypeByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrRoomTypeNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	rooms, err := s.roomRepo.ListRoomsByType(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if len(rooms) > 0 {
		return errors.ErrRoomHasBookings.WithMessage("房型名下仍有房间，无法删除")
	}

	return s.roomRepo.DeleteRoomType(ctx, id)
}

// RoomRequest 房间创建/更新请求
type RoomRequest struct {
	RoomTypeID int64  `json:"room_type_id" binding:"required"`
	RoomNo     string `json:"room_no" binding:"required,max=20"`
	Floor      *int   `json:"floor"`
	Status     *int8  `json:"status"`
}

// CreateRoom 创建房间（管理端）
func (s *Service) CreateRoom(ctx context.Context, req *RoomRequest) (*models.Room, error) {
	if _, err := s.roomRepo.GetRoomTypeByID(ctx, req.RoomTypeID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomTypeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	status := int8(models.RoomStatusActive)
	if req.Status != nil {
		status = *req.Status
	}

	room := &models.Room{
		RoomTypeID: req.RoomTypeID,
		RoomNo:     strings.TrimSpace(req.RoomNo),
		Floor:      req.Floor,
		Status:     status,
	}

	if err := s.roomRepo.CreateRoom(ctx, room); err != nil {
		if isDuplicateKeyError(err) {
			return nil, errors.ErrRoomNoExists
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return room, nil
}

// UpdateRoomStatus 更新房间状态（管理端，停用/恢复）
func (s *Service) UpdateRoomStatus(ctx context.Context, id int64, status int8) (*models.Room, error) {
	room, err := s.roomRepo.GetRoomByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if err := s.roomRepo.UpdateRoomStatus(ctx, id, status); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	room.Status = status
	return room, nil
}

// DeleteRoom 删除房间（管理端）
// 存在未离店预订（pending/confirmed）的房间不可删除
func (s *Service) DeleteRoom(ctx context.Context, id int64) error {
	if _, err := s.roomRepo.GetRoomByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrRoomNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	// 用一个覆盖未来的区间探测占用中的预订
	farFuture := utils.Today().AddDate(10, 0, 0)
	count, err := s.bookingRepo.CountOverlapping(s.bookingRepo.DB().WithContext(ctx), id, utils.Today(), farFuture)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if count > 0 {
		return errors.ErrRoomHasBookings
	}

	return s.roomRepo.DeleteRoom(ctx, id)
}

// AddonRequest 附加服务创建/更新请求
type AddonRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description *string `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	PerNight    bool    `json:"per_night"`
	Status      *int8   `json:"status"`
}

// CreateAddon 创建附加服务（管理端）
func (s *Service) CreateAddon(ctx context.Context, req *AddonRequest) (*models.Addon, error) {
	status := int8(models.AddonStatusActive)
	if req.Status != nil {
		status = *req.Status
	}

	addon := &models.Addon{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		PerNight:    req.PerNight,
		Status:      status,
	}
	if err := s.roomRepo.CreateAddon(ctx, addon); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return addon, nil
}

// UpdateAddon 更新附加服务（管理端）
func (s *Service) UpdateAddon(ctx context.Context, id int64, req *AddonRequest) (*models.Addon, error) {
	addon, err := s.roomRepo.GetAddonByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrAddonNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	addon.Name = strings.TrimSpace(req.Name)
	addon.Description = req.Description
	addon.Price = req.Price
	addon.PerNight = req.PerNight
	if req.Status != nil {
		addon.Status = *req.Status
	}

	if err := s.roomRepo.UpdateAddon(ctx, addon); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return addon, nil
}

// DeleteAddon 删除附加服务（管理端）
// 历史预订中的明细为价格快照，不受删除影响
func (s *Service) DeleteAddon(ctx context.Context, id int64) error {
	if _, err := s.roomRepo.GetAddonByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrAddonNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return s.roomRepo.DeleteAddon(ctx, id)
}

// isDuplicateKeyError 判断是否为唯一约束冲突
func isDuplicateKeyError(err error) bool {
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}
