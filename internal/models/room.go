package models

import (
	"time"
)

// RoomType 房型模型
// 房型承载定价与展示信息，具体可入住的物理房间见 Room
type RoomType struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description    *string    `gorm:"type:text" json:"description,omitempty"`
	MainImageURL   *string    `gorm:"type:varchar(255)" json:"main_image_url,omitempty"`
	GalleryImages  StringList `gorm:"type:jsonb" json:"gallery_images,omitempty"`
	Amenities      StringList `gorm:"type:jsonb" json:"amenities,omitempty"`
	Area           *float64   `gorm:"type:decimal(6,2)" json:"area,omitempty"`
	BedType        string     `gorm:"type:varchar(50);not null" json:"bed_type"`
	Capacity       int        `gorm:"not null;default:2" json:"capacity"`
	PricePerNight  float64    `gorm:"type:decimal(10,2);not null" json:"price_per_night"`
	PromotionPrice *float64   `gorm:"type:decimal(10,2)" json:"promotion_price,omitempty"`
	Status         int8       `gorm:"type:smallint;not null" json:"status"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Rooms []Room `gorm:"foreignKey:RoomTypeID" json:"rooms,omitempty"`
}

// TableName 表名
func (RoomType) TableName() string {
	return "room_types"
}

// RoomTypeStatus 房型状态
const (
	RoomTypeStatusDisabled = 0 // 下架
	RoomTypeStatusActive   = 1 // 正常
)

// EffectivePricePerNight 每晚生效价格
// 设置了有效促销价时采用促销价，否则采用基础价
func (rt *RoomType) EffectivePricePerNight() float64 {
	if rt.PromotionPrice != nil && *rt.PromotionPrice >= 0 && *rt.PromotionPrice < rt.PricePerNight {
		return *rt.PromotionPrice
	}
	return rt.PricePerNight
}

// HasPromotion 是否有生效的促销价
func (rt *RoomType) HasPromotion() bool {
	return rt.PromotionPrice != nil && *rt.PromotionPrice >= 0 && *rt.PromotionPrice < rt.PricePerNight
}

// Room 物理房间模型
type Room struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomTypeID int64     `gorm:"index;not null" json:"room_type_id"`
	RoomNo     string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"room_no"`
	Floor      *int      `json:"floor,omitempty"`
	Status     int8      `gorm:"type:smallint;not null" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	RoomType *RoomType `gorm:"foreignKey:RoomTypeID" json:"room_type,omitempty"`
}

// TableName 表名
func (Room) TableName() string {
	return "rooms"
}

// RoomStatus 房间状态
const (
	RoomStatusOutOfService = 0 // 停用（维修等）
	RoomStatusActive       = 1 // 可售
)

// Addon 附加服务模型（加床、接机、早餐等）
type Addon struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description *string   `gorm:"type:varchar(255)" json:"description,omitempty"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	PerNight    bool      `gorm:"not null;default:false" json:"per_night"`
	Status      int8      `gorm:"type:smallint;not null" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Addon) TableName() string {
	return "addons"
}

// AddonStatus 附加服务状态
const (
	AddonStatusDisabled = 0 // 下架
	AddonStatusActive   = 1 // 正常
)
