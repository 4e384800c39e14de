package models

import (
	"time"
)

// BookingStatus 预订状态
type BookingStatus string

// 预订状态枚举
const (
	BookingStatusPending   BookingStatus = "pending"   // 待支付
	BookingStatusConfirmed BookingStatus = "confirmed" // 已确认
	BookingStatusCompleted BookingStatus = "completed" // 已完成（已离店）
	BookingStatusCancelled BookingStatus = "cancelled" // 已取消
)

// bookingTransitions 预订状态转移表
// pending → confirmed → completed 为正常路径
// pending/confirmed 可取消，终态不可再转移
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

// Valid 判断状态值是否合法
func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// IsTerminal 判断是否为终态
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0 && s.Valid()
}

// CanTransitionTo 判断能否转移到目标状态
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// BlocksAvailability 该状态是否占用房间库存
// 仅 pending 和 confirmed 的预订会阻塞重叠日期的新预订
func (s BookingStatus) BlocksAvailability() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// Booking 预订模型
type Booking struct {
	ID             int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingNo      string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"booking_no"`
	UserID         int64         `gorm:"index;not null" json:"user_id"`
	RoomID         int64         `gorm:"index;not null" json:"room_id"`
	RoomTypeID     int64         `gorm:"index;not null" json:"room_type_id"`
	CheckInDate    time.Time     `gorm:"type:date;not null" json:"check_in_date"`
	CheckOutDate   time.Time     `gorm:"type:date;not null" json:"check_out_date"`
	Nights         int           `gorm:"not null" json:"nights"`
	GuestCount     int           `gorm:"not null;default:1" json:"guest_count"`
	GuestName      string        `gorm:"type:varchar(100);not null" json:"guest_name"`
	GuestEmail     string        `gorm:"type:varchar(100);not null" json:"guest_email"`
	GuestPhone     *string       `gorm:"type:varchar(20)" json:"guest_phone,omitempty"`
	SpecialRequest *string       `gorm:"type:varchar(500)" json:"special_request,omitempty"`
	RoomAmount     float64       `gorm:"type:decimal(10,2);not null" json:"room_amount"`
	AddonAmount    float64       `gorm:"type:decimal(10,2);not null;default:0" json:"addon_amount"`
	DiscountAmount float64       `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	TotalAmount    float64       `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	PromoCode      *string       `gorm:"type:varchar(32);index" json:"promo_code,omitempty"`
	Status         BookingStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ConfirmedAt    *time.Time    `json:"confirmed_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty"`
	CancelReason   *string       `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User     *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Room     *Room          `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	RoomType *RoomType      `gorm:"foreignKey:RoomTypeID" json:"room_type,omitempty"`
	Addons   []BookingAddon `gorm:"foreignKey:BookingID" json:"addons,omitempty"`
	Payments []Payment      `gorm:"foreignKey:BookingID" json:"payments,omitempty"`
}

// TableName 表名
func (Booking) TableName() string {
	return "bookings"
}

// CanCancel 判断预订当前能否取消
func (b *Booking) CanCancel() bool {
	return b.Status.CanTransitionTo(BookingStatusCancelled)
}

// BookingAddon 预订附加服务明细
// 价格在下单时快照，后续附加服务调价不影响已生成的预订
type BookingAddon struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID int64     `gorm:"index;not null" json:"booking_id"`
	AddonID   int64     `gorm:"not null" json:"addon_id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	UnitPrice float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	Amount    float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Addon *Addon `gorm:"foreignKey:AddonID" json:"addon,omitempty"`
}

// TableName 表名
func (BookingAddon) TableName() string {
	return "booking_addons"
}
