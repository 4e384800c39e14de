package models

import (
	"time"
)

// DiscountType 折扣类型
type DiscountType string

// 折扣类型枚举（二选一，互斥）
const (
	DiscountTypePercent DiscountType = "percent" // 按基础房费百分比
	DiscountTypeFixed   DiscountType = "fixed"   // 固定金额
)

// Valid 判断折扣类型是否合法
func (t DiscountType) Valid() bool {
	return t == DiscountTypePercent || t == DiscountTypeFixed
}

// PromoCode 优惠码模型
type PromoCode struct {
	ID           int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Code         string       `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	Description  *string      `gorm:"type:varchar(255)" json:"description,omitempty"`
	DiscountType DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`
	// percent 类型时取值 (0,100]，fixed 类型时为货币金额
	DiscountValue float64    `gorm:"type:decimal(10,2);not null" json:"discount_value"`
	MinAmount     float64    `gorm:"type:decimal(10,2);not null;default:0" json:"min_amount"`
	StartAt       time.Time  `gorm:"not null" json:"start_at"`
	EndAt         time.Time  `gorm:"not null" json:"end_at"`
	UsageLimit    int        `gorm:"not null;default:0" json:"usage_limit"` // 0 表示不限次数
	UsedCount     int        `gorm:"not null;default:0" json:"used_count"`
	Enabled       bool       `gorm:"not null" json:"enabled"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     *time.Time `gorm:"index" json:"-"`
}

// TableName 表名
func (PromoCode) TableName() string {
	return "promo_codes"
}

// IsWithinWindow 判断给定时间是否在有效期内（闭区间）
func (p *PromoCode) IsWithinWindow(now time.Time) bool {
	return !now.Before(p.StartAt) && !now.After(p.EndAt)
}

// IsExhausted 判断使用次数是否已耗尽
func (p *PromoCode) IsExhausted() bool {
	return p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit
}

// DiscountFor 计算对基础金额生效的折扣金额（未截断、未舍入）
func (p *PromoCode) DiscountFor(baseAmount float64) float64 {
	switch p.DiscountType {
	case DiscountTypePercent:
		return baseAmount * p.DiscountValue / 100
	case DiscountTypeFixed:
		return p.DiscountValue
	}
	return 0
}
