package models

import (
	"time"
)

// ContentBlock 页面内容块模型（hero、服务亮点等营销区块）
type ContentBlock struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BlockKey  string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"block_key"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	Subtitle  *string   `gorm:"type:varchar(500)" json:"subtitle,omitempty"`
	Body      *string   `gorm:"type:text" json:"body,omitempty"`
	ImageURL  *string   `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	Extra     JSON      `gorm:"type:jsonb" json:"extra,omitempty"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	Status    int8      `gorm:"type:smallint;not null" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (ContentBlock) TableName() string {
	return "content_blocks"
}

// ContentBlockKey 预定义内容块键
const (
	BlockKeyHero         = "hero"          // 首页主视觉
	BlockKeyServices     = "services"      // 服务亮点
	BlockKeyAbout        = "about"         // 关于酒店
	BlockKeyTestimonials = "testimonials"  // 住客评价区块
)

// ContentStatus 内容状态
const (
	ContentStatusHidden    = 0 // 隐藏
	ContentStatusPublished = 1 // 已发布
)

// Testimonial 住客评价模型
type Testimonial struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GuestName  string    `gorm:"type:varchar(100);not null" json:"guest_name"`
	AvatarURL  *string   `gorm:"type:varchar(255)" json:"avatar_url,omitempty"`
	Rating     int       `gorm:"not null;default:5" json:"rating"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	SortOrder  int       `gorm:"not null;default:0" json:"sort_order"`
	Status     int8      `gorm:"type:smallint;not null" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Testimonial) TableName() string {
	return "testimonials"
}

// FAQ 常见问题模型
// 同时作为客服机器人的知识库来源
type FAQ struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Question  string     `gorm:"type:varchar(500);not null" json:"question"`
	Answer    string     `gorm:"type:text;not null" json:"answer"`
	Category  string     `gorm:"type:varchar(50);not null;default:'general';index" json:"category"`
	Keywords  StringList `gorm:"type:jsonb" json:"keywords,omitempty"`
	SortOrder int        `gorm:"not null;default:0" json:"sort_order"`
	Status    int8       `gorm:"type:smallint;not null" json:"status"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (FAQ) TableName() string {
	return "faqs"
}

// FAQCategory 常见问题分类
const (
	FAQCategoryGeneral  = "general"  // 通用
	FAQCategoryBooking  = "booking"  // 预订
	FAQCategoryPayment  = "payment"  // 支付
	FAQCategoryFacility = "facility" // 设施
	FAQCategoryPolicy   = "policy"   // 政策
)
