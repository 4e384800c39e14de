package models

import (
	"time"
)

// PaymentStatus 支付状态
type PaymentStatus string

// 支付状态枚举
const (
	PaymentStatusPending   PaymentStatus = "pending"   // 处理中
	PaymentStatusCompleted PaymentStatus = "completed" // 已完成
	PaymentStatusFailed    PaymentStatus = "failed"    // 已失败
	PaymentStatusRefunded  PaymentStatus = "refunded"  // 已退款
)

// paymentTransitions 支付状态转移表
// failed 为终态；同一预订重试支付应创建新的支付单而不是复活失败单
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted: {PaymentStatusRefunded},
	PaymentStatusFailed:    {},
	PaymentStatusRefunded:  {},
}

// Valid 判断状态值是否合法
func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// IsTerminal 判断是否为终态
func (s PaymentStatus) IsTerminal() bool {
	return len(paymentTransitions[s]) == 0 && s.Valid()
}

// CanTransitionTo 判断能否转移到目标状态
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, next := range paymentTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// PaymentMethod 支付方式
const (
	PaymentMethodCreditCard   = "credit_card"   // 信用卡
	PaymentMethodCash         = "cash"          // 到店现金
	PaymentMethodBankTransfer = "bank_transfer" // 银行转账
	PaymentMethodPromptPay    = "promptpay"     // PromptPay 扫码
)

// ValidPaymentMethod 判断支付方式是否受支持
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCreditCard, PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodPromptPay:
		return true
	}
	return false
}

// Payment 支付单模型
type Payment struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentNo     string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"payment_no"`
	BookingID     int64         `gorm:"index;not null" json:"booking_id"`
	UserID        int64         `gorm:"index;not null" json:"user_id"`
	Amount        float64       `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method        string        `gorm:"type:varchar(20);not null" json:"method"`
	Status        PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TransactionID *string       `gorm:"type:varchar(128)" json:"transaction_id,omitempty"`
	CardLast4     *string       `gorm:"type:varchar(4)" json:"card_last4,omitempty"`
	QRPayload     *string       `gorm:"type:text" json:"qr_payload,omitempty"`
	FailReason    *string       `gorm:"type:varchar(255)" json:"fail_reason,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	RefundedAt    *time.Time    `json:"refunded_at,omitempty"`
	RefundNo      *string       `gorm:"type:varchar(64)" json:"refund_no,omitempty"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Booking *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (Payment) TableName() string {
	return "payments"
}

// CanRefund 判断支付单当前能否退款
func (p *Payment) CanRefund() bool {
	return p.Status.CanTransitionTo(PaymentStatusRefunded)
}
