package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusTransitions(t *testing.T) {
	t.Run("正常路径", func(t *testing.T) {
		assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusConfirmed))
		assert.True(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusCompleted))
	})

	t.Run("取消路径", func(t *testing.T) {
		assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusCancelled))
		assert.True(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusCancelled))
	})

	t.Run("非法转移全部拒绝", func(t *testing.T) {
		assert.False(t, BookingStatusPending.CanTransitionTo(BookingStatusCompleted))
		assert.False(t, BookingStatusCompleted.CanTransitionTo(BookingStatusPending))
		assert.False(t, BookingStatusCompleted.CanTransitionTo(BookingStatusCancelled))
		assert.False(t, BookingStatusCancelled.CanTransitionTo(BookingStatusPending))
		assert.False(t, BookingStatusCancelled.CanTransitionTo(BookingStatusConfirmed))
		assert.False(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusPending))
	})

	t.Run("终态判断", func(t *testing.T) {
		assert.False(t, BookingStatusPending.IsTerminal())
		assert.False(t, BookingStatusConfirmed.IsTerminal())
		assert.True(t, BookingStatusCompleted.IsTerminal())
		assert.True(t, BookingStatusCancelled.IsTerminal())
	})

	t.Run("占用库存的状态", func(t *testing.T) {
		assert.True(t, BookingStatusPending.BlocksAvailability())
		assert.True(t, BookingStatusConfirmed.BlocksAvailability())
		assert.False(t, BookingStatusCompleted.BlocksAvailability())
		assert.False(t, BookingStatusCancelled.BlocksAvailability())
	})

	t.Run("非法状态值", func(t *testing.T) {
		assert.False(t, BookingStatus("unknown").Valid())
		assert.False(t, BookingStatus("unknown").IsTerminal())
	})
}

func TestPaymentStatusTransitions(t *testing.T) {
	t.Run("成功与失败", func(t *testing.T) {
		assert.True(t, PaymentStatusPending.CanTransitionTo(PaymentStatusCompleted))
		assert.True(t, PaymentStatusPending.CanTransitionTo(PaymentStatusFailed))
	})

	t.Run("退款仅限已完成", func(t *testing.T) {
		assert.True(t, PaymentStatusCompleted.CanTransitionTo(PaymentStatusRefunded))
		assert.False(t, PaymentStatusPending.CanTransitionTo(PaymentStatusRefunded))
		assert.False(t, PaymentStatusFailed.CanTransitionTo(PaymentStatusRefunded))
	})

	t.Run("失败单不可复活", func(t *testing.T) {
		assert.False(t, PaymentStatusFailed.CanTransitionTo(PaymentStatusPending))
		assert.False(t, PaymentStatusFailed.CanTransitionTo(PaymentStatusCompleted))
	})

	t.Run("终态判断", func(t *testing.T) {
		assert.True(t, PaymentStatusFailed.IsTerminal())
		assert.True(t, PaymentStatusRefunded.IsTerminal())
		assert.False(t, PaymentStatusPending.IsTerminal())
	})
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, ValidPaymentMethod(PaymentMethodCreditCard))
	assert.True(t, ValidPaymentMethod(PaymentMethodCash))
	assert.True(t, ValidPaymentMethod(PaymentMethodBankTransfer))
	assert.True(t, ValidPaymentMethod(PaymentMethodPromptPay))
	assert.False(t, ValidPaymentMethod("alipay"))
	assert.False(t, ValidPaymentMethod(""))
}

func TestRoomTypeEffectivePrice(t *testing.T) {
	promo := 899.0
	invalid := 2000.0

	t.Run("无促销价取基础价", func(t *testing.T) {
		rt := &RoomType{PricePerNight: 1200}
		assert.Equal(t, 1200.0, rt.EffectivePricePerNight())
		assert.False(t, rt.HasPromotion())
	})

	t.Run("有促销价取促销价", func(t *testing.T) {
		rt := &RoomType{PricePerNight: 1200, PromotionPrice: &promo}
		assert.Equal(t, 899.0, rt.EffectivePricePerNight())
		assert.True(t, rt.HasPromotion())
	})

	t.Run("促销价高于基础价时忽略", func(t *testing.T) {
		rt := &RoomType{PricePerNight: 1200, PromotionPrice: &invalid}
		assert.Equal(t, 1200.0, rt.EffectivePricePerNight())
		assert.False(t, rt.HasPromotion())
	})
}

func TestPromoCodeHelpers(t *testing.T) {
	now := time.Now()

	t.Run("有效期闭区间", func(t *testing.T) {
		p := &PromoCode{StartAt: now.Add(-time.Hour), EndAt: now.Add(time.Hour)}
		assert.True(t, p.IsWithinWindow(now))
		assert.True(t, p.IsWithinWindow(p.StartAt))
		assert.True(t, p.IsWithinWindow(p.EndAt))
		assert.False(t, p.IsWithinWindow(p.EndAt.Add(time.Second)))
		assert.False(t, p.IsWithinWindow(p.StartAt.Add(-time.Second)))
	})

	t.Run("次数限制", func(t *testing.T) {
		p := &PromoCode{UsageLimit: 2, UsedCount: 1}
		assert.False(t, p.IsExhausted())
		p.UsedCount = 2
		assert.True(t, p.IsExhausted())
	})

	t.Run("不限次数", func(t *testing.T) {
		p := &PromoCode{UsageLimit: 0, UsedCount: 99999}
		assert.False(t, p.IsExhausted())
	})

	t.Run("折扣计算", func(t *testing.T) {
		percent := &PromoCode{DiscountType: DiscountTypePercent, DiscountValue: 10}
		assert.InDelta(t, 120.0, percent.DiscountFor(1200), 1e-9)

		fixed := &PromoCode{DiscountType: DiscountTypeFixed, DiscountValue: 300}
		assert.InDelta(t, 300.0, fixed.DiscountFor(1200), 1e-9)
	})
}
