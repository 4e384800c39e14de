// Package errors 定义业务错误码和错误处理
package errors

import (
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Is 判断错误码是否相同
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrExternalService = New(1007, "外部服务错误")
	ErrRateLimitExceed = New(1008, "请求过于频繁")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrPermissionDenied = New(2003, "权限不足")
	ErrPasswordError    = New(2004, "邮箱或密码错误")
	ErrAccountDisabled  = New(2005, "账号已禁用")
)

// 用户错误码 (3000-3999)
var (
	ErrUserNotFound = New(3000, "用户不存在")
	ErrUserExists   = New(3001, "用户已存在")
	ErrEmailExists  = New(3002, "邮箱已被注册")
)

// 房型房间错误码 (4000-4999)
var (
	ErrRoomTypeNotFound    = New(4000, "房型不存在")
	ErrRoomNotFound        = New(4001, "房间不存在")
	ErrRoomDisabled        = New(4002, "房间已停用")
	ErrRoomHasBookings     = New(4003, "房间存在未完成的预订")
	ErrRoomNoExists        = New(4004, "房间号已存在")
	ErrPromoPriceInvalid   = New(4005, "促销价必须低于门市价")
	ErrCapacityExceeded    = New(4006, "入住人数超过房型容量")
	ErrAddonNotFound       = New(4007, "附加服务不存在")
)

// 预订错误码 (5000-5999)
var (
	ErrBookingNotFound      = New(5000, "预订不存在")
	ErrRoomUnavailable      = New(5001, "所选日期房间已被预订")
	ErrInvalidTransition    = New(5002, "预订状态不允许此操作")
	ErrInvalidDateRange     = New(5003, "入住退房日期无效")
	ErrGuestCountInvalid    = New(5004, "入住人数无效")
	ErrBookingNotCancelable = New(5005, "预订无法取消")
)

// 支付错误码 (6000-6999)
var (
	ErrPaymentNotFound          = New(6000, "支付记录不存在")
	ErrAmountMismatch           = New(6001, "支付金额与订单总额不符")
	ErrInvalidBookingState      = New(6002, "预订状态不允许支付")
	ErrPaymentProcessorError    = New(6003, "支付渠道暂时不可用")
	ErrDuplicatePayment         = New(6004, "预订已存在成功的支付")
	ErrInvalidPaymentTransition = New(6005, "支付状态不允许此操作")
	ErrRefundNotAllowed         = New(6006, "仅支付成功的订单可以退款")
	ErrPaymentMethodError       = New(6007, "支付方式错误")
	ErrIdempotencyConflict      = New(6008, "重复的支付请求")
)

// 优惠码错误码 (7000-7999)
var (
	ErrPromoCodeNotFound     = New(7000, "优惠码不存在")
	ErrPromoCodeExpired      = New(7001, "优惠码已过期")
	ErrPromoCodeLimitReached = New(7002, "优惠码已达使用上限")
	ErrPromoCodeDisabled     = New(7003, "优惠码未启用")
	ErrPromoCodeInvalid      = New(7004, "优惠码不可用")
	ErrPromoCodeExists       = New(7005, "优惠码已存在")
)

// 内容与客服错误码 (8000-8999)
var (
	ErrContentNotFound = New(8000, "内容不存在")
	ErrFAQNotFound     = New(8001, "常见问题不存在")
	ErrSessionNotFound = New(8002, "会话不存在")
)
