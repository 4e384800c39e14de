// Package payment 提供支付相关的 HTTP Handler
package payment

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	paymentService "github.com/tatchunari/neatly-backend/internal/service/payment"
)

// Handler 支付处理器
type Handler struct {
	paymentService *paymentService.Service
}

// NewHandler 创建支付处理器
func NewHandler(paymentSvc *paymentService.Service) *Handler {
	return &Handler{paymentService: paymentSvc}
}

// Create 创建支付单
// @Summary 创建支付单
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param X-Idempotency-Key header string false "幂等键，重复请求返回首次创建的支付单"
// @Param request body paymentService.CreatePaymentRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /payments [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req paymentService.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	req.IdempotencyKey = c.GetHeader("X-Idempotency-Key")

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, payment)
}

// Process 执行扣款
// @Summary 执行扣款
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "支付单 ID"
// @Param request body paymentService.ProcessPaymentRequest false "请求参数"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /payments/{id}/process [post]
func (h *Handler) Process(c *gin.Context) {
	userID, paymentID, ok := handler.RequireUserAndParseID(c, "支付单")
	if !ok {
		return
	}

	var req paymentService.ProcessPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "参数错误")
			return
		}
	}

	payment, err := h.paymentService.ProcessPayment(c.Request.Context(), userID, paymentID, &req)
	handler.MustSucceed(c, err, payment)
}

// Get 获取支付单详情
// @Summary 获取支付单详情
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param id path int true "支付单 ID"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /payments/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	userID, paymentID, ok := handler.RequireUserAndParseID(c, "支付单")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), userID, paymentID)
	handler.MustSucceed(c, err, payment)
}

// GetQRCode 获取 PromptPay 付款二维码
// @Summary 获取 PromptPay 付款二维码（PNG 图片）
// @Tags 支付
// @Produce png
// @Security Bearer
// @Param id path int true "支付单 ID"
// @Param size query int false "图片边长（像素）" default(256)
// @Success 200 {file} binary
// @Router /payments/{id}/qrcode [get]
func (h *Handler) GetQRCode(c *gin.Context) {
	userID, paymentID, ok := handler.RequireUserAndParseID(c, "支付单")
	if !ok {
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "256"))
	if err != nil || size < 64 || size > 1024 {
		response.BadRequest(c, "图片尺寸无效")
		return
	}

	png, err := h.paymentService.GetQRCode(c.Request.Context(), userID, paymentID, size)
	if handler.HandleError(c, err) {
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// ListByBooking 获取预订的支付记录
// @Summary 获取预订的支付记录
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param booking_id path int true "预订 ID"
// @Success 200 {object} response.Response{data=[]models.Payment}
// @Router /payments/booking/{booking_id} [get]
func (h *Handler) ListByBooking(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	bookingID, ok := handler.ParseParamID(c, "booking_id", "预订")
	if !ok {
		return
	}

	payments, err := h.paymentService.ListBookingPayments(c.Request.Context(), userID, bookingID)
	handler.MustSucceed(c, err, payments)
}

// RegisterRoutes 注册需要登录的路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("", h.Create)
		payments.GET("/:id", h.Get)
		payments.POST("/:id/process", h.Process)
		payments.GET("/:id/qrcode", h.GetQRCode)
		payments.GET("/booking/:booking_id", h.ListByBooking)
	}
}
