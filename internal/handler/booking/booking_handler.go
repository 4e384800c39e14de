// Package booking 提供预订相关的 HTTP Handler
package booking

import (
	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	"github.com/tatchunari/neatly-backend/internal/models"
	bookingService "github.com/tatchunari/neatly-backend/internal/service/booking"
)

// Handler 预订处理器
type Handler struct {
	bookingService *bookingService.Service
}

// NewHandler 创建预订处理器
func NewHandler(bookingSvc *bookingService.Service) *Handler {
	return &Handler{bookingService: bookingSvc}
}

// Create 创建预订
// @Summary 创建预订
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body bookingService.CreateBookingRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /bookings [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req bookingService.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), userID, &req)
	handler.MustSucceedWithMessage(c, err, "预订创建成功，请在有效期内完成支付", booking)
}

// List 获取我的预订列表
// @Summary 获取我的预订列表
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param status query string false "预订状态" Enums(pending, confirmed, completed, cancelled)
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /bookings [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	page := handler.BindPagination(c)
	status := models.BookingStatus(c.Query("status"))

	list, total, err := h.bookingService.ListUserBookings(c.Request.Context(), userID, page.GetOffset(), page.GetLimit(), status)
	handler.MustSucceedPage(c, err, list, total, page.Page, page.PageSize)
}

// Get 获取预订详情
// @Summary 获取预订详情
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订 ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /bookings/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	userID, bookingID, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), userID, bookingID)
	handler.MustSucceed(c, err, booking)
}

// GetByNo 按预订号查询
// @Summary 按预订号查询预订
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param booking_no path string true "预订号"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /bookings/no/{booking_no} [get]
func (h *Handler) GetByNo(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	bookingNo := c.Param("booking_no")
	if bookingNo == "" {
		response.BadRequest(c, "预订号不能为空")
		return
	}

	booking, err := h.bookingService.GetByBookingNo(c.Request.Context(), userID, bookingNo)
	handler.MustSucceed(c, err, booking)
}

// CancelRequest 取消预订请求
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// Cancel 取消预订
// @Summary 取消预订
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订 ID"
// @Param request body CancelRequest false "请求参数"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /bookings/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	userID, bookingID, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}

	// 取消原因可选，允许空请求体
	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "参数错误")
			return
		}
	}

	booking, err := h.bookingService.Cancel(c.Request.Context(), userID, bookingID, req.Reason)
	handler.MustSucceedWithMessage(c, err, "预订已取消", booking)
}

// ApplyPromoRequest 应用优惠码请求
type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required,max=32"`
}

// ApplyPromo 对待支付预订应用/更换优惠码
// @Summary 对待支付预订应用优惠码
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订 ID"
// @Param request body ApplyPromoRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /bookings/{id}/promo [post]
func (h *Handler) ApplyPromo(c *gin.Context) {
	userID, bookingID, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}

	var req ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	booking, err := h.bookingService.ApplyPromoCode(c.Request.Context(), userID, bookingID, req.Code)
	handler.MustSucceed(c, err, booking)
}

// RegisterRoutes 注册需要登录的路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.Create)
		bookings.GET("", h.List)
		bookings.GET("/:id", h.Get)
		bookings.GET("/no/:booking_no", h.GetByNo)
		bookings.POST("/:id/cancel", h.Cancel)
		bookings.POST("/:id/promo", h.ApplyPromo)
	}
}
