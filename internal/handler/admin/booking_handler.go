package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	"github.com/tatchunari/neatly-backend/internal/models"
	bookingService "github.com/tatchunari/neatly-backend/internal/service/booking"
)

// BookingHandler 预订管理处理器
type BookingHandler struct {
	bookingService *bookingService.Service
}

// NewBookingHandler 创建预订管理处理器
func NewBookingHandler(bookingSvc *bookingService.Service) *BookingHandler {
	return &BookingHandler{bookingService: bookingSvc}
}

// List 获取预订列表
// @Summary 获取预订列表
// @Tags 管理-预订
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param status query string false "预订状态" Enums(pending, confirmed, completed, cancelled)
// @Param booking_no query string false "预订号"
// @Param guest_name query string false "入住人姓名关键字"
// @Param room_type_id query int false "房型 ID"
// @Param start_date query string false "入住日期起 YYYY-MM-DD"
// @Param end_date query string false "入住日期止 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	page := handler.BindPagination(c)

	filters := map[string]interface{}{}
	if status := c.Query("status"); status != "" {
		filters["status"] = models.BookingStatus(status)
	}
	if bookingNo := c.Query("booking_no"); bookingNo != "" {
		filters["booking_no"] = bookingNo
	}
	if guestName := c.Query("guest_name"); guestName != "" {
		filters["guest_name"] = guestName
	}
	roomTypeID, ok := handler.ParseQueryID(c, "room_type_id", "房型")
	if !ok {
		return
	}
	if roomTypeID != nil {
		filters["room_type_id"] = *roomTypeID
	}
	checkInFrom, checkInTo, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}
	if checkInFrom != nil {
		filters["check_in_from"] = *checkInFrom
	}
	if checkInTo != nil {
		filters["check_in_to"] = *checkInTo
	}

	list, total, err := h.bookingService.ListBookings(c.Request.Context(), page.GetOffset(), page.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, page.Page, page.PageSize)
}

// Get 获取预订详情
// @Summary 获取预订详情
// @Tags 管理-预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订 ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /admin/bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), 0, id)
	handler.MustSucceed(c, err, booking)
}

// Confirm 确认预订
// @Summary 确认预订（待支付转已确认，线下收款等场景）
// @Tags 管理-预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订 ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /admin/bookings/{id}/confirm [post]
func (h *BookingHandler) Confirm(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.Confirm(c.Request.Context(), id)
	handler.MustSucceed(c, err, booking)
}

// Complete 完成预订
// @Summary 完成预订（离店结单）
// @Tags 管理-预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订 ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /admin/bookings/{id}/complete [post]
func (h *BookingHandler) Complete(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.Complete(c.Request.Context(), id)
	handler.MustSucceed(c, err, booking)
}

// CancelRequest 管理端取消预订请求
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// Cancel 取消预订
// @Summary 取消预订（不校验归属，需填写原因）
// @Tags 管理-预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订 ID"
// @Param request body CancelRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /admin/bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	booking, err := h.bookingService.Cancel(c.Request.Context(), 0, id, req.Reason)
	handler.MustSucceed(c, err, booking)
}

// RegisterRoutes 注册路由
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.GET("", h.List)
		bookings.GET("/:id", h.Get)
		bookings.POST("/:id/confirm", h.Confirm)
		bookings.POST("/:id/complete", h.Complete)
		bookings.POST("/:id/cancel", h.Cancel)
	}
}
