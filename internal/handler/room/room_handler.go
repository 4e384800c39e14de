// Package room 提供房型浏览、空房查询与报价的 HTTP Handler
package room

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	bookingService "github.com/tatchunari/neatly-backend/internal/service/booking"
	catalogService "github.com/tatchunari/neatly-backend/internal/service/catalog"
)

// Handler 房型处理器
type Handler struct {
	catalogService *catalogService.Service
	bookingService *bookingService.Service
}

// NewHandler 创建房型处理器
func NewHandler(catalogSvc *catalogService.Service, bookingSvc *bookingService.Service) *Handler {
	return &Handler{
		catalogService: catalogSvc,
		bookingService: bookingSvc,
	}
}

// ListRoomTypes 获取房型列表
// @Summary 获取房型列表
// @Tags 房型
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param keyword query string false "房型名称关键字"
// @Param capacity query int false "最少可住人数"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /rooms/types [get]
func (h *Handler) ListRoomTypes(c *gin.Context) {
	page := handler.BindPagination(c)

	filters := map[string]interface{}{}
	if keyword := c.Query("keyword"); keyword != "" {
		filters["name"] = keyword
	}
	if capacity, err := strconv.Atoi(c.Query("capacity")); err == nil && capacity > 0 {
		filters["capacity"] = capacity
	}

	list, total, err := h.catalogService.ListRoomTypes(c.Request.Context(), page.GetOffset(), page.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, page.Page, page.PageSize)
}

// GetRoomType 获取房型详情
// @Summary 获取房型详情
// @Tags 房型
// @Produce json
// @Param id path int true "房型 ID"
// @Success 200 {object} response.Response{data=catalogService.RoomTypeInfo}
// @Router /rooms/types/{id} [get]
func (h *Handler) GetRoomType(c *gin.Context) {
	id, ok := handler.ParseID(c, "房型")
	if !ok {
		return
	}

	info, err := h.catalogService.GetRoomType(c.Request.Context(), id)
	handler.MustSucceed(c, err, info)
}

// ListAddons 获取附加服务列表
// @Summary 获取附加服务列表
// @Tags 房型
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Addon}
// @Router /rooms/addons [get]
func (h *Handler) ListAddons(c *gin.Context) {
	addons, err := h.catalogService.ListAddons(c.Request.Context())
	handler.MustSucceed(c, err, addons)
}

// CheckAvailability 查询空房
// @Summary 查询指定房型在日期区间内的空房情况
// @Tags 房型
// @Produce json
// @Param room_type_id query int true "房型 ID"
// @Param check_in query string true "入住日期 YYYY-MM-DD"
// @Param check_out query string true "退房日期 YYYY-MM-DD"
// @Param guest_count query int false "入住人数" default(1)
// @Success 200 {object} response.Response{data=bookingService.AvailabilityResult}
// @Router /rooms/availability [get]
func (h *Handler) CheckAvailability(c *gin.Context) {
	roomTypeID, ok := handler.ParseRequiredQueryID(c, "room_type_id", "房型")
	if !ok {
		return
	}
	checkIn, checkOut, ok := handler.ParseRequiredStayDates(c)
	if !ok {
		return
	}
	guestCount, err := strconv.Atoi(c.DefaultQuery("guest_count", "1"))
	if err != nil || guestCount < 1 {
		response.BadRequest(c, "入住人数无效")
		return
	}

	result, err := h.bookingService.CheckAvailability(c.Request.Context(), roomTypeID, checkIn, checkOut, guestCount)
	handler.MustSucceed(c, err, result)
}

// Quote 计算报价
// @Summary 计算住宿报价（含附加服务与优惠码）
// @Tags 房型
// @Accept json
// @Produce json
// @Param request body bookingService.QuoteRequest true "请求参数"
// @Success 200 {object} response.Response{data=bookingService.Quote}
// @Router /rooms/quote [post]
func (h *Handler) Quote(c *gin.Context) {
	var req bookingService.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	quote, err := h.bookingService.ComputeQuote(c.Request.Context(), &req)
	handler.MustSucceed(c, err, quote)
}

// RegisterRoutes 注册公开路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	rooms := r.Group("/rooms")
	{
		rooms.GET("/types", h.ListRoomTypes)
		rooms.GET("/types/:id", h.GetRoomType)
		rooms.GET("/addons", h.ListAddons)
		rooms.GET("/availability", h.CheckAvailability)
		rooms.POST("/quote", h.Quote)
	}
}
