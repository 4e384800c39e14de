package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	catalogService "github.com/tatchunari/neatly-backend/internal/service/catalog"
)

// RoomHandler 房型与房间管理处理器
type RoomHandler struct {
	catalogService *catalogService.Service
}

// NewRoomHandler 创建房型管理处理器
func NewRoomHandler(catalogSvc *catalogService.Service) *RoomHandler {
	return &RoomHandler{catalogService: catalogSvc}
}

// ==================== 房型 ====================

// ListRoomTypes 获取房型列表（含下架）
// @Summary 获取房型列表（含下架）
// @Tags 管理-房型
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param keyword query string false "房型名称关键字"
// @Param status query int false "状态（0 下架 1 正常）"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/room-types [get]
func (h *RoomHandler) ListRoomTypes(c *gin.Context) {
	page := handler.BindPagination(c)

	filters := map[string]interface{}{}
	if keyword := c.Query("keyword"); keyword != "" {
		filters["name"] = keyword
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status, err := strconv.Atoi(statusStr)
		if err != nil {
			response.BadRequest(c, "状态无效")
			return
		}
		filters["status"] = int8(status)
	}

	list, total, err := h.catalogService.ListAllRoomTypes(c.Request.Context(), page.GetOffset(), page.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, page.Page, page.PageSize)
}

// GetRoomType 获取房型详情（含房间列表）
// @Summary 获取房型详情（含房间列表）
// @Tags 管理-房型
// @Produce json
// @Security Bearer
// @Param id path int true "房型 ID"
// @Success 200 {object} response.Response{data=models.RoomType}
// @Router /admin/room-types/{id} [get]
func (h *RoomHandler) GetRoomType(c *gin.Context) {
	id, ok := handler.ParseID(c, "房型")
	if !ok {
		return
	}

	roomType, err := h.catalogService.GetRoomTypeDetail(c.Request.Context(), id)
	handler.MustSucceed(c, err, roomType)
}

// CreateRoomType 创建房型
// @Summary 创建房型
// @Tags 管理-房型
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body catalogService.RoomTypeRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.RoomType}
// @Router /admin/room-types [post]
func (h *RoomHandler) CreateRoomType(c *gin.Context) {
	var req catalogService.RoomTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	roomType, err := h.catalogService.CreateRoomType(c.Request.Context(), &req)
	handler.MustSucceed(c, err, roomType)
}

// UpdateRoomType 更新房型
// @Summary 更新房型
// @Tags 管理-房型
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房型 ID"
// @Param request body catalogService.RoomTypeRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.RoomType}
// @Router /admin/room-types/{id} [put]
func (h *RoomHandler) UpdateRoomType(c *gin.Context) {
	id, ok := handler.ParseID(c, "房型")
	if !ok {
		return
	}

	var req catalogService.RoomTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	roomType, err := h.catalogService.UpdateRoomType(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, roomType)
}

// DeleteRoomType 删除房型
// @Summary 删除房型（仍有房间时拒绝）
// @Tags 管理-房型
// @Produce json
// @Security Bearer
// @Param id path int true "房型 ID"
// @Success 200 {object} response.Response
// @Router /admin/room-types/{id} [delete]
func (h *RoomHandler) DeleteRoomType(c *gin.Context) {
	id, ok := handler.ParseID(c, "房型")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.catalogService.DeleteRoomType(c.Request.Context(), id), nil)
}

// ==================== 房间 ====================

// CreateRoom 创建房间
// @Summary 创建房间
// @Tags 管理-房间
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body catalogService.RoomRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Room}
// @Router /admin/rooms [post]
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req catalogService.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	room, err := h.catalogService.CreateRoom(c.Request.Context(), &req)
	handler.MustSucceed(c, err, room)
}

// UpdateRoomStatusRequest 更新房间状态请求
type UpdateRoomStatusRequest struct {
	Status *int8 `json:"status" binding:"required"`
}

// UpdateRoomStatus 更新房间状态
// @Summary 更新房间状态（0 停用 1 可售）
// @Tags 管理-房间
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房间 ID"
// @Param request body UpdateRoomStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Room}
// @Router /admin/rooms/{id}/status [put]
func (h *RoomHandler) UpdateRoomStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	var req UpdateRoomStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	room, err := h.catalogService.UpdateRoomStatus(c.Request.Context(), id, *req.Status)
	handler.MustSucceed(c, err, room)
}

// DeleteRoom 删除房间
// @Summary 删除房间（存在未完成预订时拒绝）
// @Tags 管理-房间
// @Produce json
// @Security Bearer
// @Param id path int true "房间 ID"
// @Success 200 {object} response.Response
// @Router /admin/rooms/{id} [delete]
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	id, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.catalogService.DeleteRoom(c.Request.Context(), id), nil)
}

// ==================== 附加服务 ====================

// CreateAddon 创建附加服务
// @Summary 创建附加服务
// @Tags 管理-附加服务
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body catalogService.AddonRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Addon}
// @Router /admin/addons [post]
func (h *RoomHandler) CreateAddon(c *gin.Context) {
	var req catalogService.AddonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	addon, err := h.catalogService.CreateAddon(c.Request.Context(), &req)
	handler.MustSucceed(c, err, addon)
}

// UpdateAddon 更新附加服务
// @Summary 更新附加服务
// @Tags 管理-附加服务
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "附加服务 ID"
// @Param request body catalogService.AddonRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Addon}
// @Router /admin/addons/{id} [put]
func (h *RoomHandler) UpdateAddon(c *gin.Context) {
	id, ok := handler.ParseID(c, "附加服务")
	if !ok {
		return
	}

	var req catalogService.AddonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	addon, err := h.catalogService.UpdateAddon(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, addon)
}

// DeleteAddon 删除附加服务
// @Summary 删除附加服务
// @Tags 管理-附加服务
// @Produce json
// @Security Bearer
// @Param id path int true "附加服务 ID"
// @Success 200 {object} response.Response
// @Router /admin/addons/{id} [delete]
func (h *RoomHandler) DeleteAddon(c *gin.Context) {
	id, ok := handler.ParseID(c, "附加服务")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.catalogService.DeleteAddon(c.Request.Context(), id), nil)
}

// RegisterRoutes 注册路由
func (h *RoomHandler) RegisterRoutes(r *gin.RouterGroup) {
	roomTypes := r.Group("/room-types")
	{
		roomTypes.GET("", h.ListRoomTypes)
		roomTypes.GET("/:id", h.GetRoomType)
		roomTypes.POST("", h.CreateRoomType)
		roomTypes.PUT("/:id", h.UpdateRoomType)
		roomTypes.DELETE("/:id", h.DeleteRoomType)
	}

	rooms := r.Group("/rooms")
	{
		rooms.POST("", h.CreateRoom)
		rooms.PUT("/:id/status", h.UpdateRoomStatus)
		rooms.DELETE("/:id", h.DeleteRoom)
	}

	addons := r.Group("/addons")
	{
		addons.POST("", h.CreateAddon)
		addons.PUT("/:id", h.UpdateAddon)
		addons.DELETE("/:id", h.DeleteAddon)
	}
}
