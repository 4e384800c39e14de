// Package admin 管理端 HTTP Handler
package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	"github.com/tatchunari/neatly-backend/internal/models"
	adminService "github.com/tatchunari/neatly-backend/internal/service/admin"
)

// DashboardHandler 仪表盘与用户管理处理器
type DashboardHandler struct {
	dashboardService *adminService.Service
}

// NewDashboardHandler 创建仪表盘处理器
func NewDashboardHandler(dashboardSvc *adminService.Service) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardSvc}
}

// GetDashboard 获取运营概览
// @Summary 获取运营概览
// @Tags 管理-仪表盘
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=adminService.Dashboard}
// @Router /admin/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.dashboardService.GetDashboard(c.Request.Context())
	handler.MustSucceed(c, err, dashboard)
}

// GetRevenueReport 获取营收报表
// @Summary 获取指定日期区间的营收报表
// @Tags 管理-仪表盘
// @Produce json
// @Security Bearer
// @Param start_date query string true "开始日期 YYYY-MM-DD"
// @Param end_date query string true "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=adminService.RevenueReport}
// @Router /admin/dashboard/revenue [get]
func (h *DashboardHandler) GetRevenueReport(c *gin.Context) {
	report, err := h.dashboardService.GetRevenueReport(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	handler.MustSucceed(c, err, report)
}

// ListUsers 获取用户列表
// @Summary 获取用户列表
// @Tags 管理-用户
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param email query string false "邮箱关键字"
// @Param role query string false "角色" Enums(customer, admin)
// @Param status query int false "状态（0 禁用 1 正常）"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/users [get]
func (h *DashboardHandler) ListUsers(c *gin.Context) {
	page := handler.BindPagination(c)

	filters := map[string]interface{}{}
	if email := c.Query("email"); email != "" {
		filters["email"] = email
	}
	if role := c.Query("role"); role != "" {
		filters["role"] = role
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status, err := strconv.Atoi(statusStr)
		if err != nil {
			response.BadRequest(c, "状态无效")
			return
		}
		filters["status"] = int8(status)
	}

	list, total, err := h.dashboardService.ListUsers(c.Request.Context(), page.GetOffset(), page.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, page.Page, page.PageSize)
}

// SetUserStatusRequest 设置用户状态请求
type SetUserStatusRequest struct {
	Status *int8 `json:"status" binding:"required"`
}

// SetUserStatus 启用/禁用用户
// @Summary 启用/禁用用户
// @Tags 管理-用户
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "用户 ID"
// @Param request body SetUserStatusRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/status [put]
func (h *DashboardHandler) SetUserStatus(c *gin.Context) {
	userID, ok := handler.ParseID(c, "用户")
	if !ok {
		return
	}

	var req SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	if *req.Status != models.UserStatusDisabled && *req.Status != models.UserStatusActive {
		response.BadRequest(c, "状态无效")
		return
	}

	handler.MustSucceed(c, h.dashboardService.SetUserStatus(c.Request.Context(), userID, *req.Status), nil)
}

// RegisterRoutes 注册路由
func (h *DashboardHandler) RegisterRoutes(r *gin.RouterGroup) {
	dashboard := r.Group("/dashboard")
	{
		dashboard.GET("", h.GetDashboard)
		dashboard.GET("/revenue", h.GetRevenueReport)
	}

	users := r.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.PUT("/:id/status", h.SetUserStatus)
	}
}
