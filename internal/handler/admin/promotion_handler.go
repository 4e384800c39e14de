package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	"github.com/tatchunari/neatly-backend/internal/models"
	promotionService "github.com/tatchunari/neatly-backend/internal/service/promotion"
)

// PromotionHandler 优惠码管理处理器
type PromotionHandler struct {
	promotionService *promotionService.Service
}

// NewPromotionHandler 创建优惠码管理处理器
func NewPromotionHandler(promotionSvc *promotionService.Service) *PromotionHandler {
	return &PromotionHandler{promotionService: promotionSvc}
}

// List 获取优惠码列表
// @Summary 获取优惠码列表
// @Tags 管理-优惠码
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param code query string false "优惠码关键字"
// @Param enabled query bool false "是否启用"
// @Param discount_type query string false "折扣类型" Enums(percent, fixed)
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/promotions [get]
func (h *PromotionHandler) List(c *gin.Context) {
	page := handler.BindPagination(c)

	filters := map[string]interface{}{}
	if code := c.Query("code"); code != "" {
		filters["code"] = code
	}
	if enabledStr := c.Query("enabled"); enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			response.BadRequest(c, "启用状态无效")
			return
		}
		filters["enabled"] = enabled
	}
	if discountType := c.Query("discount_type"); discountType != "" {
		filters["discount_type"] = models.DiscountType(discountType)
	}

	list, total, err := h.promotionService.List(c.Request.Context(), page.GetOffset(), page.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, page.Page, page.PageSize)
}

// Get 获取优惠码详情
// @Summary 获取优惠码详情
// @Tags 管理-优惠码
// @Produce json
// @Security Bearer
// @Param id path int true "优惠码 ID"
// @Success 200 {object} response.Response{data=models.PromoCode}
// @Router /admin/promotions/{id} [get]
func (h *PromotionHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "优惠码")
	if !ok {
		return
	}

	promo, err := h.promotionService.GetByID(c.Request.Context(), id)
	handler.MustSucceed(c, err, promo)
}

// Create 创建优惠码
// @Summary 创建优惠码
// @Tags 管理-优惠码
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body promotionService.CreateRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.PromoCode}
// @Router /admin/promotions [post]
func (h *PromotionHandler) Create(c *gin.Context) {
	var req promotionService.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	promo, err := h.promotionService.Create(c.Request.Context(), &req)
	handler.MustSucceed(c, err, promo)
}

// Update 更新优惠码
// @Summary 更新优惠码
// @Tags 管理-优惠码
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "优惠码 ID"
// @Param request body promotionService.UpdateRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.PromoCode}
// @Router /admin/promotions/{id} [put]
func (h *PromotionHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "优惠码")
	if !ok {
		return
	}

	var req promotionService.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	promo, err := h.promotionService.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, promo)
}

// Delete 删除优惠码
// @Summary 删除优惠码（软删除）
// @Tags 管理-优惠码
// @Produce json
// @Security Bearer
// @Param id path int true "优惠码 ID"
// @Success 200 {object} response.Response
// @Router /admin/promotions/{id} [delete]
func (h *PromotionHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "优惠码")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.promotionService.Delete(c.Request.Context(), id), nil)
}

// RegisterRoutes 注册路由
func (h *PromotionHandler) RegisterRoutes(r *gin.RouterGroup) {
	promotions := r.Group("/promotions")
	{
		promotions.GET("", h.List)
		promotions.GET("/:id", h.Get)
		promotions.POST("", h.Create)
		promotions.PUT("/:id", h.Update)
		promotions.DELETE("/:id", h.Delete)
	}
}
