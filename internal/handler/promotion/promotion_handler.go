// Package promotion 提供优惠码校验的 HTTP Handler
package promotion

import (
	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	promotionService "github.com/tatchunari/neatly-backend/internal/service/promotion"
)

// Handler 优惠码处理器
type Handler struct {
	promotionService *promotionService.Service
}

// NewHandler 创建优惠码处理器
func NewHandler(promotionSvc *promotionService.Service) *Handler {
	return &Handler{promotionService: promotionSvc}
}

// ValidateRequest 优惠码校验请求
type ValidateRequest struct {
	Code   string  `json:"code" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// Validate 校验优惠码
// @Summary 校验优惠码并试算折扣金额（不消耗使用次数）
// @Tags 优惠码
// @Accept json
// @Produce json
// @Param request body ValidateRequest true "请求参数"
// @Success 200 {object} response.Response{data=promotionService.ValidationResult}
// @Router /promotions/validate [post]
func (h *Handler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.promotionService.Validate(c.Request.Context(), req.Code, req.Amount)
	handler.MustSucceed(c, err, result)
}

// RegisterRoutes 注册公开路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	promotions := r.Group("/promotions")
	{
		promotions.POST("/validate", h.Validate)
	}
}
