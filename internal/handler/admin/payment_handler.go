package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	"github.com/tatchunari/neatly-backend/internal/models"
	paymentService "github.com/tatchunari/neatly-backend/internal/service/payment"
)

// PaymentHandler 支付管理处理器
type PaymentHandler struct {
	paymentService *paymentService.Service
}

// NewPaymentHandler 创建支付管理处理器
func NewPaymentHandler(paymentSvc *paymentService.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentSvc}
}

// List 获取支付单列表
// @Summary 获取支付单列表
// @Tags 管理-支付
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param status query string false "支付状态" Enums(pending, completed, failed, refunded)
// @Param method query string false "支付方式" Enums(credit_card, promptpay, cash)
// @Param booking_id query int false "预订 ID"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	page := handler.BindPagination(c)

	filters := map[string]interface{}{}
	if status := c.Query("status"); status != "" {
		filters["status"] = models.PaymentStatus(status)
	}
	if method := c.Query("method"); method != "" {
		filters["method"] = method
	}
	bookingID, ok := handler.ParseQueryID(c, "booking_id", "预订")
	if !ok {
		return
	}
	if bookingID != nil {
		filters["booking_id"] = *bookingID
	}

	list, total, err := h.paymentService.ListPayments(c.Request.Context(), page.GetOffset(), page.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, page.Page, page.PageSize)
}

// ConfirmCash 确认现金收款
// @Summary 确认现金收款（前台收款后完成支付并确认预订）
// @Tags 管理-支付
// @Produce json
// @Security Bearer
// @Param id path int true "支付单 ID"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /admin/payments/{id}/confirm-cash [post]
func (h *PaymentHandler) ConfirmCash(c *gin.Context) {
	id, ok := handler.ParseID(c, "支付单")
	if !ok {
		return
	}

	payment, err := h.paymentService.ConfirmCash(c.Request.Context(), id)
	handler.MustSucceed(c, err, payment)
}

// RefundRequest 退款请求
type RefundRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// Refund 退款
// @Summary 对已完成的支付单发起退款
// @Tags 管理-支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "支付单 ID"
// @Param request body RefundRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /admin/payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	id, ok := handler.ParseID(c, "支付单")
	if !ok {
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	payment, err := h.paymentService.Refund(c.Request.Context(), id, req.Reason)
	handler.MustSucceed(c, err, payment)
}

// RegisterRoutes 注册路由
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.GET("", h.List)
		payments.POST("/:id/confirm-cash", h.ConfirmCash)
		payments.POST("/:id/refund", h.Refund)
	}
}
