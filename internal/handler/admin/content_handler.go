package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	contentService "github.com/tatchunari/neatly-backend/internal/service/content"
)

// ContentHandler 内容管理处理器
type ContentHandler struct {
	contentService *contentService.Service
}

// NewContentHandler 创建内容管理处理器
func NewContentHandler(contentSvc *contentService.Service) *ContentHandler {
	return &ContentHandler{contentService: contentSvc}
}

// ==================== 内容块 ====================

// ListBlocks 获取内容块列表（含隐藏）
// @Summary 获取内容块列表（含隐藏）
// @Tags 管理-内容
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]models.ContentBlock}
// @Router /admin/content/blocks [get]
func (h *ContentHandler) ListBlocks(c *gin.Context) {
	blocks, err := h.contentService.ListAllBlocks(c.Request.Context())
	handler.MustSucceed(c, err, blocks)
}

// SaveBlock 保存内容块
// @Summary 保存内容块（按 key 新建或覆盖）
// @Tags 管理-内容
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body contentService.BlockRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.ContentBlock}
// @Router /admin/content/blocks [put]
func (h *ContentHandler) SaveBlock(c *gin.Context) {
	var req contentService.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	block, err := h.contentService.SaveBlock(c.Request.Context(), &req)
	handler.MustSucceed(c, err, block)
}

// DeleteBlock 删除内容块
// @Summary 删除内容块
// @Tags 管理-内容
// @Produce json
// @Security Bearer
// @Param id path int true "内容块 ID"
// @Success 200 {object} response.Response
// @Router /admin/content/blocks/{id} [delete]
func (h *ContentHandler) DeleteBlock(c *gin.Context) {
	id, ok := handler.ParseID(c, "内容块")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.contentService.DeleteBlock(c.Request.Context(), id), nil)
}

// ==================== 住客评价 ====================

// CreateTestimonial 创建住客评价
// @Summary 创建住客评价
// @Tags 管理-内容
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body contentService.TestimonialRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Testimonial}
// @Router /admin/content/testimonials [post]
func (h *ContentHandler) CreateTestimonial(c *gin.Context) {
	var req contentService.TestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	testimonial, err := h.contentService.CreateTestimonial(c.Request.Context(), &req)
	handler.MustSucceed(c, err, testimonial)
}

// DeleteTestimonial 删除住客评价
// @Summary 删除住客评价
// @Tags 管理-内容
// @Produce json
// @Security Bearer
// @Param id path int true "评价 ID"
// @Success 200 {object} response.Response
// @Router /admin/content/testimonials/{id} [delete]
func (h *ContentHandler) DeleteTestimonial(c *gin.Context) {
	id, ok := handler.ParseID(c, "评价")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.contentService.DeleteTestimonial(c.Request.Context(), id), nil)
}

// ==================== FAQ ====================

// ListFAQs 获取 FAQ 列表（含隐藏）
// @Summary 获取 FAQ 列表（含隐藏）
// @Tags 管理-内容
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/content/faqs [get]
func (h *ContentHandler) ListFAQs(c *gin.Context) {
	page := handler.BindPagination(c)

	list, total, err := h.contentService.ListAllFAQs(c.Request.Context(), page.GetOffset(), page.GetLimit())
	handler.MustSucceedPage(c, err, list, total, page.Page, page.PageSize)
}

// CreateFAQ 创建 FAQ
// @Summary 创建 FAQ
// @Tags 管理-内容
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body contentService.FAQRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.FAQ}
// @Router /admin/content/faqs [post]
func (h *ContentHandler) CreateFAQ(c *gin.Context) {
	var req contentService.FAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	faq, err := h.contentService.CreateFAQ(c.Request.Context(), &req)
	handler.MustSucceed(c, err, faq)
}

// UpdateFAQ 更新 FAQ
// @Summary 更新 FAQ
// @Tags 管理-内容
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "FAQ ID"
// @Param request body contentService.FAQRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.FAQ}
// @Router /admin/content/faqs/{id} [put]
func (h *ContentHandler) UpdateFAQ(c *gin.Context) {
	id, ok := handler.ParseID(c, "FAQ")
	if !ok {
		return
	}

	var req contentService.FAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	faq, err := h.contentService.UpdateFAQ(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, faq)
}

// DeleteFAQ 删除 FAQ
// @Summary 删除 FAQ
// @Tags 管理-内容
// @Produce json
// @Security Bearer
// @Param id path int true "FAQ ID"
// @Success 200 {object} response.Response
// @Router /admin/content/faqs/{id} [delete]
func (h *ContentHandler) DeleteFAQ(c *gin.Context) {
	id, ok := handler.ParseID(c, "FAQ")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.contentService.DeleteFAQ(c.Request.Context(), id), nil)
}

// RegisterRoutes 注册路由
func (h *ContentHandler) RegisterRoutes(r *gin.RouterGroup) {
	content := r.Group("/content")
	{
		content.GET("/blocks", h.ListBlocks)
		content.PUT("/blocks", h.SaveBlock)
		content.DELETE("/blocks/:id", h.DeleteBlock)

		content.POST("/testimonials", h.CreateTestimonial)
		content.DELETE("/testimonials/:id", h.DeleteTestimonial)

		content.GET("/faqs", h.ListFAQs)
		content.POST("/faqs", h.CreateFAQ)
		content.PUT("/faqs/:id", h.UpdateFAQ)
		content.DELETE("/faqs/:id", h.DeleteFAQ)
	}
}
