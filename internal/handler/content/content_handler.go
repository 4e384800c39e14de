// Package content 提供营销内容与 FAQ 的 HTTP Handler
package content

import (
	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	contentService "github.com/tatchunari/neatly-backend/internal/service/content"
)

// Handler 内容处理器
type Handler struct {
	contentService *contentService.Service
}

// NewHandler 创建内容处理器
func NewHandler(contentSvc *contentService.Service) *Handler {
	return &Handler{contentService: contentSvc}
}

// GetHome 获取首页内容
// @Summary 获取首页内容（内容块与住客评价）
// @Tags 内容
// @Produce json
// @Success 200 {object} response.Response{data=contentService.HomeContent}
// @Router /content/home [get]
func (h *Handler) GetHome(c *gin.Context) {
	home, err := h.contentService.GetHomeContent(c.Request.Context())
	handler.MustSucceed(c, err, home)
}

// GetBlock 获取指定内容块
// @Summary 按 key 获取已发布的内容块
// @Tags 内容
// @Produce json
// @Param key path string true "内容块 key"
// @Success 200 {object} response.Response{data=models.ContentBlock}
// @Router /content/blocks/{key} [get]
func (h *Handler) GetBlock(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		response.BadRequest(c, "内容块 key 不能为空")
		return
	}

	block, err := h.contentService.GetBlock(c.Request.Context(), key)
	handler.MustSucceed(c, err, block)
}

// ListFAQs 获取 FAQ 列表
// @Summary 获取已发布的 FAQ 列表
// @Tags 内容
// @Produce json
// @Param category query string false "FAQ 分类"
// @Success 200 {object} response.Response{data=[]models.FAQ}
// @Router /content/faqs [get]
func (h *Handler) ListFAQs(c *gin.Context) {
	faqs, err := h.contentService.ListFAQs(c.Request.Context(), c.Query("category"))
	handler.MustSucceed(c, err, faqs)
}

// RegisterRoutes 注册公开路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	content := r.Group("/content")
	{
		content.GET("/home", h.GetHome)
		content.GET("/blocks/:key", h.GetBlock)
		content.GET("/faqs", h.ListFAQs)
	}
}
