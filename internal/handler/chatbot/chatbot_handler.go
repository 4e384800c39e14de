// Package chatbot 提供 FAQ 聊天机器人的 HTTP Handler
// 会话标识通过 X-Chat-Session 请求头传递，与聊天限流中间件约定一致
package chatbot

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	chatbotService "github.com/tatchunari/neatly-backend/internal/service/chatbot"
)

// Handler 聊天机器人处理器
type Handler struct {
	chatbotService *chatbotService.Service
}

// NewHandler 创建聊天机器人处理器
func NewHandler(chatbotSvc *chatbotService.Service) *Handler {
	return &Handler{chatbotService: chatbotSvc}
}

// requireSessionKey 从请求头取会话标识
func requireSessionKey(c *gin.Context) (string, bool) {
	sessionKey := c.GetHeader("X-Chat-Session")
	if sessionKey == "" {
		response.BadRequest(c, "缺少会话标识")
		return "", false
	}
	return sessionKey, true
}

// StartSession 创建聊天会话
// @Summary 创建聊天会话（访客可用，登录用户关联账号）
// @Tags 聊天机器人
// @Produce json
// @Success 200 {object} response.Response{data=models.ChatSession}
// @Router /chat/sessions [post]
func (h *Handler) StartSession(c *gin.Context) {
	userID := handler.GetOptionalUserID(c)

	session, err := h.chatbotService.StartSession(c.Request.Context(), userID)
	handler.MustSucceed(c, err, session)
}

// SendMessage 发送消息
// @Summary 发送消息并获取机器人回复
// @Tags 聊天机器人
// @Accept json
// @Produce json
// @Param X-Chat-Session header string true "会话标识"
// @Param request body chatbotService.SendMessageRequest true "请求参数"
// @Success 200 {object} response.Response{data=chatbotService.Reply}
// @Router /chat/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	sessionKey, ok := requireSessionKey(c)
	if !ok {
		return
	}

	var req chatbotService.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	reply, err := h.chatbotService.SendMessage(c.Request.Context(), sessionKey, &req)
	handler.MustSucceed(c, err, reply)
}

// History 获取会话消息历史
// @Summary 获取会话消息历史
// @Tags 聊天机器人
// @Produce json
// @Param X-Chat-Session header string true "会话标识"
// @Param limit query int false "最多返回条数" default(50)
// @Success 200 {object} response.Response{data=[]models.ChatMessage}
// @Router /chat/messages [get]
func (h *Handler) History(c *gin.Context) {
	sessionKey, ok := requireSessionKey(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		response.BadRequest(c, "返回条数无效")
		return
	}

	messages, err := h.chatbotService.History(c.Request.Context(), sessionKey, limit)
	handler.MustSucceed(c, err, messages)
}

// CloseSession 关闭会话
// @Summary 关闭会话
// @Tags 聊天机器人
// @Produce json
// @Param X-Chat-Session header string true "会话标识"
// @Success 200 {object} response.Response
// @Router /chat/sessions/close [post]
func (h *Handler) CloseSession(c *gin.Context) {
	sessionKey, ok := requireSessionKey(c)
	if !ok {
		return
	}

	handler.MustSucceed(c, h.chatbotService.CloseSession(c.Request.Context(), sessionKey), nil)
}

// RegisterRoutes 注册公开路由（配合 OptionalAuth 与聊天限流中间件）
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	chat := r.Group("/chat")
	{
		chat.POST("/sessions", h.StartSession)
		chat.POST("/sessions/close", h.CloseSession)
		chat.POST("/messages", h.SendMessage)
		chat.GET("/messages", h.History)
	}
}
