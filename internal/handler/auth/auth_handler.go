// Package auth 提供认证与个人资料相关的 HTTP Handler
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/tatchunari/neatly-backend/internal/common/handler"
	"github.com/tatchunari/neatly-backend/internal/common/response"
	authService "github.com/tatchunari/neatly-backend/internal/service/auth"
)

// Handler 认证处理器
type Handler struct {
	authService *authService.Service
}

// NewHandler 创建认证处理器
func NewHandler(authSvc *authService.Service) *Handler {
	return &Handler{authService: authSvc}
}

// Register 注册
// @Summary 注册
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.RegisterRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.LoginResponse}
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req authService.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// Login 登录
// @Summary 登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.LoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.LoginResponse}
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req authService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 刷新 Token
// @Summary 刷新 Token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tokenPair, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, tokenPair)
}

// GetProfile 获取当前用户资料
// @Summary 获取当前用户资料
// @Tags 认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.User}
// @Router /auth/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	handler.MustSucceed(c, err, user)
}

// UpdateProfile 更新当前用户资料
// @Summary 更新当前用户资料
// @Tags 认证
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body authService.UpdateProfileRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.User}
// @Router /auth/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req authService.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, user)
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags 认证
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body authService.ChangePasswordRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/password [put]
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req authService.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.authService.ChangePassword(c.Request.Context(), userID, &req), nil)
}

// RegisterRoutes 注册公开路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
	}
}

// RegisterProtectedRoutes 注册需要登录的路由
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.GET("/profile", h.GetProfile)
		auth.PUT("/profile", h.UpdateProfile)
		auth.PUT("/password", h.ChangePassword)
	}
}
