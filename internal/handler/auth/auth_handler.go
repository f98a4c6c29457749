// Package auth 提供认证相关的 HTTP Handler
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/spacer-backend/internal/common/handler"
	"github.com/dumeirei/spacer-backend/internal/common/response"
	"github.com/dumeirei/spacer-backend/internal/middleware"
	authService "github.com/dumeirei/spacer-backend/internal/service/auth"
)

// Handler 认证处理器
type Handler struct {
	authService *authService.AuthService
}

// NewHandler 创建认证处理器
func NewHandler(authSvc *authService.AuthService) *Handler {
	return &Handler{
		authService: authSvc,
	}
}

// Register 注册
// @Summary 注册
// @Description 客户或场地所有者自助注册，管理员不可自助注册
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.RegisterRequest true "注册信息"
// @Success 201 {object} response.Response{data=models.User}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req authService.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request parameters")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	handler.MustCreate(c, err, user)
}

// Login 登录
// @Summary 登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.LoginRequest true "登录信息"
// @Success 200 {object} response.Response{data=authService.LoginResponse}
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req authService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request parameters")
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, resp)
}

// Logout 注销，吊销当前令牌
// @Summary 注销
// @Tags 认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /api/v1/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Unauthorized(c, "authentication required")
		return
	}

	err := h.authService.Logout(c.Request.Context(), claims)
	handler.MustSucceedWithMessage(c, err, "Logged out successfully", nil)
}

// GetProfile 获取个人资料
// @Summary 获取个人资料
// @Tags 用户
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.User}
// @Router /api/v1/users/me [get]
func (h *Handler) GetProfile(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), actor)
	handler.MustSucceed(c, err, user)
}

// UpdateProfile 更新个人资料
// @Summary 更新个人资料
// @Tags 用户
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body authService.UpdateProfileRequest true "更新内容"
// @Success 200 {object} response.Response{data=models.User}
// @Router /api/v1/users/me [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req authService.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request parameters")
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), actor, &req)
	handler.MustSucceed(c, err, user)
}
