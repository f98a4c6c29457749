// Package user 提供管理员用户管理的 HTTP Handler
package user

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/spacer-backend/internal/common/handler"
	"github.com/dumeirei/spacer-backend/internal/common/response"
	userService "github.com/dumeirei/spacer-backend/internal/service/user"
)

// Handler 用户管理处理器
type Handler struct {
	userService *userService.UserService
}

// NewHandler 创建用户管理处理器
func NewHandler(userSvc *userService.UserService) *Handler {
	return &Handler{
		userService: userSvc,
	}
}

// List 用户列表
// @Summary 用户列表
// @Tags 管理员-用户
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param role query string false "角色"
// @Param keyword query string false "姓名或邮箱关键字"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.User}}
// @Router /api/v1/admin/users [get]
func (h *Handler) List(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), actor, &userService.ListUsersRequest{
		Role:    c.Query("role"),
		Keyword: c.Query("keyword"),
		Offset:  p.GetOffset(),
		Limit:   p.GetLimit(),
	})
	handler.MustSucceedPage(c, err, users, total, p.Page, p.PageSize)
}

// Get 用户详情
// @Summary 用户详情
// @Tags 管理员-用户
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=models.User}
// @Router /api/v1/admin/users/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "user")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, user)
}

// Update 更新用户
// @Summary 更新用户
// @Tags 管理员-用户
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Param request body userService.UpdateUserRequest true "更新内容"
// @Success 200 {object} response.Response{data=models.User}
// @Router /api/v1/admin/users/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "user")
	if !ok {
		return
	}

	var req userService.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request parameters")
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actor, id, &req)
	handler.MustSucceed(c, err, user)
}

// Delete 删除用户
// @Summary 删除用户
// @Tags 管理员-用户
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/admin/users/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "user")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.userService.DeleteUser(c.Request.Context(), actor, id), nil)
}
