// Package space 提供场地相关的 HTTP Handler
package space

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/spacer-backend/internal/common/handler"
	"github.com/dumeirei/spacer-backend/internal/common/response"
	spaceService "github.com/dumeirei/spacer-backend/internal/service/space"
)

// Handler 场地处理器
type Handler struct {
	spaceService *spaceService.SpaceService
}

// NewHandler 创建场地处理器
func NewHandler(spaceSvc *spaceService.SpaceService) *Handler {
	return &Handler{
		spaceService: spaceSvc,
	}
}

// List 可预订场地列表
// @Summary 场地列表
// @Tags 场地
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param location query string false "地点关键字"
// @Param min_capacity query int false "最小容量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Space}}
// @Router /api/v1/spaces [get]
func (h *Handler) List(c *gin.Context) {
	p := handler.BindPagination(c)

	req := &spaceService.ListSpacesRequest{
		Location: c.Query("location"),
		Offset:   p.GetOffset(),
		Limit:    p.GetLimit(),
	}
	if v := c.Query("min_capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.BadRequest(c, "invalid min_capacity")
			return
		}
		req.MinCapacity = n
	}

	spaces, total, err := h.spaceService.ListSpaces(c.Request.Context(), req)
	handler.MustSucceedPage(c, err, spaces, total, p.Page, p.PageSize)
}

// Get 场地详情
// @Summary 场地详情
// @Tags 场地
// @Produce json
// @Param id path int true "场地ID"
// @Success 200 {object} response.Response{data=models.Space}
// @Failure 404 {object} response.Response
// @Router /api/v1/spaces/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "space")
	if !ok {
		return
	}

	space, err := h.spaceService.GetSpace(c.Request.Context(), id)
	handler.MustSucceed(c, err, space)
}

// ListMine 我的场地
// @Summary 我的场地
// @Tags 场地
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Space}}
// @Router /api/v1/spaces/my [get]
func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	spaces, total, err := h.spaceService.ListMySpaces(c.Request.Context(), actor, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, spaces, total, p.Page, p.PageSize)
}

// Create 发布场地
// @Summary 发布场地
// @Description image 字段可为 data URI 或 base64 编码的图片
// @Tags 场地
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body spaceService.CreateSpaceRequest true "场地信息"
// @Success 201 {object} response.Response{data=models.Space}
// @Router /api/v1/spaces [post]
func (h *Handler) Create(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req spaceService.CreateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request parameters")
		return
	}

	space, err := h.spaceService.CreateSpace(c.Request.Context(), actor, &req)
	handler.MustCreate(c, err, space)
}

// Update 更新场地
// @Summary 更新场地
// @Tags 场地
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "场地ID"
// @Param request body spaceService.UpdateSpaceRequest true "更新内容"
// @Success 200 {object} response.Response{data=models.Space}
// @Router /api/v1/spaces/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "space")
	if !ok {
		return
	}

	var req spaceService.UpdateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request parameters")
		return
	}

	space, err := h.spaceService.UpdateSpace(c.Request.Context(), actor, id, &req)
	handler.MustSucceed(c, err, space)
}

// Delete 删除场地
// @Summary 删除场地
// @Tags 场地
// @Produce json
// @Security Bearer
// @Param id path int true "场地ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/spaces/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "space")
	if !ok {
		return
	}

	handler.MustSucceedWithMessage(c, h.spaceService.DeleteSpace(c.Request.Context(), actor, id), "space deleted", nil)
}
