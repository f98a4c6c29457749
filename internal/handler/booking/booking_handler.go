// Package booking 提供预订相关的 HTTP Handler
package booking

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/spacer-backend/internal/common/handler"
	"github.com/dumeirei/spacer-backend/internal/common/response"
	bookingService "github.com/dumeirei/spacer-backend/internal/service/booking"
)

// Handler 预订处理器
type Handler struct {
	bookingService *bookingService.BookingService
}

// NewHandler 创建预订处理器
func NewHandler(bookingSvc *bookingService.BookingService) *Handler {
	return &Handler{
		bookingService: bookingSvc,
	}
}

// CreateBookingRequest 创建预订请求
type CreateBookingRequest struct {
	SpaceID       int64  `json:"space_id" binding:"required"`
	StartDatetime string `json:"start_datetime" binding:"required" example:"2026-05-04T10:00:00Z"`
	EndDatetime   string `json:"end_datetime" binding:"required" example:"2026-05-04T12:00:00Z"`
}

// Create 创建预订
// @Summary 创建预订
// @Description 仅客户可预订；时长按整小时计，总价为时价乘以时长
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateBookingRequest true "预订信息"
// @Success 201 {object} response.Response{data=models.Booking}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/bookings [post]
func (h *Handler) Create(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}
	if handler.HandleError(c, bookingService.CheckCanBook(actor)) {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request parameters")
		return
	}

	start, err := handler.ParseDateTime(req.StartDatetime)
	if handler.HandleError(c, err) {
		return
	}
	end, err := handler.ParseDateTime(req.EndDatetime)
	if handler.HandleError(c, err) {
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), actor, &bookingService.CreateBookingRequest{
		SpaceID:       req.SpaceID,
		StartDatetime: start,
		EndDatetime:   end,
	})
	handler.MustCreate(c, err, booking)
}

// List 预订列表
// @Summary 预订列表
// @Description 客户看自己的预订，所有者看自己场地上的预订，管理员看全部
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param status query string false "状态" Enums(pending, confirmed, declined, cancelled)
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Booking}}
// @Router /api/v1/bookings [get]
func (h *Handler) List(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	bookings, total, err := h.bookingService.ListBookings(c.Request.Context(), actor, &bookingService.ListBookingsRequest{
		Status: c.Query("status"),
		Offset: p.GetOffset(),
		Limit:  p.GetLimit(),
	})
	handler.MustSucceedPage(c, err, bookings, total, p.Page, p.PageSize)
}

// Get 预订详情
// @Summary 预订详情
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /api/v1/bookings/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "booking")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, booking)
}

// Approve 确认预订
// @Summary 确认预订
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Failure 409 {object} response.Response
// @Router /api/v1/bookings/{id}/approve [patch]
func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, bookingService.ActionApprove)
}

// Decline 拒绝预订
// @Summary 拒绝预订
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Failure 409 {object} response.Response
// @Router /api/v1/bookings/{id}/decline [patch]
func (h *Handler) Decline(c *gin.Context) {
	h.transition(c, bookingService.ActionDecline)
}

// Cancel 取消预订
// @Summary 取消预订
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Failure 409 {object} response.Response
// @Router /api/v1/bookings/{id}/cancel [patch]
func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, bookingService.ActionCancel)
}

func (h *Handler) transition(c *gin.Context, action string) {
	actor, id, ok := handler.RequireActorAndParseID(c, "booking")
	if !ok {
		return
	}

	booking, err := h.bookingService.Transition(c.Request.Context(), actor, id, action)
	handler.MustSucceed(c, err, booking)
}
