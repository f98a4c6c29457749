// Package payment 提供支付记录相关的 HTTP Handler
package payment

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/spacer-backend/internal/common/handler"
	"github.com/dumeirei/spacer-backend/internal/common/response"
	"github.com/dumeirei/spacer-backend/internal/service/ledger"
)

// Handler 支付处理器
type Handler struct {
	ledgerService *ledger.LedgerService
}

// NewHandler 创建支付处理器
func NewHandler(ledgerSvc *ledger.LedgerService) *Handler {
	return &Handler{
		ledgerService: ledgerSvc,
	}
}

// Create 发起支付
// @Summary 发起支付
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ledger.CreatePaymentRequest true "支付信息"
// @Success 201 {object} response.Response{data=models.Payment}
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/payments [post]
func (h *Handler) Create(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req ledger.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request parameters")
		return
	}

	payment, err := h.ledgerService.CreatePayment(c.Request.Context(), actor, &req)
	handler.MustCreate(c, err, payment)
}

// List 支付列表
// @Summary 支付列表
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param booking_id query int false "预订ID"
// @Param status query string false "状态" Enums(pending, completed, failed)
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Payment}}
// @Router /api/v1/payments [get]
func (h *Handler) List(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	req := &ledger.ListPaymentsRequest{
		Status: c.Query("status"),
		Offset: p.GetOffset(),
		Limit:  p.GetLimit(),
	}
	if v := c.Query("booking_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			response.BadRequest(c, "invalid booking id")
			return
		}
		req.BookingID = id
	}

	payments, total, err := h.ledgerService.ListPayments(c.Request.Context(), actor, req)
	handler.MustSucceedPage(c, err, payments, total, p.Page, p.PageSize)
}

// Get 支付详情
// @Summary 支付详情
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /api/v1/payments/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "payment")
	if !ok {
		return
	}

	payment, err := h.ledgerService.GetPayment(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, payment)
}

// Confirm 确认收款
// @Summary 确认收款
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Success 200 {object} response.Response{data=models.Payment}
// @Failure 409 {object} response.Response
// @Router /api/v1/payments/{id}/confirm [patch]
func (h *Handler) Confirm(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "payment")
	if !ok {
		return
	}

	payment, err := h.ledgerService.ConfirmPayment(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, payment)
}

// Fail 标记支付失败
// @Summary 标记支付失败
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Success 200 {object} response.Response{data=models.Payment}
// @Failure 409 {object} response.Response
// @Router /api/v1/payments/{id}/fail [patch]
func (h *Handler) Fail(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "payment")
	if !ok {
		return
	}

	payment, err := h.ledgerService.FailPayment(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, payment)
}
