// Package invoice 提供发票相关的 HTTP Handler
package invoice

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/spacer-backend/internal/common/handler"
	"github.com/dumeirei/spacer-backend/internal/common/response"
	"github.com/dumeirei/spacer-backend/internal/service/ledger"
)

// Handler 发票处理器
type Handler struct {
	ledgerService *ledger.LedgerService
}

// NewHandler 创建发票处理器
func NewHandler(ledgerSvc *ledger.LedgerService) *Handler {
	return &Handler{
		ledgerService: ledgerSvc,
	}
}

// Create 开具发票
// @Summary 开具发票
// @Description 场地所有者或管理员为预订开具发票，每个预订仅一张
// @Tags 发票
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ledger.CreateInvoiceRequest true "预订"
// @Success 201 {object} response.Response{data=models.Invoice}
// @Failure 409 {object} response.Response
// @Router /api/v1/invoices [post]
func (h *Handler) Create(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req ledger.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request parameters")
		return
	}

	invoice, err := h.ledgerService.CreateInvoice(c.Request.Context(), actor, &req)
	handler.MustCreate(c, err, invoice)
}

// List 发票列表
// @Summary 发票列表
// @Tags 发票
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Invoice}}
// @Router /api/v1/invoices [get]
func (h *Handler) List(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	invoices, total, err := h.ledgerService.ListInvoices(c.Request.Context(), actor, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, invoices, total, p.Page, p.PageSize)
}

// Get 发票详情
// @Summary 发票详情
// @Tags 发票
// @Produce json
// @Security Bearer
// @Param id path int true "发票ID"
// @Success 200 {object} response.Response{data=models.Invoice}
// @Router /api/v1/invoices/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "invoice")
	if !ok {
		return
	}

	invoice, err := h.ledgerService.GetInvoice(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, invoice)
}
