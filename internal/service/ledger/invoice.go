package ledger

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/logger"
	"github.com/dumeirei/spacer-backend/internal/common/tracing"
	"github.com/dumeirei/spacer-backend/internal/common/utils"
	"github.com/dumeirei/spacer-backend/internal/models"
	"github.com/dumeirei/spacer-backend/internal/repository"
	"github.com/dumeirei/spacer-backend/internal/service/access"
)

// InvoicePrefix 发票号前缀
const InvoicePrefix = "INV"

// CreateInvoiceRequest 开具发票请求
type CreateInvoiceRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

// CreateInvoice 为预订开具发票，每个预订仅一张
func (s *LedgerService) CreateInvoice(ctx context.Context, actor access.Actor, req *CreateInvoiceRequest) (invoice *models.Invoice, err error) {
	ctx, span := tracing.Start(ctx, "ledger.CreateInvoice",
		tracing.WithUserID(actor.ID), tracing.WithBookingID(req.BookingID))
	defer func() { tracing.End(span, err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.WithTx(tx).GetForUpdate(ctx, req.BookingID)
		if err != nil {
			return bookingNotFoundOr(err)
		}
		if !access.CanManage(actor, booking) {
			return errors.ErrPermissionDenied
		}

		invoices := s.invoiceRepo.WithTx(tx)
		exists, err := invoices.ExistsForBooking(ctx, booking.ID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if exists {
			return errors.ErrInvoiceExists
		}

		no := utils.GenerateReferenceNo(InvoicePrefix)
		invoice = &models.Invoice{
			BookingID:  booking.ID,
			ClientID:   booking.ClientID,
			InvoiceNo:  no,
			InvoiceURL: s.invoiceURL(no),
			IssuedAt:   time.Now().UTC(),
		}
		if err := invoices.Create(ctx, invoice); err != nil {
			// 并发开票由唯一索引兜底
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.ErrInvoiceExists
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		invoice.Booking = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.RecordInvoice()
	}
	s.log.Info("invoice issued",
		logger.InvoiceNo(invoice.InvoiceNo),
		logger.BookingID(invoice.BookingID),
		logger.UserID(actor.ID),
	)

	if client := s.loadClient(ctx, invoice.ClientID); client != nil {
		s.notifier.InvoiceIssued(ctx, client, invoice)
	}
	return invoice, nil
}

// ListInvoices 按角色过滤的发票列表
func (s *LedgerService) ListInvoices(ctx context.Context, actor access.Actor, offset, limit int) ([]*models.Invoice, int64, error) {
	sc, err := scopeFor(actor)
	if err != nil {
		return nil, 0, err
	}
	invoices, total, err := s.invoiceRepo.List(ctx, offset, limit, repository.InvoiceFilter{
		ClientID: sc.clientID,
		OwnerID:  sc.ownerID,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return invoices, total, nil
}

// GetInvoice 获取发票详情
func (s *LedgerService) GetInvoice(ctx context.Context, actor access.Actor, id int64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrInvoiceNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !access.CanView(actor, invoice) {
		return nil, errors.ErrPermissionDenied
	}
	return invoice, nil
}

func (s *LedgerService) invoiceURL(no string) string {
	return strings.TrimRight(s.config.InvoiceBaseURL, "/") + "/" + no
}
