package ledger

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/logger"
	"github.com/dumeirei/spacer-backend/internal/common/tracing"
	"github.com/dumeirei/spacer-backend/internal/common/utils"
	"github.com/dumeirei/spacer-backend/internal/models"
	"github.com/dumeirei/spacer-backend/internal/repository"
	"github.com/dumeirei/spacer-backend/internal/service/access"
)

const maxPaymentMethodLength = 50

// CreatePaymentRequest 发起支付请求
type CreatePaymentRequest struct {
	BookingID     int64   `json:"booking_id" binding:"required"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"` // 默认 card
}

// ListPaymentsRequest 支付列表请求
type ListPaymentsRequest struct {
	BookingID int64
	Status    string
	Offset    int
	Limit     int
}

// CreatePayment 客户为自己的预订发起支付，状态为 pending
func (s *LedgerService) CreatePayment(ctx context.Context, actor access.Actor, req *CreatePaymentRequest) (payment *models.Payment, err error) {
	ctx, span := tracing.Start(ctx, "ledger.CreatePayment",
		tracing.WithUserID(actor.ID), tracing.WithBookingID(req.BookingID))
	defer func() { tracing.End(span, err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.WithTx(tx).GetForUpdate(ctx, req.BookingID)
		if err != nil {
			return bookingNotFoundOr(err)
		}
		if !access.IsClientOf(actor, booking) {
			return errors.ErrPermissionDenied.WithMessage("only the client of the booking can pay for it")
		}

		method := strings.TrimSpace(req.PaymentMethod)
		if method == "" {
			method = models.DefaultPaymentMethod
		}
		if len(method) > maxPaymentMethodLength {
			return errors.ErrPaymentMethodError
		}
		if req.Amount <= 0 {
			return errors.ErrInvalidAmount
		}
		if !booking.IsPayable() {
			return errors.ErrBookingNotPayable.WithMessage("booking is " + booking.Status)
		}

		payment = &models.Payment{
			BookingID:     booking.ID,
			ClientID:      actor.ID,
			Amount:        utils.RoundMoney(req.Amount),
			PaymentMethod: method,
			PaymentStatus: models.PaymentStatusPending,
		}
		if err := s.paymentRepo.WithTx(tx).Create(ctx, payment); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordPayment(payment.PaymentMethod, models.PaymentStatusPending)
	s.log.Info("payment created",
		logger.PaymentID(payment.ID),
		logger.BookingID(payment.BookingID),
		logger.UserID(actor.ID),
		zap.Float64("amount", payment.Amount),
		zap.String("method", payment.PaymentMethod),
	)
	return payment, nil
}

// ListPayments 按角色过滤的支付列表
func (s *LedgerService) ListPayments(ctx context.Context, actor access.Actor, req *ListPaymentsRequest) ([]*models.Payment, int64, error) {
	sc, err := scopeFor(actor)
	if err != nil {
		return nil, 0, err
	}
	if req.Status != "" && !validPaymentStatus(req.Status) {
		return nil, 0, errors.ErrInvalidParams.WithMessage("invalid payment status: " + req.Status)
	}

	payments, total, err := s.paymentRepo.List(ctx, req.Offset, req.Limit, repository.PaymentFilter{
		ClientID:  sc.clientID,
		OwnerID:   sc.ownerID,
		BookingID: req.BookingID,
		Status:    req.Status,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return payments, total, nil
}

// GetPayment 获取支付详情
func (s *LedgerService) GetPayment(ctx context.Context, actor access.Actor, id int64) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, paymentNotFoundOr(err)
	}
	if !access.CanView(actor, payment) {
		return nil, errors.ErrPermissionDenied
	}
	return payment, nil
}

// ConfirmPayment 场地所有者确认收款
// 提交后通知客户，通知失败不影响结果
func (s *LedgerService) ConfirmPayment(ctx context.Context, actor access.Actor, id int64) (*models.Payment, error) {
	payment, err := s.settle(ctx, actor, id, models.PaymentStatusCompleted)
	if err != nil {
		return nil, err
	}

	if client := s.loadClient(ctx, payment.ClientID); client != nil {
		s.notifier.PaymentConfirmed(ctx, client, payment)
	}
	return payment, nil
}

// FailPayment 场地所有者标记支付失败
func (s *LedgerService) FailPayment(ctx context.Context, actor access.Actor, id int64) (*models.Payment, error) {
	return s.settle(ctx, actor, id, models.PaymentStatusFailed)
}

// settle 将 pending 支付流转到终态
func (s *LedgerService) settle(ctx context.Context, actor access.Actor, id int64, status string) (payment *models.Payment, err error) {
	ctx, span := tracing.Start(ctx, "ledger.SettlePayment",
		tracing.WithUserID(actor.ID), tracing.WithPaymentID(id))
	defer func() { tracing.End(span, err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := s.paymentRepo.WithTx(tx)
		current, err := payments.GetForUpdate(ctx, id)
		if err != nil {
			return paymentNotFoundOr(err)
		}
		if !access.CanManage(actor, current) {
			return errors.ErrPermissionDenied
		}
		if !current.IsPending() {
			return errors.ErrPaymentStatusError.WithMessage("payment is already " + current.PaymentStatus)
		}

		fields := map[string]interface{}{"payment_status": status}
		if status == models.PaymentStatusCompleted {
			now := time.Now().UTC()
			fields["payment_date"] = now
			current.PaymentDate = &now
		}
		if err := payments.UpdateFields(ctx, id, fields); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		current.PaymentStatus = status
		payment = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordPayment(payment.PaymentMethod, status)
	s.log.Info("payment settled",
		logger.PaymentID(id),
		logger.BookingID(payment.BookingID),
		logger.UserID(actor.ID),
		zap.String("status", status),
	)
	return payment, nil
}

func (s *LedgerService) recordPayment(method, status string) {
	if s.recorder != nil {
		s.recorder.RecordPayment(method, status)
	}
}

func validPaymentStatus(status string) bool {
	switch status {
	case models.PaymentStatusPending, models.PaymentStatusCompleted, models.PaymentStatusFailed:
		return true
	}
	return false
}

func paymentNotFoundOr(err error) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.ErrPaymentNotFound
	}
	return errors.ErrDatabaseError.WithError(err)
}
