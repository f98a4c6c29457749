// Package ledger 支付与发票记录
package ledger

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/logger"
	"github.com/dumeirei/spacer-backend/internal/models"
	"github.com/dumeirei/spacer-backend/internal/repository"
	"github.com/dumeirei/spacer-backend/internal/service/access"
	"github.com/dumeirei/spacer-backend/internal/service/notify"
)

// Recorder 账务指标记录
type Recorder interface {
	RecordPayment(method, status string)
	RecordInvoice()
}

// Config 账务配置
type Config struct {
	InvoiceBaseURL string
}

// LedgerService 账务服务
type LedgerService struct {
	db          *gorm.DB
	bookingRepo *repository.BookingRepository
	paymentRepo *repository.PaymentRepository
	invoiceRepo *repository.InvoiceRepository
	userRepo    *repository.UserRepository
	notifier    *notify.Dispatcher
	recorder    Recorder
	config      Config
	log         *zap.Logger
}

// NewLedgerService 创建账务服务
func NewLedgerService(
	db *gorm.DB,
	bookingRepo *repository.BookingRepository,
	paymentRepo *repository.PaymentRepository,
	invoiceRepo *repository.InvoiceRepository,
	userRepo *repository.UserRepository,
	notifier *notify.Dispatcher,
	recorder Recorder,
	config Config,
	log *zap.Logger,
) *LedgerService {
	return &LedgerService{
		db:          db,
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		recorder:    recorder,
		config:      config,
		log:         logger.OrNop(log).With(logger.Module("ledger")),
	}
}

// loadClient 通知前加载客户，失败只记录日志
func (s *LedgerService) loadClient(ctx context.Context, id int64) *models.User {
	client, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		s.log.Warn("load notification recipient failed", logger.UserID(id), zap.Error(err))
		return nil
	}
	return client
}

// scope 列表范围：客户看自己的，所有者看自己场地的，管理员看全部
type scope struct {
	clientID int64
	ownerID  int64
}

func scopeFor(actor access.Actor) (scope, error) {
	switch actor.Role {
	case access.RoleAdmin:
		return scope{}, nil
	case access.RoleOwner:
		return scope{ownerID: actor.ID}, nil
	case access.RoleClient:
		return scope{clientID: actor.ID}, nil
	default:
		return scope{}, errors.ErrPermissionDenied
	}
}

func bookingNotFoundOr(err error) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.ErrBookingNotFound
	}
	return errors.ErrDatabaseError.WithError(err)
}
