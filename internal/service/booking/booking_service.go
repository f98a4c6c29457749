// Package booking 预订引擎：创建预订、计算时长与价格、状态流转
package booking

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/logger"
	"github.com/dumeirei/spacer-backend/internal/common/tracing"
	"github.com/dumeirei/spacer-backend/internal/models"
	"github.com/dumeirei/spacer-backend/internal/repository"
	"github.com/dumeirei/spacer-backend/internal/service/access"
)

// 状态流转动作
const (
	ActionApprove = "approve"
	ActionDecline = "decline"
	ActionCancel  = "cancel"
)

var actionStatus = map[string]string{
	ActionApprove: models.BookingStatusConfirmed,
	ActionDecline: models.BookingStatusDeclined,
	ActionCancel:  models.BookingStatusCancelled,
}

// Recorder 预订指标记录
type Recorder interface {
	RecordBooking(status string)
}

// BookingService 预订服务
type BookingService struct {
	db          *gorm.DB
	bookingRepo *repository.BookingRepository
	spaceRepo   *repository.SpaceRepository
	recorder    Recorder
	log         *zap.Logger
}

// NewBookingService 创建预订服务
func NewBookingService(
	db *gorm.DB,
	bookingRepo *repository.BookingRepository,
	spaceRepo *repository.SpaceRepository,
	recorder Recorder,
	log *zap.Logger,
) *BookingService {
	return &BookingService{
		db:          db,
		bookingRepo: bookingRepo,
		spaceRepo:   spaceRepo,
		recorder:    recorder,
		log:         logger.OrNop(log).With(logger.Module("booking")),
	}
}

// CreateBookingRequest 创建预订请求，起止时间已由调用方解析
type CreateBookingRequest struct {
	SpaceID       int64
	StartDatetime time.Time
	EndDatetime   time.Time
}

// ListBookingsRequest 预订列表请求
type ListBookingsRequest struct {
	Status string
	Offset int
	Limit  int
}

// CheckCanBook 预订角色校验，先于任何入参校验
func CheckCanBook(actor access.Actor) error {
	if !access.HasRole(actor, access.RoleClient) {
		return errors.ErrPermissionDenied.WithMessage("only clients can create bookings")
	}
	return nil
}

// CreateBooking 客户预订场地
// 时长按整小时向下取整，总价为时价乘以时长，状态为 pending
func (s *BookingService) CreateBooking(ctx context.Context, actor access.Actor, req *CreateBookingRequest) (booking *models.Booking, err error) {
	ctx, span := tracing.Start(ctx, "booking.CreateBooking",
		tracing.WithUserID(actor.ID), tracing.WithSpaceID(req.SpaceID))
	defer func() { tracing.End(span, err) }()

	if err := CheckCanBook(actor); err != nil {
		return nil, err
	}
	if !req.EndDatetime.After(req.StartDatetime) {
		return nil, errors.ErrInvalidTimeRange
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		space, err := s.spaceRepo.WithTx(tx).GetByID(ctx, req.SpaceID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrSpaceNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if !space.IsAvailable {
			return errors.ErrSpaceUnavailable
		}
		hours := models.DurationHours(req.StartDatetime, req.EndDatetime)
		booking = &models.Booking{
			ClientID:      actor.ID,
			SpaceID:       space.ID,
			StartDatetime: req.StartDatetime.UTC(),
			EndDatetime:   req.EndDatetime.UTC(),
			DurationHours: hours,
			TotalPrice:    models.TotalPrice(space.PricePerHour, hours),
			Status:        models.BookingStatusPending,
		}
		if err := s.bookingRepo.WithTx(tx).Create(ctx, booking); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		booking.Space = space
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(models.BookingStatusPending)
	s.log.Info("booking created",
		logger.BookingID(booking.ID),
		logger.SpaceID(booking.SpaceID),
		logger.UserID(actor.ID),
		zap.Int("duration_hours", booking.DurationHours),
		zap.Float64("total_price", booking.TotalPrice),
	)
	return booking, nil
}

// ListBookings 按角色过滤的预订列表
// 客户仅看自己的预订，所有者看自己场地上的预订，管理员看全部
func (s *BookingService) ListBookings(ctx context.Context, actor access.Actor, req *ListBookingsRequest) ([]*models.Booking, int64, error) {
	filter, err := scopeFilter(actor)
	if err != nil {
		return nil, 0, err
	}
	if req.Status != "" {
		if _, ok := validStatuses[req.Status]; !ok {
			return nil, 0, errors.ErrInvalidParams.WithMessage("invalid booking status: " + req.Status)
		}
		filter.Status = req.Status
	}

	bookings, total, err := s.bookingRepo.List(ctx, req.Offset, req.Limit, filter)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return bookings, total, nil
}

// GetBooking 获取预订详情
func (s *BookingService) GetBooking(ctx context.Context, actor access.Actor, id int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if !access.CanView(actor, booking) {
		return nil, errors.ErrPermissionDenied
	}
	return booking, nil
}

// Transition 执行状态流转动作
// approve/decline 需场地所有者或管理员，cancel 需预订客户或管理员
func (s *BookingService) Transition(ctx context.Context, actor access.Actor, id int64, action string) (booking *models.Booking, err error) {
	ctx, span := tracing.Start(ctx, "booking.Transition",
		tracing.WithUserID(actor.ID), tracing.WithBookingID(id))
	defer func() { tracing.End(span, err) }()

	target, ok := actionStatus[action]
	if !ok {
		return nil, errors.ErrInvalidBookingAction.WithMessage("unknown booking action: " + action)
	}

	var from string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := s.bookingRepo.WithTx(tx)
		current, err := bookings.GetForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err)
		}
		if !allowed(actor, current, action) {
			return errors.ErrPermissionDenied
		}
		if !current.CanTransitionTo(target) {
			return errors.ErrBookingStatusError.WithMessage(
				"cannot " + action + " a booking in status " + current.Status)
		}
		if err := bookings.UpdateStatus(ctx, id, target); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		from = current.Status
		current.Status = target
		booking = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(target)
	s.log.Info("booking status changed",
		logger.BookingID(id),
		logger.UserID(actor.ID),
		logger.Action(action),
		zap.String("from", from),
		zap.String("to", target),
	)
	return booking, nil
}

// Approve 确认预订
func (s *BookingService) Approve(ctx context.Context, actor access.Actor, id int64) (*models.Booking, error) {
	return s.Transition(ctx, actor, id, ActionApprove)
}

// Decline 拒绝预订
func (s *BookingService) Decline(ctx context.Context, actor access.Actor, id int64) (*models.Booking, error) {
	return s.Transition(ctx, actor, id, ActionDecline)
}

// Cancel 取消预订
func (s *BookingService) Cancel(ctx context.Context, actor access.Actor, id int64) (*models.Booking, error) {
	return s.Transition(ctx, actor, id, ActionCancel)
}

func (s *BookingService) record(status string) {
	if s.recorder != nil {
		s.recorder.RecordBooking(status)
	}
}

var validStatuses = map[string]struct{}{
	models.BookingStatusPending:   {},
	models.BookingStatusConfirmed: {},
	models.BookingStatusDeclined:  {},
	models.BookingStatusCancelled: {},
}

func allowed(actor access.Actor, b *models.Booking, action string) bool {
	if action == ActionCancel {
		return access.IsAdmin(actor) || access.IsClientOf(actor, b)
	}
	return access.CanManage(actor, b)
}

// scopeFilter 按角色构造列表范围
func scopeFilter(actor access.Actor) (repository.BookingFilter, error) {
	switch actor.Role {
	case access.RoleAdmin:
		return repository.BookingFilter{}, nil
	case access.RoleOwner:
		return repository.BookingFilter{OwnerID: actor.ID}, nil
	case access.RoleClient:
		return repository.BookingFilter{ClientID: actor.ID}, nil
	default:
		return repository.BookingFilter{}, errors.ErrPermissionDenied
	}
}

func notFoundOr(err error) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.ErrBookingNotFound
	}
	return errors.ErrDatabaseError.WithError(err)
}
