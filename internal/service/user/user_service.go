// Package user 提供管理员用户管理服务
package user

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/logger"
	"github.com/dumeirei/spacer-backend/internal/common/tracing"
	"github.com/dumeirei/spacer-backend/internal/models"
	"github.com/dumeirei/spacer-backend/internal/repository"
	"github.com/dumeirei/spacer-backend/internal/service/access"
)

// UserService 用户管理服务
type UserService struct {
	db       *gorm.DB
	userRepo *repository.UserRepository
	log      *zap.Logger
}

// NewUserService 创建用户管理服务
func NewUserService(db *gorm.DB, userRepo *repository.UserRepository, log *zap.Logger) *UserService {
	return &UserService{
		db:       db,
		userRepo: userRepo,
		log:      logger.OrNop(log).With(logger.Module("user")),
	}
}

// ListUsersRequest 用户列表请求
type ListUsersRequest struct {
	Role    string
	Keyword string
	Offset  int
	Limit   int
}

// UpdateUserRequest 管理员更新用户请求
type UpdateUserRequest struct {
	Name       *string `json:"name" binding:"omitempty,max=100"`
	Role       *string `json:"role"`
	IsVerified *bool   `json:"is_verified"`
}

// ListUsers 用户列表
func (s *UserService) ListUsers(ctx context.Context, actor access.Actor, req *ListUsersRequest) ([]*models.User, int64, error) {
	if !access.IsAdmin(actor) {
		return nil, 0, errors.ErrPermissionDenied
	}
	if req.Role != "" && !access.ValidRole(req.Role) {
		return nil, 0, errors.ErrInvalidRole
	}

	users, total, err := s.userRepo.List(ctx, req.Offset, req.Limit, repository.UserFilter{
		Role:    req.Role,
		Keyword: strings.TrimSpace(req.Keyword),
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return users, total, nil
}

// GetUser 获取用户
func (s *UserService) GetUser(ctx context.Context, actor access.Actor, id int64) (*models.User, error) {
	if !access.IsAdmin(actor) {
		return nil, errors.ErrPermissionDenied
	}
	return s.getUser(ctx, s.userRepo, id)
}

// UpdateUser 更新用户姓名、角色、认证状态
func (s *UserService) UpdateUser(ctx context.Context, actor access.Actor, id int64, req *UpdateUserRequest) (user *models.User, err error) {
	ctx, span := tracing.Start(ctx, "user.UpdateUser", tracing.WithUserID(id))
	defer func() { tracing.End(span, err) }()

	if !access.IsAdmin(actor) {
		return nil, errors.ErrPermissionDenied
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.ErrInvalidParams.WithMessage("name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Role != nil {
		if !access.ValidRole(*req.Role) {
			return nil, errors.ErrInvalidRole
		}
		updates["role"] = *req.Role
	}
	if req.IsVerified != nil {
		updates["is_verified"] = *req.IsVerified
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		if _, err := s.getUser(ctx, users, id); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := users.UpdateFields(ctx, id, updates); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		s.log.Info("user role changed", logger.UserID(id), zap.String("role", *req.Role), zap.Int64("by", actor.ID))
	}
	return s.getUser(ctx, s.userRepo, id)
}

// DeleteUser 删除用户，仍有场地、预订或支付记录时拒绝
func (s *UserService) DeleteUser(ctx context.Context, actor access.Actor, id int64) (err error) {
	ctx, span := tracing.Start(ctx, "user.DeleteUser", tracing.WithUserID(id))
	defer func() { tracing.End(span, err) }()

	if !access.IsAdmin(actor) {
		return errors.ErrPermissionDenied
	}
	if actor.ID == id {
		return errors.ErrInvalidParams.WithMessage("cannot delete your own account")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		if _, err := s.getUser(ctx, users, id); err != nil {
			return err
		}
		counts, err := users.CountRecords(ctx, id)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if counts.Any() {
			return errors.ErrUserHasRecords
		}
		if err := users.Delete(ctx, id); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("user deleted", logger.UserID(id), zap.Int64("by", actor.ID))
	return nil
}

func (s *UserService) getUser(ctx context.Context, users *repository.UserRepository, id int64) (*models.User, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}
