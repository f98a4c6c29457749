// Package auth 提供注册、登录、注销及个人资料服务
package auth

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/crypto"
	"github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/jwt"
	"github.com/dumeirei/spacer-backend/internal/common/logger"
	"github.com/dumeirei/spacer-backend/internal/common/tracing"
	"github.com/dumeirei/spacer-backend/internal/common/utils"
	"github.com/dumeirei/spacer-backend/internal/models"
	"github.com/dumeirei/spacer-backend/internal/repository"
	"github.com/dumeirei/spacer-backend/internal/service/access"
	"github.com/dumeirei/spacer-backend/internal/service/notify"
)

// MinPasswordLength 密码最短长度
const MinPasswordLength = 6

// Revoker 令牌吊销
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// Recorder 注册指标记录
type Recorder interface {
	RecordRegistration(role string)
}

// AuthService 认证服务
type AuthService struct {
	db       *gorm.DB
	userRepo *repository.UserRepository
	hasher   *crypto.Hasher
	tokens   *jwt.Manager
	revoker  Revoker
	notifier *notify.Dispatcher
	recorder Recorder
	log      *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	hasher *crypto.Hasher,
	tokens *jwt.Manager,
	revoker Revoker,
	notifier *notify.Dispatcher,
	recorder Recorder,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		db:       db,
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		revoker:  revoker,
		notifier: notifier,
		recorder: recorder,
		log:      logger.OrNop(log).With(logger.Module("auth")),
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"` // 默认 client
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// UpdateProfileRequest 更新个人资料请求
type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Register 注册
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (user *models.User, err error) {
	ctx, span := tracing.Start(ctx, "auth.Register")
	defer func() { tracing.End(span, err) }()

	role := req.Role
	if role == "" {
		role = models.RoleClient
	}
	if !access.ValidRole(role) {
		return nil, errors.ErrInvalidRole
	}
	if !models.SelfRegisterable(role) {
		return nil, errors.ErrRoleNotAllowed
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.ErrInvalidParams.WithMessage("name is required")
	}
	email := utils.NormalizeEmail(req.Email)
	if !utils.ValidateEmail(email) {
		return nil, errors.ErrEmailInvalid
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		exists, err := users.ExistsByEmail(ctx, email, 0)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if exists {
			return errors.ErrEmailExists
		}
		if err := users.Create(ctx, user); err != nil {
			// 并发注册由邮箱唯一索引兜底
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.ErrEmailExists
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", logger.UserID(user.ID), zap.String("role", user.Role))
	if s.recorder != nil {
		s.recorder.RecordRegistration(user.Role)
	}
	s.notifier.Welcome(ctx, user)

	return user, nil
}

// Login 邮箱密码登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (resp *LoginResponse, err error) {
	ctx, span := tracing.Start(ctx, "auth.Login")
	defer func() { tracing.End(span, err) }()

	user, err := s.userRepo.GetByEmail(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	return &LoginResponse{
		Token:     token.AccessToken,
		ExpiresAt: token.ExpiresAt,
		User:      user,
	}, nil
}

// Logout 注销当前令牌，令牌 ID 保存至其过期
func (s *AuthService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil {
		return errors.ErrUnauthorized
	}
	if err := s.revoker.Revoke(ctx, claims.ID, s.tokens.ExpiresIn(claims)); err != nil {
		return errors.ErrCacheError.WithError(err)
	}
	s.log.Info("user logged out", logger.UserID(claims.UserID))
	return nil
}

// LoadActor 以存储中的角色构造操作者
func (s *AuthService) LoadActor(ctx context.Context, userID int64) (access.Actor, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return access.Actor{}, err
	}
	return access.FromUser(user), nil
}

// Profile 获取个人资料
func (s *AuthService) Profile(ctx context.Context, actor access.Actor) (*models.User, error) {
	return s.getUser(ctx, actor.ID)
}

// UpdateProfile 更新个人资料
func (s *AuthService) UpdateProfile(ctx context.Context, actor access.Actor, req *UpdateProfileRequest) (user *models.User, err error) {
	ctx, span := tracing.Start(ctx, "auth.UpdateProfile", tracing.WithUserID(actor.ID))
	defer func() { tracing.End(span, err) }()

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.ErrInvalidParams.WithMessage("name cannot be empty")
		}
		updates["name"] = name
	}
	var email string
	if req.Email != nil {
		email = utils.NormalizeEmail(*req.Email)
		if !utils.ValidateEmail(email) {
			return nil, errors.ErrEmailInvalid
		}
		updates["email"] = email
	}
	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		if email != "" {
			exists, err := users.ExistsByEmail(ctx, email, actor.ID)
			if err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			if exists {
				return errors.ErrEmailExists
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := users.UpdateFields(ctx, actor.ID, updates); err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.ErrEmailExists
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.getUser(ctx, actor.ID)
}

func (s *AuthService) getUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", errors.ErrPasswordTooShort
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if stderrors.Is(err, crypto.ErrPasswordTooLong) {
			return "", errors.ErrInvalidParams.WithMessage("password is too long")
		}
		return "", errors.ErrInternalError.WithError(err)
	}
	return hash, nil
}
