// Package space 提供场地发布与管理服务
package space

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/logger"
	"github.com/dumeirei/spacer-backend/internal/common/tracing"
	"github.com/dumeirei/spacer-backend/internal/common/utils"
	"github.com/dumeirei/spacer-backend/internal/models"
	"github.com/dumeirei/spacer-backend/internal/repository"
	"github.com/dumeirei/spacer-backend/internal/service/access"
	"github.com/dumeirei/spacer-backend/pkg/oss"
)

// ImagePrefix 场地图片对象键前缀
const ImagePrefix = "spaces"

// SpaceService 场地服务
type SpaceService struct {
	db           *gorm.DB
	spaceRepo    *repository.SpaceRepository
	uploader     oss.Uploader
	maxImageSize int64
	log          *zap.Logger
}

// NewSpaceService 创建场地服务
func NewSpaceService(
	db *gorm.DB,
	spaceRepo *repository.SpaceRepository,
	uploader oss.Uploader,
	maxImageSize int64,
	log *zap.Logger,
) *SpaceService {
	return &SpaceService{
		db:           db,
		spaceRepo:    spaceRepo,
		uploader:     uploader,
		maxImageSize: maxImageSize,
		log:          logger.OrNop(log).With(logger.Module("space")),
	}
}

// CreateSpaceRequest 创建场地请求
type CreateSpaceRequest struct {
	Title        string   `json:"title" binding:"required,max=150"`
	Description  string   `json:"description"`
	Location     string   `json:"location" binding:"required,max=255"`
	Capacity     int      `json:"capacity"`
	Amenities    []string `json:"amenities"`
	PricePerHour float64  `json:"price_per_hour"`
	PricePerDay  float64  `json:"price_per_day"`
	IsAvailable  *bool    `json:"is_available"` // 默认 true
	Image        string   `json:"image"`        // data URI 或 base64
}

// UpdateSpaceRequest 更新场地请求，未提供的字段保持不变
type UpdateSpaceRequest struct {
	Title        *string   `json:"title" binding:"omitempty,max=150"`
	Description  *string   `json:"description"`
	Location     *string   `json:"location" binding:"omitempty,max=255"`
	Capacity     *int      `json:"capacity"`
	Amenities    *[]string `json:"amenities"`
	PricePerHour *float64  `json:"price_per_hour"`
	PricePerDay  *float64  `json:"price_per_day"`
	IsAvailable  *bool     `json:"is_available"`
	Image        *string   `json:"image"`
}

// ListSpacesRequest 场地列表请求
type ListSpacesRequest struct {
	Location    string
	MinCapacity int
	Offset      int
	Limit       int
}

// CreateSpace 发布场地
func (s *SpaceService) CreateSpace(ctx context.Context, actor access.Actor, req *CreateSpaceRequest) (space *models.Space, err error) {
	ctx, span := tracing.Start(ctx, "space.CreateSpace", tracing.WithUserID(actor.ID))
	defer func() { tracing.End(span, err) }()

	if !access.HasRole(actor, access.RoleOwner, access.RoleAdmin) {
		return nil, errors.ErrPermissionDenied
	}

	title := strings.TrimSpace(req.Title)
	location := strings.TrimSpace(req.Location)
	if title == "" {
		return nil, errors.ErrInvalidParams.WithMessage("title is required")
	}
	if location == "" {
		return nil, errors.ErrInvalidParams.WithMessage("location is required")
	}
	if err := validateNumbers(req.Capacity, req.PricePerHour, req.PricePerDay); err != nil {
		return nil, err
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	space = &models.Space{
		OwnerID:      actor.ID,
		Title:        title,
		Description:  req.Description,
		Location:     location,
		Capacity:     req.Capacity,
		Amenities:    datatypes.JSONSlice[string](normalizeAmenities(req.Amenities)),
		PricePerHour: utils.RoundMoney(req.PricePerHour),
		PricePerDay:  utils.RoundMoney(req.PricePerDay),
		IsAvailable:  available,
	}

	var objectKey string
	if req.Image != "" {
		url, key, err := s.uploadImage(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		space.MainImageURL = &url
		objectKey = key
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.spaceRepo.WithTx(tx).Create(ctx, space); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		s.discardImage(ctx, objectKey)
		return nil, err
	}

	s.log.Info("space created", logger.SpaceID(space.ID), logger.UserID(actor.ID))
	return space, nil
}

// ListSpaces 公开场地列表，仅返回可预订的场地
func (s *SpaceService) ListSpaces(ctx context.Context, req *ListSpacesRequest) ([]*models.Space, int64, error) {
	spaces, total, err := s.spaceRepo.List(ctx, req.Offset, req.Limit, repository.SpaceFilter{
		Location:      strings.TrimSpace(req.Location),
		MinCapacity:   req.MinCapacity,
		AvailableOnly: true,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return spaces, total, nil
}

// ListMySpaces 当前所有者的场地（含不可预订）
func (s *SpaceService) ListMySpaces(ctx context.Context, actor access.Actor, offset, limit int) ([]*models.Space, int64, error) {
	if !access.HasRole(actor, access.RoleOwner, access.RoleAdmin) {
		return nil, 0, errors.ErrPermissionDenied
	}
	spaces, total, err := s.spaceRepo.List(ctx, offset, limit, repository.SpaceFilter{OwnerID: actor.ID})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return spaces, total, nil
}

// GetSpace 获取场地详情
func (s *SpaceService) GetSpace(ctx context.Context, id int64) (*models.Space, error) {
	return getSpace(ctx, s.spaceRepo, id)
}

// UpdateSpace 更新场地，仅所有者或管理员
func (s *SpaceService) UpdateSpace(ctx context.Context, actor access.Actor, id int64, req *UpdateSpaceRequest) (space *models.Space, err error) {
	ctx, span := tracing.Start(ctx, "space.UpdateSpace", tracing.WithSpaceID(id))
	defer func() { tracing.End(span, err) }()

	updates, err := buildUpdates(req)
	if err != nil {
		return nil, err
	}

	var objectKey string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		spaces := s.spaceRepo.WithTx(tx)
		current, err := getSpace(ctx, spaces, id)
		if err != nil {
			return err
		}
		if !access.CanManage(actor, current) {
			return errors.ErrPermissionDenied
		}

		if req.Image != nil && *req.Image != "" {
			url, key, err := s.uploadImage(ctx, *req.Image)
			if err != nil {
				return err
			}
			updates["main_image_url"] = url
			objectKey = key
		}
		if len(updates) == 0 {
			return nil
		}
		if err := spaces.UpdateFields(ctx, id, updates); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		s.discardImage(ctx, objectKey)
		return nil, err
	}

	return getSpace(ctx, s.spaceRepo, id)
}

// DeleteSpace 删除场地，存在预订时拒绝
func (s *SpaceService) DeleteSpace(ctx context.Context, actor access.Actor, id int64) (err error) {
	ctx, span := tracing.Start(ctx, "space.DeleteSpace", tracing.WithSpaceID(id))
	defer func() { tracing.End(span, err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		spaces := s.spaceRepo.WithTx(tx)
		current, err := getSpace(ctx, spaces, id)
		if err != nil {
			return err
		}
		if !access.CanManage(actor, current) {
			return errors.ErrPermissionDenied
		}

		count, err := spaces.CountBookings(ctx, id)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if count > 0 {
			return errors.ErrSpaceHasBookings
		}
		if err := spaces.Delete(ctx, id); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("space deleted", logger.SpaceID(id), logger.UserID(actor.ID))
	return nil
}

// uploadImage 上传场地主图，返回 URL 与对象键
func (s *SpaceService) uploadImage(ctx context.Context, input string) (string, string, error) {
	if s.uploader == nil {
		return "", "", errors.ErrImageUploadFailed.WithMessage("image upload is not configured")
	}

	img, err := oss.DecodeImage(input, s.maxImageSize)
	if err != nil {
		if stderrors.Is(err, oss.ErrImageTooLarge) {
			return "", "", errors.ErrInvalidImage.WithMessage("image exceeds the maximum upload size")
		}
		return "", "", errors.ErrInvalidImage.WithError(err)
	}

	key := oss.GenerateObjectKey(ImagePrefix, img.Ext)
	url, err := s.uploader.Upload(ctx, key, img.Data, img.ContentType)
	if err != nil {
		s.log.Error("image upload failed", zap.String("key", key), zap.Error(err))
		return "", "", errors.ErrImageUploadFailed.WithError(err)
	}
	return url, key, nil
}

// discardImage 写库失败时清理已上传的图片
func (s *SpaceService) discardImage(ctx context.Context, key string) {
	if key == "" || s.uploader == nil {
		return
	}
	if err := s.uploader.Delete(ctx, key); err != nil {
		s.log.Warn("discard uploaded image failed", zap.String("key", key), zap.Error(err))
	}
}

func getSpace(ctx context.Context, spaces *repository.SpaceRepository, id int64) (*models.Space, error) {
	space, err := spaces.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrSpaceNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return space, nil
}

func validateNumbers(capacity int, pricePerHour, pricePerDay float64) error {
	if capacity < 1 {
		return errors.ErrInvalidParams.WithMessage("capacity must be at least 1")
	}
	if pricePerHour <= 0 {
		return errors.ErrInvalidParams.WithMessage("price_per_hour must be greater than zero")
	}
	if pricePerDay < 0 {
		return errors.ErrInvalidParams.WithMessage("price_per_day cannot be negative")
	}
	return nil
}

func buildUpdates(req *UpdateSpaceRequest) (map[string]interface{}, error) {
	updates := make(map[string]interface{})
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, errors.ErrInvalidParams.WithMessage("title cannot be empty")
		}
		updates["title"] = title
	}
	if req.Location != nil {
		location := strings.TrimSpace(*req.Location)
		if location == "" {
			return nil, errors.ErrInvalidParams.WithMessage("location cannot be empty")
		}
		updates["location"] = location
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return nil, errors.ErrInvalidParams.WithMessage("capacity must be at least 1")
		}
		updates["capacity"] = *req.Capacity
	}
	if req.PricePerHour != nil {
		if *req.PricePerHour <= 0 {
			return nil, errors.ErrInvalidParams.WithMessage("price_per_hour must be greater than zero")
		}
		updates["price_per_hour"] = utils.RoundMoney(*req.PricePerHour)
	}
	if req.PricePerDay != nil {
		if *req.PricePerDay < 0 {
			return nil, errors.ErrInvalidParams.WithMessage("price_per_day cannot be negative")
		}
		updates["price_per_day"] = utils.RoundMoney(*req.PricePerDay)
	}
	if req.Amenities != nil {
		updates["amenities"] = datatypes.JSONSlice[string](normalizeAmenities(*req.Amenities))
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}
	return updates, nil
}

// normalizeAmenities 去除空白与重复项
func normalizeAmenities(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a != "" && !utils.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}
