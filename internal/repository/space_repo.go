package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/database"
	"github.com/dumeirei/spacer-backend/internal/models"
)

// SpaceRepository 场地仓储
type SpaceRepository struct {
	db *gorm.DB
}

// NewSpaceRepository 创建场地仓储
func NewSpaceRepository(db *gorm.DB) *SpaceRepository {
	return &SpaceRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *SpaceRepository) WithTx(tx *gorm.DB) *SpaceRepository {
	return &SpaceRepository{db: tx}
}

// Create 创建场地
func (r *SpaceRepository) Create(ctx context.Context, space *models.Space) error {
	available := space.IsAvailable
	if err := r.db.WithContext(ctx).Create(space).Error; err != nil {
		return err
	}
	// 零值 false 会被列默认值 true 覆盖
	if !available {
		space.IsAvailable = false
		return r.db.WithContext(ctx).Model(space).Update("is_available", false).Error
	}
	return nil
}

// GetByID 根据 ID 获取场地
func (r *SpaceRepository) GetByID(ctx context.Context, id int64) (*models.Space, error) {
	var space models.Space
	err := r.db.WithContext(ctx).First(&space, id).Error
	if err != nil {
		return nil, err
	}
	return &space, nil
}

// UpdateFields 更新指定字段
func (r *SpaceRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Space{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除场地
func (r *SpaceRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Space{}, id).Error
}

// CountBookings 统计引用该场地的预订数
func (r *SpaceRepository) CountBookings(ctx context.Context, spaceID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).Where("space_id = ?", spaceID).Count(&count).Error
	return count, err
}

// SpaceFilter 场地列表过滤条件
type SpaceFilter struct {
	OwnerID       int64
	Location      string // 子串匹配
	MinCapacity   int
	AvailableOnly bool
}

// List 获取场地列表
func (r *SpaceRepository) List(ctx context.Context, offset, limit int, filter SpaceFilter) ([]*models.Space, int64, error) {
	var spaces []*models.Space
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Space{})
	if filter.OwnerID > 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Location != "" {
		query = query.Where("LOWER(location) LIKE LOWER(?)", "%"+filter.Location+"%")
	}
	if filter.MinCapacity > 0 {
		query = query.Where("capacity >= ?", filter.MinCapacity)
	}
	if filter.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Scopes(database.OrderByCreatedDesc, database.Paginate(offset, limit)).
		Find(&spaces).Error; err != nil {
		return nil, 0, err
	}

	return spaces, total, nil
}
