package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/spacer-backend/internal/common/database"
	"github.com/dumeirei/spacer-backend/internal/models"
)

// BookingRepository 预订仓储
type BookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository 创建预订仓储
func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

// Create 创建预订
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// GetByID 根据 ID 获取预订（包含场地）
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Preload("Space").First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetForUpdate 获取预订并加行锁（包含场地）
func (r *BookingRepository) GetForUpdate(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	var space models.Space
	if err := r.db.WithContext(ctx).First(&space, booking.SpaceID).Error; err != nil {
		return nil, err
	}
	booking.Space = &space
	return &booking, nil
}

// UpdateStatus 更新预订状态
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Update("status", status).Error
}

// BookingFilter 预订列表过滤条件
type BookingFilter struct {
	ClientID int64
	OwnerID  int64 // 按场地所有者过滤
	SpaceID  int64
	Status   string
}

// List 获取预订列表
func (r *BookingRepository) List(ctx context.Context, offset, limit int, filter BookingFilter) ([]*models.Booking, int64, error) {
	var bookings []*models.Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Booking{})
	if filter.OwnerID > 0 {
		query = query.
			Joins("JOIN spaces ON spaces.id = bookings.space_id").
			Where("spaces.owner_id = ?", filter.OwnerID)
	}
	if filter.ClientID > 0 {
		query = query.Where("bookings.client_id = ?", filter.ClientID)
	}
	if filter.SpaceID > 0 {
		query = query.Where("bookings.space_id = ?", filter.SpaceID)
	}
	if filter.Status != "" {
		query = query.Where("bookings.status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Space").
		Order("bookings.created_at DESC").Order("bookings.id DESC").
		Scopes(database.Paginate(offset, limit)).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}
