package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/spacer-backend/internal/common/database"
	"github.com/dumeirei/spacer-backend/internal/models"
)

// PaymentRepository 支付仓储
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

// Create 创建支付记录
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByID 根据 ID 获取支付记录（包含预订及场地）
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Preload("Booking.Space").First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetForUpdate 获取支付记录并加行锁（包含预订及场地）
func (r *PaymentRepository) GetForUpdate(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	var booking models.Booking
	if err := r.db.WithContext(ctx).Preload("Space").First(&booking, payment.BookingID).Error; err != nil {
		return nil, err
	}
	payment.Booking = &booking
	return &payment, nil
}

// UpdateFields 更新指定字段
func (r *PaymentRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", id).Updates(fields).Error
}

// PaymentFilter 支付列表过滤条件
type PaymentFilter struct {
	ClientID  int64
	OwnerID   int64 // 按场地所有者过滤
	BookingID int64
	Status    string
}

// List 获取支付列表
func (r *PaymentRepository) List(ctx context.Context, offset, limit int, filter PaymentFilter) ([]*models.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payment{})
	if filter.OwnerID > 0 {
		query = query.
			Joins("JOIN bookings ON bookings.id = payments.booking_id").
			Joins("JOIN spaces ON spaces.id = bookings.space_id").
			Where("spaces.owner_id = ?", filter.OwnerID)
	}
	if filter.ClientID > 0 {
		query = query.Where("payments.client_id = ?", filter.ClientID)
	}
	if filter.BookingID > 0 {
		query = query.Where("payments.booking_id = ?", filter.BookingID)
	}
	if filter.Status != "" {
		query = query.Where("payments.payment_status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("payments.created_at DESC").Order("payments.id DESC").
		Scopes(database.Paginate(offset, limit)).
		Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}
