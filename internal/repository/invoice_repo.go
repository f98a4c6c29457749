package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/database"
	"github.com/dumeirei/spacer-backend/internal/models"
)

// InvoiceRepository 发票仓储
type InvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository 创建发票仓储
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *InvoiceRepository) WithTx(tx *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: tx}
}

// Create 创建发票
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

// GetByID 根据 ID 获取发票（包含预订及场地）
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).Preload("Booking.Space").First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ExistsForBooking 预订是否已开票
func (r *InvoiceRepository) ExistsForBooking(ctx context.Context, bookingID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("booking_id = ?", bookingID).Count(&count).Error
	return count > 0, err
}

// InvoiceFilter 发票列表过滤条件
type InvoiceFilter struct {
	ClientID int64
	OwnerID  int64 // 按场地所有者过滤
}

// List 获取发票列表
func (r *InvoiceRepository) List(ctx context.Context, offset, limit int, filter InvoiceFilter) ([]*models.Invoice, int64, error) {
	var invoices []*models.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Invoice{})
	if filter.OwnerID > 0 {
		query = query.
			Joins("JOIN bookings ON bookings.id = invoices.booking_id").
			Joins("JOIN spaces ON spaces.id = bookings.space_id").
			Where("spaces.owner_id = ?", filter.OwnerID)
	}
	if filter.ClientID > 0 {
		query = query.Where("invoices.client_id = ?", filter.ClientID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("invoices.issued_at DESC").Order("invoices.id DESC").
		Scopes(database.Paginate(offset, limit)).
		Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}
