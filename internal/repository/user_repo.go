// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/database"
	"github.com/dumeirei/spacer-backend/internal/models"
)

// UserRepository 用户仓储
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID 根据 ID 获取用户
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail 根据邮箱获取用户
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByEmail 检查邮箱是否已被其他用户占用，excludeID 为 0 时不排除
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateFields 更新指定字段
func (r *UserRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除用户
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, id).Error
}

// UserFilter 用户列表过滤条件
type UserFilter struct {
	Role    string
	Keyword string // 匹配姓名或邮箱
}

// List 获取用户列表
func (r *UserRepository) List(ctx context.Context, offset, limit int, filter UserFilter) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Scopes(database.OrderByCreatedDesc, database.Paginate(offset, limit)).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// UserRecordCounts 用户关联记录数
type UserRecordCounts struct {
	Spaces   int64
	Bookings int64
	Payments int64
}

// Any 是否存在任何关联记录
func (c UserRecordCounts) Any() bool {
	return c.Spaces > 0 || c.Bookings > 0 || c.Payments > 0
}

// CountRecords 统计用户拥有的场地及其名下的预订和支付
func (r *UserRepository) CountRecords(ctx context.Context, userID int64) (UserRecordCounts, error) {
	var counts UserRecordCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Space{}).Where("owner_id = ?", userID).Count(&counts.Spaces).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&models.Booking{}).Where("client_id = ?", userID).Count(&counts.Bookings).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&models.Payment{}).Where("client_id = ?", userID).Count(&counts.Payments).Error; err != nil {
		return counts, err
	}
	return counts, nil
}
