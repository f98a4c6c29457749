package models

import (
	"math"
	"time"

	"github.com/dumeirei/spacer-backend/internal/common/utils"
)

// Booking 预订模型
// 创建后仅 Status 可变，时长与总价由起止时间和场地时价推导
type Booking struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientID      int64     `gorm:"index;not null" json:"client_id"`
	SpaceID       int64     `gorm:"index;not null" json:"space_id"`
	StartDatetime time.Time `gorm:"not null" json:"start_datetime"`
	EndDatetime   time.Time `gorm:"not null" json:"end_datetime"`
	DurationHours int       `gorm:"not null" json:"duration_hours"`
	TotalPrice    float64   `gorm:"type:decimal(10,2);not null" json:"total_price"`
	Status        string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Client *User  `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT" json:"client,omitempty"`
	Space  *Space `gorm:"foreignKey:SpaceID;constraint:OnDelete:RESTRICT" json:"space,omitempty"`
}

// TableName 表名
func (Booking) TableName() string {
	return "bookings"
}

// BookingStatus 预订状态
const (
	BookingStatusPending   = "pending"   // 待确认
	BookingStatusConfirmed = "confirmed" // 已确认
	BookingStatusDeclined  = "declined"  // 已拒绝
	BookingStatusCancelled = "cancelled" // 已取消
)

// bookingTransitions 状态机，仅 pending 可流转
var bookingTransitions = map[string][]string{
	BookingStatusPending: {BookingStatusConfirmed, BookingStatusDeclined, BookingStatusCancelled},
}

// CanTransitionTo 判断能否流转到目标状态
func (b *Booking) CanTransitionTo(status string) bool {
	for _, next := range bookingTransitions[b.Status] {
		if next == status {
			return true
		}
	}
	return false
}

// IsPayable 已取消或已拒绝的预订不可支付
func (b *Booking) IsPayable() bool {
	return b.Status != BookingStatusCancelled && b.Status != BookingStatusDeclined
}

// ClientUserID 预订客户
func (b *Booking) ClientUserID() int64 {
	return b.ClientID
}

// OwnerUserID 预订场地的所有者，需预加载 Space
func (b *Booking) OwnerUserID() int64 {
	if b.Space == nil {
		return 0
	}
	return b.Space.OwnerID
}

// DurationHours 整小时数，不足一小时舍去
func DurationHours(start, end time.Time) int {
	return int(math.Floor(end.Sub(start).Seconds() / 3600))
}

// TotalPrice 时价乘以时长，保留两位小数
func TotalPrice(pricePerHour float64, hours int) float64 {
	return utils.RoundMoney(pricePerHour * float64(hours))
}
