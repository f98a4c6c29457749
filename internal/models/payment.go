package models

import (
	"time"
)

// Payment 支付记录
type Payment struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID     int64      `gorm:"index;not null" json:"booking_id"`
	ClientID      int64      `gorm:"index;not null" json:"client_id"`
	Amount        float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod string     `gorm:"type:varchar(50);not null;default:'card'" json:"payment_method"`
	PaymentStatus string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnDelete:RESTRICT" json:"booking,omitempty"`
	Client  *User    `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT" json:"client,omitempty"`
}

// TableName 表名
func (Payment) TableName() string {
	return "payments"
}

// PaymentStatus 支付状态
const (
	PaymentStatusPending   = "pending"   // 待确认
	PaymentStatusCompleted = "completed" // 已完成
	PaymentStatusFailed    = "failed"    // 失败
)

// DefaultPaymentMethod 默认支付方式
const DefaultPaymentMethod = "card"

// IsPending 是否待确认
func (p *Payment) IsPending() bool {
	return p.PaymentStatus == PaymentStatusPending
}

// ClientUserID 付款客户
func (p *Payment) ClientUserID() int64 {
	return p.ClientID
}

// OwnerUserID 支付对应场地的所有者，需预加载 Booking.Space
func (p *Payment) OwnerUserID() int64 {
	if p.Booking == nil {
		return 0
	}
	return p.Booking.OwnerUserID()
}
