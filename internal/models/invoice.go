package models

import (
	"time"
)

// Invoice 发票，每个预订最多一张
type Invoice struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID  int64     `gorm:"uniqueIndex;not null" json:"booking_id"`
	ClientID   int64     `gorm:"index;not null" json:"client_id"`
	InvoiceNo  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"invoice_no"`
	InvoiceURL string    `gorm:"type:varchar(500);not null" json:"invoice_url"`
	IssuedAt   time.Time `gorm:"not null" json:"issued_at"`

	// 关联
	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnDelete:RESTRICT" json:"booking,omitempty"`
	Client  *User    `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT" json:"client,omitempty"`
}

// TableName 表名
func (Invoice) TableName() string {
	return "invoices"
}

// ClientUserID 发票客户
func (i *Invoice) ClientUserID() int64 {
	return i.ClientID
}

// OwnerUserID 发票对应场地的所有者，需预加载 Booking.Space
func (i *Invoice) OwnerUserID() int64 {
	if i.Booking == nil {
		return 0
	}
	return i.Booking.OwnerUserID()
}
