package models

import (
	"time"

	"gorm.io/datatypes"
)

// Space 场地模型
type Space struct {
	ID           int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID      int64                       `gorm:"index;not null" json:"owner_id"`
	Title        string                      `gorm:"type:varchar(150);not null" json:"title"`
	Description  string                      `gorm:"type:text" json:"description"`
	Location     string                      `gorm:"type:varchar(255);not null;index" json:"location"`
	Capacity     int                         `gorm:"not null" json:"capacity"`
	Amenities    datatypes.JSONSlice[string] `json:"amenities"`
	PricePerHour float64                     `gorm:"type:decimal(10,2);not null" json:"price_per_hour"`
	PricePerDay  float64                     `gorm:"type:decimal(10,2);not null;default:0" json:"price_per_day"`
	IsAvailable  bool                        `gorm:"not null;default:true;index" json:"is_available"`
	MainImageURL *string                     `gorm:"type:varchar(500)" json:"main_image_url,omitempty"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"owner,omitempty"`
}

// TableName 表名
func (Space) TableName() string {
	return "spaces"
}

// OwnerUserID 场地所有者
func (s *Space) OwnerUserID() int64 {
	return s.OwnerID
}
