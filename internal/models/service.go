package models

import (
	"time"

	"gorm.io/gorm"
)

// Service is a bookable offering (cleaning, repair, ...) as opposed to a
// physical Product; it has no stock.
type Service struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	PriceCents  int64          `gorm:"not null" json:"price_cents"`
	Category    string         `gorm:"size:64;index" json:"category"`
	ImageURL    string         `gorm:"size:512" json:"image_url"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Service) TableName() string {
	return "services"
}
