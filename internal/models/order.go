package models

import (
	"time"

	"gorm.io/gorm"
)

type Order struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	ItemType      string         `gorm:"size:20;not null" json:"item_type"` // PRODUCT | SERVICE
	ItemID        uint           `gorm:"not null" json:"item_id"`
	Quantity      int            `gorm:"not null;default:1" json:"quantity"`
	TotalCents    int64          `gorm:"not null" json:"total_cents"`
	Status        string         `gorm:"size:20;not null;index" json:"status"`         // PLACED, CONFIRMED, DELIVERED, CANCELLED
	PaymentStatus string         `gorm:"size:20;not null;index" json:"payment_status"` // UNPAID, PAID
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}
