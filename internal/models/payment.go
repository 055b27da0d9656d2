package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment is a user's claim of having paid an amount, backed by a screenshot
// artifact and awaiting manual verification by an admin. Status moves from
// PENDING to exactly one of VERIFIED or REJECTED and never again.
type Payment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	AmountCents   int64          `gorm:"not null" json:"amount_cents"`
	ScreenshotURL string         `gorm:"size:512;not null" json:"screenshot_url"`
	Status        string         `gorm:"size:20;not null;index" json:"status"` // PENDING, VERIFIED, REJECTED
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
