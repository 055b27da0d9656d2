package repository

import (
	"errors"

	"sokoni/internal/domain"
	"sokoni/internal/models"

	"gorm.io/gorm"
)

var (
	ErrInvalidAmount     = errors.New("amount must be a positive number of cents")
	ErrMissingScreenshot = errors.New("payment screenshot reference is required")
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new PENDING payment. Amount and screenshot reference are
// validated here so no record can exist without them.
func (r *PaymentRepository) Create(p *models.Payment) error {
	if p.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if p.ScreenshotURL == "" {
		return ErrMissingScreenshot
	}
	p.Status = domain.PaymentStatusPending
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByUser returns a user's payments, newest first.
func (r *PaymentRepository) ListByUser(userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// ListAll returns every payment with unresolved work surfaced first: PENDING
// before resolved, oldest first within each group.
func (r *PaymentRepository) ListAll() ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.
		Order("CASE WHEN status = '" + domain.PaymentStatusPending + "' THEN 0 ELSE 1 END").
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

// Resolve moves a payment out of PENDING with a single conditional update.
// It returns false when the stored status was no longer PENDING at write
// time, so of two concurrent callers exactly one wins.
func (r *PaymentRepository) Resolve(id uint, newStatus string) (bool, error) {
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatusPending).
		Update("status", newStatus)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
