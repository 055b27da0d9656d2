package repository

import (
	"errors"

	"sokoni/internal/models"

	"gorm.io/gorm"
)

var ErrInsufficientCredits = errors.New("insufficient credit balance")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List() ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

func (r *UserRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// AddCredits increases a user's credit balance by deltaCents as a single
// additive update, so concurrent credits never lose increments.
func (r *UserRepository) AddCredits(userID uint, deltaCents int64) error {
	res := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("credit_cents", gorm.Expr("credit_cents + ?", deltaCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DebitCredits deducts amountCents, guarded in the same statement so the
// balance can never go negative under concurrent spends.
func (r *UserRepository) DebitCredits(userID uint, amountCents int64) error {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND credit_cents >= ?", userID, amountCents).
		UpdateColumn("credit_cents", gorm.Expr("credit_cents - ?", amountCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the user is gone or the balance is short; disambiguate.
		if _, err := r.GetByID(userID); err != nil {
			return err
		}
		return ErrInsufficientCredits
	}
	return nil
}
