package repository

import (
	"sokoni/internal/domain"
	"sokoni/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) ListAll() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) Update(o *models.Order) error {
	return r.db.Save(o).Error
}

// MarkPaid flips payment_status UNPAID -> PAID with a conditional update;
// returns false if the order was already PAID at write time.
func (r *OrderRepository) MarkPaid(id uint) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, domain.OrderPaymentUnpaid).
		Update("payment_status", domain.OrderPaymentPaid)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
