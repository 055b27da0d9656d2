package repository

import (
	"sokoni/internal/models"

	"gorm.io/gorm"
)

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Create(s *models.Service) error {
	return r.db.Create(s).Error
}

func (r *ServiceRepository) GetByID(id uint) (*models.Service, error) {
	var s models.Service
	err := r.db.First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServiceRepository) List() ([]models.Service, error) {
	var services []models.Service
	err := r.db.Order("created_at DESC").Find(&services).Error
	return services, err
}

func (r *ServiceRepository) ListByCategory(category string) ([]models.Service, error) {
	var services []models.Service
	err := r.db.Where("category = ?", category).Order("created_at DESC").Find(&services).Error
	return services, err
}

func (r *ServiceRepository) Update(s *models.Service) error {
	return r.db.Save(s).Error
}

func (r *ServiceRepository) Delete(id uint) error {
	return r.db.Delete(&models.Service{}, id).Error
}
