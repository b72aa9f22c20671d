package repository

import (
	"go-stockcount-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationRepository interface {
	Create(loc *model.Location) error
	FindByID(tenantID, id uuid.UUID) (*model.Location, error)
	FindAll(tenantID uuid.UUID) ([]model.Location, error)
}

type locationRepo struct {
	db *gorm.DB
}

func NewLocationRepo(db *gorm.DB) LocationRepository {
	return &locationRepo{db}
}

func (r *locationRepo) Create(loc *model.Location) error {
	return r.db.Create(loc).Error
}

func (r *locationRepo) FindByID(tenantID, id uuid.UUID) (*model.Location, error) {
	var loc model.Location
	err := r.db.First(&loc, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepo) FindAll(tenantID uuid.UUID) ([]model.Location, error) {
	var locs []model.Location
	err := r.db.Where("tenant_id = ?", tenantID).Order("name ASC").Find(&locs).Error
	return locs, err
}
