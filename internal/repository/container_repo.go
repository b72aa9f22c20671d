package repository

import (
	"go-stockcount-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContainerTypeRepository interface {
	Create(ct *model.ContainerType) error
	FindByID(tenantID, id uuid.UUID) (*model.ContainerType, error)
	FindAll(tenantID uuid.UUID) ([]model.ContainerType, error)
}

type containerTypeRepo struct {
	db *gorm.DB
}

func NewContainerTypeRepo(db *gorm.DB) ContainerTypeRepository {
	return &containerTypeRepo{db}
}

func (r *containerTypeRepo) Create(ct *model.ContainerType) error {
	return r.db.Create(ct).Error
}

func (r *containerTypeRepo) FindByID(tenantID, id uuid.UUID) (*model.ContainerType, error) {
	var ct model.ContainerType
	err := r.db.First(&ct, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *containerTypeRepo) FindAll(tenantID uuid.UUID) ([]model.ContainerType, error) {
	var cts []model.ContainerType
	err := r.db.Where("tenant_id = ?", tenantID).Order("name ASC").Find(&cts).Error
	return cts, err
}
