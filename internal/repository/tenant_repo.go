package repository

import (
	"go-stockcount-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TenantRepository interface {
	Create(t *model.Tenant) error
	FindByID(id uuid.UUID) (*model.Tenant, error)
	FindByName(name string) (*model.Tenant, error)
}

type tenantRepo struct {
	db *gorm.DB
}

func NewTenantRepo(db *gorm.DB) TenantRepository {
	return &tenantRepo{db}
}

func (r *tenantRepo) Create(t *model.Tenant) error {
	return r.db.Create(t).Error
}

func (r *tenantRepo) FindByID(id uuid.UUID) (*model.Tenant, error) {
	var t model.Tenant
	if err := r.db.First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepo) FindByName(name string) (*model.Tenant, error) {
	var t model.Tenant
	if err := r.db.First(&t, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
