package repository

import (
	"go-stockcount-ws/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PrivilegeRepository reads the fixed privilege catalog. Privileges are
// seed data, not user-editable; the only write path is SeedDefaults.
type PrivilegeRepository interface {
	FindByCodes(codes []string) ([]model.Privilege, error)
	FindAll() ([]model.Privilege, error)
	SeedDefaults() error
}

type privilegeRepo struct {
	db *gorm.DB
}

func NewPrivilegeRepo(db *gorm.DB) PrivilegeRepository {
	return &privilegeRepo{db}
}

func (r *privilegeRepo) FindByCodes(codes []string) ([]model.Privilege, error) {
	var privileges []model.Privilege
	if err := r.db.Where("code IN ?", codes).Order("id").Find(&privileges).Error; err != nil {
		return nil, err
	}
	return privileges, nil
}

func (r *privilegeRepo) FindAll() ([]model.Privilege, error) {
	var privileges []model.Privilege
	if err := r.db.Order("id").Find(&privileges).Error; err != nil {
		return nil, err
	}
	return privileges, nil
}

// SeedDefaults installs the privilege catalog in one batch. Codes that
// already exist are left untouched, so reseeding on every boot is safe.
func (r *privilegeRepo) SeedDefaults() error {
	privileges := make([]model.Privilege, len(model.DefaultPrivileges))
	copy(privileges, model.DefaultPrivileges)
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&privileges).Error
}
