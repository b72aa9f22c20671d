package repository

import (
	"go-stockcount-ws/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepository manages the MANAGER/COUNTER roles and their privilege
// grants. Roles always load with privileges preloaded: the auth layer
// flattens them into the token on every login.
type RoleRepository interface {
	FindAll() ([]model.Role, error)
	FindByID(id uint) (*model.Role, error)
	FindByCode(code string) (*model.Role, error)
	AssignPrivileges(role *model.Role, privileges []model.Privilege) error
	SeedDefaults() error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll() ([]model.Role, error) {
	var roles []model.Role
	err := r.db.Preload("Privileges").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(id uint) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").First(&role, id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// AssignPrivileges replaces the role's grant set wholesale.
func (r *roleRepo) AssignPrivileges(role *model.Role, privileges []model.Privilege) error {
	return r.db.Model(role).Association("Privileges").Replace(privileges)
}

// SeedDefaults installs the role catalog; existing codes are left as-is
// so locally adjusted grants survive a restart.
func (r *roleRepo) SeedDefaults() error {
	roles := make([]model.Role, len(model.DefaultRoles))
	copy(roles, model.DefaultRoles)
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&roles).Error
}
