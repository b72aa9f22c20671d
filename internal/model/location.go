package model

import "github.com/google/uuid"

// Location is a countable storage area (walk-in, dry storage, bar well, ...).
type Location struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id" validate:"uuid_required"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	IsActive bool      `gorm:"default:true" json:"is_active"`
}
