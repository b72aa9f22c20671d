package model

// Tenant is one restaurant account. Every domain row is scoped to a tenant
// and lookups outside the owning tenant behave as not-found.
type Tenant struct {
	BaseModel
	Name     string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}
