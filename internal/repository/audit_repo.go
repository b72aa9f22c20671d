package repository

import (
	"go-stockcount-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(entry *model.CountAuditLog) error
	FindBySession(tenantID, sessionID uuid.UUID) ([]model.CountAuditLog, error)
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db}
}

func (r *auditRepo) Create(entry *model.CountAuditLog) error {
	return r.db.Create(entry).Error
}

func (r *auditRepo) FindBySession(tenantID, sessionID uuid.UUID) ([]model.CountAuditLog, error) {
	var entries []model.CountAuditLog
	err := r.db.
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
