package repository

import (
	"go-stockcount-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScanRepository interface {
	// Create inserts the scan log row; a replay of the same logical event
	// surfaces gorm.ErrDuplicatedKey via the dedup index.
	Create(ev *model.ScanEvent) error
	FindAll(tenantID uuid.UUID, limit int) ([]model.ScanEvent, error)
}

type scanRepo struct {
	db *gorm.DB
}

func NewScanRepo(db *gorm.DB) ScanRepository {
	return &scanRepo{db}
}

func (r *scanRepo) Create(ev *model.ScanEvent) error {
	return r.db.Create(ev).Error
}

func (r *scanRepo) FindAll(tenantID uuid.UUID, limit int) ([]model.ScanEvent, error) {
	var events []model.ScanEvent
	q := r.db.Where("tenant_id = ?", tenantID).Order("captured_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&events).Error
	return events, err
}
