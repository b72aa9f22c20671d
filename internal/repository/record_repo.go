package repository

import (
	"go-stockcount-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecordRepository interface {
	FindBySession(sessionID uuid.UUID) ([]model.CountRecord, error)
	RecentWeights(tenantID, itemID uuid.UUID, limit int) ([]float64, error)

	// Tx-scoped operations used inside db.Transaction blocks.
	FindBySessionItem(tx *gorm.DB, sessionID, itemID uuid.UUID) (*model.CountRecord, error)
	Create(tx *gorm.DB, rec *model.CountRecord) error
	Save(tx *gorm.DB, rec *model.CountRecord) error
}

type recordRepo struct {
	db *gorm.DB
}

func NewRecordRepo(db *gorm.DB) RecordRepository {
	return &recordRepo{db}
}

func (r *recordRepo) FindBySession(sessionID uuid.UUID) ([]model.CountRecord, error) {
	var records []model.CountRecord
	err := r.db.Preload("Item").
		Where("session_id = ?", sessionID).
		Order("counted_at ASC").
		Find(&records).Error
	return records, err
}

// RecentWeights returns the most recent measured weights for an item,
// oldest first, for the outlier history window.
func (r *recordRepo) RecentWeights(tenantID, itemID uuid.UUID, limit int) ([]float64, error) {
	var weights []float64
	err := r.db.Model(&model.CountRecord{}).
		Where("tenant_id = ? AND item_id = ? AND measured_weight_g IS NOT NULL", tenantID, itemID).
		Order("counted_at DESC").
		Limit(limit).
		Pluck("measured_weight_g", &weights).Error
	if err != nil {
		return nil, err
	}
	// reverse into chronological order
	for i, j := 0, len(weights)-1; i < j; i, j = i+1, j-1 {
		weights[i], weights[j] = weights[j], weights[i]
	}
	return weights, nil
}

func (r *recordRepo) FindBySessionItem(tx *gorm.DB, sessionID, itemID uuid.UUID) (*model.CountRecord, error) {
	var rec model.CountRecord
	err := tx.First(&rec, "session_id = ? AND item_id = ?", sessionID, itemID).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recordRepo) Create(tx *gorm.DB, rec *model.CountRecord) error {
	return tx.Create(rec).Error
}

func (r *recordRepo) Save(tx *gorm.DB, rec *model.CountRecord) error {
	return tx.Save(rec).Error
}
