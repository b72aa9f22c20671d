package repository

import (
	"go-stockcount-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	Create(s *model.CountSession) error
	FindByID(tenantID, id uuid.UUID) (*model.CountSession, error)
	FindOpenByLocation(tenantID, locationID uuid.UUID) (*model.CountSession, error)
	FindAll(tenantID uuid.UUID, status model.SessionStatus) ([]model.CountSession, error)

	// Tx-scoped operations used inside db.Transaction blocks.
	LockByID(tx *gorm.DB, tenantID, id uuid.UUID) (*model.CountSession, error)
	Save(tx *gorm.DB, s *model.CountSession) error
	IncrementCounted(tx *gorm.DB, id uuid.UUID) error
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db}
}

func (r *sessionRepo) Create(s *model.CountSession) error {
	return r.db.Create(s).Error
}

func (r *sessionRepo) FindByID(tenantID, id uuid.UUID) (*model.CountSession, error) {
	var s model.CountSession
	err := r.db.Preload("Location").
		First(&s, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindOpenByLocation returns the single active-or-paused session for the
// location, or gorm.ErrRecordNotFound when none is open.
func (r *sessionRepo) FindOpenByLocation(tenantID, locationID uuid.UUID) (*model.CountSession, error) {
	var s model.CountSession
	err := r.db.
		Where("tenant_id = ? AND location_id = ? AND status IN ?",
			tenantID, locationID, []model.SessionStatus{model.SessionActive, model.SessionPaused}).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindAll(tenantID uuid.UUID, status model.SessionStatus) ([]model.CountSession, error) {
	var sessions []model.CountSession
	q := r.db.Preload("Location").Where("tenant_id = ?", tenantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("started_at DESC").Find(&sessions).Error
	return sessions, err
}

// LockByID fetches the session row FOR UPDATE so concurrent recordCount
// calls serialize on the session.
func (r *sessionRepo) LockByID(tx *gorm.DB, tenantID, id uuid.UUID) (*model.CountSession, error) {
	var s model.CountSession
	err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&s, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Save(tx *gorm.DB, s *model.CountSession) error {
	return tx.Save(s).Error
}

// IncrementCounted bumps counted_items_count atomically; paired with the
// record insert in the same transaction so progress never drifts.
func (r *sessionRepo) IncrementCounted(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&model.CountSession{}).
		Where("id = ?", id).
		UpdateColumn("counted_items_count", gorm.Expr("counted_items_count + ?", 1)).Error
}
