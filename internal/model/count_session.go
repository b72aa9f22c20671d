package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
)

// SessionAction is a requested lifecycle transition.
type SessionAction string

const (
	ActionPause  SessionAction = "pause"
	ActionResume SessionAction = "resume"
	ActionCommit SessionAction = "commit"
)

func (a SessionAction) Valid() bool {
	return a == ActionPause || a == ActionResume || a == ActionCommit
}

// CountSession is one counting pass over one location. At most one session
// per (tenant, location) may be open (active or paused) at a time; the
// repository enforces this with a partial unique index and the service
// re-checks before insert.
type CountSession struct {
	BaseModel
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index:idx_sessions_tenant_location;uniqueIndex:idx_sessions_open_location,priority:1" json:"tenant_id"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;index:idx_sessions_tenant_location;uniqueIndex:idx_sessions_open_location,priority:2,where:status <> 'completed' AND deleted_at IS NULL" json:"location_id" validate:"uuid_required"`
	Location   *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`

	StartedByID uuid.UUID `gorm:"type:uuid;not null" json:"started_by_id"`
	StartedBy   *User     `gorm:"foreignKey:StartedByID" json:"started_by,omitempty"`

	Status      SessionStatus `gorm:"type:varchar(10);not null;default:'active'" json:"status"`
	StartedAt   time.Time     `gorm:"not null" json:"started_at"`
	PausedAt    *time.Time    `json:"paused_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`

	// TotalItemsCount is snapshotted at creation, never recomputed.
	TotalItemsCount   int `gorm:"not null;default:0" json:"total_items_count"`
	CountedItemsCount int `gorm:"not null;default:0" json:"counted_items_count"`
}

// IsOpen reports whether the session still accepts lifecycle transitions.
func (s *CountSession) IsOpen() bool {
	return s.Status == SessionActive || s.Status == SessionPaused
}

// SessionProgress is the derived progress view of a session.
type SessionProgress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Remaining  int `json:"remaining"`
	Percentage int `json:"percentage"`
}

// Progress computes completion accounting. Percentage is 0 when the
// snapshot total is 0 so an empty location never divides by zero.
func (s *CountSession) Progress() SessionProgress {
	p := SessionProgress{
		Total:     s.TotalItemsCount,
		Completed: s.CountedItemsCount,
		Remaining: s.TotalItemsCount - s.CountedItemsCount,
	}
	if s.TotalItemsCount > 0 {
		p.Percentage = int(math.Round(100 * float64(s.CountedItemsCount) / float64(s.TotalItemsCount)))
	}
	return p
}
