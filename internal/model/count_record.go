package model

import (
	"time"

	"github.com/google/uuid"
)

// CountRecord is one measurement for one item, optionally inside a session.
// Unique on (session_id, item_id): a recount of the same item within a
// session overwrites the existing row instead of duplicating it.
type CountRecord struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`

	SessionID *uuid.UUID    `gorm:"type:uuid;uniqueIndex:idx_records_session_item" json:"session_id,omitempty"`
	Session   *CountSession `gorm:"foreignKey:SessionID" json:"-"`

	ItemID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_records_session_item" json:"item_id" validate:"uuid_required"`
	Item   *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`

	LocationID *uuid.UUID `gorm:"type:uuid" json:"location_id,omitempty"`

	Quantity float64          `gorm:"not null" json:"quantity"`
	Unit     string           `gorm:"type:varchar(20)" json:"unit"`
	Method   CountingWorkflow `gorm:"type:varchar(20);not null" json:"counting_method"`

	// MeasuredWeightG is set for weight-based methods and feeds the
	// statistical-outlier history.
	MeasuredWeightG *float64 `json:"measured_weight_g,omitempty"`

	// RawInputs preserves the modality-specific inputs as JSON for audit.
	RawInputs string `gorm:"type:text" json:"raw_inputs,omitempty"`
	Notes     string `gorm:"type:text" json:"notes,omitempty"`

	CountedByID uuid.UUID `gorm:"type:uuid;not null" json:"counted_by_id"`
	CountedAt   time.Time `gorm:"not null;index" json:"counted_at"`
}
