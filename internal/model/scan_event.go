package model

import (
	"time"

	"github.com/google/uuid"
)

// ScanEvent is the server-side log of a raw barcode capture, usually
// replayed from an offline queue. The dedup index makes replaying the same
// logical event (same barcode + capture time + workflow) a no-op, which is
// what gives the sync path its at-least-once safety.
type ScanEvent struct {
	BaseModel
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_scans_dedup" json:"tenant_id"`
	Barcode    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_scans_dedup" json:"barcode" validate:"required"`
	Workflow   string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_scans_dedup" json:"workflow"`
	CapturedAt time.Time `gorm:"not null;uniqueIndex:idx_scans_dedup" json:"captured_at"`

	Payload      string    `gorm:"type:text" json:"payload,omitempty"`
	RecordedByID uuid.UUID `gorm:"type:uuid;not null" json:"recorded_by_id"`
}
