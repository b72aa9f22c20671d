package model

import "github.com/google/uuid"

// CountAuditLog records that anomaly detection fired on a measurement.
// Keyed by the first finding's type and severity; written best-effort in
// the background and never blocks a count submission.
type CountAuditLog struct {
	BaseModel
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	SessionID *uuid.UUID `gorm:"type:uuid;index" json:"session_id,omitempty"`
	ItemID    *uuid.UUID `gorm:"type:uuid;index" json:"item_id,omitempty"`

	EventType string `gorm:"type:varchar(50);not null" json:"event_type"`
	Severity  string `gorm:"type:varchar(10);not null" json:"severity"`
	Detail    string `gorm:"type:text" json:"detail,omitempty"`

	RecordedByID uuid.UUID `gorm:"type:uuid" json:"recorded_by_id"`
}
