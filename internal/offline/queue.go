// Package offline implements the client-side capture queue and sync
// reconciler for counts and scans taken while disconnected. The queue is
// the system of record for "things that happened offline": events stay
// queued until a sync pass acknowledges them, and events that exhaust
// their retry budget remain visible in a terminal stuck state instead of
// being dropped.
package offline

import (
	"context"
	"time"
)

// MaxSyncAttempts is the retry budget before an event is stuck.
const MaxSyncAttempts = 3

// ScanEvent is one locally buffered capture.
type ScanEvent struct {
	ID              string     `json:"id"`
	Barcode         string     `json:"barcode"`
	Workflow        string     `json:"workflow"`
	Payload         string     `json:"payload,omitempty"` // count submission JSON, empty for raw scans
	CapturedAt      time.Time  `json:"captured_at"`
	Synced          bool       `json:"synced"`
	SyncAttempts    int        `json:"sync_attempts"`
	LastSyncAttempt *time.Time `json:"last_sync_attempt,omitempty"`
}

// Stuck reports whether the event has exhausted its retry budget without
// syncing. Stuck events are excluded from automatic retry but retained.
func (e *ScanEvent) Stuck() bool {
	return !e.Synced && e.SyncAttempts >= MaxSyncAttempts
}

// Outcome is the result of one sync attempt for one event.
type Outcome struct {
	EventID     string
	Synced      bool
	AttemptedAt time.Time
}

// Queue is the durable local buffer. A single owning process mutates it;
// ApplyOutcomes persists a whole drain pass atomically so a crash mid-sync
// never tears the bookkeeping.
type Queue interface {
	// Enqueue assigns a locally-unique id and zeroed sync bookkeeping,
	// then persists the event.
	Enqueue(ctx context.Context, ev *ScanEvent) error
	// Pending returns unsynced events still inside the retry budget.
	Pending(ctx context.Context) ([]ScanEvent, error)
	// Stuck returns events that exhausted the retry budget.
	Stuck(ctx context.Context) ([]ScanEvent, error)
	// ApplyOutcomes records a drain pass as one batch.
	ApplyOutcomes(ctx context.Context, outcomes []Outcome) error
	// ClearSynced garbage-collects every event with synced = true.
	ClearSynced(ctx context.Context) error
	// All returns the full queue, for status displays.
	All(ctx context.Context) ([]ScanEvent, error)
}
