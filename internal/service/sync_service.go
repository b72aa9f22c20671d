package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-stockcount-ws/internal/model"
	"go-stockcount-ws/internal/repository"
	"go-stockcount-ws/internal/ws"
	"go-stockcount-ws/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncEventWorkflowScan marks a raw barcode log event; every other
// workflow value is a count submission replayed from the offline queue.
const SyncEventWorkflowScan = "scan"

// SyncEvent is one offline-captured event submitted for reconciliation.
// The (barcode, workflow, captured_at) triple identifies the logical event
// so a duplicate submission is safe to accept twice.
type SyncEvent struct {
	LocalID    string              `json:"local_id"`
	Barcode    string              `json:"barcode"`
	Workflow   string              `json:"workflow"`
	CapturedAt time.Time           `json:"captured_at"`
	Payload    string              `json:"payload,omitempty"`
	Count      *RecordCountRequest `json:"count,omitempty"`
}

// Key is the idempotency key for the logical event, scoped to the tenant.
func (e SyncEvent) Key(tenantID uuid.UUID) string {
	return fmt.Sprintf("sync:%s:%s:%s:%d", tenantID, e.Workflow, e.Barcode, e.CapturedAt.UnixMilli())
}

type SyncRejection struct {
	Event  SyncEvent `json:"event"`
	Reason string    `json:"reason"`
}

type SyncBatchResult struct {
	Accepted       []SyncEvent     `json:"accepted"`
	Rejected       []SyncRejection `json:"rejected"`
	TotalProcessed int             `json:"total_processed"`
}

type SyncService interface {
	ProcessBatch(ctx context.Context, tenantID, userID uuid.UUID, events []SyncEvent) (*SyncBatchResult, error)
}

type syncService struct {
	scanRepo   repository.ScanRepository
	sessions   SessionService
	idempotent repository.IdempotencyStore // nil disables the guard
	wsHub      *ws.Hub
}

func NewSyncService(scanRepo repository.ScanRepository, sessions SessionService, idempotent repository.IdempotencyStore, hub *ws.Hub) SyncService {
	return &syncService{
		scanRepo:   scanRepo,
		sessions:   sessions,
		idempotent: idempotent,
		wsHub:      hub,
	}
}

// ProcessBatch applies each event independently and always reports
// per-event outcomes; a single bad event never fails the batch.
func (s *syncService) ProcessBatch(ctx context.Context, tenantID, userID uuid.UUID, events []SyncEvent) (*SyncBatchResult, error) {
	result := &SyncBatchResult{
		Accepted:       []SyncEvent{},
		Rejected:       []SyncRejection{},
		TotalProcessed: len(events),
	}

	for _, ev := range events {
		if err := s.applyEvent(ctx, tenantID, userID, ev); err != nil {
			result.Rejected = append(result.Rejected, SyncRejection{Event: ev, Reason: err.Error()})
			continue
		}
		result.Accepted = append(result.Accepted, ev)
	}

	if s.wsHub != nil && len(result.Accepted) > 0 {
		go s.wsHub.BroadcastJSON(map[string]interface{}{
			"type":     "sync_complete",
			"accepted": len(result.Accepted),
			"rejected": len(result.Rejected),
			"message":  fmt.Sprintf("Synced %d offline event(s)", len(result.Accepted)),
		})
	}

	return result, nil
}

func (s *syncService) applyEvent(ctx context.Context, tenantID, userID uuid.UUID, ev SyncEvent) error {
	if ev.Barcode == "" && ev.Count == nil {
		return apperr.Validation("event %s has neither barcode nor count payload", ev.LocalID)
	}

	// First-line replay guard. Redis being down only disables the fast
	// path; the scan log's unique index still rejects true duplicates.
	key := ev.Key(tenantID)
	if s.idempotent != nil {
		fresh, err := s.idempotent.Acquire(ctx, key)
		if err != nil {
			log.Printf("sync: idempotency check failed, falling back to db dedup: %v", err)
		} else if !fresh {
			// Already applied: at-least-once delivery makes this a success.
			return nil
		}
	}

	var err error
	if ev.Count != nil {
		err = s.applyCount(tenantID, userID, ev)
	} else {
		err = s.applyScan(tenantID, userID, ev)
	}

	if err != nil && s.idempotent != nil {
		// Free the key so the client's next retry pass is not shadowed.
		if relErr := s.idempotent.Release(ctx, key); relErr != nil {
			log.Printf("sync: failed to release idempotency key %s: %v", key, relErr)
		}
	}
	return err
}

func (s *syncService) applyScan(tenantID, userID uuid.UUID, ev SyncEvent) error {
	event := &model.ScanEvent{
		TenantID:     tenantID,
		Barcode:      ev.Barcode,
		Workflow:     ev.Workflow,
		CapturedAt:   ev.CapturedAt,
		Payload:      ev.Payload,
		RecordedByID: userID,
	}
	event.CreatedBy = userID.String()
	event.UpdatedBy = userID.String()

	if err := s.scanRepo.Create(event); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil // replay of an already-accepted scan
		}
		return apperr.Transient("failed to log scan event", err)
	}
	return nil
}

func (s *syncService) applyCount(tenantID, userID uuid.UUID, ev SyncEvent) error {
	req := *ev.Count
	if req.CountedAt == nil {
		capturedAt := ev.CapturedAt
		req.CountedAt = &capturedAt
	}

	result, err := s.sessions.RecordCount(tenantID, userID, &req)
	if err != nil {
		return err
	}
	if result.Record == nil {
		// Blocked by the detector: the item must be recounted online.
		return apperr.Validation("count blocked by anomaly detection, recount required")
	}
	return nil
}
