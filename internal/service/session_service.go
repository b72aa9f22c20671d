package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"go-stockcount-ws/internal/anomaly"
	"go-stockcount-ws/internal/counting"
	"go-stockcount-ws/internal/model"
	"go-stockcount-ws/internal/repository"
	"go-stockcount-ws/internal/ws"
	"go-stockcount-ws/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TxRunner abstracts gorm's transaction entrypoint so the service can be
// unit tested without a live database. *gorm.DB satisfies it.
type TxRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

type SessionService interface {
	Create(tenantID, locationID, userID uuid.UUID, userName string) (*model.CountSession, error)
	Get(tenantID, sessionID uuid.UUID) (*model.CountSession, error)
	List(tenantID uuid.UUID, status model.SessionStatus) ([]model.CountSession, error)
	Progress(tenantID, sessionID uuid.UUID) (*model.SessionProgress, error)
	Transition(tenantID, sessionID uuid.UUID, action model.SessionAction, actorID string) (*model.CountSession, error)
	RecordCount(tenantID, userID uuid.UUID, req *RecordCountRequest) (*RecordCountResult, error)
}

// RecordCountRequest carries one count submission. The pointer fields are
// modality-specific raw inputs; the method tag selects which are required.
type RecordCountRequest struct {
	SessionID  *uuid.UUID             `json:"session_id,omitempty"`
	ItemID     uuid.UUID              `json:"item_id"`
	LocationID *uuid.UUID             `json:"location_id,omitempty"`
	Method     model.CountingWorkflow `json:"counting_method"`

	Quantity         *float64 `json:"quantity,omitempty"`           // manual entry
	GrossWeightG     *float64 `json:"gross_weight_g,omitempty"`     // weight workflows
	TareWeightG      *float64 `json:"tare_weight_g,omitempty"`      // fallback tare
	FullUnits        *int     `json:"full_units,omitempty"`         // bottle hybrid
	AggregateWeightG *float64 `json:"aggregate_weight_g,omitempty"` // bottle hybrid

	Notes     string     `json:"notes,omitempty"`
	CountedAt *time.Time `json:"counted_at,omitempty"` // offline capture time

	// ConfirmAnomalies is the explicit operator override for error-severity
	// findings. Critical findings can never be overridden.
	ConfirmAnomalies bool `json:"confirm_anomalies,omitempty"`
}

// RecordCountResult is returned for every submission, persisted or not.
// Record is nil when the verdict blocked the write.
type RecordCountResult struct {
	Record              *model.CountRecord `json:"record,omitempty"`
	Anomalies           []anomaly.Finding  `json:"anomalies"`
	CanProceed          bool               `json:"can_proceed"`
	RequireConfirmation bool               `json:"require_confirmation"`
}

type sessionService struct {
	sessionRepo  repository.SessionRepository
	recordRepo   repository.RecordRepository
	itemRepo     repository.ItemRepository
	locationRepo repository.LocationRepository
	auditRepo    repository.AuditRepository
	detector     *anomaly.Detector
	db           TxRunner
	wsHub        *ws.Hub
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	recordRepo repository.RecordRepository,
	itemRepo repository.ItemRepository,
	locationRepo repository.LocationRepository,
	auditRepo repository.AuditRepository,
	detector *anomaly.Detector,
	db TxRunner,
	hub *ws.Hub,
) SessionService {
	return &sessionService{
		sessionRepo:  sessionRepo,
		recordRepo:   recordRepo,
		itemRepo:     itemRepo,
		locationRepo: locationRepo,
		auditRepo:    auditRepo,
		detector:     detector,
		db:           db,
		wsHub:        hub,
	}
}

func (s *sessionService) Create(tenantID, locationID, userID uuid.UUID, userName string) (*model.CountSession, error) {
	if _, err := s.locationRepo.FindByID(tenantID, locationID); err != nil {
		return nil, apperr.NotFound("location %s not found", locationID)
	}

	// One open (active or paused) session per (tenant, location).
	if existing, err := s.sessionRepo.FindOpenByLocation(tenantID, locationID); err == nil {
		return nil, apperr.Conflict("a count session is already open for this location", existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Transient("failed to check open sessions", err)
	}

	// Snapshot the countable item total at creation time; never recomputed.
	total, err := s.itemRepo.CountActive(tenantID)
	if err != nil {
		return nil, apperr.Transient("failed to count active items", err)
	}

	session := &model.CountSession{
		TenantID:          tenantID,
		LocationID:        locationID,
		StartedByID:       userID,
		Status:            model.SessionActive,
		StartedAt:         time.Now(),
		TotalItemsCount:   int(total),
		CountedItemsCount: 0,
	}
	session.CreatedBy = userID.String()
	session.UpdatedBy = userID.String()

	if err := s.sessionRepo.Create(session); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, findErr := s.sessionRepo.FindOpenByLocation(tenantID, locationID)
			if findErr == nil {
				return nil, apperr.Conflict("a count session is already open for this location", existing)
			}
		}
		return nil, apperr.Transient("failed to create session", err)
	}

	if s.wsHub != nil {
		go s.wsHub.BroadcastJSON(map[string]interface{}{
			"type":        "count_session_update",
			"action":      "session_started",
			"session_id":  session.ID,
			"location_id": locationID,
			"total_items": session.TotalItemsCount,
			"message":     fmt.Sprintf("%s started a count", userName),
		})
	}

	return session, nil
}

func (s *sessionService) Get(tenantID, sessionID uuid.UUID) (*model.CountSession, error) {
	session, err := s.sessionRepo.FindByID(tenantID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session %s not found", sessionID)
		}
		return nil, apperr.Transient("failed to load session", err)
	}
	return session, nil
}

func (s *sessionService) List(tenantID uuid.UUID, status model.SessionStatus) ([]model.CountSession, error) {
	sessions, err := s.sessionRepo.FindAll(tenantID, status)
	if err != nil {
		return nil, apperr.Transient("failed to list sessions", err)
	}
	return sessions, nil
}

func (s *sessionService) Progress(tenantID, sessionID uuid.UUID) (*model.SessionProgress, error) {
	session, err := s.Get(tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	p := session.Progress()
	return &p, nil
}

// Transition applies one lifecycle action under a row lock. Illegal
// combinations are reported, never coerced; a commit on a completed
// session is rejected so callers can detect duplicate commits.
func (s *sessionService) Transition(tenantID, sessionID uuid.UUID, action model.SessionAction, actorID string) (*model.CountSession, error) {
	if !action.Valid() {
		return nil, apperr.Validation("unknown session action %q", action)
	}

	var updated *model.CountSession
	err := s.db.Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.LockByID(tx, tenantID, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("session %s not found", sessionID)
			}
			return apperr.Transient("failed to lock session", err)
		}

		now := time.Now()
		switch action {
		case model.ActionPause:
			if session.Status != model.SessionActive {
				return apperr.InvalidState("cannot pause session", string(session.Status), string(action))
			}
			session.Status = model.SessionPaused
			session.PausedAt = &now
		case model.ActionResume:
			if session.Status != model.SessionPaused {
				return apperr.InvalidState("cannot resume session", string(session.Status), string(action))
			}
			session.Status = model.SessionActive
			session.PausedAt = nil
		case model.ActionCommit:
			if !session.IsOpen() {
				return apperr.InvalidState("cannot commit session", string(session.Status), string(action))
			}
			session.Status = model.SessionCompleted
			session.CompletedAt = &now
		}
		session.UpdatedBy = actorID

		if err := s.sessionRepo.Save(tx, session); err != nil {
			return apperr.Transient("failed to save session", err)
		}
		updated = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.wsHub != nil {
		go s.wsHub.BroadcastJSON(map[string]interface{}{
			"type":       "count_session_update",
			"action":     "session_" + string(updated.Status),
			"session_id": updated.ID,
			"status":     updated.Status,
		})
	}

	return updated, nil
}

// RecordCount normalizes the raw measurement, screens it for anomalies and
// persists the record plus the progress increment as one atomic unit.
func (s *sessionService) RecordCount(tenantID, userID uuid.UUID, req *RecordCountRequest) (*RecordCountResult, error) {
	item, err := s.itemRepo.FindByID(tenantID, req.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("item %s not found", req.ItemID)
		}
		return nil, apperr.Transient("failed to load item", err)
	}

	if req.LocationID != nil {
		if _, err := s.locationRepo.FindByID(tenantID, *req.LocationID); err != nil {
			return nil, apperr.NotFound("location %s not found", *req.LocationID)
		}
	}

	countedAt := time.Now()
	if req.CountedAt != nil {
		countedAt = *req.CountedAt
	}

	input, measuredWeight, err := s.normalize(item, req, countedAt)
	if err != nil {
		return nil, err
	}

	result := &RecordCountResult{Anomalies: []anomaly.Finding{}, CanProceed: true}

	if measuredWeight != nil {
		history, err := s.recordRepo.RecentWeights(tenantID, item.ID, s.detector.Window())
		if err != nil {
			return nil, apperr.Transient("failed to load weight history", err)
		}

		var container *anomaly.Container
		if item.ContainerType != nil {
			container = &anomaly.Container{
				TareWeightG: item.ContainerType.TareWeightG(),
				CapacityML:  item.ContainerType.CapacityML,
			}
		}
		reading := anomaly.Reading{MeasuredWeightG: *measuredWeight}
		if req.TareWeightG != nil {
			reading.FallbackTareG = *req.TareWeightG
		}

		result.Anomalies = s.detector.Evaluate(reading, container, history)
		verdict := anomaly.Assess(result.Anomalies)
		result.CanProceed = verdict.CanProceed
		result.RequireConfirmation = verdict.RequireConfirmation

		if len(result.Anomalies) > 0 {
			s.auditFindings(tenantID, userID, req.SessionID, item.ID, result.Anomalies)
		}
	}

	// Critical findings block unconditionally; error findings persist only
	// with an explicit operator override; warnings never block.
	if !result.CanProceed {
		return result, nil
	}
	if hasSeverity(result.Anomalies, anomaly.SeverityError) && !req.ConfirmAnomalies {
		return result, nil
	}

	rawInputs, _ := json.Marshal(input.RawInputs)
	record := &model.CountRecord{
		TenantID:        tenantID,
		SessionID:       req.SessionID,
		ItemID:          item.ID,
		LocationID:      req.LocationID,
		Quantity:        input.Quantity,
		Unit:            item.Unit,
		Method:          req.Method,
		MeasuredWeightG: measuredWeight,
		RawInputs:       string(rawInputs),
		Notes:           req.Notes,
		CountedByID:     userID,
		CountedAt:       countedAt,
	}
	record.CreatedBy = userID.String()
	record.UpdatedBy = userID.String()

	var progress *model.SessionProgress
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.SessionID == nil {
			return s.createRecord(tx, record)
		}

		session, err := s.sessionRepo.LockByID(tx, tenantID, *req.SessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("session %s not found", *req.SessionID)
			}
			return apperr.Transient("failed to lock session", err)
		}
		if session.Status != model.SessionActive {
			return apperr.InvalidState("counts are only accepted on active sessions", string(session.Status), "record_count")
		}

		existing, err := s.recordRepo.FindBySessionItem(tx, *req.SessionID, item.ID)
		switch {
		case err == nil:
			// Recount of the same item: overwrite in place, no progress delta.
			existing.Quantity = record.Quantity
			existing.Method = record.Method
			existing.MeasuredWeightG = record.MeasuredWeightG
			existing.RawInputs = record.RawInputs
			existing.Notes = record.Notes
			existing.LocationID = record.LocationID
			existing.CountedByID = record.CountedByID
			existing.CountedAt = record.CountedAt
			existing.UpdatedBy = userID.String()
			if err := s.recordRepo.Save(tx, existing); err != nil {
				return apperr.Transient("failed to update count record", err)
			}
			record = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Net-new item: record insert and counter increment are one unit.
			if err := s.recordRepo.Create(tx, record); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperr.Conflict("item already counted in this session", record)
				}
				return apperr.Transient("failed to create count record", err)
			}
			if err := s.sessionRepo.IncrementCounted(tx, session.ID); err != nil {
				return apperr.Transient("failed to advance session progress", err)
			}
			session.CountedItemsCount++
		default:
			return apperr.Transient("failed to look up count record", err)
		}

		p := session.Progress()
		progress = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Record = record

	if progress != nil && s.wsHub != nil {
		go s.wsHub.BroadcastJSON(map[string]interface{}{
			"type":       "count_session_update",
			"action":     "count_recorded",
			"session_id": req.SessionID,
			"item_id":    item.ID,
			"progress":   progress,
		})
	}

	return result, nil
}

func (s *sessionService) createRecord(tx *gorm.DB, record *model.CountRecord) error {
	if err := s.recordRepo.Create(tx, record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("item already counted in this session", record)
		}
		return apperr.Transient("failed to create count record", err)
	}
	return nil
}

// normalize dispatches to the counting method handlers and returns the
// canonical input plus the raw scale measurement for weight workflows.
func (s *sessionService) normalize(item *model.InventoryItem, req *RecordCountRequest, at time.Time) (*counting.Input, *float64, error) {
	if !req.Method.Valid() {
		return nil, nil, apperr.Validation("unknown counting method %q", req.Method)
	}

	switch req.Method {
	case model.WorkflowUnitCount:
		if req.Quantity == nil {
			return nil, nil, apperr.Validation("quantity is required for manual counting")
		}
		input, err := counting.NormalizeManual(item, *req.Quantity, at)
		return input, nil, err

	case model.WorkflowContainerWeight, model.WorkflowKegWeight, model.WorkflowBatchWeight:
		if req.GrossWeightG == nil {
			return nil, nil, apperr.Validation("gross_weight_g is required for %s counting", req.Method)
		}
		tare := 0.0
		if item.ContainerType != nil {
			tare = item.ContainerType.TareWeightG()
		} else if req.TareWeightG != nil {
			tare = *req.TareWeightG
		}
		input, err := counting.NormalizeContainerWeight(item, *req.GrossWeightG, tare, at)
		if err != nil {
			return nil, nil, err
		}
		input.Method = req.Method
		return input, req.GrossWeightG, nil

	case model.WorkflowBottleHybrid:
		if req.FullUnits == nil || req.AggregateWeightG == nil {
			return nil, nil, apperr.Validation("full_units and aggregate_weight_g are required for bottle-hybrid counting")
		}
		input, err := counting.NormalizeBottleHybrid(item, *req.FullUnits, *req.AggregateWeightG, at)
		if err != nil {
			return nil, nil, err
		}
		return input, req.AggregateWeightG, nil
	}

	return nil, nil, apperr.Validation("unsupported counting method %q", req.Method)
}

// auditFindings logs the detection keyed by the first finding, without
// blocking the response; a failed write is swallowed and logged.
func (s *sessionService) auditFindings(tenantID, userID uuid.UUID, sessionID *uuid.UUID, itemID uuid.UUID, findings []anomaly.Finding) {
	detail, _ := json.Marshal(findings)
	entry := &model.CountAuditLog{
		TenantID:     tenantID,
		SessionID:    sessionID,
		ItemID:       &itemID,
		EventType:    string(findings[0].Type),
		Severity:     string(findings[0].Severity),
		Detail:       string(detail),
		RecordedByID: userID,
	}
	go func() {
		if err := s.auditRepo.Create(entry); err != nil {
			log.Printf("anomaly audit write failed (ignored): %v", err)
		}
	}()
}

func hasSeverity(findings []anomaly.Finding, severity anomaly.Severity) bool {
	for _, f := range findings {
		if f.Severity == severity {
			return true
		}
	}
	return false
}
