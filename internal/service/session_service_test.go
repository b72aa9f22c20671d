package service

import (
	"database/sql"
	"testing"
	"time"

	"go-stockcount-ws/internal/anomaly"
	"go-stockcount-ws/internal/model"
	"go-stockcount-ws/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubTx satisfies TxRunner without a database: the callback runs with a
// nil tx, which the stub repositories ignore.
type stubTx struct{}

func (stubTx) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	return fc(nil)
}

type stubSessionRepo struct {
	createFn         func(s *model.CountSession) error
	findByIDFn       func(tenantID, id uuid.UUID) (*model.CountSession, error)
	findOpenFn       func(tenantID, locationID uuid.UUID) (*model.CountSession, error)
	findAllFn        func(tenantID uuid.UUID, status model.SessionStatus) ([]model.CountSession, error)
	lockByIDFn       func(tx *gorm.DB, tenantID, id uuid.UUID) (*model.CountSession, error)
	saveFn           func(tx *gorm.DB, s *model.CountSession) error
	incrementCounted int
}

func (r *stubSessionRepo) Create(s *model.CountSession) error { return r.createFn(s) }
func (r *stubSessionRepo) FindByID(tenantID, id uuid.UUID) (*model.CountSession, error) {
	return r.findByIDFn(tenantID, id)
}
func (r *stubSessionRepo) FindOpenByLocation(tenantID, locationID uuid.UUID) (*model.CountSession, error) {
	return r.findOpenFn(tenantID, locationID)
}
func (r *stubSessionRepo) FindAll(tenantID uuid.UUID, status model.SessionStatus) ([]model.CountSession, error) {
	return r.findAllFn(tenantID, status)
}
func (r *stubSessionRepo) LockByID(tx *gorm.DB, tenantID, id uuid.UUID) (*model.CountSession, error) {
	return r.lockByIDFn(tx, tenantID, id)
}
func (r *stubSessionRepo) Save(tx *gorm.DB, s *model.CountSession) error { return r.saveFn(tx, s) }
func (r *stubSessionRepo) IncrementCounted(tx *gorm.DB, id uuid.UUID) error {
	r.incrementCounted++
	return nil
}

type stubRecordRepo struct {
	recentWeights     []float64
	findBySessionItem func(tx *gorm.DB, sessionID, itemID uuid.UUID) (*model.CountRecord, error)
	createErr         error
	created           []*model.CountRecord
	saved             []*model.CountRecord
}

func (r *stubRecordRepo) FindBySession(sessionID uuid.UUID) ([]model.CountRecord, error) {
	return nil, nil
}
func (r *stubRecordRepo) RecentWeights(tenantID, itemID uuid.UUID, limit int) ([]float64, error) {
	return r.recentWeights, nil
}
func (r *stubRecordRepo) FindBySessionItem(tx *gorm.DB, sessionID, itemID uuid.UUID) (*model.CountRecord, error) {
	if r.findBySessionItem != nil {
		return r.findBySessionItem(tx, sessionID, itemID)
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *stubRecordRepo) Create(tx *gorm.DB, rec *model.CountRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, rec)
	return nil
}
func (r *stubRecordRepo) Save(tx *gorm.DB, rec *model.CountRecord) error {
	r.saved = append(r.saved, rec)
	return nil
}

type stubItemRepo struct {
	items       map[uuid.UUID]*model.InventoryItem
	activeCount int64
}

func (r *stubItemRepo) Create(item *model.InventoryItem) error { return nil }
func (r *stubItemRepo) FindByID(tenantID, id uuid.UUID) (*model.InventoryItem, error) {
	if item, ok := r.items[id]; ok {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *stubItemRepo) FindByBarcode(tenantID uuid.UUID, barcode string) (*model.InventoryItem, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubItemRepo) FindAll(tenantID uuid.UUID) ([]model.InventoryItem, error) { return nil, nil }
func (r *stubItemRepo) CountActive(tenantID uuid.UUID) (int64, error) {
	return r.activeCount, nil
}

type stubLocationRepo struct {
	locations map[uuid.UUID]*model.Location
}

func (r *stubLocationRepo) Create(loc *model.Location) error { return nil }
func (r *stubLocationRepo) FindByID(tenantID, id uuid.UUID) (*model.Location, error) {
	if loc, ok := r.locations[id]; ok {
		return loc, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *stubLocationRepo) FindAll(tenantID uuid.UUID) ([]model.Location, error) { return nil, nil }

type stubAuditRepo struct{}

func (stubAuditRepo) Create(entry *model.CountAuditLog) error { return nil }
func (stubAuditRepo) FindBySession(tenantID, sessionID uuid.UUID) ([]model.CountAuditLog, error) {
	return nil, nil
}

type sessionFixture struct {
	tenantID   uuid.UUID
	locationID uuid.UUID
	userID     uuid.UUID

	sessions  *stubSessionRepo
	records   *stubRecordRepo
	items     *stubItemRepo
	locations *stubLocationRepo
	svc       SessionService
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		tenantID:   uuid.New(),
		locationID: uuid.New(),
		userID:     uuid.New(),
		sessions: &stubSessionRepo{
			createFn: func(s *model.CountSession) error { return nil },
			findOpenFn: func(tenantID, locationID uuid.UUID) (*model.CountSession, error) {
				return nil, gorm.ErrRecordNotFound
			},
		},
		records: &stubRecordRepo{},
		items:   &stubItemRepo{items: map[uuid.UUID]*model.InventoryItem{}, activeCount: 42},
	}
	f.locations = &stubLocationRepo{locations: map[uuid.UUID]*model.Location{
		f.locationID: {TenantID: f.tenantID, Name: "Walk-in", IsActive: true},
	}}
	f.svc = NewSessionService(
		f.sessions, f.records, f.items, f.locations, stubAuditRepo{},
		anomaly.NewDetector(anomaly.DefaultConfig()), stubTx{}, nil,
	)
	return f
}

func (f *sessionFixture) addItem(item *model.InventoryItem) *model.InventoryItem {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.TenantID = f.tenantID
	f.items.items[item.ID] = item
	return item
}

func TestCreateSession(t *testing.T) {
	f := newSessionFixture()

	session, err := f.svc.Create(f.tenantID, f.locationID, f.userID, "Dana")
	require.NoError(t, err)
	assert.Equal(t, model.SessionActive, session.Status)
	assert.Equal(t, 42, session.TotalItemsCount)
	assert.Equal(t, 0, session.CountedItemsCount)
	assert.Equal(t, f.userID, session.StartedByID)
}

func TestCreateSessionUnknownLocation(t *testing.T) {
	f := newSessionFixture()

	_, err := f.svc.Create(f.tenantID, uuid.New(), f.userID, "Dana")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateSessionConflictAttachesExisting(t *testing.T) {
	f := newSessionFixture()
	existing := &model.CountSession{Status: model.SessionPaused}
	existing.ID = uuid.New()
	f.sessions.findOpenFn = func(tenantID, locationID uuid.UUID) (*model.CountSession, error) {
		return existing, nil
	}

	_, err := f.svc.Create(f.tenantID, f.locationID, f.userID, "Dana")
	require.True(t, apperr.Is(err, apperr.KindConflict))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Same(t, existing, appErr.Resource)
}

func TestCreateSessionDuplicateKeyRace(t *testing.T) {
	// Two creators race past the pre-check; the loser's insert hits the
	// partial unique index and is reported as a conflict, not a 500.
	f := newSessionFixture()
	winner := &model.CountSession{Status: model.SessionActive}
	calls := 0
	f.sessions.findOpenFn = func(tenantID, locationID uuid.UUID) (*model.CountSession, error) {
		calls++
		if calls == 1 {
			return nil, gorm.ErrRecordNotFound
		}
		return winner, nil
	}
	f.sessions.createFn = func(s *model.CountSession) error { return gorm.ErrDuplicatedKey }

	_, err := f.svc.Create(f.tenantID, f.locationID, f.userID, "Dana")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func transitionFixture(status model.SessionStatus) (*sessionFixture, *model.CountSession) {
	f := newSessionFixture()
	session := &model.CountSession{
		TenantID:   f.tenantID,
		LocationID: f.locationID,
		Status:     status,
	}
	session.ID = uuid.New()
	f.sessions.lockByIDFn = func(tx *gorm.DB, tenantID, id uuid.UUID) (*model.CountSession, error) {
		return session, nil
	}
	f.sessions.saveFn = func(tx *gorm.DB, s *model.CountSession) error { return nil }
	return f, session
}

func TestTransitionPauseAndResume(t *testing.T) {
	f, session := transitionFixture(model.SessionActive)

	updated, err := f.svc.Transition(f.tenantID, session.ID, model.ActionPause, "op")
	require.NoError(t, err)
	assert.Equal(t, model.SessionPaused, updated.Status)
	require.NotNil(t, updated.PausedAt)

	updated, err = f.svc.Transition(f.tenantID, session.ID, model.ActionResume, "op")
	require.NoError(t, err)
	assert.Equal(t, model.SessionActive, updated.Status)
	assert.Nil(t, updated.PausedAt)
}

func TestTransitionCommitFromPaused(t *testing.T) {
	f, session := transitionFixture(model.SessionPaused)

	updated, err := f.svc.Transition(f.tenantID, session.ID, model.ActionCommit, "op")
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
}

func TestTransitionIllegal(t *testing.T) {
	cases := []struct {
		name   string
		status model.SessionStatus
		action model.SessionAction
	}{
		{"pause a paused session", model.SessionPaused, model.ActionPause},
		{"pause a completed session", model.SessionCompleted, model.ActionPause},
		{"resume an active session", model.SessionActive, model.ActionResume},
		{"commit a completed session twice", model.SessionCompleted, model.ActionCommit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, session := transitionFixture(tc.status)

			_, err := f.svc.Transition(f.tenantID, session.ID, tc.action, "op")
			require.True(t, apperr.Is(err, apperr.KindInvalidState))

			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, string(tc.status), appErr.Current)
		})
	}
}

func TestTransitionUnknownAction(t *testing.T) {
	f, session := transitionFixture(model.SessionActive)

	_, err := f.svc.Transition(f.tenantID, session.ID, model.SessionAction("restart"), "op")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRecordCountManual(t *testing.T) {
	f, session := transitionFixture(model.SessionActive)
	item := f.addItem(&model.InventoryItem{SKU: "FLOUR-25", Unit: "bag"})
	qty := 12.0

	result, err := f.svc.RecordCount(f.tenantID, f.userID, &RecordCountRequest{
		SessionID: &session.ID,
		ItemID:    item.ID,
		Method:    model.WorkflowUnitCount,
		Quantity:  &qty,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Record)
	assert.True(t, result.CanProceed)
	assert.False(t, result.RequireConfirmation)
	assert.Empty(t, result.Anomalies)
	assert.Equal(t, 12.0, result.Record.Quantity)
	assert.Equal(t, "bag", result.Record.Unit)

	// Net-new item: record insert plus one progress increment.
	require.Len(t, f.records.created, 1)
	assert.Equal(t, 1, f.sessions.incrementCounted)
}

func TestRecordCountDuplicateKeyIsConflict(t *testing.T) {
	// Two devices race past the record lookup for the same item; the loser's
	// insert hits the (session, item) unique index and must surface as a
	// conflict rather than a retryable store failure.
	f, session := transitionFixture(model.SessionActive)
	item := f.addItem(&model.InventoryItem{SKU: "FLOUR-25"})
	f.records.createErr = gorm.ErrDuplicatedKey
	qty := 12.0

	_, err := f.svc.RecordCount(f.tenantID, f.userID, &RecordCountRequest{
		SessionID: &session.ID,
		ItemID:    item.ID,
		Method:    model.WorkflowUnitCount,
		Quantity:  &qty,
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 0, f.sessions.incrementCounted)
}

func TestRecordCountRecountOverwrites(t *testing.T) {
	f, session := transitionFixture(model.SessionActive)
	item := f.addItem(&model.InventoryItem{SKU: "FLOUR-25"})

	existing := &model.CountRecord{Quantity: 10, ItemID: item.ID, SessionID: &session.ID}
	f.records.findBySessionItem = func(tx *gorm.DB, sessionID, itemID uuid.UUID) (*model.CountRecord, error) {
		return existing, nil
	}
	qty := 13.0

	result, err := f.svc.RecordCount(f.tenantID, f.userID, &RecordCountRequest{
		SessionID: &session.ID,
		ItemID:    item.ID,
		Method:    model.WorkflowUnitCount,
		Quantity:  &qty,
	})
	require.NoError(t, err)

	// Overwrite in place: saved, never re-created, no progress delta.
	assert.Same(t, existing, result.Record)
	assert.Equal(t, 13.0, existing.Quantity)
	assert.Empty(t, f.records.created)
	require.Len(t, f.records.saved, 1)
	assert.Equal(t, 0, f.sessions.incrementCounted)
}

func TestRecordCountInactiveSessionRejected(t *testing.T) {
	for _, status := range []model.SessionStatus{model.SessionPaused, model.SessionCompleted} {
		f, session := transitionFixture(status)
		item := f.addItem(&model.InventoryItem{SKU: "FLOUR-25"})
		qty := 1.0

		_, err := f.svc.RecordCount(f.tenantID, f.userID, &RecordCountRequest{
			SessionID: &session.ID,
			ItemID:    item.ID,
			Method:    model.WorkflowUnitCount,
			Quantity:  &qty,
		})
		assert.True(t, apperr.Is(err, apperr.KindInvalidState), "status %s", status)
		assert.Empty(t, f.records.created)
	}
}

func TestRecordCountUnknownItem(t *testing.T) {
	f := newSessionFixture()
	qty := 1.0

	_, err := f.svc.RecordCount(f.tenantID, f.userID, &RecordCountRequest{
		ItemID:   uuid.New(),
		Method:   model.WorkflowUnitCount,
		Quantity: &qty,
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRecordCountCriticalBlocks(t *testing.T) {
	f, session := transitionFixture(model.SessionActive)
	unitWeight := 1000.0
	item := f.addItem(&model.InventoryItem{
		SKU:         "RICE-1K",
		Workflow:    model.WorkflowContainerWeight,
		UnitWeightG: &unitWeight,
		ContainerType: &model.ContainerType{
			Name:         "bin",
			EmptyWeightG: 500,
		},
	})
	gross := 100.0 // below the 500g tare

	result, err := f.svc.RecordCount(f.tenantID, f.userID, &RecordCountRequest{
		SessionID:    &session.ID,
		ItemID:       item.ID,
		Method:       model.WorkflowContainerWeight,
		GrossWeightG: &gross,
		// An override cannot rescue a critical finding.
		ConfirmAnomalies: true,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Record)
	assert.False(t, result.CanProceed)
	assert.NotEmpty(t, result.Anomalies)
	assert.Empty(t, f.records.created)
	assert.Equal(t, 0, f.sessions.incrementCounted)
}

func TestRecordCountErrorNeedsConfirmation(t *testing.T) {
	f, session := transitionFixture(model.SessionActive)
	unitWeight := 100.0
	item := f.addItem(&model.InventoryItem{
		SKU:         "GIN-750",
		Workflow:    model.WorkflowContainerWeight,
		UnitWeightG: &unitWeight,
		ContainerType: &model.ContainerType{
			Name:         "750ml bottle",
			EmptyWeightG: 500,
			CapacityML:   750,
		},
	})
	// Net 1500g in a 750ml bottle exceeds the 900g density ceiling.
	gross := 2000.0

	req := &RecordCountRequest{
		SessionID:    &session.ID,
		ItemID:       item.ID,
		Method:       model.WorkflowContainerWeight,
		GrossWeightG: &gross,
	}

	result, err := f.svc.RecordCount(f.tenantID, f.userID, req)
	require.NoError(t, err)
	assert.Nil(t, result.Record)
	assert.True(t, result.CanProceed)
	assert.True(t, result.RequireConfirmation)
	assert.Empty(t, f.records.created)

	// Explicit override persists the count with the findings attached.
	req.ConfirmAnomalies = true
	result, err = f.svc.RecordCount(f.tenantID, f.userID, req)
	require.NoError(t, err)
	require.NotNil(t, result.Record)
	assert.True(t, result.RequireConfirmation)
	require.Len(t, f.records.created, 1)
	require.NotNil(t, result.Record.MeasuredWeightG)
	assert.Equal(t, 2000.0, *result.Record.MeasuredWeightG)
}

func TestRecordCountWarningPersists(t *testing.T) {
	f, session := transitionFixture(model.SessionActive)
	unitWeight := 1000.0
	item := f.addItem(&model.InventoryItem{
		SKU:         "RICE-1K",
		Workflow:    model.WorkflowContainerWeight,
		UnitWeightG: &unitWeight,
		ContainerType: &model.ContainerType{
			Name:         "bin",
			EmptyWeightG: 500,
		},
	})
	gross := 505.0 // net 5g, empty-container warning

	result, err := f.svc.RecordCount(f.tenantID, f.userID, &RecordCountRequest{
		SessionID:    &session.ID,
		ItemID:       item.ID,
		Method:       model.WorkflowContainerWeight,
		GrossWeightG: &gross,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Record)
	assert.True(t, result.CanProceed)
	assert.True(t, result.RequireConfirmation)
	require.Len(t, f.records.created, 1)
}

func TestRecordCountOutlierFromHistory(t *testing.T) {
	f, session := transitionFixture(model.SessionActive)
	unitWeight := 10.0
	item := f.addItem(&model.InventoryItem{
		SKU:         "SUGAR",
		Workflow:    model.WorkflowContainerWeight,
		UnitWeightG: &unitWeight,
	})
	f.records.recentWeights = []float64{990, 990, 1000, 1000, 1010, 1010}
	gross := 1050.0

	result, err := f.svc.RecordCount(f.tenantID, f.userID, &RecordCountRequest{
		SessionID:    &session.ID,
		ItemID:       item.ID,
		Method:       model.WorkflowContainerWeight,
		GrossWeightG: &gross,
	})
	require.NoError(t, err)
	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, anomaly.TypeOutlierWeight, result.Anomalies[0].Type)
	// A warning alone never blocks persistence.
	require.NotNil(t, result.Record)
}

func TestRecordCountSessionlessAdHoc(t *testing.T) {
	f := newSessionFixture()
	item := f.addItem(&model.InventoryItem{SKU: "FLOUR-25"})
	qty := 3.0

	result, err := f.svc.RecordCount(f.tenantID, f.userID, &RecordCountRequest{
		ItemID:   item.ID,
		Method:   model.WorkflowUnitCount,
		Quantity: &qty,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Record)
	assert.Nil(t, result.Record.SessionID)
	require.Len(t, f.records.created, 1)
	assert.Equal(t, 0, f.sessions.incrementCounted)
}

func TestRecordCountOfflineCapturedAt(t *testing.T) {
	f, session := transitionFixture(model.SessionActive)
	item := f.addItem(&model.InventoryItem{SKU: "FLOUR-25"})
	qty := 2.0
	capturedAt := time.Date(2026, 2, 10, 21, 30, 0, 0, time.UTC)

	result, err := f.svc.RecordCount(f.tenantID, f.userID, &RecordCountRequest{
		SessionID: &session.ID,
		ItemID:    item.ID,
		Method:    model.WorkflowUnitCount,
		Quantity:  &qty,
		CountedAt: &capturedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, capturedAt, result.Record.CountedAt)
}

func TestRecordCountMissingModalityInput(t *testing.T) {
	f, session := transitionFixture(model.SessionActive)
	item := f.addItem(&model.InventoryItem{SKU: "FLOUR-25"})

	_, err := f.svc.RecordCount(f.tenantID, f.userID, &RecordCountRequest{
		SessionID: &session.ID,
		ItemID:    item.ID,
		Method:    model.WorkflowUnitCount,
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.RecordCount(f.tenantID, f.userID, &RecordCountRequest{
		SessionID: &session.ID,
		ItemID:    item.ID,
		Method:    model.CountingWorkflow("guess"),
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
