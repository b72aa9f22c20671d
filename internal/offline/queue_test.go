package offline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestQueue(t *testing.T) *SQLiteQueue {
	t.Helper()
	q, err := OpenSQLiteQueue(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func TestEnqueueAssignsIDAndBookkeeping(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()

	ev := &ScanEvent{Barcode: "0123456789", Workflow: "unit_count", SyncAttempts: 7, Synced: true}
	require.NoError(t, q.Enqueue(ctx, ev))

	// Enqueue owns the bookkeeping regardless of what the caller passed.
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Synced)
	assert.Zero(t, ev.SyncAttempts)
	assert.False(t, ev.CapturedAt.IsZero())

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ev.ID, pending[0].ID)
	assert.Equal(t, "0123456789", pending[0].Barcode)
}

func TestPendingOrderedByCaptureTime(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	second := &ScanEvent{Barcode: "B", Workflow: "scan", CapturedAt: base.Add(time.Minute)}
	first := &ScanEvent{Barcode: "A", Workflow: "scan", CapturedAt: base}
	require.NoError(t, q.Enqueue(ctx, second))
	require.NoError(t, q.Enqueue(ctx, first))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "A", pending[0].Barcode)
	assert.Equal(t, "B", pending[1].Barcode)
}

func TestApplyOutcomes(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()

	ok := &ScanEvent{Barcode: "OK", Workflow: "scan"}
	bad := &ScanEvent{Barcode: "BAD", Workflow: "scan"}
	require.NoError(t, q.Enqueue(ctx, ok))
	require.NoError(t, q.Enqueue(ctx, bad))

	now := time.Now().UTC()
	require.NoError(t, q.ApplyOutcomes(ctx, []Outcome{
		{EventID: ok.ID, Synced: true, AttemptedAt: now},
		{EventID: bad.ID, Synced: false, AttemptedAt: now},
	}))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bad.ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].SyncAttempts)
	require.NotNil(t, pending[0].LastSyncAttempt)

	all, err := q.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestRetryBudgetExhaustionParksEvent(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()

	ev := &ScanEvent{Barcode: "FLAKY", Workflow: "scan"}
	require.NoError(t, q.Enqueue(ctx, ev))

	for i := 0; i < MaxSyncAttempts; i++ {
		pending, err := q.Pending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1, "attempt %d", i)
		require.NoError(t, q.ApplyOutcomes(ctx, []Outcome{
			{EventID: ev.ID, Synced: false, AttemptedAt: time.Now()},
		}))
	}

	// Three strikes: excluded from retry but retained, never dropped.
	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	stuck, err := q.Stuck(ctx)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, ev.ID, stuck[0].ID)
	assert.True(t, stuck[0].Stuck())
	assert.Equal(t, MaxSyncAttempts, stuck[0].SyncAttempts)
}

func TestClearSynced(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()

	done := &ScanEvent{Barcode: "DONE", Workflow: "scan"}
	open := &ScanEvent{Barcode: "OPEN", Workflow: "scan"}
	require.NoError(t, q.Enqueue(ctx, done))
	require.NoError(t, q.Enqueue(ctx, open))
	require.NoError(t, q.ApplyOutcomes(ctx, []Outcome{
		{EventID: done.ID, Synced: true, AttemptedAt: time.Now()},
	}))

	require.NoError(t, q.ClearSynced(ctx))

	all, err := q.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, open.ID, all[0].ID)
}

func TestApplyOutcomesEmptyIsNoop(t *testing.T) {
	q := openTestQueue(t)
	require.NoError(t, q.ApplyOutcomes(context.Background(), nil))
}

func TestStuckPredicate(t *testing.T) {
	assert.False(t, (&ScanEvent{SyncAttempts: 2}).Stuck())
	assert.True(t, (&ScanEvent{SyncAttempts: 3}).Stuck())
	// A synced event is never stuck, whatever its attempt count.
	assert.False(t, (&ScanEvent{Synced: true, SyncAttempts: 5}).Stuck())
}
