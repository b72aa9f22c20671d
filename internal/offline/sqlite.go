package offline

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_events (
	id                TEXT PRIMARY KEY,
	barcode           TEXT NOT NULL,
	workflow          TEXT NOT NULL,
	payload           TEXT NOT NULL DEFAULT '',
	captured_at       TIMESTAMP NOT NULL,
	synced            INTEGER NOT NULL DEFAULT 0,
	sync_attempts     INTEGER NOT NULL DEFAULT 0,
	last_sync_attempt TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_scan_events_synced ON scan_events (synced, sync_attempts);
`

// SQLiteQueue is the durable on-device queue store.
type SQLiteQueue struct {
	db *sql.DB
}

// OpenSQLiteQueue opens (creating if needed) the queue database at path.
// Use ":memory:" for an ephemeral queue in tests.
func OpenSQLiteQueue(path string) (*SQLiteQueue, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open queue db: %w", err)
	}
	// Serialized access: the queue has a single owning process.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init queue schema: %w", err)
	}
	return &SQLiteQueue{db: db}, nil
}

func (q *SQLiteQueue) Close() error { return q.db.Close() }

func (q *SQLiteQueue) Enqueue(ctx context.Context, ev *ScanEvent) error {
	ev.ID = uuid.New().String()
	ev.Synced = false
	ev.SyncAttempts = 0
	ev.LastSyncAttempt = nil
	if ev.CapturedAt.IsZero() {
		ev.CapturedAt = time.Now()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO scan_events (id, barcode, workflow, payload, captured_at) VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.Barcode, ev.Workflow, ev.Payload, ev.CapturedAt)
	if err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}
	return nil
}

func (q *SQLiteQueue) Pending(ctx context.Context) ([]ScanEvent, error) {
	return q.query(ctx,
		`SELECT id, barcode, workflow, payload, captured_at, synced, sync_attempts, last_sync_attempt
		 FROM scan_events WHERE synced = 0 AND sync_attempts < ? ORDER BY captured_at ASC`,
		MaxSyncAttempts)
}

func (q *SQLiteQueue) Stuck(ctx context.Context) ([]ScanEvent, error) {
	return q.query(ctx,
		`SELECT id, barcode, workflow, payload, captured_at, synced, sync_attempts, last_sync_attempt
		 FROM scan_events WHERE synced = 0 AND sync_attempts >= ? ORDER BY captured_at ASC`,
		MaxSyncAttempts)
}

func (q *SQLiteQueue) All(ctx context.Context) ([]ScanEvent, error) {
	return q.query(ctx,
		`SELECT id, barcode, workflow, payload, captured_at, synced, sync_attempts, last_sync_attempt
		 FROM scan_events ORDER BY captured_at ASC`)
}

// ApplyOutcomes persists all results of a drain pass in one transaction so
// a partial write can never tear the retry bookkeeping.
func (q *SQLiteQueue) ApplyOutcomes(ctx context.Context, outcomes []Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outcomes tx: %w", err)
	}
	defer tx.Rollback()

	for _, o := range outcomes {
		if o.Synced {
			_, err = tx.ExecContext(ctx,
				`UPDATE scan_events SET synced = 1, last_sync_attempt = ? WHERE id = ?`,
				o.AttemptedAt, o.EventID)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE scan_events SET sync_attempts = sync_attempts + 1, last_sync_attempt = ? WHERE id = ?`,
				o.AttemptedAt, o.EventID)
		}
		if err != nil {
			return fmt.Errorf("apply outcome for %s: %w", o.EventID, err)
		}
	}
	return tx.Commit()
}

func (q *SQLiteQueue) ClearSynced(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM scan_events WHERE synced = 1`)
	return err
}

func (q *SQLiteQueue) query(ctx context.Context, stmt string, args ...interface{}) ([]ScanEvent, error) {
	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ScanEvent
	for rows.Next() {
		var ev ScanEvent
		var synced int
		var last sql.NullTime
		if err := rows.Scan(&ev.ID, &ev.Barcode, &ev.Workflow, &ev.Payload, &ev.CapturedAt, &synced, &ev.SyncAttempts, &last); err != nil {
			return nil, err
		}
		ev.Synced = synced != 0
		if last.Valid {
			t := last.Time
			ev.LastSyncAttempt = &t
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
