package offline

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrSyncInProgress is returned by Drain when a pass is already running,
// so a manually triggered sync can tell "busy" apart from "queue empty".
var ErrSyncInProgress = errors.New("offline sync already in progress")

// DefaultSettleDelay is how long the reconciler waits after an
// offline-to-online transition before draining, so flaky connectivity
// doesn't trigger a thrash of half-finished passes.
const DefaultSettleDelay = 2 * time.Second

// Submitter delivers one event to the server acceptance path. Any error
// counts as a failed attempt against the event's retry budget.
type Submitter interface {
	Submit(ctx context.Context, ev ScanEvent) error
}

// Notifier receives a best-effort "sync finished" signal.
type Notifier func(synced, failed int)

// Reconciler drains the offline queue when connectivity returns. Events
// are submitted concurrently (each is independently idempotent) and the
// queue is updated as a single batch after all outcomes resolve. It never
// blocks the counting UI: draining happens on background goroutines whose
// only observable effect is the queue's contents and the notifier call.
type Reconciler struct {
	queue     Queue
	submitter Submitter
	settle    time.Duration
	notify    Notifier

	mu       sync.Mutex
	timer    *time.Timer
	draining bool
}

type ReconcilerOption func(*Reconciler)

func WithSettleDelay(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) { r.settle = d }
}

func WithNotifier(n Notifier) ReconcilerOption {
	return func(r *Reconciler) { r.notify = n }
}

func NewReconciler(queue Queue, submitter Submitter, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		queue:     queue,
		submitter: submitter,
		settle:    DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnOnline schedules a drain after the settle delay. Repeated signals
// reset the timer instead of stacking drains.
func (r *Reconciler) OnOnline(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.settle, func() {
		if _, _, err := r.Drain(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
			log.Printf("offline sync failed: %v", err)
		}
	})
}

// OnOffline cancels any pending scheduled drain.
func (r *Reconciler) OnOffline() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// Drain submits every pending event and applies all outcomes as one batch.
// Also the entrypoint for a manually requested sync. Only one drain runs
// at a time; a second call during a pass returns ErrSyncInProgress.
func (r *Reconciler) Drain(ctx context.Context) (synced, failed int, err error) {
	r.mu.Lock()
	if r.draining {
		r.mu.Unlock()
		return 0, 0, ErrSyncInProgress
	}
	r.draining = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.draining = false
		r.mu.Unlock()
	}()

	pending, err := r.queue.Pending(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	// No cross-event ordering: the payloads are self-describing and the
	// server applies them idempotently.
	outcomes := make([]Outcome, len(pending))
	var wg sync.WaitGroup
	for i, ev := range pending {
		wg.Add(1)
		go func(i int, ev ScanEvent) {
			defer wg.Done()
			submitErr := r.submitter.Submit(ctx, ev)
			outcomes[i] = Outcome{
				EventID:     ev.ID,
				Synced:      submitErr == nil,
				AttemptedAt: time.Now(),
			}
			if submitErr != nil {
				log.Printf("offline sync: event %s attempt failed: %v", ev.ID, submitErr)
			}
		}(i, ev)
	}
	wg.Wait()

	if err := r.queue.ApplyOutcomes(ctx, outcomes); err != nil {
		return 0, 0, err
	}

	for _, o := range outcomes {
		if o.Synced {
			synced++
		} else {
			failed++
		}
	}

	if r.notify != nil && synced > 0 {
		r.notify(synced, failed)
	}
	return synced, failed, nil
}
