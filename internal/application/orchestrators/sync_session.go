package orchestrators

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"companion/internal/domain/attendance"
	"companion/internal/domain/outbox"
)

// DefaultSyncDelay is how long the tally must stay unchanged before it is
// pushed to the sheet script.
const DefaultSyncDelay = 5 * time.Second

// ExecuteSyncSession pushes the tally to the sheet script right away. An
// undelivered state replaces any earlier one waiting in the outbox.
// PRE: s has been validated
// POST: Returns the dispatch state of the push
func ExecuteSyncSession(ctx context.Context, s attendance.SessionState, deps DispatchDeps) (string, error) {
	dispatch, err := dispatchOrQueue(ctx, deps, outbox.ActionSyncState, syncStatePayload{State: s}, "", syncStateOutboxID)
	if err != nil {
		return "", err
	}
	slog.Debug("session_event", "event", "session_synced", "dispatch", dispatch)
	return dispatch, nil
}

// DebouncedSync batches tally changes into one script push once edits pause.
// It satisfies StateScheduler.
type DebouncedSync struct {
	deps  DispatchDeps
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *attendance.SessionState

	sendMu sync.Mutex // keeps pushes in order
}

// NewDebouncedSync creates a scheduler pushing through deps after delay.
// A delay <= 0 selects DefaultSyncDelay.
func NewDebouncedSync(deps DispatchDeps, delay time.Duration) *DebouncedSync {
	if delay <= 0 {
		delay = DefaultSyncDelay
	}
	return &DebouncedSync{deps: deps, delay: delay}
}

// Schedule records s as the latest state and restarts the quiet period.
// POST: only the most recent state is pushed when the timer fires
func (d *DebouncedSync) Schedule(s attendance.SessionState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = &s
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, func() { d.Flush(context.Background()) })
		return
	}
	d.timer.Reset(d.delay)
}

// Pending reports whether a state is waiting to be pushed.
func (d *DebouncedSync) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Flush pushes the waiting state now, if any. Called on shutdown.
// POST: nothing is pending; returns the dispatch state, or "" when idle
func (d *DebouncedSync) Flush(ctx context.Context) string {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()

	d.mu.Lock()
	s := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	if s == nil {
		return ""
	}
	dispatch, err := ExecuteSyncSession(ctx, *s, d.deps)
	if err != nil {
		slog.Error("session_sync_failed", "error", err)
		return ""
	}
	return dispatch
}
