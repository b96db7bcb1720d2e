package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"companion/internal/adapters/email"
	"companion/internal/domain/outbox"
)

// Backoff bounds between delivery attempts.
const (
	DefaultRetryBaseDelay = 30 * time.Second
	DefaultRetryMaxDelay  = 1 * time.Hour
	retryBatchSize        = 100
)

var (
	// ErrNotRetryable is returned when a manual retry targets a finished entry.
	ErrNotRetryable = errors.New("outbox entry is done or abandoned")
	// ErrNoMailer is returned when a queued report email cannot be sent.
	ErrNoMailer = errors.New("no email sender configured")
)

// OutboxRetryDeps provides the dependencies for retrying outbox entries.
type OutboxRetryDeps struct {
	OutboxStore     OutboxStoreForOrchestrator
	AttendanceStore AttendanceStoreForOrchestrator
	Script          ScriptPoster
	Mailer          email.Sender
	Now             func() time.Time
	BaseDelay       time.Duration // zero selects DefaultRetryBaseDelay
	MaxDelay        time.Duration // zero selects DefaultRetryMaxDelay
}

func (d OutboxRetryDeps) backoff() (time.Duration, time.Duration) {
	base, maxDelay := d.BaseDelay, d.MaxDelay
	if base <= 0 {
		base = DefaultRetryBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultRetryMaxDelay
	}
	return base, maxDelay
}

// OutboxRetryResult summarises one retry pass.
type OutboxRetryResult struct {
	Processed int
	Succeeded int
	Failed    int
	Deferred  int // still inside their backoff window
}

// ExecuteOutboxRetry replays pending entries whose backoff has elapsed.
// PRE: Deps are valid and store is connected
// POST: Every due entry is attempted once and saved with its new status
func ExecuteOutboxRetry(ctx context.Context, deps OutboxRetryDeps) (OutboxRetryResult, error) {
	var res OutboxRetryResult
	entries, err := deps.OutboxStore.ListPending(ctx, retryBatchSize)
	if err != nil {
		return res, fmt.Errorf("failed to list retryable outbox entries: %w", err)
	}
	if len(entries) == 0 {
		return res, nil
	}

	slog.Info("outbox_retry_start", "count", len(entries))
	base, maxDelay := deps.backoff()
	now := deps.Now()

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.CanRetry() {
			continue
		}
		if !entry.DueAt(now, base, maxDelay) {
			res.Deferred++
			slog.Debug("outbox_retry_skipped_backoff", "entry_id", entry.ID, "attempts", entry.Attempts)
			continue
		}
		res.Processed++
		if err := attemptEntry(ctx, &entry, deps); err != nil {
			res.Failed++
		} else {
			res.Succeeded++
		}
	}

	slog.Info("outbox_retry_complete", "processed", res.Processed, "succeeded", res.Succeeded, "failed", res.Failed, "deferred", res.Deferred)
	return res, nil
}

// attemptEntry delivers one entry and saves the outcome.
// POST: entry carries the attempt; the returned error is the delivery error
func attemptEntry(ctx context.Context, entry *outbox.Entry, deps OutboxRetryDeps) error {
	if superseded(ctx, *entry, deps.OutboxStore) {
		slog.Info("outbox_retry_superseded", "entry_id", entry.ID, "action", entry.ActionType)
		return nil
	}
	entry.MarkAttempt(deps.Now())
	dispatch, err := deliver(ctx, *entry, deps)
	if err != nil {
		entry.MarkFailed(err)
		slog.Error("outbox_retry_failed", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts, "status", entry.Status, "error", err)
	} else {
		entry.MarkSuccess()
		slog.Info("outbox_retry_succeeded", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts)
	}

	if superseded(ctx, *entry, deps.OutboxStore) {
		slog.Info("outbox_retry_superseded", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts)
		return err
	}
	if saveErr := deps.OutboxStore.Save(ctx, *entry); saveErr != nil {
		slog.Error("outbox_retry_save_failed", "entry_id", entry.ID, "error", saveErr)
	}
	if err == nil && entry.RecordID != "" && dispatch != "" && deps.AttendanceStore != nil {
		if _, setErr := deps.AttendanceStore.SetDispatch(ctx, entry.RecordID, dispatch); setErr != nil {
			slog.Error("outbox_retry_dispatch_update_failed", "entry_id", entry.ID, "record_id", entry.RecordID, "error", setErr)
		}
	}
	return err
}

// superseded reports whether the stored sync-state slot no longer holds the
// payload this entry was loaded with. A newer state was queued, or it was
// delivered directly, while the older copy waited.
// POST: Always false for actions other than syncState
func superseded(ctx context.Context, entry outbox.Entry, store OutboxStoreForOrchestrator) bool {
	if entry.ActionType != outbox.ActionSyncState {
		return false
	}
	current, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		return false
	}
	return current.Payload != entry.Payload || current.Status == outbox.StatusDone || current.Status == outbox.StatusAbandoned
}

// deliver replays the entry's payload.
// POST: Returns the attendance dispatch state for script actions, "" for email
func deliver(ctx context.Context, entry outbox.Entry, deps OutboxRetryDeps) (string, error) {
	switch entry.ActionType {
	case outbox.ActionCommitAttendance, outbox.ActionCommitComped, outbox.ActionSyncState:
		if deps.Script == nil {
			return "", errors.New("no script client configured")
		}
		d, err := deps.Script.Post(ctx, []byte(entry.Payload))
		if err != nil {
			return "", err
		}
		return dispatchState(d.Status), nil
	case outbox.ActionReportEmail:
		if deps.Mailer == nil {
			return "", ErrNoMailer
		}
		var msg email.Message
		if err := json.Unmarshal([]byte(entry.Payload), &msg); err != nil {
			return "", fmt.Errorf("failed to unmarshal email payload: %w", err)
		}
		_, err := deps.Mailer.Send(ctx, msg)
		return "", err
	default:
		return "", fmt.Errorf("unknown action type: %s", entry.ActionType)
	}
}

// ExecuteRetryOutboxEntry attempts one entry immediately, ignoring backoff.
// An entry that used up its attempts gets one more.
// PRE: id is non-empty
// POST: Returns the entry after the attempt
func ExecuteRetryOutboxEntry(ctx context.Context, id string, deps OutboxRetryDeps) (outbox.Entry, error) {
	entry, err := deps.OutboxStore.GetByID(ctx, id)
	if err != nil {
		return outbox.Entry{}, err
	}
	if entry.Status == outbox.StatusDone || entry.Status == outbox.StatusAbandoned {
		return entry, ErrNotRetryable
	}
	if entry.Attempts >= entry.MaxAttempts {
		entry.MaxAttempts = entry.Attempts + 1
	}
	slog.Info("outbox_event", "event", "manual_retry", "entry_id", id, "action", entry.ActionType)
	_ = attemptEntry(ctx, &entry, deps)
	return entry, nil
}

// ExecuteAbandonOutboxEntry stops an entry from being replayed. A linked
// record keeps its queued dispatch state.
// PRE: id is non-empty
// POST: Entry saved as abandoned
func ExecuteAbandonOutboxEntry(ctx context.Context, id string, deps OutboxRetryDeps) (outbox.Entry, error) {
	entry, err := deps.OutboxStore.GetByID(ctx, id)
	if err != nil {
		return outbox.Entry{}, err
	}
	if err := entry.Abandon(); err != nil {
		return entry, err
	}
	if err := deps.OutboxStore.Save(ctx, entry); err != nil {
		return outbox.Entry{}, err
	}
	slog.Info("outbox_event", "event", "abandoned", "entry_id", id, "action", entry.ActionType, "record_id", entry.RecordID)
	return entry, nil
}

// OutboxRetryConfig holds configuration for the retry scheduler.
type OutboxRetryConfig struct {
	Interval time.Duration // How often to run retries
	Enabled  bool
}

// DefaultOutboxRetryConfig returns the default scheduler settings.
func DefaultOutboxRetryConfig() OutboxRetryConfig {
	return OutboxRetryConfig{
		Interval: time.Minute,
		Enabled:  true,
	}
}

// StartOutboxRetryScheduler starts a background goroutine that periodically retries outbox entries.
// PRE: Context is valid, deps are initialized
// POST: Goroutine started, returns a stop function that waits for it to exit
func StartOutboxRetryScheduler(ctx context.Context, deps OutboxRetryDeps, cfg OutboxRetryConfig) func() {
	if !cfg.Enabled || cfg.Interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := ExecuteOutboxRetry(ctx, deps); err != nil {
					slog.Error("outbox_retry_scheduler_error", "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
