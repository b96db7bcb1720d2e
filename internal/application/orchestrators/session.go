package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"companion/internal/adapters/realtime"
	"companion/internal/adapters/script"
	"companion/internal/domain/attendance"
)

// SessionDeps holds dependencies shared by the session orchestrators.
type SessionDeps struct {
	SessionStore SessionStoreForOrchestrator
	Hub          Broadcaster    // optional
	Sync         StateScheduler // optional
	Now          func() time.Time
}

func today(now func() time.Time) string {
	return now().Format(attendance.DateLayout)
}

// currentSession returns the saved tally, or a cleared one for today.
func currentSession(ctx context.Context, deps SessionDeps) (attendance.SessionState, error) {
	s, ok, err := deps.SessionStore.Get(ctx)
	if err != nil {
		return attendance.SessionState{}, err
	}
	if !ok {
		return attendance.NewSessionState(today(deps.Now)), nil
	}
	s.Normalize()
	return s, nil
}

// applySession saves s locally, pushes it to connected devices and schedules
// the sheet sync.
func applySession(ctx context.Context, deps SessionDeps, eventType string, s attendance.SessionState) error {
	now := deps.Now()
	if err := deps.SessionStore.Save(ctx, s, now); err != nil {
		return err
	}
	if deps.Hub != nil {
		deps.Hub.Broadcast(realtime.NewSessionEvent(eventType, s, now))
	}
	if deps.Sync != nil {
		deps.Sync.Schedule(s)
	}
	return nil
}

// --- Update Session ---

// UpdateSessionInput carries input for the update session orchestrator.
type UpdateSessionInput struct {
	State attendance.SessionState
}

// ExecuteUpdateSession replaces the shared tally.
// PRE: input.State passes Validate after Normalize
// POST: State saved, broadcast as session.update and scheduled for sync
func ExecuteUpdateSession(ctx context.Context, input UpdateSessionInput, deps SessionDeps) (attendance.SessionState, error) {
	s := input.State
	s.Normalize()
	if err := s.Validate(); err != nil {
		return attendance.SessionState{}, err
	}
	if err := applySession(ctx, deps, realtime.EventSessionUpdate, s); err != nil {
		return attendance.SessionState{}, err
	}
	slog.Debug("session_event", "event", "session_updated", "date", s.SelectedDate, "lesson", s.LessonCount, "dance_only", s.DanceOnlyCount)
	return s, nil
}

// --- Reset Session ---

// ExecuteResetSession clears every counter and starts a new tally for today.
// POST: State is zeroed with split one and default prices, broadcast as session.reset
func ExecuteResetSession(ctx context.Context, deps SessionDeps) (attendance.SessionState, error) {
	s := attendance.NewSessionState(today(deps.Now))
	if err := applySession(ctx, deps, realtime.EventSessionReset, s); err != nil {
		return attendance.SessionState{}, err
	}
	slog.Info("session_event", "event", "session_reset", "date", s.SelectedDate)
	return s, nil
}

// --- Restore Session ---

// Restore sources.
const (
	RestoredFromScript = "script"
	RestoredFromLocal  = "local"
	RestoredNew        = "new"
)

// RestoreSessionDeps holds dependencies for RestoreSession.
type RestoreSessionDeps struct {
	Script       StateFetcher // optional
	SessionStore SessionStoreForOrchestrator
	Now          func() time.Time
}

// ExecuteRestoreSession loads the shared tally at startup. The script's copy
// wins over the local one. Counters and prices carry over; the date is always
// today's.
// POST: the restored state is saved locally; returns it with its source
func ExecuteRestoreSession(ctx context.Context, deps RestoreSessionDeps) (attendance.SessionState, string, error) {
	date := today(deps.Now)
	s, source := attendance.NewSessionState(date), RestoredNew

	if saved, ok := fetchScriptState(ctx, deps.Script); ok {
		s, source = restoredState(saved, date), RestoredFromScript
	} else if saved, ok, err := deps.SessionStore.Get(ctx); err != nil {
		slog.Warn("session_restore_local_failed", "error", err)
	} else if ok {
		s, source = restoredState(saved, date), RestoredFromLocal
	}

	if err := deps.SessionStore.Save(ctx, s, deps.Now()); err != nil {
		return attendance.SessionState{}, "", err
	}
	slog.Info("session_event", "event", "session_restored", "source", source, "date", s.SelectedDate)
	return s, source, nil
}

func fetchScriptState(ctx context.Context, f StateFetcher) (attendance.SessionState, bool) {
	if f == nil {
		return attendance.SessionState{}, false
	}
	s, ok, err := f.FetchState(ctx)
	if err != nil {
		if !errors.Is(err, script.ErrNotConfigured) {
			slog.Warn("session_restore_script_failed", "error", err)
		}
		return attendance.SessionState{}, false
	}
	return s, ok
}

// restoredState copies counters from saved onto a fresh tally for date.
// Negative counters read as zero, except the signed manual adjustment; unset
// split and prices keep their defaults.
func restoredState(saved attendance.SessionState, date string) attendance.SessionState {
	s := attendance.NewSessionState(date)
	s.LessonCount = max(saved.LessonCount, 0)
	s.DanceOnlyCount = max(saved.DanceOnlyCount, 0)
	s.TotalManualAdjust = saved.TotalManualAdjust
	s.TotalCompedCount = max(saved.TotalCompedCount, 0)
	s.CustomAmount = max(saved.CustomAmount, 0)
	if saved.SplitPersons > 0 {
		s.SplitPersons = saved.SplitPersons
	}
	if saved.PriceLesson > 0 {
		s.PriceLesson = saved.PriceLesson
	}
	if saved.PriceDance > 0 {
		s.PriceDance = saved.PriceDance
	}
	return s
}
