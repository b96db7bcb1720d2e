package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"companion/internal/adapters/realtime"
	"companion/internal/domain/attendance"
	"companion/internal/domain/outbox"
)

// AddCompedInput carries input for the add comped orchestrator.
type AddCompedInput struct {
	Name  string
	Notes string
	Date  string // defaults to the session's date
}

// AddCompedDeps holds dependencies for AddComped.
type AddCompedDeps struct {
	AttendanceStore AttendanceStoreForOrchestrator
	Session         SessionDeps
	Dispatch        DispatchDeps
	GenerateID      func() string
}

// ExecuteAddComped records a guest let in for free and counts them in
// tonight's tally.
// PRE: input.Name is non-blank
// POST: CompedRecord saved with its dispatch state; TotalCompedCount incremented and broadcast
func ExecuteAddComped(ctx context.Context, input AddCompedInput, deps AddCompedDeps) (attendance.CompedRecord, attendance.SessionState, error) {
	state, err := currentSession(ctx, deps.Session)
	if err != nil {
		return attendance.CompedRecord{}, attendance.SessionState{}, err
	}

	date := strings.TrimSpace(input.Date)
	if date == "" {
		date = state.SelectedDate
	}
	c := attendance.CompedRecord{
		ID:        deps.GenerateID(),
		Date:      date,
		Name:      strings.TrimSpace(input.Name),
		Notes:     strings.TrimSpace(input.Notes),
		CreatedAt: deps.Session.Now(),
	}
	if err := c.Validate(); err != nil {
		return attendance.CompedRecord{}, attendance.SessionState{}, err
	}

	c.Dispatch, err = dispatchOrQueue(ctx, deps.Dispatch, outbox.ActionCommitComped, compedPayload{Date: c.Date, Name: c.Name, Notes: c.Notes}, c.ID, "")
	if err != nil {
		return attendance.CompedRecord{}, attendance.SessionState{}, err
	}
	if err := deps.AttendanceStore.SaveComped(ctx, c); err != nil {
		return attendance.CompedRecord{}, attendance.SessionState{}, err
	}

	state.TotalCompedCount++
	if err := applySession(ctx, deps.Session, realtime.EventSessionUpdate, state); err != nil {
		return attendance.CompedRecord{}, attendance.SessionState{}, err
	}
	slog.Info("attendance_event", "event", "comped_added", "comped_id", c.ID, "date", c.Date, "dispatch", c.Dispatch, "total_comped", state.TotalCompedCount)
	return c, state, nil
}
