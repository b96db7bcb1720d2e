package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"companion/internal/adapters/script"
	"companion/internal/domain/attendance"
	"companion/internal/domain/outbox"
)

// syncStateOutboxID is the single outbox slot for the shared tally. A newer
// undelivered state replaces the older one instead of queueing behind it.
const syncStateOutboxID = "sync-state"

// DispatchDeps holds dependencies for sending actions to the sheet script.
type DispatchDeps struct {
	Script      ScriptPoster
	OutboxStore OutboxStoreForOrchestrator
	GenerateID  func() string
	Now         func() time.Time
}

// attendancePayload is the commitAttendance row written to the sheet.
type attendancePayload struct {
	Date              string  `json:"date"`
	TotalInAttendance int     `json:"totalInAttendance"`
	LessonAndDance    int     `json:"lessonAndDance"`
	DanceOnly         int     `json:"danceOnly"`
	TotalComped       int     `json:"totalComped"`
	TotalRevenue      float64 `json:"totalRevenue"`
	PerPersonSplit    float64 `json:"perPersonSplit"`
}

func attendancePayloadOf(r attendance.Record) attendancePayload {
	return attendancePayload{
		Date:              r.Date,
		TotalInAttendance: r.TotalInAttendance,
		LessonAndDance:    r.LessonAndDance,
		DanceOnly:         r.DanceOnly,
		TotalComped:       r.TotalComped,
		TotalRevenue:      r.TotalRevenue,
		PerPersonSplit:    r.PerPersonSplit,
	}
}

// compedPayload is the commitComped row written to the sheet.
type compedPayload struct {
	Date  string `json:"date"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

type syncStatePayload struct {
	State attendance.SessionState `json:"state"`
}

// dispatchOrQueue sends one action to the script. When delivery fails the
// request body is queued in the outbox under outboxID (a generated ID when
// empty) and the caller records the night as queued.
// PRE: payload encodes as a JSON object
// POST: Returns the attendance dispatch state; an error only when the body
// cannot be built or the outbox write fails
func dispatchOrQueue(ctx context.Context, deps DispatchDeps, action string, payload any, recordID, outboxID string) (string, error) {
	if deps.Script == nil || !deps.Script.IsConfigured() {
		slog.Debug("script_dispatch_skipped", "action", action, "reason", "not_configured")
		return attendance.DispatchLocal, nil
	}

	body, err := script.Body(action, payload)
	if err != nil {
		return "", fmt.Errorf("build %s body: %w", action, err)
	}

	d, sendErr := deps.Script.Post(ctx, body)
	if sendErr == nil {
		slog.Info("script_event", "event", "dispatched", "action", action, "record_id", recordID, "status", string(d.Status))
		if outboxID == syncStateOutboxID {
			closeSyncSlot(ctx, deps.OutboxStore)
		}
		return dispatchState(d.Status), nil
	}
	if errors.Is(sendErr, script.ErrNotConfigured) {
		return attendance.DispatchLocal, nil
	}

	if outboxID == "" {
		outboxID = deps.GenerateID()
	}
	entry := outbox.NewEntry(outboxID, action, string(body), recordID, sendErr, deps.Now())
	if err := entry.Validate(); err != nil {
		return "", err
	}
	if err := deps.OutboxStore.Save(ctx, entry); err != nil {
		return "", fmt.Errorf("queue %s: %w", action, err)
	}
	slog.Warn("script_event", "event", "dispatch_queued", "action", action, "record_id", recordID, "outbox_id", outboxID, "error", sendErr)
	return attendance.DispatchQueued, nil
}

// closeSyncSlot marks a still-open sync-state entry done once a newer state
// has reached the script, so the retry loop never replays the older one.
func closeSyncSlot(ctx context.Context, store OutboxStoreForOrchestrator) {
	if store == nil {
		return
	}
	e, err := store.GetByID(ctx, syncStateOutboxID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("sync_slot_lookup_failed", "error", err)
		}
		return
	}
	if e.Status == outbox.StatusDone || e.Status == outbox.StatusAbandoned {
		return
	}
	e.MarkSuccess()
	if err := store.Save(ctx, e); err != nil {
		slog.Error("sync_slot_close_failed", "error", err)
		return
	}
	slog.Info("script_event", "event", "sync_slot_superseded", "outbox_id", e.ID)
}

func dispatchState(s script.Status) string {
	if s == script.Confirmed {
		return attendance.DispatchConfirmed
	}
	return attendance.DispatchUnknown
}
