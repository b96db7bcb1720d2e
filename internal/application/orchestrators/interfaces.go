package orchestrators

import (
	"context"
	"time"

	"companion/internal/adapters/script"
	"companion/internal/domain/attendance"
	"companion/internal/domain/outbox"
	"companion/internal/domain/sheet"
)

// GridFetcher reads one snapshot of the studio sheet.
type GridFetcher interface {
	Fetch(ctx context.Context) (sheet.Grid, error)
}

// ScriptPoster delivers prebuilt request bodies to the sheet script.
type ScriptPoster interface {
	IsConfigured() bool
	Post(ctx context.Context, body []byte) (script.Dispatch, error)
}

// StateFetcher reads the session tally held by the sheet script.
type StateFetcher interface {
	FetchState(ctx context.Context) (attendance.SessionState, bool, error)
}

// AttendanceStoreForOrchestrator defines the store interface needed by attendance orchestrators.
type AttendanceStoreForOrchestrator interface {
	SaveRecord(ctx context.Context, r attendance.Record) error
	SaveComped(ctx context.Context, c attendance.CompedRecord) error
	ListCompedByDate(ctx context.Context, date string) ([]attendance.CompedRecord, error)
	SetDispatch(ctx context.Context, id, dispatch string) (int, error)
}

// SessionStoreForOrchestrator defines the store interface needed by session orchestrators.
type SessionStoreForOrchestrator interface {
	Get(ctx context.Context) (attendance.SessionState, bool, error)
	Save(ctx context.Context, state attendance.SessionState, now time.Time) error
}

// OutboxStoreForOrchestrator defines the store interface needed by outbox orchestrators.
type OutboxStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (outbox.Entry, error)
	Save(ctx context.Context, e outbox.Entry) error
	ListPending(ctx context.Context, limit int) ([]outbox.Entry, error)
}

// Broadcaster fans an event out to connected admin devices.
type Broadcaster interface {
	Broadcast(v any) int
}

// StateScheduler queues the shared tally for delivery to the sheet script.
type StateScheduler interface {
	Schedule(s attendance.SessionState)
}
