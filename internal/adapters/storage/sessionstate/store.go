package sessionstate

import (
	"context"
	"time"

	domain "companion/internal/domain/attendance"
)

// Store keeps the single live session tally.
type Store interface {
	// Get returns the saved tally.
	// POST: ok is false when nothing has been saved yet
	Get(ctx context.Context) (state domain.SessionState, ok bool, err error)

	// Save replaces the saved tally.
	// PRE: state has been validated
	Save(ctx context.Context, state domain.SessionState, now time.Time) error
}
