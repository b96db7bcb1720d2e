package outbox

import (
	"context"

	domain "companion/internal/domain/outbox"
)

// Store persists undelivered script dispatches and report emails.
type Store interface {
	// GetByID retrieves an entry by its ID.
	// PRE: id is non-empty
	// POST: Returns the entry or sql.ErrNoRows
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save inserts or updates an entry.
	// PRE: entry has been validated
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns entries still waiting for delivery, oldest first.
	// PRE: limit > 0
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListRecent returns entries of any status, newest first.
	// PRE: limit > 0
	ListRecent(ctx context.Context, limit int) ([]domain.Entry, error)

	// CountByStatus returns the number of entries in each status.
	CountByStatus(ctx context.Context) (map[string]int, error)

	// Delete removes an entry.
	// PRE: entry is terminal
	Delete(ctx context.Context, id string) error
}
