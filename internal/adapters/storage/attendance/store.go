package attendance

import (
	"context"

	domain "companion/internal/domain/attendance"
)

// Store persists committed nights and comped guests.
type Store interface {
	// SaveRecord inserts or updates a committed night.
	// PRE: record has been validated
	SaveRecord(ctx context.Context, r domain.Record) error

	// GetRecord retrieves a committed night by ID.
	// POST: Returns the record or an error wrapping sql.ErrNoRows
	GetRecord(ctx context.Context, id string) (domain.Record, error)

	// ListRecords returns committed nights, newest first.
	ListRecords(ctx context.Context, filter ListFilter) ([]domain.Record, error)

	// CountRecords returns the number of committed nights.
	CountRecords(ctx context.Context) (int, error)

	// SaveComped inserts or updates a comped guest.
	// PRE: entry has been validated
	SaveComped(ctx context.Context, c domain.CompedRecord) error

	// ListCompedByDate returns the comped guests of one night in entry order.
	ListCompedByDate(ctx context.Context, date string) ([]domain.CompedRecord, error)

	// SetDispatch updates the dispatch state of a record or comped entry.
	// POST: Returns the number of rows updated (0 or 1)
	SetDispatch(ctx context.Context, id, dispatch string) (int, error)
}

// ListFilter carries paging for List operations.
type ListFilter struct {
	Limit  int
	Offset int
}
