package sessionstate

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"companion/internal/adapters/storage"
	domain "companion/internal/domain/attendance"
)

// SQLiteStore implements Store as one JSON row.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new session state store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get returns the saved tally.
// POST: ok is false and err is nil when no row exists
func (s *SQLiteStore) Get(ctx context.Context) (domain.SessionState, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM session_state WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return domain.SessionState{}, false, nil
	}
	if err != nil {
		return domain.SessionState{}, false, err
	}
	var state domain.SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return domain.SessionState{}, false, fmt.Errorf("decode session state: %w", err)
	}
	return state, true, nil
}

// Save replaces the saved tally.
// PRE: state has been validated
// POST: exactly one session_state row exists
func (s *SQLiteStore) Save(ctx context.Context, state domain.SessionState, now time.Time) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_state (id, state, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET state=excluded.state, updated_at=excluded.updated_at`,
		string(raw), now.UTC().Format(time.RFC3339))
	return err
}
