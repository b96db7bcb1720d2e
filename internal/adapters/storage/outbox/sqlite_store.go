package outbox

import (
	"context"
	"time"

	"companion/internal/adapters/storage"
	domain "companion/internal/domain/outbox"
)

// dateLayout is fixed width so stored timestamps sort lexically.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

const entryColumns = `id, action_type, payload, status, attempts, max_attempts, last_attempted_at, created_at, record_id, error_message`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM outbox WHERE id = ?`, id)
	return scanEntry(row)
}

// Save upserts an entry. Saving a fresh entry under an existing ID replaces
// its payload and resets its delivery state.
// PRE: entry has been validated
// POST: Entry is persisted
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   payload=excluded.payload, status=excluded.status, attempts=excluded.attempts,
		   max_attempts=excluded.max_attempts, last_attempted_at=excluded.last_attempted_at,
		   created_at=excluded.created_at, record_id=excluded.record_id, error_message=excluded.error_message`,
		e.ID, e.ActionType, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		formatTime(e.LastAttemptedAt), formatTime(e.CreatedAt), e.RecordID, e.ErrorMessage)
	return err
}

// ListPending returns pending and retrying entries, oldest first.
// PRE: limit > 0
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.list(ctx,
		`SELECT `+entryColumns+` FROM outbox WHERE status IN (?, ?) ORDER BY created_at ASC, id ASC LIMIT ?`,
		domain.StatusPending, domain.StatusRetrying, limit)
}

// ListRecent returns the latest entries regardless of status.
// PRE: limit > 0
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM outbox ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

// CountByStatus groups entries by status.
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM outbox GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Delete removes an entry.
// PRE: id is non-empty
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (domain.Entry, error) {
	var e domain.Entry
	var createdAt, lastAttemptedAt string
	err := sc.Scan(&e.ID, &e.ActionType, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&lastAttemptedAt, &createdAt, &e.RecordID, &e.ErrorMessage)
	if err != nil {
		return domain.Entry{}, err
	}
	e.CreatedAt = parseTime(createdAt)
	e.LastAttemptedAt = parseTime(lastAttemptedAt)
	return e, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, s)
	return t
}
