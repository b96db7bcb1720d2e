package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"companion/internal/adapters/storage"
	domain "companion/internal/domain/attendance"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	recordColumns = `id, date, total_in_attendance, lesson_and_dance, dance_only, total_comped, total_revenue, per_person_split, dispatch, created_at`
	compedColumns = `id, date, name, notes, dispatch, created_at`
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new attendance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// SaveRecord upserts a committed night.
// PRE: record has been validated
// POST: Record is persisted
func (s *SQLiteStore) SaveRecord(ctx context.Context, r domain.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance_record (`+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   date=excluded.date, total_in_attendance=excluded.total_in_attendance,
		   lesson_and_dance=excluded.lesson_and_dance, dance_only=excluded.dance_only,
		   total_comped=excluded.total_comped, total_revenue=excluded.total_revenue,
		   per_person_split=excluded.per_person_split, dispatch=excluded.dispatch`,
		r.ID, r.Date, r.TotalInAttendance, r.LessonAndDance, r.DanceOnly, r.TotalComped,
		r.TotalRevenue, r.PerPersonSplit, r.Dispatch, r.CreatedAt.UTC().Format(timeLayout))
	return err
}

// GetRecord retrieves a committed night by ID.
// PRE: id is non-empty
// POST: Returns the record or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM attendance_record WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return domain.Record{}, fmt.Errorf("attendance record not found: %w", err)
	}
	return r, err
}

// ListRecords returns committed nights, newest night first.
// PRE: filter.Limit > 0, otherwise all rows are returned
func (s *SQLiteStore) ListRecords(ctx context.Context, filter ListFilter) ([]domain.Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM attendance_record ORDER BY date DESC, created_at DESC LIMIT ? OFFSET ?`,
		limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountRecords returns the number of committed nights.
func (s *SQLiteStore) CountRecords(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance_record`).Scan(&n)
	return n, err
}

// SaveComped upserts a comped guest.
// PRE: entry has been validated
func (s *SQLiteStore) SaveComped(ctx context.Context, c domain.CompedRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comped_entry (`+compedColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   date=excluded.date, name=excluded.name, notes=excluded.notes, dispatch=excluded.dispatch`,
		c.ID, c.Date, c.Name, c.Notes, c.Dispatch, c.CreatedAt.UTC().Format(timeLayout))
	return err
}

// ListCompedByDate returns one night's comped guests in entry order.
// PRE: date is YYYY-MM-DD
func (s *SQLiteStore) ListCompedByDate(ctx context.Context, date string) ([]domain.CompedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+compedColumns+` FROM comped_entry WHERE date = ? ORDER BY created_at ASC, id ASC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.CompedRecord
	for rows.Next() {
		var c domain.CompedRecord
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Date, &c.Name, &c.Notes, &c.Dispatch, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetDispatch updates the dispatch state of whichever row carries id.
// PRE: id is non-empty
// POST: Returns the number of rows changed
func (s *SQLiteStore) SetDispatch(ctx context.Context, id, dispatch string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total int64
	for _, table := range []string{"attendance_record", "comped_entry"} {
		res, err := tx.ExecContext(ctx, `UPDATE `+table+` SET dispatch = ? WHERE id = ?`, dispatch, id)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(total), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (domain.Record, error) {
	var r domain.Record
	var createdAt string
	err := sc.Scan(&r.ID, &r.Date, &r.TotalInAttendance, &r.LessonAndDance, &r.DanceOnly,
		&r.TotalComped, &r.TotalRevenue, &r.PerPersonSplit, &r.Dispatch, &createdAt)
	if err != nil {
		return domain.Record{}, err
	}
	r.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return r, nil
}
