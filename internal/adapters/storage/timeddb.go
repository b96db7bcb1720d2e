package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"companion/internal/adapters/http/perf"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy it.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQueryMs is the slow query warning threshold when
// COMPANION_SLOW_QUERY_MS is unset.
const DefaultSlowQueryMs = 50

var slowQueryThreshold = sync.OnceValue(func() float64 {
	if v := os.Getenv("COMPANION_SLOW_QUERY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return float64(n)
		}
	}
	return DefaultSlowQueryMs
})

// TimedDB wraps a *sql.DB, logging slow statements and recording every
// statement to a perf collector.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	threshold float64
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db with timing instrumentation. collector may be nil.
// PRE: db is a valid database connection
// POST: Returns a TimedDB satisfying SQLDB
func NewTimedDB(db *sql.DB, collector *perf.Collector) *TimedDB {
	return &TimedDB{db: db, collector: collector, threshold: slowQueryThreshold()}
}

// RawDB returns the underlying *sql.DB for migrations and pool settings.
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

// opLabel names a statement by verb and table, e.g. "INSERT outbox".
func opLabel(query string) string {
	f := strings.Fields(query)
	if len(f) == 0 {
		return "empty"
	}
	verb := strings.ToUpper(f[0])
	var table string
	for i := 1; i < len(f)-1; i++ {
		switch strings.ToUpper(f[i]) {
		case "INTO", "FROM", "UPDATE":
			table = f[i+1]
		}
		if table != "" {
			break
		}
	}
	if verb == "UPDATE" && len(f) > 1 {
		table = f[1]
	}
	if table == "" {
		return verb
	}
	table, _, _ = strings.Cut(table, "(")
	return verb + " " + strings.Trim(table, "`\";,")
}

func (t *TimedDB) logQuery(op, label string, start time.Time, err error) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	if durationMs >= t.threshold {
		slog.Warn("slow_query", "op", op, "stmt", label, "duration_ms", durationMs)
	} else {
		slog.Debug("query", "op", op, "stmt", label, "duration_ms", durationMs)
	}

	t.collector.Record(perf.Entry{
		Kind:       perf.KindQuery,
		Path:       label,
		Failed:     err != nil && err != sql.ErrNoRows,
		DurationMs: durationMs,
		Timestamp:  start,
	})
}

// ExecContext runs a statement and records its timing.
// PRE: ctx is valid, query is non-empty
// POST: errors are returned unchanged; timing is recorded even on error
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.logQuery("exec", opLabel(query), start, err)
	return result, err
}

// QueryContext runs a query and records its timing.
// PRE: ctx is valid, query is non-empty
// POST: errors are returned unchanged; timing is recorded even on error
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.logQuery("query", opLabel(query), start, err)
	return rows, err
}

// QueryRowContext runs a single-row query and records its timing.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.logQuery("query_row", opLabel(query), start, row.Err())
	return row
}

// BeginTx starts a transaction and records the time spent waiting for it.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.logQuery("begin", "BEGIN", start, err)
	return tx, err
}

// PingContext verifies the connection for the health endpoint.
func (t *TimedDB) PingContext(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// Close closes the underlying database.
func (t *TimedDB) Close() error {
	return t.db.Close()
}
