package storage

import (
	"database/sql"
	"fmt"
)

// DSNPragmas are appended to the sqlite file path when opening the database.
const DSNPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	sql     string
}

// migrations are applied in order. Never edit a released step; append a new one.
var migrations = []migration{
	{1, "baseline", `
	CREATE TABLE IF NOT EXISTS attendance_record (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		total_in_attendance INTEGER NOT NULL,
		lesson_and_dance INTEGER NOT NULL,
		dance_only INTEGER NOT NULL,
		total_comped INTEGER NOT NULL,
		total_revenue REAL NOT NULL,
		per_person_split REAL NOT NULL,
		dispatch TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_record_date ON attendance_record(date);

	CREATE TABLE IF NOT EXISTS comped_entry (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		dispatch TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_comped_entry_date ON comped_entry(date);

	CREATE TABLE IF NOT EXISTS session_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		state TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL,
		last_attempted_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		record_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, created_at);
	`},
}

// LatestSchemaVersion returns the version of the last migration.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, 0 for an empty database.
// PRE: db is a valid database connection
func SchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL, applied_at TEXT NOT NULL DEFAULT (datetime('now')))`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every migration newer than the recorded schema version.
// PRE: db is a valid database connection
// POST: schema is at LatestSchemaVersion(); a failed step is rolled back
func MigrateDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d (%s): begin: %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): record version: %w", m.version, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d (%s): commit: %w", m.version, m.name, err)
		}
	}
	return nil
}
