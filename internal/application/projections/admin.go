package projections

import (
	"context"
	"encoding/json"
	"time"

	"companion/internal/adapters/storage/attendance"
	"companion/internal/application/listutil"
	domainAttendance "companion/internal/domain/attendance"
	"companion/internal/domain/export"
	"companion/internal/domain/outbox"
)

// LedgerStore defines the store interface needed by the ledger projection.
type LedgerStore interface {
	ListRecords(ctx context.Context, filter attendance.ListFilter) ([]domainAttendance.Record, error)
	CountRecords(ctx context.Context) (int, error)
	ListCompedByDate(ctx context.Context, date string) ([]domainAttendance.CompedRecord, error)
}

// OutboxListStore defines the store interface needed by the outbox projection.
type OutboxListStore interface {
	ListRecent(ctx context.Context, limit int) ([]outbox.Entry, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// SessionReader defines the store interface needed by the session projection.
type SessionReader interface {
	Get(ctx context.Context) (domainAttendance.SessionState, bool, error)
}

// --- Attendance ledger ---

// LedgerRow is one committed night and the guests comped that night.
type LedgerRow struct {
	domainAttendance.Record
	Comped []domainAttendance.CompedRecord `json:"comped"`
}

// LedgerView is one page of the local attendance ledger.
type LedgerView struct {
	Records []LedgerRow       `json:"records"`
	Page    listutil.PageInfo `json:"page"`
}

// GetAttendanceLedger returns committed nights, newest first.
// PRE: params came from listutil.ParsePageParams
// POST: Records is non-nil; Page reflects the clamped page
func GetAttendanceLedger(ctx context.Context, params listutil.PageParams, store LedgerStore) (LedgerView, error) {
	total, err := store.CountRecords(ctx)
	if err != nil {
		return LedgerView{}, err
	}
	page := listutil.NewPageInfo(params.Page, params.PerPage, total)
	records, err := store.ListRecords(ctx, attendance.ListFilter{Limit: page.PerPage, Offset: page.Offset()})
	if err != nil {
		return LedgerView{}, err
	}

	view := LedgerView{Records: make([]LedgerRow, 0, len(records)), Page: page}
	byDate := map[string][]domainAttendance.CompedRecord{}
	for _, r := range records {
		comped, seen := byDate[r.Date]
		if !seen {
			if comped, err = store.ListCompedByDate(ctx, r.Date); err != nil {
				return LedgerView{}, err
			}
			if comped == nil {
				comped = []domainAttendance.CompedRecord{}
			}
			byDate[r.Date] = comped
		}
		view.Records = append(view.Records, LedgerRow{Record: r, Comped: comped})
	}
	return view, nil
}

// GetLedgerExport returns the whole ledger, newest first, ready for download.
// PRE: format was checked by export.NormalizeFormat
func GetLedgerExport(ctx context.Context, format string, now time.Time, store LedgerStore) (export.Data, error) {
	records, err := store.ListRecords(ctx, attendance.ListFilter{})
	if err != nil {
		return export.Data{}, err
	}
	comped := map[string][]domainAttendance.CompedRecord{}
	for _, r := range records {
		if _, seen := comped[r.Date]; seen {
			continue
		}
		if comped[r.Date], err = store.ListCompedByDate(ctx, r.Date); err != nil {
			return export.Data{}, err
		}
	}
	return export.New(records, comped, format, now), nil
}

// --- Outbox ---

// OutboxRow is an outbox entry as shown to admins.
type OutboxRow struct {
	ID              string          `json:"id"`
	ActionType      string          `json:"actionType"`
	Status          string          `json:"status"`
	Attempts        int             `json:"attempts"`
	MaxAttempts     int             `json:"maxAttempts"`
	LastAttemptedAt *time.Time      `json:"lastAttemptedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	RecordID        string          `json:"recordId,omitempty"`
	ErrorMessage    string          `json:"errorMessage,omitempty"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// NewOutboxRow converts an entry for display.
func NewOutboxRow(e outbox.Entry) OutboxRow {
	row := OutboxRow{
		ID:           e.ID,
		ActionType:   e.ActionType,
		Status:       e.Status,
		Attempts:     e.Attempts,
		MaxAttempts:  e.MaxAttempts,
		CreatedAt:    e.CreatedAt,
		RecordID:     e.RecordID,
		ErrorMessage: e.ErrorMessage,
	}
	if !e.LastAttemptedAt.IsZero() {
		t := e.LastAttemptedAt
		row.LastAttemptedAt = &t
	}
	if json.Valid([]byte(e.Payload)) {
		row.Payload = json.RawMessage(e.Payload)
	}
	return row
}

// OutboxView lists recent entries with per-status totals.
type OutboxView struct {
	Entries []OutboxRow    `json:"entries"`
	Counts  map[string]int `json:"counts"`
}

// GetOutboxView returns the most recent entries, optionally of one status.
// PRE: limit > 0
// POST: Entries is non-nil
func GetOutboxView(ctx context.Context, status string, limit int, store OutboxListStore) (OutboxView, error) {
	entries, err := store.ListRecent(ctx, limit)
	if err != nil {
		return OutboxView{}, err
	}
	counts, err := store.CountByStatus(ctx)
	if err != nil {
		return OutboxView{}, err
	}
	if counts == nil {
		counts = map[string]int{}
	}
	view := OutboxView{Entries: make([]OutboxRow, 0, len(entries)), Counts: counts}
	for _, e := range entries {
		if status != "" && e.Status != status {
			continue
		}
		view.Entries = append(view.Entries, NewOutboxRow(e))
	}
	return view, nil
}

// --- Session ---

// SessionView is tonight's tally with its computed totals.
type SessionView struct {
	State            domainAttendance.SessionState `json:"state"`
	Tally            domainAttendance.Tally        `json:"tally"`
	ScriptConfigured bool                          `json:"scriptConfigured"`
}

// GetSessionView returns the saved tally, or a cleared one for today.
// POST: State is normalised
func GetSessionView(ctx context.Context, store SessionReader, scriptConfigured bool, now time.Time) (SessionView, error) {
	s, ok, err := store.Get(ctx)
	if err != nil {
		return SessionView{}, err
	}
	if !ok {
		s = domainAttendance.NewSessionState(now.Format(domainAttendance.DateLayout))
	}
	s.Normalize()
	return SessionView{State: s, Tally: s.Tally(), ScriptConfigured: scriptConfigured}, nil
}
