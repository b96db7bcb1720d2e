package projections

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"companion/internal/adapters/storage/attendance"
	"companion/internal/application/listutil"
	domainAttendance "companion/internal/domain/attendance"
	"companion/internal/domain/outbox"
)

var fixedTime = time.Date(2026, 3, 6, 22, 0, 0, 0, time.UTC)

// mockLedgerStore implements LedgerStore for testing.
type mockLedgerStore struct {
	records     []domainAttendance.Record // newest first
	comped      map[string][]domainAttendance.CompedRecord
	compedCalls int
	err         error
}

func (m *mockLedgerStore) ListRecords(_ context.Context, f attendance.ListFilter) ([]domainAttendance.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	if f.Offset >= len(m.records) {
		return nil, nil
	}
	end := len(m.records)
	if f.Limit > 0 {
		end = min(f.Offset+f.Limit, end)
	}
	return m.records[f.Offset:end], nil
}

func (m *mockLedgerStore) CountRecords(_ context.Context) (int, error) {
	return len(m.records), m.err
}

func (m *mockLedgerStore) ListCompedByDate(_ context.Context, date string) ([]domainAttendance.CompedRecord, error) {
	m.compedCalls++
	return m.comped[date], nil
}

func TestGetAttendanceLedger(t *testing.T) {
	store := &mockLedgerStore{comped: map[string][]domainAttendance.CompedRecord{
		"2026-03-06": {{ID: "c1", Date: "2026-03-06", Name: "Sam"}},
	}}
	for i := 0; i < 25; i++ {
		store.records = append(store.records, domainAttendance.Record{ID: fmt.Sprintf("rec-%d", i), Date: "2026-03-06"})
	}

	view, err := GetAttendanceLedger(context.Background(), listutil.PageParams{Page: 2, PerPage: 20}, store)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Records) != 5 || view.Records[0].ID != "rec-20" {
		t.Errorf("page 2 = %d records starting %q", len(view.Records), view.Records[0].ID)
	}
	if view.Page.Total != 25 || view.Page.TotalPages != 2 {
		t.Errorf("page info = %+v", view.Page)
	}
	if len(view.Records[0].Comped) != 1 || store.compedCalls != 1 {
		t.Errorf("comped = %+v, lookups = %d", view.Records[0].Comped, store.compedCalls)
	}
}

func TestGetAttendanceLedger_Empty(t *testing.T) {
	view, err := GetAttendanceLedger(context.Background(), listutil.PageParams{Page: 1, PerPage: 20}, &mockLedgerStore{})
	if err != nil {
		t.Fatal(err)
	}
	if view.Records == nil || len(view.Records) != 0 || view.Page.TotalPages != 1 {
		t.Errorf("view = %+v", view)
	}
}

func TestGetAttendanceLedger_StoreError(t *testing.T) {
	if _, err := GetAttendanceLedger(context.Background(), listutil.PageParams{Page: 1, PerPage: 20}, &mockLedgerStore{err: errors.New("locked")}); err == nil {
		t.Error("expected error")
	}
}

// mockOutboxListStore implements OutboxListStore for testing.
type mockOutboxListStore struct {
	entries []outbox.Entry
}

func (m *mockOutboxListStore) ListRecent(_ context.Context, limit int) ([]outbox.Entry, error) {
	if len(m.entries) > limit {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

func (m *mockOutboxListStore) CountByStatus(_ context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, e := range m.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func TestGetLedgerExport(t *testing.T) {
	store := &mockLedgerStore{
		records: []domainAttendance.Record{
			{ID: "r3", Date: "2026-03-06"},
			{ID: "r2", Date: "2026-03-06"},
			{ID: "r1", Date: "2026-02-27"},
		},
		comped: map[string][]domainAttendance.CompedRecord{
			"2026-03-06": {{ID: "c1", Date: "2026-03-06", Name: "Sam"}},
		},
	}
	now := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)

	data, err := GetLedgerExport(context.Background(), "csv", now, store)
	if err != nil {
		t.Fatal(err)
	}
	if len(data.Nights) != 3 || data.ExportMetadata.Format != "csv" || !data.ExportMetadata.ExportDate.Equal(now) {
		t.Errorf("export = %+v", data.ExportMetadata)
	}
	if store.compedCalls != 2 {
		t.Errorf("comped lookups = %d, want one per date", store.compedCalls)
	}
	if got := data.Nights[1].CompedGuests; len(got) != 1 || got[0] != "Sam" {
		t.Errorf("second night guests = %v", got)
	}
}

func TestGetLedgerExport_StoreError(t *testing.T) {
	store := &mockLedgerStore{err: errors.New("disk full")}
	if _, err := GetLedgerExport(context.Background(), "json", time.Now(), store); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetOutboxView(t *testing.T) {
	failed := outbox.NewEntry("ob-1", outbox.ActionCommitAttendance, `{"action":"commitAttendance"}`, "rec-1", errors.New("timeout"), fixedTime)
	failed.Status = outbox.StatusFailed
	failed.LastAttemptedAt = fixedTime.Add(time.Minute)
	pending := outbox.NewEntry("ob-2", outbox.ActionSyncState, `{"action":"syncState"}`, "", nil, fixedTime)
	store := &mockOutboxListStore{entries: []outbox.Entry{failed, pending}}

	all, err := GetOutboxView(context.Background(), "", 50, store)
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Entries) != 2 || all.Counts[outbox.StatusFailed] != 1 || all.Counts[outbox.StatusPending] != 1 {
		t.Errorf("view = %+v", all)
	}
	row := all.Entries[0]
	if row.LastAttemptedAt == nil || string(row.Payload) != `{"action":"commitAttendance"}` || row.RecordID != "rec-1" {
		t.Errorf("row = %+v", row)
	}
	if all.Entries[1].LastAttemptedAt != nil {
		t.Error("never-attempted entry shows an attempt time")
	}

	onlyFailed, _ := GetOutboxView(context.Background(), outbox.StatusFailed, 50, store)
	if len(onlyFailed.Entries) != 1 || onlyFailed.Entries[0].ID != "ob-1" {
		t.Errorf("failed filter = %+v", onlyFailed.Entries)
	}
}

func TestNewOutboxRow_InvalidPayloadOmitted(t *testing.T) {
	row := NewOutboxRow(outbox.Entry{ID: "x", Payload: "not json"})
	if row.Payload != nil {
		t.Errorf("payload = %s", row.Payload)
	}
}

type mockSessionReader struct {
	state domainAttendance.SessionState
	ok    bool
}

func (m mockSessionReader) Get(context.Context) (domainAttendance.SessionState, bool, error) {
	return m.state, m.ok, nil
}

func TestGetSessionView(t *testing.T) {
	view, err := GetSessionView(context.Background(), mockSessionReader{}, false, fixedTime)
	if err != nil {
		t.Fatal(err)
	}
	if view.State != domainAttendance.NewSessionState("2026-03-06") || view.Tally.TotalRevenue != 0 {
		t.Errorf("empty view = %+v", view)
	}

	saved := domainAttendance.SessionState{LessonCount: 3, DanceOnlyCount: 2, CustomAmount: 5, SplitPersons: 2, SelectedDate: "2026-03-06"}
	view, _ = GetSessionView(context.Background(), mockSessionReader{state: saved, ok: true}, true, fixedTime)
	if view.Tally.TotalRevenue != 110 || view.Tally.PerPersonSplit != 28 || !view.ScriptConfigured {
		t.Errorf("view = %+v", view)
	}
}
