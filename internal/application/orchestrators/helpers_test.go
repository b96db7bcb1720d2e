package orchestrators

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"companion/internal/adapters/email"
	"companion/internal/adapters/script"
	"companion/internal/domain/attendance"
	"companion/internal/domain/outbox"
	"companion/internal/domain/sheet"
)

var fixedTime = time.Date(2026, 3, 6, 21, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// sequentialIDs returns a generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// --- grid fetcher ---

type mockFetcher struct {
	grid  sheet.Grid
	err   error
	panic bool
}

func (m *mockFetcher) Fetch(_ context.Context) (sheet.Grid, error) {
	if m.panic {
		panic("fetch exploded")
	}
	return m.grid, m.err
}

// --- script ---

type mockScript struct {
	mu         sync.Mutex
	configured bool
	status     script.Status
	err        error
	bodies     []string

	state    attendance.SessionState
	hasState bool
	stateErr error
}

func newMockScript() *mockScript {
	return &mockScript{configured: true, status: script.Confirmed}
}

func (m *mockScript) IsConfigured() bool { return m.configured }

func (m *mockScript) Post(_ context.Context, body []byte) (script.Dispatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.configured {
		return script.Dispatch{}, script.ErrNotConfigured
	}
	m.bodies = append(m.bodies, string(body))
	if m.err != nil {
		return script.Dispatch{StatusCode: 500}, m.err
	}
	return script.Dispatch{Status: m.status, StatusCode: 200}, nil
}

func (m *mockScript) FetchState(_ context.Context) (attendance.SessionState, bool, error) {
	if !m.configured {
		return attendance.SessionState{}, false, script.ErrNotConfigured
	}
	return m.state, m.hasState, m.stateErr
}

func (m *mockScript) posted() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, 0, len(m.bodies))
	for _, b := range m.bodies {
		var v map[string]any
		_ = json.Unmarshal([]byte(b), &v)
		out = append(out, v)
	}
	return out
}

// --- attendance store ---

type mockAttendanceStore struct {
	records  map[string]attendance.Record
	comped   []attendance.CompedRecord
	saveErr  error
	dispatch map[string]string
}

func newMockAttendanceStore() *mockAttendanceStore {
	return &mockAttendanceStore{records: map[string]attendance.Record{}, dispatch: map[string]string{}}
}

func (m *mockAttendanceStore) SaveRecord(_ context.Context, r attendance.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[r.ID] = r
	return nil
}

func (m *mockAttendanceStore) SaveComped(_ context.Context, c attendance.CompedRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.comped = append(m.comped, c)
	return nil
}

func (m *mockAttendanceStore) ListCompedByDate(_ context.Context, date string) ([]attendance.CompedRecord, error) {
	var out []attendance.CompedRecord
	for _, c := range m.comped {
		if c.Date == date {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockAttendanceStore) SetDispatch(_ context.Context, id, dispatch string) (int, error) {
	m.dispatch[id] = dispatch
	if r, ok := m.records[id]; ok {
		r.Dispatch = dispatch
		m.records[id] = r
		return 1, nil
	}
	return 0, nil
}

// --- session store ---

type mockSessionStore struct {
	state  attendance.SessionState
	ok     bool
	getErr error
	saves  int
}

func (m *mockSessionStore) Get(_ context.Context) (attendance.SessionState, bool, error) {
	return m.state, m.ok, m.getErr
}

func (m *mockSessionStore) Save(_ context.Context, s attendance.SessionState, _ time.Time) error {
	m.state, m.ok = s, true
	m.saves++
	return nil
}

// --- outbox store ---

type mockOutboxStore struct {
	mu      sync.Mutex
	entries map[string]outbox.Entry
	order   []string
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: map[string]outbox.Entry{}}
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, sql.ErrNoRows
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []outbox.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockOutboxStore) all() []outbox.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]outbox.Entry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entries[id])
	}
	return out
}

// --- hub, scheduler, mailer, tokens ---

type mockHub struct {
	events []any
}

func (m *mockHub) Broadcast(v any) int {
	m.events = append(m.events, v)
	return 1
}

type mockScheduler struct {
	scheduled []attendance.SessionState
}

func (m *mockScheduler) Schedule(s attendance.SessionState) {
	m.scheduled = append(m.scheduled, s)
}

type failingMailer struct{}

func (failingMailer) Send(context.Context, email.Message) (email.Receipt, error) {
	return email.Receipt{}, errors.New("resend: 503")
}

type mockTokens struct {
	subject string
}

func (m *mockTokens) Issue(subject string, now time.Time) (string, time.Time, error) {
	m.subject = subject
	return "signed-token", now.Add(12 * time.Hour), nil
}

func dispatchDeps(s ScriptPoster, ob OutboxStoreForOrchestrator) DispatchDeps {
	return DispatchDeps{Script: s, OutboxStore: ob, GenerateID: sequentialIDs(), Now: fixedNow}
}

func sampleState() attendance.SessionState {
	s := attendance.NewSessionState("2026-03-06")
	s.LessonCount = 3
	s.DanceOnlyCount = 2
	s.CustomAmount = 5
	s.SplitPersons = 2
	return s
}
