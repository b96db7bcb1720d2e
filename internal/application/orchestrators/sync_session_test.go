package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"companion/internal/adapters/script"
	"companion/internal/domain/attendance"
	"companion/internal/domain/outbox"
)

func TestDebouncedSync_PushesLatestOnly(t *testing.T) {
	sc := newMockScript()
	d := NewDebouncedSync(dispatchDeps(sc, newMockOutboxStore()), time.Hour)

	for i := 1; i <= 3; i++ {
		s := sampleState()
		s.LessonCount = i
		d.Schedule(s)
	}
	if !d.Pending() {
		t.Fatal("nothing pending after Schedule")
	}
	if got := d.Flush(context.Background()); got != attendance.DispatchConfirmed {
		t.Errorf("Flush = %q", got)
	}

	posted := sc.posted()
	if len(posted) != 1 {
		t.Fatalf("posted %d times, want 1", len(posted))
	}
	state := posted[0]["state"].(map[string]any)
	if posted[0]["action"] != "syncState" || state["lessonCount"] != float64(3) {
		t.Errorf("body = %v", posted[0])
	}
	if d.Pending() || d.Flush(context.Background()) != "" {
		t.Error("second flush pushed again")
	}
}

func TestDebouncedSync_TimerFires(t *testing.T) {
	sc := newMockScript()
	d := NewDebouncedSync(dispatchDeps(sc, newMockOutboxStore()), 10*time.Millisecond)
	d.Schedule(sampleState())

	deadline := time.Now().Add(2 * time.Second)
	for len(sc.posted()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("debounced push never happened")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestExecuteSyncSession_CoalescesQueuedState(t *testing.T) {
	sc := &mockScript{configured: true, err: errors.New("script: request: refused")}
	ob := newMockOutboxStore()
	deps := dispatchDeps(sc, ob)

	first := sampleState()
	first.LessonCount = 1
	second := sampleState()
	second.LessonCount = 9
	for _, s := range []attendance.SessionState{first, second} {
		got, err := ExecuteSyncSession(context.Background(), s, deps)
		if err != nil || got != attendance.DispatchQueued {
			t.Fatalf("sync = %q, %v", got, err)
		}
	}

	entries := ob.all()
	if len(entries) != 1 || entries[0].ID != syncStateOutboxID || entries[0].ActionType != outbox.ActionSyncState {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Payload != sc.bodies[1] {
		t.Errorf("queued payload is not the latest state: %s", entries[0].Payload)
	}
}

func TestExecuteSyncSession_NotConfigured(t *testing.T) {
	ob := newMockOutboxStore()
	got, err := ExecuteSyncSession(context.Background(), sampleState(), dispatchDeps(&mockScript{}, ob))
	if err != nil || got != attendance.DispatchLocal || len(ob.all()) != 0 {
		t.Errorf("sync = %q, %v, outbox %d", got, err, len(ob.all()))
	}
}

func TestExecuteSyncSession_SuccessClosesQueuedState(t *testing.T) {
	sc := &mockScript{configured: true, status: script.Confirmed, err: errors.New("script: request: refused")}
	ob := newMockOutboxStore()
	deps := dispatchDeps(sc, ob)

	stale := sampleState()
	stale.LessonCount = 1
	if got, err := ExecuteSyncSession(context.Background(), stale, deps); err != nil || got != attendance.DispatchQueued {
		t.Fatalf("first sync = %q, %v", got, err)
	}

	sc.err = nil
	fresh := sampleState()
	fresh.LessonCount = 7
	if got, err := ExecuteSyncSession(context.Background(), fresh, deps); err != nil || got != attendance.DispatchConfirmed {
		t.Fatalf("second sync = %q, %v", got, err)
	}

	slot, err := ob.GetByID(context.Background(), syncStateOutboxID)
	if err != nil || slot.Status != outbox.StatusDone {
		t.Fatalf("slot = %+v, %v", slot, err)
	}

	sent := len(sc.bodies)
	res, err := ExecuteOutboxRetry(context.Background(), OutboxRetryDeps{OutboxStore: ob, Script: sc, Now: fixedNow})
	if err != nil || res.Processed != 0 {
		t.Fatalf("retry = %+v, %v", res, err)
	}
	if len(sc.bodies) != sent {
		t.Fatalf("retry posted %d more bodies", len(sc.bodies)-sent)
	}
	posted := sc.posted()
	last := posted[len(posted)-1]["state"].(map[string]any)
	if last["lessonCount"] != float64(7) {
		t.Errorf("script last saw lessonCount %v, want 7", last["lessonCount"])
	}
}

// requeueingScript queues a newer state into the sync slot while a replay
// of the older one is on the wire.
type requeueingScript struct {
	*mockScript
	ob      *mockOutboxStore
	payload string
}

func (r *requeueingScript) Post(ctx context.Context, body []byte) (script.Dispatch, error) {
	e, _ := r.ob.GetByID(ctx, syncStateOutboxID)
	e.Payload = r.payload
	e.Status = outbox.StatusPending
	e.Attempts = 0
	_ = r.ob.Save(ctx, e)
	return r.mockScript.Post(ctx, body)
}

func TestExecuteOutboxRetry_KeepsNewerSyncState(t *testing.T) {
	tests := []struct {
		name    string
		postErr error
	}{
		{"replay succeeds", nil},
		{"replay fails", errors.New("script: request: refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ob := newMockOutboxStore()
			older := `{"action":"syncState","state":{"lessonCount":1}}`
			newer := `{"action":"syncState","state":{"lessonCount":7}}`
			queued(t, ob, syncStateOutboxID, outbox.ActionSyncState, older, "")

			sc := &requeueingScript{mockScript: newMockScript(), ob: ob, payload: newer}
			sc.err = tt.postErr
			deps := OutboxRetryDeps{OutboxStore: ob, Script: sc, Now: fixedNow}
			if _, err := ExecuteOutboxRetry(context.Background(), deps); err != nil {
				t.Fatal(err)
			}

			slot, _ := ob.GetByID(context.Background(), syncStateOutboxID)
			if slot.Payload != newer || slot.Status != outbox.StatusPending {
				t.Errorf("slot = %q (%s), want the newer state still pending", slot.Payload, slot.Status)
			}
		})
	}
}
