package orchestrators

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"companion/internal/adapters/email"
	"companion/internal/domain/attendance"
	"companion/internal/domain/outbox"
)

// CommitAttendanceInput carries input for the commit attendance orchestrator.
type CommitAttendanceInput struct {
	State attendance.SessionState
}

// CommitAttendanceDeps holds dependencies for CommitAttendance.
type CommitAttendanceDeps struct {
	AttendanceStore AttendanceStoreForOrchestrator
	Dispatch        DispatchDeps
	Mailer          email.Sender // optional payout report
	ReportTo        []string
	GenerateID      func() string
	Now             func() time.Time
}

// ExecuteCommitAttendance snapshots tonight's tally into a Record, sends it
// to the sheet and keeps it in the local ledger. A failed delivery is queued
// for retry and still counts as committed.
// PRE: input.State passes Validate after Normalize
// POST: Record is saved with its dispatch state; the payout report, when
// configured, is sent or queued
func ExecuteCommitAttendance(ctx context.Context, input CommitAttendanceInput, deps CommitAttendanceDeps) (attendance.Record, error) {
	state := input.State
	state.Normalize()
	if err := state.Validate(); err != nil {
		return attendance.Record{}, err
	}

	rec := attendance.NewRecord(deps.GenerateID(), state, deps.Now())
	if err := rec.Validate(); err != nil {
		return attendance.Record{}, err
	}

	dispatch, err := dispatchOrQueue(ctx, deps.Dispatch, outbox.ActionCommitAttendance, attendancePayloadOf(rec), rec.ID, "")
	if err != nil {
		return attendance.Record{}, err
	}
	rec.Dispatch = dispatch

	if err := deps.AttendanceStore.SaveRecord(ctx, rec); err != nil {
		return attendance.Record{}, err
	}
	slog.Info("attendance_event", "event", "attendance_committed",
		"record_id", rec.ID,
		"date", rec.Date,
		"total", rec.TotalInAttendance,
		"revenue", rec.TotalRevenue,
		"dispatch", rec.Dispatch,
	)

	sendPayoutReport(ctx, rec, deps)
	return rec, nil
}

// sendPayoutReport mails the night's summary. Failures are queued and never
// fail the commit.
func sendPayoutReport(ctx context.Context, rec attendance.Record, deps CommitAttendanceDeps) {
	if deps.Mailer == nil || len(deps.ReportTo) == 0 {
		return
	}
	comped, err := deps.AttendanceStore.ListCompedByDate(ctx, rec.Date)
	if err != nil {
		slog.Warn("payout_report_comped_lookup_failed", "date", rec.Date, "error", err)
	}
	msg, err := email.PayoutReport(deps.ReportTo, rec, comped)
	if err != nil {
		slog.Error("payout_report_render_failed", "record_id", rec.ID, "error", err)
		return
	}

	receipt, sendErr := deps.Mailer.Send(ctx, msg)
	if sendErr == nil {
		slog.Info("attendance_event", "event", "payout_report_sent", "record_id", rec.ID, "message_id", receipt.MessageID)
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("payout_report_queue_failed", "record_id", rec.ID, "error", err)
		return
	}
	entry := outbox.NewEntry(deps.GenerateID(), outbox.ActionReportEmail, string(payload), "", sendErr, deps.Now())
	if err := deps.Dispatch.OutboxStore.Save(ctx, entry); err != nil {
		slog.Error("payout_report_queue_failed", "record_id", rec.ID, "error", err)
		return
	}
	slog.Warn("attendance_event", "event", "payout_report_queued", "record_id", rec.ID, "outbox_id", entry.ID, "error", sendErr)
}
