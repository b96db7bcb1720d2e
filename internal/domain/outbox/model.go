package outbox

import (
	"errors"
	"time"
)

// Entry lifecycle
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Action types, one per sheet script action plus the payout report email.
const (
	ActionCommitAttendance = "commitAttendance"
	ActionCommitComped     = "commitComped"
	ActionSyncState        = "syncState"
	ActionReportEmail      = "reportEmail"
)

// ValidActionTypes contains all valid action types.
var ValidActionTypes = []string{ActionCommitAttendance, ActionCommitComped, ActionSyncState, ActionReportEmail}

// DefaultMaxAttempts applies when an entry is created without a limit.
const DefaultMaxAttempts = 8

// Domain errors
var (
	ErrEmptyActionType   = errors.New("action type is required")
	ErrUnknownActionType = errors.New("action type must be one of: commitAttendance, commitComped, syncState, reportEmail")
	ErrEmptyPayload      = errors.New("payload is required")
	ErrMissingCreatedAt  = errors.New("created_at must be set")
	ErrNotAbandonable    = errors.New("only pending, retrying or failed entries can be abandoned")
)

// Entry is a script dispatch or report email waiting to be replayed.
type Entry struct {
	ID              string
	ActionType      string // commitAttendance, commitComped, syncState, reportEmail
	Payload         string // JSON request body for replay
	Status          string // pending, retrying, done, failed, abandoned
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	RecordID        string // local record the dispatch belongs to, empty for syncState
	ErrorMessage    string // last delivery error
}

// NewEntry queues a payload that could not be delivered.
// POST: Entry is pending with the default attempt limit
func NewEntry(id, actionType, payload, recordID string, cause error, now time.Time) Entry {
	e := Entry{
		ID:          id,
		ActionType:  actionType,
		Payload:     payload,
		Status:      StatusPending,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   now,
		RecordID:    recordID,
	}
	if cause != nil {
		e.ErrorMessage = cause.Error()
	}
	return e
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise; a zero MaxAttempts is set to the default
func (e *Entry) Validate() error {
	switch {
	case e.ActionType == "":
		return ErrEmptyActionType
	case !isValidActionType(e.ActionType):
		return ErrUnknownActionType
	case e.Payload == "":
		return ErrEmptyPayload
	case e.CreatedAt.IsZero():
		return ErrMissingCreatedAt
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry reports whether the entry still has attempts left.
// PRE: Status and Attempts fields are set
// POST: Returns false for done and abandoned entries
func (e *Entry) CanRetry() bool {
	if e.Status == StatusDone || e.Status == StatusAbandoned {
		return false
	}
	return e.Attempts < e.MaxAttempts
}

// IsTerminal reports whether the entry will never be attempted again.
func (e *Entry) IsTerminal() bool {
	return !e.CanRetry()
}

// MarkAttempt records a delivery attempt.
// PRE: CanRetry() is true
// POST: Attempts incremented, LastAttemptedAt set to now, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry as delivered.
// POST: Status done, ErrorMessage cleared
func (e *Entry) MarkSuccess() {
	e.Status = StatusDone
	e.ErrorMessage = ""
}

// MarkFailed records a failed attempt. The entry fails permanently once its
// attempts are used up.
// POST: ErrorMessage set; status failed when Attempts >= MaxAttempts
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// Abandon stops an entry from being replayed.
// PRE: entry is not done
// POST: Status abandoned
func (e *Entry) Abandon() error {
	if e.Status == StatusDone || e.Status == StatusAbandoned {
		return ErrNotAbandonable
	}
	e.Status = StatusAbandoned
	return nil
}

// NextRetryDelay is the exponential backoff after the current attempt count:
// baseDelay * 2^Attempts, capped at maxDelay.
func (e *Entry) NextRetryDelay(baseDelay, maxDelay time.Duration) time.Duration {
	if e.Attempts >= 30 {
		return maxDelay
	}
	delay := baseDelay << e.Attempts
	if delay <= 0 || delay > maxDelay {
		return maxDelay
	}
	return delay
}

// DueAt reports whether the backoff since the last attempt has elapsed.
// POST: Returns true for entries never attempted
func (e *Entry) DueAt(now time.Time, baseDelay, maxDelay time.Duration) bool {
	if e.LastAttemptedAt.IsZero() {
		return true
	}
	return !now.Before(e.LastAttemptedAt.Add(e.NextRetryDelay(baseDelay, maxDelay)))
}

func isValidActionType(t string) bool {
	for _, v := range ValidActionTypes {
		if v == t {
			return true
		}
	}
	return false
}
