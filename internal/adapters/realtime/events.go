package realtime

import (
	"time"

	"companion/internal/domain/attendance"
)

// Event types.
const (
	EventWelcome       = "welcome"
	EventSessionUpdate = "session.update"
	EventSessionReset  = "session.reset"
)

// SessionEvent carries the shared tally to other devices.
type SessionEvent struct {
	Type  string                   `json:"type"`
	State *attendance.SessionState `json:"state,omitempty"`
	Tally *attendance.Tally        `json:"tally,omitempty"`
	At    time.Time                `json:"at"`
}

// NewSessionEvent snapshots state for broadcast.
func NewSessionEvent(eventType string, s attendance.SessionState, at time.Time) SessionEvent {
	t := s.Tally()
	return SessionEvent{Type: eventType, State: &s, Tally: &t, At: at}
}
