package email

import (
	"context"
	"time"
)

// Message is one outgoing email.
type Message struct {
	To      []string
	From    string // defaults to the sender's configured address
	Subject string
	HTML    string
	Text    string
}

// Receipt identifies an accepted message.
type Receipt struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers email through an external provider.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
