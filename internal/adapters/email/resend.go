package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// ErrNoRecipients is returned for a message without recipients.
var ErrNoRecipients = errors.New("email: message has no recipients")

// ResendSender delivers email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a sender with the given API key and default from address.
// PRE: apiKey is a valid Resend API key
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

// Send submits msg to Resend.
// PRE: msg has at least one recipient
// POST: Returns the provider message ID
func (s *ResendSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if len(msg.To) == 0 {
		return Receipt{}, ErrNoRecipients
	}
	from := msg.From
	if from == "" {
		from = s.from
	}
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "subject", msg.Subject)
		return Receipt{}, fmt.Errorf("email: resend: %w", err)
	}
	slog.Info("resend_sent", "message_id", sent.Id, "subject", msg.Subject)
	return Receipt{MessageID: sent.Id, SentAt: time.Now()}, nil
}
