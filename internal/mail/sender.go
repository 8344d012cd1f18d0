// Package mail delivers transactional and broadcast email.
package mail

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecipients is returned when a message has no To address.
var ErrNoRecipients = errors.New("mail: at least one recipient is required")

// Message is one outgoing email. From falls back to the sender's default.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Result identifies a delivered message.
type Result struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) (Result, error)
	SendBatch(ctx context.Context, ms []Message) ([]Result, error)
}
