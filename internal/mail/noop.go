package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NoopSender logs messages instead of delivering them. It keeps what it
// was given so tests can inspect it.
type NoopSender struct {
	mu   sync.Mutex
	sent []Message
}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) Send(_ context.Context, m Message) (Result, error) {
	if len(m.To) == 0 {
		return Result{}, ErrNoRecipients
	}
	s.mu.Lock()
	s.sent = append(s.sent, m)
	s.mu.Unlock()
	slog.Info("mail_noop", "to", m.To, "subject", m.Subject)
	return Result{MessageID: "noop-" + uuid.NewString(), SentAt: time.Now().UTC()}, nil
}

func (s *NoopSender) SendBatch(ctx context.Context, ms []Message) ([]Result, error) {
	out := make([]Result, 0, len(ms))
	for _, m := range ms {
		r, err := s.Send(ctx, m)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Sent returns a copy of every message accepted so far.
func (s *NoopSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
