package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// resendBatchSize is the most emails Resend accepts per batch call.
const resendBatchSize = 100

// ResendSender sends email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) request(m Message) *resend.SendEmailRequest {
	from := m.From
	if from == "" {
		from = s.from
	}
	return &resend.SendEmailRequest{From: from, To: m.To, Subject: m.Subject, Html: m.HTML}
}

// Send delivers one message.
func (s *ResendSender) Send(ctx context.Context, m Message) (Result, error) {
	if len(m.To) == 0 {
		return Result{}, ErrNoRecipients
	}
	sent, err := s.client.Emails.SendWithContext(ctx, s.request(m))
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "to", m.To, "subject", m.Subject)
		return Result{}, fmt.Errorf("resend send: %w", err)
	}
	slog.Info("resend_sent", "message_id", sent.Id, "subject", m.Subject)
	return Result{MessageID: sent.Id, SentAt: time.Now().UTC()}, nil
}

// SendBatch delivers ms in chunks of resendBatchSize. On error it returns
// the results of the chunks already sent.
func (s *ResendSender) SendBatch(ctx context.Context, ms []Message) ([]Result, error) {
	var out []Result
	for i := 0; i < len(ms); i += resendBatchSize {
		chunk := ms[i:min(i+resendBatchSize, len(ms))]
		params := make([]*resend.SendEmailRequest, 0, len(chunk))
		for _, m := range chunk {
			params = append(params, s.request(m))
		}
		resp, err := s.client.Batch.SendWithContext(ctx, params)
		if err != nil {
			slog.Error("resend_batch_failed", "error", err, "batch_size", len(chunk))
			return out, fmt.Errorf("resend batch send: %w", err)
		}
		now := time.Now().UTC()
		for _, item := range resp.Data {
			out = append(out, Result{MessageID: item.Id, SentAt: now})
		}
		slog.Info("resend_batch_sent", "count", len(chunk), "total_sent", len(out))
	}
	return out, nil
}
