package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cop-side-events/internal/clock"
	"github.com/iliyamo/cop-side-events/internal/mail"
	"github.com/iliyamo/cop-side-events/internal/queue"
)

// Notifier renders account and broadcast emails and queues them. When no
// publisher is configured, or publishing fails, mail goes out inline.
type Notifier struct {
	renderer  *mail.Renderer
	publisher Publisher // may be nil
	sender    mail.Sender
	clock     clock.Clock
}

func NewNotifier(r *mail.Renderer, p Publisher, s mail.Sender, c clock.Clock) *Notifier {
	return &Notifier{renderer: r, publisher: p, sender: s, clock: c}
}

// SendActivation emails the account activation link.
func (n *Notifier) SendActivation(ctx context.Context, to, name, token string, ttl time.Duration) error {
	subject, html, err := n.renderer.Activation(name, token, ttl.String())
	if err != nil {
		return fmt.Errorf("render activation: %w", err)
	}
	return n.dispatch(ctx, queue.KindActivation, []string{to}, subject, html)
}

// SendPasswordReset emails the password reset link.
func (n *Notifier) SendPasswordReset(ctx context.Context, to, name, token string, ttl time.Duration) error {
	subject, html, err := n.renderer.PasswordReset(name, token, ttl.String())
	if err != nil {
		return fmt.Errorf("render reset: %w", err)
	}
	return n.dispatch(ctx, queue.KindPasswordReset, []string{to}, subject, html)
}

// BroadcastAnnouncement sends one message per recipient so addresses are
// not disclosed to each other. It returns how many were dispatched.
func (n *Notifier) BroadcastAnnouncement(ctx context.Context, recipients []string, subject, message string) (int, error) {
	html, err := n.renderer.Announcement(subject, message)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, to := range recipients {
		if err := n.dispatch(ctx, queue.KindAnnouncement, []string{to}, subject, html); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (n *Notifier) dispatch(ctx context.Context, kind string, to []string, subject, html string) error {
	job := queue.MailJob{
		ID:        uuid.NewString(),
		Kind:      kind,
		To:        to,
		Subject:   subject,
		HTML:      html,
		CreatedAt: n.clock.Now(),
	}
	if n.publisher != nil {
		err := n.publisher.Publish(ctx, job)
		if err == nil {
			return nil
		}
		slog.Warn("notifier: publish failed, sending inline", "job_id", job.ID, "kind", kind, "err", err)
	}
	if _, err := n.sender.Send(ctx, mail.Message{To: to, Subject: subject, HTML: html}); err != nil {
		return fmt.Errorf("send %s mail: %w", kind, err)
	}
	return nil
}
