package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cop-side-events/internal/mail"
)

// errPermanent marks a message that retrying cannot fix.
var errPermanent = errors.New("permanent failure")

// StartMailConsumer connects to url, declares MailQueueName and delivers
// each job through sender. It reconnects with exponential backoff until
// ctx is cancelled, then returns ctx.Err().
func StartMailConsumer(ctx context.Context, url string, sender mail.Sender) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			slog.Warn("mail-consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, sender)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("mail-consumer: consume loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sender mail.Sender) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		slog.Warn("mail-consumer: set QoS failed", "err", err)
	}
	if _, err := ch.QueueDeclare(MailQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(MailQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	slog.Info("mail-consumer: consuming", "queue", MailQueueName)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(ctx, d.Body, sender); err != nil {
				// Transient failures get one redelivery.
				requeue := !errors.Is(err, errPermanent) && !d.Redelivered
				slog.Error("mail-consumer: handle message failed", "err", err, "requeue", requeue)
				_ = d.Nack(false, requeue)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(ctx context.Context, body []byte, sender mail.Sender) error {
	var job MailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: unmarshal: %v", errPermanent, err)
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}
	res, err := sender.Send(ctx, mail.Message{To: job.To, Subject: job.Subject, HTML: job.HTML})
	if err != nil {
		return fmt.Errorf("send job %s: %w", job.ID, err)
	}
	slog.Info("mail-consumer: delivered", "job_id", job.ID, "kind", job.Kind, "message_id", res.MessageID)
	return nil
}
