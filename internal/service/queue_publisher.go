package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cop-side-events/internal/queue"
)

// Publisher hands mail jobs to the background consumer.
type Publisher interface {
	Publish(ctx context.Context, job queue.MailJob) error
}

// QueuePublisher publishes mail jobs to the durable mail.outbound queue.
// It dials per call; mail volume is low.
type QueuePublisher struct {
	url string
}

func NewQueuePublisher(url string) *QueuePublisher {
	return &QueuePublisher{url: url}
}

// Publish sends job as a persistent JSON message. Errors are logged and
// returned so the caller can fall back to inline delivery.
func (p *QueuePublisher) Publish(ctx context.Context, job queue.MailJob) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		slog.Warn("rabbitmq: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		slog.Warn("rabbitmq: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.MailQueueName, true, false, false, false, nil); err != nil {
		slog.Warn("rabbitmq: queue declare failed", "err", err)
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.MailQueueName, false, false, pub); err != nil {
		slog.Warn("rabbitmq: publish failed", "err", err, "job_id", job.ID)
		return err
	}
	return nil
}
