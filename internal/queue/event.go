// Package queue defines the mail jobs exchanged over RabbitMQ and the
// consumer that delivers them.
package queue

import (
	"errors"
	"time"
)

// MailQueueName is the durable queue carrying MailJob messages.
const MailQueueName = "mail.outbound"

// Mail job kinds.
const (
	KindActivation    = "activation"
	KindPasswordReset = "password_reset"
	KindAnnouncement  = "announcement"
)

// MailJob is one rendered email waiting for delivery. Bodies are rendered
// by the publisher so the consumer needs no templates.
type MailJob struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	To        []string  `json:"to"`
	Subject   string    `json:"subject"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate rejects jobs that can never be delivered.
func (j MailJob) Validate() error {
	switch {
	case j.ID == "":
		return errors.New("mail job: missing id")
	case len(j.To) == 0:
		return errors.New("mail job: no recipients")
	case j.Subject == "":
		return errors.New("mail job: empty subject")
	}
	return nil
}
