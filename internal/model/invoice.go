package model

import "time"

// Invoice bills a side event (`invoices`). Amounts are stored in minor
// units to avoid floating point.
//
// Fields:
//
//	ID              – primary key identifier.
//	ApplicationID   – billed side event.
//	Currency        – NGN, USD or AED.
//	AmountDueCents  – price of the event.
//	AmountPaidCents – amount declared by the organisation, nil until paid.
//	DatePaid        – declared payment date.
//	PaymentStatus   – Unpaid, Paid or Overdue.
//	ProofURL        – uploaded receipt location.
//	CreatedAt       – timestamp of creation.
type Invoice struct {
	ID              uint64     `json:"id"`
	ApplicationID   uint64     `json:"application_id"`
	Currency        string     `json:"currency"`
	AmountDueCents  int64      `json:"amount_due_cents"`
	AmountPaidCents *int64     `json:"amount_paid_cents,omitempty"`
	DatePaid        *time.Time `json:"date_paid,omitempty"`
	PaymentStatus   string     `json:"payment_status"`
	ProofURL        *string    `json:"proof_url,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
