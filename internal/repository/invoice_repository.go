package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cop-side-events/internal/model"
)

// InvoiceRepo stores side-event invoices.
type InvoiceRepo struct {
	db *sql.DB
}

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo {
	return &InvoiceRepo{db: db}
}

const invoiceSelect = `SELECT id, application_id, currency, amount_due_cents, amount_paid_cents, date_paid,
       payment_status, proof_url, created_at FROM invoices`

func scanInvoice(sc interface{ Scan(...any) error }) (*model.Invoice, error) {
	var (
		inv      model.Invoice
		paid     sql.NullInt64
		datePaid sql.NullTime
		proof    sql.NullString
	)
	if err := sc.Scan(&inv.ID, &inv.ApplicationID, &inv.Currency, &inv.AmountDueCents, &paid, &datePaid,
		&inv.PaymentStatus, &proof, &inv.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	if paid.Valid {
		v := paid.Int64
		inv.AmountPaidCents = &v
	}
	if datePaid.Valid {
		t := datePaid.Time
		inv.DatePaid = &t
	}
	inv.ProofURL = strPtr(proof)
	return &inv, nil
}

// Create bills an application. The invoice starts Unpaid.
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	inv.PaymentStatus = model.PaymentUnpaid
	res, err := conn(ctx, r.db).ExecContext(ctx,
		"INSERT INTO invoices (application_id, currency, amount_due_cents, payment_status) VALUES (?,?,?,?)",
		inv.ApplicationID, inv.Currency, inv.AmountDueCents, inv.PaymentStatus)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return nil
}

// GetByID returns an invoice by primary key.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uint64) (*model.Invoice, error) {
	return scanInvoice(conn(ctx, r.db).QueryRowContext(ctx, invoiceSelect+" WHERE id = ?", id))
}

// GetByApplication returns the most recent invoice of an application.
func (r *InvoiceRepo) GetByApplication(ctx context.Context, appID uint64) (*model.Invoice, error) {
	return scanInvoice(conn(ctx, r.db).QueryRowContext(ctx,
		invoiceSelect+" WHERE application_id = ? ORDER BY id DESC LIMIT 1", appID))
}

// RecordPayment stores the organisation's payment declaration. The
// status is left for an admin to confirm.
func (r *InvoiceRepo) RecordPayment(ctx context.Context, id uint64, amountCents int64, datePaid time.Time, proofURL *string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE invoices SET amount_paid_cents=?, date_paid=?, proof_url=? WHERE id=?",
		amountCents, datePaid.UTC(), nullString(proofURL), id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrInvoiceNotFound)
}

// SetStatus changes the payment status.
func (r *InvoiceRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, "UPDATE invoices SET payment_status=? WHERE id=?", status, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrInvoiceNotFound)
}

// MarkOverdue flips Unpaid invoices whose event has already started to
// Overdue and returns how many changed.
func (r *InvoiceRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE invoices i JOIN event_applications a ON a.id = i.application_id
         SET i.payment_status = ?
         WHERE i.payment_status = ? AND a.start_time <= ?`,
		model.PaymentOverdue, model.PaymentUnpaid, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
