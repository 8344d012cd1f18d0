package handler

import (
	"context"
	"time"

	"github.com/iliyamo/cop-side-events/internal/model"
)

// The interfaces below are the slices of the repositories and services
// each handler calls. The concrete *repository.XRepo types satisfy them.

type UserStore interface {
	Create(ctx context.Context, email, name, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SetVerified(ctx context.Context, id uint64) error
	SetPassword(ctx context.Context, id uint64, password string, cost int) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
	StoreAction(ctx context.Context, userID uint64, purpose, tokenHash string, exp time.Time) error
	ConsumeAction(ctx context.Context, purpose, tokenHash string, now time.Time) (uint64, error)
}

// Sessions tracks idle timeouts of signed-in users.
type Sessions interface {
	Touch(ctx context.Context, uid uint64) error
	End(ctx context.Context, uid uint64) error
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ActivationIssuer interface {
	Issue(ctx context.Context, userID uint64, email, name string) error
}

type ResetMailer interface {
	SendPasswordReset(ctx context.Context, to, name, token string, ttl time.Duration) error
}

type AnnouncementMailer interface {
	BroadcastAnnouncement(ctx context.Context, recipients []string, subject, message string) (int, error)
}

type StaffStore interface {
	Create(ctx context.Context, email, name, password, role string, cost int, p model.StaffProfile) (uint64, error)
	List(ctx context.Context) ([]model.StaffProfile, error)
}

type OrganisationStore interface {
	Create(ctx context.Context, o *model.Organisation) error
	UpdateByUser(ctx context.Context, o *model.Organisation) error
	GetByUser(ctx context.Context, userID uint64) (*model.Organisation, error)
	GetByID(ctx context.Context, id uint64) (*model.Organisation, error)
	List(ctx context.Context) ([]model.Organisation, error)
	CountByType(ctx context.Context) (model.OrganisationTypeCounts, error)
	SetStatus(ctx context.Context, id uint64, status string, reviewer uint64) error
}

type ActivistStore interface {
	Create(ctx context.Context, a *model.Activist) error
	UpdateByUser(ctx context.Context, a *model.Activist) error
	GetByUser(ctx context.Context, userID uint64) (*model.Activist, error)
	List(ctx context.Context) ([]model.Activist, error)
	SetStatus(ctx context.Context, id uint64, status string, reviewer uint64) error
}

type ParticipantStore interface {
	List(ctx context.Context) ([]model.Participant, error)
	CountByAccreditor(ctx context.Context, accreditor string) (own, others int, err error)
}

type Accreditor interface {
	Accredit(ctx context.Context, p *model.Participant) error
}

// ApplicationReader serves application listings. Writes go through
// ApplicationWriter so every window is checked.
type ApplicationReader interface {
	GetByID(ctx context.Context, id uint64) (*model.EventApplication, error)
	ListAll(ctx context.Context) ([]model.EventApplication, error)
	ListByOrg(ctx context.Context, orgID uint64) ([]model.EventApplication, error)
	ListUpcoming(ctx context.Context, from time.Time, limit, offset int) ([]model.EventApplication, int, error)
	Summary(ctx context.Context, orgID *uint64) (model.ApplicationSummary, error)
}

type ApplicationWriter interface {
	Create(ctx context.Context, a *model.EventApplication) error
	Update(ctx context.Context, id uint64,
		guard func(cur *model.EventApplication) error,
		patch func(a *model.EventApplication) error) (*model.EventApplication, error)
}

type InvoiceStore interface {
	Create(ctx context.Context, inv *model.Invoice) error
	GetByID(ctx context.Context, id uint64) (*model.Invoice, error)
	GetByApplication(ctx context.Context, appID uint64) (*model.Invoice, error)
	RecordPayment(ctx context.Context, id uint64, amountCents int64, datePaid time.Time, proofURL *string) error
	SetStatus(ctx context.Context, id uint64, status string) error
}

type ReportStore interface {
	Upsert(ctx context.Context, p *model.PostEventReport) error
	GetByID(ctx context.Context, id uint64) (*model.PostEventReport, error)
	GetByApplication(ctx context.Context, appID uint64) (*model.PostEventReport, error)
	List(ctx context.Context) ([]model.PostEventReport, error)
}

type AnnouncementStore interface {
	Create(ctx context.Context, a *model.Announcement) error
	List(ctx context.Context) ([]model.Announcement, error)
}

type RecipientLister interface {
	ListEmails(ctx context.Context) ([]string, error)
}

type StatsSource interface {
	Dashboard(ctx context.Context, orgID *uint64, dayStart, dayEnd time.Time) (*model.DashboardStats, error)
}
