package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cop-side-events/internal/clock"
	"github.com/iliyamo/cop-side-events/internal/config"
	"github.com/iliyamo/cop-side-events/internal/model"
)

// AdminHandler serves the staff dashboard: reviews, delegates,
// announcements and invoice confirmation. Side events live in
// EventHandler.
type AdminHandler struct {
	Cfg           config.Config
	Users         UserStore
	Recipients    RecipientLister
	Orgs          OrganisationStore
	Activists     ActivistStore
	Participants  ParticipantStore
	Accreditation Accreditor
	Invoices      InvoiceStore
	Announcements AnnouncementStore
	Mailer        AnnouncementMailer
	Stats         StatsSource
	Clock         clock.Clock
}

type reviewReq struct {
	Status string `json:"status" validate:"required,review_status"`
}

type delegateReq struct {
	Name                string  `json:"name" validate:"required,max=150"`
	Email               string  `json:"email" validate:"required,email,max=254"`
	AccreditationType   string  `json:"accreditation_type" validate:"required,accreditation"`
	AccreditationNumber string  `json:"accreditation_number" validate:"required,max=100"`
	OrganisationID      *uint64 `json:"organisation_id" validate:"omitempty,gt=0"`
	NotListed           *string `json:"not_listed" validate:"omitempty,max=255"`
	AccreditedBy        string  `json:"accredited_by" validate:"omitempty,max=100"`
	COPYear             string  `json:"cop_year" validate:"omitempty,datetime=2006-01-02"`
}

type announcementReq struct {
	Subject string `json:"subject" validate:"required,max=255"`
	Message string `json:"message" validate:"required"`
}

type invoiceStatusReq struct {
	PaymentStatus string `json:"payment_status" validate:"required,pay_status"`
}

// Dashboard returns the global counters with today's events.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	start, end := clock.DayBounds(h.Clock.Now())
	stats, err := h.Stats.Dashboard(ctx, nil, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// ListOrganisations returns every organisation and the per-type counts.
func (h *AdminHandler) ListOrganisations(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Orgs.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	counts, err := h.Orgs.CountByType(ctx)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.Organisation{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "counts": counts})
}

// GetOrganisation returns one organisation profile.
func (h *AdminHandler) GetOrganisation(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	o, err := h.Orgs.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// SetOrganisationStatus records a review decision on an organisation.
func (h *AdminHandler) SetOrganisationStatus(c echo.Context) error {
	return h.review(c, h.Orgs.SetStatus)
}

// ListActivists returns every activist profile.
func (h *AdminHandler) ListActivists(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Activists.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.Activist{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SetActivistStatus records a review decision on an activist.
func (h *AdminHandler) SetActivistStatus(c echo.Context) error {
	return h.review(c, h.Activists.SetStatus)
}

func (h *AdminHandler) review(c echo.Context, set func(ctx context.Context, id uint64, status string, reviewer uint64) error) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	reviewer, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req reviewReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := set(ctx, id, req.Status, reviewer); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": req.Status, "approved_by": reviewer})
}

// ListDelegates returns every accredited delegate with the split between
// the default accrediting body and the others.
func (h *AdminHandler) ListDelegates(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Participants.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	own, others, err := h.Participants.CountByAccreditor(ctx, h.Cfg.AccreditedByDefault)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.Participant{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":  items,
		"counts": echo.Map{"default": own, "others": others, "accredited_by": h.Cfg.AccreditedByDefault},
	})
}

// CreateDelegate accredits a delegate, creating their account when the
// email is new.
func (h *AdminHandler) CreateDelegate(c echo.Context) error {
	var req delegateReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	p := model.Participant{
		Name:                strings.TrimSpace(req.Name),
		Email:               req.Email,
		AccreditationType:   req.AccreditationType,
		AccreditationNumber: strings.TrimSpace(req.AccreditationNumber),
		OrganisationID:      req.OrganisationID,
		NotListed:           req.NotListed,
		AccreditedBy:        strings.TrimSpace(req.AccreditedBy),
		COPYear:             h.Clock.Now(),
	}
	if req.COPYear != "" {
		p.COPYear, _ = time.Parse("2006-01-02", req.COPYear)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if p.OrganisationID != nil {
		if _, err := h.Orgs.GetByID(ctx, *p.OrganisationID); err != nil {
			return respondError(c, err)
		}
	}
	if err := h.Accreditation.Accredit(ctx, &p); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListAnnouncements returns past announcements, newest first.
func (h *AdminHandler) ListAnnouncements(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Announcements.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.Announcement{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateAnnouncement stores the announcement and emails it to every
// active account.
func (h *AdminHandler) CreateAnnouncement(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req announcementReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	a := model.Announcement{Subject: strings.TrimSpace(req.Subject), Message: req.Message, Sender: u.Name}
	if err := h.Announcements.Create(ctx, &a); err != nil {
		return respondError(c, err)
	}
	recipients, err := h.Recipients.ListEmails(ctx)
	if err != nil {
		return respondError(c, err)
	}
	sent, err := h.Mailer.BroadcastAnnouncement(ctx, recipients, a.Subject, a.Message)
	if err != nil {
		slog.ErrorContext(ctx, "announcement broadcast incomplete",
			"announcement_id", a.ID, "sent", sent, "recipients", len(recipients), "err", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"announcement": a, "recipients": len(recipients), "sent": sent})
}

// SetInvoiceStatus confirms or overrides an invoice's payment status.
func (h *AdminHandler) SetInvoiceStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req invoiceStatusReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Invoices.SetStatus(ctx, id, req.PaymentStatus); err != nil {
		return respondError(c, err)
	}
	inv, err := h.Invoices.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}
