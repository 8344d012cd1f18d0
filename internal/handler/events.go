package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cop-side-events/internal/model"
	"github.com/iliyamo/cop-side-events/internal/repository"
)

// EventHandler serves side-event applications for admins and host
// organisations. Every create and edit goes through Writer, which
// rejects windows that overlap a booked application.
type EventHandler struct {
	Apps     ApplicationReader
	Writer   ApplicationWriter
	Orgs     OrganisationStore
	Invoices InvoiceStore
	Reports  ReportStore
}

// eventReq is the body for creating an application. Admins must name the
// host organisation and may set the status; organisations may do neither.
type eventReq struct {
	OrganisationID   uint64    `json:"organisation_id"`
	ProposedTitle    string    `json:"proposed_title" validate:"required,max=255"`
	EventType        *string   `json:"event_type" validate:"omitempty,event_type"`
	NumberOfSpeakers int       `json:"number_of_speakers" validate:"gte=0,lte=1000"`
	StartTime        time.Time `json:"start_time" validate:"required"`
	EndTime          time.Time `json:"end_time" validate:"required"`
	Status           string    `json:"status" validate:"omitempty,app_status"`
	Description      *string   `json:"description"`
	FlierURL         *string   `json:"flier_url" validate:"omitempty,url"`
}

// eventPatch is the body for PUT and PATCH. Absent fields keep their
// stored value.
type eventPatch struct {
	ProposedTitle    *string    `json:"proposed_title" validate:"omitempty,min=1,max=255"`
	EventType        *string    `json:"event_type" validate:"omitempty,event_type"`
	NumberOfSpeakers *int       `json:"number_of_speakers" validate:"omitempty,gte=0,lte=1000"`
	StartTime        *time.Time `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	Status           *string    `json:"status" validate:"omitempty,app_status"`
	Description      *string    `json:"description"`
	FlierURL         *string    `json:"flier_url" validate:"omitempty,url"`
}

func (p eventPatch) apply(a *model.EventApplication) {
	if p.ProposedTitle != nil {
		a.ProposedTitle = strings.TrimSpace(*p.ProposedTitle)
	}
	if p.EventType != nil {
		a.EventType = p.EventType
	}
	if p.NumberOfSpeakers != nil {
		a.NumberOfSpeakers = *p.NumberOfSpeakers
	}
	if p.StartTime != nil {
		a.StartTime = p.StartTime.UTC()
	}
	if p.EndTime != nil {
		a.EndTime = p.EndTime.UTC()
	}
	if p.Description != nil {
		a.Description = p.Description
	}
	if p.FlierURL != nil {
		a.FlierURL = p.FlierURL
	}
}

type reportReq struct {
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	VideoURL    *string `json:"video_url" validate:"omitempty,url"`
}

type invoiceReq struct {
	Currency       string `json:"currency" validate:"required,currency"`
	AmountDueCents int64  `json:"amount_due_cents" validate:"gt=0"`
}

type paymentReq struct {
	AmountPaidCents int64   `json:"amount_paid_cents" validate:"gt=0"`
	DatePaid        string  `json:"date_paid" validate:"required,datetime=2006-01-02"`
	ProofURL        *string `json:"proof_url" validate:"omitempty,url"`
}

func (r eventReq) application() model.EventApplication {
	return model.EventApplication{
		OrganisationID:   r.OrganisationID,
		ProposedTitle:    strings.TrimSpace(r.ProposedTitle),
		EventType:        r.EventType,
		NumberOfSpeakers: r.NumberOfSpeakers,
		StartTime:        r.StartTime.UTC(),
		EndTime:          r.EndTime.UTC(),
		Status:           r.Status,
		Description:      r.Description,
		FlierURL:         r.FlierURL,
	}
}

// eventDetail bundles an application with its report and latest invoice.
type eventDetail struct {
	*model.EventApplication
	Report  *model.PostEventReport `json:"report"`
	Invoice *model.Invoice         `json:"invoice"`
}

func (h *EventHandler) detail(ctx context.Context, a *model.EventApplication) (eventDetail, error) {
	d := eventDetail{EventApplication: a}
	rep, err := h.Reports.GetByApplication(ctx, a.ID)
	switch {
	case err == nil:
		d.Report = rep
	case !errors.Is(err, repository.ErrReportNotFound):
		return d, err
	}
	inv, err := h.Invoices.GetByApplication(ctx, a.ID)
	switch {
	case err == nil:
		d.Invoice = inv
	case !errors.Is(err, repository.ErrInvoiceNotFound):
		return d, err
	}
	return d, nil
}

func nonNilApps(items []model.EventApplication) []model.EventApplication {
	if items == nil {
		return []model.EventApplication{}
	}
	return items
}

// ---- admin ----

// AdminList returns every application with the overall summary.
func (h *EventHandler) AdminList(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Apps.ListAll(ctx)
	if err != nil {
		return respondError(c, err)
	}
	sum, err := h.Apps.Summary(ctx, nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": nonNilApps(items), "summary": sum})
}

// AdminCreate books a side event on behalf of an organisation.
func (h *EventHandler) AdminCreate(c echo.Context) error {
	var req eventReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.OrganisationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"organisation_id": "is required"}})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if _, err := h.Orgs.GetByID(ctx, req.OrganisationID); err != nil {
		return respondError(c, err)
	}
	a := req.application()
	if err := h.Writer.Create(ctx, &a); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

// AdminGet returns an application with its report and invoice.
func (h *EventHandler) AdminGet(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	a, err := h.Apps.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	d, err := h.detail(ctx, a)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// AdminUpdate edits any application, including its review status.
func (h *EventHandler) AdminUpdate(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req eventPatch
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	a, err := h.Writer.Update(ctx, id, nil, func(a *model.EventApplication) error {
		req.apply(a)
		if req.Status != nil {
			a.Status = *req.Status
		}
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// AdminUpsertReport creates or replaces the post-event report.
func (h *EventHandler) AdminUpsertReport(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req reportReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if _, err := h.Apps.GetByID(ctx, id); err != nil {
		return respondError(c, err)
	}
	rep := model.PostEventReport{ApplicationID: id, Description: req.Description, ImageURL: req.ImageURL, VideoURL: req.VideoURL}
	if err := h.Reports.Upsert(ctx, &rep); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// AdminCreateInvoice bills an application. New invoices are Unpaid.
func (h *EventHandler) AdminCreateInvoice(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req invoiceReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if _, err := h.Apps.GetByID(ctx, id); err != nil {
		return respondError(c, err)
	}
	inv := model.Invoice{ApplicationID: id, Currency: req.Currency, AmountDueCents: req.AmountDueCents}
	if err := h.Invoices.Create(ctx, &inv); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, inv)
}

// ---- organisation ----

// ownOrg loads the caller's organisation profile. A missing profile is
// ErrOrganisationNotFound.
func (h *EventHandler) ownOrg(ctx context.Context, c echo.Context) (*model.Organisation, error) {
	uid, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	return h.Orgs.GetByUser(ctx, uid)
}

// ownApp loads application id if it belongs to org. Applications of other
// hosts are reported as not found.
func (h *EventHandler) ownApp(ctx context.Context, org *model.Organisation, id uint64) (*model.EventApplication, error) {
	a, err := h.Apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.OrganisationID != org.ID {
		return nil, repository.ErrApplicationNotFound
	}
	return a, nil
}

// OrgList returns the caller's applications with their summary.
func (h *EventHandler) OrgList(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	org, err := h.ownOrg(ctx, c)
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.Apps.ListByOrg(ctx, org.ID)
	if err != nil {
		return respondError(c, err)
	}
	sum, err := h.Apps.Summary(ctx, &org.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": nonNilApps(items), "summary": sum})
}

// OrgCreate applies for a side event. The host is the caller's
// organisation and the status always starts Pending.
func (h *EventHandler) OrgCreate(c echo.Context) error {
	var req eventReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	org, err := h.ownOrg(ctx, c)
	if errors.Is(err, repository.ErrOrganisationNotFound) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "complete your organisation profile first", "next": NextOrgProfile})
	}
	if err != nil {
		return respondError(c, err)
	}
	req.OrganisationID = org.ID
	req.Status = model.ApplicationPending
	a := req.application()
	if err := h.Writer.Create(ctx, &a); err != nil {
		return respondError(c, err)
	}
	a.OrganisationName = org.Name
	return c.JSON(http.StatusCreated, a)
}

// OrgGet returns one of the caller's applications with its invoice.
func (h *EventHandler) OrgGet(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	org, err := h.ownOrg(ctx, c)
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.ownApp(ctx, org, id)
	if err != nil {
		return respondError(c, err)
	}
	d, err := h.detail(ctx, a)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// OrgUpdate edits one of the caller's applications. Status is reserved
// for admins and ignored here.
func (h *EventHandler) OrgUpdate(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req eventPatch
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	org, err := h.ownOrg(ctx, c)
	if err != nil {
		return respondError(c, err)
	}
	guard := func(cur *model.EventApplication) error {
		if cur.OrganisationID != org.ID {
			return repository.ErrApplicationNotFound
		}
		return nil
	}
	a, err := h.Writer.Update(ctx, id, guard, func(a *model.EventApplication) error {
		req.apply(a)
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// OrgPayment records the organisation's payment declaration against the
// application's invoice. An admin confirms it afterwards.
func (h *EventHandler) OrgPayment(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req paymentReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	paid, err := time.Parse("2006-01-02", req.DatePaid)
	if err != nil {
		return respondError(c, errBadBody)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	org, err := h.ownOrg(ctx, c)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := h.ownApp(ctx, org, id); err != nil {
		return respondError(c, err)
	}
	inv, err := h.Invoices.GetByApplication(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Invoices.RecordPayment(ctx, inv.ID, req.AmountPaidCents, paid, req.ProofURL); err != nil {
		return respondError(c, err)
	}
	if inv, err = h.Invoices.GetByID(ctx, inv.ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}
