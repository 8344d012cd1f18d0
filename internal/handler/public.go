// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines the public landing page, the upcoming side-event list and
// the published post-event reports. No authentication is required.

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cop-side-events/internal/clock"
	"github.com/iliyamo/cop-side-events/internal/model"
)

// PublicHandler aggregates repositories needed for unauthenticated browsing.
type PublicHandler struct {
	Apps    ApplicationReader
	Reports ReportStore
	Stats   StatsSource
	Clock   clock.Clock
}

// PublicEvent is an application as shown to guests. Review and billing
// details are left out.
type PublicEvent struct {
	ID               uint64  `json:"id"`
	OrganisationName string  `json:"organisation_name"`
	ProposedTitle    string  `json:"proposed_title"`
	EventType        *string `json:"event_type,omitempty"`
	NumberOfSpeakers int     `json:"number_of_speakers"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	Description      *string `json:"description,omitempty"`
	FlierURL         *string `json:"flier_url,omitempty"`
}

func publicEvent(a model.EventApplication) PublicEvent {
	return PublicEvent{
		ID:               a.ID,
		OrganisationName: a.OrganisationName,
		ProposedTitle:    a.ProposedTitle,
		EventType:        a.EventType,
		NumberOfSpeakers: a.NumberOfSpeakers,
		StartTime:        a.StartTime.UTC().Format(time.RFC3339),
		EndTime:          a.EndTime.UTC().Format(time.RFC3339),
		Description:      a.Description,
		FlierURL:         a.FlierURL,
	}
}

// Home returns the landing page counters, latest reports and today's
// events.
func (h *PublicHandler) Home(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	start, end := clock.DayBounds(h.Clock.Now())
	stats, err := h.Stats.Dashboard(ctx, nil, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// ListEvents lists applications starting today or later, earliest first.
// Query: page (1-based), per_page (default 20, max 100).
func (h *PublicHandler) ListEvents(c echo.Context) error {
	page, perPage := pageParams(c)
	ctx, cancel := requestCtx(c)
	defer cancel()

	today, _ := clock.DayBounds(h.Clock.Now())
	items, total, err := h.Apps.ListUpcoming(ctx, today, perPage, (page-1)*perPage)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]PublicEvent, 0, len(items))
	for _, a := range items {
		out = append(out, publicEvent(a))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":    out,
		"page":     page,
		"per_page": perPage,
		"total":    total,
	})
}

// GetEvent returns one application by id.
func (h *PublicHandler) GetEvent(c echo.Context) error {
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
	return c.JSON(http.StatusOK, publicEvent(*a))
}

// ListReports lists every post-event report, newest first.
func (h *PublicHandler) ListReports(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Reports.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.PostEventReport{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetReport returns one post-event report.
func (h *PublicHandler) GetReport(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	r, err := h.Reports.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}
