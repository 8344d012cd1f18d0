package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cop-side-events/internal/clock"
	"github.com/iliyamo/cop-side-events/internal/model"
	"github.com/iliyamo/cop-side-events/internal/repository"
)

// OrgHandler serves an organisation's own profile and dashboard.
type OrgHandler struct {
	Orgs  OrganisationStore
	Stats StatsSource
	Clock clock.Clock
}

type orgProfileReq struct {
	Type           string  `json:"organisation_type" validate:"required,org_type"`
	ContactNumber  string  `json:"contact_number" validate:"required,max=30"`
	AddressLine    string  `json:"address_line" validate:"required,max=255"`
	State          string  `json:"state" validate:"required,ng_state"`
	FocusArea      *string `json:"focus_area" validate:"omitempty,focus_area"`
	Description    string  `json:"description" validate:"required,max=2500"`
	Twitter        *string `json:"twitter" validate:"omitempty,url"`
	Facebook       *string `json:"facebook" validate:"omitempty,url"`
	Instagram      *string `json:"instagram" validate:"omitempty,url"`
	Website        *string `json:"website" validate:"omitempty,url"`
	LogoURL        *string `json:"logo_url" validate:"omitempty,url"`
	CertificateURL *string `json:"certificate_url" validate:"omitempty,url"`
}

func (r orgProfileReq) organisation(userID uint64) model.Organisation {
	return model.Organisation{
		UserID:         userID,
		Type:           r.Type,
		ContactNumber:  strings.TrimSpace(r.ContactNumber),
		AddressLine:    strings.TrimSpace(r.AddressLine),
		State:          r.State,
		FocusArea:      r.FocusArea,
		Description:    strings.TrimSpace(r.Description),
		Twitter:        r.Twitter,
		Facebook:       r.Facebook,
		Instagram:      r.Instagram,
		Website:        r.Website,
		LogoURL:        r.LogoURL,
		CertificateURL: r.CertificateURL,
	}
}

// GetProfile returns the caller's organisation profile.
func (h *OrgHandler) GetProfile(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	o, err := h.Orgs.GetByUser(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// CreateProfile completes the organisation profile after sign-up. It is
// created Pending review.
func (h *OrgHandler) CreateProfile(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req orgProfileReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	o := req.organisation(uid)
	if err := h.Orgs.Create(ctx, &o); err != nil {
		return respondError(c, err)
	}
	saved, err := h.Orgs.GetByUser(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, saved)
}

// UpdateProfile overwrites the caller's profile. The review decision is
// kept.
func (h *OrgHandler) UpdateProfile(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req orgProfileReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	o := req.organisation(uid)
	if err := h.Orgs.UpdateByUser(ctx, &o); err != nil {
		return respondError(c, err)
	}
	saved, err := h.Orgs.GetByUser(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, saved)
}

// Dashboard returns the counters scoped to the caller's organisation.
// Callers without a profile are pointed at the profile form.
func (h *OrgHandler) Dashboard(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	o, err := h.Orgs.GetByUser(ctx, uid)
	if errors.Is(err, repository.ErrOrganisationNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error(), "next": NextOrgProfile})
	}
	if err != nil {
		return respondError(c, err)
	}
	start, end := clock.DayBounds(h.Clock.Now())
	stats, err := h.Stats.Dashboard(ctx, &o.ID, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"organisation": o, "stats": stats})
}
