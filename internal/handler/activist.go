package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cop-side-events/internal/clock"
	"github.com/iliyamo/cop-side-events/internal/model"
)

// ActivistHandler serves an activist's own profile and dashboard.
type ActivistHandler struct {
	Activists ActivistStore
	Orgs      OrganisationStore
	Stats     StatsSource
	Clock     clock.Clock
}

type activistProfileReq struct {
	OrganisationID *uint64 `json:"organisation_id" validate:"omitempty,gt=0"`
	Designation    string  `json:"designation" validate:"required,max=100"`
	ContactNumber  string  `json:"contact_number" validate:"required,max=30"`
	Email          string  `json:"email" validate:"required,email,max=254"`
	AddressLine    string  `json:"address_line" validate:"required,max=255"`
	State          string  `json:"state" validate:"required,ng_state"`
	FocusArea      string  `json:"focus_area" validate:"required,focus_area"`
	Description    string  `json:"description" validate:"required,max=2500"`
	Twitter        *string `json:"twitter" validate:"omitempty,url"`
	Facebook       *string `json:"facebook" validate:"omitempty,url"`
	Instagram      *string `json:"instagram" validate:"omitempty,url"`
	Website        *string `json:"website" validate:"omitempty,url"`
}

func (r activistProfileReq) activist(userID uint64) model.Activist {
	return model.Activist{
		UserID:         userID,
		OrganisationID: r.OrganisationID,
		Designation:    strings.TrimSpace(r.Designation),
		ContactNumber:  strings.TrimSpace(r.ContactNumber),
		Email:          r.Email,
		AddressLine:    strings.TrimSpace(r.AddressLine),
		State:          r.State,
		FocusArea:      r.FocusArea,
		Description:    strings.TrimSpace(r.Description),
		Twitter:        r.Twitter,
		Facebook:       r.Facebook,
		Instagram:      r.Instagram,
		Website:        r.Website,
	}
}

// Dashboard returns the conference-wide counters.
func (h *ActivistHandler) Dashboard(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	start, end := clock.DayBounds(h.Clock.Now())
	stats, err := h.Stats.Dashboard(ctx, nil, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GetProfile returns the caller's activist profile.
func (h *ActivistHandler) GetProfile(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	a, err := h.Activists.GetByUser(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// CreateProfile stores the caller's activist profile.
func (h *ActivistHandler) CreateProfile(c echo.Context) error {
	return h.save(c, true)
}

// UpdateProfile overwrites the caller's activist profile.
func (h *ActivistHandler) UpdateProfile(c echo.Context) error {
	return h.save(c, false)
}

func (h *ActivistHandler) save(c echo.Context, create bool) error {
	uid, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req activistProfileReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if req.OrganisationID != nil {
		if _, err := h.Orgs.GetByID(ctx, *req.OrganisationID); err != nil {
			return respondError(c, err)
		}
	}
	a := req.activist(uid)
	status := http.StatusOK
	if create {
		err = h.Activists.Create(ctx, &a)
		status = http.StatusCreated
	} else {
		err = h.Activists.UpdateByUser(ctx, &a)
	}
	if err != nil {
		return respondError(c, err)
	}
	saved, err := h.Activists.GetByUser(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status, saved)
}
