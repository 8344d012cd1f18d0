package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cop-side-events/internal/config"
	"github.com/iliyamo/cop-side-events/internal/model"
	"github.com/iliyamo/cop-side-events/internal/repository"
	"github.com/iliyamo/cop-side-events/internal/utils"
)

// SuperHandler serves the Super Admin staff endpoints.
type SuperHandler struct {
	Cfg   config.Config
	Staff StaffStore
}

type createStaffReq struct {
	Name        string `json:"name" validate:"required,max=150"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required"`
	Role        string `json:"role" validate:"required,staff_role"`
	Designation string `json:"designation" validate:"required,max=100"`
	Duty        string `json:"duty" validate:"required,designation"`
}

// CreateStaff adds an admin account. Staff accounts are verified on
// creation.
func (h *SuperHandler) CreateStaff(c echo.Context) error {
	var req createStaffReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	email := repository.NormalizeEmail(req.Email)
	if err := utils.CheckPasswordStrength(req.Password, email); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	profile := model.StaffProfile{Designation: strings.TrimSpace(req.Designation), Duty: req.Duty}
	id, err := h.Staff.Create(ctx, email, strings.TrimSpace(req.Name), req.Password, req.Role, h.Cfg.BcryptCost, profile)
	if err != nil {
		return respondError(c, err)
	}
	profile.UserID = id
	profile.Name = strings.TrimSpace(req.Name)
	profile.Email = email
	return c.JSON(http.StatusCreated, echo.Map{"staff": profile, "role": req.Role})
}

// ListStaff lists every staff profile.
func (h *SuperHandler) ListStaff(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Staff.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.StaffProfile{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
