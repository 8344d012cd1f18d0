package handler // handler defines http handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cop-side-events/internal/middleware"
	"github.com/iliyamo/cop-side-events/internal/model"
	"github.com/iliyamo/cop-side-events/internal/repository"
	"github.com/iliyamo/cop-side-events/internal/schedule"
	"github.com/iliyamo/cop-side-events/internal/utils"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

var (
	errBadBody      = errors.New("invalid body")
	errBadID        = errors.New("invalid id")
	errUnauthorized = errors.New("unauthorized")
)

// RequestValidator adapts go-playground/validator to echo.Validator and
// registers the enum tags used by request DTOs.
type RequestValidator struct {
	v *validator.Validate
}

// NewRequestValidator builds the validator. Install it with
// e.Validator = NewRequestValidator().
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	for tag, allowed := range map[string][]string{
		"org_type":      model.OrganisationTypes,
		"focus_area":    model.FocusAreas,
		"ng_state":      model.States,
		"accreditation": model.AccreditationTypes,
		"event_type":    model.EventTypes,
		"currency":      model.Currencies,
		"review_status": model.ReviewStatuses,
		"app_status":    model.ApplicationStatuses,
		"pay_status":    model.PaymentStatuses,
		"signup_role":   model.SignupRoles,
		"staff_role":    model.StaffRoles,
		"designation":   model.Designations,
	} {
		allowed := allowed
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return model.OneOf(fl.Field().String(), allowed)
		})
	}
	return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

// bindValid decodes the request body into req and validates it.
func bindValid(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errBadBody
	}
	return c.Validate(req)
}

// requestCtx returns the request context bounded by dbTimeout.
func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return id, nil
}

// currentUser returns the authenticated user id set by JWTAuth.
func currentUser(c echo.Context) (uint64, error) {
	uid, ok := middleware.UserID(c)
	if !ok {
		return 0, errUnauthorized
	}
	return uid, nil
}

// validationFields maps each failing json field to the rule it broke.
func validationFields(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		if field == "" {
			field = fe.StructField()
		}
		switch fe.Tag() {
		case "required":
			out[field] = "is required"
		case "email":
			out[field] = "must be a valid email address"
		case "eqfield":
			out[field] = "does not match"
		case "min", "gte":
			out[field] = "must be at least " + fe.Param()
		case "max", "lte":
			out[field] = "must be at most " + fe.Param()
		case "url":
			out[field] = "must be a valid URL"
		default:
			out[field] = "is not valid"
		}
	}
	return out
}

// respondError writes the JSON error response for err. Unknown errors are
// logged and reported as 500 without detail.
func respondError(c echo.Context, err error) error {
	var (
		conflict *schedule.ConflictError
		verrs    validator.ValidationErrors
	)
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": conflict.Error(), "conflicts": conflict.Conflicts})
	case errors.As(err, &verrs):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": validationFields(verrs)})
	case errors.Is(err, errBadBody), errors.Is(err, errBadID),
		errors.Is(err, schedule.ErrInvalidInterval),
		errors.Is(err, utils.ErrPasswordTooShort),
		errors.Is(err, utils.ErrPasswordNumeric),
		errors.Is(err, utils.ErrPasswordTooSimilar):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, errUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrOrganisationNotFound),
		errors.Is(err, repository.ErrActivistNotFound),
		errors.Is(err, repository.ErrApplicationNotFound),
		errors.Is(err, repository.ErrInvoiceNotFound),
		errors.Is(err, repository.ErrReportNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrProfileExists),
		errors.Is(err, repository.ErrDuplicateAccreditation):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	slog.ErrorContext(c.Request().Context(), "request failed",
		"method", c.Request().Method, "path", c.Path(),
		"request_id", middleware.RequestIDFrom(c), "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// pageParams reads ?page and ?per_page, clamping per_page to [1,100].
func pageParams(c echo.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.QueryParam("per_page"))
	switch {
	case perPage <= 0:
		perPage = 20
	case perPage > 100:
		perPage = 100
	}
	return page, perPage
}
