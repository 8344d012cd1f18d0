// Package repository holds the MySQL data access layer. The sentinel
// values below let handlers and services tell failure scenarios apart
// without inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// Not-found sentinels, one per aggregate.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrTokenNotFound        = errors.New("token not found or expired")
	ErrOrganisationNotFound = errors.New("organisation not found")
	ErrActivistNotFound     = errors.New("activist not found")
	ErrApplicationNotFound  = errors.New("event application not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrReportNotFound       = errors.New("report not found")
)

// Duplicate-key sentinels mapped from MySQL error 1062.
var (
	ErrEmailExists            = errors.New("email already exists")
	ErrProfileExists          = errors.New("profile already exists")
	ErrDuplicateAccreditation = errors.New("accreditation number already registered")
)
