package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cop-side-events/internal/handler"
	"github.com/iliyamo/cop-side-events/internal/model"
	"github.com/iliyamo/cop-side-events/internal/utils"
)

const secret = "router-test-secret-0123"

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newServer(db handler.Pinger) *echo.Echo {
	e := echo.New()
	events := &handler.EventHandler{}
	RegisterRoutes(e, db)
	RegisterPublic(e, &handler.PublicHandler{}, nil)
	RegisterAuth(e, &handler.AuthHandler{}, secret, passthrough)
	RegisterSuper(e, &handler.SuperHandler{}, secret, passthrough)
	RegisterAdmin(e, &handler.AdminHandler{}, events, secret, passthrough)
	RegisterOrg(e, &handler.OrgHandler{}, events, secret, passthrough)
	RegisterActivist(e, &handler.ActivistHandler{}, secret, passthrough)
	return e
}

func serve(e *echo.Echo, method, path, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, 7, role, 5)
	require.NoError(t, err)
	return tok.Token
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer(pinger{})
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /v1/events",
		"GET /v1/reports/:id",
		"POST /v1/auth/login",
		"GET /v1/auth/activate/:token",
		"POST /v1/auth/logout",
		"GET /v1/me",
		"POST /v1/super/staff",
		"POST /v1/admin/events",
		"PATCH /v1/admin/invoices/:id/status",
		"POST /v1/admin/announcements",
		"POST /v1/org/events",
		"PUT /v1/org/events/:id/payment",
		"PUT /v1/activist/profile",
	} {
		assert.True(t, have[want], "missing route %s", want)
	}
}

func TestHealth(t *testing.T) {
	rec := serve(newServer(pinger{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newServer(pinger{err: errors.New("down")}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGroupsEnforceRoles(t *testing.T) {
	e := newServer(pinger{})
	cases := []struct {
		name, method, path, role string
		want                     int
	}{
		{"me needs a token", http.MethodGet, "/v1/me", "", http.StatusUnauthorized},
		{"admin needs a token", http.MethodGet, "/v1/admin/events", "", http.StatusUnauthorized},
		{"org cannot reach admin", http.MethodGet, "/v1/admin/events", model.RoleOrganisation, http.StatusForbidden},
		{"admin cannot manage staff", http.MethodGet, "/v1/super/staff", model.RoleAdmin, http.StatusForbidden},
		{"activist cannot host", http.MethodPost, "/v1/org/events", model.RoleActivist, http.StatusForbidden},
		{"org cannot use activist area", http.MethodGet, "/v1/activist/profile", model.RoleOrganisation, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok := ""
			if tc.role != "" {
				tok = token(t, tc.role)
			}
			assert.Equal(t, tc.want, serve(e, tc.method, tc.path, tok).Code)
		})
	}
}
