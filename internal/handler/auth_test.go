package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cop-side-events/internal/clock"
	"github.com/iliyamo/cop-side-events/internal/config"
	"github.com/iliyamo/cop-side-events/internal/middleware"
	"github.com/iliyamo/cop-side-events/internal/model"
)

type authFixture struct {
	e        *echo.Echo
	users    *memUsers
	tokens   *memTokens
	orgs     *memOrgs
	issuer   *tokenIssuer
	mailer   *capturingMailer
	sessions *fakeSessions
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:    newMemUsers(),
		tokens:   newMemTokens(),
		orgs:     newMemOrgs(),
		mailer:   &capturingMailer{},
		sessions: &fakeSessions{},
	}
	f.issuer = &tokenIssuer{tokens: f.tokens}
	h := &AuthHandler{
		Cfg: config.Config{
			JWTSecret: testSecret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4, ResetTTL: time.Hour,
		},
		Users:     f.users,
		Tokens:    f.tokens,
		Orgs:      f.orgs,
		Tx:        inlineTx{},
		Activator: f.issuer,
		Mailer:    f.mailer,
		Sessions:  f.sessions,
		Clock:     clock.NewFixed(testNow),
	}
	e := newEcho()
	g := e.Group("/v1/auth")
	g.POST("/register", h.Register)
	g.GET("/activate/:token", h.Activate)
	g.POST("/login", h.Login)
	g.POST("/password-reset", h.PasswordReset)
	g.POST("/password-reset/confirm", h.PasswordResetConfirm)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	me := e.Group("/v1", middleware.JWTAuth(testSecret))
	me.GET("/me", h.Me)
	me.POST("/me/password", h.ChangePassword)
	f.e = e
	return f
}

func (f *authFixture) login(t *testing.T, email, password string) (int, map[string]any) {
	t.Helper()
	rec := do(f.e, http.MethodPost, "/v1/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	return rec.Code, decode(t, rec)
}

func TestRegisterActivateLogin(t *testing.T) {
	f := newAuthFixture()

	rec := do(f.e, http.MethodPost, "/v1/auth/register", "",
		`{"name":"Green Futures","email":"Host@Example.org","password":"climate-now-24","password_confirm":"climate-now-24","role":"Organisation"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.NotContains(t, body, "access")
	assert.Equal(t, "host@example.org", body["user"].(map[string]any)["email"])

	code, body := f.login(t, "host@example.org", "climate-now-24")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, msgNotVerified, body["error"])

	raw := f.issuer.raw["host@example.org"]
	require.NotEmpty(t, raw)
	rec = do(f.e, http.MethodGet, "/v1/auth/activate/"+raw, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(f.e, http.MethodGet, "/v1/auth/activate/"+raw, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "activation links are single use")

	code, body = f.login(t, "host@example.org", "climate-now-24")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, NextOrgProfile, body["next"])
	assert.NotEmpty(t, body["access"].(map[string]any)["token"])
	assert.Len(t, f.sessions.touched, 1)
}

func TestRegisterRejects(t *testing.T) {
	f := newAuthFixture()
	f.users.add(t, "taken@example.org", "climate-now-24", model.RoleActivist)

	cases := []struct {
		name  string
		body  string
		code  int
		field string
	}{
		{"mismatch", `{"name":"A","email":"a@example.org","password":"climate-now-24","password_confirm":"other-pass-99","role":"Activist"}`, http.StatusBadRequest, "password_confirm"},
		{"staff role", `{"name":"A","email":"a@example.org","password":"climate-now-24","password_confirm":"climate-now-24","role":"Admin"}`, http.StatusBadRequest, "role"},
		{"bad email", `{"name":"A","email":"nope","password":"climate-now-24","password_confirm":"climate-now-24","role":"Activist"}`, http.StatusBadRequest, "email"},
		{"numeric", `{"name":"A","email":"a@example.org","password":"123456789","password_confirm":"123456789","role":"Activist"}`, http.StatusBadRequest, ""},
		{"duplicate", `{"name":"A","email":"taken@example.org","password":"climate-now-24","password_confirm":"climate-now-24","role":"Activist"}`, http.StatusConflict, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(f.e, http.MethodPost, "/v1/auth/register", "", tc.body)
			require.Equal(t, tc.code, rec.Code, rec.Body.String())
			if tc.field != "" {
				fields := decode(t, rec)["fields"].(map[string]any)
				assert.Contains(t, fields, tc.field)
			}
		})
	}
}

func TestLoginNext(t *testing.T) {
	f := newAuthFixture()
	f.users.add(t, "super@example.org", "climate-now-24", model.RoleSuperAdmin)
	f.users.add(t, "admin@example.org", "climate-now-24", model.RoleAdmin)
	f.users.add(t, "act@example.org", "climate-now-24", model.RoleActivist)
	f.users.add(t, "norole@example.org", "climate-now-24", "")
	hostID := f.users.add(t, "host@example.org", "climate-now-24", model.RoleOrganisation)
	f.orgs.rows[1] = &model.Organisation{ID: 1, UserID: hostID}

	cases := map[string]string{
		"super@example.org": NextSuperDashboard,
		"admin@example.org": NextAdminDashboard,
		"act@example.org":   NextActivistDashboard,
		"host@example.org":  NextOrgDashboard,
	}
	for email, next := range cases {
		t.Run(email, func(t *testing.T) {
			code, body := f.login(t, email, "climate-now-24")
			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, next, body["next"])
		})
	}

	code, body := f.login(t, "norole@example.org", "climate-now-24")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, msgNoRole, body["error"])

	code, _ = f.login(t, "admin@example.org", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = f.login(t, "ghost@example.org", "climate-now-24")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestPasswordReset(t *testing.T) {
	f := newAuthFixture()
	uid := f.users.add(t, "ada@example.org", "climate-now-24", model.RoleActivist)

	rec := do(f.e, http.MethodPost, "/v1/auth/password-reset", "", `{"email":"ghost@example.org"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgUnknownUser, decode(t, rec)["error"])

	rec = do(f.e, http.MethodPost, "/v1/auth/password-reset", "", `{"email":"ada@example.org"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	raw := f.mailer.resets["ada@example.org"]
	require.NotEmpty(t, raw)

	confirm := func(pw string) int {
		return do(f.e, http.MethodPost, "/v1/auth/password-reset/confirm", "",
			`{"token":"`+raw+`","password":"`+pw+`","password_confirm":"`+pw+`"}`).Code
	}
	require.Equal(t, http.StatusOK, confirm("river-delta-77"))
	assert.Equal(t, http.StatusBadRequest, confirm("river-delta-78"), "reset links are single use")
	assert.Contains(t, f.tokens.revokedAll, uid)
	assert.Contains(t, f.sessions.ended, uid)

	code, _ := f.login(t, "ada@example.org", "river-delta-77")
	assert.Equal(t, http.StatusOK, code)
}

func TestRefreshAndLogout(t *testing.T) {
	f := newAuthFixture()
	uid := f.users.add(t, "ada@example.org", "climate-now-24", model.RoleActivist)
	_, body := f.login(t, "ada@example.org", "climate-now-24")
	refresh := body["refresh"].(map[string]any)["token"].(string)

	rec := do(f.e, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+refresh+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decode(t, rec)["refresh"].(map[string]any)["token"].(string)
	assert.NotEqual(t, refresh, rotated)

	rec = do(f.e, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+refresh+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "old refresh token is revoked")

	rec = do(f.e, http.MethodPost, "/v1/auth/logout", "", `{"refresh_token":"`+rotated+`"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, f.sessions.ended, uid)

	rec = do(f.e, http.MethodPost, "/v1/auth/logout", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture()
	uid := f.users.add(t, "ada@example.org", "climate-now-24", model.RoleActivist)
	tok := bearer(t, uid, model.RoleActivist)

	rec := do(f.e, http.MethodGet, "/v1/me", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.org", decode(t, rec)["email"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(f.e, http.MethodPost, "/v1/me/password", tok,
		`{"old_password":"nope","new_password":"river-delta-77","new_password_confirm":"river-delta-77"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(f.e, http.MethodPost, "/v1/me/password", tok,
		`{"old_password":"climate-now-24","new_password":"river-delta-77","new_password_confirm":"river-delta-77"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, f.tokens.revokedAll, uid)
	assert.Contains(t, f.sessions.ended, uid)
}
