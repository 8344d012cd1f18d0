package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cop-side-events/internal/handler"
	"github.com/iliyamo/cop-side-events/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication and
// are not part of the versioned API. Currently it exposes only a health
// check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterPublic registers the guest endpoints. cache wraps the list and
// landing reads; pass nil to serve them uncached.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if cache != nil {
		mw = append(mw, cache)
	}
	g := e.Group("/v1")
	g.GET("/home", p.Home, mw...)
	g.GET("/events", p.ListEvents, mw...)
	g.GET("/events/:id", p.GetEvent)
	g.GET("/reports", p.ListReports, mw...)
	g.GET("/reports/:id", p.GetReport)
}

// RegisterAuth registers all authentication-related routes. Unauthenticated
// operations live under /v1/auth, while the account endpoints live under
// /v1 behind JWT and the idle-session check.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, idle echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/activate/resend", a.ResendActivation)
	g.GET("/activate/:token", a.Activate)
	g.POST("/login", a.Login)
	g.POST("/password-reset", a.PasswordReset)
	g.POST("/password-reset/confirm", a.PasswordResetConfirm)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues an access token and keeps the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a refresh_token body, a bearer token, or both, so it
	// sits outside the JWT group.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), idle)
	auth.GET("/me", a.Me)
	auth.POST("/me/password", a.ChangePassword)
}
