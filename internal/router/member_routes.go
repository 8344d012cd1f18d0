package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cop-side-events/internal/handler"
	"github.com/iliyamo/cop-side-events/internal/middleware"
	"github.com/iliyamo/cop-side-events/internal/model"
)

// RegisterOrg registers the host organisation endpoints under /v1/org.
// All routes require a valid JWT and the Organisation role.
func RegisterOrg(e *echo.Echo, o *handler.OrgHandler, ev *handler.EventHandler, jwtSecret string, idle echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/org",
		middleware.JWTAuth(jwtSecret),
		idle,
		middleware.RequireRole(model.RoleOrganisation),
	)
	g.GET("/profile", o.GetProfile)
	g.POST("/profile", o.CreateProfile)
	g.PUT("/profile", o.UpdateProfile)
	g.GET("/dashboard", o.Dashboard)

	g.GET("/events", ev.OrgList)
	g.POST("/events", ev.OrgCreate)
	g.GET("/events/:id", ev.OrgGet)
	g.PUT("/events/:id", ev.OrgUpdate)
	g.PATCH("/events/:id", ev.OrgUpdate)
	g.PUT("/events/:id/payment", ev.OrgPayment)
}

// RegisterActivist registers the activist endpoints under /v1/activist.
func RegisterActivist(e *echo.Echo, a *handler.ActivistHandler, jwtSecret string, idle echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/activist",
		middleware.JWTAuth(jwtSecret),
		idle,
		middleware.RequireRole(model.RoleActivist),
	)
	g.GET("/dashboard", a.Dashboard)
	g.GET("/profile", a.GetProfile)
	g.POST("/profile", a.CreateProfile)
	g.PUT("/profile", a.UpdateProfile)
}
