package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cop-side-events/internal/handler"
	"github.com/iliyamo/cop-side-events/internal/middleware"
	"github.com/iliyamo/cop-side-events/internal/model"
)

// RegisterSuper registers staff management under /v1/super. Only Super
// Admins may call it.
func RegisterSuper(e *echo.Echo, s *handler.SuperHandler, jwtSecret string, idle echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/super",
		middleware.JWTAuth(jwtSecret),
		idle,
		middleware.RequireRole(model.RoleSuperAdmin),
	)
	g.POST("/staff", s.CreateStaff)
	g.GET("/staff", s.ListStaff)
}

// RegisterAdmin registers the staff dashboard under /v1/admin for Super
// Admins and Admins.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, ev *handler.EventHandler, jwtSecret string, idle echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		idle,
		middleware.RequireRole(model.StaffRoles...),
	)
	g.GET("/dashboard", a.Dashboard)

	// ---- Organisations and activists ----
	g.GET("/organisations", a.ListOrganisations)
	g.GET("/organisations/:id", a.GetOrganisation)
	g.PATCH("/organisations/:id/status", a.SetOrganisationStatus)
	g.GET("/activists", a.ListActivists)
	g.PATCH("/activists/:id/status", a.SetActivistStatus)

	// ---- Delegates ----
	g.GET("/delegates", a.ListDelegates)
	g.POST("/delegates", a.CreateDelegate)

	// ---- Side events ----
	g.GET("/events", ev.AdminList)
	g.POST("/events", ev.AdminCreate)
	g.GET("/events/:id", ev.AdminGet)
	g.PUT("/events/:id", ev.AdminUpdate)
	g.PATCH("/events/:id", ev.AdminUpdate)
	g.PUT("/events/:id/report", ev.AdminUpsertReport)
	g.POST("/events/:id/invoice", ev.AdminCreateInvoice)
	g.PATCH("/invoices/:id/status", a.SetInvoiceStatus)

	// ---- Announcements ----
	g.GET("/announcements", a.ListAnnouncements)
	g.POST("/announcements", a.CreateAnnouncement)
}
