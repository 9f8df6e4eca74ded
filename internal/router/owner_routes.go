package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/skiplinehq/skipline/internal/handler"    // owner handlers
	"github.com/skiplinehq/skipline/internal/middleware" // JWT + role middlewares
)

// RegisterOwner registers OWNER-scoped endpoints under /v1.
// All routes require a valid JWT and OWNER role.
func RegisterOwner(e *echo.Echo, b *handler.OwnerBusinessHandler, q *handler.OwnerQueueHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER"),
	)

	// ---- Businesses ----
	g.POST("/businesses", b.Create)
	g.GET("/businesses", b.List)
	g.GET("/businesses/:id", b.Get)
	g.PUT("/businesses/:id", b.Update)
	g.PATCH("/businesses/:id", b.Update) // allow partial/semantic updates via PATCH as well
	g.PUT("/businesses/:id/active", b.SetActive)
	g.GET("/businesses/:id/stats", b.Stats)

	// ---- Queue management ----
	// Listing the active queue and advancing entries requires ownership of
	// the business; the handlers verify that before touching the ledger.
	g.GET("/businesses/:id/queue", q.ListActive)
	g.POST("/queue/:id/notify", q.Notify)
	g.POST("/queue/:id/complete", q.Complete)
	g.POST("/queue/:id/no-show", q.NoShow)
}
