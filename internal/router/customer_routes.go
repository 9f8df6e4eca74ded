package router

import (
	"github.com/labstack/echo/v4"

	"github.com/skiplinehq/skipline/internal/handler"
	"github.com/skiplinehq/skipline/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All routes
// require a valid JWT and the CUSTOMER role.  Customers can join and leave
// queues, inspect their own entries, leave reviews and manage skip-the-line
// subscriptions.
func RegisterCustomer(e *echo.Echo, q *handler.CustomerQueueHandler, r *handler.ReviewHandler, s *handler.SubscriptionHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)

	// ---- Queue ----
	// Note: GET /v1/businesses/:id/wait-estimate is registered on the public
	// router so that guests can check the estimate.  Customer-specific
	// endpoints begin here.
	g.POST("/queue/join", q.Join)
	g.DELETE("/queue/:id", q.Leave)
	g.GET("/queue/my", q.MyQueues)
	g.GET("/queue/current", q.Current)
	g.GET("/queue/:id", q.GetEntry)
	g.PUT("/queue/:id/notes", q.UpdateNotes)
	g.PATCH("/queue/:id/notes", q.UpdateNotes)

	// ---- Reviews ----
	// Listing a business's reviews is public; creating and editing them is
	// tied to the authenticated customer.
	g.POST("/reviews", r.Create)
	g.PUT("/reviews/:id", r.Update)
	g.PATCH("/reviews/:id", r.Update)
	g.DELETE("/reviews/:id", r.Delete)
	g.GET("/reviews/:id", r.Get)
	g.GET("/my-reviews", r.Mine)

	// ---- Subscriptions & skip passes ----
	g.GET("/subscriptions/plans", s.Plans)
	g.POST("/subscriptions", s.Purchase)
	g.GET("/subscriptions/mine", s.Mine)
	g.POST("/subscriptions/use-skip", s.UseSkip)
	g.GET("/subscriptions/usage", s.Usage)
	g.DELETE("/subscriptions/:id", s.Cancel)
}
