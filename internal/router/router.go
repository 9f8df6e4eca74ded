package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/skiplinehq/skipline/internal/config"
	"github.com/skiplinehq/skipline/internal/handler"    // import the handlers that implement business logic
	"github.com/skiplinehq/skipline/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected account endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Group for operations that do not require an existing session
	// (register, login, refresh).  Each of these handlers is responsible
	// for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access only mints a new
	// access token and leaves the refresh token untouched.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication.  The handler accepts a
	// JSON body containing a `refresh_token` (single session) or a bearer
	// access token (all sessions) and invalidates accordingly.
	g.POST("/logout", a.Logout)

	// Group for account routes that require a valid access token.  Both
	// roles are accepted here; the middleware rejects requests with
	// missing or unknown roles.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("OWNER", "CUSTOMER"))
	auth.GET("/me", a.Me)
	auth.PUT("/me", a.UpdateProfile)
	auth.PATCH("/me", a.UpdateProfile) // allow partial updates via PATCH as well
	auth.POST("/me/password", a.ChangePassword)
}

// RegisterPublic registers unauthenticated browse endpoints on the provided
// Echo instance.  The PublicHandler returns sanitized data for businesses,
// their reviews and the current wait estimate.  These routes do not apply
// any JWT or role middleware and are intended for guest users.
//
// Rate limiting and response caching are attached here when enabled: browse
// traffic is the anonymous, repetitive part of the API, so it benefits most
// from both.  rdb may be nil, in which case both middlewares pass through.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	// Browse the business directory with optional ?search= and ?category=.
	g.GET("/businesses", p.ListBusinesses)
	// Business detail including a handful of recent reviews.
	g.GET("/businesses/:id", p.GetBusiness)
	// Category counts for directory filters.
	g.GET("/businesses/categories", p.Categories)
	// Proximity search via ?lat=&lng=&radius_km=.
	g.GET("/businesses/nearby", p.Nearby)
	// Paginated reviews for one business.
	g.GET("/businesses/:id/reviews", p.BusinessReviews)
	// Wait estimate for the next person who would join the queue.  Guests can
	// check this before registering.
	g.GET("/businesses/:id/wait-estimate", p.WaitEstimate)
}
