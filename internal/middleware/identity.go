package middleware

// identity.go holds helpers shared by the middleware in this
// package for identifying the requester when building cache and
// rate-limit keys.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated user id as a string, or
// "anon" for unauthenticated requests. JWTAuth stores the raw claim
// under "user_id"; numeric claims decode as float64, so anything
// non-nil is formatted rather than type-asserted.
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	s := fmt.Sprint(v)
	if s == "" {
		return "anon"
	}
	return s
}
