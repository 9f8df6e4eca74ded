package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiplinehq/skipline/internal/config"
)

func testRateContext(t *testing.T, userID any) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/businesses", nil)
	req.Header.Set("X-Real-Ip", "203.0.113.9")
	c := echo.New().NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/businesses")
	if userID != nil {
		c.Set("user_id", userID)
	}
	return c
}

func TestRateKeyStrategies(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl"}

	cases := []struct {
		strategy string
		userID   any
		want     string
	}{
		{"ip", nil, "rl:ip:203.0.113.9"},
		{"user", uint64(7), "rl:user:7"},
		{"user", nil, "rl:user:anon"},
		{"ip_route", nil, "rl:ip:203.0.113.9:route:GET /v1/businesses"},
		{"user_route", uint64(7), "rl:user:7:route:GET /v1/businesses"},
		{"", uint64(7), "rl:ip:203.0.113.9:user:7:route:GET /v1/businesses"},
	}

	for _, tt := range cases {
		cfg.KeyStrategy = tt.strategy
		got := rateKey(cfg, testRateContext(t, tt.userID))
		assert.Equal(t, tt.want, got, "strategy %q", tt.strategy)
	}
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: false}
	mw := NewTokenBucket(cfg, nil)

	c := testRateContext(t, nil)
	called := false
	err := mw(func(echo.Context) error {
		called = true
		return nil
	})(c)
	require.NoError(t, err)
	assert.True(t, called)
	// No Redis, no headers.
	assert.Empty(t, c.Response().Header().Get("X-RateLimit-Limit"))
}

func TestTokenBucketNilClientPassesThrough(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 5}
	mw := NewTokenBucket(cfg, nil)

	c := testRateContext(t, nil)
	called := false
	err := mw(func(echo.Context) error {
		called = true
		return nil
	})(c)
	require.NoError(t, err)
	assert.True(t, called)
}
