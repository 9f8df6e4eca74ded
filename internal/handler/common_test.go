package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiplinehq/skipline/internal/repository"
)

func newTestContext(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestWriteRepoErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{repository.ErrNotFound, http.StatusNotFound},
		{repository.ErrForbidden, http.StatusForbidden},
		{repository.ErrAlreadyQueued, http.StatusConflict},
		{repository.ErrConflict, http.StatusConflict},
		{repository.ErrQueueFull, http.StatusBadRequest},
		{repository.ErrBusinessInactive, http.StatusBadRequest},
		{repository.ErrInvalidState, http.StatusBadRequest},
		{repository.ErrTransient, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range cases {
		c, rec := newTestContext(t, "/")
		require.NoError(t, writeRepoError(c, tt.err))
		assert.Equal(t, tt.status, rec.Code, "error %v", tt.err)
	}
}

func TestWriteRepoErrorUnwrapsJoinedErrors(t *testing.T) {
	c, rec := newTestContext(t, "/")
	wrapped := errors.Join(repository.ErrTransient, errors.New("deadlock detected"))
	require.NoError(t, writeRepoError(c, wrapped))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"retryable":true`)
}

func TestGetUserID(t *testing.T) {
	cases := []struct {
		value any
		want  uint64
		ok    bool
	}{
		{uint64(7), 7, true},
		{int(7), 7, true},
		{int64(7), 7, true},
		{float64(7), 7, true}, // JWT claims decode numbers as float64
		{"7", 7, true},
		{"abc", 0, false},
		{nil, 0, false},
	}

	for _, tt := range cases {
		c, _ := newTestContext(t, "/")
		c.Set("user_id", tt.value)
		got, err := getUserID(c)
		if tt.ok {
			require.NoError(t, err, "value %v", tt.value)
			assert.Equal(t, tt.want, got)
		} else {
			assert.Error(t, err, "value %v", tt.value)
		}
	}
}

func TestPageParams(t *testing.T) {
	cases := []struct {
		query    string
		page     int
		pageSize int
	}{
		{"", 1, 20},
		{"?page=3&page_size=50", 3, 50},
		{"?page=0&page_size=0", 1, 20},
		{"?page=-1&page_size=500", 1, 100},
		{"?page=abc&page_size=abc", 1, 20},
	}

	for _, tt := range cases {
		c, _ := newTestContext(t, "/"+tt.query)
		page, pageSize := pageParams(c)
		assert.Equal(t, tt.page, page, "query %q", tt.query)
		assert.Equal(t, tt.pageSize, pageSize, "query %q", tt.query)
	}
}
