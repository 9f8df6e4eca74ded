package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/skiplinehq/skipline/internal/repository"
)

// getUserID extracts the user_id from echo.Context and converts it
// to uint64. JWT numeric claims decode as float64, so several types
// are accepted.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// pageParams reads page/page_size query parameters with defaults and
// an upper bound on the page size.
func pageParams(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// writeRepoError maps repository sentinel errors onto HTTP
// responses. Anything unrecognized is a 500.
func writeRepoError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrAlreadyQueued):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already in queue"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, repository.ErrQueueFull):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "queue is full"})
	case errors.Is(err, repository.ErrBusinessInactive):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "business is not accepting customers"})
	case errors.Is(err, repository.ErrInvalidState):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid state for operation"})
	case errors.Is(err, repository.ErrTransient):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable", "retryable": true})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
