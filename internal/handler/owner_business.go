package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skiplinehq/skipline/internal/model"
	"github.com/skiplinehq/skipline/internal/repository"
)

// OwnerBusinessHandler lets OWNER accounts manage their listings.
type OwnerBusinessHandler struct {
	BusinessRepo *repository.BusinessRepo
	QueueRepo    *repository.QueueRepo
}

func NewOwnerBusinessHandler(b *repository.BusinessRepo, q *repository.QueueRepo) *OwnerBusinessHandler {
	if b == nil || q == nil {
		panic("nil repository passed to NewOwnerBusinessHandler")
	}
	return &OwnerBusinessHandler{BusinessRepo: b, QueueRepo: q}
}

type createBusinessReq struct {
	Name                  string  `json:"name"`
	Description           *string `json:"description"`
	Address               string  `json:"address"`
	Latitude              float64 `json:"latitude"`
	Longitude             float64 `json:"longitude"`
	Phone                 *string `json:"phone"`
	Category              string  `json:"category"`
	AverageServiceMinutes uint32  `json:"average_service_minutes"`
	MaxQueueCapacity      uint32  `json:"max_queue_capacity"`
	OperatingHours        *string `json:"operating_hours"`
}

type updateBusinessReq struct {
	Name                  *string  `json:"name"`
	Description           *string  `json:"description"`
	Address               *string  `json:"address"`
	Latitude              *float64 `json:"latitude"`
	Longitude             *float64 `json:"longitude"`
	Phone                 *string  `json:"phone"`
	Category              *string  `json:"category"`
	AverageServiceMinutes *uint32  `json:"average_service_minutes"`
	MaxQueueCapacity      *uint32  `json:"max_queue_capacity"`
	OperatingHours        *string  `json:"operating_hours"`
}

func validCategory(cat string) bool {
	for _, c := range model.BusinessCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// Create registers a new business owned by the caller. New listings
// start active.
func (h *OwnerBusinessHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBusinessReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	switch {
	case req.Name == "" || req.Address == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and address required"})
	case !validCategory(req.Category):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
	case req.AverageServiceMinutes == 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "average_service_minutes must be positive"})
	case req.MaxQueueCapacity == 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_queue_capacity must be positive"})
	case req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coordinates"})
	}

	b := &model.Business{
		OwnerID:               uid,
		Name:                  req.Name,
		Description:           req.Description,
		Address:               req.Address,
		Latitude:              req.Latitude,
		Longitude:             req.Longitude,
		Phone:                 req.Phone,
		Category:              req.Category,
		AverageServiceMinutes: req.AverageServiceMinutes,
		MaxQueueCapacity:      req.MaxQueueCapacity,
		IsActive:              true,
		OperatingHours:        req.OperatingHours,
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.BusinessRepo.Create(ctx, b); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"business": b})
}

// List returns every business the caller owns, counters included.
func (h *OwnerBusinessHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.BusinessRepo.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get returns one of the caller's businesses.
func (h *OwnerBusinessHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	b, err := h.BusinessRepo.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"business": b})
}

// Update applies a partial update to one of the caller's businesses.
func (h *OwnerBusinessHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateBusinessReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Category != nil {
		cat := strings.ToLower(strings.TrimSpace(*req.Category))
		if !validCategory(cat) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
		}
		req.Category = &cat
	}
	if req.AverageServiceMinutes != nil && *req.AverageServiceMinutes == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "average_service_minutes must be positive"})
	}
	if req.MaxQueueCapacity != nil && *req.MaxQueueCapacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_queue_capacity must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	b, err := h.BusinessRepo.Update(ctx, id, uid, repository.BusinessUpdate{
		Name:                  req.Name,
		Description:           req.Description,
		Address:               req.Address,
		Latitude:              req.Latitude,
		Longitude:             req.Longitude,
		Phone:                 req.Phone,
		Category:              req.Category,
		AverageServiceMinutes: req.AverageServiceMinutes,
		MaxQueueCapacity:      req.MaxQueueCapacity,
		OperatingHours:        req.OperatingHours,
	})
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"business": b})
}

// SetActive opens or closes the business for new joins based on the
// "active" body field.
func (h *OwnerBusinessHandler) SetActive(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "active required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.BusinessRepo.SetActive(ctx, id, uid, *req.Active); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats summarises outcomes and the live queue for one of the
// caller's businesses.
func (h *OwnerBusinessHandler) Stats(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if _, err := h.BusinessRepo.GetByIDAndOwner(ctx, id, uid); err != nil {
		return writeRepoError(c, err)
	}
	stats, err := h.QueueRepo.Stats(ctx, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"current_length":  stats.CurrentLength,
		"total_completed": stats.TotalCompleted,
		"total_cancelled": stats.TotalCancelled,
		"total_no_show":   stats.TotalNoShow,
	})
}
