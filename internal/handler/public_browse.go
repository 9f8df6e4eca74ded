// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes allow
// unauthenticated users to browse the business directory, its reviews and
// live wait estimates. Sensitive fields (owner IDs, exact counters the
// public has no business seeing) are filtered from responses.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skiplinehq/skipline/internal/model"
	"github.com/skiplinehq/skipline/internal/repository"
)

// PublicHandler aggregates repositories needed for unauthenticated
// browsing. It produces sanitized responses suitable for public
// consumption.
type PublicHandler struct {
	BusinessRepo *repository.BusinessRepo
	ReviewRepo   *repository.ReviewRepo
	QueueRepo    *repository.QueueRepo
}

// PublicBusiness represents a business exposed via the public API.
type PublicBusiness struct {
	ID                    uint64  `json:"id"`
	Name                  string  `json:"name"`
	Description           *string `json:"description,omitempty"`
	Address               string  `json:"address"`
	Latitude              float64 `json:"latitude"`
	Longitude             float64 `json:"longitude"`
	Phone                 *string `json:"phone,omitempty"`
	Category              string  `json:"category"`
	AverageServiceMinutes uint32  `json:"average_service_minutes"`
	CurrentQueueCount     uint32  `json:"current_queue_count"`
	MaxQueueCapacity      uint32  `json:"max_queue_capacity"`
	IsVerified            bool    `json:"is_verified"`
	OperatingHours        *string `json:"operating_hours,omitempty"`
	AverageRating         float64 `json:"average_rating"`
	TotalReviews          uint32  `json:"total_reviews"`
}

func publicBusiness(b *model.Business) PublicBusiness {
	return PublicBusiness{
		ID:                    b.ID,
		Name:                  b.Name,
		Description:           b.Description,
		Address:               b.Address,
		Latitude:              b.Latitude,
		Longitude:             b.Longitude,
		Phone:                 b.Phone,
		Category:              b.Category,
		AverageServiceMinutes: b.AverageServiceMinutes,
		CurrentQueueCount:     b.CurrentQueueCount,
		MaxQueueCapacity:      b.MaxQueueCapacity,
		IsVerified:            b.IsVerified,
		OperatingHours:        b.OperatingHours,
		AverageRating:         b.AverageRating,
		TotalReviews:          b.TotalReviews,
	}
}

// publicReview is one review in public listings.
type publicReview struct {
	ID           uint64    `json:"id"`
	Rating       uint8     `json:"rating"`
	Comment      *string   `json:"comment,omitempty"`
	ReviewerName string    `json:"reviewer_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListBusinesses returns the active business directory with optional
// category and free-text search filters, paginated.
func (h *PublicHandler) ListBusinesses(c echo.Context) error {
	page, pageSize := pageParams(c)
	q := repository.BusinessSearchQuery{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		Page:     page,
		PageSize: pageSize,
	}
	items, total, err := h.BusinessRepo.SearchActive(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicBusiness, 0, len(items))
	for _, b := range items {
		out = append(out, publicBusiness(b))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": out,
		"total": total,
		"page":  page,
	})
}

// GetBusiness returns a single business with its most recent reviews.
func (h *PublicHandler) GetBusiness(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	b, err := h.BusinessRepo.GetByID(ctx, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	reviews, _, err := h.ReviewRepo.ListForBusiness(ctx, id, 5, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	recent := make([]publicReview, 0, len(reviews))
	for _, rv := range reviews {
		recent = append(recent, publicReview{
			ID: rv.ID, Rating: rv.Rating, Comment: rv.Comment,
			ReviewerName: rv.ReviewerName, CreatedAt: rv.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"business":       publicBusiness(b),
		"recent_reviews": recent,
	})
}

// Categories lists the categories in use with business counts.
func (h *PublicHandler) Categories(c echo.Context) error {
	counts, err := h.BusinessRepo.Categories(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type categoryPart struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	out := make([]categoryPart, 0, len(counts))
	for _, name := range model.BusinessCategories {
		if n, ok := counts[name]; ok {
			out = append(out, categoryPart{Name: name, Count: n})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Nearby returns active businesses around a point. lat and lng are
// required; radius_km defaults to 5 and is capped at 50.
func (h *PublicHandler) Nearby(c echo.Context) error {
	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid lat/lng required"})
	}
	radius := 5.0
	if s := c.QueryParam("radius_km"); s != "" {
		if r, err := strconv.ParseFloat(s, 64); err == nil && r > 0 {
			radius = r
		}
	}
	if radius > 50 {
		radius = 50
	}
	items, err := h.BusinessRepo.Nearby(c.Request().Context(), lat, lng, radius, 50)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type nearbyPart struct {
		PublicBusiness
		DistanceKm float64 `json:"distance_km"`
	}
	out := make([]nearbyPart, 0, len(items))
	for i := range items {
		out = append(out, nearbyPart{
			PublicBusiness: publicBusiness(&items[i].Business),
			DistanceKm:     items[i].DistanceKm,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// BusinessReviews lists a business's reviews, paginated.
func (h *PublicHandler) BusinessReviews(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	page, pageSize := pageParams(c)
	items, total, err := h.ReviewRepo.ListForBusiness(c.Request().Context(), id, pageSize, (page-1)*pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]publicReview, 0, len(items))
	for _, rv := range items {
		out = append(out, publicReview{
			ID: rv.ID, Rating: rv.Rating, Comment: rv.Comment,
			ReviewerName: rv.ReviewerName, CreatedAt: rv.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": out,
		"total": total,
		"page":  page,
	})
}

// WaitEstimate reports what a customer would get if they joined the
// queue right now.
func (h *PublicHandler) WaitEstimate(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	est, err := h.QueueRepo.Estimate(c.Request().Context(), id)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"next_position":          est.NextPosition,
		"estimated_wait_minutes": est.EstimatedWaitMinutes,
	})
}
