package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skiplinehq/skipline/internal/model"
	"github.com/skiplinehq/skipline/internal/repository"
)

// ReviewHandler serves authenticated review endpoints. Public
// listing of a business's reviews lives with the browse handlers.
type ReviewHandler struct {
	ReviewRepo *repository.ReviewRepo
}

func NewReviewHandler(r *repository.ReviewRepo) *ReviewHandler {
	return &ReviewHandler{ReviewRepo: r}
}

type createReviewReq struct {
	BusinessID   uint64  `json:"business_id"`
	QueueEntryID *uint64 `json:"queue_entry_id"`
	Rating       uint8   `json:"rating"`
	Comment      *string `json:"comment"`
}

type updateReviewReq struct {
	Rating  *uint8  `json:"rating"`
	Comment *string `json:"comment"`
}

// Create stores a review; one per user per business, rating 1 to 5.
func (h *ReviewHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReviewReq
	if err := c.Bind(&req); err != nil || req.BusinessID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "business_id required"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	rv := &model.Review{
		BusinessID:   req.BusinessID,
		UserID:       uid,
		QueueEntryID: req.QueueEntryID,
		Rating:       req.Rating,
		Comment:      req.Comment,
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.ReviewRepo.Create(ctx, rv); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"review": rv})
}

// Update changes the caller's own review.
func (h *ReviewHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Rating == nil && req.Comment == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	rv, err := h.ReviewRepo.Update(ctx, id, uid, req.Rating, req.Comment)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"review": rv})
}

// Delete removes the caller's own review.
func (h *ReviewHandler) Delete(c echo.Context) error {
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
	if err := h.ReviewRepo.Delete(ctx, id, uid); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Get fetches a single review by id.
func (h *ReviewHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	rv, err := h.ReviewRepo.GetByID(ctx, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"review": rv})
}

// Mine lists the caller's reviews, newest first.
func (h *ReviewHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.ReviewRepo.ListForUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
