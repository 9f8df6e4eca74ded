package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skiplinehq/skipline/internal/model"
	qev "github.com/skiplinehq/skipline/internal/queue"
	"github.com/skiplinehq/skipline/internal/repository"
	queue_publisher "github.com/skiplinehq/skipline/internal/service"
)

// CustomerQueueHandler serves the customer side of the queue: join,
// leave, check where you are.
type CustomerQueueHandler struct {
	QueueRepo    *repository.QueueRepo
	BusinessRepo *repository.BusinessRepo
}

func NewCustomerQueueHandler(q *repository.QueueRepo, b *repository.BusinessRepo) *CustomerQueueHandler {
	return &CustomerQueueHandler{QueueRepo: q, BusinessRepo: b}
}

type joinReq struct {
	BusinessID uint64  `json:"business_id"`
	Notes      *string `json:"notes"`
}
type notesReq struct {
	Notes *string `json:"notes"`
}

// entryPart is the JSON shape of a queue entry in responses.
type entryPart struct {
	ID                   uint64     `json:"id"`
	BusinessID           uint64     `json:"business_id"`
	UserID               uint64     `json:"user_id"`
	Position             uint32     `json:"position"`
	EstimatedWaitMinutes uint32     `json:"estimated_wait_minutes"`
	Status               string     `json:"status"`
	Notes                *string    `json:"notes,omitempty"`
	JoinedAt             time.Time  `json:"joined_at"`
	NotifiedAt           *time.Time `json:"notified_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
}

func entryJSON(e model.QueueEntry) entryPart {
	return entryPart{
		ID:                   e.ID,
		BusinessID:           e.BusinessID,
		UserID:               e.UserID,
		Position:             e.Position,
		EstimatedWaitMinutes: e.EstimatedWaitMinutes,
		Status:               e.Status,
		Notes:                e.Notes,
		JoinedAt:             e.JoinedAt,
		NotifiedAt:           e.NotifiedAt,
		CompletedAt:          e.CompletedAt,
		CancelledAt:          e.CancelledAt,
	}
}

// Join takes a place in a business queue. On success a queue.joined
// event is published for downstream consumers; publish failures
// never fail the request.
func (h *CustomerQueueHandler) Join(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req joinReq
	if err := c.Bind(&req); err != nil || req.BusinessID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "business_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entry, err := h.QueueRepo.Join(ctx, req.BusinessID, uid, req.Notes)
	if err != nil {
		return writeRepoError(c, err)
	}

	businessName := ""
	if b, err := h.BusinessRepo.GetByID(ctx, req.BusinessID); err == nil {
		businessName = b.Name
	}
	go func(e model.QueueEntry, name string) {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishQueueJoined(pubCtx, qev.QueueJoinedEvent{
			EntryID:              e.ID,
			BusinessID:           e.BusinessID,
			BusinessName:         name,
			UserID:               e.UserID,
			Position:             e.Position,
			EstimatedWaitMinutes: e.EstimatedWaitMinutes,
			JoinedAt:             e.JoinedAt.UTC().Format(time.RFC3339),
		})
	}(entry, businessName)

	return c.JSON(http.StatusCreated, echo.Map{"entry": entryJSON(entry)})
}

// Leave cancels the caller's own waiting entry.
func (h *CustomerQueueHandler) Leave(c echo.Context) error {
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
	entry, err := h.QueueRepo.Leave(ctx, id, uid)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"entry": entryJSON(entry)})
}

// MyQueues lists the caller's queue history with an optional status
// filter, paginated.
func (h *CustomerQueueHandler) MyQueues(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status := strings.TrimSpace(c.QueryParam("status"))
	switch status {
	case "", model.QueueStatusWaiting, model.QueueStatusNotified, model.QueueStatusCompleted,
		model.QueueStatusCancelled, model.QueueStatusNoShow:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	page, pageSize := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	entries, total, err := h.QueueRepo.ListForUser(ctx, uid, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]entryPart, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryJSON(e))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": out,
		"total": total,
		"page":  page,
	})
}

// Current returns the caller's active entry, if any.
func (h *CustomerQueueHandler) Current(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	entry, err := h.QueueRepo.CurrentForUser(ctx, uid)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"entry": entryJSON(entry)})
}

// GetEntry fetches one of the caller's own entries by id.
func (h *CustomerQueueHandler) GetEntry(c echo.Context) error {
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
	entry, err := h.QueueRepo.GetByID(ctx, id, uid)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"entry": entryJSON(entry)})
}

// UpdateNotes sets or clears the note on the caller's own entry.
func (h *CustomerQueueHandler) UpdateNotes(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req notesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	entry, err := h.QueueRepo.UpdateNotes(ctx, id, uid, req.Notes)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"entry": entryJSON(entry)})
}
