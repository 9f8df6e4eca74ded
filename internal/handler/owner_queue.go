package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skiplinehq/skipline/internal/model"
	qev "github.com/skiplinehq/skipline/internal/queue"
	"github.com/skiplinehq/skipline/internal/repository"
	queue_publisher "github.com/skiplinehq/skipline/internal/service"
)

// OwnerQueueHandler is the business side of the queue: see who is
// waiting and move entries through the lifecycle.
type OwnerQueueHandler struct {
	QueueRepo    *repository.QueueRepo
	BusinessRepo *repository.BusinessRepo
	UserRepo     *repository.UserRepo
}

func NewOwnerQueueHandler(q *repository.QueueRepo, b *repository.BusinessRepo, u *repository.UserRepo) *OwnerQueueHandler {
	if q == nil || b == nil || u == nil {
		panic("nil repository passed to NewOwnerQueueHandler")
	}
	return &OwnerQueueHandler{QueueRepo: q, BusinessRepo: b, UserRepo: u}
}

// ListActive returns the live queue of one of the caller's
// businesses in position order.
func (h *OwnerQueueHandler) ListActive(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	businessID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	entries, err := h.QueueRepo.ListActiveForBusiness(ctx, businessID, uid)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]entryPart, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryJSON(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Notify calls a waiting customer to the front and publishes a
// queue.notified event for the notification consumer.
func (h *OwnerQueueHandler) Notify(c echo.Context) error {
	return h.advance(c, model.QueueStatusNotified)
}

// Complete marks a notified customer as served, freeing their slot.
func (h *OwnerQueueHandler) Complete(c echo.Context) error {
	return h.advance(c, model.QueueStatusCompleted)
}

// NoShow marks a customer who never turned up, freeing their slot.
func (h *OwnerQueueHandler) NoShow(c echo.Context) error {
	return h.advance(c, model.QueueStatusNoShow)
}

func (h *OwnerQueueHandler) advance(c echo.Context, toStatus string) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entryID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	entry, err := h.QueueRepo.Advance(ctx, entryID, uid, toStatus)
	if err != nil {
		return writeRepoError(c, err)
	}
	if toStatus == model.QueueStatusNotified {
		h.publishNotified(ctx, entry)
	}
	return c.JSON(http.StatusOK, echo.Map{"entry": entryJSON(entry)})
}

// publishNotified fires the queue.notified event in the background.
// Best effort only; the state change already committed.
func (h *OwnerQueueHandler) publishNotified(ctx context.Context, entry model.QueueEntry) {
	businessName := ""
	if b, err := h.BusinessRepo.GetByID(ctx, entry.BusinessID); err == nil {
		businessName = b.Name
	}
	email := ""
	if u, err := h.UserRepo.GetByID(ctx, entry.UserID); err == nil {
		email = u.Email
	}
	notifiedAt := time.Now().UTC()
	if entry.NotifiedAt != nil {
		notifiedAt = entry.NotifiedAt.UTC()
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishQueueNotified(pubCtx, qev.QueueNotifiedEvent{
			EntryID:      entry.ID,
			BusinessID:   entry.BusinessID,
			BusinessName: businessName,
			UserID:       entry.UserID,
			UserEmail:    email,
			NotifiedAt:   notifiedAt.Format(time.RFC3339),
		})
	}()
}
