package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skiplinehq/skipline/internal/repository"
)

// SubscriptionHandler serves the skip-the-line entitlement
// endpoints: plan catalogue, purchase, redemption and history.
type SubscriptionHandler struct {
	SubscriptionRepo *repository.SubscriptionRepo
	BusinessRepo     *repository.BusinessRepo
}

func NewSubscriptionHandler(s *repository.SubscriptionRepo, b *repository.BusinessRepo) *SubscriptionHandler {
	return &SubscriptionHandler{SubscriptionRepo: s, BusinessRepo: b}
}

// Plans returns the purchasable catalogue.
func (h *SubscriptionHandler) Plans(c echo.Context) error {
	type planPart struct {
		Type         string `json:"type"`
		Name         string `json:"name"`
		PriceCents   uint32 `json:"price_cents"`
		DurationDays int    `json:"duration_days"`
		Unlimited    bool   `json:"unlimited"`
	}
	out := make([]planPart, 0, len(repository.Plans))
	for _, p := range repository.Plans {
		out = append(out, planPart{
			Type: p.Type, Name: p.Name, PriceCents: p.PriceCents,
			DurationDays: p.DurationDays, Unlimited: p.Unlimited,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

type purchaseReq struct {
	PlanType string `json:"plan_type"`
}

// Purchase buys a plan for the caller. Payment is recorded, not
// charged; no gateway is integrated.
func (h *SubscriptionHandler) Purchase(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req purchaseReq
	if err := c.Bind(&req); err != nil || req.PlanType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plan_type required"})
	}
	if _, ok := repository.PlanByType(req.PlanType); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown plan_type"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	sub, err := h.SubscriptionRepo.Purchase(ctx, uid, req.PlanType)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"subscription": sub})
}

// Mine lists the caller's live subscriptions and passes.
func (h *SubscriptionHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	subs, passes, err := h.SubscriptionRepo.ListForUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"subscriptions":    subs,
		"passes":           passes,
		"has_subscription": len(subs) > 0,
		"has_passes":       len(passes) > 0,
	})
}

type useSkipReq struct {
	BusinessID   uint64  `json:"business_id"`
	QueueEntryID *uint64 `json:"queue_entry_id"`
}

// UseSkip redeems one skip at a business, consuming a pass or
// drawing on an unlimited subscription.
func (h *SubscriptionHandler) UseSkip(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req useSkipReq
	if err := c.Bind(&req); err != nil || req.BusinessID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "business_id required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if _, err := h.BusinessRepo.GetByID(ctx, req.BusinessID); err != nil {
		return writeRepoError(c, err)
	}
	usage, err := h.SubscriptionRepo.UseSkip(ctx, uid, req.BusinessID, req.QueueEntryID)
	if err != nil {
		if err == repository.ErrInvalidState {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no available skip passes or subscription"})
		}
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"usage": usage})
}

// Usage lists the caller's past skip redemptions.
func (h *SubscriptionHandler) Usage(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.SubscriptionRepo.UsageHistory(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Cancel ends the caller's own active subscription.
func (h *SubscriptionHandler) Cancel(c echo.Context) error {
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
	if err := h.SubscriptionRepo.Cancel(ctx, id, uid); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
