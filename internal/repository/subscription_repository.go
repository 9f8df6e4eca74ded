package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/skiplinehq/skipline/internal/model"
)

// Plan describes one purchasable subscription plan. The catalogue is
// fixed in code; prices are in cents.
type Plan struct {
	Type         string
	Name         string
	PriceCents   uint32
	DurationDays int
	Unlimited    bool
}

// Plans is the purchasable catalogue in display order.
var Plans = []Plan{
	{Type: model.PlanOneTimeSkip, Name: "One-time skip", PriceCents: 1500, DurationDays: 30, Unlimited: false},
	{Type: model.PlanMonthlyUnlimited, Name: "Monthly unlimited", PriceCents: 2999, DurationDays: 30, Unlimited: true},
	{Type: model.PlanYearlyPremium, Name: "Yearly premium", PriceCents: 29999, DurationDays: 365, Unlimited: true},
}

// PlanByType looks a plan up by its type key.
func PlanByType(planType string) (Plan, bool) {
	for _, p := range Plans {
		if p.Type == planType {
			return p, true
		}
	}
	return Plan{}, false
}

// SubscriptionRepo encapsulates subscription, payment and skip pass
// persistence. Purchases and redemptions each run in one
// transaction so a subscription can never exist without its payment
// row, nor a redemption without its usage record.
type SubscriptionRepo struct{ DB *sql.DB }

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{DB: db} }

// Purchase creates a subscription for the given plan, records the
// payment, and for the one_time_skip plan mints the single pass the
// purchase grants.
func (r *SubscriptionRepo) Purchase(ctx context.Context, userID uint64, planType string) (model.Subscription, error) {
	var sub model.Subscription
	plan, ok := PlanByType(planType)
	if !ok {
		return sub, ErrNotFound
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return sub, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_id, plan_type, status, price_cents, starts_at, expires_at)
		 VALUES ($1, $2, 'active', $3, now(), now() + make_interval(days => $4))
		 RETURNING id, user_id, plan_type, status, price_cents, starts_at, expires_at, cancelled_at, created_at`,
		userID, plan.Type, plan.PriceCents, plan.DurationDays).
		Scan(&sub.ID, &sub.UserID, &sub.PlanType, &sub.Status, &sub.PriceCents,
			&sub.StartsAt, &sub.ExpiresAt, &sub.CancelledAt, &sub.CreatedAt)
	if err != nil {
		return sub, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO payments (user_id, subscription_id, amount_cents, status)
		 VALUES ($1, $2, $3, 'completed')`,
		userID, sub.ID, plan.PriceCents); err != nil {
		return sub, err
	}
	if !plan.Unlimited {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO skip_passes (user_id, subscription_id, status, expires_at)
			 VALUES ($1, $2, 'available', $3)`,
			userID, sub.ID, sub.ExpiresAt); err != nil {
			return sub, err
		}
	}
	if err = tx.Commit(); err != nil {
		return sub, err
	}
	committed = true
	return sub, nil
}

// ListForUser returns the user's live entitlements: active unexpired
// subscriptions and available unexpired passes.
func (r *SubscriptionRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Subscription, []model.SkipPass, error) {
	subRows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, plan_type, status, price_cents, starts_at, expires_at, cancelled_at, created_at
		   FROM subscriptions
		  WHERE user_id = $1 AND status = 'active' AND expires_at > now()
		  ORDER BY expires_at DESC`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer subRows.Close()
	var subs []model.Subscription
	for subRows.Next() {
		var s model.Subscription
		if err := subRows.Scan(&s.ID, &s.UserID, &s.PlanType, &s.Status, &s.PriceCents,
			&s.StartsAt, &s.ExpiresAt, &s.CancelledAt, &s.CreatedAt); err != nil {
			return nil, nil, err
		}
		subs = append(subs, s)
	}
	if err := subRows.Err(); err != nil {
		return nil, nil, err
	}

	passRows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, subscription_id, status, used_at, expires_at, created_at
		   FROM skip_passes
		  WHERE user_id = $1 AND status = 'available' AND expires_at > now()
		  ORDER BY expires_at ASC`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer passRows.Close()
	var passes []model.SkipPass
	for passRows.Next() {
		var p model.SkipPass
		if err := passRows.Scan(&p.ID, &p.UserID, &p.SubscriptionID, &p.Status,
			&p.UsedAt, &p.ExpiresAt, &p.CreatedAt); err != nil {
			return nil, nil, err
		}
		passes = append(passes, p)
	}
	return subs, passes, passRows.Err()
}

// UseSkip redeems one skip at a business. A single-use pass is
// consumed first when one is available (soonest to expire first);
// otherwise an unlimited subscription covers the redemption. Either
// way a usage row records it. ErrInvalidState when the user has
// nothing to redeem.
func (r *SubscriptionRepo) UseSkip(ctx context.Context, userID, businessID uint64, queueEntryID *uint64) (model.PassUsage, error) {
	var usage model.PassUsage
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return usage, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the pass row so two concurrent redemptions cannot consume
	// the same pass.
	var passID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM skip_passes
		  WHERE user_id = $1 AND status = 'available' AND expires_at > now()
		  ORDER BY expires_at ASC LIMIT 1 FOR UPDATE`, userID).Scan(&passID)
	switch {
	case err == nil:
		if _, err = tx.ExecContext(ctx,
			`UPDATE skip_passes SET status = 'used', used_at = now() WHERE id = $1`, passID); err != nil {
			return usage, err
		}
		usage.PassID = &passID
	case errors.Is(err, sql.ErrNoRows):
		var subID uint64
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM subscriptions
			  WHERE user_id = $1 AND status = 'active' AND expires_at > now()
			    AND plan_type IN ('monthly_unlimited','yearly_premium')
			  ORDER BY expires_at DESC LIMIT 1`, userID).Scan(&subID)
		if errors.Is(err, sql.ErrNoRows) {
			return usage, ErrInvalidState
		}
		if err != nil {
			return usage, err
		}
		usage.SubscriptionID = &subID
	default:
		return usage, err
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO pass_usages (user_id, pass_id, subscription_id, business_id, queue_entry_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, pass_id, subscription_id, business_id, queue_entry_id, used_at`,
		userID, usage.PassID, usage.SubscriptionID, businessID, queueEntryID).
		Scan(&usage.ID, &usage.UserID, &usage.PassID, &usage.SubscriptionID,
			&usage.BusinessID, &usage.QueueEntryID, &usage.UsedAt)
	if err != nil {
		return usage, err
	}
	if err = tx.Commit(); err != nil {
		return usage, err
	}
	committed = true
	return usage, nil
}

// UsageHistory returns the user's skip redemptions, newest first.
func (r *SubscriptionRepo) UsageHistory(ctx context.Context, userID uint64) ([]model.PassUsage, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, pass_id, subscription_id, business_id, queue_entry_id, used_at
		   FROM pass_usages WHERE user_id = $1 ORDER BY used_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PassUsage
	for rows.Next() {
		var u model.PassUsage
		if err := rows.Scan(&u.ID, &u.UserID, &u.PassID, &u.SubscriptionID,
			&u.BusinessID, &u.QueueEntryID, &u.UsedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Cancel marks the user's own active subscription cancelled.
// Entitlements stop immediately; redemption and listing queries only
// consider active rows.
func (r *SubscriptionRepo) Cancel(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE subscriptions SET status = 'cancelled', cancelled_at = now()
		  WHERE id = $1 AND user_id = $2 AND status = 'active'`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
