package model

import "time"

// Subscription plan types.  one_time_skip grants a single skip pass,
// the other two grant unlimited skips while the subscription is
// active.
const (
    PlanOneTimeSkip      = "one_time_skip"
    PlanMonthlyUnlimited = "monthly_unlimited"
    PlanYearlyPremium    = "yearly_premium"
)

// Subscription statuses.
const (
    SubscriptionActive    = "active"
    SubscriptionCancelled = "cancelled"
    SubscriptionExpired   = "expired"
)

// Skip pass statuses.
const (
    PassAvailable = "available"
    PassUsed      = "used"
    PassExpired   = "expired"
)

// Subscription is a purchased plan giving a user skip-the-line
// privileges for a period of time.  It corresponds to a row in the
// `subscriptions` table.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – purchasing user.
//  PlanType    – one of the Plan* constants.
//  Status      – one of the Subscription* constants.
//  PriceCents  – amount paid in cents.
//  StartsAt    – beginning of the coverage period.
//  ExpiresAt   – end of the coverage period.
//  CancelledAt – when the user cancelled (nullable).
//  CreatedAt   – creation timestamp.
type Subscription struct {
    ID          uint64     // subscriptions.id
    UserID      uint64     // subscriptions.user_id
    PlanType    string     // subscriptions.plan_type
    Status      string     // subscriptions.status
    PriceCents  uint32     // subscriptions.price_cents
    StartsAt    time.Time  // subscriptions.starts_at
    ExpiresAt   time.Time  // subscriptions.expires_at
    CancelledAt *time.Time // subscriptions.cancelled_at (nullable)
    CreatedAt   time.Time  // subscriptions.created_at
}

// Payment records the money side of a subscription purchase.  No
// gateway is integrated; rows capture what was charged for audit
// purposes.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – paying user.
//  SubscriptionID – subscription the payment covers.
//  AmountCents    – charged amount in cents.
//  Status         – payment state (recorded completed on purchase).
//  CreatedAt      – creation timestamp.
type Payment struct {
    ID             uint64    // payments.id
    UserID         uint64    // payments.user_id
    SubscriptionID uint64    // payments.subscription_id
    AmountCents    uint32    // payments.amount_cents
    Status         string    // payments.status
    CreatedAt      time.Time // payments.created_at
}

// SkipPass is a single-use skip credit.  One is minted when a
// one_time_skip plan is purchased.  It corresponds to a row in the
// `skip_passes` table.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – owner of the pass.
//  SubscriptionID – purchase the pass came from.
//  Status         – one of the Pass* constants.
//  UsedAt         – when the pass was consumed (nullable).
//  ExpiresAt      – when the pass stops being redeemable.
//  CreatedAt      – creation timestamp.
type SkipPass struct {
    ID             uint64     // skip_passes.id
    UserID         uint64     // skip_passes.user_id
    SubscriptionID uint64     // skip_passes.subscription_id
    Status         string     // skip_passes.status
    UsedAt         *time.Time // skip_passes.used_at (nullable)
    ExpiresAt      time.Time  // skip_passes.expires_at
    CreatedAt      time.Time  // skip_passes.created_at
}

// PassUsage is the audit trail of skip redemptions, covering both
// single-use passes and unlimited subscriptions.  Exactly one of
// PassID and SubscriptionID is set.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – redeeming user.
//  PassID         – consumed pass, when a pass was used (nullable).
//  SubscriptionID – covering subscription, when unlimited (nullable).
//  BusinessID     – business where the skip was redeemed.
//  QueueEntryID   – queue entry the skip applied to (nullable).
//  UsedAt         – redemption timestamp.
type PassUsage struct {
    ID             uint64    // pass_usages.id
    UserID         uint64    // pass_usages.user_id
    PassID         *uint64   // pass_usages.pass_id (nullable)
    SubscriptionID *uint64   // pass_usages.subscription_id (nullable)
    BusinessID     uint64    // pass_usages.business_id
    QueueEntryID   *uint64   // pass_usages.queue_entry_id (nullable)
    UsedAt         time.Time // pass_usages.used_at
}
