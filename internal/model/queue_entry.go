package model

import "time"

// Queue entry statuses.  An entry is "active" while it is waiting or
// notified; the three remaining statuses are terminal and never
// change again.
const (
    QueueStatusWaiting   = "waiting"
    QueueStatusNotified  = "notified"
    QueueStatusCompleted = "completed"
    QueueStatusCancelled = "cancelled"
    QueueStatusNoShow    = "no_show"
)

// QueueEntry records one customer's place in a business queue.  It
// corresponds to a row in the `queue_entries` table.  Positions are
// dense per business: the active entries of a business always occupy
// positions 1..N with no gaps, which the queue repository maintains
// by shifting later entries whenever an active entry leaves the
// queue.
//
// Fields:
//  ID                   – primary key identifier.
//  BusinessID           – business whose queue this entry is in.
//  UserID               – customer holding the place.
//  Position             – 1-based rank among active entries.
//  EstimatedWaitMinutes – position times the business's average service minutes.
//  Status               – one of the QueueStatus* constants.
//  Notes                – free text attached by the customer (optional).
//  JoinedAt             – when the customer joined the queue.
//  NotifiedAt           – when the business called the customer (nullable).
//  CompletedAt          – when service finished (nullable).
//  CancelledAt          – when the customer left voluntarily (nullable).
//  CreatedAt            – creation timestamp.
//  UpdatedAt            – last update timestamp.
type QueueEntry struct {
    ID                   uint64     // queue_entries.id
    BusinessID           uint64     // queue_entries.business_id
    UserID               uint64     // queue_entries.user_id
    Position             uint32     // queue_entries.position
    EstimatedWaitMinutes uint32     // queue_entries.estimated_wait_minutes
    Status               string     // queue_entries.status
    Notes                *string    // queue_entries.notes (nullable)
    JoinedAt             time.Time  // queue_entries.joined_at
    NotifiedAt           *time.Time // queue_entries.notified_at (nullable)
    CompletedAt          *time.Time // queue_entries.completed_at (nullable)
    CancelledAt          *time.Time // queue_entries.cancelled_at (nullable)
    CreatedAt            time.Time  // queue_entries.created_at
    UpdatedAt            time.Time  // queue_entries.updated_at
}

// Active reports whether the entry still occupies a slot in the
// queue, i.e. counts toward current_queue_count and holds a
// position.
func (q *QueueEntry) Active() bool {
    return q.Status == QueueStatusWaiting || q.Status == QueueStatusNotified
}
