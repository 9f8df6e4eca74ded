package model

import "time"

// Review is a customer's rating of a business, one per customer per
// business.  It corresponds to a row in the `reviews` table.  A
// review may reference the queue entry that prompted it, which lets
// the handler verify the reviewer actually visited.
//
// Fields:
//  ID           – primary key identifier.
//  BusinessID   – business being reviewed.
//  UserID       – author of the review.
//  QueueEntryID – queue entry the visit corresponds to (nullable).
//  Rating       – star rating from 1 to 5.
//  Comment      – free text comment (optional).
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Review struct {
    ID           uint64    // reviews.id
    BusinessID   uint64    // reviews.business_id
    UserID       uint64    // reviews.user_id
    QueueEntryID *uint64   // reviews.queue_entry_id (nullable)
    Rating       uint8     // reviews.rating
    Comment      *string   // reviews.comment (nullable)
    CreatedAt    time.Time // reviews.created_at
    UpdatedAt    time.Time // reviews.updated_at
}
