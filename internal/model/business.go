package model

import "time"

// Business represents a venue that customers can queue for.  Each
// business belongs to one owner account and corresponds to a row in
// the `businesses` table.  The queue counters on this row are the
// authoritative source for admission decisions: CurrentQueueCount is
// kept equal to the number of active queue entries by the queue
// repository.
//
// Fields:
//  ID                    – primary key identifier.
//  OwnerID               – user ID of the business owner.
//  Name                  – display name of the business.
//  Description           – free text description (optional).
//  Address               – street address shown to customers.
//  Latitude              – geographic latitude of the venue.
//  Longitude             – geographic longitude of the venue.
//  Phone                 – contact phone number (optional).
//  Category              – business category (restaurant, barbershop, ...).
//  AverageServiceMinutes – minutes one customer takes to serve on average.
//  CurrentQueueCount     – number of active (waiting or notified) entries.
//  MaxQueueCapacity      – hard cap on active entries.
//  IsActive              – whether the business currently accepts joins.
//  IsVerified            – whether the listing has been verified.
//  OperatingHours        – opening hours as a JSON document (optional).
//  AverageRating         – denormalised mean review rating.
//  TotalReviews          – denormalised review count.
//  CreatedAt             – creation timestamp.
//  UpdatedAt             – last update timestamp.
type Business struct {
    ID                    uint64    // businesses.id
    OwnerID               uint64    // businesses.owner_id
    Name                  string    // businesses.name
    Description           *string   // businesses.description (nullable)
    Address               string    // businesses.address
    Latitude              float64   // businesses.latitude
    Longitude             float64   // businesses.longitude
    Phone                 *string   // businesses.phone (nullable)
    Category              string    // businesses.category
    AverageServiceMinutes uint32    // businesses.average_service_minutes
    CurrentQueueCount     uint32    // businesses.current_queue_count
    MaxQueueCapacity      uint32    // businesses.max_queue_capacity
    IsActive              bool      // businesses.is_active
    IsVerified            bool      // businesses.is_verified
    OperatingHours        *string   // businesses.operating_hours (nullable JSON)
    AverageRating         float64   // businesses.average_rating
    TotalReviews          uint32    // businesses.total_reviews
    CreatedAt             time.Time // businesses.created_at
    UpdatedAt             time.Time // businesses.updated_at
}

// BusinessCategories lists the categories a business may register
// under.  The category column is constrained to this set by the
// schema; handlers validate input against it before hitting the
// database.
var BusinessCategories = []string{
    "restaurant",
    "barbershop",
    "clinic",
    "bank",
    "government",
    "retail",
    "other",
}
