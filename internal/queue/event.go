// Package queue defines message payloads exchanged over the message broker.
package queue

// QueueJoinedEvent is published when a customer takes a place in a
// business queue. Downstream consumers can log or feed analytics
// without querying the primary database.
type QueueJoinedEvent struct {
	EntryID              uint64 `json:"entry_id"`
	BusinessID           uint64 `json:"business_id"`
	BusinessName         string `json:"business_name"`
	UserID               uint64 `json:"user_id"`
	Position             uint32 `json:"position"`
	EstimatedWaitMinutes uint32 `json:"estimated_wait_minutes"`
	JoinedAt             string `json:"joined_at"`
}

// QueueNotifiedEvent is published when a business calls a customer
// to the front. It carries everything a notification sender needs
// to reach the customer.
type QueueNotifiedEvent struct {
	EntryID      uint64 `json:"entry_id"`
	BusinessID   uint64 `json:"business_id"`
	BusinessName string `json:"business_name"`
	UserID       uint64 `json:"user_id"`
	UserEmail    string `json:"user_email"`
	NotifiedAt   string `json:"notified_at"`
}
