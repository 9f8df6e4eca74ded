// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrQueueFull signals that a business has no
// free slots left. Handlers match on these with errors.Is and map
// each one to an HTTP status code.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because
// of conflicting existing state, such as reviewing the same
// business twice. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when the referenced record does not
// exist. Repositories return it for missing businesses, queue
// entries, reviews and subscriptions alike; handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ErrBusinessInactive is returned by Join when the target business
// exists but is not currently accepting customers.
var ErrBusinessInactive = errors.New("business is not accepting customers")

// ErrQueueFull is returned by Join when the business already has
// max_queue_capacity active entries.
var ErrQueueFull = errors.New("queue is full")

// ErrAlreadyQueued is returned by Join when the user already holds
// an active (waiting or notified) entry in the same business queue.
// It is a conflict: handlers map it to 409.
var ErrAlreadyQueued = errors.New("user already in queue")

// ErrInvalidState is returned when a status transition is requested
// that the queue state machine does not allow, such as leaving a
// queue after being notified or completing a cancelled entry.
var ErrInvalidState = errors.New("invalid state for operation")

// ErrTransient is returned when the database aborted the operation
// for a reason that a retry is expected to cure (serialization
// failure, deadlock, lock timeout). Mutating queue operations retry
// a few times internally before surfacing it; handlers map it to
// 503 so clients know to try again.
var ErrTransient = errors.New("transient store error")
