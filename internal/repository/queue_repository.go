package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/skiplinehq/skipline/internal/model"
)

// QueueRepo owns the queue ledger: every queue entry of every
// business plus the current_queue_count counter on the business row.
// All mutating methods run a single transaction that first locks the
// business row with SELECT ... FOR UPDATE, so two concurrent joins
// or leaves on the same business serialize and the invariants hold
// after each commit: active entries occupy dense positions 1..N and
// current_queue_count equals N.
type QueueRepo struct{ DB *sql.DB }

func NewQueueRepo(db *sql.DB) *QueueRepo { return &QueueRepo{DB: db} }

// maxTxAttempts bounds the internal retry of mutating operations on
// serialization failures and deadlocks before ErrTransient surfaces.
const maxTxAttempts = 3

// entryColumns is the select list shared by every query that scans a
// full queue entry row.
const entryColumns = `id, business_id, user_id, position, estimated_wait_minutes, status,
	notes, joined_at, notified_at, completed_at, cancelled_at, created_at, updated_at`

// WaitEstimate is what a prospective customer sees before joining.
type WaitEstimate struct {
	NextPosition         uint32
	EstimatedWaitMinutes uint32
}

// QueueStats summarises one business's queue for its owner.
type QueueStats struct {
	CurrentLength  uint32
	TotalCompleted uint32
	TotalCancelled uint32
	TotalNoShow    uint32
}

// lockedBusiness carries the columns read under FOR UPDATE that the
// admission checks need.
type lockedBusiness struct {
	ID                    uint64
	OwnerID               uint64
	AverageServiceMinutes uint32
	CurrentQueueCount     uint32
	MaxQueueCapacity      uint32
	IsActive              bool
}

// isTransient reports whether the Postgres error is one a retry is
// expected to cure: serialization failure, deadlock, lock timeout.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

// inTx runs fn inside a transaction, retrying the whole transaction
// on transient failures. fn must not commit or roll back itself.
func (r *QueueRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !isTransient(err) {
			return err
		}
	}
	return errors.Join(ErrTransient, err)
}

func (r *QueueRepo) runOnce(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// lockBusiness reads the business row FOR UPDATE, serializing all
// queue mutations for that business behind the row lock.
func lockBusiness(ctx context.Context, tx *sql.Tx, businessID uint64) (lockedBusiness, error) {
	var b lockedBusiness
	err := tx.QueryRowContext(ctx,
		`SELECT id, owner_id, average_service_minutes, current_queue_count, max_queue_capacity, is_active
		   FROM businesses WHERE id = $1 FOR UPDATE`,
		businessID).Scan(&b.ID, &b.OwnerID, &b.AverageServiceMinutes, &b.CurrentQueueCount,
		&b.MaxQueueCapacity, &b.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	return b, err
}

func scanEntry(row interface{ Scan(...any) error }) (model.QueueEntry, error) {
	var e model.QueueEntry
	err := row.Scan(&e.ID, &e.BusinessID, &e.UserID, &e.Position, &e.EstimatedWaitMinutes,
		&e.Status, &e.Notes, &e.JoinedAt, &e.NotifiedAt, &e.CompletedAt, &e.CancelledAt,
		&e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// Join admits a user into a business queue. The new entry takes the
// position after the last active entry. Fails with
// ErrBusinessInactive when the business is closed for joins,
// ErrAlreadyQueued when the user already holds an active entry in
// this queue, and ErrQueueFull at capacity.
func (r *QueueRepo) Join(ctx context.Context, businessID, userID uint64, notes *string) (model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		b, err := lockBusiness(ctx, tx, businessID)
		if err != nil {
			return err
		}
		if !b.IsActive {
			return ErrBusinessInactive
		}
		var active bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM queue_entries
			  WHERE business_id = $1 AND user_id = $2 AND status IN ('waiting','notified'))`,
			businessID, userID).Scan(&active)
		if err != nil {
			return err
		}
		if active {
			return ErrAlreadyQueued
		}
		if b.CurrentQueueCount >= b.MaxQueueCapacity {
			return ErrQueueFull
		}
		position := b.CurrentQueueCount + 1
		wait := EstimateWaitMinutes(position, b.AverageServiceMinutes)
		row := tx.QueryRowContext(ctx,
			`INSERT INTO queue_entries (business_id, user_id, position, estimated_wait_minutes, status, notes, joined_at)
			 VALUES ($1, $2, $3, $4, 'waiting', $5, now())
			 RETURNING `+entryColumns,
			businessID, userID, position, wait, notes)
		entry, err = scanEntry(row)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE businesses SET current_queue_count = current_queue_count + 1, updated_at = now()
			  WHERE id = $1`, businessID)
		return err
	})
	return entry, err
}

// Leave cancels the caller's own waiting entry and closes the gap it
// leaves behind: every active entry further back moves up one
// position and gets a fresh wait estimate, and the business counter
// drops by one. Only waiting entries may leave; a notified customer
// is already being called and must be resolved by the business.
func (r *QueueRepo) Leave(ctx context.Context, entryID, userID uint64) (model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		businessID, err := entryBusinessID(ctx, tx, entryID)
		if err != nil {
			return err
		}
		b, err := lockBusiness(ctx, tx, businessID)
		if err != nil {
			return err
		}
		// Re-read under the business lock so the status and position
		// checked here cannot change before commit.
		row := tx.QueryRowContext(ctx,
			`SELECT `+entryColumns+` FROM queue_entries WHERE id = $1`, entryID)
		entry, err = scanEntry(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if entry.UserID != userID {
			return ErrNotFound
		}
		if entry.Status != model.QueueStatusWaiting {
			return ErrInvalidState
		}
		row = tx.QueryRowContext(ctx,
			`UPDATE queue_entries
			    SET status = 'cancelled', cancelled_at = now(), updated_at = now()
			  WHERE id = $1
			 RETURNING `+entryColumns, entryID)
		entry, err = scanEntry(row)
		if err != nil {
			return err
		}
		return removeFromQueue(ctx, tx, b, entry.Position)
	})
	return entry, err
}

// Advance moves a queue entry along the lifecycle on behalf of the
// business owner: waiting to notified when the customer is called,
// notified to completed when service is done, and either active
// state to no_show when the customer never turned up. Completing or
// no-showing frees the slot, so the entries behind move up exactly
// as they do on Leave.
func (r *QueueRepo) Advance(ctx context.Context, entryID, ownerID uint64, toStatus string) (model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		businessID, err := entryBusinessID(ctx, tx, entryID)
		if err != nil {
			return err
		}
		b, err := lockBusiness(ctx, tx, businessID)
		if err != nil {
			return err
		}
		if b.OwnerID != ownerID {
			return ErrForbidden
		}
		row := tx.QueryRowContext(ctx,
			`SELECT `+entryColumns+` FROM queue_entries WHERE id = $1`, entryID)
		entry, err = scanEntry(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if !ValidTransition(entry.Status, toStatus) {
			return ErrInvalidState
		}
		var set string
		switch toStatus {
		case model.QueueStatusNotified:
			set = `status = 'notified', notified_at = now(), updated_at = now()`
		case model.QueueStatusCompleted:
			set = `status = 'completed', completed_at = now(), updated_at = now()`
		case model.QueueStatusNoShow:
			set = `status = 'no_show', updated_at = now()`
		default:
			return ErrInvalidState
		}
		row = tx.QueryRowContext(ctx,
			`UPDATE queue_entries SET `+set+` WHERE id = $1 RETURNING `+entryColumns, entryID)
		entry, err = scanEntry(row)
		if err != nil {
			return err
		}
		if toStatus == model.QueueStatusNotified {
			return nil
		}
		return removeFromQueue(ctx, tx, b, entry.Position)
	})
	return entry, err
}

// entryBusinessID resolves which business an entry belongs to before
// the business lock is taken. The entry itself is re-read after the
// lock; this first read only picks the row to lock.
func entryBusinessID(ctx context.Context, tx *sql.Tx, entryID uint64) (uint64, error) {
	var businessID uint64
	err := tx.QueryRowContext(ctx,
		`SELECT business_id FROM queue_entries WHERE id = $1`, entryID).Scan(&businessID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return businessID, err
}

// removeFromQueue closes the gap left by an active entry that just
// went terminal: active entries behind it shift up one position with
// their wait estimates recomputed, and the business counter drops.
// Must run inside the transaction that holds the business row lock.
func removeFromQueue(ctx context.Context, tx *sql.Tx, b lockedBusiness, freedPosition uint32) error {
	// All SET expressions see the pre-update row, so the estimate is
	// computed from the shifted position.
	_, err := tx.ExecContext(ctx,
		`UPDATE queue_entries
		    SET position = position - 1,
		        estimated_wait_minutes = (position - 1) * $1,
		        updated_at = now()
		  WHERE business_id = $2 AND position > $3 AND status IN ('waiting','notified')`,
		b.AverageServiceMinutes, b.ID, freedPosition)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE businesses SET current_queue_count = current_queue_count - 1, updated_at = now()
		  WHERE id = $1`, b.ID)
	return err
}

// Estimate reports the position and wait a new customer would get if
// they joined right now. Read-only, no lock.
func (r *QueueRepo) Estimate(ctx context.Context, businessID uint64) (WaitEstimate, error) {
	var (
		est    WaitEstimate
		count  uint32
		avg    uint32
		active bool
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT current_queue_count, average_service_minutes, is_active
		   FROM businesses WHERE id = $1`, businessID).Scan(&count, &avg, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return est, ErrNotFound
	}
	if err != nil {
		return est, err
	}
	if !active {
		return est, ErrBusinessInactive
	}
	est.NextPosition = count + 1
	est.EstimatedWaitMinutes = EstimateWaitMinutes(est.NextPosition, avg)
	return est, nil
}

// GetByID fetches one entry scoped to the given user.
func (r *QueueRepo) GetByID(ctx context.Context, entryID, userID uint64) (model.QueueEntry, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM queue_entries WHERE id = $1 AND user_id = $2`,
		entryID, userID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entry, ErrNotFound
	}
	return entry, err
}

// ListForUser returns the user's queue history, newest first, with
// an optional status filter. The second return value is the total
// count for pagination.
func (r *QueueRepo) ListForUser(ctx context.Context, userID uint64, status string, limit, offset int) ([]model.QueueEntry, int, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_entries `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + entryColumns + ` FROM queue_entries ` + where +
		` ORDER BY joined_at DESC LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, limit, offset)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var entries []model.QueueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// CurrentForUser returns the user's most recent active entry, the
// one the app shows on the home screen. ErrNotFound when the user is
// not queued anywhere.
func (r *QueueRepo) CurrentForUser(ctx context.Context, userID uint64) (model.QueueEntry, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM queue_entries
		  WHERE user_id = $1 AND status IN ('waiting','notified')
		  ORDER BY joined_at DESC LIMIT 1`, userID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entry, ErrNotFound
	}
	return entry, err
}

// ListActiveForBusiness returns the live queue in position order,
// the view the owner works from.
func (r *QueueRepo) ListActiveForBusiness(ctx context.Context, businessID, ownerID uint64) ([]model.QueueEntry, error) {
	var realOwner uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT owner_id FROM businesses WHERE id = $1`, businessID).Scan(&realOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if realOwner != ownerID {
		return nil, ErrForbidden
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM queue_entries
		  WHERE business_id = $1 AND status IN ('waiting','notified')
		  ORDER BY position ASC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []model.QueueEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats aggregates lifetime outcomes plus the live queue length for
// a business.
func (r *QueueRepo) Stats(ctx context.Context, businessID uint64) (QueueStats, error) {
	var s QueueStats
	err := r.DB.QueryRowContext(ctx,
		`SELECT b.current_queue_count,
		        COUNT(*) FILTER (WHERE q.status = 'completed'),
		        COUNT(*) FILTER (WHERE q.status = 'cancelled'),
		        COUNT(*) FILTER (WHERE q.status = 'no_show')
		   FROM businesses b
		   LEFT JOIN queue_entries q ON q.business_id = b.id
		  WHERE b.id = $1
		  GROUP BY b.current_queue_count`, businessID).
		Scan(&s.CurrentLength, &s.TotalCompleted, &s.TotalCancelled, &s.TotalNoShow)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// UpdateNotes sets or clears the free-text note on the user's own
// entry. Allowed in any status; notes never affect the ledger.
func (r *QueueRepo) UpdateNotes(ctx context.Context, entryID, userID uint64, notes *string) (model.QueueEntry, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE queue_entries SET notes = $1, updated_at = now()
		  WHERE id = $2 AND user_id = $3
		 RETURNING `+entryColumns, notes, entryID, userID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entry, ErrNotFound
	}
	return entry, err
}

// placeholder renders $n for dynamically numbered arguments.
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
