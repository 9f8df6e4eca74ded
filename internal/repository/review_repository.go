package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/skiplinehq/skipline/internal/model"
)

// ReviewRepo encapsulates review persistence. Every write also
// refreshes the denormalised average_rating and total_reviews
// columns on the business row, inside the same transaction, so the
// directory listings never serve stale aggregates.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

const reviewColumns = `id, business_id, user_id, queue_entry_id, rating, comment, created_at, updated_at`

func scanReview(row interface{ Scan(...any) error }) (model.Review, error) {
	var rv model.Review
	err := row.Scan(&rv.ID, &rv.BusinessID, &rv.UserID, &rv.QueueEntryID, &rv.Rating,
		&rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

// refreshBusinessRating recomputes the aggregates from scratch
// rather than adjusting them incrementally, so a lost update can
// never leave them drifting from the review rows.
func refreshBusinessRating(ctx context.Context, tx *sql.Tx, businessID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE businesses SET
		   average_rating = (SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE business_id = $1),
		   total_reviews  = (SELECT COUNT(*) FROM reviews WHERE business_id = $1),
		   updated_at     = now()
		 WHERE id = $1`, businessID)
	return err
}

// Create stores a review. One review per user per business; a second
// attempt maps to ErrConflict. When the review references a queue
// entry, that entry must be the reviewer's own completed visit to
// this business.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
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

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM businesses WHERE id = $1)`, rv.BusinessID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	if rv.QueueEntryID != nil {
		var ok bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM queue_entries
			  WHERE id = $1 AND user_id = $2 AND business_id = $3 AND status = 'completed')`,
			*rv.QueueEntryID, rv.UserID, rv.BusinessID).Scan(&ok)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidState
		}
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO reviews (business_id, user_id, queue_entry_id, rating, comment)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		rv.BusinessID, rv.UserID, rv.QueueEntryID, rv.Rating, rv.Comment).
		Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	if err := refreshBusinessRating(ctx, tx, rv.BusinessID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update changes the caller's own review. Nil pointers leave fields
// untouched.
func (r *ReviewRepo) Update(ctx context.Context, id, userID uint64, rating *uint8, comment *string) (model.Review, error) {
	var rv model.Review
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return rv, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	rv, err = scanReview(tx.QueryRowContext(ctx,
		`UPDATE reviews SET
		   rating  = COALESCE($1, rating),
		   comment = COALESCE($2, comment),
		   updated_at = now()
		 WHERE id = $3 AND user_id = $4
		 RETURNING `+reviewColumns, rating, comment, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return rv, ErrNotFound
	}
	if err != nil {
		return rv, err
	}
	if err := refreshBusinessRating(ctx, tx, rv.BusinessID); err != nil {
		return rv, err
	}
	if err := tx.Commit(); err != nil {
		return rv, err
	}
	committed = true
	return rv, nil
}

// Delete removes the caller's own review.
func (r *ReviewRepo) Delete(ctx context.Context, id, userID uint64) error {
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
	var businessID uint64
	err = tx.QueryRowContext(ctx,
		`DELETE FROM reviews WHERE id = $1 AND user_id = $2 RETURNING business_id`,
		id, userID).Scan(&businessID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := refreshBusinessRating(ctx, tx, businessID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches one review.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	rv, err := scanReview(r.DB.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return rv, ErrNotFound
	}
	return rv, err
}

// BusinessReview is a review joined with the reviewer's display name
// for public listings.
type BusinessReview struct {
	model.Review
	ReviewerName string
}

// ListForBusiness returns a page of reviews for a business, newest
// first, plus the total count.
func (r *ReviewRepo) ListForBusiness(ctx context.Context, businessID uint64, limit, offset int) ([]BusinessReview, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE business_id = $1`, businessID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.business_id, r.user_id, r.queue_entry_id, r.rating, r.comment,
		        r.created_at, r.updated_at, u.full_name
		   FROM reviews r
		   JOIN users u ON u.id = r.user_id
		  WHERE r.business_id = $1
		  ORDER BY r.created_at DESC
		  LIMIT $2 OFFSET $3`, businessID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []BusinessReview{}
	for rows.Next() {
		var br BusinessReview
		if err := rows.Scan(&br.ID, &br.BusinessID, &br.UserID, &br.QueueEntryID, &br.Rating,
			&br.Comment, &br.CreatedAt, &br.UpdatedAt, &br.ReviewerName); err != nil {
			return nil, 0, err
		}
		out = append(out, br)
	}
	return out, total, rows.Err()
}

// ListForUser returns all reviews written by a user, newest first.
func (r *ReviewRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
