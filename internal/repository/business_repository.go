// Package repository contains data access logic separated from HTTP handlers.
// This file defines repository methods for business CRUD and lookup
// operations. A Business is a venue customers can queue for; each one
// belongs to a single owner account.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/skiplinehq/skipline/internal/model"
)

// businessColumns is the select list shared by queries scanning a
// full business row.
const businessColumns = `id, owner_id, name, description, address, latitude, longitude, phone,
	category, average_service_minutes, current_queue_count, max_queue_capacity,
	is_active, is_verified, operating_hours, average_rating, total_reviews,
	created_at, updated_at`

// BusinessRepo encapsulates all database queries related to
// businesses. It depends on a sql.DB connection which should be
// configured elsewhere.
type BusinessRepo struct {
	db *sql.DB
}

// NewBusinessRepo constructs a BusinessRepo with the provided DB
// handle. This function allows dependency injection of the database
// in tests and at startup.
func NewBusinessRepo(db *sql.DB) *BusinessRepo {
	return &BusinessRepo{db: db}
}

// DB exposes the underlying handle for handlers that need to begin
// their own transactions spanning multiple repositories.
func (r *BusinessRepo) DB() *sql.DB { return r.db }

func scanBusiness(row interface{ Scan(...any) error }) (*model.Business, error) {
	var b model.Business
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Description, &b.Address, &b.Latitude,
		&b.Longitude, &b.Phone, &b.Category, &b.AverageServiceMinutes, &b.CurrentQueueCount,
		&b.MaxQueueCapacity, &b.IsActive, &b.IsVerified, &b.OperatingHours,
		&b.AverageRating, &b.TotalReviews, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a new business. On success the ID and timestamp
// fields of the passed struct are populated from the inserted row.
// A duplicate name for the same owner maps to ErrConflict.
func (r *BusinessRepo) Create(ctx context.Context, b *model.Business) error {
	const q = `INSERT INTO businesses
		(owner_id, name, description, address, latitude, longitude, phone, category,
		 average_service_minutes, max_queue_capacity, is_active, operating_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, current_queue_count, is_verified, average_rating, total_reviews, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		b.OwnerID, b.Name, b.Description, b.Address, b.Latitude, b.Longitude, b.Phone,
		b.Category, b.AverageServiceMinutes, b.MaxQueueCapacity, b.IsActive, b.OperatingHours).
		Scan(&b.ID, &b.CurrentQueueCount, &b.IsVerified, &b.AverageRating, &b.TotalReviews,
			&b.CreatedAt, &b.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// isUniqueViolation reports whether the error is Postgres unique
// constraint violation 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// GetByID fetches a business by its ID regardless of owner. It
// returns ErrNotFound if no row is found.
func (r *BusinessRepo) GetByID(ctx context.Context, id uint64) (*model.Business, error) {
	b, err := scanBusiness(r.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetByIDAndOwner fetches a business by id but only if it belongs to
// the specified owner. If the business doesn't exist or is owned by
// someone else, ErrNotFound is returned.
func (r *BusinessRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Business, error) {
	b, err := scanBusiness(r.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = $1 AND owner_id = $2`,
		id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// ListByOwner returns all businesses for a specific owner ordered by id.
func (r *BusinessRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Business, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BusinessUpdate carries the optional fields of a partial update.
// Nil pointers leave the corresponding column untouched. The update
// statement is fixed; no SQL is assembled from request input.
type BusinessUpdate struct {
	Name                  *string
	Description           *string
	Address               *string
	Latitude              *float64
	Longitude             *float64
	Phone                 *string
	Category              *string
	AverageServiceMinutes *uint32
	MaxQueueCapacity      *uint32
	OperatingHours        *string
}

// Update applies a partial update to a business owned by ownerID.
// Returns ErrNotFound when no row matched.
func (r *BusinessRepo) Update(ctx context.Context, id, ownerID uint64, u BusinessUpdate) (*model.Business, error) {
	const q = `UPDATE businesses SET
		name                    = COALESCE($1, name),
		description             = COALESCE($2, description),
		address                 = COALESCE($3, address),
		latitude                = COALESCE($4, latitude),
		longitude               = COALESCE($5, longitude),
		phone                   = COALESCE($6, phone),
		category                = COALESCE($7, category),
		average_service_minutes = COALESCE($8, average_service_minutes),
		max_queue_capacity      = COALESCE($9, max_queue_capacity),
		operating_hours         = COALESCE($10, operating_hours),
		updated_at              = now()
		WHERE id = $11 AND owner_id = $12
		RETURNING ` + businessColumns
	b, err := scanBusiness(r.db.QueryRowContext(ctx, q,
		u.Name, u.Description, u.Address, u.Latitude, u.Longitude, u.Phone, u.Category,
		u.AverageServiceMinutes, u.MaxQueueCapacity, u.OperatingHours, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	return b, err
}

// SetActive opens or closes a business for new joins. Existing queue
// entries are unaffected.
func (r *BusinessRepo) SetActive(ctx context.Context, id, ownerID uint64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE businesses SET is_active = $1, updated_at = now() WHERE id = $2 AND owner_id = $3`,
		active, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories returns the distinct categories that currently have at
// least one active business, with a per-category count.
func (r *BusinessRepo) Categories(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM businesses WHERE is_active = true GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		out[cat] = n
	}
	return out, rows.Err()
}

// NearbyBusiness pairs a business with its distance from the search
// point in kilometres.
type NearbyBusiness struct {
	model.Business
	DistanceKm float64
}

// Nearby returns active businesses within radiusKm of the given
// point, closest first. Distance is the great-circle haversine
// computed in SQL; close enough at city scale without a geospatial
// extension.
func (r *BusinessRepo) Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]NearbyBusiness, error) {
	const q = `SELECT ` + businessColumns + `,
		(6371 * acos(least(1.0,
			cos(radians($1)) * cos(radians(latitude)) * cos(radians(longitude) - radians($2)) +
			sin(radians($1)) * sin(radians(latitude))))) AS distance_km
		FROM businesses
		WHERE is_active = true
		AND (6371 * acos(least(1.0,
			cos(radians($1)) * cos(radians(latitude)) * cos(radians(longitude) - radians($2)) +
			sin(radians($1)) * sin(radians(latitude))))) <= $3
		ORDER BY distance_km ASC
		LIMIT $4`
	rows, err := r.db.QueryContext(ctx, q, lat, lng, radiusKm, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []NearbyBusiness
	for rows.Next() {
		var nb NearbyBusiness
		if err := rows.Scan(&nb.ID, &nb.OwnerID, &nb.Name, &nb.Description, &nb.Address,
			&nb.Latitude, &nb.Longitude, &nb.Phone, &nb.Category, &nb.AverageServiceMinutes,
			&nb.CurrentQueueCount, &nb.MaxQueueCapacity, &nb.IsActive, &nb.IsVerified,
			&nb.OperatingHours, &nb.AverageRating, &nb.TotalReviews, &nb.CreatedAt,
			&nb.UpdatedAt, &nb.DistanceKm); err != nil {
			return nil, err
		}
		out = append(out, nb)
	}
	return out, rows.Err()
}
