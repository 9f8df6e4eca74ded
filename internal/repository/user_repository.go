package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/skiplinehq/skipline/internal/model"
	"github.com/skiplinehq/skipline/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = `id, email, password_hash, full_name, phone, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, fullName string, phone *string, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var id uint64
	err = r.DB.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, full_name, phone, role)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		email, hash, fullName, phone, role).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrEmailExists
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id))
}

// UpdateProfile changes the mutable profile fields. Nil pointers
// leave the column as is.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, fullName, phone *string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`UPDATE users SET
		   full_name = COALESCE($1, full_name),
		   phone     = COALESCE($2, phone),
		   updated_at = now()
		 WHERE id = $3
		 RETURNING `+userColumns, fullName, phone, id))
}

// UpdatePassword verifies the current password before storing a new
// bcrypt hash. ErrForbidden when the current password is wrong.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, current, next string, cost int) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return ErrForbidden
	}
	hash, err := utils.HashPassword(next, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, id)
	return err
}
