package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bennettsh/authkit/internal/models"
)

// UserRepository handles user database operations. Callers must pass
// already-normalized emails; no normalization happens here.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) querier(q Querier) Querier {
	if q != nil {
		return q
	}
	return r.db
}

// Create inserts a user. The id must be pre-assigned by the caller.
func (r *UserRepository) Create(ctx context.Context, q Querier, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, image, email_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING created_at, updated_at
	`

	now := time.Now().UTC()
	err := r.querier(q).QueryRowContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Image,
		user.EmailVerifiedAt,
		now,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by normalized email. Returns ErrNotFound if
// no user exists with that email.
func (r *UserRepository) GetByEmail(ctx context.Context, q Querier, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, name, email, image, email_verified_at, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	err := r.querier(q).QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Image,
		&user.EmailVerifiedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user by email: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by id. Returns ErrNotFound if no user exists.
func (r *UserRepository) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, name, email, image, email_verified_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	err := r.querier(q).QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Image,
		&user.EmailVerifiedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user by id: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Update rewrites the mutable fields of a user.
func (r *UserRepository) Update(ctx context.Context, q Querier, user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, image = $4, email_verified_at = $5, updated_at = $6
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.querier(q).QueryRowContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Image,
		user.EmailVerifiedAt,
		time.Now().UTC(),
	).Scan(&user.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete removes a user. Accounts and sessions cascade at the schema level.
func (r *UserRepository) Delete(ctx context.Context, q Querier, id uuid.UUID) error {
	result, err := r.querier(q).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete user: %w", ErrNotFound)
	}
	return nil
}

// List returns all users ordered by creation time. Admin tooling only.
func (r *UserRepository) List(ctx context.Context, q Querier) ([]*models.User, error) {
	query := `
		SELECT id, name, email, image, email_verified_at, created_at, updated_at
		FROM users
		ORDER BY created_at
	`

	rows, err := r.querier(q).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Image,
			&user.EmailVerifiedAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}
