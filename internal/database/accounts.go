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

// AccountRepository handles account database operations. The schema
// enforces at most one account per (user_id, provider) and one per
// (provider, external_id).
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) querier(q Querier) Querier {
	if q != nil {
		return q
	}
	return r.db
}

// Create inserts an account. Password hashes must already be computed by
// the caller; this layer never hashes.
func (r *AccountRepository) Create(ctx context.Context, q Querier, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, provider, external_id, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING created_at, updated_at
	`

	now := time.Now().UTC()
	err := r.querier(q).QueryRowContext(ctx, query,
		account.ID,
		account.UserID,
		account.Provider,
		account.ExternalID,
		account.PasswordHash,
		now,
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByUserAndProvider retrieves the account binding a user to a provider.
func (r *AccountRepository) GetByUserAndProvider(ctx context.Context, q Querier, userID uuid.UUID, provider models.Provider) (*models.Account, error) {
	account := &models.Account{}
	query := `
		SELECT id, user_id, provider, external_id, password_hash, created_at, updated_at
		FROM accounts
		WHERE user_id = $1 AND provider = $2
	`

	err := r.querier(q).QueryRowContext(ctx, query, userID, provider).Scan(
		&account.ID,
		&account.UserID,
		&account.Provider,
		&account.ExternalID,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account by user and provider: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetByProviderExternalID retrieves an account by the provider-assigned
// external id.
func (r *AccountRepository) GetByProviderExternalID(ctx context.Context, q Querier, provider models.Provider, externalID string) (*models.Account, error) {
	account := &models.Account{}
	query := `
		SELECT id, user_id, provider, external_id, password_hash, created_at, updated_at
		FROM accounts
		WHERE provider = $1 AND external_id = $2
	`

	err := r.querier(q).QueryRowContext(ctx, query, provider, externalID).Scan(
		&account.ID,
		&account.UserID,
		&account.Provider,
		&account.ExternalID,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account by provider external id: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by external id: %w", err)
	}
	return account, nil
}
