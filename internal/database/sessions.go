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

// SessionRepository handles session database operations. Only token
// digests ever reach this layer; plaintext tokens are never persisted.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) querier(q Querier) Querier {
	if q != nil {
		return q
	}
	return r.db
}

// Create inserts a session row.
func (r *SessionRepository) Create(ctx context.Context, q Querier, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING created_at, updated_at
	`

	now := time.Now().UTC()
	err := r.querier(q).QueryRowContext(ctx, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.ExpiresAt,
		now,
	).Scan(&session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByTokenHash retrieves a session by token digest, joined with its
// owning user. Returns ErrNotFound when no session matches; expiry is the
// caller's concern.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, q Querier, tokenHash string) (*models.Session, error) {
	session := &models.Session{User: &models.User{}}
	query := `
		SELECT s.id, s.user_id, s.token_hash, s.expires_at, s.created_at, s.updated_at,
		       u.id, u.name, u.email, u.image, u.email_verified_at, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1
	`

	err := r.querier(q).QueryRowContext(ctx, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.User.ID,
		&session.User.Name,
		&session.User.Email,
		&session.User.Image,
		&session.User.EmailVerifiedAt,
		&session.User.CreatedAt,
		&session.User.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session by token hash: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// UpdateExpiry moves a session's expiry forward (sliding renewal).
func (r *SessionRepository) UpdateExpiry(ctx context.Context, q Querier, id uuid.UUID, expiresAt time.Time) error {
	query := `
		UPDATE sessions
		SET expires_at = $2, updated_at = $3
		WHERE id = $1
	`

	if _, err := r.querier(q).ExecContext(ctx, query, id, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update session expiry: %w", err)
	}
	return nil
}

// DeleteByID removes one session. Deleting a non-existent id is not an
// error.
func (r *SessionRepository) DeleteByID(ctx context.Context, q Querier, id uuid.UUID) error {
	if _, err := r.querier(q).ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID removes all sessions owned by a user and returns how many
// were deleted.
func (r *SessionRepository) DeleteByUserID(ctx context.Context, q Querier, userID uuid.UUID) (int64, error) {
	result, err := r.querier(q).ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions for user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// DeleteExpired bulk-deletes every session past its expiry and returns the
// count. Run by the background sweep.
func (r *SessionRepository) DeleteExpired(ctx context.Context, q Querier) (int64, error) {
	result, err := r.querier(q).ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}
