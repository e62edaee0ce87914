// Package session implements the session lifecycle: opaque-token creation,
// validation with sliding renewal, revocation, and the expired-session
// sweep.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bennettsh/authkit/internal/database"
	"github.com/bennettsh/authkit/internal/models"
	"github.com/bennettsh/authkit/internal/secrets"
)

const (
	// Duration is how long a freshly created or renewed session lives.
	Duration = 30 * 24 * time.Hour
	// RenewalThreshold is the window before expiry within which a
	// successful validation extends the session. Renewing only near expiry
	// amortizes the write cost instead of updating the row on every
	// request.
	RenewalThreshold = 15 * 24 * time.Hour
)

// Manager drives session state transitions against the session store.
type Manager struct {
	sessions database.SessionStore
	logger   *zap.Logger
}

// NewManager creates a session manager.
func NewManager(sessions database.SessionStore, logger *zap.Logger) *Manager {
	return &Manager{sessions: sessions, logger: logger}
}

// NewSession is the result of creating a session. Token is the plaintext
// session token; this is the only place it ever exists outside transit.
type NewSession struct {
	Session *models.Session
	Token   string
}

// Create generates a token, persists its digest with a fresh expiry, and
// returns the plaintext token to the caller. q may be nil (standalone) or
// a transaction handle when session creation is part of a larger write.
func (m *Manager) Create(ctx context.Context, q database.Querier, userID uuid.UUID) (*NewSession, error) {
	token, err := secrets.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &models.Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: secrets.HashToken(token),
		ExpiresAt: time.Now().UTC().Add(Duration),
	}

	if err := m.sessions.Create(ctx, q, session); err != nil {
		return nil, err
	}

	return &NewSession{Session: session, Token: token}, nil
}

// Validate resolves a plaintext token to its session joined with the
// owning user. Returns (nil, nil) when the token is unknown or the session
// has expired; the caller learns nothing about why. An expired session is
// deleted on sight and cannot be resurrected. A session inside the renewal
// window has its expiry extended and persisted before it is returned.
func (m *Manager) Validate(ctx context.Context, token string) (*models.Session, error) {
	session, err := m.sessions.GetByTokenHash(ctx, nil, secrets.HashToken(token))
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if session.Expired(now) {
		if err := m.sessions.DeleteByID(ctx, nil, session.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if now.Add(RenewalThreshold).After(session.ExpiresAt) {
		session.ExpiresAt = now.Add(Duration)
		if err := m.sessions.UpdateExpiry(ctx, nil, session.ID, session.ExpiresAt); err != nil {
			return nil, err
		}
		m.logger.Debug("session_renewed",
			zap.String("session_id", session.ID.String()),
			zap.Time("expires_at", session.ExpiresAt),
		)
	}

	return session, nil
}

// DeleteByID revokes one session. Idempotent.
func (m *Manager) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return m.sessions.DeleteByID(ctx, nil, id)
}

// DeleteByUser revokes every session owned by a user and returns the
// count. Idempotent.
func (m *Manager) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.sessions.DeleteByUserID(ctx, nil, userID)
}

// DeleteExpired bulk-deletes sessions past their expiry. This backs the
// scheduled sweep; validate-time cleanup handles the hot path, the sweep
// catches sessions nobody ever presented again.
func (m *Manager) DeleteExpired(ctx context.Context) (int64, error) {
	return m.sessions.DeleteExpired(ctx, nil)
}
