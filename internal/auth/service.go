// Package auth composes the credential store, the secret utilities, and
// the session manager into the register/login/logout operations.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bennettsh/authkit/internal/apperr"
	"github.com/bennettsh/authkit/internal/database"
	"github.com/bennettsh/authkit/internal/models"
	"github.com/bennettsh/authkit/internal/secrets"
	"github.com/bennettsh/authkit/internal/session"
)

// Service is the authentication orchestrator.
type Service struct {
	users    database.UserStore
	accounts database.AccountStore
	sessions *session.Manager
	tx       database.TxRunner
	logger   *zap.Logger
}

// NewService creates an authentication service.
func NewService(users database.UserStore, accounts database.AccountStore, sessions *session.Manager, tx database.TxRunner, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		accounts: accounts,
		sessions: sessions,
		tx:       tx,
		logger:   logger,
	}
}

// Result is a completed authentication: the user and a fresh session.
type Result struct {
	User    *models.User
	Session *session.NewSession
}

// Register creates a user with a credentials account and an initial
// session, all in one transaction. A user already holding the normalized
// email yields Conflict. Password hashing happens before the transaction
// opens so the expensive derivation does not hold a connection.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Result, error) {
	email = models.NormalizeEmail(email)

	_, err := s.users.GetByEmail(ctx, nil, email)
	if err == nil {
		return nil, apperr.Conflict(fmt.Errorf("email %q already registered", email))
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hash, err := secrets.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	var (
		user    *models.User
		created *session.NewSession
	)
	err = s.tx.WithTx(ctx, func(q database.Querier) error {
		user = &models.User{
			ID:    uuid.New(),
			Name:  name,
			Email: email,
		}
		if err := s.users.Create(ctx, q, user); err != nil {
			return err
		}

		// No external id exists for password auth; the column stays null.
		account := &models.Account{
			ID:           uuid.New(),
			UserID:       user.ID,
			Provider:     models.ProviderCredentials,
			PasswordHash: &hash,
		}
		if err := s.accounts.Create(ctx, q, account); err != nil {
			return err
		}

		var err error
		created, err = s.sessions.Create(ctx, q, user.ID)
		return err
	})
	if err != nil {
		// A concurrent registration can slip past the pre-check; the
		// unique index is the authority.
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict(err)
		}
		return nil, apperr.Internal(err)
	}

	s.logger.Info("user_registered", zap.String("user_id", user.ID.String()))
	return &Result{User: user, Session: created}, nil
}

// Login verifies credentials and issues a new session. Every failure mode
// (unknown email, no credentials account, wrong password) collapses into
// the same Unauthorized error so callers cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = models.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, nil, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.Unauthorized(errors.New("unknown email"))
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	account, err := s.accounts.GetByUserAndProvider(ctx, nil, user.ID, models.ProviderCredentials)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.Unauthorized(errors.New("no credentials account"))
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if account.PasswordHash == nil {
		return nil, apperr.Unauthorized(errors.New("credentials account has no password hash"))
	}

	ok, err := secrets.VerifyPassword(password, *account.PasswordHash)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to verify password: %w", err))
	}
	if !ok {
		return nil, apperr.Unauthorized(errors.New("password mismatch"))
	}

	created, err := s.sessions.Create(ctx, nil, user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("user_logged_in", zap.String("user_id", user.ID.String()))
	return &Result{User: user, Session: created}, nil
}

// Logout revokes one session. Idempotent.
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// LogoutAll revokes every session the user owns and returns the count.
// Idempotent.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return count, nil
}

// DeleteUser removes the user; accounts and sessions cascade at the
// store.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, nil, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperr.Unauthorized(err)
		}
		return apperr.Internal(err)
	}
	s.logger.Info("user_deleted", zap.String("user_id", userID.String()))
	return nil
}
