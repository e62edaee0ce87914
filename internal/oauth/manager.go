package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bennettsh/authkit/internal/apperr"
	"github.com/bennettsh/authkit/internal/database"
	"github.com/bennettsh/authkit/internal/models"
	"github.com/bennettsh/authkit/internal/secrets"
	"github.com/bennettsh/authkit/internal/session"
)

// StateDuration bounds how long an issued state token stays valid. It is
// the max age of the state cookie; the state itself is never persisted.
const StateDuration = 10 * time.Minute

// Manager drives the OAuth authorization-code flow end to end.
type Manager struct {
	providers map[models.Provider]Provider
	users     database.UserStore
	accounts  database.AccountStore
	sessions  *session.Manager
	tx        database.TxRunner
	logger    *zap.Logger
}

// NewManager creates an OAuth manager over the given providers.
func NewManager(providers []Provider, users database.UserStore, accounts database.AccountStore, sessions *session.Manager, tx database.TxRunner, logger *zap.Logger) *Manager {
	byName := make(map[models.Provider]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Manager{
		providers: byName,
		users:     users,
		accounts:  accounts,
		sessions:  sessions,
		tx:        tx,
		logger:    logger,
	}
}

// Initiation is the result of starting an OAuth attempt. State is the
// plaintext state token; the caller stores only its hash, in a short-lived
// signed cookie.
type Initiation struct {
	AuthURL string
	State   string
}

// Initiate begins an OAuth attempt against the named provider.
func (m *Manager) Initiate(provider models.Provider) (*Initiation, error) {
	p, ok := m.providers[provider]
	if !ok {
		return nil, apperr.Validation(map[string]string{"provider": "unknown provider"})
	}

	state, err := secrets.GenerateToken()
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to generate state token: %w", err))
	}

	return &Initiation{AuthURL: p.AuthCodeURL(state), State: state}, nil
}

// CallbackParams carries everything the callback handler received: the
// state hash recovered from the (already cleared) cookie, the query
// parameters, and any error the provider sent instead of a code.
type CallbackParams struct {
	Provider        models.Provider
	StoredStateHash string
	QueryState      string
	Code            string
	ProviderError   string
}

// Result is a completed OAuth login: the resolved user and a fresh
// session.
type Result struct {
	User    *models.User
	Session *session.NewSession
}

// HandleCallback validates the callback against CSRF state, exchanges the
// code, fetches and normalizes the provider identity, and resolves it to a
// user: by (provider, external id) first, then by email (linking a new
// account), then by creating the user outright. The linking and creation
// paths run in one transaction so a failure never leaves a user without
// its account or session. Validation failures are deliberately
// indistinguishable to the client.
func (m *Manager) HandleCallback(ctx context.Context, params CallbackParams) (*Result, error) {
	if params.ProviderError != "" {
		return nil, apperr.Unauthorized(fmt.Errorf("provider returned error %q", params.ProviderError))
	}
	if params.StoredStateHash == "" || params.QueryState == "" || params.Code == "" {
		return nil, apperr.Unauthorized(errors.New("missing state or code"))
	}
	if !secrets.SecureCompare(params.StoredStateHash, secrets.HashToken(params.QueryState)) {
		return nil, apperr.Unauthorized(errors.New("state mismatch"))
	}

	p, ok := m.providers[params.Provider]
	if !ok {
		return nil, apperr.Unauthorized(fmt.Errorf("unknown provider %q", params.Provider))
	}

	token, err := p.Exchange(ctx, params.Code)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("code exchange failed: %w", err))
	}

	info, err := p.FetchUser(ctx, token)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("user info fetch failed: %w", err))
	}

	result, err := m.resolveUser(ctx, p.Name(), info)
	if err != nil {
		return nil, err
	}

	m.logger.Info("oauth_login",
		zap.String("provider", string(p.Name())),
		zap.String("user_id", result.User.ID.String()),
	)
	return result, nil
}

func (m *Manager) resolveUser(ctx context.Context, provider models.Provider, info *UserInfo) (*Result, error) {
	// Returning account: session only, no user/account writes.
	account, err := m.accounts.GetByProviderExternalID(ctx, nil, provider, info.ExternalID)
	if err == nil {
		user, err := m.users.GetByID(ctx, nil, account.UserID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		created, err := m.sessions.Create(ctx, nil, user.ID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		return &Result{User: user, Session: created}, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	// Existing user with the same email: link the provider to it.
	user, err := m.users.GetByEmail(ctx, nil, info.Email)
	if err == nil {
		return m.linkAccount(ctx, provider, info, user)
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	return m.createUser(ctx, provider, info)
}

func (m *Manager) linkAccount(ctx context.Context, provider models.Provider, info *UserInfo, user *models.User) (*Result, error) {
	var created *session.NewSession
	err := m.tx.WithTx(ctx, func(q database.Querier) error {
		externalID := info.ExternalID
		account := &models.Account{
			ID:         uuid.New(),
			UserID:     user.ID,
			Provider:   provider,
			ExternalID: &externalID,
		}
		if err := m.accounts.Create(ctx, q, account); err != nil {
			return err
		}

		if user.Image == nil && info.Image != nil {
			user.Image = info.Image
			if err := m.users.Update(ctx, q, user); err != nil {
				return err
			}
		}

		var err error
		created, err = m.sessions.Create(ctx, q, user.ID)
		return err
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Result{User: user, Session: created}, nil
}

func (m *Manager) createUser(ctx context.Context, provider models.Provider, info *UserInfo) (*Result, error) {
	var (
		user    *models.User
		created *session.NewSession
	)
	err := m.tx.WithTx(ctx, func(q database.Querier) error {
		now := time.Now().UTC()
		user = &models.User{
			ID:              uuid.New(),
			Name:            info.Name,
			Email:           info.Email,
			Image:           info.Image,
			EmailVerifiedAt: &now,
		}
		if err := m.users.Create(ctx, q, user); err != nil {
			return err
		}

		externalID := info.ExternalID
		account := &models.Account{
			ID:         uuid.New(),
			UserID:     user.ID,
			Provider:   provider,
			ExternalID: &externalID,
		}
		if err := m.accounts.Create(ctx, q, account); err != nil {
			return err
		}

		var err error
		created, err = m.sessions.Create(ctx, q, user.ID)
		return err
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Result{User: user, Session: created}, nil
}
