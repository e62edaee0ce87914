// Package fake provides an in-memory credential store for tests. It
// honors the same uniqueness constraints as the Postgres schema and
// surfaces violations as pq unique-violation errors so production error
// mapping can be exercised.
package fake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bennettsh/authkit/internal/database"
	"github.com/bennettsh/authkit/internal/models"
)

// Store holds the in-memory tables. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	accounts map[uuid.UUID]*models.Account
	sessions map[uuid.UUID]*models.Session

	// Err, when set, makes every operation fail with it. Used to test
	// store-unavailability propagation.
	Err error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*models.User),
		accounts: make(map[uuid.UUID]*models.Account),
		sessions: make(map[uuid.UUID]*models.Session),
	}
}

func uniqueViolation(constraint string) error {
	return fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: constraint})
}

// Users returns the store's UserStore facade.
func (s *Store) Users() database.UserStore { return &userStore{s} }

// Accounts returns the store's AccountStore facade.
func (s *Store) Accounts() database.AccountStore { return &accountStore{s} }

// Sessions returns the store's SessionStore facade.
func (s *Store) Sessions() database.SessionStore { return &sessionStore{s} }

// WithTx satisfies database.TxRunner. The fake has no real transactions;
// fn runs against the store directly.
func (s *Store) WithTx(ctx context.Context, fn func(q database.Querier) error) error {
	if s.Err != nil {
		return s.Err
	}
	return fn(nil)
}

// SetSessionExpiry rewrites a session's expiry directly, bypassing the
// store API. Tests use it to force expired or near-expiry sessions.
func (s *Store) SetSessionExpiry(id uuid.UUID, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.ExpiresAt = expiresAt
	}
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SessionByID returns a copy of the stored session, or nil.
func (s *Store) SessionByID(id uuid.UUID) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	cp := *sess
	return &cp
}

// UserByID returns a copy of the stored user, or nil.
func (s *Store) UserByID(id uuid.UUID) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

// AccountCount returns the number of stored accounts.
func (s *Store) AccountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

type userStore struct{ s *Store }

func (us *userStore) Create(ctx context.Context, q database.Querier, user *models.User) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	if us.s.Err != nil {
		return us.s.Err
	}
	for _, u := range us.s.users {
		if u.Email == user.Email {
			return uniqueViolation("users_email_key")
		}
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	us.s.users[user.ID] = &cp
	return nil
}

func (us *userStore) GetByEmail(ctx context.Context, q database.Querier, email string) (*models.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	if us.s.Err != nil {
		return nil, us.s.Err
	}
	for _, u := range us.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user by email: %w", database.ErrNotFound)
}

func (us *userStore) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	if us.s.Err != nil {
		return nil, us.s.Err
	}
	u, ok := us.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user by id: %w", database.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (us *userStore) Update(ctx context.Context, q database.Querier, user *models.User) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	if us.s.Err != nil {
		return us.s.Err
	}
	if _, ok := us.s.users[user.ID]; !ok {
		return fmt.Errorf("update user: %w", database.ErrNotFound)
	}
	user.UpdatedAt = time.Now().UTC()
	cp := *user
	us.s.users[user.ID] = &cp
	return nil
}

func (us *userStore) Delete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	if us.s.Err != nil {
		return us.s.Err
	}
	if _, ok := us.s.users[id]; !ok {
		return fmt.Errorf("delete user: %w", database.ErrNotFound)
	}
	delete(us.s.users, id)
	// Cascade, mirroring the schema's ON DELETE CASCADE.
	for aid, a := range us.s.accounts {
		if a.UserID == id {
			delete(us.s.accounts, aid)
		}
	}
	for sid, sess := range us.s.sessions {
		if sess.UserID == id {
			delete(us.s.sessions, sid)
		}
	}
	return nil
}

type accountStore struct{ s *Store }

func (as *accountStore) Create(ctx context.Context, q database.Querier, account *models.Account) error {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()
	if as.s.Err != nil {
		return as.s.Err
	}
	for _, a := range as.s.accounts {
		if a.UserID == account.UserID && a.Provider == account.Provider {
			return uniqueViolation("accounts_user_id_provider_key")
		}
		if account.ExternalID != nil && a.ExternalID != nil &&
			a.Provider == account.Provider && *a.ExternalID == *account.ExternalID {
			return uniqueViolation("accounts_provider_external_id_key")
		}
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	cp := *account
	as.s.accounts[account.ID] = &cp
	return nil
}

func (as *accountStore) GetByUserAndProvider(ctx context.Context, q database.Querier, userID uuid.UUID, provider models.Provider) (*models.Account, error) {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()
	if as.s.Err != nil {
		return nil, as.s.Err
	}
	for _, a := range as.s.accounts {
		if a.UserID == userID && a.Provider == provider {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("account by user and provider: %w", database.ErrNotFound)
}

func (as *accountStore) GetByProviderExternalID(ctx context.Context, q database.Querier, provider models.Provider, externalID string) (*models.Account, error) {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()
	if as.s.Err != nil {
		return nil, as.s.Err
	}
	for _, a := range as.s.accounts {
		if a.Provider == provider && a.ExternalID != nil && *a.ExternalID == externalID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("account by provider external id: %w", database.ErrNotFound)
}

type sessionStore struct{ s *Store }

func (ss *sessionStore) Create(ctx context.Context, q database.Querier, session *models.Session) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	if ss.s.Err != nil {
		return ss.s.Err
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	cp := *session
	cp.User = nil
	ss.s.sessions[session.ID] = &cp
	return nil
}

func (ss *sessionStore) GetByTokenHash(ctx context.Context, q database.Querier, tokenHash string) (*models.Session, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	if ss.s.Err != nil {
		return nil, ss.s.Err
	}
	for _, sess := range ss.s.sessions {
		if sess.TokenHash == tokenHash {
			cp := *sess
			if u, ok := ss.s.users[sess.UserID]; ok {
				ucp := *u
				cp.User = &ucp
			}
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("session by token hash: %w", database.ErrNotFound)
}

func (ss *sessionStore) UpdateExpiry(ctx context.Context, q database.Querier, id uuid.UUID, expiresAt time.Time) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	if ss.s.Err != nil {
		return ss.s.Err
	}
	if sess, ok := ss.s.sessions[id]; ok {
		sess.ExpiresAt = expiresAt
		sess.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (ss *sessionStore) DeleteByID(ctx context.Context, q database.Querier, id uuid.UUID) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	if ss.s.Err != nil {
		return ss.s.Err
	}
	delete(ss.s.sessions, id)
	return nil
}

func (ss *sessionStore) DeleteByUserID(ctx context.Context, q database.Querier, userID uuid.UUID) (int64, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	if ss.s.Err != nil {
		return 0, ss.s.Err
	}
	var n int64
	for id, sess := range ss.s.sessions {
		if sess.UserID == userID {
			delete(ss.s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (ss *sessionStore) DeleteExpired(ctx context.Context, q database.Querier) (int64, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	if ss.s.Err != nil {
		return 0, ss.s.Err
	}
	now := time.Now().UTC()
	var n int64
	for id, sess := range ss.s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(ss.s.sessions, id)
			n++
		}
	}
	return n, nil
}
