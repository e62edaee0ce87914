package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bennettsh/authkit/internal/models"
)

// UserStore defines the interface for user persistence.
// These interfaces enable better testability by allowing mock implementations.
type UserStore interface {
	Create(ctx context.Context, q Querier, user *models.User) error
	GetByEmail(ctx context.Context, q Querier, email string) (*models.User, error)
	GetByID(ctx context.Context, q Querier, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, q Querier, user *models.User) error
	Delete(ctx context.Context, q Querier, id uuid.UUID) error
}

// AccountStore defines the interface for account persistence.
type AccountStore interface {
	Create(ctx context.Context, q Querier, account *models.Account) error
	GetByUserAndProvider(ctx context.Context, q Querier, userID uuid.UUID, provider models.Provider) (*models.Account, error)
	GetByProviderExternalID(ctx context.Context, q Querier, provider models.Provider, externalID string) (*models.Account, error)
}

// SessionStore defines the interface for session persistence.
type SessionStore interface {
	Create(ctx context.Context, q Querier, session *models.Session) error
	GetByTokenHash(ctx context.Context, q Querier, tokenHash string) (*models.Session, error)
	UpdateExpiry(ctx context.Context, q Querier, id uuid.UUID, expiresAt time.Time) error
	DeleteByID(ctx context.Context, q Querier, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, q Querier, userID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, q Querier) (int64, error)
}

// TxRunner runs a function inside a database transaction. Services use it
// to compose multi-row writes (registration, OAuth account linking)
// without reaching for the pool directly.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q Querier) error) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserStore    = (*UserRepository)(nil)
	_ AccountStore = (*AccountRepository)(nil)
	_ SessionStore = (*SessionRepository)(nil)
	_ TxRunner     = (*DB)(nil)
)
