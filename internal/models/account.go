package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies an authentication method bound to an account.
type Provider string

const (
	ProviderCredentials Provider = "credentials"
	ProviderGoogle      Provider = "google"
	ProviderGitHub      Provider = "github"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderCredentials, ProviderGoogle, ProviderGitHub:
		return true
	}
	return false
}

// OAuth reports whether p is an external OAuth provider.
func (p Provider) OAuth() bool {
	return p == ProviderGoogle || p == ProviderGitHub
}

// Account binds one user to one authentication provider. Credentials
// accounts carry a password hash and a nil external id; OAuth accounts
// carry the provider-assigned external id and a nil password hash.
type Account struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Provider     Provider  `json:"provider"`
	ExternalID   *string   `json:"external_id,omitempty"`
	PasswordHash *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
