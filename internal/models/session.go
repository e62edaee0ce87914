package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-side proof of authentication. Only the SHA-256
// digest of the session token is ever persisted; the plaintext token
// exists exactly once, in the response that created the session.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// User is populated on lookups that join the owning user.
	User *User `json:"user,omitempty"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
