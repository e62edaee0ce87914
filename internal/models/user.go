package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents an identity in the system. A user owns zero or more
// accounts (credential bindings) and zero or more sessions.
type User struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Image           *string    `json:"image,omitempty"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NormalizeEmail lowercases and trims an email address. Every uniqueness
// check and every write of an email must go through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
