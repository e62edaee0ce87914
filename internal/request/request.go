// Package request holds per-request helpers shared by middleware and
// handlers.
package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/bennettsh/authkit/internal/models"
)

type contextKey string

const (
	userContextKey    contextKey = "user"
	sessionContextKey contextKey = "session"
)

// ClientIP extracts the client IP from the request, respecting
// X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithSession returns a context carrying the validated session (and
// through it, the user).
func WithSession(ctx context.Context, session *models.Session) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, session)
	if session != nil && session.User != nil {
		ctx = context.WithValue(ctx, userContextKey, session.User)
	}
	return ctx
}

// SessionFromContext returns the validated session, or nil.
func SessionFromContext(r *http.Request) *models.Session {
	s, _ := r.Context().Value(sessionContextKey).(*models.Session)
	return s
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(r *http.Request) *models.User {
	u, _ := r.Context().Value(userContextKey).(*models.User)
	return u
}
