package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/bennettsh/authkit/internal/cookies"
	"github.com/bennettsh/authkit/internal/request"
	"github.com/bennettsh/authkit/internal/session"
)

// SessionAuth validates the signed session cookie and injects the session
// and its user into the request context. Requests without a valid session
// get a generic 401; the response never says whether the cookie was
// missing, tampered with, unknown, or expired.
func SessionAuth(sessions *session.Manager, signer *cookies.Signer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := signer.Read(r, cookies.SessionCookie)
			if !ok {
				respondUnauthorized(w)
				return
			}

			validated, err := sessions.Validate(r.Context(), token)
			if err != nil {
				logger.Error("session_validation_failed", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if validated == nil {
				respondUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithSession(r.Context(), validated)))
		})
	}
}

func respondUnauthorized(w http.ResponseWriter) {
	respondError(w, http.StatusUnauthorized, "Unauthorized")
}
