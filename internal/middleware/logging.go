package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/bennettsh/authkit/internal/logger"
	"github.com/bennettsh/authkit/internal/request"
)

// Logging logs one line per request with method, sanitized path, status,
// and duration.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.Int("status", wrapped.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)

			// Failed auth attempts are security-relevant; log them at a
			// level the audit pipeline picks up.
			if wrapped.status == http.StatusUnauthorized || wrapped.status == http.StatusTooManyRequests {
				logger.Warn("security_event",
					zap.Int("status", wrapped.status),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeField(request.ClientIP(r), 64)),
				)
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}
