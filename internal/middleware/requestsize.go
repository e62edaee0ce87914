package middleware

import "net/http"

// DefaultMaxRequestSize caps request bodies at 1MB. Auth payloads are
// tiny; anything near this limit is abuse.
const DefaultMaxRequestSize int64 = 1 << 20

// MaxRequestSize rejects oversized request bodies.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
