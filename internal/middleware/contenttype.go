package middleware

import (
	"net/http"
	"strings"
)

// ContentType requires application/json on methods that carry a body.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := r.Header.Get("Content-Type")
			if ct == "" {
				respondError(w, http.StatusBadRequest, "Content-Type header is required")
				return
			}
			if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				respondError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
