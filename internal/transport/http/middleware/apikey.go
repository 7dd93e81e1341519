package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKey returns middleware that compares the X-API-Key header against the
// configured key in constant time. With an empty configured key every
// request is rejected: the server must be provisioned with a key before any
// protected endpoint works.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-API-Key")
			if key == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
