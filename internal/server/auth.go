package server

import (
	"crypto/subtle"
	"net/http"
)

// AuthHeader carries the shared secret that authenticates the main backend
// to this service.
const AuthHeader = "X-Microservice-Auth"

// AuthMiddleware rejects requests whose shared-secret header does not match
// the configured value. The expected secret is never echoed back.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AuthHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid microservice authentication key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
