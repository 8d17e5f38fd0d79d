// Package middleware holds the server's HTTP middleware chain.
package middleware

import (
	"crypto/subtle"
	"net/http"
)

// BasicAuth enforces HTTP Basic Auth against a single configured password
// when one is set (§6 "Auth is HTTP Basic when a password is configured").
// An empty password disables auth entirely, matching server.yaml's
// optional `server.password` field.
func BasicAuth(password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if password == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, pass, ok := r.BasicAuth()
			if !ok || subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="fast"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
