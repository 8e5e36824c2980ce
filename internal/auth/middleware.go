// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package auth guards the serve-mode HTTP endpoints with a static bearer
// token.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Middleware provides HTTP middleware for authentication
type Middleware struct {
	token string
}

// NewMiddleware creates a middleware requiring token. An empty token
// disables the check.
func NewMiddleware(token string) *Middleware {
	return &Middleware{token: strings.TrimSpace(token)}
}

// Enabled reports whether requests must carry a token
func (m *Middleware) Enabled() bool {
	return m.token != ""
}

// RequireAuth rejects requests without the configured bearer token
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	if !m.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="memorylane"`)
			http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(m.token)) != 1 {
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken extracts the bearer token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
	}

	// Prometheus scrape configs without auth support can use the query parameter
	return r.URL.Query().Get("access_token")
}
