// internal/middleware/bearer.go
//
// Bearer-token authentication for the JSON API.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yanizio/sitecraft/internal/auth"
)

// Bearer rejects requests without a valid "Authorization: Bearer <token>"
// header with 401 and a JSON error body.  On success the email is placed
// on the request context.
func Bearer(tokens Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			tok, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || strings.TrimSpace(tok) == "" {
				unauthorized(w, "missing bearer token")
				return
			}
			email, err := tokens.Verify(strings.TrimSpace(tok))
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithEmail(r.Context(), email)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
