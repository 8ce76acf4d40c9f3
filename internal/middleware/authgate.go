// internal/middleware/authgate.go
//
// Session auth gate.
//
// Context
// -------
// Every HTML request passes through AuthGate after the session has been
// loaded.  The gate:
//
//  1. Verifies the session's auth token, if any.  A valid token puts the
//     email on the request context (auth.WithEmail) for every route, public
//     or not, so pages can show the signed-in state.
//  2. Lets allow-listed paths through unconditionally.
//  3. Answers 303 See Other → /login for everything else when the token is
//     missing or invalid.
//
// A bad token is the "not authenticated" branch, never an error.
//
// Allow-list
// ----------
//	/            exact match only
//	/login /signup /details /static/ /admin/ /api/ /healthz /metrics
//	             prefix match
package middleware

import (
	"net/http"
	"strings"

	"github.com/yanizio/sitecraft/internal/auth"
	"github.com/yanizio/sitecraft/internal/session"
)

// Verifier checks a token and returns the embedded email.
type Verifier interface {
	Verify(tok string) (string, error)
}

var publicPrefixes = []string{
	"/login",
	"/signup",
	"/details",
	"/static/",
	"/admin/",
	"/api/",
	"/healthz",
	"/metrics",
}

// IsPublic reports whether path bypasses the gate.
func IsPublic(path string) bool {
	if path == "/" {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// AuthGate returns the gate middleware.  Requires session.Manager.Load
// upstream.
func AuthGate(tokens Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := session.FromContext(r.Context())
			if s.AuthToken != "" {
				if email, err := tokens.Verify(s.AuthToken); err == nil {
					r = r.WithContext(auth.WithEmail(r.Context(), email))
					next.ServeHTTP(w, r)
					return
				}
			}
			if IsPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		})
	}
}
