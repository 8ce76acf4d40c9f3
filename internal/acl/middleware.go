// internal/acl/middleware.go
//
// Chi middleware helpers that enforce RBAC.

package acl

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/sitecraft/internal/auth"
	"github.com/yanizio/sitecraft/internal/logger"
)

// RequireRole ensures the current user possesses ANY of the supplied roles.
// It must run after the auth gate, which attaches the email.
func RequireRole(db *sqlx.DB, names ...string) func(http.Handler) http.Handler {
	if len(names) == 0 {
		panic("acl.RequireRole: at least one role name must be supplied")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, ok := auth.Email(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			allowed, err := HasAnyRole(r.Context(), db, email, names)
			if err != nil {
				logger.FromContext(r.Context()).Errorw("acl role lookup", "err", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
