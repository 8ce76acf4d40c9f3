// internal/middleware/https.go
//
// Plain-HTTP → HTTPS redirect.
package middleware

import (
	"net/http"
	"strings"
)

// ForceHTTPS returns middleware that issues a 308 Permanent Redirect to the
// HTTPS version of the URL when enabled is true, the request arrived over
// plain HTTP, and the host is not a local development host.  Requests that
// a TLS-terminating proxy marked with X-Forwarded-Proto: https pass
// through.
func ForceHTTPS(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" || isLocalHost(r.Host) {
				next.ServeHTTP(w, r)
				return
			}
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})
	}
}

func isLocalHost(host string) bool {
	h := stripPort(host)
	return h == "localhost" || h == "127.0.0.1" || h == "::1" || strings.HasSuffix(h, ".localhost")
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if strings.HasPrefix(h, "[") {
		if i := strings.IndexByte(h, ']'); i != -1 {
			return h[1:i]
		}
	}
	if i := strings.LastIndexByte(h, ':'); i != -1 && strings.Count(h, ":") == 1 {
		return h[:i]
	}
	return h
}
