// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *RequestInfo.
//
// Context
// -------
// Sits right after request-id assignment and before the access log.  For
// every request it:
//
//  1. Parses the User-Agent header.
//  2. Extracts the left-most client IP from X-Forwarded-For or X-Real-IP,
//     falling back to r.RemoteAddr.
//  3. Performs a GeoLite2 lookup when a database is configured.
//  4. Stores *RequestInfo in the request context.
//
// Notes
// -----
// • All look-ups are read-only, so the middleware is safe under heavy
//   concurrency.
// • Oxford commas, two spaces after periods.
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

// Enrich returns middleware that attaches *RequestInfo.  geo may be nil.
func Enrich(geo *GeoDB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &RequestInfo{
				UA:        ParseUA(r.UserAgent()),
				Geo:       geo.Lookup(clientIP(r)),
				Path:      r.URL.Path,
				Timestamp: time.Now().UTC(),
			}
			ctx := context.WithValue(r.Context(), ctxKey{}, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientIP extracts the left-most parseable address from X-Forwarded-For
// or X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
