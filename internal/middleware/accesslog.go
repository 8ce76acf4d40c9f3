// internal/middleware/accesslog.go
//
// Structured access log.
//
// Context
// -------
// Runs after chi's RequestID and requestinfo.Enrich.  It attaches a child
// logger carrying request_id and path to the request context
// (logger.WithContext) so handlers and stores log with the same fields,
// then writes one INFO line per request once the handler returns.
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/sitecraft/internal/logger"
	"github.com/yanizio/sitecraft/internal/requestinfo"
)

// AccessLog returns the access-log middleware bound to base.
func AccessLog(base *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := base.With(
				"request_id", chimw.GetReqID(r.Context()),
				"path", r.URL.Path,
			)
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []any{
				"method", r.Method,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				fields = append(fields,
					"browser", info.UA.Browser,
					"device", info.UA.Device,
					"bot", info.UA.IsBot,
					"country", info.Geo.CountryISO,
				)
			}
			reqLog.Infow("http request", fields...)
		})
	}
}
