// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Defaults:
//
//   • ReadHeaderTimeout – abort slow-loris headers (5 s)
//   • ReadTimeout       – cap request body reads (10 s)
//   • WriteTimeout      – cap total response time; stretched past the AI
//                         deadline so /generate can still fall back and
//                         render
//   • IdleTimeout       – close keep-alives on idle clients (60 s)
package server

import (
	"net/http"
	"time"
)

const (
	baseWrite = 15 * time.Second
)

// New constructs an *http.Server.  slowest is the longest upstream call a
// handler may block on (the AI deadline); WriteTimeout covers it plus the
// base budget.
func New(addr string, handler http.Handler, slowest time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      baseWrite + slowest,
		IdleTimeout:       60 * time.Second,
	}
}
