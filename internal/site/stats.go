// internal/site/stats.go
//
// Storage diagnostics for /admin/storage.
package site

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Stats summarises both backends.
type Stats struct {
	Policy        MirrorPolicy
	RelationalOK  bool
	RelationalErr string
	RowCount      int64
	Doc           DocStats
}

// Stats probes both stores concurrently.  Probe failures are reported in
// the result; the returned error is reserved for context cancellation.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Policy: s.policy}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.rows.Count(gctx)
		if err != nil {
			st.RelationalErr = err.Error()
			return nil
		}
		st.RelationalOK, st.RowCount = true, n
		return nil
	})
	g.Go(func() error {
		if s.docs == nil {
			st.Doc = DocStats{URI: "Not configured", Error: "document store not configured"}
			return nil
		}
		st.Doc = s.docs.Stats(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return st, err
	}
	return st, ctx.Err()
}
