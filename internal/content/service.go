// internal/content/service.go
//
// Generation with guaranteed fallback.
package content

import (
	"context"

	"github.com/yanizio/sitecraft/internal/logger"
	"github.com/yanizio/sitecraft/internal/metrics"
)

// Generator produces website content for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (Content, error)
}

// Outcome tells the caller how content was produced.
type Outcome struct {
	FellBack bool
	Note     string
}

// FallbackNote is shown to users when the template was used.
const FallbackNote = "AI generation was unavailable, so a starter template was used."

// Service never fails on generator errors; it substitutes Fallback.
type Service struct {
	gen Generator
}

// NewService wraps gen.  A nil gen always falls back.
func NewService(gen Generator) *Service { return &Service{gen: gen} }

// Generate validates req, then calls the generator exactly once.  Only
// validation errors are returned.
func (s *Service) Generate(ctx context.Context, req Request) (Content, Outcome, error) {
	if err := req.Validate(); err != nil {
		return Content{}, Outcome{}, err
	}
	if s.gen != nil {
		c, err := s.gen.Generate(ctx, req)
		if err == nil && !c.IsZero() {
			metrics.ContentGenerationsTotal.WithLabelValues(string(c.Kind)).Inc()
			return c, Outcome{}, nil
		}
		if err != nil {
			logger.FromContext(ctx).Warnw("content generation failed", "err", err)
		}
	}
	metrics.ContentGenerationsTotal.WithLabelValues("fallback").Inc()
	return Fallback(req), Outcome{FellBack: true, Note: FallbackNote}, nil
}
