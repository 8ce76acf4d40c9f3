// internal/component/deps.go
//
// Shared process resources handed to every component during Init.
//
// Notes
// -----
// • Services are declared as small interfaces so component tests can swap
//   in fakes without a database.
// • DB is used only for ACL lookups; site and credential SQL stays behind
//   their own packages.
package component

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/sitecraft/internal/config"
	"github.com/yanizio/sitecraft/internal/content"
	"github.com/yanizio/sitecraft/internal/session"
	"github.com/yanizio/sitecraft/internal/site"
	"github.com/yanizio/sitecraft/internal/token"
	"github.com/yanizio/sitecraft/internal/view"
)

// Credentials registers and authenticates accounts.
type Credentials interface {
	Register(ctx context.Context, email, password string) error
	Authenticate(ctx context.Context, email, password string) (string, error)
}

// Sites is the dual-write website store.
type Sites interface {
	Policy() site.MirrorPolicy
	Create(ctx context.Context, rec site.Record) (site.CreateResult, error)
	Get(ctx context.Context, id string) (*site.Record, site.Provenance, error)
	ListByOwner(ctx context.Context, email string, opts site.ListOptions) ([]site.Record, site.Provenance, error)
	Update(ctx context.Context, id string, p site.Patch, b site.Bridge) (site.WriteResult, error)
	Delete(ctx context.Context, id string, b site.Bridge) (site.WriteResult, error)
	Stats(ctx context.Context) (site.Stats, error)
}

// Generator produces website content, falling back when the AI is down.
type Generator interface {
	Generate(ctx context.Context, req content.Request) (content.Content, content.Outcome, error)
}

// Deps bundles everything a component may need.
type Deps struct {
	Log         *zap.SugaredLogger
	Config      *config.Config
	DB          *sqlx.DB
	Sessions    *session.Manager
	Tokens      *token.Issuer
	Credentials Credentials
	Sites       Sites
	Content     Generator
	View        *view.Engine
}

// Compile-time checks against the concrete implementations.
var (
	_ Sites     = (*site.Store)(nil)
	_ Generator = (*content.Service)(nil)
)
