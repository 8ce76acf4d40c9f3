// cmd/web/main.go
//
// Sitecraft – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load configuration (.env → conf/global.yaml → env → vault refs).
//
//  2. Start the daily rotating logger (tees to console when running in a
//     TTY).
//
//  3. Open MySQL and apply embedded migrations when database.migrate is on.
//
//  4. Prepare the MongoDB document copy.  It dials lazily, so an absent or
//     unreachable cluster never blocks boot.
//
//  5. Build the token issuer, credential store, session manager, content
//     service, and the dual-write site store.
//
//  6. Build the router:
//
//     • request id, request info, access log, recoverer, security headers
//     • /healthz, /metrics, /static/*
//     • session load → auth gate → components (home, auth, websites, api,
//       admin)
//
//  7. Serve until SIGINT/SIGTERM, then drain for shutdownGrace.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/sitecraft/internal/component"
	"github.com/yanizio/sitecraft/internal/config"
	"github.com/yanizio/sitecraft/internal/content"
	"github.com/yanizio/sitecraft/internal/credential"
	"github.com/yanizio/sitecraft/internal/database"
	"github.com/yanizio/sitecraft/internal/docstore"
	"github.com/yanizio/sitecraft/internal/form"
	"github.com/yanizio/sitecraft/internal/logger"
	"github.com/yanizio/sitecraft/internal/metrics"
	"github.com/yanizio/sitecraft/internal/middleware"
	"github.com/yanizio/sitecraft/internal/requestinfo"
	"github.com/yanizio/sitecraft/internal/server"
	"github.com/yanizio/sitecraft/internal/session"
	"github.com/yanizio/sitecraft/internal/site"
	"github.com/yanizio/sitecraft/internal/token"
	"github.com/yanizio/sitecraft/internal/view"

	_ "github.com/yanizio/sitecraft/components/admin"
	_ "github.com/yanizio/sitecraft/components/api"
	_ "github.com/yanizio/sitecraft/components/auth"
	_ "github.com/yanizio/sitecraft/components/home"
	_ "github.com/yanizio/sitecraft/components/websites"
)

const (
	shutdownGrace = 20 * time.Second
	sweepEvery    = 10 * time.Minute
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logOut, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logOut); err != nil {
		logOut.Errorw("sitecraft stopped", "err", err)
		_ = logOut.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logOut *zap.SugaredLogger) error {
	//
	// ── 1.  Relational store ────────────────────────────────────────────
	//
	logOut.Infow("connecting to MySQL")
	db, err := database.OpenWithOptions(ctx, cfg.Database.DSN, cfg.Database.MaxOpen, cfg.Database.MaxIdle)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.Database.Migrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
		logOut.Infow("migrations applied")
	}

	//
	// ── 2.  Document store (optional, lazy) ─────────────────────────────
	//
	docCli := docstore.New(docstore.Options{
		URI:            cfg.DocStore.URI,
		Database:       cfg.DocStore.Database,
		Collection:     cfg.DocStore.Collection,
		ConnectTimeout: cfg.DocStore.ConnectTimeout,
	})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = docCli.Close(closeCtx)
	}()
	var docs site.Documents
	if docCli.Enabled() {
		docs = site.NewDocuments(docCli)
	} else {
		logOut.Warnw("document store not configured; serving from MySQL only")
	}
	sites := site.NewStore(site.NewRelational(db), docs, site.Options{
		Policy:    site.MirrorPolicy(cfg.Storage.MirrorPolicy),
		ListLimit: cfg.Storage.ListLimit,
	})

	//
	// ── 3.  Auth, sessions, content ─────────────────────────────────────
	//
	tokens, err := token.New(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	form.SetSecret([]byte(cfg.Auth.Secret))

	store, err := sessionStore(ctx, cfg, logOut)
	if err != nil {
		return err
	}
	sessions := session.NewManager(store, session.Options{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	})

	var gen content.Generator
	if cfg.AI.APIKey != "" {
		gen = content.NewAIClient(content.AIOptions{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		}, nil)
	} else {
		logOut.Warnw("AI key not configured; every site uses the starter template")
	}

	geo, err := requestinfo.OpenGeo(cfg.Geo.DBPath)
	if err != nil {
		logOut.Warnw("geo database unavailable", "path", cfg.Geo.DBPath, "err", err)
	}
	defer geo.Close()

	engine, err := view.New(view.Options{Reload: cfg.Log.Level == "debug"})
	if err != nil {
		return err
	}

	//
	// ── 4.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		requestinfo.Enrich(geo),
		middleware.AccessLog(logOut),
		chimw.Recoverer,
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
		middleware.Security,
	)

	r.Get("/healthz", healthz(db))
	r.Handle("/metrics", promhttp.Handler())
	staticDir := cfg.HTTP.StaticDir
	if staticDir == "" {
		staticDir = filepath.Join(cfg.Paths.Root, "static")
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	deps := component.Deps{
		Log:         logOut,
		Config:      cfg,
		DB:          db,
		Sessions:    sessions,
		Tokens:      tokens,
		Credentials: credential.New(db, tokens),
		Sites:       sites,
		Content:     content.NewService(gen),
		View:        engine,
	}
	var mountErr error
	r.Group(func(app chi.Router) {
		app.Use(sessions.Load, middleware.AuthGate(tokens))
		mountErr = component.Mount(app, deps)
	})
	if mountErr != nil {
		return mountErr
	}

	//
	// ── 5.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, r, cfg.AI.Timeout)
	errCh := make(chan error, 1)
	go func() {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr, "mirror_policy", sites.Policy())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logOut.Infow("shutting down", "grace", shutdownGrace)
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// sessionStore picks the configured backend.  The memory store gets a
// background sweeper that also keeps the active_sessions gauge honest.
func sessionStore(ctx context.Context, cfg *config.Config, logOut *zap.SugaredLogger) (session.Store, error) {
	if cfg.Session.Backend == "redis" {
		rs, err := session.DialRedis(ctx, cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB)
		if err != nil {
			return nil, err
		}
		go func() {
			<-ctx.Done()
			_ = rs.Close()
		}()
		logOut.Infow("sessions in redis", "addr", cfg.Session.RedisAddr)
		return rs, nil
	}

	mem := session.NewMemory()
	go func() {
		t := time.NewTicker(sweepEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				metrics.ActiveSessions.Set(float64(mem.Sweep()))
			}
		}
	}()
	logOut.Infow("sessions in memory")
	return mem, nil
}

// healthz answers 200 while MySQL responds.  The document store is
// optional and not part of liveness.
func healthz(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			component.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		component.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
