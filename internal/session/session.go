// internal/session/session.go
//
// Server-side sessions.
//
// Context
// -------
// The browser holds only an opaque random id in the session cookie.  The
// data lives in a Store (in-process map or Redis) keyed by that id:
//
//	auth_token        signed token issued at login
//	user_email        convenience copy of the token subject
//	mongo_website_id  document id of the last site created in this session
//	flash             one-shot message shown on the next page
//
// Workflow
// --------
//   1. Manager.Load middleware reads the cookie and attaches *Session to
//      the request context (an empty one when the cookie is absent or
//      stale).
//   2. Handlers mutate the session and call Manager.Save.
//   3. LoginUser rotates the id, LogoutUser destroys it.
//
// Notes
// -----
// • Two-space sentence spacing, Oxford comma, terse inline notes.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yanizio/sitecraft/internal/logger"
	"github.com/yanizio/sitecraft/internal/metrics"
)

// ErrNotFound is returned by stores for unknown or expired ids.
var ErrNotFound = errors.New("session not found")

// Data is the persisted part of a session.
type Data struct {
	AuthToken      string `json:"auth_token,omitempty"`
	Email          string `json:"user_email,omitempty"`
	MongoWebsiteID string `json:"mongo_website_id,omitempty"`
	Flash          string `json:"flash,omitempty"`
}

// Session is one visitor's state for the current request.
type Session struct {
	ID string
	Data
}

// Store persists session data.
type Store interface {
	Load(ctx context.Context, id string) (Data, error)
	Save(ctx context.Context, id string, d Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Options configures a Manager.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager binds a Store to HTTP cookies.
type Manager struct {
	store Store
	opts  Options
}

// NewManager returns a Manager with defaults filled in.
func NewManager(store Store, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "sitecraft_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 14 * 24 * time.Hour
	}
	return &Manager{store: store, opts: opts}
}

type ctxKey struct{}

// FromContext returns the request's session.  It never returns nil.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok && s != nil {
		return s
	}
	return &Session{}
}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Load is middleware that attaches the session named by the cookie.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := &Session{}
		if c, err := r.Cookie(m.opts.CookieName); err == nil && c.Value != "" {
			d, err := m.store.Load(r.Context(), c.Value)
			switch {
			case err == nil:
				s = &Session{ID: c.Value, Data: d}
			case !errors.Is(err, ErrNotFound):
				logger.FromContext(r.Context()).Warnw("session load failed", "err", err)
			}
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// Save persists s, assigning an id and setting the cookie on first save.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	fresh := s.ID == ""
	if fresh {
		s.ID = uuid.NewString()
	}
	if err := m.store.Save(r.Context(), s.ID, s.Data, m.opts.TTL); err != nil {
		return err
	}
	if fresh {
		metrics.ActiveSessions.Inc()
	}
	m.setCookie(w, s.ID, m.opts.TTL)
	return nil
}

// LoginUser stores the token and email under a fresh session id.
func (m *Manager) LoginUser(w http.ResponseWriter, r *http.Request, email, token string) error {
	s := FromContext(r.Context())
	if s.ID != "" {
		m.destroy(r.Context(), s.ID)
	}
	s.ID = ""
	s.Data = Data{AuthToken: token, Email: email}
	return m.Save(w, r, s)
}

// LogoutUser destroys the session and clears the cookie.
func (m *Manager) LogoutUser(w http.ResponseWriter, r *http.Request) {
	s := FromContext(r.Context())
	if s.ID != "" {
		m.destroy(r.Context(), s.ID)
	}
	*s = Session{}
	m.setCookie(w, "", -1)
}

// SetFlash queues msg for the next page view.
func (m *Manager) SetFlash(w http.ResponseWriter, r *http.Request, msg string) error {
	s := FromContext(r.Context())
	s.Flash = msg
	return m.Save(w, r, s)
}

// PopFlash returns and clears the pending flash message.
func (m *Manager) PopFlash(w http.ResponseWriter, r *http.Request) string {
	s := FromContext(r.Context())
	msg := s.Flash
	if msg == "" {
		return ""
	}
	s.Flash = ""
	if err := m.Save(w, r, s); err != nil {
		logger.FromContext(r.Context()).Warnw("session save failed", "err", err)
	}
	return msg
}

// CurrentEmail returns the email stored in the session, if any.
func CurrentEmail(r *http.Request) (string, bool) {
	s := FromContext(r.Context())
	return s.Email, s.Email != ""
}

func (m *Manager) destroy(ctx context.Context, id string) {
	err := m.store.Delete(ctx, id)
	switch {
	case err == nil:
		metrics.ActiveSessions.Dec()
	case !errors.Is(err, ErrNotFound):
		logger.FromContext(ctx).Warnw("session delete failed", "err", err)
	}
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, c)
}
