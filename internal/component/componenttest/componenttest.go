// Package componenttest wires components against in-memory fakes so handler
// tests run without MySQL, MongoDB, Redis, or an AI endpoint.
//
//	kit := componenttest.New(t, componenttest.Options{
//		Components: []component.Component{&websites.Component{}},
//	})
//	cookie := kit.Login(t, "owner@blueoak.test")
//	rec := kit.Do(componenttest.PostForm("/generate", vals, cookie))
package componenttest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap/zaptest"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/component"
	"github.com/yanizio/sitecraft/internal/config"
	"github.com/yanizio/sitecraft/internal/content"
	"github.com/yanizio/sitecraft/internal/form"
	"github.com/yanizio/sitecraft/internal/middleware"
	"github.com/yanizio/sitecraft/internal/session"
	"github.com/yanizio/sitecraft/internal/site"
	"github.com/yanizio/sitecraft/internal/token"
	"github.com/yanizio/sitecraft/internal/view"
)

// CookieName is the session cookie used by every Kit.
const CookieName = "sitecraft_test"

// Options selects what a Kit mounts.
type Options struct {
	Components []component.Component
	DB         *sqlx.DB
	Policy     site.MirrorPolicy
}

// Kit is a router plus the fakes behind it.
type Kit struct {
	Deps     component.Deps
	Store    *session.Memory
	Sites    *FakeSites
	Creds    *FakeCredentials
	AI       *StubAI
	Router   chi.Router
	Config   *config.Config
	Sessions *session.Manager
}

// New builds a Kit and mounts opts.Components behind the session loader and
// the auth gate, the same order cmd/web uses.
func New(t testing.TB, opts Options) *Kit {
	t.Helper()
	form.SetSecret([]byte("componenttest"))

	tokens, err := token.New("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	engine, err := view.New(view.Options{Reload: true})
	if err != nil {
		t.Fatalf("view engine: %v", err)
	}
	if opts.Policy == "" {
		opts.Policy = site.MirrorCanonical
	}

	cfg := &config.Config{}
	cfg.Auth.AdminRole = "admin"
	cfg.Storage.MirrorPolicy = string(opts.Policy)
	cfg.Storage.ListLimit = 20
	cfg.HTTP.CORSOrigins = []string{"*"}

	store := session.NewMemory()
	mgr := session.NewManager(store, session.Options{CookieName: CookieName, TTL: time.Hour})
	ai := &StubAI{}

	k := &Kit{
		Store:    store,
		Sites:    NewFakeSites(opts.Policy),
		Creds:    &FakeCredentials{tokens: tokens, users: map[string]string{}},
		AI:       ai,
		Config:   cfg,
		Sessions: mgr,
	}
	k.Deps = component.Deps{
		Log:         zaptest.NewLogger(t).Sugar(),
		Config:      cfg,
		DB:          opts.DB,
		Sessions:    mgr,
		Tokens:      tokens,
		Credentials: k.Creds,
		Sites:       k.Sites,
		Content:     content.NewService(ai),
		View:        engine,
	}

	r := chi.NewRouter()
	r.Use(mgr.Load, middleware.AuthGate(tokens))
	for _, c := range opts.Components {
		if err := c.Init(k.Deps); err != nil {
			t.Fatalf("init %s: %v", c.Name(), err)
		}
		c.Routes(r)
	}
	k.Router = r
	return k
}

// Do serves req and returns the recorder.
func (k *Kit) Do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	k.Router.ServeHTTP(w, req)
	return w
}

// Login stores a signed-in session for email and returns its cookie.
func (k *Kit) Login(t testing.TB, email string) *http.Cookie {
	t.Helper()
	tok, err := k.Deps.Tokens.Issue(email)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return k.SessionWith(t, session.Data{AuthToken: tok, Email: email})
}

// SessionWith stores d under a fresh id and returns its cookie.
func (k *Kit) SessionWith(t testing.TB, d session.Data) *http.Cookie {
	t.Helper()
	id := uuid.NewString()
	if err := k.Store.Save(context.Background(), id, d, time.Hour); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return &http.Cookie{Name: CookieName, Value: id}
}

// Session loads the data behind cookie.  A missing session returns zero Data.
func (k *Kit) Session(c *http.Cookie) session.Data {
	if c == nil {
		return session.Data{}
	}
	d, _ := k.Store.Load(context.Background(), c.Value)
	return d
}

// ResponseCookie returns the session cookie set by rec, or nil.
func ResponseCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

// Get builds a GET request carrying cookies.
func Get(path string, cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

// PostForm builds a form POST with a valid CSRF token and an old enough
// render timestamp.
func PostForm(path string, vals url.Values, cookies ...*http.Cookie) *http.Request {
	v := url.Values{}
	for k, vv := range vals {
		v[k] = vv
	}
	tok, _ := form.GenerateToken()
	v.Set("csrf_token", tok)
	v.Set("render_ts", strconv.FormatInt(time.Now().Add(-time.Minute).UnixMicro(), 10))

	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

// JSON builds an API request with an optional bearer token.
func JSON(method, path, body, bearer string) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		r.Header.Set("Authorization", "Bearer "+bearer)
	}
	return r
}

// StubAI is a content.Generator with canned output.
type StubAI struct {
	mu      sync.Mutex
	Content content.Content
	Err     error
	Calls   int
}

func (s *StubAI) Generate(_ context.Context, _ content.Request) (content.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return content.Content{}, s.Err
	}
	if s.Content.IsZero() {
		return content.Content{}, fmt.Errorf("stub: no content: %w", apperr.ErrExternalService)
	}
	return s.Content, nil
}

// CallCount returns how many times Generate ran.
func (s *StubAI) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}

// FakeCredentials keeps plain passwords in a map.
type FakeCredentials struct {
	mu     sync.Mutex
	tokens *token.Issuer
	users  map[string]string
}

func (f *FakeCredentials) Register(_ context.Context, email, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return fmt.Errorf("email and password required: %w", apperr.ErrValidation)
	}
	if _, dup := f.users[email]; dup {
		return fmt.Errorf("register %s: %w", email, apperr.ErrDuplicateEmail)
	}
	f.users[email] = password
	return nil
}

func (f *FakeCredentials) Authenticate(_ context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	if pw, ok := f.users[email]; !ok || pw != password {
		return "", apperr.ErrInvalidCredentials
	}
	return f.tokens.Issue(email)
}

// Has reports whether email is registered.
func (f *FakeCredentials) Has(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[email]
	return ok
}

// UpdateCall records one Update or Delete.
type UpdateCall struct {
	ID     string
	Patch  site.Patch
	Bridge site.Bridge
}

// FakeSites is an in-memory component.Sites.  Records are keyed by a
// 24-hex document id, as if both copies were written.
type FakeSites struct {
	mu      sync.Mutex
	policy  site.MirrorPolicy
	next    int64
	records map[string]*site.Record

	CreateErr     error
	CreateWarning string
	UpdateErr     error
	ListErr       error
	StatsValue    site.Stats

	Creates []site.Record
	Updates []UpdateCall
	Deletes []UpdateCall
}

// NewFakeSites returns an empty store.
func NewFakeSites(p site.MirrorPolicy) *FakeSites {
	return &FakeSites{policy: p, records: map[string]*site.Record{}}
}

func (f *FakeSites) Policy() site.MirrorPolicy { return f.policy }

func (f *FakeSites) Create(_ context.Context, rec site.Record) (site.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Creates = append(f.Creates, rec)
	if f.CreateErr != nil {
		return site.CreateResult{}, f.CreateErr
	}
	f.next++
	rec.SQLID = f.next
	rec.DocID = fmt.Sprintf("%024x", f.next)
	rec.ID = rec.DocID
	if rec.Slug == "" {
		rec.Slug = site.MakeSlug(rec.BusinessName)
	}
	now := time.Now().Add(time.Duration(f.next) * time.Second)
	rec.CreatedAt, rec.UpdatedAt = now, now
	f.records[rec.DocID] = &rec
	return site.CreateResult{
		ID: rec.DocID, DocID: rec.DocID, SQLID: rec.SQLID,
		Provenance: site.ProvenanceDocument, Warning: f.CreateWarning,
	}, nil
}

// Put stores rec directly (test setup) and returns its id.
func (f *FakeSites) Put(rec site.Record) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	rec.SQLID = f.next
	rec.DocID = fmt.Sprintf("%024x", f.next)
	rec.ID = rec.DocID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().Add(time.Duration(f.next) * time.Second)
	}
	f.records[rec.DocID] = &rec
	return rec.DocID
}

// Record returns a copy of the stored record, or nil.
func (f *FakeSites) Record(id string) *site.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r := f.lookup(id); r != nil {
		cp := *r
		return &cp
	}
	return nil
}

func (f *FakeSites) lookup(id string) *site.Record {
	if r, ok := f.records[id]; ok {
		return r
	}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		for _, r := range f.records {
			if r.SQLID == n {
				return r
			}
		}
	}
	return nil
}

func (f *FakeSites) Get(_ context.Context, id string) (*site.Record, site.Provenance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.lookup(id)
	if r == nil {
		return nil, "", fmt.Errorf("website %s: %w", id, apperr.ErrNotFound)
	}
	cp := *r
	return &cp, site.ProvenanceDocument, nil
}

func (f *FakeSites) ListByOwner(_ context.Context, email string, opts site.ListOptions) ([]site.Record, site.Provenance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, "", f.ListErr
	}
	var out []site.Record
	for _, r := range f.records {
		if r.OwnerEmail == email {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if opts.Skip > len(out) {
		opts.Skip = len(out)
	}
	out = out[opts.Skip:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, site.ProvenanceDocument, nil
}

func (f *FakeSites) Update(_ context.Context, id string, p site.Patch, b site.Bridge) (site.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updates = append(f.Updates, UpdateCall{id, p, b})
	if f.UpdateErr != nil {
		return site.WriteResult{}, f.UpdateErr
	}
	r := f.lookup(id)
	if r == nil {
		return site.WriteResult{}, fmt.Errorf("website %s: %w", id, apperr.ErrNotFound)
	}
	p.Apply(r)
	mirrored := f.policy == site.MirrorCanonical || b.DocID == r.DocID
	return site.WriteResult{SQLID: r.SQLID, Mirrored: mirrored}, nil
}

func (f *FakeSites) Delete(_ context.Context, id string, b site.Bridge) (site.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deletes = append(f.Deletes, UpdateCall{ID: id, Bridge: b})
	r := f.lookup(id)
	if r == nil {
		return site.WriteResult{}, fmt.Errorf("website %s: %w", id, apperr.ErrNotFound)
	}
	delete(f.records, r.DocID)
	mirrored := f.policy == site.MirrorCanonical || b.DocID == r.DocID
	return site.WriteResult{SQLID: r.SQLID, Mirrored: mirrored}, nil
}

func (f *FakeSites) Stats(_ context.Context) (site.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.StatsValue
	st.Policy = f.policy
	return st, nil
}

var _ component.Sites = (*FakeSites)(nil)
var _ component.Credentials = (*FakeCredentials)(nil)
var _ content.Generator = (*StubAI)(nil)
