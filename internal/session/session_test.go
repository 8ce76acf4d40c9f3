package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/sitecraft/internal/metrics"
)

// roundTrip runs h behind the Load middleware with the given cookies.
func roundTrip(m *Manager, h http.HandlerFunc, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	m.Load(h).ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sitecraft_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestLoginPersistsAcrossRequests(t *testing.T) {
	m := NewManager(NewMemory(), Options{})

	rec := roundTrip(m, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.LoginUser(w, r, "o@x.test", "tok"))
	})
	c := sessionCookie(t, rec)
	assert.True(t, c.HttpOnly)
	assert.NotEmpty(t, c.Value)

	roundTrip(m, func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		assert.Equal(t, c.Value, s.ID)
		assert.Equal(t, "tok", s.AuthToken)
		email, ok := CurrentEmail(r)
		assert.True(t, ok)
		assert.Equal(t, "o@x.test", email)
	}, c)
}

func TestLoginRotatesID(t *testing.T) {
	store := NewMemory()
	m := NewManager(store, Options{})

	first := sessionCookie(t, roundTrip(m, func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		s.MongoWebsiteID = "65f0c0ffee0000000000abcd"
		require.NoError(t, m.Save(w, r, s))
	}))

	second := sessionCookie(t, roundTrip(m, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.LoginUser(w, r, "o@x.test", "tok"))
		assert.Empty(t, FromContext(r.Context()).MongoWebsiteID)
	}, first))

	assert.NotEqual(t, first.Value, second.Value)
	_, err := store.Load(context.Background(), first.Value)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLogoutClearsSession(t *testing.T) {
	store := NewMemory()
	m := NewManager(store, Options{})

	c := sessionCookie(t, roundTrip(m, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.LoginUser(w, r, "o@x.test", "tok"))
	}))

	out := sessionCookie(t, roundTrip(m, func(w http.ResponseWriter, r *http.Request) {
		m.LogoutUser(w, r)
		_, ok := CurrentEmail(r)
		assert.False(t, ok)
	}, c))
	assert.Equal(t, -1, out.MaxAge)

	_, err := store.Load(context.Background(), c.Value)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func activeSessions(t *testing.T) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, metrics.ActiveSessions.Write(&out))
	return out.GetGauge().GetValue()
}

func TestDestroyCountsOnlyRemovedSessions(t *testing.T) {
	store := NewMemory()
	m := NewManager(store, Options{})
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "live", Data{Email: "o@x.test"}, time.Hour))

	metrics.ActiveSessions.Set(1)
	m.destroy(ctx, "already-expired")
	assert.Equal(t, 1.0, activeSessions(t))

	m.destroy(ctx, "live")
	assert.Equal(t, 0.0, activeSessions(t))
}

func TestUnknownCookieYieldsEmptySession(t *testing.T) {
	m := NewManager(NewMemory(), Options{})
	roundTrip(m, func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		assert.Empty(t, s.ID)
		assert.Empty(t, s.AuthToken)
	}, &http.Cookie{Name: "sitecraft_session", Value: "forged"})
}

func TestFlashIsOneShot(t *testing.T) {
	m := NewManager(NewMemory(), Options{})

	c := sessionCookie(t, roundTrip(m, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.SetFlash(w, r, "saved"))
	}))
	roundTrip(m, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "saved", m.PopFlash(w, r))
	}, c)
	roundTrip(m, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, m.PopFlash(w, r))
	}, c)
}

func TestMemoryExpiry(t *testing.T) {
	s := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(context.Background(), "a", Data{Email: "a@x.test"}, time.Hour))
	require.NoError(t, s.Save(context.Background(), "b", Data{Email: "b@x.test"}, 3*time.Hour))

	now = now.Add(2 * time.Hour)
	_, err := s.Load(context.Background(), "a")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 1, s.Sweep())
}

func TestRedisUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := NewRedis(rdb)
	t.Cleanup(func() { _ = s.Close() })

	_, err := s.Load(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	_, err = DialRedis(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "sitecraft:session:abc", redisKey("abc"))
}
