// internal/session/memory.go
//
// In-process session store for single-instance deployments and tests.
package session

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	data    Data
	expires time.Time
}

// Memory is a mutex-guarded map with lazy expiry.
type Memory struct {
	mu  sync.Mutex
	m   map[string]memEntry
	now func() time.Time
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]memEntry), now: time.Now}
}

func (s *Memory) Load(_ context.Context, id string) (Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok {
		return Data{}, ErrNotFound
	}
	if s.now().After(e.expires) {
		delete(s.m, id)
		return Data{}, ErrNotFound
	}
	return e.data, nil
}

func (s *Memory) Save(_ context.Context, id string, d Data, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = memEntry{data: d, expires: s.now().Add(ttl)}
	return nil
}

func (s *Memory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return ErrNotFound
	}
	delete(s.m, id)
	return nil
}

// Sweep drops expired entries and returns how many remain.
func (s *Memory) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.m {
		if now.After(e.expires) {
			delete(s.m, id)
		}
	}
	return len(s.m)
}
