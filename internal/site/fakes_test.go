package site

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yanizio/sitecraft/internal/apperr"
)

var errDown = errors.New("connection refused")

// memRows is an in-memory Rows.
type memRows struct {
	mu     sync.Mutex
	next   int64
	byID   map[int64]Record
	failOn map[string]error
}

func newMemRows() *memRows {
	return &memRows{byID: map[int64]Record{}, failOn: map[string]error{}}
}

func (m *memRows) Insert(_ context.Context, r *Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn["insert"]; err != nil {
		return 0, err
	}
	m.next++
	rec := *r
	rec.SQLID = m.next
	rec.ID = fmt.Sprint(m.next)
	m.byID[m.next] = rec
	return m.next, nil
}

func (m *memRows) ByID(_ context.Context, id int64) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("row %d: %w", id, apperr.ErrNotFound)
	}
	return &r, nil
}

func (m *memRows) ByDocID(_ context.Context, docID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.DocID == docID {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("doc %s: %w", docID, apperr.ErrNotFound)
}

func (m *memRows) ListByOwner(_ context.Context, email string, opts ListOptions) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn["list"]; err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range m.byID {
		if r.OwnerEmail == email {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return page(out, opts), nil
}

func (m *memRows) Update(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn["update"]; err != nil {
		return err
	}
	m.byID[r.SQLID] = *r
	return nil
}

func (m *memRows) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("row %d: %w", id, apperr.ErrNotFound)
	}
	delete(m.byID, id)
	return nil
}

func (m *memRows) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), m.failOn["count"]
}

// erroringRows fails every lookup with a driver error.
type erroringRows struct{ *memRows }

func (e *erroringRows) ByID(context.Context, int64) (*Record, error) { return nil, errDown }
func (e *erroringRows) ByDocID(context.Context, string) (*Record, error) { return nil, errDown }

// memDocs is an in-memory Documents.
type memDocs struct {
	mu   sync.Mutex
	byID map[string]Record
	down bool
}

func newMemDocs() *memDocs { return &memDocs{byID: map[string]Record{}} }

func (m *memDocs) unavailable() error {
	if m.down {
		return fmt.Errorf("%v: %w", errDown, apperr.ErrStoreUnavailable)
	}
	return nil
}

func (m *memDocs) Insert(_ context.Context, r *Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unavailable(); err != nil {
		return "", err
	}
	id := primitive.NewObjectID().Hex()
	rec := *r
	rec.ID, rec.DocID = id, id
	m.byID[id] = rec
	return id, nil
}

func (m *memDocs) SetSQLID(_ context.Context, docID string, sqlID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unavailable(); err != nil {
		return err
	}
	r := m.byID[docID]
	r.SQLID = sqlID
	m.byID[docID] = r
	return nil
}

func (m *memDocs) ByID(_ context.Context, docID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unavailable(); err != nil {
		return nil, err
	}
	r, ok := m.byID[docID]
	if !ok {
		return nil, fmt.Errorf("doc %s: %w", docID, apperr.ErrNotFound)
	}
	return &r, nil
}

func (m *memDocs) ListByOwner(_ context.Context, email string, opts ListOptions) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unavailable(); err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range m.byID {
		if r.OwnerEmail == email {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return page(out, opts), nil
}

func (m *memDocs) Update(_ context.Context, docID string, p Patch, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unavailable(); err != nil {
		return err
	}
	r, ok := m.byID[docID]
	if !ok {
		return fmt.Errorf("doc %s: %w", docID, apperr.ErrNotFound)
	}
	p.Apply(&r)
	r.UpdatedAt = at
	m.byID[docID] = r
	return nil
}

func (m *memDocs) Delete(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unavailable(); err != nil {
		return err
	}
	if _, ok := m.byID[docID]; !ok {
		return fmt.Errorf("doc %s: %w", docID, apperr.ErrNotFound)
	}
	delete(m.byID, docID)
	return nil
}

func (m *memDocs) Stats(context.Context) DocStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return DocStats{Database: "ai_builder_db", Error: errDown.Error()}
	}
	return DocStats{
		Connected:   true,
		Database:    "ai_builder_db",
		Collections: []string{"websites_collection"},
		Count:       int64(len(m.byID)),
	}
}

func sortNewestFirst(rs []Record) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].SQLID > rs[j].SQLID
	})
}

func page(rs []Record, opts ListOptions) []Record {
	if opts.Skip >= len(rs) {
		return nil
	}
	rs = rs[opts.Skip:]
	if opts.Limit > 0 && opts.Limit < len(rs) {
		rs = rs[:opts.Limit]
	}
	return rs
}
