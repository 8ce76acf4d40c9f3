// internal/site/store.go
//
// Dual-write website store.
//
// Context
// -------
// Store composes the relational repository (durable, owns identity) and
// the document repository (richer copy, optional).  The two are written
// independently; there is no cross-store transaction.
//
// Rules
// -----
//   - Create   document first, relational second, each independent.  Both
//              failing is the only hard error.
//   - Get      document by ObjectID first, then relational by doc_id or by
//              integer id.
//   - List     document store wins entirely when the owner has any documents
//              there, for every page; otherwise the relational store
//              answers.  Never merged.
//   - Update / Delete
//              relational unconditionally (fatal).  The document copy is
//              touched only when the mirror policy allows it:
//                session    → the session bridge names this record's copy.
//                canonical  → the row knows its doc_id.
//
// Document-store failures never fail a call; they surface as Warning text
// and a site_writes_total{outcome="error"} sample.
package site

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/logger"
	"github.com/yanizio/sitecraft/internal/metrics"
)

const (
	WarnSecondaryCreate = "secondary storage failed"
	WarnPrimaryCreate   = "primary storage failed"
	WarnSecondaryUpdate = "secondary storage update failed"
	WarnSecondaryDelete = "secondary storage delete failed"

	defaultListLimit = 20
	maxListLimit     = 100
)

// Options configures a Store.
type Options struct {
	Policy    MirrorPolicy
	ListLimit int
}

// Store is safe for concurrent use when its repositories are.
type Store struct {
	rows   Rows
	docs   Documents
	policy MirrorPolicy
	limit  int
	now    func() time.Time
}

// NewStore wires the two repositories.  docs may be nil.
func NewStore(rows Rows, docs Documents, opts Options) *Store {
	if opts.Policy == "" {
		opts.Policy = MirrorCanonical
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = defaultListLimit
	}
	return &Store{
		rows:   rows,
		docs:   docs,
		policy: opts.Policy,
		limit:  opts.ListLimit,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Policy returns the configured mirror policy.
func (s *Store) Policy() MirrorPolicy { return s.policy }

func countWrite(backend, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.SiteWritesTotal.WithLabelValues(backend, op, outcome).Inc()
}

func (s *Store) docsOrUnavailable() error {
	if s.docs == nil {
		return fmt.Errorf("document store not configured: %w", apperr.ErrStoreUnavailable)
	}
	return nil
}

// Create writes rec to both stores.  rec.OwnerEmail must be set.
func (s *Store) Create(ctx context.Context, rec Record) (CreateResult, error) {
	log := logger.FromContext(ctx)

	now := s.now()
	rec.CreatedAt, rec.UpdatedAt = now, now
	if rec.Slug == "" {
		rec.Slug = MakeSlug(rec.BusinessName)
	}

	var docID string
	docErr := s.docsOrUnavailable()
	if docErr == nil {
		docID, docErr = s.docs.Insert(ctx, &rec)
	}
	countWrite("document", "create", docErr)
	if docErr != nil {
		log.Warnw("document create failed", "err", docErr)
	}

	rec.DocID = docID
	sqlID, relErr := s.rows.Insert(ctx, &rec)
	countWrite("relational", "create", relErr)
	if relErr != nil {
		log.Errorw("relational create failed", "err", relErr)
	}

	switch {
	case docErr != nil && relErr != nil:
		return CreateResult{}, fmt.Errorf("create website: document: %v; relational: %v: %w",
			docErr, relErr, apperr.ErrStoreUnavailable)

	case docErr != nil:
		return CreateResult{
			ID:         strconv.FormatInt(sqlID, 10),
			SQLID:      sqlID,
			Provenance: ProvenanceRelational,
			Warning:    WarnSecondaryCreate,
		}, nil

	case relErr != nil:
		return CreateResult{
			ID:         docID,
			DocID:      docID,
			Provenance: ProvenanceDocument,
			Warning:    WarnPrimaryCreate,
		}, nil
	}

	if err := s.docs.SetSQLID(ctx, docID, sqlID); err != nil {
		log.Warnw("document link failed", "doc_id", docID, "sql_id", sqlID, "err", err)
	}
	return CreateResult{
		ID:         docID,
		DocID:      docID,
		SQLID:      sqlID,
		Provenance: ProvenanceDocument,
	}, nil
}

// Get reads one record, document copy first.  A document id whose copy
// cannot be read is looked up through the relational doc_id link.
func (s *Store) Get(ctx context.Context, id string) (*Record, Provenance, error) {
	var (
		r   *Record
		err error
	)
	if IsDocID(id) {
		if s.docs != nil {
			r, err = s.docs.ByID(ctx, id)
			if err == nil {
				metrics.SiteReadsTotal.WithLabelValues(string(ProvenanceDocument)).Inc()
				return r, ProvenanceDocument, nil
			}
			if !errors.Is(err, apperr.ErrNotFound) {
				logger.FromContext(ctx).Warnw("document read failed", "id", id, "err", err)
			}
		}
		r, err = s.rows.ByDocID(ctx, id)
	} else if n, perr := strconv.ParseInt(id, 10, 64); perr == nil {
		r, err = s.rows.ByID(ctx, n)
	} else {
		err = apperr.ErrNotFound
	}

	switch {
	case err == nil:
		metrics.SiteReadsTotal.WithLabelValues(string(ProvenanceRelational)).Inc()
		return r, ProvenanceRelational, nil
	case errors.Is(err, apperr.ErrNotFound):
		return nil, "", fmt.Errorf("website %s: %w", id, apperr.ErrNotFound)
	default:
		return nil, "", err
	}
}

func (s *Store) clamp(opts ListOptions) ListOptions {
	if opts.Limit <= 0 {
		opts.Limit = s.limit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}
	if opts.Skip < 0 {
		opts.Skip = 0
	}
	return opts
}

// ListByOwner returns email's records newest first from exactly one store.
func (s *Store) ListByOwner(ctx context.Context, email string, opts ListOptions) ([]Record, Provenance, error) {
	opts = s.clamp(opts)

	if s.docs != nil {
		recs, err := s.docs.ListByOwner(ctx, email, opts)
		if err == nil && len(recs) == 0 && opts.Skip > 0 {
			// Past the end of the document list.  Stay on that store while
			// the owner has any documents so pages never mix sources.
			var head []Record
			head, err = s.docs.ListByOwner(ctx, email, ListOptions{Limit: 1})
			if err == nil && len(head) > 0 {
				return recs, ProvenanceDocument, nil
			}
		}
		if err == nil && len(recs) > 0 {
			return recs, ProvenanceDocument, nil
		}
		if err != nil {
			logger.FromContext(ctx).Warnw("document list failed", "err", err)
		}
	}

	recs, err := s.rows.ListByOwner(ctx, email, opts)
	if err != nil {
		return nil, "", err
	}
	return recs, ProvenanceRelational, nil
}

// resolve finds the relational row behind id, which may be a row id or a
// document id.
func (s *Store) resolve(ctx context.Context, id string) (*Record, error) {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return s.rows.ByID(ctx, n)
	}
	if !IsDocID(id) {
		return nil, fmt.Errorf("website %s: %w", id, apperr.ErrNotFound)
	}

	r, err := s.rows.ByDocID(ctx, id)
	if err == nil || !errors.Is(err, apperr.ErrNotFound) || s.docs == nil {
		return r, err
	}
	// Row was written without doc_id; follow the document's sql_id instead.
	doc, derr := s.docs.ByID(ctx, id)
	if derr != nil || doc.SQLID == 0 {
		return nil, err
	}
	r, err = s.rows.ByID(ctx, doc.SQLID)
	if err == nil && r.DocID == "" {
		r.DocID = id
	}
	return r, err
}

// mirrorTarget returns the document id to mirror to, or "".
func (s *Store) mirrorTarget(r *Record, id string, b Bridge) string {
	target := r.DocID
	if target == "" && IsDocID(id) {
		target = id
	}
	if target == "" || s.docs == nil {
		return ""
	}
	if s.policy == MirrorSession && b.DocID != target {
		return ""
	}
	return target
}

// Update patches id.  The relational write is fatal; the mirror is not.
func (s *Store) Update(ctx context.Context, id string, p Patch, b Bridge) (WriteResult, error) {
	r, err := s.resolve(ctx, id)
	if err != nil {
		return WriteResult{}, err
	}

	p.Apply(r)
	r.UpdatedAt = s.now()
	err = s.rows.Update(ctx, r)
	countWrite("relational", "update", err)
	if err != nil {
		return WriteResult{}, fmt.Errorf("update website %s: %w", id, err)
	}

	res := WriteResult{SQLID: r.SQLID}
	target := s.mirrorTarget(r, id, b)
	if target == "" {
		metrics.SiteWritesTotal.WithLabelValues("document", "update", "skipped").Inc()
		return res, nil
	}
	err = s.docs.Update(ctx, target, p, r.UpdatedAt)
	countWrite("document", "update", err)
	if err != nil {
		logger.FromContext(ctx).Warnw("document update failed", "doc_id", target, "err", err)
		res.Warning = WarnSecondaryUpdate
		return res, nil
	}
	res.Mirrored = true
	return res, nil
}

// Delete removes id.  The relational delete is fatal; the mirror is not.
func (s *Store) Delete(ctx context.Context, id string, b Bridge) (WriteResult, error) {
	r, err := s.resolve(ctx, id)
	if err != nil {
		return WriteResult{}, err
	}

	err = s.rows.Delete(ctx, r.SQLID)
	countWrite("relational", "delete", err)
	if err != nil {
		return WriteResult{}, fmt.Errorf("delete website %s: %w", id, err)
	}

	res := WriteResult{SQLID: r.SQLID}
	target := s.mirrorTarget(r, id, b)
	if target == "" {
		metrics.SiteWritesTotal.WithLabelValues("document", "delete", "skipped").Inc()
		return res, nil
	}
	err = s.docs.Delete(ctx, target)
	countWrite("document", "delete", err)
	if err != nil {
		logger.FromContext(ctx).Warnw("document delete failed", "doc_id", target, "err", err)
		res.Warning = WarnSecondaryDelete
		return res, nil
	}
	res.Mirrored = true
	return res, nil
}
