// internal/site/relational.go
//
// MySQL repository for the `website` table.
//
// Context
// -------
// The relational copy is the durable owner of identity: every write the
// Store performs lands here first (Update, Delete) or independently
// (Create).  Content is kept as the JSON envelope produced by
// content.Content.Encode.
//
// Notes
// -----
// • DSNs must carry parseTime=true so DATETIME scans into time.Time.
// • Queries are plain parameterised SQL through sqlx, no query builder.
package site

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/content"
)

const websiteCols = `id, user_email, business_name, slug, location, description,
       business_type, industry, content, color_scheme, layout_style,
       is_published, doc_id, created_at, updated_at`

// websiteRow is the scan target for one `website` row.
type websiteRow struct {
	ID           int64          `db:"id"`
	UserEmail    string         `db:"user_email"`
	BusinessName string         `db:"business_name"`
	Slug         string         `db:"slug"`
	Location     string         `db:"location"`
	Description  string         `db:"description"`
	BusinessType string         `db:"business_type"`
	Industry     string         `db:"industry"`
	Content      sql.NullString `db:"content"`
	ColorScheme  string         `db:"color_scheme"`
	LayoutStyle  string         `db:"layout_style"`
	IsPublished  bool           `db:"is_published"`
	DocID        sql.NullString `db:"doc_id"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (w websiteRow) record() Record {
	return Record{
		ID:           strconv.FormatInt(w.ID, 10),
		SQLID:        w.ID,
		DocID:        w.DocID.String,
		OwnerEmail:   w.UserEmail,
		BusinessName: w.BusinessName,
		Slug:         w.Slug,
		Location:     w.Location,
		Description:  w.Description,
		BusinessType: w.BusinessType,
		Industry:     w.Industry,
		Content:      content.Decode(w.Content.String),
		ColorScheme:  w.ColorScheme,
		LayoutStyle:  w.LayoutStyle,
		IsPublished:  w.IsPublished,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Rows is the relational side of the Store.
type Rows interface {
	Insert(ctx context.Context, r *Record) (int64, error)
	ByID(ctx context.Context, id int64) (*Record, error)
	ByDocID(ctx context.Context, docID string) (*Record, error)
	ListByOwner(ctx context.Context, email string, opts ListOptions) ([]Record, error)
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// Relational implements Rows over sqlx.
type Relational struct {
	db *sqlx.DB
}

// NewRelational returns a repository bound to db.
func NewRelational(db *sqlx.DB) *Relational { return &Relational{db: db} }

// Insert writes r and returns the new row id.
func (s *Relational) Insert(ctx context.Context, r *Record) (int64, error) {
	body, err := r.Content.Encode()
	if err != nil {
		return 0, err
	}
	const q = `INSERT INTO website
        (user_email, business_name, slug, location, description, business_type, industry,
         content, color_scheme, layout_style, is_published, doc_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		r.OwnerEmail, r.BusinessName, r.Slug, r.Location, r.Description, r.BusinessType,
		r.Industry, body, r.ColorScheme, r.LayoutStyle, r.IsPublished, nullable(r.DocID),
		r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Relational) one(ctx context.Context, where string, arg any) (*Record, error) {
	var w websiteRow
	err := s.db.GetContext(ctx, &w,
		"SELECT "+websiteCols+" FROM website WHERE "+where+" LIMIT 1", arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("website %v: %w", arg, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	rec := w.record()
	return &rec, nil
}

// ByID loads one row.  Missing rows wrap apperr.ErrNotFound.
func (s *Relational) ByID(ctx context.Context, id int64) (*Record, error) {
	return s.one(ctx, "id = ?", id)
}

// ByDocID loads the row linked to a document id.
func (s *Relational) ByDocID(ctx context.Context, docID string) (*Record, error) {
	return s.one(ctx, "doc_id = ?", docID)
}

// ListByOwner returns email's rows, newest first.
func (s *Relational) ListByOwner(ctx context.Context, email string, opts ListOptions) ([]Record, error) {
	var rows []websiteRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+websiteCols+` FROM website
        WHERE user_email = ?
        ORDER BY created_at DESC, id DESC
        LIMIT ? OFFSET ?`, email, opts.Limit, opts.Skip)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, w := range rows {
		out = append(out, w.record())
	}
	return out, nil
}

// Update overwrites the mutable columns of row r.SQLID.
func (s *Relational) Update(ctx context.Context, r *Record) error {
	body, err := r.Content.Encode()
	if err != nil {
		return err
	}
	const q = `UPDATE website
        SET business_name = ?, slug = ?, location = ?, description = ?, business_type = ?,
            industry = ?, content = ?, color_scheme = ?, layout_style = ?, is_published = ?,
            updated_at = ?
        WHERE id = ?`
	_, err = s.db.ExecContext(ctx, q,
		r.BusinessName, r.Slug, r.Location, r.Description, r.BusinessType, r.Industry,
		body, r.ColorScheme, r.LayoutStyle, r.IsPublished, r.UpdatedAt, r.SQLID)
	return err
}

// Delete removes one row.  Zero affected rows wraps apperr.ErrNotFound.
func (s *Relational) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM website WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("website %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// Count returns the total number of rows.
func (s *Relational) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM website")
	return n, err
}
