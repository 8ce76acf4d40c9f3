// internal/site/model.go
//
// Website record types shared by both persistence backends.
//
// Context
// -------
// One generated website may exist as two physical copies:
//
//	website  (MySQL)    id BIGINT,   doc_id → document copy (nullable)
//	websites (MongoDB)  _id ObjectID, sql_id → relational copy (optional)
//
// Record.ID is the identity the caller used or was handed back: the
// ObjectID hex when the document copy served the read, the decimal row id
// otherwise.  SQLID and DocID expose whichever linkage is known.
package site

import (
	"time"

	"github.com/yanizio/sitecraft/internal/content"
)

// Provenance names the backend a result came from.
type Provenance string

const (
	ProvenanceDocument   Provenance = "document"
	ProvenanceRelational Provenance = "relational"
)

// MirrorPolicy decides when writes reach the document copy.
type MirrorPolicy string

const (
	// MirrorSession mirrors only when the caller's session bridge points at
	// the record's document copy.
	MirrorSession MirrorPolicy = "session"
	// MirrorCanonical mirrors whenever the relational row knows its doc_id.
	MirrorCanonical MirrorPolicy = "canonical"
)

// Record is one website in backend-neutral form.
type Record struct {
	ID           string
	SQLID        int64
	DocID        string
	OwnerEmail   string
	BusinessName string
	Slug         string
	Location     string
	Description  string
	BusinessType string
	Industry     string
	Content      content.Content
	ColorScheme  string
	LayoutStyle  string
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Patch is a partial update.  Nil fields are left untouched.
type Patch struct {
	BusinessName *string
	Location     *string
	Description  *string
	BusinessType *string
	Industry     *string
	Content      *content.Content
	ColorScheme  *string
	LayoutStyle  *string
	IsPublished  *bool
}

// Apply copies the non-nil fields of p onto r.  A new business name also
// regenerates the slug.
func (p Patch) Apply(r *Record) {
	if p.BusinessName != nil {
		r.BusinessName = *p.BusinessName
		r.Slug = MakeSlug(*p.BusinessName)
	}
	if p.Location != nil {
		r.Location = *p.Location
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.BusinessType != nil {
		r.BusinessType = *p.BusinessType
	}
	if p.Industry != nil {
		r.Industry = *p.Industry
	}
	if p.Content != nil {
		r.Content = *p.Content
	}
	if p.ColorScheme != nil {
		r.ColorScheme = *p.ColorScheme
	}
	if p.LayoutStyle != nil {
		r.LayoutStyle = *p.LayoutStyle
	}
	if p.IsPublished != nil {
		r.IsPublished = *p.IsPublished
	}
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// Bridge is the session-held pointer to the document copy created in the
// current session (`mongo_website_id`).  It is not durable.
type Bridge struct {
	DocID string
}

// ListOptions paginates ListByOwner.  Zero Limit means the store default.
type ListOptions struct {
	Limit int
	Skip  int
}

// CreateResult reports which copies were written.
type CreateResult struct {
	ID         string
	DocID      string
	SQLID      int64
	Provenance Provenance
	Warning    string
}

// WriteResult reports the outcome of Update and Delete.
type WriteResult struct {
	SQLID    int64
	Mirrored bool
	Warning  string
}

// Defaults applied to freshly generated sites.
const (
	DefaultColorScheme = "blue"
	DefaultLayoutStyle = "modern"
)

// NewRecord assembles an unpublished record for owner from a generation
// request and its content.
func NewRecord(owner string, req content.Request, c content.Content) Record {
	return Record{
		OwnerEmail:   owner,
		BusinessName: req.BusinessName,
		Slug:         MakeSlug(req.BusinessName),
		Location:     req.Location,
		Description:  req.Description,
		BusinessType: req.BusinessType,
		Industry:     req.Industry,
		Content:      c,
		ColorScheme:  DefaultColorScheme,
		LayoutStyle:  DefaultLayoutStyle,
	}
}
