// internal/site/documents.go
//
// MongoDB repository for the document copy of website records.
//
// Context
// -------
// Each call asks the docstore.Client for the collection, so an outage at
// boot or mid-flight surfaces as apperr.ErrStoreUnavailable on that call
// only.  The Store treats every error from here as non-fatal.
//
// Document shape
// --------------
//	{ _id, sql_id?, user_email, business_name, slug, location, description,
//	  business_type, industry, content{kind, document?, raw?}, color_scheme,
//	  layout_style, is_published, created_at, updated_at }
package site

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/content"
	"github.com/yanizio/sitecraft/internal/docstore"
)

// Documents is the document side of the Store.
type Documents interface {
	Insert(ctx context.Context, r *Record) (string, error)
	SetSQLID(ctx context.Context, docID string, sqlID int64) error
	ByID(ctx context.Context, docID string) (*Record, error)
	ListByOwner(ctx context.Context, email string, opts ListOptions) ([]Record, error)
	Update(ctx context.Context, docID string, p Patch, at time.Time) error
	Delete(ctx context.Context, docID string) error
	Stats(ctx context.Context) DocStats
}

// DocStats is the storage-diagnostics view of the document store.
type DocStats struct {
	Connected   bool
	Database    string
	URI         string
	Collections []string
	Count       int64
	SampleID    string
	Error       string
}

// IsDocID reports whether id is a well-formed ObjectID hex string.
func IsDocID(id string) bool {
	return primitive.IsValidObjectID(id)
}

type siteDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	SQLID        int64              `bson:"sql_id,omitempty"`
	UserEmail    string             `bson:"user_email"`
	BusinessName string             `bson:"business_name"`
	Slug         string             `bson:"slug"`
	Location     string             `bson:"location"`
	Description  string             `bson:"description"`
	BusinessType string             `bson:"business_type"`
	Industry     string             `bson:"industry"`
	Content      content.Content    `bson:"content"`
	ColorScheme  string             `bson:"color_scheme"`
	LayoutStyle  string             `bson:"layout_style"`
	IsPublished  bool               `bson:"is_published"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func docFromRecord(r *Record) siteDoc {
	return siteDoc{
		SQLID:        r.SQLID,
		UserEmail:    r.OwnerEmail,
		BusinessName: r.BusinessName,
		Slug:         r.Slug,
		Location:     r.Location,
		Description:  r.Description,
		BusinessType: r.BusinessType,
		Industry:     r.Industry,
		Content:      r.Content,
		ColorScheme:  r.ColorScheme,
		LayoutStyle:  r.LayoutStyle,
		IsPublished:  r.IsPublished,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (d siteDoc) record() Record {
	return Record{
		ID:           d.ID.Hex(),
		SQLID:        d.SQLID,
		DocID:        d.ID.Hex(),
		OwnerEmail:   d.UserEmail,
		BusinessName: d.BusinessName,
		Slug:         d.Slug,
		Location:     d.Location,
		Description:  d.Description,
		BusinessType: d.BusinessType,
		Industry:     d.Industry,
		Content:      d.Content,
		ColorScheme:  d.ColorScheme,
		LayoutStyle:  d.LayoutStyle,
		IsPublished:  d.IsPublished,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// patchSet builds the $set document for p.  updated_at is always stamped.
func patchSet(p Patch, at time.Time) bson.M {
	set := bson.M{"updated_at": at}
	if p.BusinessName != nil {
		set["business_name"] = *p.BusinessName
		set["slug"] = MakeSlug(*p.BusinessName)
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.BusinessType != nil {
		set["business_type"] = *p.BusinessType
	}
	if p.Industry != nil {
		set["industry"] = *p.Industry
	}
	if p.Content != nil {
		set["content"] = *p.Content
	}
	if p.ColorScheme != nil {
		set["color_scheme"] = *p.ColorScheme
	}
	if p.LayoutStyle != nil {
		set["layout_style"] = *p.LayoutStyle
	}
	if p.IsPublished != nil {
		set["is_published"] = *p.IsPublished
	}
	return set
}

// MongoDocuments implements Documents on a docstore.Client.
type MongoDocuments struct {
	cli  *docstore.Client
	coll func(ctx context.Context) (*mongo.Collection, error)
}

// NewDocuments returns a repository that connects through cli on demand.
func NewDocuments(cli *docstore.Client) *MongoDocuments {
	return &MongoDocuments{cli: cli, coll: cli.Collection}
}

func objectID(docID string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(docID)
	if err != nil {
		return oid, fmt.Errorf("document %q: %w", docID, apperr.ErrNotFound)
	}
	return oid, nil
}

// Insert stores r and returns the generated ObjectID hex.
func (m *MongoDocuments) Insert(ctx context.Context, r *Record) (string, error) {
	c, err := m.coll(ctx)
	if err != nil {
		return "", err
	}
	doc := docFromRecord(r)
	doc.ID = primitive.NewObjectID()
	if _, err := c.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID.Hex(), nil
}

// SetSQLID links the document to its relational row.
func (m *MongoDocuments) SetSQLID(ctx context.Context, docID string, sqlID int64) error {
	oid, err := objectID(docID)
	if err != nil {
		return err
	}
	c, err := m.coll(ctx)
	if err != nil {
		return err
	}
	_, err = c.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"sql_id": sqlID}})
	return err
}

// ByID loads one document.
func (m *MongoDocuments) ByID(ctx context.Context, docID string) (*Record, error) {
	oid, err := objectID(docID)
	if err != nil {
		return nil, err
	}
	c, err := m.coll(ctx)
	if err != nil {
		return nil, err
	}
	var d siteDoc
	err = c.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("document %s: %w", docID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	rec := d.record()
	return &rec, nil
}

// ListByOwner returns email's documents, newest first.
func (m *MongoDocuments) ListByOwner(ctx context.Context, email string, opts ListOptions) ([]Record, error) {
	c, err := m.coll(ctx)
	if err != nil {
		return nil, err
	}
	fo := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(opts.Skip))
	if opts.Limit > 0 {
		fo.SetLimit(int64(opts.Limit))
	}
	cur, err := c.Find(ctx, bson.M{"user_email": email}, fo)
	if err != nil {
		return nil, err
	}
	var docs []siteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.record())
	}
	return out, nil
}

// Update applies p to one document and stamps updated_at.
func (m *MongoDocuments) Update(ctx context.Context, docID string, p Patch, at time.Time) error {
	oid, err := objectID(docID)
	if err != nil {
		return err
	}
	c, err := m.coll(ctx)
	if err != nil {
		return err
	}
	res, err := c.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": patchSet(p, at)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("document %s: %w", docID, apperr.ErrNotFound)
	}
	return nil
}

// Delete removes one document.
func (m *MongoDocuments) Delete(ctx context.Context, docID string) error {
	oid, err := objectID(docID)
	if err != nil {
		return err
	}
	c, err := m.coll(ctx)
	if err != nil {
		return err
	}
	res, err := c.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("document %s: %w", docID, apperr.ErrNotFound)
	}
	return nil
}

// Stats probes the document store.  Failures are reported in DocStats.Error
// rather than returned.
func (m *MongoDocuments) Stats(ctx context.Context) DocStats {
	st := DocStats{Database: m.cli.DatabaseName(), URI: m.cli.MaskedURI()}

	db, err := m.cli.Database(ctx)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Connected = true

	if st.Collections, err = db.ListCollectionNames(ctx, bson.D{}); err != nil {
		st.Error = err.Error()
		return st
	}
	c, err := m.coll(ctx)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	if st.Count, err = c.CountDocuments(ctx, bson.D{}); err != nil {
		st.Error = err.Error()
		return st
	}
	var sample siteDoc
	if err := c.FindOne(ctx, bson.D{}).Decode(&sample); err == nil {
		st.SampleID = sample.ID.Hex()
	}
	return st
}
