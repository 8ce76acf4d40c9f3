package site

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/content"
	"github.com/yanizio/sitecraft/internal/docstore"
)

func TestPatchSetOnlyTouchesGivenFields(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pub := true
	c := content.FromRaw("x")

	set := patchSet(Patch{BusinessName: strp("Blue Oak Café"), IsPublished: &pub, Content: &c}, at)
	assert.Equal(t, bson.M{
		"updated_at":    at,
		"business_name": "Blue Oak Café",
		"slug":          "blue-oak-cafe",
		"is_published":  true,
		"content":       c,
	}, set)

	assert.Equal(t, bson.M{"updated_at": at}, patchSet(Patch{}, at))
}

func TestSiteDocRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := blueOakRecord("o@x.test")
	rec.SQLID, rec.CreatedAt, rec.UpdatedAt = 9, now, now

	d := docFromRecord(&rec)
	d.ID = primitive.NewObjectID()

	raw, err := bson.Marshal(d)
	require.NoError(t, err)
	var back siteDoc
	require.NoError(t, bson.Unmarshal(raw, &back))

	got := back.record()
	assert.Equal(t, d.ID.Hex(), got.ID)
	assert.Equal(t, got.ID, got.DocID)
	assert.EqualValues(t, 9, got.SQLID)
	assert.Equal(t, "o@x.test", got.OwnerEmail)
	require.Equal(t, content.KindDocument, got.Content.Kind)
	assert.Equal(t, rec.Content.Doc.Hero.Title, got.Content.Doc.Hero.Title)
	assert.Len(t, got.Content.Doc.Services, len(rec.Content.Doc.Services))
	assert.True(t, got.CreatedAt.Equal(now))
}

func TestMongoDocumentsUnavailable(t *testing.T) {
	m := NewDocuments(docstore.New(docstore.Options{Database: "ai_builder_db", Collection: "websites_collection"}))
	ctx := context.Background()
	rec := blueOakRecord("o@x.test")

	_, err := m.Insert(ctx, &rec)
	assert.True(t, errors.Is(err, apperr.ErrStoreUnavailable))

	_, err = m.ListByOwner(ctx, "o@x.test", ListOptions{})
	assert.True(t, errors.Is(err, apperr.ErrStoreUnavailable))

	st := m.Stats(ctx)
	assert.False(t, st.Connected)
	assert.Equal(t, "Not configured", st.URI)
	assert.Equal(t, "ai_builder_db", st.Database)
	assert.NotEmpty(t, st.Error)
}

func TestMongoDocumentsRejectsBadIDs(t *testing.T) {
	m := NewDocuments(docstore.New(docstore.Options{}))
	_, err := m.ByID(context.Background(), "42")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.False(t, IsDocID("42"))
	assert.True(t, IsDocID(primitive.NewObjectID().Hex()))
}
