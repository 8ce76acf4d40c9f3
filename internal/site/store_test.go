package site

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/content"
)

func newTestStore(policy MirrorPolicy) (*Store, *memRows, *memDocs) {
	rows, docs := newMemRows(), newMemDocs()
	s := NewStore(rows, docs, Options{Policy: policy})
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s, rows, docs
}

func blueOakRecord(owner string) Record {
	req := content.Request{
		BusinessName: "Blue Oak Café",
		BusinessType: "Cafe",
		Industry:     "Food & Beverage",
		Location:     "Kochi",
		Description:  "cozy coffee shop",
	}
	return Record{
		OwnerEmail:   owner,
		BusinessName: req.BusinessName,
		Location:     req.Location,
		Description:  req.Description,
		BusinessType: req.BusinessType,
		Industry:     req.Industry,
		Content:      content.Fallback(req),
	}
}

func strp(s string) *string { return &s }

func TestCreateWritesBothAndLinks(t *testing.T) {
	s, rows, docs := newTestStore(MirrorCanonical)
	ctx := context.Background()

	res, err := s.Create(ctx, blueOakRecord("owner@blueoak.test"))
	require.NoError(t, err)
	assert.Equal(t, ProvenanceDocument, res.Provenance)
	assert.Equal(t, res.DocID, res.ID)
	assert.Empty(t, res.Warning)

	row, err := rows.ByID(ctx, res.SQLID)
	require.NoError(t, err)
	assert.Equal(t, res.DocID, row.DocID)
	assert.Equal(t, "blue-oak-cafe", row.Slug)
	assert.Equal(t, res.SQLID, docs.byID[res.DocID].SQLID)

	got, prov, err := s.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, ProvenanceDocument, prov)
	require.Equal(t, content.KindDocument, got.Content.Kind)
	assert.Contains(t, got.Content.Doc.Hero.Title, "Blue Oak Café")
	assert.GreaterOrEqual(t, len(got.Content.Doc.Services), 3)
}

func TestCreateDocumentDownWarns(t *testing.T) {
	s, _, docs := newTestStore(MirrorCanonical)
	docs.down = true
	ctx := context.Background()

	res, err := s.Create(ctx, blueOakRecord("a@b.test"))
	require.NoError(t, err)
	assert.Equal(t, ProvenanceRelational, res.Provenance)
	assert.Equal(t, WarnSecondaryCreate, res.Warning)
	assert.Equal(t, "1", res.ID)

	got, prov, err := s.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, ProvenanceRelational, prov)
	assert.Equal(t, "a@b.test", got.OwnerEmail)
}

func TestCreateWithoutDocumentStore(t *testing.T) {
	rows := newMemRows()
	s := NewStore(rows, nil, Options{})

	res, err := s.Create(context.Background(), blueOakRecord("a@b.test"))
	require.NoError(t, err)
	assert.Equal(t, ProvenanceRelational, res.Provenance)
	assert.Equal(t, WarnSecondaryCreate, res.Warning)
}

func TestCreateRelationalDownStillReturnsDocument(t *testing.T) {
	s, rows, _ := newTestStore(MirrorCanonical)
	rows.failOn["insert"] = errDown

	res, err := s.Create(context.Background(), blueOakRecord("a@b.test"))
	require.NoError(t, err)
	assert.Equal(t, ProvenanceDocument, res.Provenance)
	assert.Equal(t, WarnPrimaryCreate, res.Warning)
	assert.Zero(t, res.SQLID)
}

func TestCreateBothDownIsHardError(t *testing.T) {
	s, rows, docs := newTestStore(MirrorCanonical)
	rows.failOn["insert"] = errDown
	docs.down = true

	_, err := s.Create(context.Background(), blueOakRecord("a@b.test"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrStoreUnavailable))
	assert.Empty(t, rows.byID)
	assert.Empty(t, docs.byID)
}

func TestGetNotFound(t *testing.T) {
	s, _, _ := newTestStore(MirrorCanonical)
	for _, id := range []string{"42", "65f0c0ffee0000000000abcd", "not-an-id", ""} {
		_, _, err := s.Get(context.Background(), id)
		assert.True(t, errors.Is(err, apperr.ErrNotFound), "id %q: %v", id, err)
	}
}

func TestGetFallsBackWhenDocumentStoreDown(t *testing.T) {
	s, _, docs := newTestStore(MirrorCanonical)
	ctx := context.Background()
	res, err := s.Create(ctx, blueOakRecord("a@b.test"))
	require.NoError(t, err)

	docs.down = true
	got, prov, err := s.Get(ctx, res.DocID)
	require.NoError(t, err, "doc id resolves through the relational doc_id link")
	assert.Equal(t, ProvenanceRelational, prov)
	assert.Equal(t, res.SQLID, got.SQLID)
	assert.Equal(t, "a@b.test", got.OwnerEmail)

	got, prov, err = s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, ProvenanceRelational, prov)
	assert.Equal(t, res.DocID, got.DocID)

	// Reads and writes agree on the same id during the outage.
	out, err := s.Update(ctx, res.DocID, Patch{BusinessName: strp("Blue Oak Roasters")}, Bridge{})
	require.NoError(t, err)
	assert.Equal(t, WarnSecondaryUpdate, out.Warning)
	got, _, err = s.Get(ctx, res.DocID)
	require.NoError(t, err)
	assert.Equal(t, "Blue Oak Roasters", got.BusinessName)
}

func TestGetDocumentIDWithoutDocumentStore(t *testing.T) {
	rows := newMemRows()
	s := NewStore(rows, nil, Options{})
	ctx := context.Background()

	rec := blueOakRecord("a@b.test")
	rec.DocID = "65f0c0ffee0000000000abcd"
	_, err := rows.Insert(ctx, &rec)
	require.NoError(t, err)

	got, prov, err := s.Get(ctx, "65f0c0ffee0000000000abcd")
	require.NoError(t, err)
	assert.Equal(t, ProvenanceRelational, prov)
	assert.Equal(t, int64(1), got.SQLID)
}

func TestGetRelationalErrorIsNotNotFound(t *testing.T) {
	rows := &erroringRows{memRows: newMemRows()}
	s := NewStore(rows, nil, Options{})

	_, _, err := s.Get(context.Background(), "65f0c0ffee0000000000abcd")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
	assert.True(t, errors.Is(err, errDown))
}

func TestListOrderAndOwnerFilter(t *testing.T) {
	s, _, docs := newTestStore(MirrorCanonical)
	ctx := context.Background()

	for _, name := range []string{"First", "Second", "Third"} {
		r := blueOakRecord("owner@x.test")
		r.BusinessName = name
		_, err := s.Create(ctx, r)
		require.NoError(t, err)
	}
	other := blueOakRecord("someone@else.test")
	_, err := s.Create(ctx, other)
	require.NoError(t, err)

	recs, prov, err := s.ListByOwner(ctx, "owner@x.test", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, ProvenanceDocument, prov)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"Third", "Second", "First"},
		[]string{recs[0].BusinessName, recs[1].BusinessName, recs[2].BusinessName})
	for i := 1; i < len(recs); i++ {
		assert.False(t, recs[i].CreatedAt.After(recs[i-1].CreatedAt))
	}

	// Same answer from the relational copy once the document store is gone.
	docs.down = true
	recs, prov, err = s.ListByOwner(ctx, "owner@x.test", ListOptions{Limit: 2, Skip: 1})
	require.NoError(t, err)
	assert.Equal(t, ProvenanceRelational, prov)
	require.Len(t, recs, 2)
	assert.Equal(t, "Second", recs[0].BusinessName)
	assert.Equal(t, "First", recs[1].BusinessName)
}

func TestListPagesStayOnOneStore(t *testing.T) {
	s, _, docs := newTestStore(MirrorCanonical)
	ctx := context.Background()

	// Two documents, plus one relational-only row from an outage.
	docs.down = true
	_, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)
	docs.down = false
	for i := 0; i < 2; i++ {
		_, err = s.Create(ctx, blueOakRecord("o@x.test"))
		require.NoError(t, err)
	}

	recs, prov, err := s.ListByOwner(ctx, "o@x.test", ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, ProvenanceDocument, prov)
	assert.Len(t, recs, 2)

	recs, prov, err = s.ListByOwner(ctx, "o@x.test", ListOptions{Limit: 2, Skip: 2})
	require.NoError(t, err)
	assert.Equal(t, ProvenanceDocument, prov, "second page must not switch stores")
	assert.Empty(t, recs)

	// An owner with no documents at all still pages through the rows.
	recs, prov, err = s.ListByOwner(ctx, "nobody@x.test", ListOptions{Limit: 2, Skip: 2})
	require.NoError(t, err)
	assert.Equal(t, ProvenanceRelational, prov)
	assert.Empty(t, recs)
}

func TestListNeverMerges(t *testing.T) {
	s, rows, docs := newTestStore(MirrorCanonical)
	ctx := context.Background()

	// One record only in the relational copy, one in both.
	docs.down = true
	_, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)
	docs.down = false
	_, err = s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)
	require.Len(t, rows.byID, 2)

	recs, prov, err := s.ListByOwner(ctx, "o@x.test", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, ProvenanceDocument, prov)
	assert.Len(t, recs, 1)
}

func TestUpdateSessionPolicyDivergence(t *testing.T) {
	s, _, _ := newTestStore(MirrorSession)
	ctx := context.Background()

	res, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)
	sqlID := "1"
	session := Bridge{DocID: res.DocID}

	// Same session: both copies change.
	newRaw := content.FromRaw("<h1>Spring menu</h1>")
	out, err := s.Update(ctx, sqlID, Patch{Content: &newRaw}, session)
	require.NoError(t, err)
	assert.True(t, out.Mirrored)

	doc, prov, err := s.Get(ctx, res.DocID)
	require.NoError(t, err)
	assert.Equal(t, ProvenanceDocument, prov)
	assert.Equal(t, newRaw, doc.Content)

	// Another session: only the relational copy changes.
	later := content.FromRaw("<h1>Summer menu</h1>")
	out, err = s.Update(ctx, sqlID, Patch{Content: &later}, Bridge{})
	require.NoError(t, err)
	assert.False(t, out.Mirrored)

	row, prov, err := s.Get(ctx, sqlID)
	require.NoError(t, err)
	assert.Equal(t, ProvenanceRelational, prov)
	assert.Equal(t, later, row.Content)

	doc, _, err = s.Get(ctx, res.DocID)
	require.NoError(t, err)
	assert.Equal(t, newRaw, doc.Content, "document copy keeps the older content")
}

func TestUpdateSessionPolicyIgnoresForeignBridge(t *testing.T) {
	s, _, _ := newTestStore(MirrorSession)
	ctx := context.Background()

	first, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)
	second, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)

	// Session points at the second site; editing the first must not touch
	// the second site's document.
	out, err := s.Update(ctx, first.DocID, Patch{Location: strp("Munnar")}, Bridge{DocID: second.DocID})
	require.NoError(t, err)
	assert.False(t, out.Mirrored)

	doc, _, err := s.Get(ctx, second.DocID)
	require.NoError(t, err)
	assert.Equal(t, "Kochi", doc.Location)
}

func TestUpdateCanonicalMirrorsWithoutSession(t *testing.T) {
	s, _, _ := newTestStore(MirrorCanonical)
	ctx := context.Background()

	res, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)

	out, err := s.Update(ctx, res.DocID, Patch{BusinessName: strp("Green Oak Café")}, Bridge{})
	require.NoError(t, err)
	assert.True(t, out.Mirrored)
	assert.Equal(t, res.SQLID, out.SQLID)

	doc, _, err := s.Get(ctx, res.DocID)
	require.NoError(t, err)
	assert.Equal(t, "Green Oak Café", doc.BusinessName)
	assert.Equal(t, "green-oak-cafe", doc.Slug)
	assert.True(t, doc.UpdatedAt.After(doc.CreatedAt))

	row, _, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Green Oak Café", row.BusinessName)
}

func TestUpdateDocumentFailureIsWarning(t *testing.T) {
	s, _, docs := newTestStore(MirrorCanonical)
	ctx := context.Background()
	res, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)

	docs.down = true
	out, err := s.Update(ctx, "1", Patch{Location: strp("Munnar")}, Bridge{})
	require.NoError(t, err)
	assert.False(t, out.Mirrored)
	assert.Equal(t, WarnSecondaryUpdate, out.Warning)

	docs.down = false
	doc, _, err := s.Get(ctx, res.DocID)
	require.NoError(t, err)
	assert.Equal(t, "Kochi", doc.Location)
}

func TestUpdateRelationalFailureIsFatal(t *testing.T) {
	s, rows, docs := newTestStore(MirrorCanonical)
	ctx := context.Background()
	res, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)

	rows.failOn["update"] = errDown
	_, err = s.Update(ctx, "1", Patch{Location: strp("Munnar")}, Bridge{DocID: res.DocID})
	require.Error(t, err)
	assert.Equal(t, "Kochi", docs.byID[res.DocID].Location)
}

func TestUpdateUnknownID(t *testing.T) {
	s, _, _ := newTestStore(MirrorCanonical)
	_, err := s.Update(context.Background(), "99", Patch{}, Bridge{})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUpdateFollowsDocumentSQLID(t *testing.T) {
	s, rows, docs := newTestStore(MirrorCanonical)
	ctx := context.Background()
	res, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)

	// Simulate a legacy row written before doc_id existed.
	r := rows.byID[res.SQLID]
	r.DocID = ""
	rows.byID[res.SQLID] = r

	out, err := s.Update(ctx, res.DocID, Patch{Location: strp("Munnar")}, Bridge{})
	require.NoError(t, err)
	assert.True(t, out.Mirrored)
	assert.Equal(t, "Munnar", rows.byID[res.SQLID].Location)
	assert.Equal(t, "Munnar", docs.byID[res.DocID].Location)
}

func TestDeleteSessionPolicy(t *testing.T) {
	s, rows, docs := newTestStore(MirrorSession)
	ctx := context.Background()

	a, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)
	b, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)

	out, err := s.Delete(ctx, "1", Bridge{DocID: a.DocID})
	require.NoError(t, err)
	assert.True(t, out.Mirrored)
	assert.NotContains(t, docs.byID, a.DocID)

	out, err = s.Delete(ctx, "2", Bridge{})
	require.NoError(t, err)
	assert.False(t, out.Mirrored)
	assert.Empty(t, rows.byID)

	// The orphaned document copy is still readable.
	_, prov, err := s.Get(ctx, b.DocID)
	require.NoError(t, err)
	assert.Equal(t, ProvenanceDocument, prov)

	_, err = s.Delete(ctx, "2", Bridge{})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestDeleteCanonical(t *testing.T) {
	s, rows, docs := newTestStore(MirrorCanonical)
	ctx := context.Background()
	res, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)

	out, err := s.Delete(ctx, res.DocID, Bridge{})
	require.NoError(t, err)
	assert.True(t, out.Mirrored)
	assert.Empty(t, rows.byID)
	assert.Empty(t, docs.byID)

	_, _, err = s.Get(ctx, res.DocID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestStats(t *testing.T) {
	s, rows, docs := newTestStore(MirrorCanonical)
	ctx := context.Background()
	_, err := s.Create(ctx, blueOakRecord("o@x.test"))
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, st.RelationalOK)
	assert.EqualValues(t, 1, st.RowCount)
	assert.True(t, st.Doc.Connected)
	assert.EqualValues(t, 1, st.Doc.Count)

	rows.failOn["count"] = errDown
	docs.down = true
	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, st.RelationalOK)
	assert.NotEmpty(t, st.RelationalErr)
	assert.False(t, st.Doc.Connected)
}
