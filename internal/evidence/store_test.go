// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/profile-engine/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIDStable(t *testing.T) {
	id := ID(types.SourceCrossRef, "Conceptualizing Brand Equity", 1993)
	assert.Len(t, id, 12)
	assert.Regexp(t, "^[0-9a-f]{12}$", id)

	assert.Equal(t, id, ID(types.SourceCrossRef, "  conceptualizing BRAND equity ", 1993),
		"title folding makes the id case and whitespace insensitive")
	assert.NotEqual(t, id, ID(types.SourceOpenAlex, "Conceptualizing Brand Equity", 1993))
	assert.NotEqual(t, id, ID(types.SourceCrossRef, "Conceptualizing Brand Equity", 1994))
}

func TestPutGetRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item := types.EvidenceItem{
		EvidenceID:  ID(types.SourceCrossRef, "Brand Equity", 1993),
		Source:      types.SourceCrossRef,
		Kind:        types.RecordPublication,
		Title:       "Brand Equity",
		Authors:     []string{"Kevin Lane Keller", "Vanitha Swaminathan"},
		Year:        1993,
		Venue:       "Journal of Marketing",
		CandidateID: "brand-equity-ab12cd34",
		Document:    types.DocFullText,
		Text:        "The full text of the paper.",
		LocalPath:   "papers/kevin_lane_keller/brand-equity-ab12cd34.pdf",
	}
	require.NoError(t, s.Put(ctx, item))

	got, ok, err := s.Get(ctx, item.EvidenceID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, item, got)

	_, ok, err = s.Get(ctx, "000000000000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item := types.EvidenceItem{
		EvidenceID: "aaaabbbbcccc",
		Source:     types.SourceCrossRef,
		Kind:       types.RecordPublication,
		Title:      "Paper",
		Document:   types.DocMetadataOnly,
	}
	require.NoError(t, s.Put(ctx, item))

	// Re-running a later stage upgrades the document level in place.
	item.Document = types.DocFullText
	item.Text = "extracted text"
	require.NoError(t, s.Put(ctx, item))

	got, ok, err := s.Get(ctx, item.EvidenceID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.DocFullText, got.Document)
	assert.Equal(t, "extracted text", got.Text)

	items, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1, "upsert must not duplicate the row")
}

func TestExists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, types.EvidenceItem{
		EvidenceID: "aaaabbbbcccc", Source: types.SourceWikipedia,
		Kind: types.RecordBiography, Title: "Bio", Document: types.DocFullText,
	}))

	ok, err := s.Exists(ctx, "aaaabbbbcccc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "ddddeeeeffff")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllOrdersByDocumentLevel(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutAll(ctx, []types.EvidenceItem{
		{EvidenceID: "000000000001", Source: "s", Kind: types.RecordPublication, Title: "B meta", Document: types.DocMetadataOnly},
		{EvidenceID: "000000000002", Source: "s", Kind: types.RecordPublication, Title: "A abstract", Document: types.DocAbstractOnly},
		{EvidenceID: "000000000003", Source: "s", Kind: types.RecordPublication, Title: "Z full", Document: types.DocFullText},
		{EvidenceID: "000000000004", Source: "s", Kind: types.RecordPublication, Title: "A full", Document: types.DocFullText},
	}))

	items, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, items, 4)

	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	assert.Equal(t, []string{"A full", "Z full", "A abstract", "B meta"}, titles)
}

func TestSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutAll(ctx, []types.EvidenceItem{
		{EvidenceID: "000000000001", Source: "s", Kind: types.RecordPublication,
			Title: "Brand resonance", Document: types.DocFullText, Text: "Building strong brands through resonance."},
		{EvidenceID: "000000000002", Source: "s", Kind: types.RecordPublication,
			Title: "Soil mechanics", Document: types.DocFullText, Text: "Geotechnical measurements."},
	}))

	items, err := s.Search(ctx, "brand", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Brand resonance", items[0].Title)
}

func TestWriteItems(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutAll(ctx, []types.EvidenceItem{
		{EvidenceID: "000000000001", Source: "s", Kind: types.RecordPublication,
			Title: "Brand resonance", Year: 2015, Document: types.DocFullText,
			Text: "Building strong brands through resonance."},
		{EvidenceID: "000000000002", Source: "s", Kind: types.RecordBiography,
			Title: "Jane Doe", Document: types.DocFullText, Text: "A biography."},
	}))

	items, err := s.Search(ctx, "brand", 10)
	require.NoError(t, err)

	var out bytes.Buffer
	WriteItems(&out, items)
	assert.Contains(t, out.String(), "000000000001")
	assert.Contains(t, out.String(), "Brand resonance (2015)")
	assert.Contains(t, out.String(), "1 evidence items")

	// Items without a year print bare titles.
	out.Reset()
	all, err := s.All(ctx)
	require.NoError(t, err)
	WriteItems(&out, all)
	assert.Contains(t, out.String(), "Jane Doe\n")
	assert.NotContains(t, out.String(), "Jane Doe (0)")
}
