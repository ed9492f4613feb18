// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/profile-engine/pkg/types"
)

// fixedExtractor implements convert.Extractor with a canned result.
type fixedExtractor struct {
	text string
	err  error
}

func (f *fixedExtractor) Extract(string) (string, error) { return f.text, f.err }

func TestBuildDegradationLadder(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	candidates := []types.PaperCandidate{
		{
			ID:    "downloaded-1",
			Title: "Downloaded and extracted",
			Year:  2020,
			Record: types.RawRecord{
				Source:   types.SourceCrossRef,
				Abstract: "abstract of the downloaded paper",
			},
		},
		{
			ID:    "failed-dl-1",
			Title: "Download failed, has abstract",
			Year:  2019,
			Record: types.RawRecord{
				Source:   types.SourceOpenAlex,
				Abstract: "only the abstract survives",
			},
		},
		{
			ID:     "bare-1",
			Title:  "Download failed, no abstract",
			Year:   2018,
			Record: types.RawRecord{Source: types.SourceOpenAlex},
		},
	}
	outcomes := []types.DownloadOutcome{
		{CandidateID: "downloaded-1", Downloaded: true, LocalPath: filepath.Join(dir, "downloaded-1.pdf")},
		{CandidateID: "failed-dl-1", Downloaded: false},
	}

	var out bytes.Buffer
	items, err := Build(ctx, nil, &fixedExtractor{text: "full extracted text"},
		candidates, outcomes, nil, nil, &out)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, types.DocFullText, items[0].Document)
	assert.Equal(t, "full extracted text", items[0].Text)
	assert.Equal(t, "downloaded-1", items[0].CandidateID)
	assert.NotEmpty(t, items[0].LocalPath)

	assert.Equal(t, types.DocAbstractOnly, items[1].Document)
	assert.Equal(t, "only the abstract survives", items[1].Text)

	assert.Equal(t, types.DocMetadataOnly, items[2].Document)
	assert.Empty(t, items[2].Text)
}

func TestBuildExtractionFailureDegradesToAbstract(t *testing.T) {
	dir := t.TempDir()

	candidates := []types.PaperCandidate{{
		ID:    "cand-1",
		Title: "Extraction fails",
		Year:  2021,
		Record: types.RawRecord{
			Source:   types.SourceCrossRef,
			Abstract: "fallback abstract",
		},
	}}
	outcomes := []types.DownloadOutcome{
		{CandidateID: "cand-1", Downloaded: true, LocalPath: filepath.Join(dir, "cand-1.pdf")},
	}

	var out bytes.Buffer
	items, err := Build(context.Background(), nil, &fixedExtractor{err: errors.New("corrupt pdf")},
		candidates, outcomes, nil, nil, &out)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, types.DocAbstractOnly, items[0].Document)
	assert.Equal(t, "fallback abstract", items[0].Text)
	assert.Empty(t, items[0].LocalPath, "a failed extraction leaves no usable local text")
}

func TestBuildExtractsInOneBatch(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	candidates := []types.PaperCandidate{
		{ID: "cand-a", Title: "First paper", Year: 2020,
			Record: types.RawRecord{Source: types.SourceCrossRef}},
		{ID: "cand-b", Title: "Second paper", Year: 2021,
			Record: types.RawRecord{Source: types.SourceOpenAlex}},
	}
	outcomes := []types.DownloadOutcome{
		{CandidateID: "cand-a", Downloaded: true, LocalPath: filepath.Join(dir, "cand-a.pdf")},
		{CandidateID: "cand-b", Downloaded: true, LocalPath: filepath.Join(dir, "cand-b.pdf")},
	}

	var out bytes.Buffer
	items, err := Build(ctx, nil, &fixedExtractor{text: "extracted body"},
		candidates, outcomes, nil, nil, &out)
	require.NoError(t, err)
	require.Len(t, items, 2)

	for _, item := range items {
		assert.Equal(t, types.DocFullText, item.Document)
		assert.Equal(t, "extracted body", item.Text)
	}
	assert.Contains(t, out.String(), "Batch summary: 2 extracted, 0 skipped, 0 failed")

	// Nothing downloaded means no batch run at all.
	out.Reset()
	_, err = Build(ctx, nil, nil, candidates, nil, nil, nil, &out)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "Batch summary:")
}

func TestBuildMetadataOnlyAndBiographies(t *testing.T) {
	metadataOnly := []types.RawRecord{
		{Source: types.SourceCrossRef, Kind: types.RecordPublication,
			Title: "Below the cut", Year: 2010, Abstract: "short abstract"},
		{Source: types.SourceCrossRef, Kind: types.RecordPublication,
			Title: "Bare metadata", Year: 2011},
	}
	biographies := []types.RawRecord{
		{Source: types.SourceWikipedia, Kind: types.RecordBiography,
			Title: "Jane Doe", Abstract: "Jane Doe is a marketing professor."},
	}

	var out bytes.Buffer
	items, err := Build(context.Background(), nil, nil, nil, nil, metadataOnly, biographies, &out)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, types.DocAbstractOnly, items[0].Document)
	assert.Equal(t, types.DocMetadataOnly, items[1].Document)

	bio := items[2]
	assert.Equal(t, types.RecordBiography, bio.Kind)
	assert.Equal(t, types.DocFullText, bio.Document, "biography extracts are citable text")
	assert.Equal(t, "Jane Doe is a marketing professor.", bio.Text)
}

func TestBuildPersistsToStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	biographies := []types.RawRecord{
		{Source: types.SourceWikipedia, Kind: types.RecordBiography,
			Title: "Jane Doe", Abstract: "A biography."},
	}

	var out bytes.Buffer
	items, err := Build(ctx, s, nil, nil, nil, nil, biographies, &out)
	require.NoError(t, err)
	require.Len(t, items, 1)

	ok, err := s.Exists(ctx, items[0].EvidenceID)
	require.NoError(t, err)
	assert.True(t, ok)
}
