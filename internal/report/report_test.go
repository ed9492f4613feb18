// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/profile-engine/pkg/types"
)

const (
	idBio = "aaaaaaaaaaaa"
	idPub = "bbbbbbbbbbbb"
)

func testReport() types.Report {
	return types.Report{
		PersonName: "Jane Doe",
		Sections: []types.ReportSection{
			{
				SectionID: "overview",
				Title:     "Overview",
				Paragraphs: []types.Paragraph{
					{Text: "Jane Doe studies brand equity [E:" + idBio + "].", Citations: []string{idBio}},
				},
			},
			{
				SectionID: "publications",
				Title:     "Notable Publications",
				Fallback:  true,
				Paragraphs: []types.Paragraph{
					{Text: "Notable publications include \"Measuring Brand Equity\" [E:" + idPub + "] and earlier surveys [E:" + idBio + "].",
						Citations: []string{idPub, idBio}},
				},
			},
			{
				SectionID: "influence",
				Title:     "Influence and Impact",
			},
		},
	}
}

func testItems() map[string]types.EvidenceItem {
	return map[string]types.EvidenceItem{
		idBio: {
			EvidenceID: idBio,
			Source:     types.SourceWikipedia,
			Kind:       types.RecordBiography,
			Title:      "Jane Doe",
			Document:   types.DocFullText,
		},
		idPub: {
			EvidenceID: idPub,
			Source:     types.SourceCrossRef,
			Kind:       types.RecordPublication,
			Title:      "Measuring Brand Equity",
			Authors:    []string{"Jane Doe", "John Roe"},
			Year:       2015,
			Venue:      "Journal of Marketing",
			Document:   types.DocAbstractOnly,
		},
	}
}

func TestRender(t *testing.T) {
	md := Render(testReport(), testItems())

	assert.True(t, strings.HasPrefix(md, "# Profile: Jane Doe\n\n"))

	// Section headings in layout order.
	overviewIdx := strings.Index(md, "## Overview")
	pubsIdx := strings.Index(md, "## Notable Publications")
	influenceIdx := strings.Index(md, "## Influence and Impact")
	refsIdx := strings.Index(md, "## References")
	require.True(t, overviewIdx >= 0 && pubsIdx > overviewIdx && influenceIdx > pubsIdx && refsIdx > influenceIdx)

	// The fallback label sits under its section heading only.
	assert.Equal(t, 1, strings.Count(md, "*Assembled from evidence metadata.*"))
	assert.Greater(t, strings.Index(md, "*Assembled from evidence metadata.*"), pubsIdx)

	// Empty sections carry an explicit note instead of silence.
	assert.Contains(t, md, "*No citable evidence available for this section.*")

	// References appear once each, in first-citation order.
	bioRef := strings.Index(md, "- `"+idBio+"`")
	pubRef := strings.Index(md, "- `"+idPub+"`")
	require.True(t, bioRef >= 0 && pubRef >= 0)
	assert.Less(t, bioRef, pubRef, "the overview cites the biography before the publication appears")
	assert.Equal(t, 1, strings.Count(md, "- `"+idBio+"`"))

	assert.Contains(t, md, "Measuring Brand Equity — Jane Doe, John Roe (2015), Journal of Marketing [crossref, abstract_only]")
}

func TestRenderUnresolvedReference(t *testing.T) {
	md := Render(testReport(), nil)
	assert.Contains(t, md, "- `"+idBio+"` (unresolved)")
}

func TestRenderNoCitations(t *testing.T) {
	rep := types.Report{PersonName: "Jane Doe", Sections: []types.ReportSection{
		{SectionID: "overview", Title: "Overview"},
	}}
	md := Render(rep, nil)
	assert.NotContains(t, md, "## References")
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	rep := testReport()

	require.NoError(t, Write(dir, rep, testItems()))

	data, err := os.ReadFile(filepath.Join(dir, "report.yaml"))
	require.NoError(t, err)
	var decoded types.Report
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, rep.PersonName, decoded.PersonName)
	require.Len(t, decoded.Sections, 3)
	assert.Equal(t, rep.Sections[0].Paragraphs, decoded.Sections[0].Paragraphs)
	assert.True(t, decoded.Sections[1].Fallback)

	md, err := os.ReadFile(filepath.Join(dir, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Profile: Jane Doe")

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"))
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	rep := testReport()
	require.NoError(t, Write(dir, rep, testItems()))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, rep.PersonName, loaded.PersonName)
	require.Len(t, loaded.Sections, len(rep.Sections))
	assert.Equal(t, rep.Sections[0].Paragraphs, loaded.Sections[0].Paragraphs)
}

func TestLoadMissingReport(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run the synthesize stage first")
}
