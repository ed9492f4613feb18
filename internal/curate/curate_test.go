// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package curate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/profile-engine/pkg/types"
)

func pub(title string, year, citations int) types.RawRecord {
	return types.RawRecord{
		Kind:          types.RecordPublication,
		Title:         title,
		Authors:       []string{"Jane Doe"},
		Year:          year,
		CitationCount: citations,
	}
}

func TestCurateTopNSplit(t *testing.T) {
	person := types.Person{CanonicalName: "Jane Doe"}

	var records []types.RawRecord
	for i := 0; i < 60; i++ {
		records = append(records, pub(fmt.Sprintf("Paper number %d", i), 2000+i%20, i))
	}

	cur := Curate(person, records, types.CurationConfig{TopN: 25})
	assert.Len(t, cur.Candidates, 25)
	assert.Len(t, cur.MetadataOnly, 35)

	// Highest citation counts first when no topic keywords are configured.
	assert.Equal(t, "Paper number 59", cur.Candidates[0].Title)
	assert.Equal(t, float64(59), cur.Candidates[0].CompositeScore)

	// Below-cut records keep full record data for citation eligibility.
	for _, r := range cur.MetadataOnly {
		assert.NotEmpty(t, r.Title)
	}
}

func TestCurateTopicWeightDominatesCitations(t *testing.T) {
	person := types.Person{
		CanonicalName:  "Jane Doe",
		DomainKeywords: []string{"brand equity"},
	}

	records := []types.RawRecord{
		pub("A well cited but off-topic paper", 2010, 800),
		pub("Measuring brand equity over time", 2015, 40),
	}

	cur := Curate(person, records, types.CurationConfig{TopN: 2, TopicWeight: 1000})
	require.Len(t, cur.Candidates, 2)

	assert.Equal(t, "Measuring brand equity over time", cur.Candidates[0].Title,
		"one keyword hit at weight 1000 outranks 800 raw citations")
	assert.Equal(t, float64(1040), cur.Candidates[0].CompositeScore)
}

func TestCurateCompositeScore(t *testing.T) {
	person := types.Person{
		CanonicalName:  "Jane Doe",
		DomainKeywords: []string{"branding"},
	}
	records := []types.RawRecord{
		{
			Kind:          types.RecordPublication,
			Title:         "Branding strategies",
			Authors:       []string{"Jane Doe"},
			Abstract:      "A study of branding in consumer markets. Branding matters.",
			CitationCount: 120,
		},
	}

	cur := Curate(person, records, types.CurationConfig{TopN: 5, TopicWeight: 1000})
	require.Len(t, cur.Candidates, 1)

	c := cur.Candidates[0]
	// One hit in the title plus two in the abstract.
	assert.Equal(t, float64(3000), c.TopicScore)
	assert.Equal(t, float64(3120), c.CompositeScore)
}

func TestCurateTieBreaks(t *testing.T) {
	person := types.Person{CanonicalName: "Jane Doe"}
	records := []types.RawRecord{
		pub("Older with equal citations", 2005, 10),
		pub("Newer with equal citations", 2020, 10),
	}

	cur := Curate(person, records, types.CurationConfig{TopN: 2})
	require.Len(t, cur.Candidates, 2)
	assert.Equal(t, "Newer with equal citations", cur.Candidates[0].Title,
		"equal scores break toward the more recent year")
}

func TestCurateDedupe(t *testing.T) {
	person := types.Person{CanonicalName: "Jane Doe"}
	records := []types.RawRecord{
		{
			Kind:          types.RecordPublication,
			Source:        types.SourceCrossRef,
			Title:         "Shared Title",
			Authors:       []string{"Jane Doe"},
			DOI:           "10.1/abc",
			CitationCount: 10,
			URLs:          []string{"https://a.example/pdf"},
		},
		{
			Kind:          types.RecordPublication,
			Source:        types.SourceSemanticScholar,
			Title:         "Shared Title",
			Authors:       []string{"Jane Doe"},
			DOI:           "10.1/abc",
			Year:          2018,
			Abstract:      "filled from the duplicate",
			CitationCount: 25,
			URLs:          []string{"https://b.example/pdf", "https://a.example/pdf"},
		},
	}

	cur := Curate(person, records, types.CurationConfig{TopN: 10})
	require.Len(t, cur.Candidates, 1, "same DOI must collapse to one candidate")

	c := cur.Candidates[0]
	assert.Equal(t, 25, c.CitationCount, "merge keeps the higher citation count")
	assert.Equal(t, 2018, c.Year, "merge fills missing year")
	assert.Equal(t, "filled from the duplicate", c.Record.Abstract)
	assert.Equal(t, []string{"https://a.example/pdf", "https://b.example/pdf"}, c.CandidateURLs)
}

func TestCurateDedupeByTitleWithoutDOI(t *testing.T) {
	person := types.Person{CanonicalName: "Jane Doe"}
	records := []types.RawRecord{
		pub("Consumer Behaviour Basics", 2012, 5),
		pub("consumer behaviour basics", 2012, 8),
	}

	cur := Curate(person, records, types.CurationConfig{TopN: 10})
	assert.Len(t, cur.Candidates, 1)
	assert.Equal(t, 8, cur.Candidates[0].CitationCount)
}

func TestCandidateIDStable(t *testing.T) {
	r := types.RawRecord{Title: "Conceptualizing, Measuring, and Managing Customer-Based Brand Equity", Year: 1993}

	id1 := CandidateID(r)
	id2 := CandidateID(r)
	assert.Equal(t, id1, id2, "same record, same id")

	assert.True(t, strings.HasPrefix(id1, "conceptualizing-measuring-and-managing-"),
		"slug keeps at most four words: %s", id1)
	parts := strings.Split(id1, "-")
	assert.Len(t, parts[len(parts)-1], 8, "id ends with the 8-hex hash")

	other := CandidateID(types.RawRecord{Title: r.Title, Year: 1994})
	assert.NotEqual(t, id1, other, "year participates in the hash")
}

func TestCurateIgnoresBiographies(t *testing.T) {
	person := types.Person{CanonicalName: "Jane Doe"}
	records := []types.RawRecord{
		{Kind: types.RecordBiography, Title: "Jane Doe", Abstract: "bio"},
		pub("Actual paper", 2019, 3),
	}

	cur := Curate(person, records, types.CurationConfig{TopN: 10})
	require.Len(t, cur.Candidates, 1)
	assert.Equal(t, "Actual paper", cur.Candidates[0].Title)
}
