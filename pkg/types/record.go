// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Source identifies a scraper backend.
type Source string

const (
	SourceCrossRef        Source = "crossref"
	SourceSemanticScholar Source = "semantic_scholar"
	SourceOpenAlex        Source = "openalex"
	SourceWikipedia       Source = "wikipedia"
)

// RecordKind classifies what a RawRecord describes.
type RecordKind string

const (
	RecordPublication RecordKind = "publication"
	RecordBiography   RecordKind = "biography"
)

// RawRecord is one record as returned by a scraper. The pipeline owns it
// once returned; records are filtered, never mutated.
type RawRecord struct {
	Source Source     `json:"source" yaml:"source"`
	Kind   RecordKind `json:"kind" yaml:"kind"`

	// Required-field contract, validated at the scraper boundary.
	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year    int      `json:"year,omitempty" yaml:"year,omitempty"`
	URLs    []string `json:"urls,omitempty" yaml:"urls,omitempty"`

	Venue         string `json:"venue,omitempty" yaml:"venue,omitempty"`
	Abstract      string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Affiliation   string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
	DOI           string `json:"doi,omitempty" yaml:"doi,omitempty"`
	ArxivID       string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
	CitationCount int    `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// Extra holds source-specific fields outside the narrow contract,
	// e.g. the source's author id used for external-id traceability.
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`

	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// AuthorID returns the source-side author identifier attached to the
// record, if the scraper provided one.
func (r RawRecord) AuthorID() string {
	return r.Extra["author_id"]
}

// AdmissionDecision is the identity resolver's verdict for one record.
// A record with Admitted=false must never reach the evidence store or
// the synthesizer.
type AdmissionDecision struct {
	Record   RawRecord `json:"record" yaml:"record"`
	Admitted bool      `json:"admitted" yaml:"admitted"`
	Reason   string    `json:"reason" yaml:"reason"`
}
