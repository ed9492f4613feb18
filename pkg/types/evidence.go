// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DocumentKind says what text backs an evidence item.
type DocumentKind string

const (
	DocFullText     DocumentKind = "full_text"
	DocAbstractOnly DocumentKind = "abstract_only"
	DocMetadataOnly DocumentKind = "metadata_only"
)

// EvidenceItem unifies an admitted record with its resolved document.
// It is the only unit the synthesizer may cite.
type EvidenceItem struct {
	// EvidenceID is stable across runs: first 12 hex characters of
	// SHA-256 over source, normalized title, and year.
	EvidenceID string `json:"evidence_id" yaml:"evidence_id"`

	Source  Source     `json:"source" yaml:"source"`
	Kind    RecordKind `json:"kind" yaml:"kind"`
	Title   string     `json:"title" yaml:"title"`
	Authors []string   `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year    int        `json:"year,omitempty" yaml:"year,omitempty"`
	Venue   string     `json:"venue,omitempty" yaml:"venue,omitempty"`

	// CandidateID links publication evidence back to its curated
	// candidate, empty for metadata-only records and biographies.
	CandidateID string `json:"candidate_id,omitempty" yaml:"candidate_id,omitempty"`

	Document DocumentKind `json:"document" yaml:"document"`

	// Text is the citable body: extracted full text, abstract, or a
	// metadata summary line depending on Document.
	Text string `json:"text" yaml:"text"`

	LocalPath string `json:"local_path,omitempty" yaml:"local_path,omitempty"`
}
