// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Paragraph is one paragraph of generated prose with its citation tags.
// Every emitted paragraph carries at least one evidence id.
type Paragraph struct {
	Text      string   `json:"text" yaml:"text"`
	Citations []string `json:"citations" yaml:"citations"`
}

// ReportSection is one synthesized section of the profile report.
type ReportSection struct {
	SectionID  string      `json:"section_id" yaml:"section_id"`
	Title      string      `json:"title" yaml:"title"`
	Paragraphs []Paragraph `json:"paragraphs" yaml:"paragraphs"`

	// Fallback marks sections produced by the deterministic template
	// after the generation ladder was exhausted.
	Fallback bool `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// Report is the input contract for the external rendering backend:
// an ordered list of sections with per-paragraph citations.
type Report struct {
	PersonName string          `json:"person_name" yaml:"person_name"`
	Sections   []ReportSection `json:"sections" yaml:"sections"`
}
