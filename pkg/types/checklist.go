// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ChecklistRow is the audit record for one paper candidate: what was
// requested, whether it arrived, and where the evidence was used.
type ChecklistRow struct {
	CandidateID      string   `json:"candidate_id" yaml:"candidate_id"`
	Title            string   `json:"title" yaml:"title"`
	Authors          string   `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year             int      `json:"year,omitempty" yaml:"year,omitempty"`
	Venue            string   `json:"venue,omitempty" yaml:"venue,omitempty"`
	CitationCount    int      `json:"citation_count" yaml:"citation_count"`
	Requested        bool     `json:"requested" yaml:"requested"`
	Downloaded       bool     `json:"downloaded" yaml:"downloaded"`
	ProviderUsed     string   `json:"provider_used,omitempty" yaml:"provider_used,omitempty"`
	CitedIn          []string `json:"cited_in" yaml:"cited_in"`
	AccessSuggestion string   `json:"access_suggestion,omitempty" yaml:"access_suggestion,omitempty"`
}

// ChecklistSummary aggregates row counts for the checklist footer.
type ChecklistSummary struct {
	TotalPapers  int `json:"total_papers" yaml:"total_papers"`
	Downloaded   int `json:"downloaded" yaml:"downloaded"`
	MetadataOnly int `json:"metadata_only" yaml:"metadata_only"`
	CitedPapers  int `json:"cited_papers" yaml:"cited_papers"`
}

// Checklist is the full audit artifact, built last from final pipeline
// state and never mutated afterwards.
type Checklist struct {
	PersonName string           `json:"person_name" yaml:"person_name"`
	Rows       []ChecklistRow   `json:"rows" yaml:"rows"`
	Summary    ChecklistSummary `json:"summary" yaml:"summary"`
}
