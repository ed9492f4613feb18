// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PaperCandidate is a curated publication selected for full-text retrieval.
// Immutable after selection except for accumulated download attempts.
type PaperCandidate struct {
	// ID is a stable slug derived from the underlying record
	// (source + normalized title + year).
	ID string `json:"id" yaml:"id"`

	Title         string   `json:"title" yaml:"title"`
	Authors       []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year          int      `json:"year,omitempty" yaml:"year,omitempty"`
	Venue         string   `json:"venue,omitempty" yaml:"venue,omitempty"`
	DOI           string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	ArxivID       string   `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
	CitationCount int      `json:"citation_count" yaml:"citation_count"`

	// TopicScore is the weighted domain-keyword hit count; CompositeScore
	// adds the citation count and orders the curation ranking.
	TopicScore     float64 `json:"topic_score" yaml:"topic_score"`
	CompositeScore float64 `json:"composite_score" yaml:"composite_score"`

	// CandidateURLs are document URLs from the record, most authoritative
	// first. The direct download provider walks this list.
	CandidateURLs []string `json:"candidate_urls,omitempty" yaml:"candidate_urls,omitempty"`

	// Record is the admitted record the candidate was derived from. It is
	// carried in stage artifacts so later stages keep the source provenance,
	// but stays out of the JSON surface.
	Record RawRecord `json:"-" yaml:"record,omitempty"`
}

// AttemptStatus is the outcome of one provider attempt.
type AttemptStatus string

const (
	AttemptPending AttemptStatus = "pending"
	AttemptSuccess AttemptStatus = "success"
	AttemptFailed  AttemptStatus = "failed"
	AttemptSkipped AttemptStatus = "skipped"
)

// DownloadAttempt records one (candidate, provider) try. Attempts accumulate
// per candidate in cascade order; the cascade halts at the first success.
type DownloadAttempt struct {
	CandidateID string        `json:"candidate_id" yaml:"candidate_id"`
	Provider    string        `json:"provider" yaml:"provider"`
	Status      AttemptStatus `json:"status" yaml:"status"`
	ErrorReason string        `json:"error_reason,omitempty" yaml:"error_reason,omitempty"`
	LocalPath   string        `json:"local_path,omitempty" yaml:"local_path,omitempty"`
}

// DownloadOutcome is the cascade result for one candidate.
type DownloadOutcome struct {
	CandidateID string            `json:"candidate_id" yaml:"candidate_id"`
	Attempts    []DownloadAttempt `json:"attempts" yaml:"attempts"`
	Downloaded  bool              `json:"downloaded" yaml:"downloaded"`
	Provider    string            `json:"provider,omitempty" yaml:"provider,omitempty"`
	LocalPath   string            `json:"local_path,omitempty" yaml:"local_path,omitempty"`
}
