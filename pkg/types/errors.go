// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// SourceUnavailableError reports that a source could not be reached after
// exhausting the fetch gate's retry budget, or is in a block cool-down.
// Callers treat it as a soft failure: the source is empty for this run.
type SourceUnavailableError struct {
	Source string
	Reason string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %s", e.Source, e.Reason)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// DownloadFailureError reports one failed provider attempt. The cascade
// records it and advances to the next provider.
type DownloadFailureError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *DownloadFailureError) Error() string {
	return fmt.Sprintf("download via %s failed: %s", e.Provider, e.Reason)
}

func (e *DownloadFailureError) Unwrap() error { return e.Err }

// CompletionFailureError reports a failed or unusable completion-service
// call. It drives the synthesizer's retry ladder, never a pipeline abort.
type CompletionFailureError struct {
	Reason string
	Err    error
}

func (e *CompletionFailureError) Error() string {
	return fmt.Sprintf("completion failed: %s", e.Reason)
}

func (e *CompletionFailureError) Unwrap() error { return e.Err }

// CitationIntegrityError reports a citation of an evidence id that does
// not exist in the evidence store. Fatal for the affected section only;
// the section must be regenerated.
type CitationIntegrityError struct {
	SectionID  string
	EvidenceID string
}

func (e *CitationIntegrityError) Error() string {
	return fmt.Sprintf("section %s cites unknown evidence id %q", e.SectionID, e.EvidenceID)
}

// CacheIOError wraps a cache store failure. Callers degrade to cache-miss
// behavior; the error is logged, not propagated.
type CacheIOError struct {
	Op  string
	Err error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
}

func (e *CacheIOError) Unwrap() error { return e.Err }
