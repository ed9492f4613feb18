// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite tracks which evidence items back which report sections.
// The tracker only ever accepts evidence ids that exist in the store, so
// the final report cannot cite fabricated sources.
package cite

import (
	"context"
	"regexp"
	"sort"
	"sync"

	"github.com/pdiddy/profile-engine/internal/evidence"
	"github.com/pdiddy/profile-engine/pkg/types"
)

// markerPattern matches inline citation markers of the form
// [E:3f2a9c81d04b].
var markerPattern = regexp.MustCompile(`\[E:([0-9a-f]{12})\]`)

// ExtractMarkers returns the evidence ids cited in text, in order of
// first appearance, without duplicates.
func ExtractMarkers(text string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	}
	return ids
}

// Tracker records evidence-to-section links in both directions. Safe for
// concurrent use: sections are synthesized in parallel.
type Tracker struct {
	store *evidence.Store

	mu          sync.Mutex
	bySection   map[string][]string // section id -> evidence ids, insertion order
	byEvidence  map[string][]string // evidence id -> section ids, insertion order
	sectionSeen map[string]map[string]bool
}

// NewTracker builds a tracker that verifies ids against the given store.
func NewTracker(store *evidence.Store) *Tracker {
	return &Tracker{
		store:       store,
		bySection:   make(map[string][]string),
		byEvidence:  make(map[string][]string),
		sectionSeen: make(map[string]map[string]bool),
	}
}

// Record registers that sectionID cites evidenceID. An id missing from
// the store is a *types.CitationIntegrityError and the link is not
// recorded.
func (t *Tracker) Record(ctx context.Context, sectionID, evidenceID string) error {
	ok, err := t.store.Exists(ctx, evidenceID)
	if err != nil {
		return err
	}
	if !ok {
		return &types.CitationIntegrityError{SectionID: sectionID, EvidenceID: evidenceID}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	seen := t.sectionSeen[sectionID]
	if seen == nil {
		seen = make(map[string]bool)
		t.sectionSeen[sectionID] = seen
	}
	if seen[evidenceID] {
		return nil
	}
	seen[evidenceID] = true

	t.bySection[sectionID] = append(t.bySection[sectionID], evidenceID)
	t.byEvidence[evidenceID] = append(t.byEvidence[evidenceID], sectionID)
	return nil
}

// RecordSection registers every marker found in an accepted section's
// paragraphs. The first unknown id aborts and is returned.
func (t *Tracker) RecordSection(ctx context.Context, section types.ReportSection) error {
	for _, p := range section.Paragraphs {
		for _, id := range ExtractMarkers(p.Text) {
			if err := t.Record(ctx, section.SectionID, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cited returns the evidence ids cited by a section, in citation order.
func (t *Tracker) Cited(sectionID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.bySection[sectionID]...)
}

// SectionsFor returns the sections citing an evidence id.
func (t *Tracker) SectionsFor(evidenceID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.byEvidence[evidenceID]...)
}

// CitedAnywhere reports whether the evidence id is cited by any section.
func (t *Tracker) CitedAnywhere(evidenceID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byEvidence[evidenceID]) > 0
}

// Uncited returns, sorted, the ids from the given set that no section
// cites. This feeds the checklist's coverage accounting.
func (t *Tracker) Uncited(evidenceIDs []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	for _, id := range evidenceIDs {
		if len(t.byEvidence[id]) == 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
