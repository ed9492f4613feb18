// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"fmt"
	"strings"

	"github.com/pdiddy/profile-engine/pkg/types"
)

// evidenceChunk is one map-step unit: formatted evidence entries whose
// combined size fits the chunk byte budget.
type evidenceChunk struct {
	entries []string
	bytes   int
}

// chunkEvidence packs formatted evidence entries into chunks under the
// byte budget, preserving store order (full text first). An entry larger
// than the budget is truncated rather than dropped: losing an item's
// tail beats losing the item.
func chunkEvidence(items []types.EvidenceItem, budget int) []evidenceChunk {
	var chunks []evidenceChunk
	current := evidenceChunk{}

	for _, item := range items {
		entry := formatEntry(item, budget)
		if current.bytes > 0 && current.bytes+len(entry) > budget {
			chunks = append(chunks, current)
			current = evidenceChunk{}
		}
		current.entries = append(current.entries, entry)
		current.bytes += len(entry)
	}
	if current.bytes > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// formatEntry renders one evidence item as a prompt block headed by its
// citation marker.
func formatEntry(item types.EvidenceItem, budget int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[E:%s] %s", item.EvidenceID, item.Title)
	if item.Year > 0 {
		fmt.Fprintf(&b, " (%d)", item.Year)
	}
	if item.Venue != "" {
		fmt.Fprintf(&b, ", %s", item.Venue)
	}
	if len(item.Authors) > 0 {
		fmt.Fprintf(&b, "\nAuthors: %s", strings.Join(item.Authors, ", "))
	}
	fmt.Fprintf(&b, "\nCoverage: %s", item.Document)

	text := strings.TrimSpace(item.Text)
	if text != "" {
		// Leave room for the header lines already written.
		room := budget - b.Len() - 16
		if room > 0 && len(text) > room {
			text = text[:room]
		}
		fmt.Fprintf(&b, "\n%s", text)
	}
	b.WriteString("\n\n")
	return b.String()
}

func (c evidenceChunk) String() string {
	return strings.Join(c.entries, "")
}
