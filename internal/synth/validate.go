// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"fmt"
	"strings"

	"github.com/pdiddy/profile-engine/internal/cite"
	"github.com/pdiddy/profile-engine/pkg/types"
)

// validateSection checks completion output against the acceptance
// contract: enough substance, at least one citation marker per paragraph,
// and no marker that names an unknown evidence id. On success it returns
// the parsed section with per-paragraph citations attached.
func validateSection(spec SectionSpec, text string, minChars int, known map[string]bool) (types.ReportSection, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.ReportSection{}, fmt.Errorf("empty section text")
	}
	if len(text) < minChars {
		return types.ReportSection{}, fmt.Errorf("section too short: %d chars, need %d", len(text), minChars)
	}

	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return types.ReportSection{}, fmt.Errorf("no paragraphs")
	}

	section := types.ReportSection{
		SectionID: spec.ID,
		Title:     spec.Title,
	}

	for i, p := range paragraphs {
		ids := cite.ExtractMarkers(p)
		if len(ids) == 0 {
			return types.ReportSection{}, fmt.Errorf("paragraph %d has no citation marker", i+1)
		}
		for _, id := range ids {
			if !known[id] {
				return types.ReportSection{}, &types.CitationIntegrityError{SectionID: spec.ID, EvidenceID: id}
			}
		}
		section.Paragraphs = append(section.Paragraphs, types.Paragraph{
			Text:      p,
			Citations: ids,
		})
	}

	return section, nil
}
