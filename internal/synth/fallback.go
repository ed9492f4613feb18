// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"fmt"
	"strings"

	"github.com/pdiddy/profile-engine/internal/cite"
	"github.com/pdiddy/profile-engine/pkg/types"
)

// fallbackSection builds a section deterministically from evidence
// metadata when generation is exhausted. Every paragraph cites the real
// evidence it was built from; a paragraph that would have nothing to
// cite is omitted. The section carries the fallback flag so downstream
// consumers can tell generated prose from assembled metadata.
func fallbackSection(person types.Person, spec SectionSpec, items []types.EvidenceItem) types.ReportSection {
	var bios, pubs []types.EvidenceItem
	for _, it := range items {
		if it.Kind == types.RecordBiography {
			bios = append(bios, it)
		} else {
			pubs = append(pubs, it)
		}
	}

	var paragraphs []types.Paragraph
	add := func(text string) {
		if ids := cite.ExtractMarkers(text); len(ids) > 0 {
			paragraphs = append(paragraphs, types.Paragraph{Text: text, Citations: ids})
		}
	}

	switch spec.ID {
	case "overview", "career":
		add(biographyParagraph(bios))
		add(venueParagraph(person, pubs))
	case "publications":
		add(publicationListParagraph(pubs, 8))
	case "expertise":
		add(titleThemesParagraph(person, pubs, 6))
	default:
		add(biographyParagraph(bios))
		add(publicationListParagraph(pubs, 5))
	}

	return types.ReportSection{
		SectionID:  spec.ID,
		Title:      spec.Title,
		Paragraphs: paragraphs,
		Fallback:   true,
	}
}

// biographyParagraph reproduces the first sentences of the best biography
// extract, cited to that extract.
func biographyParagraph(bios []types.EvidenceItem) string {
	for _, b := range bios {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		if idx := nthSentenceEnd(text, 3); idx > 0 {
			text = text[:idx]
		}
		return fmt.Sprintf("%s [E:%s]", text, b.EvidenceID)
	}
	return ""
}

// venueParagraph summarizes where the person has published.
func venueParagraph(person types.Person, pubs []types.EvidenceItem) string {
	var venues []string
	var markers []string
	seen := make(map[string]bool)
	for _, p := range pubs {
		if p.Venue == "" || seen[p.Venue] {
			continue
		}
		seen[p.Venue] = true
		venues = append(venues, p.Venue)
		markers = append(markers, "[E:"+p.EvidenceID+"]")
		if len(venues) == 5 {
			break
		}
	}
	if len(venues) == 0 {
		return ""
	}
	return fmt.Sprintf("%s has published in venues including %s. %s",
		person.CanonicalName, strings.Join(venues, ", "), strings.Join(markers, " "))
}

// publicationListParagraph enumerates the top publications with their
// markers.
func publicationListParagraph(pubs []types.EvidenceItem, limit int) string {
	var parts []string
	for _, p := range pubs {
		if len(parts) == limit {
			break
		}
		entry := fmt.Sprintf("%q", p.Title)
		if p.Year > 0 {
			entry += fmt.Sprintf(" (%d)", p.Year)
		}
		if p.Venue != "" {
			entry += ", " + p.Venue
		}
		entry += fmt.Sprintf(" [E:%s]", p.EvidenceID)
		parts = append(parts, entry)
	}
	if len(parts) == 0 {
		return ""
	}
	return "Notable publications include " + strings.Join(parts, "; ") + "."
}

// titleThemesParagraph points at the publication titles as the observable
// signal of expertise.
func titleThemesParagraph(person types.Person, pubs []types.EvidenceItem, limit int) string {
	var titles []string
	var markers []string
	for _, p := range pubs {
		if len(titles) == limit {
			break
		}
		titles = append(titles, fmt.Sprintf("%q", p.Title))
		markers = append(markers, "[E:"+p.EvidenceID+"]")
	}
	if len(titles) == 0 {
		return ""
	}
	return fmt.Sprintf("The published work of %s spans topics reflected in titles such as %s. %s",
		person.CanonicalName, strings.Join(titles, ", "), strings.Join(markers, " "))
}

// nthSentenceEnd returns the byte offset just past the nth sentence
// terminator, or 0 when there are fewer than n sentences.
func nthSentenceEnd(text string, n int) int {
	count := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
			if count == n {
				return i + 1
			}
		}
	}
	return 0
}
