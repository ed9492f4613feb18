// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package curate scores admitted publication records and selects the
// top-N candidates to pursue for full-text retrieval. Everything below
// the cut stays citation-eligible as metadata.
package curate

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/profile-engine/internal/identity"
	"github.com/pdiddy/profile-engine/pkg/types"
)

const (
	defaultTopN        = 25
	defaultTopicWeight = 1000
)

// Curation is the split output: candidates go to the download cascade,
// metadata-only records remain citable without one.
type Curation struct {
	Candidates   []types.PaperCandidate
	MetadataOnly []types.RawRecord
}

// Curate deduplicates, scores, and ranks admitted publication records and
// selects the top-N as download candidates. Ordering is composite score
// descending, ties broken by citation count then by year (recent first).
func Curate(person types.Person, records []types.RawRecord, cfg types.CurationConfig) Curation {
	topN := cfg.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	weight := cfg.TopicWeight
	if weight <= 0 {
		weight = defaultTopicWeight
	}

	pubs := dedupe(filterPublications(records))

	candidates := make([]types.PaperCandidate, 0, len(pubs))
	for _, r := range pubs {
		hits := keywordHits(person.DomainKeywords, r.Title, r.Abstract)
		topic := weight * float64(hits)
		candidates = append(candidates, types.PaperCandidate{
			ID:             CandidateID(r),
			Title:          r.Title,
			Authors:        r.Authors,
			Year:           r.Year,
			Venue:          r.Venue,
			DOI:            r.DOI,
			ArxivID:        r.ArxivID,
			CitationCount:  r.CitationCount,
			TopicScore:     topic,
			CompositeScore: topic + float64(r.CitationCount),
			CandidateURLs:  append([]string(nil), r.URLs...),
			Record:         r,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		if a.CitationCount != b.CitationCount {
			return a.CitationCount > b.CitationCount
		}
		return a.Year > b.Year
	})

	if len(candidates) <= topN {
		return Curation{Candidates: candidates}
	}

	var metadataOnly []types.RawRecord
	for _, c := range candidates[topN:] {
		metadataOnly = append(metadataOnly, c.Record)
	}
	return Curation{
		Candidates:   candidates[:topN:topN],
		MetadataOnly: metadataOnly,
	}
}

// CandidateID derives a stable, filesystem-safe identifier from the
// record: a short title slug plus an 8-hex content hash, so re-runs pick
// the same id and the same local file path.
func CandidateID(r types.RawRecord) string {
	h := sha256.New()
	h.Write([]byte(identity.Fold(r.Title)))
	fmt.Fprintf(h, "\x00%d", r.Year)
	digest := fmt.Sprintf("%x", h.Sum(nil))[:8]

	words := strings.Fields(slugify(r.Title))
	if len(words) > 4 {
		words = words[:4]
	}
	if len(words) == 0 {
		return digest
	}
	return strings.Join(words, "-") + "-" + digest
}

func slugify(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '\t':
			return ' '
		default:
			return -1
		}
	}, s)
}

func filterPublications(records []types.RawRecord) []types.RawRecord {
	var out []types.RawRecord
	for _, r := range records {
		if r.Kind == types.RecordPublication {
			out = append(out, r)
		}
	}
	return out
}

// dedupe merges records that share a DOI or normalized title, keeping the
// first occurrence and filling its gaps from later ones.
func dedupe(records []types.RawRecord) []types.RawRecord {
	seen := make(map[string]int)
	var out []types.RawRecord
	for _, r := range records {
		key := r.DOI
		if key == "" {
			key = "title:" + identity.Fold(r.Title)
		}
		if idx, ok := seen[key]; ok {
			mergeInto(&out[idx], r)
			continue
		}
		seen[key] = len(out)
		out = append(out, r)
	}
	return out
}

// mergeInto fills empty fields of dst from src and keeps the higher
// citation count.
func mergeInto(dst *types.RawRecord, src types.RawRecord) {
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if dst.ArxivID == "" {
		dst.ArxivID = src.ArxivID
	}
	if src.CitationCount > dst.CitationCount {
		dst.CitationCount = src.CitationCount
	}
	for _, u := range src.URLs {
		if !contains(dst.URLs, u) {
			dst.URLs = append(dst.URLs, u)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// keywordHits counts domain-keyword occurrences across the given fields,
// case-insensitively.
func keywordHits(keywords []string, fields ...string) int {
	hay := identity.Fold(strings.Join(fields, " "))
	hits := 0
	for _, kw := range keywords {
		if kw = identity.Fold(kw); kw != "" {
			hits += strings.Count(hay, kw)
		}
	}
	return hits
}
