// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/profile-engine/pkg/types"
)

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

// OpenAlexScraper queries the OpenAlex works API by author name. OpenAlex
// carries per-author institution data, which feeds the affiliation check
// in the identity resolver.
type OpenAlexScraper struct {
	*Client
}

func (s *OpenAlexScraper) Source() types.Source { return types.SourceOpenAlex }

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	Title           string `json:"title"`
	DOI             string `json:"doi"`
	PublicationYear int    `json:"publication_year"`
	CitedByCount    int    `json:"cited_by_count"`
	Authorships     []struct {
		Author struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"author"`
		Institutions []struct {
			DisplayName string `json:"display_name"`
		} `json:"institutions"`
	} `json:"authorships"`
	PrimaryLocation *struct {
		PDFURL     string `json:"pdf_url"`
		LandingURL string `json:"landing_page_url"`
		Source     *struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
	} `json:"primary_location"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// Fetch returns publication records for the person's name.
func (s *OpenAlexScraper) Fetch(ctx context.Context, person types.Person) ([]types.RawRecord, error) {
	params := url.Values{
		"filter":   {"raw_author_name.search:" + person.CanonicalName},
		"per-page": {fmt.Sprintf("%d", min(s.maxRecords(), 200))},
	}
	if s.Cfg.UnpaywallEmail != "" {
		params.Set("mailto", s.Cfg.UnpaywallEmail)
	}
	reqURL := openAlexAPIBase + "?" + params.Encode()
	cacheQuery := "author:" + person.CanonicalName

	var oa openAlexResponse
	if err := s.getJSON(ctx, s.Source(), cacheQuery, reqURL, nil, &oa); err != nil {
		return nil, err
	}

	var records []types.RawRecord
	for _, w := range oa.Results {
		var authors, institutions []string
		for _, a := range w.Authorships {
			authors = append(authors, a.Author.DisplayName)
			for _, inst := range a.Institutions {
				institutions = append(institutions, inst.DisplayName)
			}
		}

		var urls []string
		venue := ""
		if loc := w.PrimaryLocation; loc != nil {
			if loc.PDFURL != "" {
				urls = append(urls, loc.PDFURL)
			}
			if loc.LandingURL != "" {
				urls = append(urls, loc.LandingURL)
			}
			if loc.Source != nil {
				venue = loc.Source.DisplayName
			}
		}

		records = append(records, types.RawRecord{
			Source:        s.Source(),
			Kind:          types.RecordPublication,
			Title:         w.Title,
			Authors:       authors,
			Year:          w.PublicationYear,
			URLs:          urls,
			Venue:         venue,
			Abstract:      invertAbstract(w.AbstractInvertedIndex),
			Affiliation:   strings.Join(institutions, "; "),
			DOI:           strings.TrimPrefix(w.DOI, "https://doi.org/"),
			CitationCount: w.CitedByCount,
		})
	}

	return validate(records), nil
}

// invertAbstract rebuilds abstract text from OpenAlex's inverted index
// (word -> positions).
func invertAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}
	maxPos := 0
	for _, positions := range index {
		for _, p := range positions {
			if p > maxPos {
				maxPos = p
			}
		}
	}
	words := make([]string, maxPos+1)
	for word, positions := range index {
		for _, p := range positions {
			words[p] = word
		}
	}
	out := words[:0]
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}
