// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/profile-engine/pkg/types"
)

// crossrefAPIBase is the CrossRef works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// CrossRefScraper queries the CrossRef works API by author name.
type CrossRefScraper struct {
	*Client
}

func (s *CrossRefScraper) Source() types.Source { return types.SourceCrossRef }

type crossrefResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	Title          []string         `json:"title"`
	Abstract       string           `json:"abstract"`
	DOI            string           `json:"DOI"`
	URL            string           `json:"URL"`
	ContainerTitle []string         `json:"container-title"`
	Publisher      string           `json:"publisher"`
	Author         []crossrefAuthor `json:"author"`
	Issued         crossrefDate     `json:"issued"`
	ReferencedBy   int              `json:"is-referenced-by-count"`
	Link           []crossrefLink   `json:"link"`
}

type crossrefAuthor struct {
	Given       string `json:"given"`
	Family      string `json:"family"`
	Affiliation []struct {
		Name string `json:"name"`
	} `json:"affiliation"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

type crossrefLink struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}

// Fetch returns publication records for the person's name.
func (s *CrossRefScraper) Fetch(ctx context.Context, person types.Person) ([]types.RawRecord, error) {
	params := url.Values{
		"query.author": {person.CanonicalName},
		"rows":         {fmt.Sprintf("%d", s.maxRecords())},
	}
	reqURL := crossrefAPIBase + "?" + params.Encode()
	cacheQuery := "author:" + person.CanonicalName

	var cr crossrefResponse
	if err := s.getJSON(ctx, s.Source(), cacheQuery, reqURL, nil, &cr); err != nil {
		return nil, err
	}

	var records []types.RawRecord
	for _, item := range cr.Message.Items {
		if len(item.Title) == 0 {
			continue
		}

		var authors []string
		var affiliations []string
		for _, a := range item.Author {
			name := strings.TrimSpace(a.Given + " " + a.Family)
			if name != "" {
				authors = append(authors, name)
			}
			for _, aff := range a.Affiliation {
				if aff.Name != "" {
					affiliations = append(affiliations, aff.Name)
				}
			}
		}

		var urls []string
		for _, l := range item.Link {
			if strings.Contains(l.ContentType, "pdf") {
				urls = append(urls, l.URL)
			}
		}
		if item.URL != "" {
			urls = append(urls, item.URL)
		}

		venue := ""
		if len(item.ContainerTitle) > 0 {
			venue = item.ContainerTitle[0]
		}

		year := 0
		if len(item.Issued.DateParts) > 0 && len(item.Issued.DateParts[0]) > 0 {
			year = item.Issued.DateParts[0][0]
		}

		records = append(records, types.RawRecord{
			Source:        s.Source(),
			Kind:          types.RecordPublication,
			Title:         item.Title[0],
			Authors:       authors,
			Year:          year,
			URLs:          urls,
			Venue:         venue,
			Abstract:      stripJATS(item.Abstract),
			Affiliation:   strings.Join(affiliations, "; "),
			DOI:           item.DOI,
			CitationCount: item.ReferencedBy,
			Extra:         map[string]string{"publisher": item.Publisher},
		})
	}

	return validate(records), nil
}

// stripJATS removes the JATS XML tags CrossRef wraps abstracts in.
func stripJATS(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
