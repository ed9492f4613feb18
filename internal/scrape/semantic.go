// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pdiddy/profile-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar Graph API root. Declared as a
// var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

const semanticFields = "title,abstract,venue,year,citationCount,externalIds,openAccessPdf,authors"

// SemanticScholarScraper queries the Semantic Scholar Graph API. When the
// person carries an external id it fetches that author's paper list
// directly, so every record is traceable to the locked identity; otherwise
// it falls back to a name search.
type SemanticScholarScraper struct {
	*Client
}

func (s *SemanticScholarScraper) Source() types.Source { return types.SourceSemanticScholar }

type semanticPaper struct {
	Title         string `json:"title"`
	Abstract      string `json:"abstract"`
	Venue         string `json:"venue"`
	Year          int    `json:"year"`
	CitationCount int    `json:"citationCount"`
	ExternalIDs   struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
	OpenAccessPDF *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
	Authors []struct {
		AuthorID string `json:"authorId"`
		Name     string `json:"name"`
	} `json:"authors"`
}

type semanticSearchResponse struct {
	Data []semanticPaper `json:"data"`
}

// Fetch returns publication records for the person.
func (s *SemanticScholarScraper) Fetch(ctx context.Context, person types.Person) ([]types.RawRecord, error) {
	headers := map[string]string{}
	if s.Cfg.SemanticScholarAPIKey != "" {
		headers["x-api-key"] = s.Cfg.SemanticScholarAPIKey
	}

	var reqURL, cacheQuery, authorID string
	if person.ExternalID != "" {
		authorID = person.ExternalID
		params := url.Values{
			"fields": {semanticFields},
			"limit":  {fmt.Sprintf("%d", s.maxRecords())},
		}
		reqURL = fmt.Sprintf("%s/author/%s/papers?%s", semanticAPIBase, url.PathEscape(authorID), params.Encode())
		cacheQuery = "author-id:" + authorID
	} else {
		params := url.Values{
			"query":  {person.CanonicalName},
			"fields": {semanticFields},
			"limit":  {fmt.Sprintf("%d", s.maxRecords())},
		}
		reqURL = fmt.Sprintf("%s/paper/search?%s", semanticAPIBase, params.Encode())
		cacheQuery = "name-search:" + person.CanonicalName
	}

	var resp semanticSearchResponse
	if err := s.getJSON(ctx, s.Source(), cacheQuery, reqURL, headers, &resp); err != nil {
		return nil, err
	}

	var records []types.RawRecord
	for _, p := range resp.Data {
		var authors []string
		recordAuthorID := ""
		for _, a := range p.Authors {
			authors = append(authors, a.Name)
			if authorID != "" && a.AuthorID == authorID {
				recordAuthorID = a.AuthorID
			}
		}
		// Author-id fetches are traceable even when the author list in
		// the payload omits ids.
		if authorID != "" && recordAuthorID == "" {
			recordAuthorID = authorID
		}

		var urls []string
		if p.OpenAccessPDF != nil && p.OpenAccessPDF.URL != "" {
			urls = append(urls, p.OpenAccessPDF.URL)
		}

		extra := map[string]string{}
		if recordAuthorID != "" {
			extra["author_id"] = recordAuthorID
		}

		records = append(records, types.RawRecord{
			Source:        s.Source(),
			Kind:          types.RecordPublication,
			Title:         p.Title,
			Authors:       authors,
			Year:          p.Year,
			URLs:          urls,
			Venue:         p.Venue,
			Abstract:      p.Abstract,
			DOI:           p.ExternalIDs.DOI,
			ArxivID:       p.ExternalIDs.ArXiv,
			CitationCount: p.CitationCount,
			Extra:         extra,
		})
	}

	return validate(records), nil
}
