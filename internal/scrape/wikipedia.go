// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"net/url"
	"strings"

	"github.com/pdiddy/profile-engine/pkg/types"
)

// wikipediaAPIBase is the Wikipedia REST summary endpoint. Declared as a
// var so tests can substitute an httptest server.
var wikipediaAPIBase = "https://en.wikipedia.org/api/rest_v1/page/summary/"

// WikipediaScraper fetches the person's biography summary. It yields at
// most one biography-kind record; disambiguation pages are dropped at the
// boundary.
type WikipediaScraper struct {
	*Client
}

func (s *WikipediaScraper) Source() types.Source { return types.SourceWikipedia }

type wikipediaSummary struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Fetch returns the biography record for the person, or no records when
// the page is missing or ambiguous.
func (s *WikipediaScraper) Fetch(ctx context.Context, person types.Person) ([]types.RawRecord, error) {
	title := strings.ReplaceAll(strings.TrimSpace(person.CanonicalName), " ", "_")
	reqURL := wikipediaAPIBase + url.PathEscape(title)
	cacheQuery := "summary:" + person.CanonicalName

	var sum wikipediaSummary
	if err := s.getJSON(ctx, s.Source(), cacheQuery, reqURL, nil, &sum); err != nil {
		return nil, err
	}

	if sum.Type == "disambiguation" || sum.Extract == "" {
		return nil, nil
	}

	var urls []string
	if sum.ContentURLs.Desktop.Page != "" {
		urls = append(urls, sum.ContentURLs.Desktop.Page)
	}

	record := types.RawRecord{
		Source:      s.Source(),
		Kind:        types.RecordBiography,
		Title:       sum.Title,
		URLs:        urls,
		Abstract:    sum.Extract,
		Affiliation: sum.Description,
	}

	return validate([]types.RawRecord{record}), nil
}
