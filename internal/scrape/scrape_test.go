// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/profile-engine/internal/cache"
	"github.com/pdiddy/profile-engine/internal/fetch"
	"github.com/pdiddy/profile-engine/pkg/types"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	return &Client{
		Gate: fetch.NewGate(types.GateConfig{}, server.Client(), nil),
		Cfg:  types.ScrapeConfig{HTTPConfig: types.HTTPConfig{UserAgent: "profile-engine-test/0.1"}},
	}
}

func TestCrossRefFetch(t *testing.T) {
	body := `{"message":{"items":[
		{
			"title":["Conceptualizing Brand Equity"],
			"abstract":"<jats:p>A framework for <jats:italic>brand equity</jats:italic>.</jats:p>",
			"DOI":"10.1/brand",
			"URL":"https://doi.org/10.1/brand",
			"container-title":["Journal of Marketing"],
			"publisher":"SAGE",
			"author":[{"given":"Kevin","family":"Keller","affiliation":[{"name":"Dartmouth College"}]}],
			"issued":{"date-parts":[[1993,1]]},
			"is-referenced-by-count":12000,
			"link":[{"URL":"https://pub.example/brand.pdf","content-type":"application/pdf"},
			        {"URL":"https://pub.example/brand.xml","content-type":"text/xml"}]
		},
		{"title":[],"DOI":"10.1/untitled"},
		{"title":["No authors listed"],"author":[]}
	]}}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Kevin Lane Keller", r.URL.Query().Get("query.author"))
		assert.Equal(t, "profile-engine-test/0.1", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer ts.Close()

	orig := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = orig }()

	scraper := &CrossRefScraper{newTestClient(t, ts)}
	records, err := scraper.Fetch(context.Background(), types.Person{CanonicalName: "Kevin Lane Keller"})
	require.NoError(t, err)
	require.Len(t, records, 1, "untitled and authorless items are dropped at the boundary")

	r := records[0]
	assert.Equal(t, types.SourceCrossRef, r.Source)
	assert.Equal(t, types.RecordPublication, r.Kind)
	assert.Equal(t, "Conceptualizing Brand Equity", r.Title)
	assert.Equal(t, []string{"Kevin Keller"}, r.Authors)
	assert.Equal(t, 1993, r.Year)
	assert.Equal(t, "Journal of Marketing", r.Venue)
	assert.Equal(t, "A framework for brand equity.", r.Abstract, "JATS tags are stripped")
	assert.Equal(t, "Dartmouth College", r.Affiliation)
	assert.Equal(t, "10.1/brand", r.DOI)
	assert.Equal(t, 12000, r.CitationCount)
	assert.Equal(t, []string{"https://pub.example/brand.pdf", "https://doi.org/10.1/brand"}, r.URLs,
		"only pdf links plus the landing URL are kept")
	assert.False(t, r.FetchedAt.IsZero())
}

func TestStripJATS(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain text", "plain text"},
		{"<jats:p>wrapped</jats:p>", "wrapped"},
		{"<jats:p>a <jats:bold>b</jats:bold> c</jats:p>", "a b c"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripJATS(tt.in))
	}
}

func TestSemanticScholarNameSearch(t *testing.T) {
	body := `{"data":[{
		"title":"Strategic Brand Management",
		"abstract":"On managing brands.",
		"venue":"Pearson",
		"year":2012,
		"citationCount":5000,
		"externalIds":{"DOI":"10.2/sbm","ArXiv":""},
		"openAccessPdf":{"url":"https://oa.example/sbm.pdf"},
		"authors":[{"authorId":"1718xyz","name":"K. L. Keller"}]
	}]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/search", r.URL.Path)
		assert.Equal(t, "Kevin Lane Keller", r.URL.Query().Get("query"))
		w.Write([]byte(body))
	}))
	defer ts.Close()

	orig := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = orig }()

	scraper := &SemanticScholarScraper{newTestClient(t, ts)}
	records, err := scraper.Fetch(context.Background(), types.Person{CanonicalName: "Kevin Lane Keller"})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "Strategic Brand Management", r.Title)
	assert.Equal(t, "10.2/sbm", r.DOI)
	assert.Equal(t, []string{"https://oa.example/sbm.pdf"}, r.URLs)
	assert.Empty(t, r.AuthorID(), "name searches do not claim identity traceability")
}

func TestSemanticScholarExternalIDLock(t *testing.T) {
	body := `{"data":[{
		"title":"Brand Equity Measurement",
		"year":2003,
		"authors":[{"authorId":"1718xyz","name":"Kevin Lane Keller"}]
	}]}`
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "secret-key", r.Header.Get("x-api-key"))
		w.Write([]byte(body))
	}))
	defer ts.Close()

	orig := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = orig }()

	client := newTestClient(t, ts)
	client.Cfg.SemanticScholarAPIKey = "secret-key"

	scraper := &SemanticScholarScraper{client}
	records, err := scraper.Fetch(context.Background(), types.Person{
		CanonicalName: "Kevin Lane Keller",
		ExternalID:    "1718xyz",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "/author/1718xyz/papers", gotPath)
	assert.Equal(t, "1718xyz", records[0].AuthorID(), "records carry the locked author id")
}

func TestOpenAlexFetch(t *testing.T) {
	body := `{"results":[{
		"title":"Customer-Based Brand Equity",
		"doi":"https://doi.org/10.3/cbbe",
		"publication_year":1993,
		"cited_by_count":9000,
		"authorships":[{
			"author":{"id":"https://openalex.org/A1","display_name":"Kevin Lane Keller"},
			"institutions":[{"display_name":"Dartmouth College"}]
		}],
		"primary_location":{
			"pdf_url":"https://oa.example/cbbe.pdf",
			"landing_page_url":"https://journals.example/cbbe",
			"source":{"display_name":"Journal of Marketing"}
		},
		"abstract_inverted_index":{"Brand":[0],"equity":[1],"from":[2],"the":[3],"customer":[4]}
	}]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("filter"), "raw_author_name.search:")
		w.Write([]byte(body))
	}))
	defer ts.Close()

	orig := openAlexAPIBase
	openAlexAPIBase = ts.URL
	defer func() { openAlexAPIBase = orig }()

	scraper := &OpenAlexScraper{newTestClient(t, ts)}
	records, err := scraper.Fetch(context.Background(), types.Person{CanonicalName: "Kevin Lane Keller"})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "Customer-Based Brand Equity", r.Title)
	assert.Equal(t, "10.3/cbbe", r.DOI, "doi.org prefix is trimmed")
	assert.Equal(t, "Brand equity from the customer", r.Abstract, "inverted index is rebuilt in order")
	assert.Equal(t, "Dartmouth College", r.Affiliation)
	assert.Equal(t, "Journal of Marketing", r.Venue)
	assert.Equal(t, []string{"https://oa.example/cbbe.pdf", "https://journals.example/cbbe"}, r.URLs)
}

func TestInvertAbstract(t *testing.T) {
	assert.Equal(t, "", invertAbstract(nil))
	assert.Equal(t, "a b c", invertAbstract(map[string][]int{"b": {1}, "a": {0}, "c": {2}}))
	// Repeated words occupy multiple positions.
	assert.Equal(t, "the cat and the dog", invertAbstract(map[string][]int{
		"the": {0, 3}, "cat": {1}, "and": {2}, "dog": {4},
	}))
}

func TestWikipediaFetch(t *testing.T) {
	body := `{
		"title":"Kevin Lane Keller",
		"type":"standard",
		"description":"American marketing professor",
		"extract":"Kevin Lane Keller is a professor at the Tuck School of Business.",
		"content_urls":{"desktop":{"page":"https://en.wikipedia.org/wiki/Kevin_Lane_Keller"}}
	}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Kevin_Lane_Keller", r.URL.Path)
		w.Write([]byte(body))
	}))
	defer ts.Close()

	orig := wikipediaAPIBase
	wikipediaAPIBase = ts.URL + "/"
	defer func() { wikipediaAPIBase = orig }()

	scraper := &WikipediaScraper{newTestClient(t, ts)}
	records, err := scraper.Fetch(context.Background(), types.Person{CanonicalName: "Kevin Lane Keller"})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, types.RecordBiography, r.Kind)
	assert.Equal(t, "Kevin Lane Keller", r.Title)
	assert.Contains(t, r.Abstract, "Tuck School")
	assert.Equal(t, "American marketing professor", r.Affiliation)
	assert.Equal(t, []string{"https://en.wikipedia.org/wiki/Kevin_Lane_Keller"}, r.URLs)
}

func TestWikipediaDisambiguationDropped(t *testing.T) {
	body := `{"title":"Keller","type":"disambiguation","extract":"Keller may refer to:"}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body))
	}))
	defer ts.Close()

	orig := wikipediaAPIBase
	wikipediaAPIBase = ts.URL + "/"
	defer func() { wikipediaAPIBase = orig }()

	scraper := &WikipediaScraper{newTestClient(t, ts)}
	records, err := scraper.Fetch(context.Background(), types.Person{CanonicalName: "Keller"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCacheHitAvoidsHTTP(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"message":{"items":[{"title":["Cached Paper"],"author":[{"given":"Jane","family":"Doe"}]}]}}`))
	}))
	defer ts.Close()

	orig := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = orig }()

	store, err := cache.Open(types.CacheConfig{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	defer store.Close()

	client := newTestClient(t, ts)
	client.Cache = store
	scraper := &CrossRefScraper{client}
	person := types.Person{CanonicalName: "Jane Doe"}

	first, err := scraper.Fetch(context.Background(), person)
	require.NoError(t, err)
	second, err := scraper.Fetch(context.Background(), person)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second fetch must come from the cache")
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Title, second[0].Title)
}

func TestScraperSourceUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	orig := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = orig }()

	scraper := &CrossRefScraper{newTestClient(t, ts)}
	_, err := scraper.Fetch(context.Background(), types.Person{CanonicalName: "Jane Doe"})

	var unavailable *types.SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "crossref", unavailable.Source)
}

func TestAllScraperOrder(t *testing.T) {
	c := &Client{}
	var sources []types.Source
	for _, s := range c.All() {
		sources = append(sources, s.Source())
	}
	assert.Equal(t, []types.Source{
		types.SourceCrossRef,
		types.SourceSemanticScholar,
		types.SourceOpenAlex,
		types.SourceWikipedia,
	}, sources)
}
