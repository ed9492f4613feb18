// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape defines the scraper interface and the API-backed
// scrapers that produce raw records for a person. Every scraper call goes
// through the rate gate and the scrape cache; records are validated
// against the narrow required-field contract at this boundary.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/profile-engine/internal/cache"
	"github.com/pdiddy/profile-engine/internal/fetch"
	"github.com/pdiddy/profile-engine/pkg/types"
)

// Scraper fetches raw records for a person from one source. Fetch returns
// *types.SourceUnavailableError when the source cannot be reached; the
// pipeline records the source as empty and continues.
type Scraper interface {
	Source() types.Source
	Fetch(ctx context.Context, person types.Person) ([]types.RawRecord, error)
}

// Client bundles the gate, cache, and scrape settings shared by all
// scrapers.
type Client struct {
	Gate  *fetch.Gate
	Cache *cache.Store
	Cfg   types.ScrapeConfig
}

// All returns the full scraper set in a fixed order.
func (c *Client) All() []Scraper {
	return []Scraper{
		&CrossRefScraper{c},
		&SemanticScholarScraper{c},
		&OpenAlexScraper{c},
		&WikipediaScraper{c},
	}
}

// getJSON resolves a request through the cache, falling back to a gated
// HTTP GET. Fresh payloads are written back to the cache before decoding.
func (c *Client) getJSON(ctx context.Context, source types.Source, cacheQuery, url string, headers map[string]string, v any) error {
	if data, ok := c.Cache.Get(source, cacheQuery); ok {
		return json.Unmarshal(data, v)
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := c.Gate.Do(ctx, string(source), req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &types.SourceUnavailableError{
			Source: string(source),
			Reason: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", source, err)
	}

	c.Cache.Put(source, cacheQuery, data, 0)
	return json.Unmarshal(data, v)
}

// maxRecords returns the per-source record cap.
func (c *Client) maxRecords() int {
	if c.Cfg.MaxRecords > 0 {
		return c.Cfg.MaxRecords
	}
	return 100
}

// validate enforces the required-field contract and stamps FetchedAt.
// Invalid records are dropped at the boundary, not carried forward.
func validate(records []types.RawRecord) []types.RawRecord {
	var out []types.RawRecord
	now := time.Now().UTC()
	for _, r := range records {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		if r.Kind == types.RecordPublication && len(r.Authors) == 0 {
			continue
		}
		r.FetchedAt = now
		out = append(out, r)
	}
	return out
}
