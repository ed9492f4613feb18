// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/profile-engine/pkg/types"
)

// GetJSON performs a gated GET against source and decodes the JSON
// response into v. Non-2xx statuses that are not block signals surface as
// *types.SourceUnavailableError so callers have a single soft-failure path.
func (g *Gate) GetJSON(ctx context.Context, source, url, userAgent string, headers map[string]string, v any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := g.Do(ctx, source, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &types.SourceUnavailableError{
			Source: source,
			Reason: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", source, err)
	}
	return nil
}
