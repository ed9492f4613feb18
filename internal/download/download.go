// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download retrieves full-text documents for curated paper
// candidates through an ordered provider cascade. Per candidate the
// cascade is strictly sequential and halts at the first success; across
// candidates downloads run in parallel under a global cap. A candidate
// whose providers all fail stays metadata-only, a per-paper outcome, not
// a run error.
package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/profile-engine/internal/fetch"
	"github.com/pdiddy/profile-engine/pkg/types"
)

const defaultMinBytes = 10 * 1024

// pdfMagic is the header sniff that rejects HTML error pages served with
// 200 OK and a document content type.
var pdfMagic = []byte("%PDF")

// Provider resolves document URLs for one candidate. Providers are tried
// in cascade order; each URL they return is fetched through the gate.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, c types.PaperCandidate) ([]string, error)
}

// Cascade runs the provider chain for a set of candidates.
type Cascade struct {
	Gate      *fetch.Gate
	Cfg       types.DownloadConfig
	Providers []Provider
	Log       *slog.Logger
}

// New builds a cascade with the fixed provider priority order: direct
// record URLs, arXiv, Unpaywall, publisher DOI resolution, OpenAlex.
func New(gate *fetch.Gate, cfg types.DownloadConfig, log *slog.Logger) *Cascade {
	if log == nil {
		log = slog.Default()
	}
	return &Cascade{
		Gate: gate,
		Cfg:  cfg,
		Providers: []Provider{
			&DirectProvider{},
			&ArxivProvider{},
			&UnpaywallProvider{Gate: gate, Cfg: cfg},
			&DOIProvider{},
			&OpenAlexProvider{Gate: gate, Cfg: cfg},
		},
		Log: log,
	}
}

// Run downloads all candidates, bounded by the configured concurrency
// cap. Outcomes are returned in candidate order. Context cancellation
// aborts in-flight fetches; completed files remain valid on disk.
func (c *Cascade) Run(ctx context.Context, person types.Person, candidates []types.PaperCandidate, w io.Writer) []types.DownloadOutcome {
	outcomes := make([]types.DownloadOutcome, len(candidates))

	limit := c.Cfg.Concurrency
	if limit <= 0 {
		limit = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, cand := range candidates {
		g.Go(func() error {
			outcomes[i] = c.runOne(gctx, person, cand, w)
			return nil
		})
	}
	g.Wait()

	return outcomes
}

// runOne walks the provider chain for a single candidate.
func (c *Cascade) runOne(ctx context.Context, person types.Person, cand types.PaperCandidate, w io.Writer) types.DownloadOutcome {
	outcome := types.DownloadOutcome{CandidateID: cand.ID}
	destPath := c.LocalPath(person, cand)

	// Idempotence: a prior valid download short-circuits with zero
	// network calls.
	if info, err := os.Stat(destPath); err == nil && info.Size() >= c.minBytes() {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", cand.ID)
		outcome.Downloaded = true
		outcome.Provider = "local"
		outcome.LocalPath = destPath
		return outcome
	}

	for _, p := range c.Providers {
		if ctx.Err() != nil {
			return outcome
		}

		attempt := types.DownloadAttempt{
			CandidateID: cand.ID,
			Provider:    p.Name(),
			Status:      types.AttemptPending,
		}

		urls, err := p.Resolve(ctx, cand)
		if err != nil {
			attempt.Status = types.AttemptFailed
			attempt.ErrorReason = fmt.Sprintf("resolve: %v", err)
			outcome.Attempts = append(outcome.Attempts, attempt)
			continue
		}
		if len(urls) == 0 {
			attempt.Status = types.AttemptSkipped
			attempt.ErrorReason = "no URL for this provider"
			outcome.Attempts = append(outcome.Attempts, attempt)
			continue
		}

		if err := c.fetchDocument(ctx, p.Name(), urls, destPath); err != nil {
			attempt.Status = types.AttemptFailed
			attempt.ErrorReason = err.Error()
			outcome.Attempts = append(outcome.Attempts, attempt)
			c.Log.Debug("provider attempt failed",
				"candidate", cand.ID, "provider", p.Name(), "err", err)
			continue
		}

		attempt.Status = types.AttemptSuccess
		attempt.LocalPath = destPath
		outcome.Attempts = append(outcome.Attempts, attempt)
		outcome.Downloaded = true
		outcome.Provider = p.Name()
		outcome.LocalPath = destPath
		fmt.Fprintf(w, "downloaded: %s (%s)\n", cand.ID, p.Name())
		return outcome
	}

	fmt.Fprintf(w, "metadata-only: %s (all providers exhausted)\n", cand.ID)
	return outcome
}

// LocalPath is the deterministic destination for a candidate's document.
func (c *Cascade) LocalPath(person types.Person, cand types.PaperCandidate) string {
	return filepath.Join(c.Cfg.PapersDir, person.Slug(), cand.ID+".pdf")
}

func (c *Cascade) minBytes() int64 {
	if c.Cfg.MinBytes > 0 {
		return c.Cfg.MinBytes
	}
	return defaultMinBytes
}

// fetchDocument tries each URL in order through the gate and persists the
// first response that passes the document checks: HTTP 200, a document
// content type or %PDF header, and a size above the sanity threshold.
// Files are written to a temp file and renamed into place.
func (c *Cascade) fetchDocument(ctx context.Context, provider string, urls []string, destPath string) error {
	var lastErr error
	for _, u := range urls {
		if err := c.fetchOne(ctx, provider, u, destPath); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no usable URL")
	}
	return &types.DownloadFailureError{Provider: provider, Reason: lastErr.Error(), Err: lastErr}
}

func (c *Cascade) fetchOne(ctx context.Context, provider, url, destPath string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.Gate.Do(ctx, "download:"+provider, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	head := make([]byte, len(pdfMagic))
	n, _ := io.ReadFull(resp.Body, head)
	head = head[:n]

	contentType := resp.Header.Get("Content-Type")
	isDocument := strings.Contains(contentType, "pdf") ||
		strings.Contains(contentType, "octet-stream") ||
		bytes.Equal(head, pdfMagic)
	if !isDocument {
		return fmt.Errorf("not a document (content-type %q)", contentType)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating papers directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	written, copyErr := io.Copy(tmpFile, io.MultiReader(bytes.NewReader(head), resp.Body))
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if written < c.minBytes() {
		os.Remove(tmpPath)
		return fmt.Errorf("suspiciously small document (%d bytes)", written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
