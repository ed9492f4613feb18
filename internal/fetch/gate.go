// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch implements the rate-limited gate every outbound network
// call goes through. Requests to one source are serialized and spaced;
// block signals (HTTP 429/403, CAPTCHA markers) put the source into a
// cool-down window instead of hammering it.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/profile-engine/pkg/types"
)

const (
	defaultMinInterval = time.Second
	defaultMaxRetries  = 3
	defaultBackoffBase = 2 * time.Second
	defaultBackoffCap  = 60 * time.Second
	defaultCoolDown    = 5 * time.Minute

	// blockSniffLimit bounds how much of a response body is inspected
	// for CAPTCHA markers.
	blockSniffLimit = 4096
)

// captchaMarkers are provider-agnostic block phrases seen in interstitial
// pages served with a 200 status.
var captchaMarkers = []string{"captcha", "unusual traffic", "are you a robot"}

// sourceState carries the per-source throttle. Its mutex serializes all
// requests to the source; different sources proceed concurrently.
type sourceState struct {
	mu           sync.Mutex
	lastRequest  time.Time
	blockedUntil time.Time
}

// Gate throttles and retries outbound calls per source.
type Gate struct {
	cfg    types.GateConfig
	client *http.Client
	log    *slog.Logger

	mu      sync.Mutex
	sources map[string]*sourceState

	// now and sleep are test hooks.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGate builds a gate around client. Zero config fields take defaults.
func NewGate(cfg types.GateConfig, client *http.Client, log *slog.Logger) *Gate {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaultMinInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = defaultBackoffCap
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = defaultCoolDown
	}
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gate{
		cfg:     cfg,
		client:  client,
		log:     log,
		sources: make(map[string]*sourceState),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (g *Gate) state(source string) *sourceState {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.sources[source]
	if !ok {
		st = &sourceState{}
		g.sources[source] = st
	}
	return st
}

// Do executes req against source, applying spacing, retries with
// exponential backoff, and cool-down on block signals. On exhausted
// retries or an active cool-down it returns *types.SourceUnavailableError,
// which callers must treat as a soft failure.
func (g *Gate) Do(ctx context.Context, source string, req *http.Request) (*http.Response, error) {
	st := g.state(source)
	st.mu.Lock()
	defer st.mu.Unlock()

	if until := st.blockedUntil; g.now().Before(until) {
		return nil, &types.SourceUnavailableError{
			Source: source,
			Reason: fmt.Sprintf("in cool-down until %s", until.Format(time.RFC3339)),
		}
	}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := g.cfg.BackoffBase << (attempt - 1)
			if backoff > g.cfg.BackoffCap {
				backoff = g.cfg.BackoffCap
			}
			g.log.Debug("retrying request", "source", source, "attempt", attempt, "backoff", backoff)
			if err := g.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		if wait := g.cfg.MinInterval - g.now().Sub(st.lastRequest); wait > 0 {
			if err := g.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
		st.lastRequest = g.now()

		resp, err := g.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			continue
		}

		blocked, resp2 := g.blockSignal(resp)
		if blocked {
			io.Copy(io.Discard, resp2.Body)
			resp2.Body.Close()
			st.blockedUntil = g.now().Add(g.cfg.CoolDown)
			g.log.Warn("source blocked, entering cool-down",
				"source", source, "status", resp2.StatusCode, "cool_down", g.cfg.CoolDown)
			return nil, &types.SourceUnavailableError{
				Source: source,
				Reason: fmt.Sprintf("block signal (HTTP %d)", resp2.StatusCode),
			}
		}

		if resp2.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d", resp2.StatusCode)
			io.Copy(io.Discard, resp2.Body)
			resp2.Body.Close()
			continue
		}

		return resp2, nil
	}

	return nil, &types.SourceUnavailableError{
		Source: source,
		Reason: fmt.Sprintf("retries exhausted after %d attempts", g.cfg.MaxRetries+1),
		Err:    lastErr,
	}
}

// blockSignal reports whether the response is a block: rate-limit and
// forbidden statuses, or a CAPTCHA marker inside an HTML body served with
// 200. The returned response has an intact body.
func (g *Gate) blockSignal(resp *http.Response) (bool, *http.Response) {
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusForbidden:
		return true, resp
	}

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusOK && strings.Contains(ct, "text/html") {
		head := make([]byte, blockSniffLimit)
		n, _ := io.ReadFull(resp.Body, head)
		head = head[:n]

		rest := resp.Body
		resp.Body = readCloser{io.MultiReader(bytes.NewReader(head), rest), rest}

		lower := strings.ToLower(string(head))
		for _, marker := range captchaMarkers {
			if strings.Contains(lower, marker) {
				return true, resp
			}
		}
	}
	return false, resp
}

type readCloser struct {
	io.Reader
	io.Closer
}
