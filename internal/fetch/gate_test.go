// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/profile-engine/pkg/types"
)

// newTestGate returns a gate whose sleeps are recorded instead of slept
// and whose clock is controlled by the test.
func newTestGate(cfg types.GateConfig, client *http.Client) (*Gate, *[]time.Duration) {
	g := NewGate(cfg, client, nil)
	var slept []time.Duration
	now := time.Unix(1700000000, 0)
	g.now = func() time.Time { return now }
	g.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		now = now.Add(d)
		return nil
	}
	return g, &slept
}

func get(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func TestGateSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	g, _ := newTestGate(types.GateConfig{}, ts.Client())
	resp, err := g.Do(context.Background(), "crossref", get(t, ts.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGateMinIntervalSpacing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	g, slept := newTestGate(types.GateConfig{MinInterval: 2 * time.Second}, ts.Client())
	ctx := context.Background()

	resp, err := g.Do(ctx, "crossref", get(t, ts.URL))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = g.Do(ctx, "crossref", get(t, ts.URL))
	require.NoError(t, err)
	resp.Body.Close()

	// The second request waits out the remaining interval.
	require.NotEmpty(t, *slept)
	assert.Equal(t, 2*time.Second, (*slept)[len(*slept)-1])
}

func TestGateRetries5xxThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	g, slept := newTestGate(types.GateConfig{
		BackoffBase: 2 * time.Second,
		BackoffCap:  60 * time.Second,
	}, ts.Client())

	resp, err := g.Do(context.Background(), "openalex", get(t, ts.URL))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	// Backoff doubles: 2s then 4s (interleaved with interval waits).
	assert.Contains(t, *slept, 2*time.Second)
	assert.Contains(t, *slept, 4*time.Second)
}

func TestGateExhaustsRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	g, _ := newTestGate(types.GateConfig{MaxRetries: 2}, ts.Client())
	_, err := g.Do(context.Background(), "openalex", get(t, ts.URL))

	var unavailable *types.SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "openalex", unavailable.Source)
	assert.Contains(t, unavailable.Reason, "retries exhausted")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "1 initial + 2 retries")
}

func TestGateBlockSignalTriggersCoolDown(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	g, _ := newTestGate(types.GateConfig{CoolDown: 5 * time.Minute}, ts.Client())
	ctx := context.Background()

	_, err := g.Do(ctx, "semantic_scholar", get(t, ts.URL))
	var unavailable *types.SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.Reason, "block signal")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "block signals are not retried")

	// The next call fails without reaching the server.
	_, err = g.Do(ctx, "semantic_scholar", get(t, ts.URL))
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.Reason, "cool-down")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGateCaptchaMarkerIsBlockSignal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Please solve this CAPTCHA to continue</body></html>"))
	}))
	defer ts.Close()

	g, _ := newTestGate(types.GateConfig{}, ts.Client())
	_, err := g.Do(context.Background(), "crossref", get(t, ts.URL))

	var unavailable *types.SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.Reason, "block signal")
}

func TestGateCoolDownIsolatedPerSource(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path == "/blocked" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	g, _ := newTestGate(types.GateConfig{}, ts.Client())
	ctx := context.Background()

	_, err := g.Do(ctx, "crossref", get(t, ts.URL+"/blocked"))
	require.Error(t, err)

	// A different source is unaffected by crossref's cool-down.
	resp, err := g.Do(ctx, "openalex", get(t, ts.URL+"/fine"))
	require.NoError(t, err)
	resp.Body.Close()
}

func TestGateContextCancelledDuringBackoff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	g := NewGate(types.GateConfig{}, ts.Client(), nil)
	g.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	_, err := g.Do(context.Background(), "crossref", get(t, ts.URL))
	assert.True(t, errors.Is(err, context.Canceled))
}
