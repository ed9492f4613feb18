// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the stages into a run: scrape, admit, curate,
// download, build evidence, synthesize, emit. Per-item failures (a source
// down, a paper that will not download, a section that falls back) are
// recorded and the run continues; structural failures (no sources at all,
// unusable storage, cancellation) abort it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/pdiddy/profile-engine/internal/cache"
	"github.com/pdiddy/profile-engine/internal/checklist"
	"github.com/pdiddy/profile-engine/internal/cite"
	"github.com/pdiddy/profile-engine/internal/completion"
	"github.com/pdiddy/profile-engine/internal/convert"
	"github.com/pdiddy/profile-engine/internal/curate"
	"github.com/pdiddy/profile-engine/internal/download"
	"github.com/pdiddy/profile-engine/internal/evidence"
	"github.com/pdiddy/profile-engine/internal/fetch"
	"github.com/pdiddy/profile-engine/internal/identity"
	"github.com/pdiddy/profile-engine/internal/report"
	"github.com/pdiddy/profile-engine/internal/scrape"
	"github.com/pdiddy/profile-engine/internal/secrets"
	"github.com/pdiddy/profile-engine/internal/synth"
	"github.com/pdiddy/profile-engine/pkg/types"
)

// Run owns the shared infrastructure for one pipeline invocation.
type Run struct {
	ID     string
	Person types.Person
	Cfg    types.PipelineConfig

	Gate      *fetch.Gate
	Cache     *cache.Store
	Evidence  *evidence.Store
	Tracker   *cite.Tracker
	Completer completion.Completer
	Extractor convert.Extractor

	Log *slog.Logger
	Out io.Writer
}

// New builds a run: it opens the cache and evidence stores, constructs
// the gate, and resolves secrets into the stage configs. Secrets only
// fill blanks; explicit config values win.
func New(cfg types.PipelineConfig, person types.Person, out io.Writer, log *slog.Logger) (*Run, error) {
	if log == nil {
		log = slog.Default()
	}
	if out == nil {
		out = os.Stdout
	}

	sec, err := secrets.Resolve(".secrets/")
	if err != nil {
		return nil, err
	}
	if cfg.Scrape.SemanticScholarAPIKey == "" {
		cfg.Scrape.SemanticScholarAPIKey = sec[secrets.KeySemanticScholar]
	}
	if cfg.Scrape.UnpaywallEmail == "" {
		cfg.Scrape.UnpaywallEmail = sec[secrets.KeyUnpaywallEmail]
	}
	if cfg.Download.UnpaywallEmail == "" {
		cfg.Download.UnpaywallEmail = sec[secrets.KeyUnpaywallEmail]
	}
	if cfg.Synthesis.APIKey == "" {
		cfg.Synthesis.APIKey = sec[secrets.KeyOpenRouter]
	}

	store, err := cache.Open(cfg.Cache, log)
	if err != nil {
		// Degraded cache is a warning, not a structural failure.
		log.Warn("scrape cache unavailable, continuing without", "err", err)
		store = nil
	}

	ev, err := evidence.Open(filepath.Join(outputDir(cfg, person), "evidence"))
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Scrape.Timeout}

	r := &Run{
		ID:        uuid.NewString(),
		Person:    person,
		Cfg:       cfg,
		Gate:      fetch.NewGate(cfg.Gate, httpClient, log),
		Cache:     store,
		Evidence:  ev,
		Tracker:   cite.NewTracker(ev),
		Completer: completion.NewClient(cfg.Synthesis),
		Out:       out,
	}
	r.Log = log.With("run_id", r.ID, "person", person.Slug())

	if ex, err := convert.Detect(); err == nil {
		r.Extractor = ex
	} else {
		log.Warn("text extraction unavailable, evidence degrades to abstracts", "err", err)
	}

	return r, nil
}

// Close releases the run's stores.
func (r *Run) Close() {
	if r.Cache != nil {
		r.Cache.Close()
	}
	if r.Evidence != nil {
		r.Evidence.Close()
	}
}

func outputDir(cfg types.PipelineConfig, person types.Person) string {
	dir := cfg.Output.Dir
	if dir == "" {
		dir = "output"
	}
	return filepath.Join(dir, person.Slug())
}

// OutputDir is where this run's artifacts land.
func (r *Run) OutputDir() string {
	return outputDir(r.Cfg, r.Person)
}

// Scrape fetches raw records from every source concurrently. A source
// that fails with *types.SourceUnavailableError is logged and skipped;
// the run aborts only when every source failed.
func (r *Run) Scrape(ctx context.Context) ([]types.RawRecord, error) {
	client := &scrape.Client{Gate: r.Gate, Cache: r.Cache, Cfg: r.Cfg.Scrape}
	scrapers := client.All()

	var mu sync.Mutex
	var records []types.RawRecord
	succeeded := 0

	var wg sync.WaitGroup
	for _, s := range scrapers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recs, err := s.Fetch(ctx, r.Person)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				var unavailable *types.SourceUnavailableError
				if errors.As(err, &unavailable) {
					r.Log.Warn("source unavailable", "source", s.Source(), "reason", unavailable.Reason)
					fmt.Fprintf(r.Out, "source %s unavailable: %s\n", s.Source(), unavailable.Reason)
					return
				}
				r.Log.Warn("scrape failed", "source", s.Source(), "err", err)
				fmt.Fprintf(r.Out, "source %s failed: %v\n", s.Source(), err)
				return
			}
			succeeded++
			records = append(records, recs...)
			fmt.Fprintf(r.Out, "source %s: %d records\n", s.Source(), len(recs))
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("all %d sources failed for %s", len(scrapers), r.Person.CanonicalName)
	}
	return records, nil
}

// Admit runs identity resolution and reports the admission split.
func (r *Run) Admit(records []types.RawRecord) []types.AdmissionDecision {
	decisions := identity.Resolve(r.Person, records)
	admitted := 0
	for _, d := range decisions {
		if d.Admitted {
			admitted++
		} else {
			r.Log.Debug("record rejected", "source", d.Record.Source, "title", d.Record.Title, "reason", d.Reason)
		}
	}
	fmt.Fprintf(r.Out, "admitted %d of %d records\n", admitted, len(decisions))
	return decisions
}

// Curate scores the admitted publications and selects download candidates.
func (r *Run) Curate(admitted []types.RawRecord) curate.Curation {
	cur := curate.Curate(r.Person, admitted, r.Cfg.Curation)
	fmt.Fprintf(r.Out, "curated %d candidates (%d metadata-only)\n", len(cur.Candidates), len(cur.MetadataOnly))
	return cur
}

// Download runs the provider cascade over the candidates.
func (r *Run) Download(ctx context.Context, candidates []types.PaperCandidate) []types.DownloadOutcome {
	cascade := download.New(r.Gate, r.Cfg.Download, r.Log)
	return cascade.Run(ctx, r.Person, candidates, r.Out)
}

// BuildEvidence populates the evidence store from pipeline state.
func (r *Run) BuildEvidence(ctx context.Context, cur curate.Curation,
	outcomes []types.DownloadOutcome, biographies []types.RawRecord) ([]types.EvidenceItem, error) {
	items, err := evidence.Build(ctx, r.Evidence, r.Extractor,
		cur.Candidates, outcomes, cur.MetadataOnly, biographies, r.Out)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(r.Out, "evidence store holds %d items\n", len(items))
	return items, nil
}

// Synthesize generates the report and registers every citation with the
// tracker. A citation that fails integrity here is structural: validated
// sections only cite store-backed ids, so a failure means the store and
// report disagree.
func (r *Run) Synthesize(ctx context.Context) (types.Report, error) {
	syn := synth.New(r.Completer, r.Evidence, r.Cfg.Synthesis, r.Log)
	rep, err := syn.Report(ctx, r.Person, r.Out)
	if err != nil {
		return types.Report{}, err
	}
	for _, sec := range rep.Sections {
		if err := r.Tracker.RecordSection(ctx, sec); err != nil {
			return types.Report{}, err
		}
	}
	return rep, nil
}

// Emit writes the report and checklist artifacts.
func (r *Run) Emit(ctx context.Context, rep types.Report,
	candidates []types.PaperCandidate, outcomes []types.DownloadOutcome) error {

	items, err := r.Evidence.All(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]types.EvidenceItem, len(items))
	for _, it := range items {
		byID[it.EvidenceID] = it
	}

	dir := r.OutputDir()
	if err := report.Write(dir, rep, byID); err != nil {
		return err
	}

	cl := checklist.Build(r.Person, candidates, outcomes, r.Tracker)
	if err := checklist.Write(dir, cl); err != nil {
		return err
	}

	fmt.Fprintf(r.Out, "report and checklist written to %s\n", dir)
	return nil
}

// Profile executes the full pipeline end to end. Cancellation at any
// stage aborts without emitting a report.
func (r *Run) Profile(ctx context.Context) error {
	records, err := r.Scrape(ctx)
	if err != nil {
		return err
	}

	decisions := r.Admit(records)
	if err := saveDecisions(r.OutputDir(), decisions); err != nil {
		r.Log.Warn("could not save admission log", "err", err)
	}

	admitted := identity.Admitted(decisions)
	var biographies, publications []types.RawRecord
	for _, rec := range admitted {
		if rec.Kind == types.RecordBiography {
			biographies = append(biographies, rec)
		} else {
			publications = append(publications, rec)
		}
	}

	cur := r.Curate(publications)
	outcomes := r.Download(ctx, cur.Candidates)
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := r.BuildEvidence(ctx, cur, outcomes, biographies); err != nil {
		return err
	}

	rep, err := r.Synthesize(ctx)
	if err != nil {
		return err
	}

	return r.Emit(ctx, rep, cur.Candidates, outcomes)
}
