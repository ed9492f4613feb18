// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth generates the report sections from stored evidence. Each
// section moves through an explicit state machine: chunk the evidence,
// map each chunk to cited notes, reduce the notes to prose, validate the
// result. Validation failures retry with progressively stricter citation
// directives; exhausted retries fall back to a deterministic section built
// purely from evidence metadata. A section never fails the run.
package synth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/profile-engine/internal/completion"
	"github.com/pdiddy/profile-engine/internal/evidence"
	"github.com/pdiddy/profile-engine/pkg/types"
)

// SectionState labels a section's position in the synthesis lifecycle.
type SectionState string

const (
	StatePending    SectionState = "pending"
	StateChunking   SectionState = "chunking"
	StateGenerating SectionState = "generating"
	StateValidating SectionState = "validating"
	StateAccepted   SectionState = "accepted"
	StateRetrying   SectionState = "retrying"
	StateFallback   SectionState = "fallback"
)

// SectionSpec names one section of the profile and the angle its prompt
// takes on the evidence.
type SectionSpec struct {
	ID    string
	Title string
	Focus string
}

// DefaultSections is the standard profile layout.
func DefaultSections() []SectionSpec {
	return []SectionSpec{
		{ID: "overview", Title: "Overview", Focus: "who the person is, their current role, and what they are best known for"},
		{ID: "career", Title: "Career and Affiliations", Focus: "career trajectory, institutional affiliations, and positions held"},
		{ID: "expertise", Title: "Areas of Expertise", Focus: "research areas, recurring themes, and methodological strengths"},
		{ID: "publications", Title: "Notable Publications", Focus: "the most significant publications and what each contributed"},
		{ID: "influence", Title: "Influence and Impact", Focus: "citation impact, influence on the field, and adoption of their ideas"},
	}
}

const (
	defaultMaxAttempts     = 3
	defaultChunkBytes      = 16 * 1024
	defaultMinSectionChars = 400
	defaultSectionTimeout  = 5 * time.Minute
)

// Synthesizer drives section generation against a completer and the
// evidence store.
type Synthesizer struct {
	Completer completion.Completer
	Store     *evidence.Store
	Cfg       types.SynthesisConfig
	Sections  []SectionSpec
	Log       *slog.Logger
}

// New builds a synthesizer with the default section layout.
func New(c completion.Completer, store *evidence.Store, cfg types.SynthesisConfig, log *slog.Logger) *Synthesizer {
	if log == nil {
		log = slog.Default()
	}
	return &Synthesizer{
		Completer: c,
		Store:     store,
		Cfg:       cfg,
		Sections:  DefaultSections(),
		Log:       log,
	}
}

// Report synthesizes every section concurrently and assembles the report
// in section order. Cancellation propagates to in-flight completions; a
// canceled run returns the context error and no partial report.
func (s *Synthesizer) Report(ctx context.Context, person types.Person, w io.Writer) (types.Report, error) {
	items, err := s.Store.All(ctx)
	if err != nil {
		return types.Report{}, err
	}
	if len(items) == 0 {
		return types.Report{}, fmt.Errorf("no evidence available for %s", person.CanonicalName)
	}

	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.EvidenceID] = true
	}

	sections := make([]types.ReportSection, len(s.Sections))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range s.Sections {
		g.Go(func() error {
			sec, err := s.synthesizeSection(gctx, person, spec, items, known, w)
			if err != nil {
				return err
			}
			sections[i] = sec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.Report{}, err
	}

	return types.Report{PersonName: person.CanonicalName, Sections: sections}, nil
}

// synthesizeSection runs one section through the state machine. The only
// error it returns is context cancellation; completion failures feed the
// retry ladder and ultimately the fallback.
func (s *Synthesizer) synthesizeSection(ctx context.Context, person types.Person, spec SectionSpec,
	items []types.EvidenceItem, known map[string]bool, w io.Writer) (types.ReportSection, error) {

	timeout := s.Cfg.SectionTimeout
	if timeout <= 0 {
		timeout = defaultSectionTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	state := StatePending
	log := s.Log.With("section", spec.ID)
	transition := func(next SectionState) {
		log.Debug("section state", "from", state, "to", next)
		state = next
	}

	transition(StateChunking)
	chunks := chunkEvidence(items, s.chunkBytes())

	maxAttempts := s.Cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		transition(StateGenerating)
		text, err := s.generate(sctx, person, spec, chunks, attempt)
		if err != nil {
			if ctx.Err() != nil {
				return types.ReportSection{}, ctx.Err()
			}
			log.Warn("generation attempt failed", "attempt", attempt, "err", err)
			transition(StateRetrying)
			continue
		}

		transition(StateValidating)
		section, verr := validateSection(spec, text, s.minSectionChars(), known)
		if verr == nil {
			transition(StateAccepted)
			fmt.Fprintf(w, "section %s: accepted (attempt %d)\n", spec.ID, attempt)
			return section, nil
		}
		log.Warn("validation failed", "attempt", attempt, "err", verr)
		transition(StateRetrying)
	}

	if ctx.Err() != nil {
		return types.ReportSection{}, ctx.Err()
	}

	transition(StateFallback)
	fmt.Fprintf(w, "section %s: fallback (all %d attempts failed)\n", spec.ID, maxAttempts)
	return fallbackSection(person, spec, items), nil
}

// generate runs the map step over all chunks concurrently, then reduces
// the notes into section prose.
func (s *Synthesizer) generate(ctx context.Context, person types.Person, spec SectionSpec,
	chunks []evidenceChunk, attempt int) (string, error) {

	notes := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			prompt, err := renderMapPrompt(person, spec, chunk)
			if err != nil {
				return err
			}
			out, err := s.Completer.Complete(gctx, mapSystemPrompt, prompt)
			if err != nil {
				return err
			}
			notes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	// A single chunk's notes still pass through the reduce step so every
	// attempt produces prose in the same register.
	prompt, err := renderReducePrompt(person, spec, notes, attempt)
	if err != nil {
		return "", err
	}
	return s.Completer.Complete(ctx, reduceSystemPrompt, prompt)
}

func (s *Synthesizer) chunkBytes() int {
	if s.Cfg.ChunkBytes > 0 {
		return s.Cfg.ChunkBytes
	}
	return defaultChunkBytes
}

func (s *Synthesizer) minSectionChars() int {
	if s.Cfg.MinSectionChars > 0 {
		return s.Cfg.MinSectionChars
	}
	return defaultMinSectionChars
}

// splitParagraphs breaks completion output on blank lines.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
