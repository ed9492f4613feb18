// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checklist builds the end-of-run audit artifact: one row per
// paper candidate recording the request, the outcome, where the evidence
// was cited, and a manual-access suggestion for papers that never
// arrived. It also emits the download-prompt file a human can work
// through to fill the gaps.
package checklist

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/profile-engine/internal/cite"
	"github.com/pdiddy/profile-engine/internal/evidence"
	"github.com/pdiddy/profile-engine/pkg/types"
)

const (
	jsonFile   = "checklist.json"
	csvFile    = "checklist.csv"
	promptFile = "download-prompt.txt"
)

// Build assembles the checklist from final pipeline state. Rows follow
// candidate order; the tracker supplies per-evidence citation placement.
func Build(person types.Person, candidates []types.PaperCandidate,
	outcomes []types.DownloadOutcome, tracker *cite.Tracker) types.Checklist {

	byCandidate := make(map[string]types.DownloadOutcome, len(outcomes))
	for _, o := range outcomes {
		byCandidate[o.CandidateID] = o
	}

	cl := types.Checklist{PersonName: person.CanonicalName}

	for _, c := range candidates {
		outcome := byCandidate[c.ID]
		evidenceID := evidence.ID(c.Record.Source, c.Title, c.Year)

		row := types.ChecklistRow{
			CandidateID:   c.ID,
			Title:         c.Title,
			Authors:       strings.Join(c.Authors, "; "),
			Year:          c.Year,
			Venue:         c.Venue,
			CitationCount: c.CitationCount,
			Requested:     true,
			Downloaded:    outcome.Downloaded,
			ProviderUsed:  outcome.Provider,
			CitedIn:       tracker.SectionsFor(evidenceID),
		}
		if !row.Downloaded {
			row.AccessSuggestion = accessSuggestion(c)
		}

		cl.Rows = append(cl.Rows, row)
		cl.Summary.TotalPapers++
		if row.Downloaded {
			cl.Summary.Downloaded++
		} else {
			cl.Summary.MetadataOnly++
		}
		if len(row.CitedIn) > 0 {
			cl.Summary.CitedPapers++
		}
	}

	return cl
}

// accessSuggestion names the most promising manual route for a paper the
// cascade could not retrieve.
func accessSuggestion(c types.PaperCandidate) string {
	switch {
	case c.ArxivID != "":
		return fmt.Sprintf("check arXiv listing at https://arxiv.org/abs/%s", c.ArxivID)
	case c.DOI != "":
		return fmt.Sprintf("request via institutional library access: https://doi.org/%s", c.DOI)
	case len(c.CandidateURLs) > 0:
		return fmt.Sprintf("try the publisher page directly: %s", c.CandidateURLs[0])
	default:
		return "search the title on Google Scholar and request from the authors"
	}
}

// Write persists the checklist as JSON and CSV plus the download prompt
// under dir.
func Write(dir string, cl types.Checklist) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, jsonFile), cl); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, csvFile), cl); err != nil {
		return err
	}
	return writePrompt(filepath.Join(dir, promptFile), cl)
}

func writeJSON(path string, cl types.Checklist) error {
	data, err := json.MarshalIndent(cl, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling checklist: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing checklist JSON: %w", err)
	}
	return nil
}

func writeCSV(path string, cl types.Checklist) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating checklist CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"candidate_id", "title", "authors", "year", "venue",
		"citation_count", "downloaded", "provider_used", "cited_in", "access_suggestion"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range cl.Rows {
		record := []string{
			r.CandidateID, r.Title, r.Authors,
			strconv.Itoa(r.Year), r.Venue,
			strconv.Itoa(r.CitationCount),
			strconv.FormatBool(r.Downloaded),
			r.ProviderUsed,
			strings.Join(r.CitedIn, "; "),
			r.AccessSuggestion,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// writePrompt emits the human-facing list of papers that still need
// manual retrieval, with the best known route for each.
func writePrompt(path string, cl types.Checklist) error {
	var missing []types.ChecklistRow
	for _, r := range cl.Rows {
		if !r.Downloaded {
			missing = append(missing, r)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Papers needing manual download for %s\n", cl.PersonName)
	fmt.Fprintf(&b, "%d of %d requested papers were not retrieved automatically.\n\n",
		len(missing), cl.Summary.TotalPapers)

	if len(missing) == 0 {
		b.WriteString("Nothing to do: every requested paper was downloaded.\n")
	}
	for i, r := range missing {
		fmt.Fprintf(&b, "%d. %s", i+1, r.Title)
		if r.Year > 0 {
			fmt.Fprintf(&b, " (%d)", r.Year)
		}
		if r.Venue != "" {
			fmt.Fprintf(&b, ", %s", r.Venue)
		}
		b.WriteString("\n")
		if r.AccessSuggestion != "" {
			fmt.Fprintf(&b, "   -> %s\n", r.AccessSuggestion)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing download prompt: %w", err)
	}
	return nil
}
