// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/profile-engine/internal/curate"
	"github.com/pdiddy/profile-engine/pkg/types"
)

// Stage artifacts live under <output>/<slug>/work/ so the per-stage
// subcommands can resume from a previous stage's output.
const workDir = "work"

const (
	recordsFile    = "records.yaml"
	admissionsFile = "admissions.yaml"
	candidatesFile = "candidates.yaml"
	outcomesFile   = "outcomes.yaml"
)

func saveYAML(dir, name string, v any) error {
	target := filepath.Join(dir, workDir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	return os.WriteFile(filepath.Join(target, name), data, 0o644)
}

func loadYAML(dir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, workDir, name))
	if err != nil {
		return fmt.Errorf("reading %s (run the earlier stage first): %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

// SaveRecords persists scraped records for the admit/curate stages.
func SaveRecords(dir string, records []types.RawRecord) error {
	return saveYAML(dir, recordsFile, records)
}

// LoadRecords restores scraped records.
func LoadRecords(dir string) ([]types.RawRecord, error) {
	var records []types.RawRecord
	err := loadYAML(dir, recordsFile, &records)
	return records, err
}

func saveDecisions(dir string, decisions []types.AdmissionDecision) error {
	return saveYAML(dir, admissionsFile, decisions)
}

// SaveCuration persists the candidate split for the download stage.
func SaveCuration(dir string, cur curate.Curation) error {
	return saveYAML(dir, candidatesFile, cur)
}

// LoadCuration restores the candidate split.
func LoadCuration(dir string) (curate.Curation, error) {
	var cur curate.Curation
	err := loadYAML(dir, candidatesFile, &cur)
	return cur, err
}

// SaveOutcomes persists download outcomes for the evidence stage.
func SaveOutcomes(dir string, outcomes []types.DownloadOutcome) error {
	return saveYAML(dir, outcomesFile, outcomes)
}

// LoadOutcomes restores download outcomes.
func LoadOutcomes(dir string) ([]types.DownloadOutcome, error) {
	var outcomes []types.DownloadOutcome
	err := loadYAML(dir, outcomesFile, &outcomes)
	return outcomes, err
}
