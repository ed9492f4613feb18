// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/profile-engine/internal/identity"
	"github.com/pdiddy/profile-engine/internal/pipeline"
	"github.com/pdiddy/profile-engine/pkg/types"
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize [name]",
	Short: "Build evidence and synthesize the cited report",
	Long: `Synthesize loads the artifacts saved by the scrape and download stages,
builds the evidence store (extracting text from downloaded papers),
generates the report sections, and writes the report and checklist.`,
	RunE: runSynthesize,
}

func init() {
	addPersonFlags(synthesizeCmd)
	rootCmd.AddCommand(synthesizeCmd)
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	person, err := loadPerson(cmd, args)
	if err != nil {
		return err
	}

	run, err := pipeline.New(loadConfig(), person, os.Stdout, newLogger(cmd))
	if err != nil {
		return err
	}
	defer run.Close()

	dir := run.OutputDir()
	cur, err := pipeline.LoadCuration(dir)
	if err != nil {
		return err
	}
	outcomes, err := pipeline.LoadOutcomes(dir)
	if err != nil {
		return err
	}

	// Biographies come from the saved scrape records; they bypass curation.
	records, err := pipeline.LoadRecords(dir)
	if err != nil {
		return err
	}
	var biographies []types.RawRecord
	for _, rec := range identity.Admitted(identity.Resolve(person, records)) {
		if rec.Kind == types.RecordBiography {
			biographies = append(biographies, rec)
		}
	}

	if _, err := run.BuildEvidence(cmd.Context(), cur, outcomes, biographies); err != nil {
		return err
	}

	rep, err := run.Synthesize(cmd.Context())
	if err != nil {
		return err
	}

	return run.Emit(cmd.Context(), rep, cur.Candidates, outcomes)
}
