// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/profile-engine/internal/checklist"
	"github.com/pdiddy/profile-engine/internal/pipeline"
	"github.com/pdiddy/profile-engine/internal/report"
)

var checklistCmd = &cobra.Command{
	Use:   "checklist [name]",
	Short: "Rebuild the paper checklist from saved artifacts",
	Long: `Checklist regenerates checklist.json, checklist.csv, and the download
prompt from the saved curation, download outcomes, and report. Citation
links are replayed from the report, so a hand-edited report changes the
cited_in column on the next rebuild.`,
	RunE: runChecklist,
}

func init() {
	addPersonFlags(checklistCmd)
	rootCmd.AddCommand(checklistCmd)
}

func runChecklist(cmd *cobra.Command, args []string) error {
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

	// A missing report is fine: the checklist then shows no citations.
	if rep, err := report.Load(dir); err == nil {
		for _, sec := range rep.Sections {
			if err := run.Tracker.RecordSection(cmd.Context(), sec); err != nil {
				return err
			}
		}
	}

	cl := checklist.Build(person, cur.Candidates, outcomes, run.Tracker)
	if err := checklist.Write(dir, cl); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "checklist written to %s\n", filepath.Join(dir, "checklist.json"))
	return nil
}
