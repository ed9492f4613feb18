// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/profile-engine/internal/identity"
	"github.com/pdiddy/profile-engine/internal/pipeline"
	"github.com/pdiddy/profile-engine/pkg/types"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [name]",
	Short: "Scrape sources, admit records, and curate candidates",
	Long: `Scrape queries Crossref, Semantic Scholar, OpenAlex, and Wikipedia for
the person, admits records that pass the identity checks, scores the
publications, and saves the candidate set for the download stage.`,
	RunE: runScrape,
}

func init() {
	addPersonFlags(scrapeCmd)
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	person, err := loadPerson(cmd, args)
	if err != nil {
		return err
	}

	run, err := pipeline.New(loadConfig(), person, os.Stdout, newLogger(cmd))
	if err != nil {
		return err
	}
	defer run.Close()

	records, err := run.Scrape(cmd.Context())
	if err != nil {
		return err
	}
	if err := pipeline.SaveRecords(run.OutputDir(), records); err != nil {
		return err
	}

	decisions := run.Admit(records)
	var publications []types.RawRecord
	for _, rec := range identity.Admitted(decisions) {
		if rec.Kind == types.RecordPublication {
			publications = append(publications, rec)
		}
	}

	cur := run.Curate(publications)
	return pipeline.SaveCuration(run.OutputDir(), cur)
}
