// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/profile-engine/internal/pipeline"
)

var downloadCmd = &cobra.Command{
	Use:   "download [name]",
	Short: "Run the download cascade over curated candidates",
	Long: `Download loads the candidate set saved by the scrape stage and walks the
provider cascade for each candidate. Already-downloaded papers are
skipped without any network traffic.`,
	RunE: runDownload,
}

func init() {
	addPersonFlags(downloadCmd)
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	person, err := loadPerson(cmd, args)
	if err != nil {
		return err
	}

	run, err := pipeline.New(loadConfig(), person, os.Stdout, newLogger(cmd))
	if err != nil {
		return err
	}
	defer run.Close()

	cur, err := pipeline.LoadCuration(run.OutputDir())
	if err != nil {
		return err
	}

	outcomes := run.Download(cmd.Context(), cur.Candidates)
	if err := cmd.Context().Err(); err != nil {
		return err
	}
	return pipeline.SaveOutcomes(run.OutputDir(), outcomes)
}
