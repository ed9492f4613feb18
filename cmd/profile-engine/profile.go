// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/profile-engine/internal/pipeline"
)

var profileCmd = &cobra.Command{
	Use:   "profile [name]",
	Short: "Run the full pipeline for one person",
	Long: `Profile runs every stage end to end: scrape the sources, admit records
for the target identity, curate the top papers, download full texts,
build the evidence store, synthesize the cited report, and write the
checklist. Re-running is safe: cached responses and existing downloads
are reused.`,
	RunE: runProfile,
}

func init() {
	addPersonFlags(profileCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	person, err := loadPerson(cmd, args)
	if err != nil {
		return err
	}

	run, err := pipeline.New(loadConfig(), person, os.Stdout, newLogger(cmd))
	if err != nil {
		return err
	}
	defer run.Close()

	return run.Profile(cmd.Context())
}
