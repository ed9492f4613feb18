// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/profile-engine/internal/evidence"
	"github.com/pdiddy/profile-engine/internal/pipeline"
	"github.com/pdiddy/profile-engine/pkg/types"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence [name]",
	Short: "List or search the run's evidence store",
	Long: `Evidence inspects the store built by the synthesize stage. Without
--query it lists every item, full text first. With --query it runs a
full-text search over titles and extracted text, best match first.`,
	RunE: runEvidence,
}

func init() {
	addPersonFlags(evidenceCmd)
	evidenceCmd.Flags().String("query", "", "full-text search query")
	evidenceCmd.Flags().Int("limit", 20, "maximum number of search results")
	rootCmd.AddCommand(evidenceCmd)
}

func runEvidence(cmd *cobra.Command, args []string) error {
	person, err := loadPerson(cmd, args)
	if err != nil {
		return err
	}

	run, err := pipeline.New(loadConfig(), person, os.Stdout, newLogger(cmd))
	if err != nil {
		return err
	}
	defer run.Close()

	query, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")

	var items []types.EvidenceItem
	if query == "" {
		items, err = run.Evidence.All(cmd.Context())
	} else {
		items, err = run.Evidence.Search(cmd.Context(), query, limit)
	}
	if err != nil {
		return err
	}

	evidence.WriteItems(os.Stdout, items)
	return nil
}
