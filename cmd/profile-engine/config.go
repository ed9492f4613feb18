// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/profile-engine/pkg/types"
)

const defaultUserAgent = "profile-engine/0.1"

// loadConfig assembles the pipeline configuration from the config file
// and environment. Unset values stay zero; the stages apply their own
// defaults.
func loadConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		Gate: types.GateConfig{
			MinInterval: viper.GetDuration("gate.min_interval"),
			MaxRetries:  viper.GetInt("gate.max_retries"),
			BackoffBase: viper.GetDuration("gate.backoff_base"),
			BackoffCap:  viper.GetDuration("gate.backoff_cap"),
			CoolDown:    viper.GetDuration("gate.cool_down"),
		},
		Cache: types.CacheConfig{
			Dir:          viper.GetString("cache.dir"),
			TTL:          viper.GetDuration("cache.ttl"),
			ForceRefresh: viper.GetBool("cache.force_refresh"),
		},
		Scrape: types.ScrapeConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("scrape.timeout"),
				UserAgent: viper.GetString("scrape.user_agent"),
			},
			MaxRecords:            viper.GetInt("scrape.max_records"),
			SemanticScholarAPIKey: viper.GetString("scrape.semantic_scholar_api_key"),
			UnpaywallEmail:        viper.GetString("scrape.unpaywall_email"),
		},
		Curation: types.CurationConfig{
			TopN:        viper.GetInt("curation.top_n"),
			TopicWeight: viper.GetFloat64("curation.topic_weight"),
		},
		Download: types.DownloadConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("download.timeout"),
				UserAgent: viper.GetString("download.user_agent"),
			},
			PapersDir:      viper.GetString("download.papers_dir"),
			MinBytes:       viper.GetInt64("download.min_bytes"),
			Concurrency:    viper.GetInt("download.concurrency"),
			UnpaywallEmail: viper.GetString("download.unpaywall_email"),
		},
		Synthesis: types.SynthesisConfig{
			Model:           viper.GetString("synthesis.model"),
			APIKey:          viper.GetString("synthesis.api_key"),
			MaxAttempts:     viper.GetInt("synthesis.max_attempts"),
			ChunkBytes:      viper.GetInt("synthesis.chunk_bytes"),
			MinSectionChars: viper.GetInt("synthesis.min_section_chars"),
			MaxTokens:       viper.GetInt("synthesis.max_tokens"),
			SectionTimeout:  viper.GetDuration("synthesis.section_timeout"),
		},
		Output: types.OutputConfig{
			Dir: viper.GetString("output.dir"),
		},
	}

	if cfg.Scrape.UserAgent == "" {
		cfg.Scrape.UserAgent = defaultUserAgent
	}
	if cfg.Download.UserAgent == "" {
		cfg.Download.UserAgent = defaultUserAgent
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "cache"
	}
	if cfg.Download.PapersDir == "" {
		cfg.Download.PapersDir = "papers"
	}
	return cfg
}

// loadPerson resolves the target person from --person or from the name
// argument plus identity flags.
func loadPerson(cmd *cobra.Command, args []string) (types.Person, error) {
	if path, _ := cmd.Flags().GetString("person"); path != "" {
		return types.LoadPersonFile(path)
	}

	if len(args) == 0 {
		return types.Person{}, fmt.Errorf("provide a person name or --person file")
	}

	person := types.Person{CanonicalName: strings.Join(args, " ")}
	person.ExternalID, _ = cmd.Flags().GetString("external-id")
	person.AffiliationKeywords, _ = cmd.Flags().GetStringSlice("affiliation")
	person.DomainKeywords, _ = cmd.Flags().GetStringSlice("keywords")
	return person, nil
}

// addPersonFlags registers the per-command identity flags.
func addPersonFlags(cmd *cobra.Command) {
	cmd.Flags().String("external-id", "", "locked scholar identifier (Semantic Scholar author id)")
	cmd.Flags().StringSlice("affiliation", nil, "affiliation keywords for identity checks")
	cmd.Flags().StringSlice("keywords", nil, "domain keywords for topical scoring")
}
