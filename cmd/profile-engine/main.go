// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the profile-engine CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the profile-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "profile-engine",
	Short: "Citation-backed research profiles of named people",
	Long: `profile-engine builds an evidence-backed profile of a named person. It
scrapes public scholarly sources, filters records to the target identity,
downloads the strongest papers, and synthesizes a cited report plus a
paper checklist.

Run the whole pipeline with "profile", or drive the stages individually
with "scrape", "download", and "synthesize".`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./profile-engine.yaml or ~/.config/profile-engine/config.yaml)")
	rootCmd.PersistentFlags().String("person", "", "person YAML file (canonical_name, external_id, keywords)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("profile-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "profile-engine"))
		}
	}

	viper.SetEnvPrefix("PROFILE_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger; debug level with --verbose.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
