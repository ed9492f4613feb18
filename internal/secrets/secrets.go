// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value. Environment variables (including a local .env
// file) override file-based secrets.
//
// Supported key files: openrouter-api-key, semantic-scholar-api-key, unpaywall-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Key names used across the pipeline.
const (
	KeyOpenRouter      = "openrouter-api-key"
	KeySemanticScholar = "semantic-scholar-api-key"
	KeyUnpaywallEmail  = "unpaywall-email"
)

// envNames maps secret keys to their environment variable overrides.
var envNames = map[string]string{
	KeyOpenRouter:      "OPENROUTER_API_KEY",
	KeySemanticScholar: "SEMANTIC_SCHOLAR_API_KEY",
	KeyUnpaywallEmail:  "UNPAYWALL_EMAIL",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Resolve loads file-based secrets from dir, then applies .env and
// process-environment overrides for the known keys.
func Resolve(dir string) (map[string]string, error) {
	secrets, err := Load(dir)
	if err != nil {
		return nil, err
	}

	// Missing .env is the normal case, not an error.
	godotenv.Load()

	for key, env := range envNames {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			secrets[key] = v
		}
	}
	return secrets, nil
}
