// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Person identifies the profile target. Built once per run from input and
// never mutated afterwards.
type Person struct {
	// CanonicalName is the person's full name as given on input.
	CanonicalName string `json:"canonical_name" yaml:"canonical_name"`

	// ExternalID is an optional scholar identifier that locks identity.
	// When set, name-search records that cannot be tied to this id are
	// rejected by the identity resolver.
	ExternalID string `json:"external_id,omitempty" yaml:"external_id,omitempty"`

	// AffiliationKeywords disambiguate namesakes when no ExternalID is
	// available (e.g. "dartmouth", "tuck").
	AffiliationKeywords []string `json:"affiliation_keywords,omitempty" yaml:"affiliation_keywords,omitempty"`

	// DomainKeywords drive topic scoring during curation (e.g. "brand",
	// "brand equity").
	DomainKeywords []string `json:"domain_keywords,omitempty" yaml:"domain_keywords,omitempty"`
}

// Slug returns a filesystem-safe name stem for output paths.
func (p Person) Slug() string {
	s := strings.ToLower(strings.TrimSpace(p.CanonicalName))
	s = strings.Join(strings.Fields(s), "_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, s)
}

// LoadPersonFile reads a person definition from a YAML file.
func LoadPersonFile(path string) (Person, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Person{}, fmt.Errorf("reading person file: %w", err)
	}
	var p Person
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Person{}, fmt.Errorf("parsing person file %s: %w", path, err)
	}
	if strings.TrimSpace(p.CanonicalName) == "" {
		return Person{}, fmt.Errorf("person file %s: canonical_name is required", path)
	}
	return p, nil
}
