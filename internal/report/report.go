// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes the final profile artifacts: the structured YAML
// report contract and a human-readable Markdown rendering with a
// references list resolved from the evidence store.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/profile-engine/pkg/types"
)

const (
	yamlFile     = "report.yaml"
	markdownFile = "report.md"
)

// Write persists both report artifacts under dir. Files are written to a
// temp name and renamed, so a crash mid-write never leaves a truncated
// report behind.
func Write(dir string, rep types.Report, items map[string]types.EvidenceItem) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := atomicWrite(filepath.Join(dir, yamlFile), data); err != nil {
		return err
	}

	return atomicWrite(filepath.Join(dir, markdownFile), []byte(Render(rep, items)))
}

// Load reads a previously written report contract back from dir.
func Load(dir string) (types.Report, error) {
	data, err := os.ReadFile(filepath.Join(dir, yamlFile))
	if err != nil {
		if os.IsNotExist(err) {
			return types.Report{}, fmt.Errorf("no report in %s, run the synthesize stage first", dir)
		}
		return types.Report{}, fmt.Errorf("reading report: %w", err)
	}
	var rep types.Report
	if err := yaml.Unmarshal(data, &rep); err != nil {
		return types.Report{}, fmt.Errorf("parsing report: %w", err)
	}
	return rep, nil
}

// Render produces the Markdown view: sections in order, fallback sections
// labeled, and a references list for every cited evidence id.
func Render(rep types.Report, items map[string]types.EvidenceItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Profile: %s\n\n", rep.PersonName)

	var citedOrder []string
	cited := make(map[string]bool)

	for _, sec := range rep.Sections {
		fmt.Fprintf(&b, "## %s\n\n", sec.Title)
		if sec.Fallback {
			b.WriteString("*Assembled from evidence metadata.*\n\n")
		}
		if len(sec.Paragraphs) == 0 {
			b.WriteString("*No citable evidence available for this section.*\n\n")
			continue
		}
		for _, p := range sec.Paragraphs {
			b.WriteString(p.Text)
			b.WriteString("\n\n")
			for _, id := range p.Citations {
				if !cited[id] {
					cited[id] = true
					citedOrder = append(citedOrder, id)
				}
			}
		}
	}

	if len(citedOrder) > 0 {
		b.WriteString("## References\n\n")
		for _, id := range citedOrder {
			b.WriteString(formatReference(id, items))
		}
	}

	return b.String()
}

func formatReference(id string, items map[string]types.EvidenceItem) string {
	item, ok := items[id]
	if !ok {
		return fmt.Sprintf("- `%s` (unresolved)\n", id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- `%s` %s", id, item.Title)
	if len(item.Authors) > 0 {
		fmt.Fprintf(&b, " — %s", strings.Join(item.Authors, ", "))
	}
	if item.Year > 0 {
		fmt.Fprintf(&b, " (%d)", item.Year)
	}
	if item.Venue != "" {
		fmt.Fprintf(&b, ", %s", item.Venue)
	}
	fmt.Fprintf(&b, " [%s, %s]\n", item.Source, item.Document)
	return b.String()
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}
