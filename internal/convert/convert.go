// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert extracts plain text from downloaded documents with
// pluggable backends. Extracted text feeds the evidence store; a failed
// extraction degrades the item to abstract-only, it never fails the run.
package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/profile-engine/internal/container"
)

// textDir is the subdirectory, next to the PDFs, for extracted text.
const textDir = "text"

// Extractor pulls plain text out of a PDF. Different backends (pdftotext,
// markitdown container) implement this interface.
type Extractor interface {
	// Extract reads the PDF at pdfPath and returns its plain text.
	Extract(pdfPath string) (string, error)
}

// Detect picks the best available backend: the pdftotext binary when
// present, otherwise the markitdown container image. The error lists what
// was tried when neither works.
func Detect() (Extractor, error) {
	if e, err := NewPdftotextExtractor(); err == nil {
		return e, nil
	}
	rt, err := container.DetectRuntime()
	if err != nil {
		return nil, fmt.Errorf("no extraction backend: pdftotext not on PATH and %w", err)
	}
	e, err := NewMarkitdownExtractor(rt)
	if err != nil {
		return nil, fmt.Errorf("no extraction backend: pdftotext not on PATH and %w", err)
	}
	return e, nil
}

// BatchResult holds the outcome of a batch extraction run.
type BatchResult struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the number of documents processed.
func (r BatchResult) Total() int {
	return r.Extracted + r.Skipped + r.Failed
}

// HasFailures reports whether any documents failed extraction.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// TextPath is the destination for a document's extracted text, derived
// from the PDF path so re-runs find prior extractions.
func TextPath(pdfPath string) string {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	return filepath.Join(filepath.Dir(pdfPath), textDir, base+".txt")
}

// ExtractDocument extracts one PDF to its text file. An existing text
// file short-circuits. Returns the extracted text (read back from disk on
// skip) and whether anything usable is available.
func ExtractDocument(e Extractor, pdfPath string, w io.Writer) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	outPath := TextPath(pdfPath)

	if data, err := os.ReadFile(outPath); err == nil && len(data) > 0 {
		fmt.Fprintf(w, "skipped: %s (already extracted)\n", base)
		return string(data), true
	}

	if e == nil {
		fmt.Fprintf(w, "failed:  %s (no extraction backend)\n", base)
		return "", false
	}

	text, err := e.Extract(pdfPath)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		fmt.Fprintf(w, "failed:  %s (empty extraction)\n", base)
		return "", false
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return "", false
	}
	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return "", false
	}

	fmt.Fprintf(w, "extracted: %s\n", base)
	return text, true
}

// ExtractBatch processes PDF paths through the extractor, printing
// per-file status to w and returning a summary plus text keyed by path.
func ExtractBatch(e Extractor, pdfPaths []string, w io.Writer) (map[string]string, BatchResult) {
	texts := make(map[string]string, len(pdfPaths))
	var result BatchResult
	for _, p := range pdfPaths {
		existing := false
		if _, err := os.Stat(TextPath(p)); err == nil {
			existing = true
		}
		text, ok := ExtractDocument(e, p, w)
		switch {
		case ok && existing:
			result.Skipped++
			texts[p] = text
		case ok:
			result.Extracted++
			texts[p] = text
		default:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d skipped, %d failed (total: %d)\n",
		result.Extracted, result.Skipped, result.Failed, result.Total())
	return texts, result
}
