// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pdiddy/profile-engine/internal/container"
)

const markitdownImage = "markitdown:latest"

// MarkitdownExtractor pipes PDFs through the markitdown container image.
// It is the fallback backend when pdftotext is not installed and needs a
// working container engine with the image pulled.
type MarkitdownExtractor struct {
	runtime *container.Runtime
}

// NewMarkitdownExtractor verifies the image is present in the given
// engine before returning an extractor bound to it.
func NewMarkitdownExtractor(rt *container.Runtime) (*MarkitdownExtractor, error) {
	if err := rt.ImageExists(markitdownImage); err != nil {
		return nil, fmt.Errorf("markitdown unavailable: %w", err)
	}
	return &MarkitdownExtractor{runtime: rt}, nil
}

// Extract streams the PDF through a one-shot container and returns what
// it wrote to stdout. No output at all is treated as a failed extraction.
func (m *MarkitdownExtractor) Extract(pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(markitdownImage, f, &out); err != nil {
		return "", fmt.Errorf("markitdown on %s: %w", pdfPath, err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("markitdown returned no text for %s", pdfPath)
	}
	return out.String(), nil
}
