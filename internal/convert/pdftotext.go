// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"os/exec"
)

const binPdftotext = "pdftotext"

// PdftotextExtractor shells out to poppler's pdftotext binary. This is
// the fastest backend and needs no container runtime.
type PdftotextExtractor struct {
	bin string
}

// NewPdftotextExtractor verifies that pdftotext is on PATH.
func NewPdftotextExtractor() (*PdftotextExtractor, error) {
	path, err := exec.LookPath(binPdftotext)
	if err != nil {
		return nil, fmt.Errorf("%s not found on PATH: %w", binPdftotext, err)
	}
	return &PdftotextExtractor{bin: path}, nil
}

// Extract runs pdftotext with layout preservation and returns stdout.
func (p *PdftotextExtractor) Extract(pdfPath string) (string, error) {
	var out, stderr bytes.Buffer
	cmd := exec.Command(p.bin, "-layout", pdfPath, "-")
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running %s on %s: %v (%s)", binPdftotext, pdfPath, err, bytes.TrimSpace(stderr.Bytes()))
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%s produced empty output for %s", binPdftotext, pdfPath)
	}
	return out.String(), nil
}
