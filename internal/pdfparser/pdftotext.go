package pdfparser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/parsererror"
)

// PdfToTextExtractor shells out to poppler's pdftotext in layout mode.
type PdfToTextExtractor struct {
	logger logging.Logger
	// Command is the executable to run; defaults to "pdftotext".
	Command string
}

// NewPdfToTextExtractor creates a PdfToTextExtractor.
func NewPdfToTextExtractor(logger logging.Logger) *PdfToTextExtractor {
	return &PdfToTextExtractor{logger: logger, Command: "pdftotext"}
}

func (e *PdfToTextExtractor) Extract(ctx context.Context, data []byte) (Document, error) {
	if len(data) == 0 {
		return Document{}, &parsererror.InvalidFormatError{ExpectedFormat: "PDF", Msg: "empty document"}
	}

	dir, err := os.MkdirTemp("", "taxtally-pdf-*")
	if err != nil {
		return Document{}, fmt.Errorf("error creating temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.WithError(err).Warn("Failed to remove temp dir")
		}
	}()

	in := filepath.Join(dir, "statement.pdf")
	out := filepath.Join(dir, "statement.txt")
	if err := os.WriteFile(in, data, 0600); err != nil {
		return Document{}, fmt.Errorf("error writing temp pdf: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.Command, "-layout", in, out) // #nosec G204 -- command is configured, not user input
	if output, err := cmd.CombinedOutput(); err != nil {
		e.logger.WithError(err).Error("pdftotext failed", logging.F("output", strings.TrimSpace(string(output))))
		return Document{}, &parsererror.InvalidFormatError{ExpectedFormat: "PDF", Msg: "pdftotext failed", Err: err}
	}

	text, err := os.ReadFile(out) // #nosec G304 -- path built inside our temp dir
	if err != nil {
		return Document{}, fmt.Errorf("error reading extracted text: %w", err)
	}

	// pdftotext separates pages with form feeds and ends with one.
	pages := strings.Count(strings.TrimRight(string(text), "\f"), "\f") + 1
	return Document{Text: string(text), PageCount: pages}, nil
}
