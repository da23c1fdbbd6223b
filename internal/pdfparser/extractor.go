// Package pdfparser turns PDF statement bytes into plain text lines for the
// bank statement grammars.
package pdfparser

import (
	"context"
	"strings"
)

// Document is the text content of a PDF.
type Document struct {
	Text      string
	PageCount int
}

// Lines splits the document text into trimmed, non-empty lines.
func (d Document) Lines() []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(d.Text, "\f", "\n"), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// Extractor extracts text from PDF bytes. Implementations return a
// *parsererror.InvalidFormatError when the document cannot be read.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (Document, error)
}

// MockExtractor returns fixed output, for tests.
type MockExtractor struct {
	Doc Document
	Err error
	// Calls counts invocations.
	Calls int
}

// NewMockExtractor returns a MockExtractor yielding text on a single page.
func NewMockExtractor(text string, err error) *MockExtractor {
	return &MockExtractor{Doc: Document{Text: text, PageCount: 1}, Err: err}
}

func (m *MockExtractor) Extract(_ context.Context, _ []byte) (Document, error) {
	m.Calls++
	if m.Err != nil {
		return Document{}, m.Err
	}
	return m.Doc, nil
}
