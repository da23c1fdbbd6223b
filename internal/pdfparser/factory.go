package pdfparser

import (
	"fmt"

	"taxtally/deductions/internal/config"
	"taxtally/deductions/internal/logging"
)

// NewExtractor returns the extractor selected by parsers.pdf.extractor.
func NewExtractor(kind string, logger logging.Logger) (Extractor, error) {
	switch kind {
	case "", config.ExtractorLibrary:
		return NewLibraryExtractor(logger), nil
	case config.ExtractorPdfToText:
		return NewPdfToTextExtractor(logger), nil
	default:
		return nil, fmt.Errorf("unknown pdf extractor: %s", kind)
	}
}
