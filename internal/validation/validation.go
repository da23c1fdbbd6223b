// Package validation holds the input checks run before any statement is
// parsed. Every failure is a *parsererror.ValidationError carrying the HTTP
// status the API reports.
package validation

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"taxtally/deductions/internal/factory"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parsererror"
)

// DefaultMaxUploadBytes is the upload ceiling used when none is configured.
const DefaultMaxUploadBytes int64 = 10 * 1024 * 1024

// PDFContentType is the only MIME type accepted for statements.
const PDFContentType = "application/pdf"

var pdfMagic = []byte("%PDF-")

// ValidateUpload checks a statement upload: the file is present, no larger
// than maxBytes, looks like a PDF and names a supported bank. maxBytes <= 0
// means DefaultMaxUploadBytes.
func ValidateUpload(fileName, contentType string, data []byte, bank string, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if len(data) == 0 {
		return &parsererror.ValidationError{Field: "file", Reason: "no file uploaded"}
	}
	if int64(len(data)) > maxBytes {
		return &parsererror.ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("file is %d bytes, the limit is %d", len(data), maxBytes),
			Status: http.StatusRequestEntityTooLarge,
		}
	}
	if !IsPDF(contentType, data) {
		return &parsererror.ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("%s is not a PDF", displayName(fileName)),
			Status: http.StatusUnsupportedMediaType,
		}
	}
	return ValidateBank(bank)
}

// ValidateBank checks that bank names one of the supported statement
// grammars.
func ValidateBank(bank string) error {
	if strings.TrimSpace(bank) == "" {
		return &parsererror.ValidationError{Field: "bank", Reason: "bank is required"}
	}
	if !models.IsStatementBank(strings.ToLower(bank)) {
		return &parsererror.ValidationError{
			Field:  "bank",
			Reason: fmt.Sprintf("unsupported bank %q, expected one of %s", bank, strings.Join(factory.SupportedBanks(), ", ")),
		}
	}
	return nil
}

// IsPDF accepts the upload when either the declared MIME type or the file's
// leading bytes say PDF.
func IsPDF(contentType string, data []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == PDFContentType {
		return true
	}
	return bytes.HasPrefix(data, pdfMagic)
}

// IsValidPath checks if a given path exists and is a regular file or
// directory.
func IsValidPath(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is neither a file nor a directory", path)
	}
	return nil
}

// IsValidOutputFormat checks if the given CLI output format is supported.
func IsValidOutputFormat(format string) error {
	switch format {
	case "csv", "json":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s. Supported formats are 'csv', 'json'", format)
	}
}

func displayName(fileName string) string {
	if fileName == "" {
		return "upload"
	}
	return filepath.Base(fileName)
}
