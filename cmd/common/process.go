// Package common contains shared functionality for command handlers
package common

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"taxtally/deductions/internal/common"
	"taxtally/deductions/internal/fileutils"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/validation"
)

// Output formats accepted by --format.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// FormatFor picks the output format: the explicit flag when set, otherwise
// the output file's extension, otherwise CSV.
func FormatFor(flag, outputFile string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(flag))
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(outputFile)), ".")
	}
	if format == "" {
		format = FormatCSV
	}
	if err := validation.IsValidOutputFormat(format); err != nil {
		return "", err
	}
	return format, nil
}

// WriteRows writes rows (a slice of csv-tagged structs) as CSV or JSON. An
// empty outputFile writes to stdout.
func WriteRows(rows interface{}, outputFile, format string, delimiter rune, stdout io.Writer, log logging.Logger) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		data = append(data, '\n')
		if outputFile == "" {
			_, err = stdout.Write(data)
			return err
		}
		if err := fileutils.WriteFileAtomic(outputFile, data, 0600); err != nil {
			return err
		}
		log.Info("Wrote JSON output", logging.F(logging.FieldOutputFile, outputFile))
		return nil
	case FormatCSV, "":
		if outputFile == "" {
			return common.WriteCSV(stdout, rows, delimiter)
		}
		return common.WriteTransactionsToCSV(rows, outputFile, delimiter, log)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// ReadInput reads the --input file, failing early with a readable message.
func ReadInput(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("an input file is required (use --input)")
	}
	if err := validation.IsValidPath(path); err != nil {
		return nil, err
	}
	if !fileutils.FileExists(path) {
		return nil, fmt.Errorf("input path is a directory: %s", path)
	}
	return os.ReadFile(path)
}
