// Package common provides the CSV and account helpers shared by the CLI and
// the statement pipeline.
package common

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/gocarina/gocsv"

	"taxtally/deductions/internal/fileutils"
	"taxtally/deductions/internal/logging"
)

// DefaultDelimiter is used when no delimiter is configured.
const DefaultDelimiter = ','

// ParseDelimiter returns the first rune of s, or DefaultDelimiter when s is
// empty.
func ParseDelimiter(s string) rune {
	if s == "" {
		return DefaultDelimiter
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// ReadCSVFile reads CSV data into a slice of structs using gocsv. TCSVRow is
// the struct type whose csv tags name the columns.
func ReadCSVFile[TCSVRow any](filePath string, delimiter rune, logger logging.Logger) ([]TCSVRow, error) {
	logger.Info("Reading CSV file", logging.F(logging.FieldFile, filePath))

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	rows, err := ReadCSV[TCSVRow](file, delimiter)
	if err != nil {
		return nil, err
	}
	logger.Info("Successfully read CSV data", logging.F(logging.FieldCount, len(rows)))
	return rows, nil
}

// ReadCSV decodes CSV from r into a slice of TCSVRow.
func ReadCSV[TCSVRow any](r io.Reader, delimiter rune) ([]TCSVRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true

	var rows []TCSVRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}
	return rows, nil
}

// WriteCSV encodes rows, a slice of csv-tagged structs, to w.
func WriteCSV(w io.Writer, rows interface{}, delimiter rune) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WriteTransactionsToCSV writes rows to csvFile, creating its directory
// first. The file is replaced atomically.
func WriteTransactionsToCSV(rows interface{}, csvFile string, delimiter rune, logger logging.Logger) error {
	if rows == nil {
		return fmt.Errorf("cannot write nil transactions to CSV")
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows, delimiter); err != nil {
		logger.WithError(err).Error("Failed to marshal transactions to CSV")
		return err
	}
	if err := fileutils.WriteFileAtomic(csvFile, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}

	logger.Info("Successfully wrote transactions to CSV file",
		logging.F(logging.FieldOutputFile, csvFile),
		logging.F("delimiter", string(delimiter)))
	return nil
}
