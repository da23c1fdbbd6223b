// Package parsererror defines the typed errors shared by the statement
// pipeline, the classifier and the persistence layers.
package parsererror

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError is an input problem detected before any parsing happens.
// It always fails the request with a 4xx status.
type ValidationError struct {
	Field  string
	Reason string
	// Status is the HTTP status to report; zero means 400.
	Status int
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// HTTPStatus returns the status code the error maps to.
func (e *ValidationError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusBadRequest
	}
	return e.Status
}

// NoTransactionsError reports that a statement was read successfully but the
// selected grammar matched no transaction lines.
type NoTransactionsError struct {
	Bank      string
	PageCount int
	Hint      string
}

func (e *NoTransactionsError) Error() string {
	return fmt.Sprintf("no transactions found in %s statement (%d pages)", e.Bank, e.PageCount)
}

// ParseError is a field-level conversion failure inside a parser.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v", e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidFormatError means the document could not be read at all, for
// example a corrupt or encrypted PDF.
type InvalidFormatError struct {
	FileName       string
	ExpectedFormat string
	Msg            string
	Err            error
}

func (e *InvalidFormatError) Error() string {
	msg := fmt.Sprintf("invalid format in '%s': %s. Expected: %s", e.FileName, e.Msg, e.ExpectedFormat)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

// CategorizationError wraps a failure of a classification tier. Callers
// fall back to the local result; it is never surfaced to clients.
type CategorizationError struct {
	Merchant string
	Strategy string
	Err      error
}

func (e *CategorizationError) Error() string {
	return fmt.Sprintf("categorization failed for %s using %s: %v", e.Merchant, e.Strategy, e.Err)
}

func (e *CategorizationError) Unwrap() error {
	return e.Err
}

// DuplicateKeyError is returned by stores when a unique key already exists.
// Bulk inserts treat it as benign and skip the record.
type DuplicateKeyError struct {
	Collection string
	Key        string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q in %s", e.Key, e.Collection)
}

// IsDuplicateKey reports whether err is, or wraps, a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup)
}

// StatusCode maps an error from the pipeline to an HTTP status.
func StatusCode(err error) int {
	var validation *ValidationError
	var noTx *NoTransactionsError
	var invalid *InvalidFormatError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return validation.HTTPStatus()
	case errors.As(err, &noTx):
		return http.StatusUnprocessableEntity
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
