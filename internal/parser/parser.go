// Package parser defines the statement parser contract shared by the
// per-bank grammars, and the post-parse normalization every parser's output
// goes through.
package parser

import (
	"taxtally/deductions/internal/models"
)

// SignConvention describes how a grammar signs the amounts it emits.
type SignConvention string

const (
	// OutflowPositive grammars report money leaving the account as a
	// positive number.
	OutflowPositive SignConvention = "outflow-positive"
	// Signed grammars already report outflows as negative numbers.
	Signed SignConvention = "signed"
)

// Parser is a best-effort line grammar for one bank's statement text.
// Parse never fails: lines that do not match are skipped, and a statement
// with no recognisable lines yields an empty slice.
type Parser interface {
	Bank() models.BankID
	Convention() SignConvention
	Parse(text string) []models.RawTransaction
}
