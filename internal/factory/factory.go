// Package factory maps bank identifiers to statement grammars.
package factory

import (
	"fmt"
	"strings"

	"taxtally/deductions/internal/amexparser"
	"taxtally/deductions/internal/anzparser"
	"taxtally/deductions/internal/cbaparser"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parser"
	"taxtally/deductions/internal/westpacparser"
)

// GetParser returns the grammar for bank with a default logger.
func GetParser(bank models.BankID) (parser.Parser, error) {
	return GetParserWithLogger(bank, logging.NewLogrusAdapter("info", "text"), nil)
}

// GetParserWithLogger returns a new grammar for bank. The bank must be named
// explicitly; statements are never sniffed to guess their issuer.
func GetParserWithLogger(bank models.BankID, logger logging.Logger, clock parser.Clock) (parser.Parser, error) {
	switch models.BankID(strings.ToLower(string(bank))) {
	case models.BankAmex:
		return amexparser.New(logger, clock), nil
	case models.BankANZ:
		return anzparser.New(logger, clock), nil
	case models.BankCBA:
		return cbaparser.New(logger, clock), nil
	case models.BankWestpac:
		return westpacparser.New(logger, clock), nil
	default:
		return nil, fmt.Errorf("unsupported bank: %q", bank)
	}
}

// SupportedBanks lists the identifiers GetParserWithLogger accepts.
func SupportedBanks() []string {
	out := make([]string, len(models.StatementBanks))
	for i, b := range models.StatementBanks {
		out[i] = string(b)
	}
	return out
}
