// Package cbaparser reads Commonwealth Bank statements. Their text layout
// interleaves columns unpredictably, so only the opening and closing balance
// markers are read; each becomes a zero-amount placeholder carrying the
// balance.
package cbaparser

import (
	"regexp"
	"strings"

	"taxtally/deductions/internal/currencyutils"
	"taxtally/deductions/internal/dateutils"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parser"
	"taxtally/deductions/internal/textutils"

	"github.com/shopspring/decimal"
)

var (
	markerPattern = regexp.MustCompile(`(?i)\b(opening|closing)\s+balance\b`)
	datePatterns  = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{4}\b`),
	}
)

// Parser implements the balance-marker grammar.
type Parser struct {
	parser.BaseParser
}

// New creates a cba Parser.
func New(logger logging.Logger, clock parser.Clock) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser(logger, clock)}
}

func (p *Parser) Bank() models.BankID { return models.BankCBA }

func (p *Parser) Convention() parser.SignConvention { return parser.Signed }

func (p *Parser) Parse(text string) []models.RawTransaction {
	var txs []models.RawTransaction
	for _, line := range textutils.NonEmptyLines(text) {
		m := markerPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		tx := models.RawTransaction{
			Date:        p.lineDate(line),
			Description: strings.ToUpper(m[1]) + " BALANCE",
			Amount:      decimal.Zero,
			Type:        models.TypeCredit,
		}
		if amounts := currencyutils.FindAmounts(trailingAmountText(line)); len(amounts) > 0 {
			balance := amounts[len(amounts)-1]
			if strings.HasSuffix(strings.ToUpper(strings.TrimSpace(line)), "DR") {
				balance = balance.Neg()
			}
			tx.Balance = &balance
		}
		txs = append(txs, tx)
	}

	p.GetLogger().Debug("Parsed statement",
		logging.F(logging.FieldParser, "cba"),
		logging.F(logging.FieldCount, len(txs)))
	return txs
}

// lineDate returns the first date printed on the line, or today.
func (p *Parser) lineDate(line string) string {
	for _, pattern := range datePatterns {
		if token := pattern.FindString(line); token != "" {
			if iso, err := dateutils.StatementDateToISO(token); err == nil {
				return iso
			}
		}
	}
	return dateutils.ToISODate(p.Now())
}

// trailingAmountText drops date tokens so day/month digits are never read
// as part of an amount.
func trailingAmountText(line string) string {
	for _, pattern := range datePatterns {
		line = pattern.ReplaceAllString(line, " ")
	}
	return line
}
