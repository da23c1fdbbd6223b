// Package anzparser reads ANZ credit card statements, where every
// transaction is a single line of processed date, transaction date, card
// suffix, description, amount, an optional CR marker and a running balance.
package anzparser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"taxtally/deductions/internal/currencyutils"
	"taxtally/deductions/internal/dateutils"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parser"
	"taxtally/deductions/internal/textutils"
)

var linePattern = regexp.MustCompile(
	`^(\d{2}/\d{2}/\d{4})\s+(\d{2}/\d{2}/\d{4})\s+(\d{4})\s+(.+?)\s+\$?(\d{1,3}(?:,\d{3})*\.\d{2}|\d+\.\d{2})(?:\s*(CR))?(?:\s+\$?(-?(?:\d{1,3}(?:,\d{3})*|\d+)\.\d{2}))?\s*$`)

// Parser implements the single-line grammar. Purchases are positive and
// lines carrying the CR marker (payments, refunds) are negative.
type Parser struct {
	parser.BaseParser
}

// New creates an anz Parser.
func New(logger logging.Logger, clock parser.Clock) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser(logger, clock)}
}

func (p *Parser) Bank() models.BankID { return models.BankANZ }

func (p *Parser) Convention() parser.SignConvention { return parser.OutflowPositive }

func (p *Parser) Parse(text string) []models.RawTransaction {
	var txs []models.RawTransaction
	for _, line := range textutils.NonEmptyLines(text) {
		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		date, err := dateutils.StatementDateToISO(m[2])
		if err != nil {
			continue
		}
		amount, err := currencyutils.ParseAmount(m[5])
		if err != nil {
			continue
		}
		if m[6] != "" {
			amount = amount.Neg()
		}

		tx := models.RawTransaction{
			Date:        date,
			Description: strings.TrimSpace(m[4]),
			Amount:      amount,
			Type:        models.TypeDebit,
		}
		if amount.IsNegative() {
			tx.Type = models.TypeCredit
		}
		if m[7] != "" {
			if balance, err := currencyutils.ParseAmount(m[7]); err == nil {
				tx.Balance = decimalPtr(balance)
			}
		}
		txs = append(txs, tx)
	}

	p.GetLogger().Debug("Parsed statement",
		logging.F(logging.FieldParser, "anz"),
		logging.F(logging.FieldCount, len(txs)))
	return txs
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
