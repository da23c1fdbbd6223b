// Package westpacparser reads Westpac account statements, where a record
// starts on a dated line and its description may wrap over several lines
// before the amount and balance columns appear.
package westpacparser

import (
	"regexp"
	"strings"

	"taxtally/deductions/internal/currencyutils"
	"taxtally/deductions/internal/dateutils"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parser"
	"taxtally/deductions/internal/textutils"
)

var (
	datePrefix     = regexp.MustCompile(`^(\d{2}/\d{2}/(?:\d{4}|\d{2}))\b\s*(.*)$`)
	numericToken   = regexp.MustCompile(`-?\$?\d[\d,]*(?:\.\d+)?`)
	creditKeywords = regexp.MustCompile(`(?i)\b(deposit|salary|transfer|refund)`)
	spaces         = regexp.MustCompile(`\s+`)
)

// Parser implements the multi-line grammar. Direction is not printed on the
// statement, so credits are recognised by keyword and everything else is a
// debit.
type Parser struct {
	parser.BaseParser
}

// New creates a westpac Parser.
func New(logger logging.Logger, clock parser.Clock) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser(logger, clock)}
}

func (p *Parser) Bank() models.BankID { return models.BankWestpac }

func (p *Parser) Convention() parser.SignConvention { return parser.Signed }

type pending struct {
	date string
	text strings.Builder
	done bool
}

func (p *Parser) Parse(text string) []models.RawTransaction {
	var (
		txs     []models.RawTransaction
		current *pending
	)

	for _, line := range textutils.NonEmptyLines(text) {
		if m := datePrefix.FindStringSubmatch(line); m != nil {
			iso, err := dateutils.StatementDateToISO(m[1])
			if err != nil {
				current = nil
				continue
			}
			current = &pending{date: iso}
			current.text.WriteString(m[2])
		} else if current != nil && !current.done {
			current.text.WriteByte(' ')
			current.text.WriteString(line)
		} else {
			continue
		}

		if tx, ok := p.complete(current); ok {
			txs = append(txs, tx)
			current.done = true
		}
	}

	p.GetLogger().Debug("Parsed statement",
		logging.F(logging.FieldParser, "westpac"),
		logging.F(logging.FieldCount, len(txs)))
	return txs
}

// complete emits a record once its accumulated text holds at least two
// amounts: the transaction amount followed by the running balance.
func (p *Parser) complete(rec *pending) (models.RawTransaction, bool) {
	if rec == nil || rec.done {
		return models.RawTransaction{}, false
	}
	body := rec.text.String()
	amounts := currencyutils.FindAmounts(body)
	if len(amounts) < 2 {
		return models.RawTransaction{}, false
	}

	description := strings.TrimSpace(spaces.ReplaceAllString(numericToken.ReplaceAllString(body, " "), " "))
	amount := amounts[0].Abs()
	if !creditKeywords.MatchString(description) {
		amount = amount.Neg()
	}
	balance := amounts[1]

	return models.RawTransaction{
		Date:        rec.date,
		Description: description,
		Amount:      amount,
		Type:        models.TypeForAmount(amount),
		Balance:     &balance,
	}, true
}
