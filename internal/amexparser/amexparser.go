// Package amexparser reads American Express card statements, where each
// entry spans a "Month Day" line, a description line and an amount on a
// nearby line of its own.
package amexparser

import (
	"regexp"
	"strconv"
	"strings"

	"taxtally/deductions/internal/currencyutils"
	"taxtally/deductions/internal/dateutils"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parser"
	"taxtally/deductions/internal/textutils"
)

// lookahead is how many lines after the date line may hold the amount.
const lookahead = 3

var (
	monthDayPattern = regexp.MustCompile(`(?i)^((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2})\b\s*(.*)$`)
	bareAmount      = regexp.MustCompile(`^-?\$?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}$`)

	// Statement dates that carry a year: 15/02/2025, February 15, 2025 and
	// 15 February 2025. A bare four-digit number is never taken as a year.
	yearPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}[/.-]((?:19|20)\d{2})\b`),
		regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+((?:19|20)\d{2})\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+((?:19|20)\d{2})\b`),
	}
)

// Parser implements the card statement grammar. Card statements list
// purchases only, so every amount is an outflow reported as a positive
// magnitude.
type Parser struct {
	parser.BaseParser
}

// New creates an amex Parser.
func New(logger logging.Logger, clock parser.Clock) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser(logger, clock)}
}

func (p *Parser) Bank() models.BankID { return models.BankAmex }

func (p *Parser) Convention() parser.SignConvention { return parser.OutflowPositive }

func (p *Parser) Parse(text string) []models.RawTransaction {
	lines := textutils.NonEmptyLines(text)
	year := p.statementYear(text)

	var txs []models.RawTransaction
	for i := 0; i < len(lines); i++ {
		m := monthDayPattern.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		date, err := dateutils.ParseMonthDay(strings.ReplaceAll(m[1], ".", ""), year)
		if err != nil {
			continue
		}

		descIdx := i + 1
		if descIdx >= len(lines) {
			break
		}
		description := lines[descIdx]
		if bareAmount.MatchString(description) || monthDayPattern.MatchString(description) {
			// Description shares the date line.
			description = strings.TrimSpace(m[2])
			descIdx = i
		}
		if description == "" {
			continue
		}

		amountIdx := -1
		for j := descIdx + 1; j <= i+lookahead && j < len(lines); j++ {
			if bareAmount.MatchString(lines[j]) {
				amountIdx = j
				break
			}
			if monthDayPattern.MatchString(lines[j]) {
				break
			}
		}
		if amountIdx < 0 {
			p.GetLogger().Debug("Skipping entry without amount",
				logging.F(logging.FieldParser, "amex"),
				logging.F("description", description))
			continue
		}

		amount, err := currencyutils.ParseAmount(lines[amountIdx])
		if err != nil {
			continue
		}

		txs = append(txs, models.RawTransaction{
			Date:        dateutils.ToISODate(date),
			Description: description,
			Amount:      amount.Abs(),
			Type:        models.TypeDebit,
		})
		i = amountIdx
	}

	p.GetLogger().Debug("Parsed statement",
		logging.F(logging.FieldParser, "amex"),
		logging.F(logging.FieldCount, len(txs)))
	return txs
}

// statementYear returns the year of the earliest full date printed on the
// statement, or the current year when there is none.
func (p *Parser) statementYear(text string) int {
	best, year := -1, 0
	for _, re := range yearPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if looksLikeAmount(text, m[3]) {
				continue
			}
			if best < 0 || m[0] < best {
				y, err := strconv.Atoi(text[m[2]:m[3]])
				if err == nil {
					best, year = m[0], y
				}
			}
			break
		}
	}
	if best >= 0 {
		return year
	}
	return p.Now().Year()
}

// looksLikeAmount reports whether the digits ending at end continue as a
// decimal amount, e.g. "1999.00".
func looksLikeAmount(text string, end int) bool {
	return end+1 < len(text) && (text[end] == '.' || text[end] == ',') &&
		text[end+1] >= '0' && text[end+1] <= '9'
}
