// Package currencyutils parses and formats the Australian dollar amounts
// that appear on bank statements and in tax calculations.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// AmountToken matches a decimal amount with two fraction digits and
	// optional thousands separators, sign and dollar sign.
	AmountToken = regexp.MustCompile(`-?\$?\d{1,3}(?:,\d{3})*\.\d{2}|-?\$?\d+\.\d{2}`)

	symbolStripper = regexp.MustCompile(`[$\s]|AUD`)
	hundred        = decimal.NewFromInt(100)
)

// ParseAmount parses amounts such as "1,234.56", "$45.00", "-12.30",
// "(12.30)" and "12.30 CR". A trailing CR or enclosing parentheses make the
// value negative; a trailing DR is accepted and ignored.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	s := strings.ToUpper(strings.TrimSpace(amountStr))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := false
	switch {
	case strings.HasSuffix(s, "CR"):
		negative = true
		s = strings.TrimSuffix(s, "CR")
	case strings.HasSuffix(s, "DR"):
		s = strings.TrimSuffix(s, "DR")
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	s = symbolStripper.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", "")

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// FindAmounts returns every amount token in s, in order of appearance.
// Tokens that fail to parse are skipped.
func FindAmounts(s string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, token := range AmountToken.FindAllString(s, -1) {
		if amount, err := ParseAmount(token); err == nil {
			out = append(out, amount)
		}
	}
	return out
}

// FormatAUD renders an amount as "$1234.56" or "-$1234.56".
func FormatAUD(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + amount.Abs().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}

// Percentage returns part/total*100 rounded to places decimals, or zero
// when total is zero.
func Percentage(part, total decimal.Decimal, places int32) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(places)
}

// ApplyRate returns amount * ratePercent / 100.
func ApplyRate(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(hundred)
}
