package aggregation

import (
	"github.com/shopspring/decimal"

	"taxtally/deductions/internal/currencyutils"
)

type bracket struct {
	upTo decimal.Decimal
	rate decimal.Decimal
}

// Simplified resident marginal rates. The rate of the bracket containing the
// income applies to the whole deduction; there is no blending across
// brackets.
var brackets = []bracket{
	{upTo: decimal.NewFromInt(18200), rate: decimal.Zero},
	{upTo: decimal.NewFromInt(45000), rate: decimal.NewFromInt(19)},
	{upTo: decimal.NewFromInt(120000), rate: decimal.RequireFromString("32.5")},
	{upTo: decimal.NewFromInt(180000), rate: decimal.NewFromInt(37)},
}

var topRate = decimal.NewFromInt(45)

// MarginalTaxRate returns the percentage rate for an annual income.
func MarginalTaxRate(income decimal.Decimal) decimal.Decimal {
	for _, b := range brackets {
		if income.LessThanOrEqual(b.upTo) {
			return b.rate
		}
	}
	return topRate
}

// EstimatedTaxSavings is deductions × marginal rate, rounded to cents.
func EstimatedTaxSavings(deductions, income decimal.Decimal) decimal.Decimal {
	return currencyutils.ApplyRate(deductions, MarginalTaxRate(income)).Round(2)
}
