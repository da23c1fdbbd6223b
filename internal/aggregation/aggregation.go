// Package aggregation derives dashboard figures from classified
// transactions. Everything here is a pure function except Service, which
// also looks up the user's income.
package aggregation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"taxtally/deductions/internal/currencyutils"
	"taxtally/deductions/internal/dateutils"
	"taxtally/deductions/internal/models"
)

// TrendMonths is the number of most recent months kept by MonthlyTrend.
const TrendMonths = 6

// Stats are the headline dashboard numbers.
type Stats struct {
	TransactionCount    int             `json:"transactionCount"`
	TotalExpenses       decimal.Decimal `json:"totalExpenses"`
	TotalDeductions     decimal.Decimal `json:"totalDeductions"`
	MarginalRate        decimal.Decimal `json:"marginalRate"`
	EstimatedTaxSavings decimal.Decimal `json:"estimatedTaxSavings"`
	AccountCount        int             `json:"accountCount"`
}

// MonthlyPoint is one month of the trend.
type MonthlyPoint struct {
	Month      string          `json:"month"`
	Income     decimal.Decimal `json:"income"`
	Expenses   decimal.Decimal `json:"expenses"`
	Deductions decimal.Decimal `json:"deductions"`
	Count      int             `json:"count"`
}

// CategoryShare is one row of the deduction breakdown.
type CategoryShare struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}

// DashboardStats totals txs. marginalRate is a percentage, e.g. 32.5.
func DashboardStats(txs []models.ClassifiedTransaction, marginalRate decimal.Decimal) Stats {
	stats := Stats{
		TransactionCount: len(txs),
		TotalExpenses:    decimal.Zero,
		TotalDeductions:  decimal.Zero,
		MarginalRate:     marginalRate,
	}
	accounts := make(map[string]bool)
	for _, tx := range txs {
		if tx.IsOutflow() {
			stats.TotalExpenses = stats.TotalExpenses.Add(tx.Amount.Abs())
		}
		stats.TotalDeductions = stats.TotalDeductions.Add(tx.EffectiveDeduction())
		if tx.AccountID != "" {
			accounts[tx.AccountID] = true
		}
	}
	stats.AccountCount = len(accounts)
	stats.EstimatedTaxSavings = currencyutils.ApplyRate(stats.TotalDeductions, marginalRate).Round(2)
	return stats
}

// MonthlyTrend groups txs by calendar month, oldest first, keeping the most
// recent TrendMonths months. Transactions with unparseable dates are skipped.
func MonthlyTrend(txs []models.ClassifiedTransaction) []MonthlyPoint {
	type bucket struct {
		start time.Time
		point MonthlyPoint
	}
	byMonth := make(map[time.Time]*bucket)
	for _, tx := range txs {
		date, err := dateutils.ParseISODate(tx.Date)
		if err != nil {
			continue
		}
		start := dateutils.StartOfMonth(date)
		b, ok := byMonth[start]
		if !ok {
			b = &bucket{start: start, point: MonthlyPoint{
				Month:      dateutils.MonthLabel(start),
				Income:     decimal.Zero,
				Expenses:   decimal.Zero,
				Deductions: decimal.Zero,
			}}
			byMonth[start] = b
		}
		if tx.Amount.IsPositive() {
			b.point.Income = b.point.Income.Add(tx.Amount)
		} else {
			b.point.Expenses = b.point.Expenses.Add(tx.Amount.Abs())
		}
		b.point.Deductions = b.point.Deductions.Add(tx.EffectiveDeduction())
		b.point.Count++
	}

	buckets := make([]*bucket, 0, len(byMonth))
	for _, b := range byMonth {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].start.Before(buckets[j].start) })
	if len(buckets) > TrendMonths {
		buckets = buckets[len(buckets)-TrendMonths:]
	}

	out := make([]MonthlyPoint, len(buckets))
	for i, b := range buckets {
		out[i] = b.point
	}
	return out
}

// CategoryBreakdown groups deductible outflows by category, largest
// amount first. Percentages are of total deductions, to one decimal place.
func CategoryBreakdown(txs []models.ClassifiedTransaction) []CategoryShare {
	byCategory := make(map[string]*CategoryShare)
	total := decimal.Zero
	for _, tx := range txs {
		if !tx.IsDeductible || !tx.IsOutflow() {
			continue
		}
		amount := tx.EffectiveDeduction()
		share, ok := byCategory[tx.ATOCategory]
		if !ok {
			share = &CategoryShare{Category: tx.ATOCategory, Amount: decimal.Zero}
			byCategory[tx.ATOCategory] = share
		}
		share.Amount = share.Amount.Add(amount)
		share.Count++
		total = total.Add(amount)
	}

	out := make([]CategoryShare, 0, len(byCategory))
	for _, share := range byCategory {
		share.Percentage = currencyutils.Percentage(share.Amount, total, 1)
		out = append(out, *share)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// FilterByFinancialYear keeps transactions dated inside fy ("FY2025"), both
// boundary days included.
func FilterByFinancialYear(txs []models.ClassifiedTransaction, fy string) ([]models.ClassifiedTransaction, error) {
	year, err := dateutils.ParseFinancialYear(fy)
	if err != nil {
		return nil, err
	}
	out := make([]models.ClassifiedTransaction, 0, len(txs))
	for _, tx := range txs {
		date, err := dateutils.ParseISODate(tx.Date)
		if err != nil {
			continue
		}
		if year.Contains(date) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// FinancialYearOf returns the label of the financial year containing date.
func FinancialYearOf(date time.Time) string {
	return dateutils.FinancialYearOf(date).String()
}

// CurrentFinancialYear returns the label of the financial year containing now.
func CurrentFinancialYear(now time.Time) string {
	return FinancialYearOf(now)
}
