package aggregation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func classified(date, amount, category string, deductible bool, account string) models.ClassifiedTransaction {
	amt := d(amount)
	return models.ClassifiedTransaction{
		RawTransaction: models.RawTransaction{
			ID:        date + amount,
			Date:      date,
			Amount:    amt,
			Type:      models.TypeForAmount(amt),
			AccountID: account,
		},
		ATOCategory:     category,
		IsDeductible:    deductible,
		DeductionAmount: models.DeductionFor(amt, deductible),
	}
}

func sample() []models.ClassifiedTransaction {
	partial := classified("2025-03-03", "-50", models.CategoryVehicles, true, "acc-2")
	partial.DeductionAmount = decimal.Zero
	return []models.ClassifiedTransaction{
		classified("2025-01-15", "-100", models.CategoryWorkTools, true, "acc-1"),
		classified("2025-01-20", "3000", models.CategoryOther, false, "acc-1"),
		classified("2025-02-02", "-40", models.CategoryMeals, false, ""),
		partial,
		classified("2025-03-10", "-150", models.CategoryWorkTools, true, "acc-2"),
	}
}

func TestDashboardStats(t *testing.T) {
	stats := DashboardStats(sample(), d("32.5"))
	assert.Equal(t, 5, stats.TransactionCount)
	assert.Equal(t, "340", stats.TotalExpenses.String())
	assert.Equal(t, "300", stats.TotalDeductions.String(), "zero deduction amount falls back to |amount|")
	assert.Equal(t, "97.5", stats.EstimatedTaxSavings.String())
	assert.Equal(t, 2, stats.AccountCount)
}

func TestDashboardStats_DeductibleRefundIsNotADeduction(t *testing.T) {
	refund := classified("2025-03-12", "200", models.CategoryWorkTools, true, "acc-2")
	stats := DashboardStats(append(sample(), refund), d("32.5"))
	assert.Equal(t, 6, stats.TransactionCount)
	assert.Equal(t, "340", stats.TotalExpenses.String())
	assert.Equal(t, "300", stats.TotalDeductions.String())
	assert.Equal(t, "97.5", stats.EstimatedTaxSavings.String())
}

func TestMonthlyTrend(t *testing.T) {
	trend := MonthlyTrend(sample())
	require.Len(t, trend, 3)
	assert.Equal(t, "Jan 2025", trend[0].Month)
	assert.Equal(t, "3000", trend[0].Income.String())
	assert.Equal(t, "100", trend[0].Expenses.String())
	assert.Equal(t, 2, trend[0].Count)
	assert.Equal(t, "Mar 2025", trend[2].Month)
	assert.Equal(t, "200", trend[2].Deductions.String())
}

func TestMonthlyTrend_KeepsLastSixMonths(t *testing.T) {
	var txs []models.ClassifiedTransaction
	for m := 1; m <= 8; m++ {
		date := time.Date(2024, time.Month(m), 5, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		txs = append(txs, classified(date, "-1", models.CategoryOther, false, ""))
	}
	txs = append(txs, classified("not-a-date", "-1", models.CategoryOther, false, ""))

	trend := MonthlyTrend(txs)
	require.Len(t, trend, TrendMonths)
	assert.Equal(t, "Mar 2024", trend[0].Month)
	assert.Equal(t, "Aug 2024", trend[5].Month)
}

func TestCategoryBreakdown(t *testing.T) {
	breakdown := CategoryBreakdown(sample())
	require.Len(t, breakdown, 2)
	assert.Equal(t, models.CategoryWorkTools, breakdown[0].Category)
	assert.Equal(t, "250", breakdown[0].Amount.String())
	assert.Equal(t, 2, breakdown[0].Count)
	assert.Equal(t, "83.3", breakdown[0].Percentage.String())
	assert.Equal(t, "16.7", breakdown[1].Percentage.String())

	refund := classified("2025-03-12", "200", models.CategoryWorkTools, true, "acc-2")
	withRefund := CategoryBreakdown(append(sample(), refund))
	require.Len(t, withRefund, 2)
	assert.Equal(t, "250", withRefund[0].Amount.String())
	assert.Equal(t, 2, withRefund[0].Count)

	assert.Empty(t, CategoryBreakdown([]models.ClassifiedTransaction{refund}))
}

func TestFilterByFinancialYear(t *testing.T) {
	txs := []models.ClassifiedTransaction{
		classified("2024-06-30", "-1", models.CategoryOther, false, ""),
		classified("2024-07-01", "-2", models.CategoryOther, false, ""),
		classified("2025-06-30", "-3", models.CategoryOther, false, ""),
		classified("2025-07-01", "-4", models.CategoryOther, false, ""),
	}
	got, err := FilterByFinancialYear(txs, "FY2025")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-07-01", got[0].Date)
	assert.Equal(t, "2025-06-30", got[1].Date)

	_, err = FilterByFinancialYear(txs, "2025")
	assert.Error(t, err)
}

func TestFinancialYearLabels(t *testing.T) {
	assert.Equal(t, "FY2025", FinancialYearOf(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "FY2024", FinancialYearOf(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "FY2027", CurrentFinancialYear(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)))
}

func TestMarginalTaxRate(t *testing.T) {
	tests := []struct {
		income string
		want   string
	}{
		{"0", "0"},
		{"18200", "0"},
		{"18201", "19"},
		{"45000", "19"},
		{"85000", "32.5"},
		{"120000", "32.5"},
		{"180000", "37"},
		{"180001", "45"},
	}
	for _, tt := range tests {
		t.Run(tt.income, func(t *testing.T) {
			assert.Equal(t, tt.want, MarginalTaxRate(d(tt.income)).String())
		})
	}
	assert.Equal(t, "325", EstimatedTaxSavings(d("1000"), d("85000")).String())
}

type staticIncome struct {
	income decimal.Decimal
	known  bool
}

func (s staticIncome) AnnualIncome(context.Context, string) (decimal.Decimal, bool, error) {
	return s.income, s.known, nil
}

func TestService_Summary(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC) }
	svc := NewService(staticIncome{income: d("90000"), known: true}, logging.NewMockLogger(), now)

	txs := append(sample(), classified("2024-05-01", "-999", models.CategoryWorkTools, true, ""))
	summary, err := svc.Summary(context.Background(), "u1", txs, "")
	require.NoError(t, err)
	assert.Equal(t, "FY2025", summary.FinancialYear)
	assert.True(t, summary.IncomeKnown)
	assert.Equal(t, 5, summary.Stats.TransactionCount, "previous year excluded")
	assert.Equal(t, "32.5", summary.Stats.MarginalRate.String())
	assert.Len(t, summary.MonthlyTrend, 3)
	assert.Len(t, summary.Categories, 2)

	unknown := NewService(staticIncome{}, logging.NewMockLogger(), now)
	summary, err = unknown.Summary(context.Background(), "u1", txs, "FY2025")
	require.NoError(t, err)
	assert.False(t, summary.IncomeKnown)
	assert.True(t, summary.Stats.EstimatedTaxSavings.IsZero())

	_, err = unknown.Summary(context.Background(), "u1", txs, "next year")
	assert.Error(t, err)
}
