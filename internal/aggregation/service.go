package aggregation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
)

// IncomeProvider looks up a user's annual income.
type IncomeProvider interface {
	AnnualIncome(ctx context.Context, userID string) (decimal.Decimal, bool, error)
}

// Summary is the full dashboard envelope for one financial year.
type Summary struct {
	FinancialYear string          `json:"financialYear"`
	Income        decimal.Decimal `json:"income"`
	IncomeKnown   bool            `json:"incomeKnown"`
	Stats         Stats           `json:"stats"`
	MonthlyTrend  []MonthlyPoint  `json:"monthlyTrend"`
	Categories    []CategoryShare `json:"categories"`
}

// Service builds summaries.
type Service struct {
	income IncomeProvider
	logger logging.Logger
	now    func() time.Time
}

// NewService creates a summary service. now may be nil.
func NewService(income IncomeProvider, logger logging.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{income: income, logger: logger, now: now}
}

// Summary filters txs to fy (the current year when empty) and computes the
// dashboard. Without a stored income the marginal rate is zero.
func (s *Service) Summary(ctx context.Context, userID string, txs []models.ClassifiedTransaction, fy string) (*Summary, error) {
	if fy == "" {
		fy = CurrentFinancialYear(s.now())
	}
	inYear, err := FilterByFinancialYear(txs, fy)
	if err != nil {
		return nil, err
	}

	income, known, err := s.income.AnnualIncome(ctx, userID)
	if err != nil {
		return nil, err
	}
	rate := decimal.Zero
	if known {
		rate = MarginalTaxRate(income)
	}

	summary := &Summary{
		FinancialYear: fy,
		Income:        income,
		IncomeKnown:   known,
		Stats:         DashboardStats(inYear, rate),
		MonthlyTrend:  MonthlyTrend(inYear),
		Categories:    CategoryBreakdown(inYear),
	}
	s.logger.Debug("Built summary",
		logging.F(logging.FieldUserID, userID),
		logging.F("financial_year", fy),
		logging.F(logging.FieldCount, len(inYear)))
	return summary, nil
}
