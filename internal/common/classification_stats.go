package common

import (
	"github.com/shopspring/decimal"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
)

// ClassificationStats summarises a classified batch for CLI output and logs.
type ClassificationStats struct {
	Total           int
	Deductible      int
	AutoClassified  int
	BySource        map[models.ClassificationSource]int
	TotalDeductions decimal.Decimal
}

// NewClassificationStats tallies txs.
func NewClassificationStats(txs []models.ClassifiedTransaction) ClassificationStats {
	stats := ClassificationStats{
		BySource:        make(map[models.ClassificationSource]int),
		TotalDeductions: decimal.Zero,
	}
	for _, tx := range txs {
		stats.Total++
		stats.BySource[tx.ClassificationSource]++
		if tx.AutoClassified {
			stats.AutoClassified++
		}
		if tx.IsDeductible {
			stats.Deductible++
			stats.TotalDeductions = stats.TotalDeductions.Add(tx.EffectiveDeduction())
		}
	}
	return stats
}

// LogSummary writes the tallies at info level.
func (s ClassificationStats) LogSummary(logger logging.Logger, operation string) {
	fields := []logging.Field{
		logging.F(logging.FieldOperation, operation),
		logging.F(logging.FieldCount, s.Total),
		logging.F("deductible", s.Deductible),
		logging.F("auto_classified", s.AutoClassified),
		logging.F("total_deductions", s.TotalDeductions.StringFixed(2)),
	}
	for source, n := range s.BySource {
		fields = append(fields, logging.F("source_"+string(source), n))
	}
	logger.Info("Classification summary", fields...)
}
