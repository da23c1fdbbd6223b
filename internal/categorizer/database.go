package categorizer

import (
	"context"

	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/textutils"
)

const dbMaxGram = 3

// UsageRecorder is told about every database-tier hit.
type UsageRecorder interface {
	RecordUsage(merchantKey string)
}

// DatabaseStrategy matches description words against the reference
// merchants. Word runs are tried longest first, left to right, so
// "coles express" beats "coles".
type DatabaseStrategy struct {
	index    *MerchantIndex
	resolver *AnzsicResolver
	usage    UsageRecorder
}

// NewDatabaseStrategy creates the database tier. usage may be nil.
func NewDatabaseStrategy(index *MerchantIndex, resolver *AnzsicResolver, usage UsageRecorder) *DatabaseStrategy {
	return &DatabaseStrategy{index: index, resolver: resolver, usage: usage}
}

func (s *DatabaseStrategy) Name() string { return "Database" }

func (s *DatabaseStrategy) Classify(_ context.Context, description string) (Classification, bool, error) {
	tokens := textutils.Tokens(description, 3)
	if len(tokens) == 0 || s.index.Len() == 0 {
		return Classification{}, false, nil
	}

	for _, gram := range textutils.NGrams(tokens, dbMaxGram) {
		m, ok := s.index.Lookup(gram)
		if !ok {
			continue
		}
		category, deductible, _ := s.resolver.Resolve(m.AnzsicCode)
		name := m.DisplayName
		if name == "" {
			name = DisplayName(m.MerchantName)
		}
		if s.usage != nil {
			s.usage.RecordUsage(m.MerchantName)
		}
		return Classification{
			MerchantName: name,
			AnzsicCode:   models.NormalizeAnzsicCode(m.AnzsicCode),
			ATOCategory:  category,
			IsDeductible: deductible,
			Confidence:   clampConfidence(m.Confidence),
			Source:       models.SourceDatabase,
		}, true, nil
	}
	return Classification{}, false, nil
}
