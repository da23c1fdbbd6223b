package categorizer

import (
	"context"
	"strings"
	"unicode"

	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/textutils"
)

// UnknownMerchant is the merchant name used when nothing can be salvaged.
const UnknownMerchant = "Unknown Merchant"

const (
	salvagedConfidence = 20
	unknownConfidence  = 10
)

// FallbackStrategy always answers: the first usable word of the description,
// or UnknownMerchant, categorised as Other.
type FallbackStrategy struct{}

// NewFallbackStrategy creates the last tier.
func NewFallbackStrategy() *FallbackStrategy { return &FallbackStrategy{} }

func (s *FallbackStrategy) Name() string { return "Fallback" }

func (s *FallbackStrategy) Classify(_ context.Context, description string) (Classification, bool, error) {
	result := Classification{
		MerchantName: UnknownMerchant,
		ATOCategory:  models.CategoryOther,
		Confidence:   unknownConfidence,
		Source:       models.SourceFallback,
	}
	for _, tok := range textutils.Tokens(description, 3) {
		if textutils.IsNoiseWord(tok) || !hasLetter(tok) {
			continue
		}
		result.MerchantName = DisplayName(tok)
		result.Confidence = salvagedConfidence
		break
	}
	return result, true, nil
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
