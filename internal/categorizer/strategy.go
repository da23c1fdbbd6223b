// Package categorizer classifies bank descriptions into merchants, ANZSIC
// industry codes and ATO deduction categories. Classification walks an
// ordered list of strategies (reference database, fixed patterns, smart
// extraction, fallback) and can escalate weak results to an AI model.
package categorizer

import (
	"context"

	"taxtally/deductions/internal/models"
)

// Classification is the outcome of classifying one description.
type Classification struct {
	MerchantName string                      `json:"merchantName"`
	AnzsicCode   string                      `json:"anzsicCode,omitempty"`
	ATOCategory  string                      `json:"atoCategory"`
	IsDeductible bool                        `json:"isDeductible"`
	Confidence   int                         `json:"confidence"`
	Source       models.ClassificationSource `json:"source"`
}

// ClassificationStrategy is one tier of the classifier.
type ClassificationStrategy interface {
	// Classify returns the tier's decision, or false when the tier has
	// nothing to say about description.
	Classify(ctx context.Context, description string) (Classification, bool, error)

	// Name identifies the strategy in logs.
	Name() string
}

// Categoriser resolves a description to a Classification. *Classifier is the
// production implementation.
type Categoriser interface {
	Classify(ctx context.Context, description string) Classification
}

func clampConfidence(c int) int {
	switch {
	case c < 0:
		return 0
	case c > 100:
		return 100
	}
	return c
}

// resolveCategory normalises a category/deductible pair. Anything outside the
// fixed category list becomes Other, and Other is never deductible.
func resolveCategory(category string, deductible bool) (string, bool) {
	category = models.NormalizeCategory(category)
	if category == models.CategoryOther {
		return category, false
	}
	return category, deductible
}
