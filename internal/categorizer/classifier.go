package categorizer

import (
	"context"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
)

// Classifier runs the strategies in order and returns the first answer.
type Classifier struct {
	strategies []ClassificationStrategy
	learner    *Learner
	logger     logging.Logger
}

// NewClassifier creates a classifier over an explicit strategy list. learner
// may be nil to disable learning.
func NewClassifier(strategies []ClassificationStrategy, learner *Learner, logger logging.Logger) *Classifier {
	return &Classifier{strategies: strategies, learner: learner, logger: logger}
}

// NewDefaultClassifier wires the standard tiers: database, pattern, smart
// extraction and fallback.
func NewDefaultClassifier(index *MerchantIndex, resolver *AnzsicResolver, learner *Learner, logger logging.Logger) *Classifier {
	var usage UsageRecorder
	if learner != nil {
		usage = learner
	}
	return NewClassifier([]ClassificationStrategy{
		NewDatabaseStrategy(index, resolver, usage),
		NewPatternStrategy(DefaultPatternRules, resolver),
		NewSmartExtractionStrategy(DefaultKeywordGroups),
		NewFallbackStrategy(),
	}, learner, logger)
}

// Classify resolves description and queues newly discovered merchants for
// learning.
func (c *Classifier) Classify(ctx context.Context, description string) Classification {
	result := c.classify(ctx, description)
	if c.learner != nil && isHeuristic(result.Source) {
		c.learner.Learn(result, models.MerchantSourceLearned)
	}
	return result
}

// classify is Classify without learning; the batch path decides what to
// learn after AI escalation.
func (c *Classifier) classify(ctx context.Context, description string) Classification {
	for _, s := range c.strategies {
		result, ok, err := s.Classify(ctx, description)
		if err != nil {
			c.logger.WithError(err).Warn("Classification strategy failed",
				logging.F("strategy", s.Name()))
			continue
		}
		if ok {
			return result
		}
	}
	return Classification{
		MerchantName: UnknownMerchant,
		ATOCategory:  models.CategoryOther,
		Source:       models.SourceFallback,
	}
}

// Learner exposes the learner so callers can flush it.
func (c *Classifier) Learner() *Learner { return c.learner }

func isHeuristic(source models.ClassificationSource) bool {
	return source == models.SourceSmartExtraction || source == models.SourceFallback
}
