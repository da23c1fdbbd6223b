package categorizer

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/textutils"
)

// BatchInput is one description to classify.
type BatchInput struct {
	Description string
	Amount      decimal.Decimal
}

// BatchOptions tunes AI escalation.
type BatchOptions struct {
	// EscalationThreshold: heuristic results below this confidence go to AI.
	EscalationThreshold int
	MaxConcurrency      int
	Timeout             time.Duration
}

// BatchClassifier classifies a batch heuristically and escalates weak
// results to the AI tier, once per distinct merchant.
type BatchClassifier struct {
	classifier *Classifier
	ai         AIClient
	opts       BatchOptions
	logger     logging.Logger
}

// NewBatchClassifier creates a batch classifier. ai may be nil, which turns
// escalation off.
func NewBatchClassifier(classifier *Classifier, ai AIClient, opts BatchOptions, logger logging.Logger) *BatchClassifier {
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	return &BatchClassifier{classifier: classifier, ai: ai, opts: opts, logger: logger}
}

// AIEnabled reports whether escalation is possible.
func (b *BatchClassifier) AIEnabled() bool { return b.ai != nil }

type escalation struct {
	key     string
	indexes []int
	result  AIResult
	err     error
}

// ClassifyBatch returns one classification per input, in input order. AI
// failures never fail the batch: the affected transactions keep their
// heuristic merchant but are marked fallback and not deductible.
func (b *BatchClassifier) ClassifyBatch(ctx context.Context, inputs []BatchInput, enabled CategoryFilter) []Classification {
	results := make([]Classification, len(inputs))
	for i, in := range inputs {
		results[i] = b.classifier.classify(ctx, in.Description)
	}

	escalations := b.collectEscalations(inputs, results)
	if len(escalations) > 0 {
		b.escalate(ctx, inputs, escalations, enabled)
	}

	escalated := make(map[int]bool)
	for _, e := range escalations {
		for _, idx := range e.indexes {
			escalated[idx] = true
			if e.err != nil {
				results[idx].Source = models.SourceFallback
				results[idx].IsDeductible = false
				continue
			}
			results[idx] = fromAIResult(e.result, results[idx])
		}
		if e.err == nil {
			b.learn(results[e.indexes[0]], models.MerchantSourceAI)
		}
	}

	for i := range results {
		if !escalated[i] && isHeuristic(results[i].Source) {
			b.learn(results[i], models.MerchantSourceLearned)
		}
		results[i] = enabled.Apply(results[i])
	}
	return results
}

func (b *BatchClassifier) learn(c Classification, source models.MerchantSource) {
	if l := b.classifier.Learner(); l != nil {
		l.Learn(c, source)
	}
}

// collectEscalations groups the weak heuristic results by merchant key,
// keeping first-seen order.
func (b *BatchClassifier) collectEscalations(inputs []BatchInput, results []Classification) []*escalation {
	if b.ai == nil {
		return nil
	}
	var out []*escalation
	byKey := make(map[string]*escalation)
	for i, r := range results {
		if !isHeuristic(r.Source) || r.Confidence >= b.opts.EscalationThreshold {
			continue
		}
		key := models.MerchantKey(r.MerchantName)
		if textutils.IsGenericMerchant(key) {
			key = models.MerchantKey(inputs[i].Description)
		}
		if key == "" {
			continue
		}
		e, ok := byKey[key]
		if !ok {
			e = &escalation{key: key}
			byKey[key] = e
			out = append(out, e)
		}
		e.indexes = append(e.indexes, i)
	}
	return out
}

func (b *BatchClassifier) escalate(ctx context.Context, inputs []BatchInput, escalations []*escalation, enabled CategoryFilter) {
	categories := enabled.Names()
	var g errgroup.Group
	g.SetLimit(b.opts.MaxConcurrency)

	for _, e := range escalations {
		first := inputs[e.indexes[0]]
		g.Go(func() error {
			reqCtx := ctx
			if b.opts.Timeout > 0 {
				var cancel context.CancelFunc
				reqCtx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
				defer cancel()
			}
			req := AIRequest{
				MerchantKey: e.key,
				Description: first.Description,
				Categories:  categories,
			}
			if !first.Amount.IsZero() {
				req.Amount = first.Amount.Abs().StringFixed(2)
			}
			e.result, e.err = b.ai.Classify(reqCtx, req)
			if e.err != nil {
				b.logger.WithError(e.err).Warn("AI classification failed, using fallback",
					logging.F(logging.FieldMerchant, e.key),
					logging.F(logging.FieldCount, len(e.indexes)))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// fromAIResult merges an AI answer over the heuristic result it replaces.
func fromAIResult(ai AIResult, heuristic Classification) Classification {
	category, deductible := resolveCategory(ai.ATOCategory, ai.IsDeductible)
	name := DisplayName(ai.MerchantName)
	if name == "" {
		name = heuristic.MerchantName
	}
	return Classification{
		MerchantName: name,
		AnzsicCode:   models.NormalizeAnzsicCode(ai.AnzsicCode),
		ATOCategory:  category,
		IsDeductible: deductible,
		Confidence:   clampConfidence(ai.Confidence),
		Source:       models.SourceAI,
	}
}
