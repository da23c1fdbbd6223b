package reconcile

import (
	"context"
	"fmt"

	"taxtally/deductions/internal/categorizer"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parsererror"
	"taxtally/deductions/internal/textutils"
)

// ManualConfidence is reported for user-decided transactions.
const ManualConfidence = 100

// BatchClassifier is the classification backend the resolver drives.
type BatchClassifier interface {
	ClassifyBatch(ctx context.Context, inputs []categorizer.BatchInput, enabled categorizer.CategoryFilter) []categorizer.Classification
}

// Flusher persists what the classifier learned during a batch.
type Flusher interface {
	Flush(ctx context.Context) (categorizer.FlushResult, error)
}

// Resolver applies the precedence user override > cached decision > fresh
// classification. Of the two user overrides, a category override (which
// implies deductible) wins; a manual flag alone keeps the prior category.
type Resolver struct {
	state   *StateStore
	batch   BatchClassifier
	flusher Flusher
	logger  logging.Logger
}

// NewResolver creates a resolver. flusher may be nil.
func NewResolver(state *StateStore, batch BatchClassifier, flusher Flusher, logger logging.Logger) *Resolver {
	return &Resolver{state: state, batch: batch, flusher: flusher, logger: logger}
}

// State exposes the underlying state store.
func (r *Resolver) State() *StateStore { return r.state }

// Resolve classifies txs for userID, preserving input order. The cache is
// rewritten to hold exactly the cached and fresh decisions of this batch,
// including the cached decisions underneath overridden transactions.
func (r *Resolver) Resolve(ctx context.Context, userID string, txs []models.RawTransaction) ([]models.ClassifiedTransaction, error) {
	manual, err := r.state.LoadManualOverrides(ctx, userID)
	if err != nil {
		return nil, err
	}
	categories, err := r.state.LoadCategoryOverrides(ctx, userID)
	if err != nil {
		return nil, err
	}
	cache, err := r.state.LoadCache(ctx, userID)
	if err != nil {
		return nil, err
	}
	enabled, err := r.EnabledCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.ClassifiedTransaction, len(txs))
	next := ClassificationCache{Entries: make(map[string]CacheEntry, len(txs))}
	var pending []int
	var hits, overridden int

	for i, tx := range txs {
		category, hasCategory := categories[tx.ID]
		flag, hasManual := manual[tx.ID]
		prior, cached := cache.Entries[tx.ID]

		switch {
		case hasCategory || hasManual:
			// The cached decision is carried forward so the override's
			// category fallback and merchant stay stable across resolves.
			if cached {
				next.Entries[tx.ID] = prior
			}
			if hasCategory {
				out[i] = fromOverride(tx, models.NormalizeCategory(category), true, prior, cached)
			} else {
				fallback := models.CategoryOther
				if cached && prior.ATOCategory != "" {
					fallback = prior.ATOCategory
				}
				out[i] = fromOverride(tx, fallback, flag, prior, cached)
			}
			overridden++
		case cached:
			out[i] = fromCache(tx, prior)
			next.Entries[tx.ID] = prior
			hits++
		default:
			pending = append(pending, i)
		}
	}

	if len(pending) > 0 {
		inputs := make([]categorizer.BatchInput, len(pending))
		for j, idx := range pending {
			inputs[j] = categorizer.BatchInput{Description: txs[idx].Description, Amount: txs[idx].Amount}
		}
		results := r.batch.ClassifyBatch(ctx, inputs, enabled)
		for j, idx := range pending {
			out[idx] = FromClassification(txs[idx], results[j])
			next.Entries[txs[idx].ID] = toCacheEntry(out[idx])
		}
	}

	if r.state.valid(cache) {
		next.CreatedAt = cache.CreatedAt
	} else {
		next.CreatedAt = r.state.now()
	}
	if err := r.state.SaveCache(ctx, userID, next); err != nil {
		return nil, err
	}

	if r.flusher != nil {
		if _, err := r.flusher.Flush(ctx); err != nil {
			r.logger.WithError(err).Warn("Failed to persist learned merchants",
				logging.F(logging.FieldUserID, userID))
		}
	}

	r.logger.Info("Resolved transactions",
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldCount, len(txs)),
		logging.F("overridden", overridden),
		logging.F("cache_hits", hits),
		logging.F("classified", len(pending)))
	return out, nil
}

// EnabledCategories returns the user's toggles as a filter. A user who never
// set toggles has every category enabled.
func (r *Resolver) EnabledCategories(ctx context.Context, userID string) (categorizer.CategoryFilter, error) {
	toggles, ok, err := r.state.LoadToggles(ctx, userID)
	if err != nil {
		return categorizer.CategoryFilter{}, err
	}
	if !ok {
		return categorizer.AllCategories(), nil
	}
	names := []string{}
	for _, c := range models.ATOCategories {
		if toggles[c] {
			names = append(names, c)
		}
	}
	return categorizer.EnabledCategories(names), nil
}

// SetManualOverride records a user-set deductible flag for txID.
func (r *Resolver) SetManualOverride(ctx context.Context, userID, txID string, deductible bool) error {
	if txID == "" {
		return &parsererror.ValidationError{Field: "transactionId", Reason: "is required"}
	}
	overrides, err := r.state.LoadManualOverrides(ctx, userID)
	if err != nil {
		return err
	}
	overrides[txID] = deductible
	return r.state.SaveManualOverrides(ctx, userID, overrides)
}

// SetCategoryOverride records a user-chosen category for txID, which also
// marks it deductible.
func (r *Resolver) SetCategoryOverride(ctx context.Context, userID, txID, category string) error {
	if txID == "" {
		return &parsererror.ValidationError{Field: "transactionId", Reason: "is required"}
	}
	canonical := models.NormalizeCategory(category)
	if canonical == models.CategoryOther {
		return &parsererror.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown ATO category %q", category)}
	}
	overrides, err := r.state.LoadCategoryOverrides(ctx, userID)
	if err != nil {
		return err
	}
	overrides[txID] = canonical
	return r.state.SaveCategoryOverrides(ctx, userID, overrides)
}

// ClearOverride removes both kinds of override for txID.
func (r *Resolver) ClearOverride(ctx context.Context, userID, txID string) error {
	manual, err := r.state.LoadManualOverrides(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := manual[txID]; ok {
		delete(manual, txID)
		if err := r.state.SaveManualOverrides(ctx, userID, manual); err != nil {
			return err
		}
	}
	categories, err := r.state.LoadCategoryOverrides(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := categories[txID]; ok {
		delete(categories, txID)
		return r.state.SaveCategoryOverrides(ctx, userID, categories)
	}
	return nil
}

// SetToggle switches one category. Users without toggles start from all
// enabled. The cache is purged so the next resolve honours the new setting.
func (r *Resolver) SetToggle(ctx context.Context, userID, category string, enabled bool) (ToggleState, error) {
	canonical := models.NormalizeCategory(category)
	if canonical == models.CategoryOther {
		return nil, &parsererror.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown ATO category %q", category)}
	}
	toggles, ok, err := r.state.LoadToggles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		for _, c := range models.ATOCategories {
			toggles[c] = true
		}
	}
	toggles[canonical] = enabled
	if err := r.state.SaveToggles(ctx, userID, toggles); err != nil {
		return nil, err
	}
	if err := r.state.PurgeCache(ctx, userID); err != nil {
		return nil, err
	}
	return toggles, nil
}

// fromOverride builds a user-decided transaction. The user's flag stands even
// when the category is Other.
func fromOverride(tx models.RawTransaction, category string, deductible bool, prior CacheEntry, cached bool) models.ClassifiedTransaction {
	merchant := ""
	anzsic := ""
	if cached {
		merchant, anzsic = prior.MerchantName, prior.AnzsicCode
	}
	if merchant == "" {
		merchant = categorizer.DisplayName(textutils.ExtractMerchant(tx.Description, textutils.SearchTable))
	}
	if merchant == "" {
		merchant = categorizer.UnknownMerchant
	}
	out := models.ClassifiedTransaction{
		RawTransaction:       tx,
		MerchantName:         merchant,
		AnzsicCode:           anzsic,
		ATOCategory:          category,
		IsBusinessExpense:    deductible,
		IsDeductible:         deductible,
		DeductionAmount:      models.DeductionFor(tx.Amount, deductible),
		ClassificationSource: models.SourceManual,
		Confidence:           ManualConfidence,
	}
	if deductible && category != models.CategoryOther {
		out.DeductionType = category
	}
	return out
}

func fromCache(tx models.RawTransaction, e CacheEntry) models.ClassifiedTransaction {
	category := e.ATOCategory
	if category == "" {
		category = models.CategoryOther
	}
	return models.ClassifiedTransaction{
		RawTransaction:       tx,
		MerchantName:         e.MerchantName,
		AnzsicCode:           e.AnzsicCode,
		ATOCategory:          category,
		IsBusinessExpense:    e.IsBusinessExpense,
		IsDeductible:         e.IsDeductible,
		DeductionAmount:      models.DeductionFor(tx.Amount, e.IsDeductible),
		DeductionType:        e.DeductionType,
		ClassificationSource: e.ClassificationSource,
		Confidence:           e.Confidence,
		AutoClassified:       true,
	}
}

// FromClassification applies a fresh classification to tx.
func FromClassification(tx models.RawTransaction, c categorizer.Classification) models.ClassifiedTransaction {
	out := models.ClassifiedTransaction{
		RawTransaction:       tx,
		MerchantName:         c.MerchantName,
		AnzsicCode:           c.AnzsicCode,
		ATOCategory:          c.ATOCategory,
		IsBusinessExpense:    c.IsDeductible,
		IsDeductible:         c.IsDeductible,
		DeductionAmount:      models.DeductionFor(tx.Amount, c.IsDeductible),
		ClassificationSource: c.Source,
		Confidence:           c.Confidence,
		AutoClassified:       true,
	}
	if c.IsDeductible {
		out.DeductionType = c.ATOCategory
	}
	return out
}

func toCacheEntry(t models.ClassifiedTransaction) CacheEntry {
	return CacheEntry{
		IsBusinessExpense:    t.IsBusinessExpense,
		IsDeductible:         t.IsDeductible,
		DeductionAmount:      t.DeductionAmount,
		DeductionType:        t.DeductionType,
		ATOCategory:          t.ATOCategory,
		ClassificationSource: t.ClassificationSource,
		Confidence:           t.Confidence,
		MerchantName:         t.MerchantName,
		AnzsicCode:           t.AnzsicCode,
	}
}
