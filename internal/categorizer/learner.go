package categorizer

import (
	"context"
	"errors"
	"sync"
	"time"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/store"
	"taxtally/deductions/internal/textutils"
)

// MerchantWriter is the slice of the reference store the learner writes to.
type MerchantWriter interface {
	BulkInsertMerchants(ctx context.Context, merchants []models.Merchant) (store.BulkResult, error)
	IncrementUsage(ctx context.Context, key string, delta int) error
}

// FlushResult reports what a flush persisted.
type FlushResult struct {
	store.BulkResult
	UsageUpdates int `json:"usageUpdates"`
}

// Learner collects merchants discovered by the heuristic and AI tiers and
// database-tier usage counts, and persists both on Flush. New merchants are
// indexed immediately so later lookups hit the database tier.
type Learner struct {
	mu      sync.Mutex
	writer  MerchantWriter
	index   *MerchantIndex
	logger  logging.Logger
	now     func() time.Time
	pending []models.Merchant
	queued  map[string]bool
	usage   map[string]int
}

// NewLearner creates a learner. writer may be nil, in which case Flush only
// drains the queues.
func NewLearner(writer MerchantWriter, index *MerchantIndex, logger logging.Logger) *Learner {
	return &Learner{
		writer: writer,
		index:  index,
		logger: logger,
		now:    time.Now,
		queued: make(map[string]bool),
		usage:  make(map[string]int),
	}
}

// Learn queues c's merchant. It returns false when the name is generic or the
// merchant is already known.
func (l *Learner) Learn(c Classification, source models.MerchantSource) bool {
	key := models.MerchantKey(c.MerchantName)
	if textutils.IsGenericMerchant(key) || len(key) < 3 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.queued[key] || l.index.Contains(key) {
		return false
	}

	now := l.now()
	m := models.Merchant{
		MerchantName: key,
		DisplayName:  DisplayName(key),
		AnzsicCode:   models.NormalizeAnzsicCode(c.AnzsicCode),
		Source:       source,
		Confidence:   clampConfidence(c.Confidence),
		UsageCount:   1,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	l.queued[key] = true
	l.pending = append(l.pending, m)
	l.index.Add(m)

	l.logger.Debug("Learned merchant",
		logging.F(logging.FieldMerchant, key),
		logging.F(logging.FieldSource, string(source)),
		logging.F(logging.FieldConfidence, m.Confidence))
	return true
}

// RecordUsage counts a database-tier hit for merchantKey.
func (l *Learner) RecordUsage(merchantKey string) {
	key := models.MerchantKey(merchantKey)
	if key == "" {
		return
	}
	l.mu.Lock()
	l.usage[key]++
	l.mu.Unlock()
}

// Pending is the number of merchants waiting to be persisted.
func (l *Learner) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Flush persists queued merchants with insert-ignoring-duplicates and applies
// usage increments. Queues are drained even when persistence fails so a bad
// record cannot wedge the learner.
func (l *Learner) Flush(ctx context.Context) (FlushResult, error) {
	l.mu.Lock()
	pending := l.pending
	usage := l.usage
	l.pending = nil
	l.queued = make(map[string]bool)
	l.usage = make(map[string]int)
	l.mu.Unlock()

	var result FlushResult
	if l.writer == nil {
		return result, nil
	}

	var errs []error
	if len(pending) > 0 {
		bulk, err := l.writer.BulkInsertMerchants(ctx, pending)
		result.BulkResult = bulk
		if err != nil {
			errs = append(errs, err)
		}
	}
	for key, delta := range usage {
		if err := l.writer.IncrementUsage(ctx, key, delta); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		result.UsageUpdates++
	}

	if len(pending) > 0 || result.UsageUpdates > 0 {
		l.logger.Info("Flushed learned merchants",
			logging.F("inserted", result.Inserted),
			logging.F("skipped", result.Skipped),
			logging.F("usage_updates", result.UsageUpdates))
	}
	return result, errors.Join(errs...)
}
