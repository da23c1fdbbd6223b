// Package store holds the reference data used by the classifier: merchants
// and ANZSIC industry mappings, with in-memory and Firestore backends.
package store

import (
	"context"
	"errors"
	"sort"

	"taxtally/deductions/internal/models"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("not found")

// BulkResult reports the outcome of a bulk insert. Records whose key already
// exists are skipped, not failed.
type BulkResult struct {
	Inserted int `json:"inserted" yaml:"inserted"`
	Skipped  int `json:"skipped" yaml:"skipped"`
}

// MerchantUsage is one row of the top-merchants statistic.
type MerchantUsage struct {
	MerchantName string `json:"merchantName" yaml:"merchant_name"`
	UsageCount   int    `json:"usageCount" yaml:"usage_count"`
}

// MerchantStats summarises the merchant table.
type MerchantStats struct {
	Total             int             `json:"total" yaml:"total"`
	Active            int             `json:"active" yaml:"active"`
	BySource          map[string]int  `json:"bySource" yaml:"by_source"`
	AverageConfidence float64         `json:"averageConfidence" yaml:"average_confidence"`
	TopMerchants      []MerchantUsage `json:"topMerchants" yaml:"top_merchants"`
}

// MerchantRepository persists reference merchants keyed by models.MerchantKey.
type MerchantRepository interface {
	FindMerchant(ctx context.Context, key string) (models.Merchant, bool, error)
	ListActiveMerchants(ctx context.Context) ([]models.Merchant, error)
	BulkInsertMerchants(ctx context.Context, merchants []models.Merchant) (BulkResult, error)
	IncrementUsage(ctx context.Context, key string, delta int) error
	DeactivateMerchant(ctx context.Context, key string) error
	MerchantStats(ctx context.Context, topN int) (MerchantStats, error)
}

// AnzsicRepository persists ANZSIC code to ATO category mappings.
type AnzsicRepository interface {
	FindAnzsicMapping(ctx context.Context, code string) (models.AnzsicMapping, bool, error)
	ListActiveAnzsicMappings(ctx context.Context) ([]models.AnzsicMapping, error)
	BulkInsertAnzsicMappings(ctx context.Context, mappings []models.AnzsicMapping) (BulkResult, error)
}

// ReferenceStore is the full reference data port.
type ReferenceStore interface {
	MerchantRepository
	AnzsicRepository
	Close() error
}

// computeStats is shared by the backends so both report identical numbers.
func computeStats(merchants []models.Merchant, topN int) MerchantStats {
	stats := MerchantStats{BySource: make(map[string]int)}
	var confidenceSum int
	var active []models.Merchant
	for _, m := range merchants {
		stats.Total++
		stats.BySource[string(m.Source)]++
		if !m.IsActive {
			continue
		}
		stats.Active++
		confidenceSum += m.Confidence
		active = append(active, m)
	}
	if stats.Active > 0 {
		stats.AverageConfidence = float64(confidenceSum) / float64(stats.Active)
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].UsageCount != active[j].UsageCount {
			return active[i].UsageCount > active[j].UsageCount
		}
		return active[i].MerchantName < active[j].MerchantName
	})
	if topN > 0 && len(active) > topN {
		active = active[:topN]
	}
	stats.TopMerchants = make([]MerchantUsage, 0, len(active))
	for _, m := range active {
		stats.TopMerchants = append(stats.TopMerchants, MerchantUsage{MerchantName: m.MerchantName, UsageCount: m.UsageCount})
	}
	return stats
}
