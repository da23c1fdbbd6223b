// Package reconcile merges per-user decisions (manual overrides, category
// overrides, the time-boxed classification cache and deduction toggles) with
// fresh classifier output.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"taxtally/deductions/internal/kvstore"
	"taxtally/deductions/internal/models"
)

// State keys in the key-value store.
const (
	KeyManualOverrides   = "manualOverrides"
	KeyCategoryOverrides = "categoryOverrides"
	KeyToggles           = "deductionToggles"
	KeyCache             = "classificationCache"
	KeyProfile           = "profile"
)

// DefaultCacheTTL is how long a cache snapshot stays valid.
const DefaultCacheTTL = 24 * time.Hour

// ManualOverrides maps transaction id to a user-set deductible flag.
type ManualOverrides map[string]bool

// CategoryOverrides maps transaction id to a user-chosen ATO category.
type CategoryOverrides map[string]string

// ToggleState maps each ATO category to whether auto-flagging is enabled.
type ToggleState map[string]bool

// CacheEntry is one cached classification decision.
type CacheEntry struct {
	IsBusinessExpense    bool                        `json:"isBusinessExpense"`
	IsDeductible         bool                        `json:"isDeductible"`
	DeductionAmount      decimal.Decimal             `json:"deductionAmount"`
	DeductionType        string                      `json:"deductionType"`
	ATOCategory          string                      `json:"atoCategory"`
	ClassificationSource models.ClassificationSource `json:"classificationSource"`
	Confidence           int                         `json:"confidence"`
	MerchantName         string                      `json:"merchantName"`
	AnzsicCode           string                      `json:"anzsicCode,omitempty"`
}

// ClassificationCache is a whole-snapshot cache: it expires as a unit.
type ClassificationCache struct {
	CreatedAt time.Time             `json:"createdAt"`
	Entries   map[string]CacheEntry `json:"entries"`
}

// Profile holds the user facts the aggregation needs.
type Profile struct {
	AnnualIncome decimal.Decimal `json:"annualIncome"`
}

// StateStore reads and writes typed user state through a kvstore.Store.
type StateStore struct {
	kv  kvstore.Store
	ttl time.Duration
	now func() time.Time
}

// NewStateStore creates a state store. A zero ttl means DefaultCacheTTL; a
// nil clock means time.Now.
func NewStateStore(kv kvstore.Store, ttl time.Duration, now func() time.Time) *StateStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &StateStore{kv: kv, ttl: ttl, now: now}
}

func (s *StateStore) load(ctx context.Context, userID, key string, into interface{}) (bool, error) {
	data, ok, err := s.kv.Get(ctx, userID, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, into); err != nil {
		return false, fmt.Errorf("corrupt %s state: %w", key, err)
	}
	return true, nil
}

func (s *StateStore) save(ctx context.Context, userID, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s state: %w", key, err)
	}
	return s.kv.Set(ctx, userID, key, data)
}

// LoadManualOverrides never returns a nil map.
func (s *StateStore) LoadManualOverrides(ctx context.Context, userID string) (ManualOverrides, error) {
	out := ManualOverrides{}
	if _, err := s.load(ctx, userID, KeyManualOverrides, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = ManualOverrides{}
	}
	return out, nil
}

func (s *StateStore) SaveManualOverrides(ctx context.Context, userID string, overrides ManualOverrides) error {
	return s.save(ctx, userID, KeyManualOverrides, overrides)
}

// LoadCategoryOverrides never returns a nil map.
func (s *StateStore) LoadCategoryOverrides(ctx context.Context, userID string) (CategoryOverrides, error) {
	out := CategoryOverrides{}
	if _, err := s.load(ctx, userID, KeyCategoryOverrides, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = CategoryOverrides{}
	}
	return out, nil
}

func (s *StateStore) SaveCategoryOverrides(ctx context.Context, userID string, overrides CategoryOverrides) error {
	return s.save(ctx, userID, KeyCategoryOverrides, overrides)
}

// LoadToggles returns the stored toggles and whether any were stored.
func (s *StateStore) LoadToggles(ctx context.Context, userID string) (ToggleState, bool, error) {
	out := ToggleState{}
	ok, err := s.load(ctx, userID, KeyToggles, &out)
	if err != nil {
		return nil, false, err
	}
	if out == nil {
		out = ToggleState{}
	}
	return out, ok, nil
}

func (s *StateStore) SaveToggles(ctx context.Context, userID string, toggles ToggleState) error {
	return s.save(ctx, userID, KeyToggles, toggles)
}

// InitToggles writes an entry for every ATO category, true exactly for the
// categories in selected. Unknown names in selected are ignored.
func (s *StateStore) InitToggles(ctx context.Context, userID string, selected []string) (ToggleState, error) {
	chosen := make(map[string]bool, len(selected))
	for _, name := range selected {
		chosen[models.NormalizeCategory(name)] = true
	}
	toggles := make(ToggleState, len(models.ATOCategories))
	for _, c := range models.ATOCategories {
		toggles[c] = chosen[c]
	}
	if err := s.SaveToggles(ctx, userID, toggles); err != nil {
		return nil, err
	}
	return toggles, nil
}

// LoadCache returns the user's cache snapshot. An expired snapshot is
// removed from the store and an empty cache is returned.
func (s *StateStore) LoadCache(ctx context.Context, userID string) (ClassificationCache, error) {
	var cache ClassificationCache
	ok, err := s.load(ctx, userID, KeyCache, &cache)
	if err != nil {
		return ClassificationCache{}, err
	}
	if !ok {
		return ClassificationCache{Entries: map[string]CacheEntry{}}, nil
	}
	if !s.valid(cache) {
		if err := s.kv.Remove(ctx, userID, KeyCache); err != nil {
			return ClassificationCache{}, err
		}
		return ClassificationCache{Entries: map[string]CacheEntry{}}, nil
	}
	if cache.Entries == nil {
		cache.Entries = map[string]CacheEntry{}
	}
	return cache, nil
}

func (s *StateStore) valid(cache ClassificationCache) bool {
	return !cache.CreatedAt.IsZero() && s.now().Sub(cache.CreatedAt) <= s.ttl
}

// SaveCache replaces the user's cache snapshot.
func (s *StateStore) SaveCache(ctx context.Context, userID string, cache ClassificationCache) error {
	return s.save(ctx, userID, KeyCache, cache)
}

// PurgeCache drops the user's cache snapshot.
func (s *StateStore) PurgeCache(ctx context.Context, userID string) error {
	return s.kv.Remove(ctx, userID, KeyCache)
}

// LoadProfile returns the stored profile and whether one exists.
func (s *StateStore) LoadProfile(ctx context.Context, userID string) (Profile, bool, error) {
	var p Profile
	ok, err := s.load(ctx, userID, KeyProfile, &p)
	return p, ok, err
}

func (s *StateStore) SaveProfile(ctx context.Context, userID string, p Profile) error {
	return s.save(ctx, userID, KeyProfile, p)
}

// AnnualIncome implements the aggregation income lookup.
func (s *StateStore) AnnualIncome(ctx context.Context, userID string) (decimal.Decimal, bool, error) {
	p, ok, err := s.LoadProfile(ctx, userID)
	if err != nil || !ok {
		return decimal.Zero, false, err
	}
	return p.AnnualIncome, true, nil
}
