package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
)

// MemoryStore keeps reference data in process memory. It is the default
// backend and the one used by tests.
type MemoryStore struct {
	mu        sync.RWMutex
	merchants map[string]models.Merchant
	mappings  map[string]models.AnzsicMapping
	logger    logging.Logger
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory reference store.
func NewMemoryStore(logger logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.NewMockLogger()
	}
	return &MemoryStore{
		merchants: make(map[string]models.Merchant),
		mappings:  make(map[string]models.AnzsicMapping),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *MemoryStore) FindMerchant(_ context.Context, key string) (models.Merchant, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.merchants[models.MerchantKey(key)]
	return m, ok, nil
}

func (s *MemoryStore) ListActiveMerchants(_ context.Context) ([]models.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Merchant, 0, len(s.merchants))
	for _, m := range s.merchants {
		if m.IsActive {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MerchantName < out[j].MerchantName })
	return out, nil
}

func (s *MemoryStore) BulkInsertMerchants(_ context.Context, merchants []models.Merchant) (BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result BulkResult
	now := s.now()
	for _, m := range merchants {
		key := models.MerchantKey(m.MerchantName)
		if key == "" {
			result.Skipped++
			continue
		}
		if _, exists := s.merchants[key]; exists {
			s.logger.Debug("Skipping duplicate merchant",
				logging.F(logging.FieldMerchant, key))
			result.Skipped++
			continue
		}
		m.MerchantName = key
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.UpdatedAt = now
		s.merchants[key] = m
		result.Inserted++
	}
	return result, nil
}

func (s *MemoryStore) IncrementUsage(_ context.Context, key string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key = models.MerchantKey(key)
	m, ok := s.merchants[key]
	if !ok {
		return ErrNotFound
	}
	m.UsageCount += delta
	m.UpdatedAt = s.now()
	s.merchants[key] = m
	return nil
}

func (s *MemoryStore) DeactivateMerchant(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key = models.MerchantKey(key)
	m, ok := s.merchants[key]
	if !ok {
		return ErrNotFound
	}
	m.IsActive = false
	m.UpdatedAt = s.now()
	s.merchants[key] = m
	return nil
}

func (s *MemoryStore) MerchantStats(_ context.Context, topN int) (MerchantStats, error) {
	s.mu.RLock()
	all := make([]models.Merchant, 0, len(s.merchants))
	for _, m := range s.merchants {
		all = append(all, m)
	}
	s.mu.RUnlock()
	return computeStats(all, topN), nil
}

func (s *MemoryStore) FindAnzsicMapping(_ context.Context, code string) (models.AnzsicMapping, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mappings[models.NormalizeAnzsicCode(code)]
	return m, ok, nil
}

func (s *MemoryStore) ListActiveAnzsicMappings(_ context.Context) ([]models.AnzsicMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AnzsicMapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		if m.IsActive {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnzsicCode < out[j].AnzsicCode })
	return out, nil
}

func (s *MemoryStore) BulkInsertAnzsicMappings(_ context.Context, mappings []models.AnzsicMapping) (BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result BulkResult
	for _, m := range mappings {
		code := models.NormalizeAnzsicCode(m.AnzsicCode)
		if code == "" {
			result.Skipped++
			continue
		}
		if _, exists := s.mappings[code]; exists {
			s.logger.Debug("Skipping duplicate ANZSIC mapping",
				logging.F("anzsic_code", code))
			result.Skipped++
			continue
		}
		m.AnzsicCode = code
		s.mappings[code] = m
		result.Inserted++
	}
	return result, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
