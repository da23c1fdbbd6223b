package categorizer

import (
	"sync"

	"taxtally/deductions/internal/models"
)

// AnzsicResolver maps ANZSIC codes to ATO categories using the active
// mappings from the reference store.
type AnzsicResolver struct {
	mu       sync.RWMutex
	mappings map[string]models.AnzsicMapping
}

// NewAnzsicResolver builds a resolver over mappings.
func NewAnzsicResolver(mappings []models.AnzsicMapping) *AnzsicResolver {
	r := &AnzsicResolver{}
	r.Load(mappings)
	return r
}

// Load replaces the mapping table. Inactive mappings are dropped.
func (r *AnzsicResolver) Load(mappings []models.AnzsicMapping) {
	table := make(map[string]models.AnzsicMapping, len(mappings))
	for _, m := range mappings {
		if !m.IsActive {
			continue
		}
		table[models.NormalizeAnzsicCode(m.AnzsicCode)] = m
	}
	r.mu.Lock()
	r.mappings = table
	r.mu.Unlock()
}

// Resolve returns the category and deductibility for code. ok is false when
// the code is empty or unmapped; callers treat that as Other, not deductible.
func (r *AnzsicResolver) Resolve(code string) (category string, deductible bool, ok bool) {
	code = models.NormalizeAnzsicCode(code)
	if code == "" {
		return models.CategoryOther, false, false
	}
	r.mu.RLock()
	m, found := r.mappings[code]
	r.mu.RUnlock()
	if !found {
		return models.CategoryOther, false, false
	}
	category, deductible = resolveCategory(m.ATOCategory, m.IsDeductible)
	return category, deductible, true
}

// Len is the number of active mappings.
func (r *AnzsicResolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mappings)
}
