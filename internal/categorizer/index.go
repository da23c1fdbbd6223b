package categorizer

import (
	"strings"
	"sync"

	"taxtally/deductions/internal/models"
)

// MerchantIndex is the in-memory lookup table behind the database tier. Each
// active merchant is reachable by its canonical key, its keywords and its
// aliases. Canonical keys win over keywords that collide with them.
type MerchantIndex struct {
	mu        sync.RWMutex
	byKey     map[string]models.Merchant
	canonical map[string]bool
}

// NewMerchantIndex creates an empty index.
func NewMerchantIndex() *MerchantIndex {
	return &MerchantIndex{
		byKey:     make(map[string]models.Merchant),
		canonical: make(map[string]bool),
	}
}

// Load replaces the index contents.
func (ix *MerchantIndex) Load(merchants []models.Merchant) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.byKey = make(map[string]models.Merchant, len(merchants)*2)
	ix.canonical = make(map[string]bool, len(merchants))
	for _, m := range merchants {
		ix.addLocked(m)
	}
}

// Add indexes one merchant. Inactive merchants are ignored.
func (ix *MerchantIndex) Add(m models.Merchant) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.addLocked(m)
}

func (ix *MerchantIndex) addLocked(m models.Merchant) {
	key := models.MerchantKey(m.MerchantName)
	if !m.IsActive || key == "" {
		return
	}
	m.MerchantName = key
	ix.byKey[key] = m
	ix.canonical[key] = true

	for _, extra := range append(append([]string{}, m.Keywords...), m.Aliases...) {
		k := models.MerchantKey(extra)
		if k == "" || ix.canonical[k] {
			continue
		}
		if _, taken := ix.byKey[k]; !taken {
			ix.byKey[k] = m
		}
	}
}

// Remove drops every entry that points at the merchant with key.
func (ix *MerchantIndex) Remove(key string) bool {
	key = models.MerchantKey(key)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if !ix.canonical[key] {
		return false
	}
	for k, m := range ix.byKey {
		if m.MerchantName == key {
			delete(ix.byKey, k)
		}
	}
	delete(ix.canonical, key)
	return true
}

// Lookup finds a merchant by canonical key, keyword or alias.
func (ix *MerchantIndex) Lookup(key string) (models.Merchant, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	m, ok := ix.byKey[strings.ToLower(strings.TrimSpace(key))]
	return m, ok
}

// Contains reports whether key is a canonical merchant key.
func (ix *MerchantIndex) Contains(key string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.canonical[models.MerchantKey(key)]
}

// Len is the number of indexed merchants.
func (ix *MerchantIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.canonical)
}

// Merchants returns a snapshot of the indexed merchants.
func (ix *MerchantIndex) Merchants() []models.Merchant {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]models.Merchant, 0, len(ix.canonical))
	for key := range ix.canonical {
		out = append(out, ix.byKey[key])
	}
	return out
}
