package categorizer

import "taxtally/deductions/internal/models"

// CategoryFilter is the set of categories a user has switched on. Only
// transactions in an enabled category may be flagged deductible.
type CategoryFilter struct {
	all bool
	set map[string]bool
}

// AllCategories enables every ATO category.
func AllCategories() CategoryFilter {
	return CategoryFilter{all: true}
}

// EnabledCategories builds a filter from category names. A nil slice means
// "not specified" and enables everything; an empty slice enables nothing.
func EnabledCategories(names []string) CategoryFilter {
	if names == nil {
		return AllCategories()
	}
	f := CategoryFilter{set: make(map[string]bool, len(names))}
	for _, n := range names {
		if c := models.NormalizeCategory(n); c != models.CategoryOther {
			f.set[c] = true
		}
	}
	return f
}

// Allows reports whether category is enabled. Other is never enabled.
func (f CategoryFilter) Allows(category string) bool {
	if !models.IsATOCategory(category) {
		return false
	}
	return f.all || f.set[category]
}

// Names lists the enabled categories in canonical order.
func (f CategoryFilter) Names() []string {
	var out []string
	for _, c := range models.ATOCategories {
		if f.Allows(c) {
			out = append(out, c)
		}
	}
	return out
}

// Apply clears IsDeductible when the category is not enabled.
func (f CategoryFilter) Apply(c Classification) Classification {
	if c.IsDeductible && !f.Allows(c.ATOCategory) {
		c.IsDeductible = false
	}
	return c
}
