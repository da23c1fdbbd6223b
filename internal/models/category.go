package models

import "strings"

// The fixed ATO deduction categories.
const (
	CategoryVehicles      = "Vehicles, Travel & Transport"
	CategoryWorkTools     = "Work Tools, Equipment & Technology"
	CategoryClothing      = "Work Clothing & Uniforms"
	CategoryHomeOffice    = "Home Office Expenses"
	CategoryEducation     = "Education & Training"
	CategoryMemberships   = "Professional Memberships & Subscriptions"
	CategoryMeals         = "Meals & Entertainment (Work-Related)"
	CategoryPhoneInternet = "Phone & Internet"
	CategoryGifts         = "Gifts & Donations"
	CategoryInvestment    = "Investment & Insurance"
	CategoryTaxFees       = "Tax & Accounting Fees"

	// CategoryOther is assigned to anything that is not a recognised deduction.
	CategoryOther = "Other"
)

// ATOCategories is the ordered list of deduction categories.
var ATOCategories = []string{
	CategoryVehicles,
	CategoryWorkTools,
	CategoryClothing,
	CategoryHomeOffice,
	CategoryEducation,
	CategoryMemberships,
	CategoryMeals,
	CategoryPhoneInternet,
	CategoryGifts,
	CategoryInvestment,
	CategoryTaxFees,
}

// IsATOCategory reports whether name is one of the fixed deduction categories.
func IsATOCategory(name string) bool {
	for _, c := range ATOCategories {
		if c == name {
			return true
		}
	}
	return false
}

// NormalizeCategory maps a case-insensitive category name onto its canonical
// spelling. Unknown names map to CategoryOther.
func NormalizeCategory(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, c := range ATOCategories {
		if strings.EqualFold(c, trimmed) {
			return c
		}
	}
	return CategoryOther
}
