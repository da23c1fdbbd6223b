package categorizer

import (
	"context"
	"strings"

	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/textutils"
)

// KeywordGroup is a secondary heuristic applied once a merchant name has been
// guessed: any description word in Words selects the group.
type KeywordGroup struct {
	Name       string
	Words      []string
	Category   string
	Deductible bool
	Confidence int
	AnzsicCode string
}

// DefaultKeywordGroups are checked in order.
var DefaultKeywordGroups = []KeywordGroup{
	{Name: "fuel", Words: []string{"petrol", "fuel", "servo", "diesel", "unleaded", "service station", "roadhouse"},
		Category: models.CategoryVehicles, Deductible: true, Confidence: 60, AnzsicCode: "4000"},
	{Name: "transport", Words: []string{"parking", "toll", "taxi", "cab", "rail", "airline", "airways", "travel", "car park"},
		Category: models.CategoryVehicles, Deductible: true, Confidence: 55, AnzsicCode: "4623"},
	{Name: "telecom", Words: []string{"mobile", "telecom", "internet", "broadband", "nbn", "wireless", "phone"},
		Category: models.CategoryPhoneInternet, Deductible: true, Confidence: 60, AnzsicCode: "5809"},
	{Name: "hardware", Words: []string{"hardware", "tools", "timber", "trade", "electrical", "plumbing", "supplies"},
		Category: models.CategoryWorkTools, Deductible: true, Confidence: 55, AnzsicCode: "4231"},
	{Name: "tech", Words: []string{"computer", "computers", "laptop", "electronics", "tech", "software"},
		Category: models.CategoryWorkTools, Deductible: true, Confidence: 50, AnzsicCode: "4222"},
	{Name: "education", Words: []string{"course", "training", "academy", "institute", "college", "seminar", "conference", "tuition"},
		Category: models.CategoryEducation, Deductible: true, Confidence: 55, AnzsicCode: "8219"},
	{Name: "subscription", Words: []string{"subscription", "membership", "cloud", "hosting", "association"},
		Category: models.CategoryMemberships, Deductible: true, Confidence: 50, AnzsicCode: "5420"},
	{Name: "clothing", Words: []string{"uniform", "uniforms", "workwear", "boots", "safety", "hi-vis"},
		Category: models.CategoryClothing, Deductible: true, Confidence: 50, AnzsicCode: "4251"},
	{Name: "donation", Words: []string{"donation", "charity", "foundation", "appeal"},
		Category: models.CategoryGifts, Deductible: true, Confidence: 45, AnzsicCode: "9559"},
	{Name: "accounting", Words: []string{"accounting", "accountant", "bookkeeping", "tax"},
		Category: models.CategoryTaxFees, Deductible: true, Confidence: 55, AnzsicCode: "6932"},
	{Name: "food", Words: []string{"coffee", "bakery", "pizza", "sushi", "burger", "kitchen", "bar", "pub", "grill", "thai", "takeaway", "espresso", "bistro", "hotel"},
		Category: models.CategoryMeals, Deductible: false, Confidence: 50, AnzsicCode: "4511"},
	{Name: "banking", Words: []string{"interest", "fee", "fees", "bank", "atm", "loan", "charge", "charges", "overdraw"},
		Category: models.CategoryOther, Deductible: false, Confidence: 70, AnzsicCode: "6221"},
}

// unknownGuessConfidence is used when a merchant was guessed but no keyword
// group applied.
const unknownGuessConfidence = 30

// SmartExtractionStrategy guesses a merchant name from the description and
// picks a category from keyword groups.
type SmartExtractionStrategy struct {
	groups []KeywordGroup
	table  textutils.ExtractionTable
}

// NewSmartExtractionStrategy creates the smart-extraction tier.
func NewSmartExtractionStrategy(groups []KeywordGroup) *SmartExtractionStrategy {
	return &SmartExtractionStrategy{groups: groups, table: textutils.ClassifierTable}
}

func (s *SmartExtractionStrategy) Name() string { return "SmartExtraction" }

func (s *SmartExtractionStrategy) Classify(_ context.Context, description string) (Classification, bool, error) {
	guess := textutils.ExtractMerchant(description, s.table)
	if guess == "" {
		return Classification{}, false, nil
	}

	padded := " " + strings.Join(textutils.Tokens(description, 2), " ") + " "
	for _, g := range s.groups {
		if !containsAnyWord(padded, g.Words) {
			continue
		}
		category, deductible := resolveCategory(g.Category, g.Deductible)
		return Classification{
			MerchantName: DisplayName(guess),
			AnzsicCode:   models.NormalizeAnzsicCode(g.AnzsicCode),
			ATOCategory:  category,
			IsDeductible: deductible,
			Confidence:   clampConfidence(g.Confidence),
			Source:       models.SourceSmartExtraction,
		}, true, nil
	}

	return Classification{
		MerchantName: DisplayName(guess),
		ATOCategory:  models.CategoryOther,
		Confidence:   unknownGuessConfidence,
		Source:       models.SourceSmartExtraction,
	}, true, nil
}

// containsAnyWord expects padded to be space-joined tokens with a leading and
// trailing space.
func containsAnyWord(padded string, words []string) bool {
	for _, w := range words {
		if strings.Contains(padded, " "+w+" ") {
			return true
		}
	}
	return false
}
