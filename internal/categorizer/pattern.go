package categorizer

import (
	"context"
	"regexp"
	"strings"

	"taxtally/deductions/internal/models"
)

// PatternRule is one entry of the fixed rule list. When Category is empty
// the category comes from the ANZSIC mapping of AnzsicCode.
type PatternRule struct {
	Name       string
	Keywords   []string
	Category   string
	Deductible bool
	Confidence int
	AnzsicCode string
}

// DefaultPatternRules is evaluated in order; the first match wins. Fuel comes
// first so combined forecourt names such as "Shell Coles Express" are not
// taken for a supermarket.
var DefaultPatternRules = []PatternRule{
	{Name: "fuel", Keywords: []string{"shell", "bp", "caltex", "ampol", "coles express", "7-eleven", "mobil", "united petroleum", "puma energy", "liberty oil", "metro petroleum", "chargefox", "evie networks"},
		Category: models.CategoryVehicles, Deductible: true, Confidence: 90, AnzsicCode: "4000"},
	{Name: "tolls", Keywords: []string{"linkt", "e-toll", "etoll", "transurban", "citylink", "eastlink", "go via"},
		Category: models.CategoryVehicles, Deductible: true, Confidence: 90, AnzsicCode: "5299"},
	{Name: "parking", Keywords: []string{"secure parking", "wilson parking", "care park", "parking", "easypark", "paystay"},
		Category: models.CategoryVehicles, Deductible: true, Confidence: 85, AnzsicCode: "9533"},
	{Name: "food-delivery", Keywords: []string{"uber eats", "menulog", "doordash", "deliveroo"},
		Category: models.CategoryMeals, Deductible: false, Confidence: 80, AnzsicCode: "4512"},
	{Name: "rideshare", Keywords: []string{"uber", "didi", "ola cabs", "13cabs", "silver service", "cabcharge", "taxi"},
		Category: models.CategoryVehicles, Deductible: true, Confidence: 85, AnzsicCode: "4623"},
	{Name: "airlines", Keywords: []string{"qantas", "jetstar", "virgin australia", "rex airlines", "regional express"},
		Category: models.CategoryVehicles, Deductible: true, Confidence: 85, AnzsicCode: "4900"},
	{Name: "public-transport", Keywords: []string{"opal", "myki", "translink", "go card", "transperth", "metro trains", "adelaide metro"},
		Category: models.CategoryVehicles, Deductible: true, Confidence: 80, AnzsicCode: "4720"},
	{Name: "telco", Keywords: []string{"telstra", "optus", "vodafone", "tpg", "aussie broadband", "iinet", "belong", "amaysim", "boost mobile", "superloop", "dodo"},
		Category: models.CategoryPhoneInternet, Deductible: true, Confidence: 90, AnzsicCode: "5809"},
	{Name: "electronics", Keywords: []string{"jb hi-fi", "harvey norman", "the good guys", "apple store", "dell", "lenovo", "microsoft store", "mwave", "scorptec", "centre com"},
		Category: models.CategoryWorkTools, Deductible: true, Confidence: 85, AnzsicCode: "4222"},
	{Name: "hardware", Keywords: []string{"bunnings", "total tools", "sydney tools", "mitre 10", "tradetools", "home hardware"},
		Category: models.CategoryWorkTools, Deductible: true, Confidence: 80, AnzsicCode: "4231"},
	{Name: "stationery", Keywords: []string{"officeworks", "staples", "winc"},
		Category: models.CategoryWorkTools, Deductible: true, Confidence: 90, AnzsicCode: "4272"},
	{Name: "software", Keywords: []string{"adobe", "microsoft 365", "atlassian", "github", "dropbox", "zoom", "canva", "linkedin premium", "google workspace", "slack", "notion"},
		Category: models.CategoryMemberships, Deductible: true, Confidence: 85, AnzsicCode: "5420"},
	{Name: "professional-bodies", Keywords: []string{"cpa australia", "chartered accountants", "engineers australia", "law society", "ahpra", "australian computer society"},
		Category: models.CategoryMemberships, Deductible: true, Confidence: 90, AnzsicCode: "9551"},
	{Name: "education", Keywords: []string{"udemy", "coursera", "tafe", "university", "linkedin learning", "pluralsight", "open universities"},
		Category: models.CategoryEducation, Deductible: true, Confidence: 85, AnzsicCode: "8102"},
	{Name: "workwear", Keywords: []string{"hard yakka", "king gee", "rsea", "workwear", "totally workwear", "bisley"},
		Category: models.CategoryClothing, Deductible: true, Confidence: 85, AnzsicCode: "4251"},
	{Name: "tax-agents", Keywords: []string{"h&r block", "etax", "tax agent", "accountants", "taxation services"},
		Category: models.CategoryTaxFees, Deductible: true, Confidence: 90, AnzsicCode: "6932"},
	{Name: "donations", Keywords: []string{"red cross", "salvation army", "salvos", "unicef", "oxfam", "world vision", "cancer council", "rspca", "donation"},
		Category: models.CategoryGifts, Deductible: true, Confidence: 85, AnzsicCode: "9559"},
	{Name: "investment", Keywords: []string{"income protection", "commsec", "selfwealth", "pearler", "tal life", "zurich"},
		Category: models.CategoryInvestment, Deductible: true, Confidence: 80, AnzsicCode: "6419"},
	{Name: "energy", Keywords: []string{"agl", "origin energy", "energyaustralia", "red energy", "alinta"},
		Category: models.CategoryHomeOffice, Deductible: true, Confidence: 70, AnzsicCode: "2640"},
	{Name: "supermarkets", Keywords: []string{"woolworths", "coles", "aldi", "iga", "harris farm"},
		Confidence: 80, AnzsicCode: "4110"},
	{Name: "dining", Keywords: []string{"mcdonald's", "mcdonalds", "kfc", "hungry jack's", "grill'd", "guzman y gomez", "starbucks", "restaurant", "cafe"},
		Confidence: 75, AnzsicCode: "4511"},
}

type compiledRule struct {
	PatternRule
	re *regexp.Regexp
}

// PatternStrategy applies a fixed rule list. Each rule is compiled once into
// a single case-insensitive, word-bounded alternation.
type PatternStrategy struct {
	rules    []compiledRule
	resolver *AnzsicResolver
}

// NewPatternStrategy compiles rules. It panics on an empty keyword list since
// rules are static data.
func NewPatternStrategy(rules []PatternRule, resolver *AnzsicResolver) *PatternStrategy {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if len(r.Keywords) == 0 {
			panic("categorizer: pattern rule " + r.Name + " has no keywords")
		}
		alts := make([]string, len(r.Keywords))
		for i, kw := range r.Keywords {
			alts[i] = regexp.QuoteMeta(strings.ToLower(kw))
		}
		compiled = append(compiled, compiledRule{
			PatternRule: r,
			re:          regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(` + strings.Join(alts, "|") + `)(?:$|[^a-z0-9])`),
		})
	}
	return &PatternStrategy{rules: compiled, resolver: resolver}
}

func (s *PatternStrategy) Name() string { return "Pattern" }

func (s *PatternStrategy) Classify(_ context.Context, description string) (Classification, bool, error) {
	if strings.TrimSpace(description) == "" {
		return Classification{}, false, nil
	}
	for _, r := range s.rules {
		m := r.re.FindStringSubmatch(description)
		if m == nil {
			continue
		}
		category, deductible := r.Category, r.Deductible
		if category == "" {
			category, deductible, _ = s.resolver.Resolve(r.AnzsicCode)
		} else {
			category, deductible = resolveCategory(category, deductible)
		}
		return Classification{
			MerchantName: DisplayName(m[1]),
			AnzsicCode:   models.NormalizeAnzsicCode(r.AnzsicCode),
			ATOCategory:  category,
			IsDeductible: deductible,
			Confidence:   clampConfidence(r.Confidence),
			Source:       models.SourcePattern,
		}, true, nil
	}
	return Classification{}, false, nil
}
