package textutils

import (
	"regexp"
	"strings"
)

// ExtractionTable parameterises ExtractMerchant. Callers with different
// needs share the algorithm and differ only in their table.
type ExtractionTable struct {
	Name string
	// Prefixes are stripped from the start of the description, repeatedly.
	Prefixes []*regexp.Regexp
	// NoiseWords are dropped wherever they appear.
	NoiseWords map[string]bool
	// StopWords end the merchant name (location suffixes and the like).
	StopWords map[string]bool
	// MinTokenLength is the shortest word kept.
	MinTokenLength int
	// MaxTokens caps the number of words in the guess.
	MaxTokens int
}

var (
	digitRun   = regexp.MustCompile(`\d+`)
	cardSuffix = regexp.MustCompile(`(?i)\b(?:card|crd)\s*(?:no\.?\s*)?x*\d{3,}`)
	refToken   = regexp.MustCompile(`(?i)\b(?:ref|receipt|reference)\b[:#]?\s*\S*`)
	dateToken  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
	punct      = regexp.MustCompile(`[*#/\\|_.,:;()\[\]]+`)
)

var bankingNoise = map[string]bool{
	"eftpos": true, "visa": true, "mastercard": true, "debit": true, "credit": true,
	"purchase": true, "pos": true, "card": true, "payment": true, "pymt": true,
	"direct": true, "dd": true, "bpay": true, "osko": true, "pty": true, "ltd": true,
	"aus": true, "au": true, "the": true, "and": true, "int": true, "intl": true,
	"fee": true, "tap": true, "pay": true, "paypass": true, "contactless": true,
	"value": true, "date": true, "auth": true, "authorisation": true,
	"transaction": true, "withdrawal": true, "online": true, "www": true, "com": true,
	"sq": true, "sp": true, "ezi": true, "zip": true,
}

var auLocations = map[string]bool{
	"nsw": true, "vic": true, "qld": true, "wa": true, "sa": true, "tas": true,
	"act": true, "nt": true, "sydney": true, "melbourne": true, "brisbane": true,
	"perth": true, "adelaide": true, "hobart": true, "canberra": true, "darwin": true,
	"australia": true, "north": true, "south": true, "east": true, "west": true,
}

var commonPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:eftpos|visa|mastercard|debit card|credit card)\s+(?:purchase|debit|credit)?\s*`),
	regexp.MustCompile(`(?i)^(?:pos|card)\s+(?:authorisation|purchase)\s*`),
	regexp.MustCompile(`(?i)^(?:direct debit|direct credit|bpay|osko|payment to|payment from|transfer to|transfer from)\s+`),
	regexp.MustCompile(`(?i)^(?:sq|sp|zlr|pp|paypal)\s*\*\s*`),
}

// ClassifierTable is used by the classifier's heuristic tier: a single
// leading word is enough to key the keyword groups.
var ClassifierTable = ExtractionTable{
	Name:           "classifier",
	Prefixes:       commonPrefixes,
	NoiseWords:     bankingNoise,
	StopWords:      auLocations,
	MinTokenLength: 3,
	MaxTokens:      1,
}

// SearchTable is used by bulk merchant search, which needs multi-word
// names to tell e.g. "coles express" from "coles".
var SearchTable = ExtractionTable{
	Name:           "search",
	Prefixes:       commonPrefixes,
	NoiseWords:     bankingNoise,
	StopWords:      auLocations,
	MinTokenLength: 2,
	MaxTokens:      3,
}

// ExtractMerchant guesses the merchant in a bank description. The result is
// lower case; it is empty when nothing usable remains.
func ExtractMerchant(description string, table ExtractionTable) string {
	s := strings.TrimSpace(description)
	for changed := true; changed; {
		changed = false
		for _, prefix := range table.Prefixes {
			if loc := prefix.FindStringIndex(s); loc != nil && loc[1] > 0 {
				s = strings.TrimSpace(s[loc[1]:])
				changed = true
			}
		}
	}

	s = cardSuffix.ReplaceAllString(s, " ")
	s = refToken.ReplaceAllString(s, " ")
	s = dateToken.ReplaceAllString(s, " ")
	s = digitRun.ReplaceAllString(s, " ")
	s = punct.ReplaceAllString(s, " ")

	minLen := table.MinTokenLength
	if minLen < 1 {
		minLen = 1
	}
	maxTokens := table.MaxTokens
	if maxTokens < 1 {
		maxTokens = 1
	}

	var kept []string
	for _, w := range Tokens(s, 1) {
		if table.StopWords[w] && len(kept) > 0 {
			break
		}
		if table.NoiseWords[w] || table.StopWords[w] || len(w) < minLen {
			continue
		}
		kept = append(kept, w)
		if len(kept) == maxTokens {
			break
		}
	}
	return strings.Join(kept, " ")
}

var genericMerchants = map[string]bool{
	"":                 true,
	"unknown":          true,
	"unknown merchant": true,
	"payment":          true,
	"transfer":         true,
	"purchase":         true,
	"deposit":          true,
	"withdrawal":       true,
	"atm":              true,
	"interest":         true,
	"fee":              true,
	"fees":             true,
	"opening balance":  true,
	"closing balance":  true,
	"balance":          true,
	"salary":           true,
	"refund":           true,
}

// IsGenericMerchant reports whether name carries no merchant identity and
// must never be learned as a reference merchant.
func IsGenericMerchant(name string) bool {
	return genericMerchants[strings.ToLower(strings.TrimSpace(name))]
}

// IsNoiseWord reports whether w is banking boilerplate rather than part of a
// merchant name.
func IsNoiseWord(w string) bool {
	return bankingNoise[strings.ToLower(w)]
}
