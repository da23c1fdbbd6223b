// Package merchantsearch matches free-text bank descriptions against the
// reference merchant table, exactly first and then by edit distance.
package merchantsearch

import (
	"context"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/textutils"
)

// DefaultThreshold is the minimum similarity for a fuzzy match.
const DefaultThreshold = 0.6

// MatchType says how a description was matched.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
	MatchNone  MatchType = "none"
)

// Match is the search result for one description.
type Match struct {
	Description       string           `json:"description"`
	ExtractedMerchant string           `json:"extractedMerchant"`
	Merchant          *models.Merchant `json:"merchant,omitempty"`
	MatchType         MatchType        `json:"matchType"`
	Score             float64          `json:"score"`
}

// Repository is the part of the merchant store search reads.
type Repository interface {
	FindMerchant(ctx context.Context, key string) (models.Merchant, bool, error)
	ListActiveMerchants(ctx context.Context) ([]models.Merchant, error)
}

// Searcher runs bulk searches.
type Searcher struct {
	repo      Repository
	threshold float64
	logger    logging.Logger
}

// NewSearcher creates a Searcher. threshold <= 0 uses DefaultThreshold.
func NewSearcher(repo Repository, threshold float64, logger logging.Logger) *Searcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Searcher{repo: repo, threshold: threshold, logger: logger}
}

// Search returns one Match per description, in input order.
func (s *Searcher) Search(ctx context.Context, descriptions []string) ([]Match, error) {
	out := make([]Match, len(descriptions))
	var candidates []candidate
	loaded := false

	for i, desc := range descriptions {
		guess := textutils.ExtractMerchant(desc, textutils.SearchTable)
		out[i] = Match{Description: desc, ExtractedMerchant: guess, MatchType: MatchNone}
		if guess == "" {
			continue
		}

		m, ok, err := s.repo.FindMerchant(ctx, models.MerchantKey(guess))
		if err != nil {
			return nil, fmt.Errorf("merchant lookup for %q: %w", guess, err)
		}
		if ok && m.IsActive {
			out[i].Merchant = &m
			out[i].MatchType = MatchExact
			out[i].Score = 1
			continue
		}

		if !loaded {
			merchants, err := s.repo.ListActiveMerchants(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list merchants: %w", err)
			}
			candidates = buildCandidates(merchants)
			loaded = true
		}
		if best, score, exact := bestMatch(guess, candidates); best != nil {
			switch {
			case exact:
				out[i].MatchType = MatchExact
			case score >= s.threshold:
				out[i].MatchType = MatchFuzzy
			default:
				continue
			}
			m := *best
			out[i].Merchant = &m
			out[i].Score = round2(score)
		}
	}

	s.logger.Debug("Merchant search complete", logging.F(logging.FieldCount, len(descriptions)))
	return out, nil
}

// candidate is one searchable name of a merchant: its key or an alias.
type candidate struct {
	name     string
	merchant *models.Merchant
}

func buildCandidates(merchants []models.Merchant) []candidate {
	var out []candidate
	for i := range merchants {
		m := &merchants[i]
		out = append(out, candidate{name: m.MerchantName, merchant: m})
		for _, alias := range m.Aliases {
			out = append(out, candidate{name: models.MerchantKey(alias), merchant: m})
		}
	}
	return out
}

// bestMatch returns the most similar candidate; exact is true when an alias
// equals the guess.
func bestMatch(guess string, candidates []candidate) (*models.Merchant, float64, bool) {
	var best *models.Merchant
	bestScore := -1.0
	for _, c := range candidates {
		if c.name == guess {
			return c.merchant, 1, true
		}
		if score := Similarity(guess, c.name); score > bestScore {
			best, bestScore = c.merchant, score
		}
	}
	return best, bestScore, false
}

// Similarity is 1 minus the Levenshtein distance over the longer length, in
// [0, 1].
func Similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
