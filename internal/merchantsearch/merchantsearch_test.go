package merchantsearch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/store"
)

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore(logging.NewMockLogger())
	_, err := s.BulkInsertMerchants(context.Background(), []models.Merchant{
		{MerchantName: "officeworks", DisplayName: "Officeworks", AnzsicCode: "4221", IsActive: true, Confidence: 95},
		{MerchantName: "jb hi-fi", DisplayName: "JB Hi-Fi", AnzsicCode: "4221", Aliases: []string{"JB HIFI"}, IsActive: true, Confidence: 95},
		{MerchantName: "bunnings warehouse", DisplayName: "Bunnings", AnzsicCode: "4231", IsActive: true, Confidence: 95},
	})
	require.NoError(t, err)
	return s
}

func TestSearch(t *testing.T) {
	s := NewSearcher(seededStore(t), 0, logging.NewMockLogger())

	matches, err := s.Search(context.Background(), []string{
		"OFFICEWORKS 0421 SYDNEY",
		"EFTPOS PURCHASE OFICEWORKS",
		"JB HIFI 123",
		"ZQXV PLUMBING",
		"",
	})
	require.NoError(t, err)
	require.Len(t, matches, 5)

	assert.Equal(t, "officeworks", matches[0].ExtractedMerchant)
	assert.Equal(t, MatchExact, matches[0].MatchType)
	assert.Equal(t, 1.0, matches[0].Score)
	require.NotNil(t, matches[0].Merchant)
	assert.Equal(t, "Officeworks", matches[0].Merchant.DisplayName)

	assert.Equal(t, "oficeworks", matches[1].ExtractedMerchant)
	assert.Equal(t, MatchFuzzy, matches[1].MatchType)
	assert.Equal(t, 0.91, matches[1].Score)
	assert.Equal(t, "officeworks", matches[1].Merchant.MerchantName)

	assert.Equal(t, MatchExact, matches[2].MatchType, "alias hit")
	assert.Equal(t, "jb hi-fi", matches[2].Merchant.MerchantName)

	assert.Equal(t, MatchNone, matches[3].MatchType)
	assert.Nil(t, matches[3].Merchant)
	assert.Zero(t, matches[3].Score)

	assert.Equal(t, MatchNone, matches[4].MatchType)
	assert.Equal(t, "", matches[4].ExtractedMerchant)
}

func TestSearch_InactiveMerchantNotExact(t *testing.T) {
	st := seededStore(t)
	require.NoError(t, st.DeactivateMerchant(context.Background(), "officeworks"))
	s := NewSearcher(st, 0, logging.NewMockLogger())

	matches, err := s.Search(context.Background(), []string{"OFFICEWORKS 0421"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.NotEqual(t, MatchExact, matches[0].MatchType)
	if matches[0].Merchant != nil {
		assert.NotEqual(t, "officeworks", matches[0].Merchant.MerchantName)
	}
}

type failingRepo struct{}

func (failingRepo) FindMerchant(context.Context, string) (models.Merchant, bool, error) {
	return models.Merchant{}, false, errors.New("store offline")
}

func (failingRepo) ListActiveMerchants(context.Context) ([]models.Merchant, error) {
	return nil, errors.New("store offline")
}

func TestSearch_StoreError(t *testing.T) {
	s := NewSearcher(failingRepo{}, 0, logging.NewMockLogger())
	_, err := s.Search(context.Background(), []string{"OFFICEWORKS"})
	assert.ErrorContains(t, err, "store offline")
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("coles", "coles"))
	assert.InDelta(t, 0.8, Similarity("coles", "cole"), 0.001)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 0.001)
}
