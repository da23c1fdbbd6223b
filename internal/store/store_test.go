package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func merchant(name string, source models.MerchantSource, confidence, usage int) models.Merchant {
	return models.Merchant{
		MerchantName: name,
		Source:       source,
		Confidence:   confidence,
		UsageCount:   usage,
		IsActive:     true,
	}
}

func TestMemoryStore_BulkInsertSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewMockLogger()
	s := NewMemoryStore(logger)

	res, err := s.BulkInsertMerchants(ctx, []models.Merchant{
		merchant("Bunnings", models.MerchantSourceSeed, 95, 0),
		merchant("officeworks", models.MerchantSourceSeed, 95, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Inserted: 2}, res)

	res, err = s.BulkInsertMerchants(ctx, []models.Merchant{
		merchant("bunnings ", models.MerchantSourceLearned, 40, 0),
		merchant("telstra", models.MerchantSourceLearned, 40, 0),
		merchant("  ", models.MerchantSourceLearned, 40, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Inserted: 1, Skipped: 2}, res)
	assert.True(t, logger.HasEntry("DEBUG", "Skipping duplicate merchant"))

	m, ok, err := s.FindMerchant(ctx, "BUNNINGS")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.MerchantSourceSeed, m.Source, "existing record must not be overwritten")
	assert.False(t, m.CreatedAt.IsZero())
}

func TestMemoryStore_UsageAndDeactivate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	_, err := s.BulkInsertMerchants(ctx, []models.Merchant{merchant("shell", models.MerchantSourceSeed, 90, 0)})
	require.NoError(t, err)

	require.NoError(t, s.IncrementUsage(ctx, "shell", 3))
	m, _, _ := s.FindMerchant(ctx, "shell")
	assert.Equal(t, 3, m.UsageCount)

	assert.ErrorIs(t, s.IncrementUsage(ctx, "caltex", 1), ErrNotFound)

	require.NoError(t, s.DeactivateMerchant(ctx, "Shell"))
	active, err := s.ListActiveMerchants(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.ErrorIs(t, s.DeactivateMerchant(ctx, "caltex"), ErrNotFound)
}

func TestMemoryStore_MerchantStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	_, err := s.BulkInsertMerchants(ctx, []models.Merchant{
		merchant("bunnings", models.MerchantSourceSeed, 90, 12),
		merchant("telstra", models.MerchantSourceSeed, 80, 30),
		merchant("cafe", models.MerchantSourceLearned, 40, 5),
		merchant("gone", models.MerchantSourceLearned, 10, 99),
	})
	require.NoError(t, err)
	require.NoError(t, s.DeactivateMerchant(ctx, "gone"))

	stats, err := s.MerchantStats(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Active)
	assert.Equal(t, map[string]int{"seed": 2, "learned": 2}, stats.BySource)
	assert.InDelta(t, 70.0, stats.AverageConfidence, 0.001)
	assert.Equal(t, []MerchantUsage{
		{MerchantName: "telstra", UsageCount: 30},
		{MerchantName: "bunnings", UsageCount: 12},
	}, stats.TopMerchants)
}

func TestMemoryStore_AnzsicMappings(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	res, err := s.BulkInsertAnzsicMappings(ctx, []models.AnzsicMapping{
		{AnzsicCode: "4000", ATOCategory: models.CategoryVehicles, IsDeductible: true, IsActive: true},
		{AnzsicCode: "411", ATOCategory: models.CategoryOther, IsActive: true},
		{AnzsicCode: "4000", ATOCategory: models.CategoryOther, IsActive: true},
	})
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Inserted: 2, Skipped: 1}, res)

	m, ok, err := s.FindAnzsicMapping(ctx, "0411")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0411", m.AnzsicCode)

	list, err := s.ListActiveAnzsicMappings(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "0411", list[0].AnzsicCode)
}

func TestFindSeedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merchants.yaml")
	writeFile(t, path, "merchants: []\n")

	found, err := FindSeedFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)

	_, err = FindSeedFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSeedLoader_Seed(t *testing.T) {
	dir := t.TempDir()
	merchants := filepath.Join(dir, "merchants.yaml")
	mappings := filepath.Join(dir, "anzsic_mappings.yaml")
	writeFile(t, merchants, `merchants:
  - merchant_name: Bunnings
    display_name: Bunnings Warehouse
    anzsic_code: "4231"
    keywords: [bunnings warehouse]
  - merchant_name: telstra
    anzsic_code: "5809"
    confidence: 85
  - merchant_name: ""
`)
	writeFile(t, mappings, `mappings:
  - anzsic_code: "4231"
    description: Hardware and Building Supplies Retailing
    ato_category: work tools, equipment & technology
    is_deductible: true
  - anzsic_code: "4110"
    description: Supermarket and Grocery Stores
    ato_category: Other
    is_deductible: true
`)

	ctx := context.Background()
	s := NewMemoryStore(nil)
	loader := NewSeedLoader(s, logging.NewMockLogger())
	res, err := loader.Seed(ctx, merchants, mappings)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Merchants.Inserted)
	assert.Equal(t, 2, res.Mappings.Inserted)

	m, ok, _ := s.FindMerchant(ctx, "bunnings")
	require.True(t, ok)
	assert.Equal(t, "Bunnings Warehouse", m.DisplayName)
	assert.Equal(t, 95, m.Confidence)
	assert.Equal(t, models.MerchantSourceSeed, m.Source)
	assert.True(t, m.IsActive)

	tel, _, _ := s.FindMerchant(ctx, "telstra")
	assert.Equal(t, 85, tel.Confidence)

	hw, _, _ := s.FindAnzsicMapping(ctx, "4231")
	assert.Equal(t, models.CategoryWorkTools, hw.ATOCategory)
	assert.True(t, hw.IsDeductible)

	grocery, _, _ := s.FindAnzsicMapping(ctx, "4110")
	assert.False(t, grocery.IsDeductible, "Other is never deductible")

	// Seeding twice is idempotent.
	res, err = loader.Seed(ctx, merchants, mappings)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Merchants.Inserted)
	assert.Equal(t, 2, res.Merchants.Skipped)
}

func TestSeedLoader_MissingFilesAreSkipped(t *testing.T) {
	logger := logging.NewMockLogger()
	loader := NewSeedLoader(NewMemoryStore(nil), logger)
	dir := t.TempDir()
	res, err := loader.Seed(context.Background(), filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yaml"))
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, res)
	assert.True(t, logger.HasEntry("WARN", "Merchant seed file not found"))
}

func TestSeedLoader_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "merchants.yaml")
	writeFile(t, bad, "merchants: [: not yaml")
	loader := NewSeedLoader(NewMemoryStore(nil), logging.NewMockLogger())
	_, err := loader.Seed(context.Background(), bad, filepath.Join(dir, "none.yaml"))
	assert.Error(t, err)
}
