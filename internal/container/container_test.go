package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/internal/config"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/reconcile"
)

const merchantsYAML = `merchants:
  - merchant_name: officeworks
    display_name: Officeworks
    anzsic_code: "4231"
    confidence: 95
`

const anzsicYAML = `mappings:
  - anzsic_code: "4231"
    ato_category: "Work Tools, Equipment & Technology"
    is_deductible: true
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Server.Port = 8080
	cfg.Upload.MaxBytes = 1 << 20
	cfg.AI.MaxConcurrency = 2
	cfg.AI.EscalationThreshold = 60
	cfg.AI.TimeoutSeconds = 5
	cfg.Storage.Driver = config.StorageMemory
	cfg.Storage.DataDir = t.TempDir()
	cfg.Seed.MerchantsFile = filepath.Join(t.TempDir(), "missing-merchants.yaml")
	cfg.Seed.AnzsicFile = filepath.Join(t.TempDir(), "missing-anzsic.yaml")
	cfg.Classification.CacheTTL = time.Hour
	cfg.Classification.LearningEnabled = true
	cfg.Parsers.PDF.Extractor = config.ExtractorLibrary
	cfg.CSV.Delimiter = ","
	return cfg
}

func TestNewContainer_NilConfig(t *testing.T) {
	_, err := NewContainer(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration cannot be nil")
}

func TestNewContainer_MemoryWithoutSeeds(t *testing.T) {
	logger := logging.NewMockLogger()
	c, err := NewContainerWithLogger(context.Background(), testConfig(t), logger)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.NotNil(t, c.GetStatementService())
	assert.NotNil(t, c.GetResolver())
	assert.NotNil(t, c.GetSummaryService())
	assert.NotNil(t, c.GetMerchantSearch())
	assert.NotNil(t, c.GetLearner())
	assert.Nil(t, c.GetOpenBanking())
	assert.Equal(t, 0, c.GetMerchantIndex().Len())
	assert.True(t, logger.HasEntry("WARN", "Merchant seed file not found"))
	assert.True(t, logger.HasEntry("INFO", "AI classification disabled"))
}

func TestNewContainer_SeedsIndex(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.Seed.MerchantsFile = filepath.Join(dir, "merchants.yaml")
	cfg.Seed.AnzsicFile = filepath.Join(dir, "anzsic.yaml")
	require.NoError(t, os.WriteFile(cfg.Seed.MerchantsFile, []byte(merchantsYAML), 0600))
	require.NoError(t, os.WriteFile(cfg.Seed.AnzsicFile, []byte(anzsicYAML), 0600))

	c, err := NewContainerWithLogger(context.Background(), cfg, logging.NewMockLogger())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.True(t, c.GetMerchantIndex().Contains("officeworks"))
	got := c.GetClassifier().Classify(context.Background(), "OFFICEWORKS 0421 SYDNEY")
	assert.Equal(t, models.SourceDatabase, got.Source)
	assert.Equal(t, models.CategoryWorkTools, got.ATOCategory)
	assert.True(t, got.IsDeductible)
}

func TestNewContainer_FileDriverPersistsUserState(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = config.StorageFile
	ctx := context.Background()

	c, err := NewContainerWithLogger(ctx, cfg, logging.NewMockLogger())
	require.NoError(t, err)
	require.NoError(t, c.GetResolver().SetManualOverride(ctx, "user1", "tx-1", true))
	require.NoError(t, c.Close())

	reopened, err := NewContainerWithLogger(ctx, cfg, logging.NewMockLogger())
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	overrides, err := reopened.GetResolver().State().LoadManualOverrides(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, reconcile.ManualOverrides{"tx-1": true}, overrides)
}

func TestNewContainer_LearningDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Classification.LearningEnabled = false

	c, err := NewContainerWithLogger(context.Background(), cfg, logging.NewMockLogger())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Nil(t, c.GetLearner())
	res, err := c.FlushLearned(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
}

func TestNewContainer_OpenBankingConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenBanking.BaseURL = "https://api.example.test"
	cfg.OpenBanking.ClientID = "id"
	cfg.OpenBanking.ClientSecret = "secret"

	c, err := NewContainerWithLogger(context.Background(), cfg, logging.NewMockLogger())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.NotNil(t, c.GetOpenBanking())
}

func TestNewContainer_UnknownExtractor(t *testing.T) {
	cfg := testConfig(t)
	cfg.Parsers.PDF.Extractor = "ocr"
	_, err := NewContainerWithLogger(context.Background(), cfg, logging.NewMockLogger())
	require.Error(t, err)
}

func TestContainer_ServerHealth(t *testing.T) {
	c, err := NewContainerWithLogger(context.Background(), testConfig(t), logging.NewMockLogger())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	rec := httptest.NewRecorder()
	c.Server().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
