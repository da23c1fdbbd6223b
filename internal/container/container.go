// Package container provides dependency injection for the deduction tracker.
// It centralizes the creation and wiring of every service so the CLI commands
// and the HTTP server share one graph built from configuration.
package container

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"cloud.google.com/go/firestore"

	"taxtally/deductions/internal/aggregation"
	"taxtally/deductions/internal/api"
	"taxtally/deductions/internal/categorizer"
	"taxtally/deductions/internal/config"
	"taxtally/deductions/internal/kvstore"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/merchantsearch"
	"taxtally/deductions/internal/openbanking"
	"taxtally/deductions/internal/pdfparser"
	"taxtally/deductions/internal/reconcile"
	"taxtally/deductions/internal/statement"
	"taxtally/deductions/internal/store"
)

// Container holds all application dependencies. It is immutable after
// creation; fields are reached through getters.
type Container struct {
	logger logging.Logger
	config *config.Config

	refs      store.ReferenceStore
	userState kvstore.Store
	gemini    *categorizer.GeminiClient

	index      *categorizer.MerchantIndex
	learner    *categorizer.Learner
	classifier *categorizer.Classifier
	batch      *categorizer.BatchClassifier

	statements  *statement.Service
	resolver    *reconcile.Resolver
	summaries   *aggregation.Service
	search      *merchantsearch.Searcher
	openBanking openbanking.Client
}

// NewContainer creates and wires all application dependencies using the
// logger described by cfg.Log.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(ctx, cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

// NewContainerWithLogger is NewContainer with an explicit logger.
func NewContainerWithLogger(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	c := &Container{logger: logger, config: cfg}

	if err := c.openStorage(ctx); err != nil {
		return nil, err
	}

	if _, err := store.NewSeedLoader(c.refs, logger).Seed(ctx, cfg.Seed.MerchantsFile, cfg.Seed.AnzsicFile); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to seed reference data: %w", err)
	}

	if err := c.buildClassification(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	extractor, err := pdfparser.NewExtractor(cfg.Parsers.PDF.Extractor, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.statements = statement.NewService(extractor, logger, cfg.Upload.MaxBytes, nil)

	state := reconcile.NewStateStore(c.userState, cfg.Classification.CacheTTL, nil)
	var flusher reconcile.Flusher
	if c.learner != nil {
		flusher = c.learner
	}
	c.resolver = reconcile.NewResolver(state, c.batch, flusher, logger)
	c.summaries = aggregation.NewService(state, logger, nil)
	c.search = merchantsearch.NewSearcher(c.refs, merchantsearch.DefaultThreshold, logger)

	if cfg.OpenBankingEnabled() {
		client, err := openbanking.NewHTTPClient(openbanking.Config{
			BaseURL:      cfg.OpenBanking.BaseURL,
			TokenURL:     cfg.OpenBanking.TokenURL,
			ClientID:     cfg.OpenBanking.ClientID,
			ClientSecret: cfg.OpenBanking.ClientSecret,
			RedirectURL:  cfg.OpenBanking.RedirectURL,
		}, logger)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to create open banking client: %w", err)
		}
		c.openBanking = client
	}

	logger.Info("Container initialized successfully",
		logging.F("storage_driver", cfg.Storage.Driver),
		logging.F("merchants", c.index.Len()),
		logging.F("ai_enabled", c.gemini != nil),
		logging.F("open_banking_enabled", c.openBanking != nil))
	return c, nil
}

func (c *Container) openStorage(ctx context.Context) error {
	cfg := c.config
	switch cfg.Storage.Driver {
	case config.StorageFirestore:
		client, err := firestore.NewClient(ctx, cfg.Storage.FirestoreProject)
		if err != nil {
			return fmt.Errorf("failed to create firestore client: %w", err)
		}
		// refs owns the client and closes it.
		c.refs = store.NewFirestoreStore(client, c.logger)
		c.userState = kvstore.NewFirestoreStore(client)
	case config.StorageFile:
		fs, err := kvstore.NewFileStore(filepath.Join(cfg.Storage.DataDir, "users"))
		if err != nil {
			return fmt.Errorf("failed to open user state directory: %w", err)
		}
		c.refs = store.NewMemoryStore(c.logger)
		c.userState = fs
	case config.StorageMemory, "":
		c.refs = store.NewMemoryStore(c.logger)
		c.userState = kvstore.NewMemoryStore()
	default:
		return fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
	return nil
}

func (c *Container) buildClassification(ctx context.Context) error {
	cfg := c.config

	merchants, err := c.refs.ListActiveMerchants(ctx)
	if err != nil {
		return fmt.Errorf("failed to load merchants: %w", err)
	}
	mappings, err := c.refs.ListActiveAnzsicMappings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ANZSIC mappings: %w", err)
	}

	c.index = categorizer.NewMerchantIndex()
	c.index.Load(merchants)
	resolver := categorizer.NewAnzsicResolver(mappings)

	if cfg.Classification.LearningEnabled {
		c.learner = categorizer.NewLearner(c.refs, c.index, c.logger)
	}
	c.classifier = categorizer.NewDefaultClassifier(c.index, resolver, c.learner, c.logger)

	var ai categorizer.AIClient
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		gemini, err := categorizer.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, c.logger)
		if err != nil {
			return fmt.Errorf("failed to create AI client: %w", err)
		}
		c.gemini = gemini
		ai = gemini
		c.logger.Info("AI classification enabled", logging.F("model", cfg.AI.Model))
	} else {
		c.logger.Info("AI classification disabled")
	}

	c.batch = categorizer.NewBatchClassifier(c.classifier, ai, categorizer.BatchOptions{
		EscalationThreshold: cfg.AI.EscalationThreshold,
		MaxConcurrency:      cfg.AI.MaxConcurrency,
		Timeout:             cfg.AITimeout(),
	}, c.logger)
	return nil
}

// Server builds the HTTP server over the container's services.
func (c *Container) Server() *api.Server {
	deps := api.Deps{
		Statements: c.statements,
		Classifier: c.batch,
		Search:     c.search,
		Merchants:  c.refs,
		Index:      c.index,
		Resolver:   c.resolver,
		Summaries:  c.summaries,
		Logger:     c.logger,
	}
	if c.learner != nil {
		deps.Learner = c.learner
	}
	if c.openBanking != nil {
		deps.OpenBanking = c.openBanking
	}
	return api.NewServer(deps, api.Options{
		AllowedOrigins: c.config.Server.AllowedOrigins,
		MaxUploadBytes: c.config.Upload.MaxBytes,
	})
}

// GetLogger returns the container's logger.
func (c *Container) GetLogger() logging.Logger { return c.logger }

// GetConfig returns the configuration the container was built from.
func (c *Container) GetConfig() *config.Config { return c.config }

// GetReferenceStore returns the merchant and ANZSIC store.
func (c *Container) GetReferenceStore() store.ReferenceStore { return c.refs }

// GetMerchantIndex returns the classifier's in-memory merchant table.
func (c *Container) GetMerchantIndex() *categorizer.MerchantIndex { return c.index }

// GetLearner returns the learner, or nil when learning is disabled.
func (c *Container) GetLearner() *categorizer.Learner { return c.learner }

// GetClassifier returns the single-description classifier.
func (c *Container) GetClassifier() *categorizer.Classifier { return c.classifier }

// GetBatchClassifier returns the batch classifier with AI escalation.
func (c *Container) GetBatchClassifier() *categorizer.BatchClassifier { return c.batch }

// GetStatementService returns the upload pipeline.
func (c *Container) GetStatementService() *statement.Service { return c.statements }

// GetResolver returns the cache and override reconciler.
func (c *Container) GetResolver() *reconcile.Resolver { return c.resolver }

// GetSummaryService returns the dashboard aggregation service.
func (c *Container) GetSummaryService() *aggregation.Service { return c.summaries }

// GetMerchantSearch returns the merchant searcher.
func (c *Container) GetMerchantSearch() *merchantsearch.Searcher { return c.search }

// GetOpenBanking returns the aggregator client, or nil when not configured.
func (c *Container) GetOpenBanking() openbanking.Client { return c.openBanking }

// FlushLearned persists pending learned merchants, if learning is enabled.
func (c *Container) FlushLearned(ctx context.Context) (categorizer.FlushResult, error) {
	if c.learner == nil {
		return categorizer.FlushResult{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return c.learner.Flush(ctx)
}

// Close releases the AI and storage clients. The Firestore client is shared
// by both stores and closed once, through the reference store.
func (c *Container) Close() error {
	var firstErr error
	if c.gemini != nil {
		if err := c.gemini.Close(); err != nil {
			firstErr = err
		}
	}
	if c.refs != nil {
		if err := c.refs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.logger.Info("Container closed")
	return firstErr
}
