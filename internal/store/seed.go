package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
)

// FindSeedFile looks for a reference data file in the standard locations:
// the working directory, ./config, ./database and ~/.config/taxtally.
func FindSeedFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join("database", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "taxtally", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

type seedMerchant struct {
	MerchantName string   `yaml:"merchant_name"`
	DisplayName  string   `yaml:"display_name"`
	AnzsicCode   string   `yaml:"anzsic_code"`
	Keywords     []string `yaml:"keywords"`
	Aliases      []string `yaml:"aliases"`
	Confidence   int      `yaml:"confidence"`
}

type seedMapping struct {
	AnzsicCode      string `yaml:"anzsic_code"`
	Description     string `yaml:"description"`
	ATOCategory     string `yaml:"ato_category"`
	IsDeductible    bool   `yaml:"is_deductible"`
	ConfidenceLevel int    `yaml:"confidence_level"`
}

// ReadMerchantsFile parses a merchants.yaml seed file. Seeded merchants are
// always active and default to confidence 95.
func ReadMerchantsFile(path string) ([]models.Merchant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	var doc struct {
		Merchants []seedMerchant `yaml:"merchants"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}

	out := make([]models.Merchant, 0, len(doc.Merchants))
	for _, s := range doc.Merchants {
		if models.MerchantKey(s.MerchantName) == "" {
			continue
		}
		confidence := s.Confidence
		if confidence == 0 {
			confidence = 95
		}
		out = append(out, models.Merchant{
			MerchantName: models.MerchantKey(s.MerchantName),
			DisplayName:  s.DisplayName,
			AnzsicCode:   models.NormalizeAnzsicCode(s.AnzsicCode),
			Keywords:     s.Keywords,
			Aliases:      s.Aliases,
			Source:       models.MerchantSourceSeed,
			Confidence:   confidence,
			IsActive:     true,
		})
	}
	return out, nil
}

// ReadAnzsicFile parses an anzsic_mappings.yaml seed file.
func ReadAnzsicFile(path string) ([]models.AnzsicMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	var doc struct {
		Mappings []seedMapping `yaml:"mappings"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}

	out := make([]models.AnzsicMapping, 0, len(doc.Mappings))
	for _, s := range doc.Mappings {
		code := models.NormalizeAnzsicCode(s.AnzsicCode)
		if code == "" {
			continue
		}
		category := s.ATOCategory
		if category != models.CategoryOther {
			category = models.NormalizeCategory(category)
		}
		out = append(out, models.AnzsicMapping{
			AnzsicCode:      code,
			Description:     s.Description,
			ATOCategory:     category,
			IsDeductible:    s.IsDeductible && category != models.CategoryOther,
			ConfidenceLevel: s.ConfidenceLevel,
			Source:          string(models.MerchantSourceSeed),
			IsActive:        true,
		})
	}
	return out, nil
}

// SeedResult reports what a seeding run inserted.
type SeedResult struct {
	Merchants BulkResult `json:"merchants" yaml:"merchants"`
	Mappings  BulkResult `json:"mappings" yaml:"mappings"`
}

// SeedLoader fills a ReferenceStore from the YAML seed files.
type SeedLoader struct {
	store  ReferenceStore
	logger logging.Logger
}

// NewSeedLoader creates a loader writing into store.
func NewSeedLoader(store ReferenceStore, logger logging.Logger) *SeedLoader {
	return &SeedLoader{store: store, logger: logger}
}

// Seed locates and loads both files. A missing file is logged and skipped so
// the service can start without reference data; a malformed file is an
// error. Existing records are never overwritten.
func (l *SeedLoader) Seed(ctx context.Context, merchantsFile, anzsicFile string) (SeedResult, error) {
	var result SeedResult

	if path, err := FindSeedFile(anzsicFile); err == nil {
		mappings, err := ReadAnzsicFile(path)
		if err != nil {
			return result, err
		}
		if result.Mappings, err = l.store.BulkInsertAnzsicMappings(ctx, mappings); err != nil {
			return result, fmt.Errorf("failed to seed ANZSIC mappings: %w", err)
		}
		l.logger.Info("Seeded ANZSIC mappings",
			logging.F(logging.FieldFile, path),
			logging.F("inserted", result.Mappings.Inserted),
			logging.F("skipped", result.Mappings.Skipped))
	} else if errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("ANZSIC seed file not found", logging.F(logging.FieldFile, anzsicFile))
	}

	if path, err := FindSeedFile(merchantsFile); err == nil {
		merchants, err := ReadMerchantsFile(path)
		if err != nil {
			return result, err
		}
		if result.Merchants, err = l.store.BulkInsertMerchants(ctx, merchants); err != nil {
			return result, fmt.Errorf("failed to seed merchants: %w", err)
		}
		l.logger.Info("Seeded merchants",
			logging.F(logging.FieldFile, path),
			logging.F("inserted", result.Merchants.Inserted),
			logging.F("skipped", result.Merchants.Skipped))
	} else if errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("Merchant seed file not found", logging.F(logging.FieldFile, merchantsFile))
	}

	return result, nil
}
