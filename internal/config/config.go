// Package config loads the hierarchical application configuration:
// defaults, then an optional config.yaml, then TAXTALLY_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// TAXTALLY_SERVER_PORT.
const EnvPrefix = "TAXTALLY"

// Storage drivers.
const (
	StorageMemory    = "memory"
	StorageFile      = "file"
	StorageFirestore = "firestore"
)

// PDF extractors.
const (
	ExtractorLibrary   = "library"
	ExtractorPdfToText = "pdftotext"
)

// Config is the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Server struct {
		Port           int      `mapstructure:"port" yaml:"port"`
		AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	} `mapstructure:"server" yaml:"server"`

	Upload struct {
		MaxBytes int64 `mapstructure:"max_bytes" yaml:"max_bytes"`
	} `mapstructure:"upload" yaml:"upload"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		MaxConcurrency int    `mapstructure:"max_concurrency" yaml:"max_concurrency"`
		// EscalationThreshold is the confidence below which heuristic
		// results are sent to the AI tier.
		EscalationThreshold int    `mapstructure:"escalation_threshold" yaml:"escalation_threshold"`
		APIKey              string `mapstructure:"api_key" yaml:"-"`
	} `mapstructure:"ai" yaml:"ai"`

	Storage struct {
		Driver           string `mapstructure:"driver" yaml:"driver"`
		DataDir          string `mapstructure:"data_dir" yaml:"data_dir"`
		FirestoreProject string `mapstructure:"firestore_project" yaml:"firestore_project"`
	} `mapstructure:"storage" yaml:"storage"`

	Seed struct {
		MerchantsFile string `mapstructure:"merchants_file" yaml:"merchants_file"`
		AnzsicFile    string `mapstructure:"anzsic_file" yaml:"anzsic_file"`
	} `mapstructure:"seed" yaml:"seed"`

	Classification struct {
		CacheTTL        time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
		LearningEnabled bool          `mapstructure:"learning_enabled" yaml:"learning_enabled"`
	} `mapstructure:"classification" yaml:"classification"`

	OpenBanking struct {
		BaseURL      string `mapstructure:"base_url" yaml:"base_url"`
		TokenURL     string `mapstructure:"token_url" yaml:"token_url"`
		ClientID     string `mapstructure:"client_id" yaml:"client_id"`
		ClientSecret string `mapstructure:"client_secret" yaml:"-"`
		RedirectURL  string `mapstructure:"redirect_url" yaml:"redirect_url"`
	} `mapstructure:"openbanking" yaml:"openbanking"`

	Parsers struct {
		PDF struct {
			Extractor string `mapstructure:"extractor" yaml:"extractor"`
		} `mapstructure:"pdf" yaml:"pdf"`
	} `mapstructure:"parsers" yaml:"parsers"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`
}

// InitializeConfig loads configuration from the standard locations.
func InitializeConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration. When configFile is non-empty it is used instead
// of searching $HOME/.taxtally, .taxtally and the working directory.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.taxtally")
		v.AddConfigPath(".taxtally")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			if configFile != "" {
				return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
			}
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// Secrets keep their conventional unprefixed names.
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}
	if err := v.BindEnv("openbanking.client_secret", "OPENBANKING_CLIENT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENBANKING_CLIENT_SECRET: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("upload.max_bytes", 10*1024*1024)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.max_concurrency", 4)
	v.SetDefault("ai.escalation_threshold", 60)
	v.SetDefault("ai.api_key", "")

	v.SetDefault("storage.driver", StorageMemory)
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.firestore_project", "")

	v.SetDefault("seed.merchants_file", "merchants.yaml")
	v.SetDefault("seed.anzsic_file", "anzsic_mappings.yaml")

	v.SetDefault("classification.cache_ttl", 24*time.Hour)
	v.SetDefault("classification.learning_enabled", true)

	v.SetDefault("openbanking.base_url", "")
	v.SetDefault("openbanking.token_url", "")
	v.SetDefault("openbanking.client_id", "")
	v.SetDefault("openbanking.client_secret", "")
	v.SetDefault("openbanking.redirect_url", "")

	v.SetDefault("parsers.pdf.extractor", ExtractorLibrary)

	v.SetDefault("csv.delimiter", ",")
}

func validateConfig(cfg *Config) error {
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", cfg.Log.Format)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", cfg.Server.Port)
	}
	if cfg.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive, got: %d", cfg.Upload.MaxBytes)
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}
		if cfg.AI.TimeoutSeconds < 1 || cfg.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", cfg.AI.TimeoutSeconds)
		}
	}
	if cfg.AI.MaxConcurrency < 1 {
		return fmt.Errorf("ai.max_concurrency must be at least 1, got: %d", cfg.AI.MaxConcurrency)
	}
	if cfg.AI.EscalationThreshold < 0 || cfg.AI.EscalationThreshold > 100 {
		return fmt.Errorf("ai.escalation_threshold must be between 0 and 100, got: %d", cfg.AI.EscalationThreshold)
	}

	switch cfg.Storage.Driver {
	case StorageMemory, StorageFile:
	case StorageFirestore:
		if cfg.Storage.FirestoreProject == "" {
			return fmt.Errorf("storage.firestore_project required for the firestore driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver: %s", cfg.Storage.Driver)
	}

	if cfg.Classification.CacheTTL <= 0 {
		return fmt.Errorf("classification.cache_ttl must be positive, got: %s", cfg.Classification.CacheTTL)
	}

	switch cfg.Parsers.PDF.Extractor {
	case ExtractorLibrary, ExtractorPdfToText:
	default:
		return fmt.Errorf("unknown parsers.pdf.extractor: %s", cfg.Parsers.PDF.Extractor)
	}

	if len(cfg.CSV.Delimiter) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", cfg.CSV.Delimiter)
	}
	return nil
}

// OpenBankingEnabled reports whether enough credentials are configured to
// talk to the aggregator.
func (c *Config) OpenBankingEnabled() bool {
	return c.OpenBanking.BaseURL != "" && c.OpenBanking.ClientID != "" && c.OpenBanking.ClientSecret != ""
}

// AITimeout returns the per-request AI deadline.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}
