// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"taxtally/deductions/internal/config"
	"taxtally/deductions/internal/container"
	"taxtally/deductions/internal/logging"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input  string
	Output string
}

var (
	// Log is the shared logger for commands. It is replaced once the
	// configuration is loaded.
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// AppConfig is the loaded configuration.
	AppConfig *config.Config

	// AppContainer holds the wired services for the running command.
	AppContainer *container.Container

	// SharedFlags are accessible to all commands.
	SharedFlags = CommonFlags{}

	configFile string
	logLevel   string
	logFormat  string
	storage    string

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "taxtally",
		Short: "Track ATO tax deductions from Australian bank statements.",
		Long: `taxtally parses ANZ, CBA, Westpac and American Express PDF statements,
classifies each transaction into an ATO deduction category and summarises
deductions per financial year. It runs as a CLI or as an HTTP service.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to taxtally!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initialize(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown(cmd.Context())
		},
	}
)

// Init registers the persistent flags. It must be called once before
// Execute.
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file")
	Cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default searches ./config.yaml and ~/.taxtally)")
	Cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")
	Cmd.PersistentFlags().StringVar(&storage, "storage", "", "Storage driver (memory, file, firestore)")
}

func initialize(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	config.LoadEnv()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if storage != "" {
		cfg.Storage.Driver = storage
	}
	AppConfig = cfg
	Log = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)

	c, err := container.NewContainerWithLogger(ctx, cfg, Log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	AppContainer = c
	return nil
}

// shutdown persists learned merchants and releases the container.
func shutdown(ctx context.Context) {
	if AppContainer == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if res, err := AppContainer.FlushLearned(ctx); err != nil {
		Log.WithError(err).Warn("Failed to persist learned merchants")
	} else if res.Inserted > 0 || res.UsageUpdates > 0 {
		Log.Info("Persisted learned merchants",
			logging.F("inserted", res.Inserted),
			logging.F("usage_updates", res.UsageUpdates))
	}
	if err := AppContainer.Close(); err != nil {
		Log.WithError(err).Warn("Failed to close container")
	}
	AppContainer = nil
}

// GetContainer returns the container built for the running command, or nil.
func GetContainer() *container.Container {
	return AppContainer
}

// GetConfig returns the loaded configuration, or nil before initialization.
func GetConfig() *config.Config {
	return AppConfig
}

// GetLogger returns the shared logger.
func GetLogger() logging.Logger {
	return Log
}
