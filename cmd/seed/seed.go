// Package seed loads reference merchants and ANZSIC mappings and reports the
// merchant table.
package seed

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"taxtally/deductions/cmd/root"
	"taxtally/deductions/internal/categorizer"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/store"
)

var (
	merchantsFile string
	anzsicFile    string
	top           int
)

// Cmd represents the seed command
var Cmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference merchants and ANZSIC mappings",
	Long: `Load merchants and ANZSIC-to-ATO mappings from YAML seed files into the
configured reference store, then print merchant statistics. Existing records
are kept; only new keys are inserted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		cfg := c.GetConfig()
		if merchantsFile == "" {
			merchantsFile = cfg.Seed.MerchantsFile
		}
		if anzsicFile == "" {
			anzsicFile = cfg.Seed.AnzsicFile
		}
		return Run(cmd.Context(), c.GetReferenceStore(), c.GetMerchantIndex(), merchantsFile, anzsicFile, top, cmd.OutOrStdout(), root.GetLogger())
	},
}

func init() {
	Cmd.Flags().StringVarP(&merchantsFile, "merchants", "m", "", "Merchants seed file (default seed.merchants_file)")
	Cmd.Flags().StringVarP(&anzsicFile, "anzsic", "a", "", "ANZSIC mappings seed file (default seed.anzsic_file)")
	Cmd.Flags().IntVarP(&top, "top", "t", 10, "Number of most used merchants to list")
}

// Report is what the seed command prints.
type Report struct {
	Seeded store.SeedResult    `yaml:"seeded"`
	Stats  store.MerchantStats `yaml:"stats"`
}

// Run seeds refs, refreshes index with the active merchants and prints a
// YAML report.
func Run(ctx context.Context, refs store.ReferenceStore, index *categorizer.MerchantIndex, merchants, anzsic string, topN int, stdout io.Writer, log logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := store.NewSeedLoader(refs, log).Seed(ctx, merchants, anzsic)
	if err != nil {
		return err
	}

	if index != nil {
		active, err := refs.ListActiveMerchants(ctx)
		if err != nil {
			return fmt.Errorf("failed to reload merchants: %w", err)
		}
		index.Load(active)
	}

	stats, err := refs.MerchantStats(ctx, topN)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(Report{Seeded: result, Stats: stats}); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return enc.Close()
}
