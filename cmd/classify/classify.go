// Package classify handles transaction classification commands
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taxtally/deductions/cmd/common"
	"taxtally/deductions/cmd/root"
	"taxtally/deductions/internal/categorizer"
	internalcommon "taxtally/deductions/internal/common"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/reconcile"
)

var (
	description string
	userID      string
	categories  []string
	format      string
)

// Cmd represents the classify command
var Cmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify transactions into ATO deduction categories",
	Long: `Classify a single description, or every row of a transactions CSV produced
by "parse", into an ATO deduction category. With --user the stored overrides,
toggles and classification cache of that user are applied.`,
	Example: `  taxtally classify --description "SHELL COLES EXPRESS 123"
  taxtally classify -i transactions.csv -o classified.csv --user alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		log := root.GetLogger()
		if description != "" {
			return Describe(cmd.Context(), c.GetBatchClassifier(), description, filterFor(cmd), cmd.OutOrStdout())
		}
		return Run(cmd.Context(), Deps{Batch: c.GetBatchClassifier(), Resolver: c.GetResolver()}, Options{
			Input:      root.SharedFlags.Input,
			Output:     root.SharedFlags.Output,
			Format:     format,
			UserID:     userID,
			Categories: filterFor(cmd),
			Delimiter:  internalcommon.ParseDelimiter(c.GetConfig().CSV.Delimiter),
		}, cmd.OutOrStdout(), log)
	},
}

func init() {
	Cmd.Flags().StringVarP(&description, "description", "d", "", "Classify a single transaction description")
	Cmd.Flags().StringVarP(&userID, "user", "u", "", "Apply this user's overrides, toggles and cache")
	Cmd.Flags().StringArrayVarP(&categories, "categories", "c", nil, "Enabled ATO category, repeatable (default all)")
	Cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: csv or json (default from --output extension)")
}

func filterFor(cmd *cobra.Command) categorizer.CategoryFilter {
	if !cmd.Flags().Changed("categories") {
		return categorizer.AllCategories()
	}
	return categorizer.EnabledCategories(categories)
}

// Deps are the services a classify run uses. Resolver is only needed when a
// user is given.
type Deps struct {
	Batch    reconcile.BatchClassifier
	Resolver *reconcile.Resolver
}

// Options are the inputs of a classify run.
type Options struct {
	Input      string
	Output     string
	Format     string
	UserID     string
	Categories categorizer.CategoryFilter
	Delimiter  rune
}

// Describe classifies one description and prints the result as JSON.
func Describe(ctx context.Context, batch reconcile.BatchClassifier, desc string, filter categorizer.CategoryFilter, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results := batch.ClassifyBatch(ctx, []categorizer.BatchInput{{Description: desc}}, filter)
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results[0])
}

// Run classifies every row of opts.Input and writes the classified rows.
func Run(ctx context.Context, deps Deps, opts Options, stdout io.Writer, log logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	outFormat, err := common.FormatFor(opts.Format, opts.Output)
	if err != nil {
		return err
	}
	if _, err := common.ReadInput(opts.Input); err != nil {
		return err
	}
	raw, err := internalcommon.ReadCSVFile[models.RawTransaction](opts.Input, opts.Delimiter, log)
	if err != nil {
		return err
	}
	for i := range raw {
		raw[i].Type = models.TypeForAmount(raw[i].Amount)
	}

	var out []models.ClassifiedTransaction
	if opts.UserID != "" {
		if deps.Resolver == nil {
			return fmt.Errorf("per-user classification is not available")
		}
		if out, err = deps.Resolver.Resolve(ctx, opts.UserID, raw); err != nil {
			return err
		}
	} else {
		out = classifyAll(ctx, deps.Batch, raw, opts.Categories)
	}

	internalcommon.NewClassificationStats(out).LogSummary(log, "classify")
	return common.WriteRows(out, opts.Output, outFormat, opts.Delimiter, stdout, log)
}

func classifyAll(ctx context.Context, batch reconcile.BatchClassifier, raw []models.RawTransaction, filter categorizer.CategoryFilter) []models.ClassifiedTransaction {
	inputs := make([]categorizer.BatchInput, len(raw))
	for i, tx := range raw {
		inputs[i] = categorizer.BatchInput{Description: tx.Description, Amount: tx.Amount}
	}
	results := batch.ClassifyBatch(ctx, inputs, filter)

	out := make([]models.ClassifiedTransaction, len(raw))
	for i, tx := range raw {
		out[i] = reconcile.FromClassification(tx, results[i])
	}
	return out
}
