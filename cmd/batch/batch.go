// Package batch consolidates a directory of statements into one CSV per
// account.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"taxtally/deductions/cmd/root"
	internalbatch "taxtally/deductions/internal/batch"
	"taxtally/deductions/internal/common"
	"taxtally/deductions/internal/factory"
	"taxtally/deductions/internal/fileutils"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
)

var bank string

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Consolidate a directory of statements per account",
	Long: `Parse every PDF statement of one bank found in the input directory, group
them by the account number in their file names and write one chronologically
ordered CSV per account to the output directory. Rows repeated across
overlapping statements are written once.`,
	Example: "  taxtally batch --bank westpac -i statements/ -o consolidated/",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		cfg := c.GetConfig()
		consolidator := internalbatch.NewConsolidator(c.GetStatementService(), root.GetLogger(), cfg.AI.MaxConcurrency)
		summary, err := Run(cmd.Context(), consolidator, Options{
			Bank:      bank,
			InputDir:  root.SharedFlags.Input,
			OutputDir: root.SharedFlags.Output,
			Delimiter: common.ParseDelimiter(cfg.CSV.Delimiter),
		}, root.GetLogger())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d account file(s) written, %d statement(s) failed\n",
			len(summary.Written), summary.Failed)
		return nil
	},
}

func init() {
	Cmd.Flags().StringVarP(&bank, "bank", "b", "", "Statement bank: "+strings.Join(factory.SupportedBanks(), ", "))
	_ = Cmd.MarkFlagRequired("bank")
}

// Options are the inputs of a batch run.
type Options struct {
	Bank      string
	InputDir  string
	OutputDir string
	Delimiter rune
}

// Summary reports what a batch run produced.
type Summary struct {
	Written []string
	Failed  int
}

// Run consolidates every *.pdf file of opts.InputDir. Accounts whose
// statements all fail produce no file.
func Run(ctx context.Context, c *internalbatch.Consolidator, opts Options, log logging.Logger) (*Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.InputDir == "" || opts.OutputDir == "" {
		return nil, fmt.Errorf("input and output directories must be specified")
	}
	b := models.BankID(strings.ToLower(strings.TrimSpace(opts.Bank)))
	if _, err := factory.GetParserWithLogger(b, log, nil); err != nil {
		return nil, err
	}
	if err := fileutils.EnsureDirectoryExists(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files, err := listStatements(opts.InputDir)
	if err != nil {
		return nil, err
	}
	summary := &Summary{}
	if len(files) == 0 {
		log.Warn("No PDF statements found in input directory",
			logging.F("dir", opts.InputDir))
		return summary, nil
	}

	for _, group := range c.GroupFilesByAccount(b, files) {
		res, err := c.Consolidate(ctx, group)
		if err != nil {
			return summary, err
		}
		summary.Failed += len(res.Failed)
		if len(res.Transactions) == 0 {
			log.Warn("No transactions found for account",
				logging.F("account", group.AccountID))
			continue
		}

		out := filepath.Join(opts.OutputDir, internalbatch.OutputFileName(res.AccountID, res.DateRange))
		if err := common.WriteTransactionsToCSV(res.Transactions, out, opts.Delimiter, log); err != nil {
			log.WithError(err).Error("Failed to write consolidated CSV",
				logging.F("account", group.AccountID),
				logging.F(logging.FieldOutputFile, out))
			continue
		}
		summary.Written = append(summary.Written, out)
	}

	log.Info("Batch processing completed",
		logging.F("written", len(summary.Written)),
		logging.F("failed", summary.Failed))
	return summary, nil
}

func listStatements(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
