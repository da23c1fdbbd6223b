// Package parse converts a bank PDF statement into normalized transactions.
package parse

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"taxtally/deductions/cmd/common"
	"taxtally/deductions/cmd/root"
	internalcommon "taxtally/deductions/internal/common"
	"taxtally/deductions/internal/factory"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/statement"
	"taxtally/deductions/internal/validation"
)

var (
	bank   string
	format string
)

// Cmd represents the parse command
var Cmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a bank PDF statement",
	Long: `Parse an ANZ, CBA, Westpac or American Express PDF statement into
normalized transactions (negative amounts are outflows) and write them as CSV
or JSON.`,
	Example: "  taxtally parse --bank anz -i statement.pdf -o transactions.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		return Run(cmd.Context(), c.GetStatementService(), Options{
			Bank:      bank,
			Input:     root.SharedFlags.Input,
			Output:    root.SharedFlags.Output,
			Format:    format,
			Delimiter: internalcommon.ParseDelimiter(c.GetConfig().CSV.Delimiter),
		}, cmd.OutOrStdout(), root.GetLogger())
	},
}

func init() {
	Cmd.Flags().StringVarP(&bank, "bank", "b", "", "Statement bank: "+strings.Join(factory.SupportedBanks(), ", "))
	Cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: csv or json (default from --output extension)")
	_ = Cmd.MarkFlagRequired("bank")
}

// Options are the inputs of a parse run.
type Options struct {
	Bank      string
	Input     string
	Output    string
	Format    string
	Delimiter rune
}

// Run parses opts.Input with svc and writes the transactions.
func Run(ctx context.Context, svc *statement.Service, opts Options, stdout io.Writer, log logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	outFormat, err := common.FormatFor(opts.Format, opts.Output)
	if err != nil {
		return err
	}
	data, err := common.ReadInput(opts.Input)
	if err != nil {
		return err
	}

	res, err := svc.Process(ctx, statement.Upload{
		FileName:    filepath.Base(opts.Input),
		ContentType: validation.PDFContentType,
		Data:        data,
		Bank:        opts.Bank,
	})
	if err != nil {
		return err
	}

	log.Info("Statement converted",
		logging.F(logging.FieldFile, opts.Input),
		logging.F(logging.FieldBank, res.Metadata.Bank),
		logging.F(logging.FieldCount, res.TransactionCount))
	return common.WriteRows(res.Transactions, opts.Output, outFormat, opts.Delimiter, stdout, log)
}
