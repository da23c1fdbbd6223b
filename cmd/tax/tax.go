// Package tax prints the per financial year deduction summary for a
// classified transactions file.
package tax

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"taxtally/deductions/cmd/common"
	"taxtally/deductions/cmd/root"
	"taxtally/deductions/internal/aggregation"
	internalcommon "taxtally/deductions/internal/common"
	"taxtally/deductions/internal/currencyutils"
	"taxtally/deductions/internal/dateutils"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
)

var (
	financialYear string
	income        string
	userID        string
	format        string
)

// Cmd represents the tax command
var Cmd = &cobra.Command{
	Use:   "tax",
	Short: "Summarise deductions for a financial year",
	Long: `Summarise a classified transactions CSV (the output of "classify") for one
Australian financial year: totals, monthly trend, category breakdown and the
estimated tax saving at the marginal rate for the given income.`,
	Example: "  taxtally tax -i classified.csv --fy FY2025 --income 95000",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		var provider aggregation.IncomeProvider = UnknownIncome{}
		switch {
		case income != "":
			amount, err := decimal.NewFromString(income)
			if err != nil || amount.IsNegative() {
				return fmt.Errorf("invalid --income %q", income)
			}
			provider = FixedIncome(amount)
		case userID != "":
			provider = c.GetResolver().State()
		}
		svc := aggregation.NewService(provider, root.GetLogger(), nil)
		return Run(cmd.Context(), svc, Options{
			Input:         root.SharedFlags.Input,
			FinancialYear: financialYear,
			UserID:        userID,
			Format:        format,
			Delimiter:     internalcommon.ParseDelimiter(c.GetConfig().CSV.Delimiter),
		}, cmd.OutOrStdout(), root.GetLogger())
	},
}

func init() {
	Cmd.Flags().StringVar(&financialYear, "fy", "", "Financial year, e.g. FY2025 (default current)")
	Cmd.Flags().StringVar(&income, "income", "", "Annual taxable income used for the marginal rate")
	Cmd.Flags().StringVarP(&userID, "user", "u", "", "Read the annual income from this user's stored profile")
	Cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
}

// FixedIncome is an IncomeProvider returning the same income for everyone.
type FixedIncome decimal.Decimal

// AnnualIncome implements aggregation.IncomeProvider.
func (f FixedIncome) AnnualIncome(context.Context, string) (decimal.Decimal, bool, error) {
	return decimal.Decimal(f), true, nil
}

// UnknownIncome is an IncomeProvider that never knows the income.
type UnknownIncome struct{}

// AnnualIncome implements aggregation.IncomeProvider.
func (UnknownIncome) AnnualIncome(context.Context, string) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, nil
}

// Options are the inputs of a tax run.
type Options struct {
	Input         string
	FinancialYear string
	UserID        string
	Format        string
	Delimiter     rune
}

// Run reads opts.Input, builds the summary and prints it.
func Run(ctx context.Context, svc *aggregation.Service, opts Options, stdout io.Writer, log logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fy := opts.FinancialYear
	if fy != "" {
		parsed, err := dateutils.ParseFinancialYear(fy)
		if err != nil {
			return err
		}
		fy = parsed.String()
	}
	if _, err := common.ReadInput(opts.Input); err != nil {
		return err
	}
	txs, err := internalcommon.ReadCSVFile[models.ClassifiedTransaction](opts.Input, opts.Delimiter, log)
	if err != nil {
		return err
	}

	summary, err := svc.Summary(ctx, opts.UserID, txs, fy)
	if err != nil {
		return err
	}

	switch opts.Format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case "text", "":
		return writeText(stdout, summary)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

func writeText(w io.Writer, s *aggregation.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Financial year\t%s\n", s.FinancialYear)
	fmt.Fprintf(tw, "Transactions\t%d\n", s.Stats.TransactionCount)
	fmt.Fprintf(tw, "Accounts\t%d\n", s.Stats.AccountCount)
	fmt.Fprintf(tw, "Total expenses\t%s\n", currencyutils.FormatAUD(s.Stats.TotalExpenses))
	fmt.Fprintf(tw, "Total deductions\t%s\n", currencyutils.FormatAUD(s.Stats.TotalDeductions))
	if s.IncomeKnown {
		fmt.Fprintf(tw, "Marginal rate\t%s%%\n", s.Stats.MarginalRate.String())
		fmt.Fprintf(tw, "Estimated tax saving\t%s\n", currencyutils.FormatAUD(s.Stats.EstimatedTaxSavings))
	} else {
		fmt.Fprintf(tw, "Estimated tax saving\tunknown (no income)\n")
	}

	if len(s.Categories) > 0 {
		fmt.Fprintf(tw, "\nCategory\tDeductions\tCount\tShare\n")
		for _, c := range s.Categories {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s%%\n", c.Category, currencyutils.FormatAUD(c.Amount), c.Count, c.Percentage.StringFixed(1))
		}
	}
	if len(s.MonthlyTrend) > 0 {
		fmt.Fprintf(tw, "\nMonth\tIncome\tExpenses\tDeductions\n")
		for _, m := range s.MonthlyTrend {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Month, currencyutils.FormatAUD(m.Income), currencyutils.FormatAUD(m.Expenses), currencyutils.FormatAUD(m.Deductions))
		}
	}
	return tw.Flush()
}
