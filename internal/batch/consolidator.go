// Package batch consolidates many statements of the same account into one
// chronologically ordered transaction list.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"taxtally/deductions/internal/common"
	"taxtally/deductions/internal/dateutils"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/statement"
	"taxtally/deductions/internal/validation"
)

// DateRange is an inclusive span of transaction dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String renders "YYYY-MM-DD_YYYY-MM-DD", or "" for an empty range.
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return dr.Start.Format("2006-01-02") + "_" + dr.End.Format("2006-01-02")
}

// Include widens the range to cover t.
func (dr DateRange) Include(t time.Time) DateRange {
	if dr.Start.IsZero() || t.Before(dr.Start) {
		dr.Start = t
	}
	if dr.End.IsZero() || t.After(dr.End) {
		dr.End = t
	}
	return dr
}

// Group is the set of statement files that belong to one account.
type Group struct {
	AccountID string
	Bank      models.BankID
	Files     []string
}

// FileError records a statement that could not be parsed.
type FileError struct {
	File string
	Err  error
}

// Result is one consolidated account.
type Result struct {
	AccountID    string
	Transactions []models.RawTransaction
	SourceFiles  []string
	Failed       []FileError
	Duplicates   int
	DateRange    DateRange
}

// Processor parses one statement upload.
type Processor interface {
	Process(ctx context.Context, upload statement.Upload) (*statement.Result, error)
}

// Consolidator parses and merges statements.
type Consolidator struct {
	processor   Processor
	logger      logging.Logger
	concurrency int
}

// NewConsolidator creates a consolidator parsing up to concurrency files at a
// time.
func NewConsolidator(processor Processor, logger logging.Logger, concurrency int) *Consolidator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consolidator{processor: processor, logger: logger, concurrency: concurrency}
}

// GroupFilesByAccount groups files of one bank by the account number found in
// their names. Files without an account number share the bank-level group.
func (c *Consolidator) GroupFilesByAccount(bank models.BankID, files []string) []Group {
	byAccount := make(map[string]*Group)
	for _, file := range files {
		accountID := common.AccountIDFromFileName(bank, filepath.Base(file))
		g, ok := byAccount[accountID]
		if !ok {
			g = &Group{AccountID: accountID, Bank: bank}
			byAccount[accountID] = g
		}
		g.Files = append(g.Files, file)
		c.logger.Debug("File mapped to account",
			logging.F(logging.FieldFile, filepath.Base(file)),
			logging.F("account", accountID))
	}

	groups := make([]Group, 0, len(byAccount))
	for _, g := range byAccount {
		sort.Strings(g.Files)
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].AccountID < groups[j].AccountID })

	c.logger.Info("Grouped statements by account",
		logging.F("total_files", len(files)),
		logging.F("account_groups", len(groups)))
	return groups
}

// Consolidate parses every file of g. A file that fails is recorded in
// Result.Failed and skipped. Rows repeated across files (same date, amount
// and description) are kept once; repeats inside a single statement are real
// purchases and are kept.
func (c *Consolidator) Consolidate(ctx context.Context, g Group) (*Result, error) {
	parsed := make([][]models.RawTransaction, len(g.Files))
	errs := make([]error, len(g.Files))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.concurrency)
	for i, file := range g.Files {
		eg.Go(func() error {
			txs, err := c.parseFile(egCtx, g.Bank, file)
			parsed[i], errs[i] = txs, err
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{AccountID: g.AccountID}
	seen := make(map[string]int)
	for i, file := range g.Files {
		if errs[i] != nil {
			c.logger.WithError(errs[i]).Warn("Failed to parse statement",
				logging.F(logging.FieldFile, file))
			res.Failed = append(res.Failed, FileError{File: file, Err: errs[i]})
			continue
		}
		res.SourceFiles = append(res.SourceFiles, filepath.Base(file))
		for _, tx := range parsed[i] {
			key := duplicateKey(tx)
			if owner, ok := seen[key]; ok && owner != i {
				res.Duplicates++
				continue
			}
			seen[key] = i
			tx.AccountID = g.AccountID
			res.Transactions = append(res.Transactions, tx)
		}
	}

	sortChronologically(res.Transactions)
	res.DateRange = dateRangeOf(res.Transactions)

	if res.Duplicates > 0 {
		c.logger.Warn("Dropped transactions repeated across statements",
			logging.F("account", g.AccountID),
			logging.F(logging.FieldCount, res.Duplicates))
	}
	c.logger.Info("Consolidated account",
		logging.F("account", g.AccountID),
		logging.F(logging.FieldCount, len(res.Transactions)),
		logging.F("source_files", strings.Join(res.SourceFiles, ", ")))
	return res, nil
}

func (c *Consolidator) parseFile(ctx context.Context, bank models.BankID, file string) ([]models.RawTransaction, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	res, err := c.processor.Process(ctx, statement.Upload{
		FileName:    filepath.Base(file),
		ContentType: validation.PDFContentType,
		Data:        data,
		Bank:        string(bank),
	})
	if err != nil {
		return nil, err
	}
	return res.Transactions, nil
}

func duplicateKey(tx models.RawTransaction) string {
	return tx.Date + "|" + tx.Amount.String() + "|" + strings.ToLower(strings.Join(strings.Fields(tx.Description), " "))
}

// sortChronologically orders by date; ties keep statement order.
func sortChronologically(txs []models.RawTransaction) {
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date < txs[j].Date })
}

func dateRangeOf(txs []models.RawTransaction) DateRange {
	var dr DateRange
	for _, tx := range txs {
		if d, err := dateutils.ParseISODate(tx.Date); err == nil {
			dr = dr.Include(d)
		}
	}
	return dr
}

// OutputFileName names the consolidated CSV: "{account}_{start}_{end}.csv",
// or "{account}.csv" without a date range.
func OutputFileName(accountID string, dr DateRange) string {
	name := common.SanitizeAccountID(accountID)
	if s := dr.String(); s != "" {
		return name + "_" + s + ".csv"
	}
	return name + ".csv"
}
