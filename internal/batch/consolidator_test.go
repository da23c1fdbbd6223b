package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/pdfparser"
	"taxtally/deductions/internal/statement"
)

type fakeProcessor struct {
	results map[string][]models.RawTransaction
}

func (f fakeProcessor) Process(_ context.Context, upload statement.Upload) (*statement.Result, error) {
	txs, ok := f.results[upload.FileName]
	if !ok {
		return nil, errors.New("unreadable statement")
	}
	out := append([]models.RawTransaction(nil), txs...)
	return &statement.Result{Success: true, Transactions: out, TransactionCount: len(out)}, nil
}

func tx(date, desc, amount string) models.RawTransaction {
	return models.RawTransaction{Date: date, Description: desc, Amount: decimal.RequireFromString(amount)}
}

func touch(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(paths[i], []byte("%PDF-1.4"), 0600))
	}
	return paths
}

func TestGroupFilesByAccount(t *testing.T) {
	c := NewConsolidator(fakeProcessor{}, logging.NewMockLogger(), 2)
	groups := c.GroupFilesByAccount(models.BankANZ, []string{
		"/in/anz_aug_1234.pdf",
		"/in/anz_jul_1234.pdf",
		"/in/anz_jul_9876.pdf",
		"/in/statement.pdf",
	})

	require.Len(t, groups, 3)
	assert.Equal(t, "anz", groups[0].AccountID)
	assert.Equal(t, "anz-1234", groups[1].AccountID)
	assert.Equal(t, []string{"/in/anz_aug_1234.pdf", "/in/anz_jul_1234.pdf"}, groups[1].Files)
	assert.Equal(t, "anz-9876", groups[2].AccountID)
	assert.Equal(t, models.BankANZ, groups[2].Bank)
}

func TestConsolidate_MergesSortsAndDropsCrossFileDuplicates(t *testing.T) {
	dir := t.TempDir()
	files := touch(t, dir, "july.pdf", "august.pdf", "broken.pdf")
	proc := fakeProcessor{results: map[string][]models.RawTransaction{
		"july.pdf": {
			tx("2024-07-30", "OFFICEWORKS", "-20"),
			tx("2024-07-02", "COFFEE", "-4.50"),
			tx("2024-07-02", "COFFEE", "-4.50"),
		},
		"august.pdf": {
			tx("2024-07-30", "OFFICEWORKS ", "-20"),
			tx("2024-08-03", "SALARY", "3000"),
		},
	}}
	logger := logging.NewMockLogger()
	c := NewConsolidator(proc, logger, 3)

	res, err := c.Consolidate(context.Background(), Group{AccountID: "anz-1234", Bank: models.BankANZ, Files: files})
	require.NoError(t, err)

	require.Len(t, res.Transactions, 4)
	assert.Equal(t, "COFFEE", res.Transactions[0].Description)
	assert.Equal(t, "COFFEE", res.Transactions[1].Description)
	assert.Equal(t, "OFFICEWORKS", res.Transactions[2].Description)
	assert.Equal(t, "SALARY", res.Transactions[3].Description)
	for _, tx := range res.Transactions {
		assert.Equal(t, "anz-1234", tx.AccountID)
	}
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, []string{"july.pdf", "august.pdf"}, res.SourceFiles)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, files[2], res.Failed[0].File)
	assert.Equal(t, "2024-07-02_2024-08-03", res.DateRange.String())
	assert.True(t, logger.HasEntry("WARN", "Failed to parse statement"))
	assert.True(t, logger.HasEntry("WARN", "Dropped transactions repeated across statements"))
}

func TestConsolidate_MissingFile(t *testing.T) {
	c := NewConsolidator(fakeProcessor{}, logging.NewMockLogger(), 1)
	res, err := c.Consolidate(context.Background(), Group{AccountID: "anz", Files: []string{filepath.Join(t.TempDir(), "gone.pdf")}})
	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
	require.Len(t, res.Failed, 1)
}

func TestConsolidate_RealStatementService(t *testing.T) {
	text := "01/07/2024 01/07/2024 1234 OFFICEWORKS 45.67 123.00"
	svc := statement.NewService(pdfparser.NewMockExtractor(text, nil), logging.NewMockLogger(), 0,
		func() time.Time { return time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC) })
	c := NewConsolidator(svc, logging.NewMockLogger(), 1)

	files := touch(t, t.TempDir(), "anz_4567_a.pdf", "anz_4567_b.pdf")
	res, err := c.Consolidate(context.Background(), Group{AccountID: "anz-4567", Bank: models.BankANZ, Files: files})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "-45.67", res.Transactions[0].Amount.String())
	assert.Equal(t, 1, res.Duplicates)
}

func TestConsolidate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewConsolidator(fakeProcessor{}, logging.NewMockLogger(), 1)
	_, err := c.Consolidate(ctx, Group{AccountID: "anz"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDateRange(t *testing.T) {
	var dr DateRange
	assert.Equal(t, "", dr.String())
	dr = dr.Include(time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC))
	dr = dr.Include(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	dr = dr.Include(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-07-01_2024-08-01", dr.String())
}

func TestOutputFileName(t *testing.T) {
	dr := DateRange{Start: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "anz-1234_2024-07-01_2024-07-31.csv", OutputFileName("anz-1234", dr))
	assert.Equal(t, "anz-1234.csv", OutputFileName("anz-1234", DateRange{}))
	assert.Equal(t, "a_b.csv", OutputFileName("a/b", DateRange{}))
}
