package batch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/cmd/batch"
	internalbatch "taxtally/deductions/internal/batch"
	"taxtally/deductions/internal/common"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/pdfparser"
	"taxtally/deductions/internal/statement"
)

const anzText = `01/07/2024 01/07/2024 1234 OFFICEWORKS 45.67 123.00
03/07/2024 02/07/2024 1234 PAYMENT THANKYOU 500.00 CR 1,000.00`

func newConsolidator(text string, log logging.Logger) *internalbatch.Consolidator {
	svc := statement.NewService(pdfparser.NewMockExtractor(text, nil), log, 0, nil)
	return internalbatch.NewConsolidator(svc, log, 1)
}

func writePDFs(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4"), 0600))
	}
}

func TestBatchCommand_Metadata(t *testing.T) {
	assert.Equal(t, "batch", batch.Cmd.Use)
	assert.Contains(t, batch.Cmd.Short, "per account")
	assert.NotNil(t, batch.Cmd.RunE)
	require.NotNil(t, batch.Cmd.Flags().Lookup("bank"))
	assert.Equal(t, "b", batch.Cmd.Flags().Lookup("bank").Shorthand)
}

func TestRun_WritesOneFilePerAccount(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "consolidated")
	writePDFs(t, in, "anz_jul_1234.pdf", "anz_aug_1234.PDF", "anz_jul_9876.pdf")
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("x"), 0600))
	log := logging.NewMockLogger()

	summary, err := batch.Run(context.Background(), newConsolidator(anzText, log), batch.Options{
		Bank: "ANZ", InputDir: in, OutputDir: out, Delimiter: ',',
	}, log)
	require.NoError(t, err)

	require.Len(t, summary.Written, 2)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, filepath.Join(out, "anz-1234_2024-07-01_2024-07-02.csv"), summary.Written[0])
	assert.Equal(t, filepath.Join(out, "anz-9876_2024-07-01_2024-07-02.csv"), summary.Written[1])

	rows, err := common.ReadCSVFile[models.RawTransaction](summary.Written[0], ',', log)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "anz-1234", rows[0].AccountID)
	assert.Equal(t, "-45.67", rows[0].Amount.String())
	assert.Equal(t, "500", rows[1].Amount.String())
	assert.True(t, log.HasEntry("INFO", "Batch processing completed"))
}

func TestRun_EmptyDirectory(t *testing.T) {
	log := logging.NewMockLogger()
	summary, err := batch.Run(context.Background(), newConsolidator(anzText, log), batch.Options{
		Bank: "anz", InputDir: t.TempDir(), OutputDir: t.TempDir(),
	}, log)
	require.NoError(t, err)
	assert.Empty(t, summary.Written)
	assert.True(t, log.HasEntry("WARN", "No PDF statements found in input directory"))
}

func TestRun_UnparseableStatementsWriteNothing(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writePDFs(t, in, "anz_jul_1234.pdf")
	log := logging.NewMockLogger()

	summary, err := batch.Run(context.Background(), newConsolidator("no transactions here", log), batch.Options{
		Bank: "anz", InputDir: in, OutputDir: out, Delimiter: ',',
	}, log)
	require.NoError(t, err)
	assert.Empty(t, summary.Written)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, log.HasEntry("WARN", "No transactions found for account"))
}

func TestRun_InvalidOptions(t *testing.T) {
	log := logging.NewMockLogger()
	c := newConsolidator(anzText, log)

	_, err := batch.Run(context.Background(), c, batch.Options{Bank: "anz", OutputDir: t.TempDir()}, log)
	assert.Error(t, err)

	_, err = batch.Run(context.Background(), c, batch.Options{Bank: "nab", InputDir: t.TempDir(), OutputDir: t.TempDir()}, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported bank")

	_, err = batch.Run(context.Background(), c, batch.Options{Bank: "anz", InputDir: filepath.Join(t.TempDir(), "missing"), OutputDir: t.TempDir()}, log)
	assert.Error(t, err)
}
