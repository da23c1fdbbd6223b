package parse

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/internal/common"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parsererror"
	"taxtally/deductions/internal/pdfparser"
	"taxtally/deductions/internal/statement"
)

const anzText = `01/07/2024 01/07/2024 1234 OFFICEWORKS 45.67 123.00
03/07/2024 02/07/2024 1234 PAYMENT THANKYOU 500.00 CR 1,000.00`

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anz_12345678.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0600))
	return path
}

func service(text string) *statement.Service {
	clock := func() time.Time { return time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC) }
	return statement.NewService(pdfparser.NewMockExtractor(text, nil), logging.NewMockLogger(), 0, clock)
}

func TestRun_CSVToFile(t *testing.T) {
	input := writePDF(t)
	output := filepath.Join(t.TempDir(), "out.csv")
	logger := logging.NewMockLogger()

	err := Run(context.Background(), service(anzText), Options{Bank: "anz", Input: input, Output: output, Delimiter: ','}, nil, logger)
	require.NoError(t, err)

	rows, err := common.ReadCSVFile[models.RawTransaction](output, ',', logger)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-07-01", rows[0].Date)
	assert.True(t, rows[0].Amount.IsNegative())
	assert.Equal(t, "anz-5678", rows[0].AccountID)
	assert.True(t, logger.HasEntry("INFO", "Statement converted"))
}

func TestRun_JSONToStdout(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), service(anzText), Options{Bank: "anz", Input: writePDF(t), Format: "json"}, &out, logging.NewMockLogger())
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"description": "PAYMENT THANKYOU"`)
}

func TestRun_Errors(t *testing.T) {
	logger := logging.NewMockLogger()

	err := Run(context.Background(), service(anzText), Options{Bank: "anz"}, nil, logger)
	assert.Error(t, err)

	err = Run(context.Background(), service(anzText), Options{Bank: "nab", Input: writePDF(t)}, nil, logger)
	var verr *parsererror.ValidationError
	assert.ErrorAs(t, err, &verr)

	err = Run(context.Background(), service("no rows"), Options{Bank: "anz", Input: writePDF(t)}, nil, logger)
	var none *parsererror.NoTransactionsError
	assert.ErrorAs(t, err, &none)

	err = Run(context.Background(), service(anzText), Options{Bank: "anz", Input: writePDF(t), Format: "xml"}, nil, logger)
	assert.Error(t, err)
}

func TestCommandFlags(t *testing.T) {
	assert.Equal(t, "parse", Cmd.Use)
	assert.NotNil(t, Cmd.Flags().Lookup("bank"))
	assert.NotNil(t, Cmd.Flags().Lookup("format"))
}
