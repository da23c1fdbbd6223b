package common_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/cmd/common"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
)

func rows() []models.RawTransaction {
	return []models.RawTransaction{
		{ID: "a", Date: "2024-07-01", Description: "OFFICEWORKS", Amount: decimal.RequireFromString("-12.50"), Type: models.TypeDebit, Bank: models.BankANZ},
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		flag, output, want string
		wantErr            bool
	}{
		{flag: "", output: "", want: "csv"},
		{flag: "", output: "out.json", want: "json"},
		{flag: "JSON", output: "out.csv", want: "json"},
		{flag: "", output: "out.xlsx", wantErr: true},
		{flag: "xml", wantErr: true},
	}
	for _, tt := range tests {
		got, err := common.FormatFor(tt.flag, tt.output)
		if tt.wantErr {
			assert.Error(t, err, tt)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestWriteRows_Stdout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, common.WriteRows(rows(), "", common.FormatCSV, ',', &buf, logging.NewMockLogger()))
	assert.Contains(t, buf.String(), "ID,Date,Description,Amount")
	assert.Contains(t, buf.String(), "OFFICEWORKS")

	buf.Reset()
	require.NoError(t, common.WriteRows(rows(), "", common.FormatJSON, ',', &buf, logging.NewMockLogger()))
	assert.Contains(t, buf.String(), `"amount": "-12.5"`)
}

func TestWriteRows_File(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	logger := logging.NewMockLogger()
	require.NoError(t, common.WriteRows(rows(), out, common.FormatJSON, ',', nil, logger))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"description": "OFFICEWORKS"`)
	assert.True(t, logger.HasEntry("INFO", "Wrote JSON output"))
}

func TestReadInput(t *testing.T) {
	_, err := common.ReadInput("")
	assert.Error(t, err)

	_, err = common.ReadInput(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)

	_, err = common.ReadInput(t.TempDir())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "s.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0600))
	data, err := common.ReadInput(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}
