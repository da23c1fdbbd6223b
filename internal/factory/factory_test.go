package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/internal/factory"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parser"
)

func TestGetParserWithLogger(t *testing.T) {
	tests := []struct {
		name       string
		bank       models.BankID
		convention parser.SignConvention
		expectErr  bool
	}{
		{name: "amex", bank: models.BankAmex, convention: parser.OutflowPositive},
		{name: "anz", bank: models.BankANZ, convention: parser.OutflowPositive},
		{name: "cba", bank: models.BankCBA, convention: parser.Signed},
		{name: "westpac", bank: models.BankWestpac, convention: parser.Signed},
		{name: "upper case accepted", bank: "WESTPAC", convention: parser.Signed},
		{name: "unknown bank", bank: "nab", expectErr: true},
		{name: "open banking is not a statement grammar", bank: models.BankOpenBanking, expectErr: true},
		{name: "empty", bank: "", expectErr: true},
	}

	clock := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := factory.GetParserWithLogger(tt.bank, logging.NewMockLogger(), clock)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, p)
				assert.Contains(t, err.Error(), "unsupported bank")
				return
			}
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, tt.convention, p.Convention())
		})
	}
}

func TestGetParser(t *testing.T) {
	p, err := factory.GetParser(models.BankANZ)
	require.NoError(t, err)
	assert.Equal(t, models.BankANZ, p.Bank())
}

func TestSupportedBanks(t *testing.T) {
	assert.Equal(t, []string{"amex", "anz", "cba", "westpac"}, factory.SupportedBanks())
}
