package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/internal/models"
)

type stubParser struct {
	convention SignConvention
	out        []models.RawTransaction
}

func (s stubParser) Bank() models.BankID { return models.BankANZ }
func (s stubParser) Convention() SignConvention { return s.convention }
func (s stubParser) Parse(string) []models.RawTransaction {
	out := make([]models.RawTransaction, len(s.out))
	copy(out, s.out)
	return out
}

func tx(date, desc, amount string) models.RawTransaction {
	return models.RawTransaction{Date: date, Description: desc, Amount: decimal.RequireFromString(amount)}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		convention   SignConvention
		amount       string
		expectAmount string
		expectType   models.TransactionType
	}{
		{name: "outflow positive purchase", convention: OutflowPositive, amount: "45.67", expectAmount: "-45.67", expectType: models.TypeDebit},
		{name: "outflow positive credit", convention: OutflowPositive, amount: "-20.00", expectAmount: "20", expectType: models.TypeCredit},
		{name: "signed debit", convention: Signed, amount: "-9.95", expectAmount: "-9.95", expectType: models.TypeDebit},
		{name: "signed credit", convention: Signed, amount: "1500.00", expectAmount: "1500", expectType: models.TypeCredit},
		{name: "zero placeholder", convention: Signed, amount: "0", expectAmount: "0", expectType: models.TypeCredit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize([]models.RawTransaction{tx("2024-07-01", "X", tt.amount)}, tt.convention)
			require.Len(t, got, 1)
			assert.True(t, decimal.RequireFromString(tt.expectAmount).Equal(got[0].Amount), "got %s", got[0].Amount)
			assert.Equal(t, tt.expectType, got[0].Type)
			assert.Equal(t, got[0].Amount.IsNegative(), got[0].Type == models.TypeDebit)
		})
	}
}

func TestAssignIDs_Deterministic(t *testing.T) {
	first := AssignIDs(models.BankANZ, []models.RawTransaction{tx("2024-07-01", "A", "1.00"), tx("2024-07-01", "A", "1.00")})
	second := AssignIDs(models.BankANZ, []models.RawTransaction{tx("2024-07-01", "A", "1.00"), tx("2024-07-01", "A", "1.00")})

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)
	assert.NotEqual(t, first[0].ID, first[1].ID, "identical lines at different positions get distinct ids")
	assert.Equal(t, models.BankANZ, first[0].Bank)

	other := AssignIDs(models.BankCBA, []models.RawTransaction{tx("2024-07-01", "A", "1.00")})
	assert.NotEqual(t, first[0].ID, other[0].ID)
}

func TestRun(t *testing.T) {
	p := stubParser{convention: OutflowPositive, out: []models.RawTransaction{tx("2024-07-01", "WOOLWORTHS", "45.67")}}

	got := Run(p, "ignored")
	require.Len(t, got, 1)
	assert.Equal(t, "-45.67", got[0].Amount.String())
	assert.Equal(t, models.TypeDebit, got[0].Type)
	assert.NotEmpty(t, got[0].ID)
}

func TestNewBaseParser_Defaults(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	b := NewBaseParser(nil, func() time.Time { return fixed })
	assert.NotNil(t, b.GetLogger())
	assert.Equal(t, fixed, b.Now())

	b = NewBaseParser(nil, nil)
	assert.WithinDuration(t, time.Now(), b.Now(), time.Minute)
}
