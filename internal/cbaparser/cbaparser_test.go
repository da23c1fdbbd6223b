package cbaparser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parser"
)

func fixedClock() time.Time {
	return time.Date(2025, time.May, 20, 9, 30, 0, 0, time.UTC)
}

func TestParse_BalanceMarkers(t *testing.T) {
	text := `Commonwealth Bank Smart Access
01 Jul 2024 OPENING BALANCE $1,250.40 CR
03 Jul 2024 Woolworths Metro 45.00 1,205.40 CR
Closing Balance 31/07/2024 $980.15 CR
`
	p := New(logging.NewMockLogger(), fixedClock)
	txs := p.Parse(text)
	require.Len(t, txs, 2)

	assert.Equal(t, "OPENING BALANCE", txs[0].Description)
	assert.Equal(t, "2024-07-01", txs[0].Date)
	assert.True(t, txs[0].Amount.IsZero())
	require.NotNil(t, txs[0].Balance)
	assert.Equal(t, "1250.4", txs[0].Balance.String())

	assert.Equal(t, "CLOSING BALANCE", txs[1].Description)
	assert.Equal(t, "2024-07-31", txs[1].Date)
	require.NotNil(t, txs[1].Balance)
	assert.Equal(t, "980.15", txs[1].Balance.String())
}

func TestParse_DateFallsBackToClock(t *testing.T) {
	p := New(logging.NewMockLogger(), fixedClock)

	txs := p.Parse("OPENING BALANCE Nil")
	require.Len(t, txs, 1)
	assert.Equal(t, "2025-05-20", txs[0].Date)
	assert.Nil(t, txs[0].Balance)
}

func TestParse_OverdrawnBalance(t *testing.T) {
	p := New(logging.NewMockLogger(), fixedClock)

	txs := p.Parse("15/08/2024 CLOSING BALANCE 20.00 DR")
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].Balance)
	assert.Equal(t, "-20", txs[0].Balance.String())
}

func TestParse_NoMarkers(t *testing.T) {
	p := New(logging.NewMockLogger(), fixedClock)
	assert.Empty(t, p.Parse("03 Jul 2024 Woolworths Metro 45.00 1,205.40 CR"))
}

func TestRun_PlaceholdersStayZero(t *testing.T) {
	p := New(logging.NewMockLogger(), fixedClock)
	txs := parser.Run(p, "OPENING BALANCE 10.00\nCLOSING BALANCE 20.00\n")
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.True(t, tx.Amount.IsZero())
		assert.Equal(t, models.TypeCredit, tx.Type)
	}
	assert.NotEqual(t, txs[0].ID, txs[1].ID)
}
