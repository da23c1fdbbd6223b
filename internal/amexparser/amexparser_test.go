package amexparser

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
	return time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC)
}

const statement = `American Express Statement
Statement Date 15/02/2025
Jan 05
OFFICEWORKS 0123 MELBOURNE
45.00
Jan 7
SHELL COLES EXPRESS
$1,234.50
Feb 2 UBER TRIP
12.30
Jan 9
NO AMOUNT HERE
Jan 10
QANTAS AIRWAYS
Reference 12345
999.99
`

func TestParse(t *testing.T) {
	p := New(logging.NewMockLogger(), fixedClock)

	txs := p.Parse(statement)
	require.Len(t, txs, 4)

	expected := []struct {
		date, desc, amount string
	}{
		{"2025-01-05", "OFFICEWORKS 0123 MELBOURNE", "45"},
		{"2025-01-07", "SHELL COLES EXPRESS", "1234.5"},
		{"2025-02-02", "UBER TRIP", "12.3"},
		{"2025-01-10", "QANTAS AIRWAYS", "999.99"},
	}
	for i, e := range expected {
		assert.Equal(t, e.date, txs[i].Date)
		assert.Equal(t, e.desc, txs[i].Description)
		assert.Equal(t, e.amount, txs[i].Amount.String())
		assert.True(t, txs[i].Amount.IsPositive(), "card grammar reports outflows as positive magnitudes")
		assert.Equal(t, models.TypeDebit, txs[i].Type)
	}
}

func TestParse_YearFallsBackToClock(t *testing.T) {
	p := New(logging.NewMockLogger(), fixedClock)

	txs := p.Parse("Mar 3\nCAFE\n4.50\n")
	require.Len(t, txs, 1)
	assert.Equal(t, "2023-03-03", txs[0].Date)
}

func TestParse_NoMatches(t *testing.T) {
	p := New(logging.NewMockLogger(), fixedClock)

	assert.Empty(t, p.Parse(""))
	assert.Empty(t, p.Parse("Just a letter\nwith no entries\n"))
	assert.Empty(t, p.Parse("Jan 5\n"))
}

func TestRun_NormalizesToNegativeOutflows(t *testing.T) {
	p := New(logging.NewMockLogger(), fixedClock)

	txs := parser.Run(p, statement)
	require.NotEmpty(t, txs)
	for _, tx := range txs {
		assert.True(t, tx.Amount.IsNegative())
		assert.Equal(t, models.TypeDebit, tx.Type)
		assert.Equal(t, models.BankAmex, tx.Bank)
		assert.NotEmpty(t, tx.ID)
	}
}

func TestStatementYear(t *testing.T) {
	p := New(logging.NewMockLogger(), fixedClock)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"numeric date", "Statement Date 15/02/2025", 2025},
		{"month day year", "Closing Date February 15, 2024", 2024},
		{"day month year", "Period ending 15 Feb 2022", 2022},
		{"street number before date", "2000 George Street Sydney\nStatement Date 15/02/2025", 2025},
		{"amount before date", "Previous balance\n1999.00\nClosing Date Jan 31, 2025", 2025},
		{"bare numbers only", "2019 Collins St\nMar 3\nCAFE\n1999.00", 2023},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.statementYear(tt.text))
		})
	}
}

func TestParse_AmountDoesNotSetYear(t *testing.T) {
	p := New(logging.NewMockLogger(), fixedClock)

	txs := p.Parse("Statement Date 15/02/2025\nJan 05\nDELL AUSTRALIA\n1999.00\n")
	require.Len(t, txs, 1)
	assert.Equal(t, "2025-01-05", txs[0].Date)
	assert.Equal(t, "1999", txs[0].Amount.String())
}
