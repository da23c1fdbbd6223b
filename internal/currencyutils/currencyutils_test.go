package currencyutils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{input: "1,234.56", expected: "1234.56"},
		{input: "$45.00", expected: "45"},
		{input: "-12.30", expected: "-12.3"},
		{input: "(12.30)", expected: "-12.3"},
		{input: "100.00 CR", expected: "-100"},
		{input: "100.00cr", expected: "-100"},
		{input: "100.00 DR", expected: "100"},
		{input: "AUD 9.99", expected: "9.99"},
		{input: "", wantErr: true},
		{input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestFindAmounts(t *testing.T) {
	got := FindAmounts("WOOLWORTHS 1234 SYDNEY 45.60 1,204.10")
	require.Len(t, got, 2)
	assert.Equal(t, "45.6", got[0].String())
	assert.Equal(t, "1204.1", got[1].String())

	assert.Empty(t, FindAmounts("no money here 12"))
}

func TestFormatAUD(t *testing.T) {
	assert.Equal(t, "$12.50", FormatAUD(decimal.NewFromFloat(12.5)))
	assert.Equal(t, "-$3.00", FormatAUD(decimal.NewFromInt(-3)))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "66.7", Percentage(decimal.NewFromInt(200), decimal.NewFromInt(300), 1).String())
	assert.Equal(t, "33.3", Percentage(decimal.NewFromInt(100), decimal.NewFromInt(300), 1).String())
	assert.True(t, Percentage(decimal.NewFromInt(1), decimal.Zero, 1).IsZero())
}

func TestApplyRate(t *testing.T) {
	got := ApplyRate(decimal.NewFromInt(1000), decimal.RequireFromString("32.5"))
	assert.True(t, decimal.NewFromInt(325).Equal(got))
}
