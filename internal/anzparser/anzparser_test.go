package anzparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/internal/dateutils"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parser"
)

func newParser() *Parser {
	return New(logging.NewMockLogger(), nil)
}

func TestParse_SingleLine(t *testing.T) {
	txs := newParser().Parse("01/07/2024 01/07/2024 1234 WOOLWORTHS 45.67 123.00")
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, "2024-07-01", tx.Date)
	assert.Equal(t, "WOOLWORTHS", tx.Description)
	assert.Equal(t, "45.67", tx.Amount.String())
	require.NotNil(t, tx.Balance)
	assert.Equal(t, "123", tx.Balance.String())
}

func TestParse_Variants(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		date        string
		description string
		amount      string
		hasBalance  bool
	}{
		{
			name:        "credit marker",
			line:        "03/07/2024 02/07/2024 1234 PAYMENT THANKYOU 500.00 CR 1,000.00",
			date:        "2024-07-02",
			description: "PAYMENT THANKYOU",
			amount:      "-500",
			hasBalance:  true,
		},
		{
			name:        "credit marker without space",
			line:        "03/07/2024 02/07/2024 1234 REFUND BUNNINGS 12.00CR",
			date:        "2024-07-02",
			description: "REFUND BUNNINGS",
			amount:      "-12",
		},
		{
			name:        "thousands separator and dollar sign",
			line:        "10/08/2024 09/08/2024 9876 JB HI-FI 3000 SYDNEY $1,299.00",
			date:        "2024-08-09",
			description: "JB HI-FI 3000 SYDNEY",
			amount:      "1299",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := newParser().Parse(tt.line)
			require.Len(t, txs, 1)
			assert.Equal(t, tt.date, txs[0].Date)
			assert.Equal(t, tt.description, txs[0].Description)
			assert.Equal(t, tt.amount, txs[0].Amount.String())
			assert.Equal(t, tt.hasBalance, txs[0].Balance != nil)
		})
	}
}

func TestParse_SkipsNonMatchingLines(t *testing.T) {
	text := `ANZ Frequent Flyer Black
Date Processed Date of Transaction Card Description Amount Balance
01/07/2024 01/07/2024 1234 WOOLWORTHS 45.67 123.00
Opening balance 77.33
31/02/2024 31/02/2024 1234 IMPOSSIBLE DATE 1.00
02/07/2024 02/07/2024 1234 TELSTRA 89.00 212.00
`
	txs := newParser().Parse(text)
	require.Len(t, txs, 2)
	assert.Equal(t, "WOOLWORTHS", txs[0].Description)
	assert.Equal(t, "TELSTRA", txs[1].Description)
}

func TestRun_ProducesValidISODatesAndSigns(t *testing.T) {
	text := "01/07/2024 01/07/2024 1234 WOOLWORTHS 45.67 123.00\n03/07/2024 02/07/2024 1234 PAYMENT 500.00 CR\n"
	txs := parser.Run(newParser(), text)
	require.Len(t, txs, 2)

	for _, tx := range txs {
		_, err := dateutils.ParseISODate(tx.Date)
		assert.NoError(t, err)
		assert.Equal(t, tx.Amount.IsNegative(), tx.Type == models.TypeDebit)
	}
	assert.Equal(t, "-45.67", txs[0].Amount.String())
	assert.Equal(t, "500", txs[1].Amount.String())
}
