package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNonEmptyLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d"}, NonEmptyLines(" a \n\n b c \fd\n"))
	assert.Nil(t, NonEmptyLines("  \n"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"shell", "coles", "express", "123"}, Tokens("SHELL COLES EXPRESS 123", 3))
	assert.Equal(t, []string{"jb", "hi-fi"}, Tokens("JB HI-FI", 2))
	assert.Equal(t, []string{"mcdonald's"}, Tokens("McDonald's *", 3))
}

func TestNGrams(t *testing.T) {
	got := NGrams([]string{"coles", "express", "sydney"}, 2)
	assert.Equal(t, []string{"coles express", "coles", "express sydney", "express", "sydney"}, got)
}

func TestExtractMerchant(t *testing.T) {
	tests := []struct {
		description string
		classifier  string
		search      string
	}{
		{"EFTPOS PURCHASE OFFICEWORKS 0123 MELBOURNE", "officeworks", "officeworks"},
		{"VISA DEBIT PURCHASE CARD 4567 BUNNINGS WAREHOUSE SYDNEY", "bunnings", "bunnings warehouse"},
		{"SHELL COLES EXPRESS 123", "shell", "shell coles express"},
		{"SQ *CAFE LUNA 12/03 SYDNEY", "cafe", "cafe luna"},
		{"DIRECT DEBIT TELSTRA REF 998877", "telstra", "telstra"},
		{"1234 5678", "", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.classifier, ExtractMerchant(tt.description, ClassifierTable))
			assert.Equal(t, tt.search, ExtractMerchant(tt.description, SearchTable))
		})
	}
}

func TestExtractMerchant_CustomTable(t *testing.T) {
	table := ExtractionTable{NoiseWords: map[string]bool{"acme": true}, MinTokenLength: 4, MaxTokens: 2}
	assert.Equal(t, "widgets online", ExtractMerchant("ACME WIDGETS ONLINE STORE", table))
}

func TestIsGenericMerchant(t *testing.T) {
	assert.True(t, IsGenericMerchant("Unknown Merchant"))
	assert.True(t, IsGenericMerchant(" payment "))
	assert.False(t, IsGenericMerchant("Officeworks"))
}
