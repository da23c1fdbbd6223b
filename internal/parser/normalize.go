package parser

import (
	"fmt"

	"github.com/google/uuid"

	"taxtally/deductions/internal/models"
)

// transactionNamespace scopes the name-based UUIDs given to parsed
// transactions.
var transactionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://taxtally.app/transactions"))

// Normalize rewrites parser output into the single convention used after
// parsing: negative amounts are outflows and Type is derived from the sign.
// The input slice is modified in place and returned.
func Normalize(txs []models.RawTransaction, convention SignConvention) []models.RawTransaction {
	for i := range txs {
		if convention == OutflowPositive {
			txs[i].Amount = txs[i].Amount.Neg()
		}
		txs[i].Type = models.TypeForAmount(txs[i].Amount)
	}
	return txs
}

// AssignIDs gives every transaction a deterministic id derived from the bank,
// its position in the statement and its content, so re-uploading the same
// statement reproduces the same ids.
func AssignIDs(bank models.BankID, txs []models.RawTransaction) []models.RawTransaction {
	for i := range txs {
		txs[i].Bank = bank
		name := fmt.Sprintf("%s|%d|%s|%s|%s", bank, i, txs[i].Date, txs[i].Description, txs[i].Amount.String())
		txs[i].ID = uuid.NewSHA1(transactionNamespace, []byte(name)).String()
	}
	return txs
}

// Run parses text with p, then normalizes signs and assigns ids.
func Run(p Parser, text string) []models.RawTransaction {
	txs := p.Parse(text)
	Normalize(txs, p.Convention())
	return AssignIDs(p.Bank(), txs)
}
