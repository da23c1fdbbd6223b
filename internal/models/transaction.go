// Package models defines the core data structures shared by the parsers,
// the classifier, the reconciliation layer and the aggregation engine.
package models

import (
	"github.com/shopspring/decimal"
)

// TransactionType labels the direction of money movement.
type TransactionType string

const (
	TypeDebit  TransactionType = "debit"
	TypeCredit TransactionType = "credit"
)

// BankID identifies the statement grammar a PDF was parsed with.
type BankID string

const (
	BankAmex        BankID = "amex"
	BankANZ         BankID = "anz"
	BankCBA         BankID = "cba"
	BankWestpac     BankID = "westpac"
	BankOpenBanking BankID = "openbanking"
)

// StatementBanks lists the identifiers accepted for PDF uploads.
var StatementBanks = []BankID{BankAmex, BankANZ, BankCBA, BankWestpac}

// IsStatementBank reports whether id names a supported PDF statement grammar.
func IsStatementBank(id string) bool {
	for _, b := range StatementBanks {
		if string(b) == id {
			return true
		}
	}
	return false
}

// RawTransaction is a transaction as produced by a statement parser or the
// open-banking collaborator, before any classification.
//
// After sign normalization a negative Amount is an outflow and Type is debit
// exactly when Amount is negative.
type RawTransaction struct {
	ID          string           `json:"id" yaml:"id" csv:"ID"`
	Date        string           `json:"date" yaml:"date" csv:"Date"`
	Description string           `json:"description" yaml:"description" csv:"Description"`
	Amount      decimal.Decimal  `json:"amount" yaml:"amount" csv:"Amount"`
	Type        TransactionType  `json:"type" yaml:"type" csv:"Type"`
	Balance     *decimal.Decimal `json:"balance,omitempty" yaml:"balance,omitempty" csv:"-"`
	AccountID   string           `json:"accountId,omitempty" yaml:"account_id,omitempty" csv:"AccountID"`
	Bank        BankID           `json:"bank,omitempty" yaml:"bank,omitempty" csv:"Bank"`
}

// IsOutflow returns true when money left the account.
func (t RawTransaction) IsOutflow() bool {
	return t.Amount.IsNegative()
}

// TypeForAmount derives the transaction type from a normalized amount.
// Zero amounts (balance placeholders) are labelled credit.
func TypeForAmount(amount decimal.Decimal) TransactionType {
	if amount.IsNegative() {
		return TypeDebit
	}
	return TypeCredit
}

// ClassifiedTransaction is a RawTransaction enriched with the merchant,
// ATO category and deduction decision.
type ClassifiedTransaction struct {
	RawTransaction

	MerchantName         string               `json:"merchantName" csv:"Merchant"`
	AnzsicCode           string               `json:"anzsicCode,omitempty" csv:"ANZSIC"`
	ATOCategory          string               `json:"atoCategory" csv:"ATOCategory"`
	IsBusinessExpense    bool                 `json:"isBusinessExpense" csv:"BusinessExpense"`
	IsDeductible         bool                 `json:"isDeductible" csv:"Deductible"`
	DeductionAmount      decimal.Decimal      `json:"deductionAmount" csv:"DeductionAmount"`
	DeductionType        string               `json:"deductionType,omitempty" csv:"DeductionType"`
	ClassificationSource ClassificationSource `json:"classificationSource" csv:"Source"`
	Confidence           int                  `json:"confidence" csv:"Confidence"`
	AutoClassified       bool                 `json:"autoClassified" csv:"AutoClassified"`
}

// DeductionFor returns the deductible amount for a transaction: the absolute
// value of an outflow when it is deductible, zero otherwise.
func DeductionFor(amount decimal.Decimal, deductible bool) decimal.Decimal {
	if deductible && amount.IsNegative() {
		return amount.Abs()
	}
	return decimal.Zero
}

// EffectiveDeduction is the amount counted towards deductions. Deductible
// outflows without a recorded deduction amount fall back to the absolute
// transaction amount. Inflows (refunds, credits) never count.
func (t ClassifiedTransaction) EffectiveDeduction() decimal.Decimal {
	if !t.IsDeductible || !t.IsOutflow() {
		return decimal.Zero
	}
	if t.DeductionAmount.IsZero() {
		return t.Amount.Abs()
	}
	return t.DeductionAmount
}
