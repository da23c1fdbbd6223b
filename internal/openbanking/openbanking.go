// Package openbanking is the client for the open-banking aggregator. The
// aggregator is an upstream source of accounts and transactions; only its
// read endpoints and the consent link are used.
package openbanking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"taxtally/deductions/internal/dateutils"
	"taxtally/deductions/internal/models"
)

// ErrNotConfigured is returned when no aggregator credentials are set.
var ErrNotConfigured = errors.New("open banking is not configured")

// Account is a connected bank account.
type Account struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	AccountNo   string          `json:"accountNo"`
	Institution string          `json:"institution"`
	Balance     decimal.Decimal `json:"balance"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
}

// Transaction is the aggregator's transaction shape.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	PostDate    string          `json:"postDate"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	// Direction is "debit" or "credit".
	Direction string `json:"direction"`
}

// Consent is a user's data-sharing consent.
type Consent struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	ExpiresAt string `json:"expiresAt"`
}

// Connection is the result of starting the consent flow.
type Connection struct {
	UserID  string `json:"userId"`
	AuthURL string `json:"authUrl"`
}

// Client is the aggregator surface used by the API.
type Client interface {
	GetUserAccounts(ctx context.Context, userID string) ([]Account, error)
	GetUserTransactions(ctx context.Context, userID string, accountIDs ...string) ([]Transaction, error)
	GetUserConsents(ctx context.Context, userID string) ([]Consent, error)
	ConnectUser(ctx context.Context, email string) (Connection, error)
}

// ToRawTransactions converts aggregator transactions into normalized raw
// transactions: debits become negative, credits positive, whatever sign the
// aggregator reported. Records with an unreadable postDate are skipped.
func ToRawTransactions(txs []Transaction) []models.RawTransaction {
	out := make([]models.RawTransaction, 0, len(txs))
	for _, tx := range txs {
		date, err := postDate(tx.PostDate)
		if err != nil {
			continue
		}
		amount := tx.Amount.Abs()
		if strings.EqualFold(tx.Direction, "debit") {
			amount = amount.Neg()
		}
		out = append(out, models.RawTransaction{
			ID:          tx.ID,
			Date:        date,
			Description: strings.TrimSpace(tx.Description),
			Amount:      amount,
			Type:        models.TypeForAmount(amount),
			AccountID:   tx.AccountID,
			Bank:        models.BankOpenBanking,
		})
	}
	return out
}

// postDate accepts a plain date or an RFC 3339 timestamp.
func postDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}
	date, err := dateutils.ParseISODate(s)
	if err != nil {
		return "", fmt.Errorf("invalid postDate %q: %w", s, err)
	}
	return dateutils.ToISODate(date), nil
}
