package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a balance and its ledger. Balance equals the opening balance
// plus the sum of all transaction amounts.
type Account struct {
	ID           int64           `json:"id"`
	Owner        string          `json:"owner"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Debit moves amount out of the account and appends a pending ledger entry
// referencing the destination account.
func (a *Account) Debit(amount decimal.Decimal, destinationID int64, at time.Time) {
	a.Balance = a.Balance.Sub(amount)
	a.Transactions = append(a.Transactions, Transaction{
		AccountID:   a.ID,
		Timestamp:   at,
		Description: fmt.Sprintf("Transfer sent to account %d", destinationID),
		Amount:      amount.Neg(),
	})
}

// Credit moves amount into the account and appends a pending ledger entry
// referencing the source account.
func (a *Account) Credit(amount decimal.Decimal, sourceID int64, at time.Time) {
	a.Balance = a.Balance.Add(amount)
	a.Transactions = append(a.Transactions, Transaction{
		AccountID:   a.ID,
		Timestamp:   at,
		Description: fmt.Sprintf("Transfer received from account %d", sourceID),
		Amount:      amount,
	})
}

type AccountRepository interface {
	GetAccount(ctx context.Context, id int64) (*Account, error)
	GetAccountForUpdate(ctx context.Context, id int64) (*Account, error)
	SaveAccount(ctx context.Context, account *Account) error
}
