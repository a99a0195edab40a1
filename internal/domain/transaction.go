package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an immutable ledger entry. A negative amount is a debit.
// ID is uuid.Nil until the owning account is saved.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   int64           `json:"account_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

func (t Transaction) Pending() bool {
	return t.ID == uuid.Nil
}
