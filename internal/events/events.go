package events

import (
	"context"
	"time"
)

// Event types
const (
	AccountCreated    = "account.created"
	TransferCompleted = "transfer.completed"
	UserSaved         = "user.saved"
	UserDeleted       = "user.deleted"
)

// Stream names
const (
	AccountEventsStream = "account.events"
	UserEventsStream    = "user.events"
)

type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type AccountCreatedEvent struct {
	AccountID int64  `json:"account_id"`
	Owner     string `json:"owner"`
	Balance   string `json:"balance"`
}

type TransferCompletedEvent struct {
	SourceAccountID      int64  `json:"source_account_id"`
	DestinationAccountID int64  `json:"destination_account_id"`
	Amount               string `json:"amount"`
	DebitTransactionID   string `json:"debit_transaction_id"`
	CreditTransactionID  string `json:"credit_transaction_id"`
}

type UserSavedEvent struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserDeletedEvent struct {
	UserID int64 `json:"user_id"`
}

// Publisher appends domain events to a stream.
type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// NopPublisher drops every event. Used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
