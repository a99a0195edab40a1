package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
	"account-ledger/internal/events"
)

type AccountService struct {
	store     domain.UnitOfWork
	publisher events.Publisher
	logger    *slog.Logger
}

func NewAccountService(store domain.UnitOfWork, publisher events.Publisher, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// maxOpeningBalance fits comfortably in NUMERIC(20,2).
var maxOpeningBalance = decimal.NewFromInt(10_000_000_000)

func (s *AccountService) CreateAccount(ctx context.Context, owner string, openingBalance decimal.Decimal) (*domain.Account, error) {
	s.logger.Info("Creating account", "owner", owner, "opening_balance", openingBalance)

	if openingBalance.IsNegative() || !openingBalance.Equal(openingBalance.Round(2)) {
		return nil, errors.NewAppError(errors.InvalidAmount, "opening balance must be non-negative with at most two decimal places")
	}

	if openingBalance.GreaterThan(maxOpeningBalance) {
		return nil, errors.NewAppError(errors.InvalidAmount, "opening balance exceeds maximum limit")
	}

	account := &domain.Account{
		Owner:        owner,
		Balance:      openingBalance,
		Transactions: []domain.Transaction{},
	}

	if err := s.store.Account().SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountID: account.ID,
		Owner:     account.Owner,
		Balance:   account.Balance.StringFixed(2),
	}); err != nil {
		s.logger.Warn("Failed to publish account event", "account_id", account.ID, "error", err)
	}

	s.logger.Info("Account created successfully", "account_id", account.ID)
	return account, nil
}

// GetBalance returns zero for an unknown account instead of an error.
func (s *AccountService) GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	account, err := s.store.Account().GetAccount(ctx, accountID)
	if err != nil {
		if errors.HasCode(err, errors.AccountNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// GetStatement returns the account with its full ledger, or nil when the
// account does not exist.
func (s *AccountService) GetStatement(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.store.Account().GetAccount(ctx, accountID)
	if err != nil {
		if errors.HasCode(err, errors.AccountNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}
