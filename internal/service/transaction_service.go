package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
	"account-ledger/internal/events"
)

type TransactionService struct {
	store     domain.UnitOfWork
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewTransactionService(store domain.UnitOfWork, publisher events.Publisher, logger *slog.Logger) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type TransferRequest struct {
	SourceAccountID      int64
	DestinationAccountID int64
	Amount               decimal.Decimal
}

// TransferResult holds the two ledger entries written by a transfer.
type TransferResult struct {
	Debit  domain.Transaction
	Credit domain.Transaction
}

// Transfer moves req.Amount from the source to the destination account and
// records a debit and a credit entry. All reads and writes happen in one
// unit of work; on any error nothing is persisted.
func (s *TransactionService) Transfer(ctx context.Context, req *TransferRequest) (*TransferResult, error) {
	s.logger.Info("Processing transfer",
		"source_account_id", req.SourceAccountID,
		"destination_account_id", req.DestinationAccountID,
		"amount", req.Amount)

	if err := s.validateTransfer(req); err != nil {
		return nil, err
	}

	var result TransferResult
	err := s.store.WithTransaction(ctx, func(uow domain.UnitOfWork) error {
		source, dest, err := lockPair(ctx, uow.Account(), req.SourceAccountID, req.DestinationAccountID)
		if err != nil {
			return err
		}

		if source.Balance.LessThan(req.Amount) {
			return errors.ErrInsufficientFunds.WithDetails(
				"balance " + source.Balance.StringFixed(2) + " is below " + req.Amount.StringFixed(2))
		}

		now := s.now()
		source.Debit(req.Amount, dest.ID, now)
		dest.Credit(req.Amount, source.ID, now)

		if err := uow.Account().SaveAccount(ctx, source); err != nil {
			return err
		}
		if err := uow.Account().SaveAccount(ctx, dest); err != nil {
			return err
		}

		result.Debit = source.Transactions[len(source.Transactions)-1]
		result.Credit = dest.Transactions[len(dest.Transactions)-1]
		return nil
	})
	if err != nil {
		s.logger.Error("Transfer failed",
			"source_account_id", req.SourceAccountID,
			"destination_account_id", req.DestinationAccountID,
			"error", err)
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.TransferCompleted, events.TransferCompletedEvent{
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               req.Amount.StringFixed(2),
		DebitTransactionID:   result.Debit.ID.String(),
		CreditTransactionID:  result.Credit.ID.String(),
	}); err != nil {
		s.logger.Warn("Failed to publish transfer event", "error", err)
	}

	s.logger.Info("Transfer completed successfully",
		"debit_transaction_id", result.Debit.ID,
		"credit_transaction_id", result.Credit.ID)
	return &result, nil
}

func (s *TransactionService) validateTransfer(req *TransferRequest) error {
	if err := validateAmount(req.Amount); err != nil {
		return err
	}

	if req.SourceAccountID == req.DestinationAccountID {
		return errors.ErrSameAccountTransfer
	}

	return nil
}

// lockPair locks both rows in ascending id order so that two opposite
// transfers cannot deadlock. A missing source is reported before a missing
// destination whatever the lock order.
func lockPair(ctx context.Context, repo domain.AccountRepository, sourceID, destID int64) (*domain.Account, *domain.Account, error) {
	firstID, secondID := sourceID, destID
	if destID < sourceID {
		firstID, secondID = destID, sourceID
	}

	first, firstErr := repo.GetAccountForUpdate(ctx, firstID)
	if firstErr != nil && !errors.HasCode(firstErr, errors.AccountNotFound) {
		return nil, nil, firstErr
	}
	second, secondErr := repo.GetAccountForUpdate(ctx, secondID)
	if secondErr != nil && !errors.HasCode(secondErr, errors.AccountNotFound) {
		return nil, nil, secondErr
	}

	source, sourceErr := first, firstErr
	dest, destErr := second, secondErr
	if firstID != sourceID {
		source, sourceErr = second, secondErr
		dest, destErr = first, firstErr
	}

	if sourceErr != nil {
		return nil, nil, errors.NewAppErrorf(errors.AccountNotFound, "source account %d not found", sourceID)
	}
	if destErr != nil {
		return nil, nil, errors.NewAppErrorf(errors.AccountNotFound, "destination account %d not found", destID)
	}
	return source, dest, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return errors.ErrInvalidAmount
	}
	return nil
}
