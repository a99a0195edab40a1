package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

// transactionRepository persists ledger entries. It is only reached through
// the account repository, which owns the entries.
type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func newTransactionRepository(db SQLExecutor, logger *slog.Logger) *transactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *transactionRepository) create(ctx context.Context, entry *domain.Transaction) error {
	query := `
		INSERT INTO account_transactions (id, account_id, description, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	id := uuid.New()
	_, err := r.db.ExecContext(
		ctx,
		query,
		id,
		entry.AccountID,
		entry.Description,
		entry.Amount.String(),
		entry.Timestamp,
	)

	if err != nil {
		r.logger.Error("Failed to create transaction",
			"account_id", entry.AccountID,
			"amount", entry.Amount,
			"error", err)
		return errors.NewAppError(errors.InternalError, "failed to create transaction").WithDetails(err.Error())
	}

	entry.ID = id
	r.logger.Info("Transaction created successfully", "transaction_id", id, "account_id", entry.AccountID)
	return nil
}

// listByAccount returns the ledger in insertion order.
func (r *transactionRepository) listByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	query := `
		SELECT id, account_id, description, amount, created_at
		FROM account_transactions
		WHERE account_id = $1
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		r.logger.Error("Failed to list transactions", "account_id", accountID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	entries := []domain.Transaction{}
	for rows.Next() {
		var entry domain.Transaction
		var amountStr string

		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Description, &amountStr, &entry.Timestamp); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan transaction").WithDetails(err.Error())
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
		}
		entry.Amount = amount
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to read transactions").WithDetails(err.Error())
	}
	return entries, nil
}
