package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

type accountRepository struct {
	db     SQLExecutor
	ledger *transactionRepository
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		ledger: newTransactionRepository(db, logger),
		logger: logger,
	}
}

func (r *accountRepository) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	query := `
		SELECT id, owner, balance, created_at, updated_at
		FROM accounts WHERE id = $1
	`

	account, err := r.scanAccount(ctx, query, id)
	if err != nil {
		return nil, err
	}

	account.Transactions, err = r.ledger.listByAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccountForUpdate locks the account row until the surrounding
// transaction ends. The ledger is not loaded.
func (r *accountRepository) GetAccountForUpdate(ctx context.Context, id int64) (*domain.Account, error) {
	query := `
		SELECT id, owner, balance, created_at, updated_at
		FROM accounts WHERE id = $1 FOR UPDATE
	`

	return r.scanAccount(ctx, query, id)
}

func (r *accountRepository) scanAccount(ctx context.Context, query string, id int64) (*domain.Account, error) {
	var account domain.Account
	var balanceStr string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Owner,
		&balanceStr,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("Account not found", "account_id", id)
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "account_id", id, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get account").WithDetails(err.Error())
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		r.logger.Error("Failed to parse balance", "account_id", id, "balance_str", balanceStr, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
	}

	account.Balance = balance
	account.Transactions = []domain.Transaction{}
	return &account, nil
}

// SaveAccount inserts the account when it has no ID, updates owner and
// balance otherwise, then persists every pending ledger entry.
func (r *accountRepository) SaveAccount(ctx context.Context, account *domain.Account) error {
	now := time.Now().UTC()

	if account.ID == 0 {
		if err := r.insertAccount(ctx, account, now); err != nil {
			return err
		}
	} else if err := r.updateAccount(ctx, account, now); err != nil {
		return err
	}

	for i := range account.Transactions {
		entry := &account.Transactions[i]
		if !entry.Pending() {
			continue
		}
		entry.AccountID = account.ID
		if err := r.ledger.create(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (r *accountRepository) insertAccount(ctx context.Context, account *domain.Account, now time.Time) error {
	query := `
		INSERT INTO accounts (owner, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query, account.Owner, account.Balance.String(), now, now).Scan(&account.ID)
	if err != nil {
		r.logger.Error("Failed to create account", "owner", account.Owner, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create account").WithDetails(err.Error())
	}

	account.CreatedAt = now
	account.UpdatedAt = now
	r.logger.Info("Account created successfully", "account_id", account.ID)
	return nil
}

func (r *accountRepository) updateAccount(ctx context.Context, account *domain.Account, now time.Time) error {
	query := `
		UPDATE accounts
		SET owner = $1, balance = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, account.Owner, account.Balance.String(), now, account.ID)
	if err != nil {
		r.logger.Error("Failed to update account", "account_id", account.ID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update account").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		r.logger.Warn("No account found to update", "account_id", account.ID)
		return errors.ErrAccountNotFound
	}

	account.UpdatedAt = now
	r.logger.Info("Account updated", "account_id", account.ID, "new_balance", account.Balance)
	return nil
}
