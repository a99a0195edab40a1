package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

type userRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewUserRepository(db SQLExecutor, logger *slog.Logger) domain.UserRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT id, name, email, created_at, updated_at FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list users", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list users").WithDetails(err.Error())
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan user").WithDetails(err.Error())
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to read users").WithDetails(err.Error())
	}
	return users, nil
}

func (r *userRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, name, email, created_at, updated_at FROM users WHERE id = $1`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrUserNotFound
		}
		r.logger.Error("Failed to get user", "user_id", id, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get user").WithDetails(err.Error())
	}
	return &user, nil
}

// SaveUser inserts when ID is zero and updates the existing row otherwise.
func (r *userRepository) SaveUser(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()

	if user.ID == 0 {
		query := `
			INSERT INTO users (name, email, created_at, updated_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`
		err := r.db.QueryRowContext(ctx, query, user.Name, user.Email, now, now).Scan(&user.ID, &user.CreatedAt)
		if err != nil {
			return r.saveError(user, err)
		}
		user.UpdatedAt = now
		r.logger.Info("User created successfully", "user_id", user.ID)
		return nil
	}

	query := `
		UPDATE users SET name = $1, email = $2, updated_at = $3
		WHERE id = $4
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, user.Name, user.Email, now, user.ID).Scan(&user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("No user found to update", "user_id", user.ID)
			return errors.ErrUserNotFound
		}
		return r.saveError(user, err)
	}
	user.UpdatedAt = now
	r.logger.Info("User updated", "user_id", user.ID)
	return nil
}

func (r *userRepository) saveError(user *domain.User, err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		r.logger.Warn("Duplicate user email", "email", user.Email)
		return errors.ErrDuplicateUser
	}
	r.logger.Error("Failed to save user", "user_id", user.ID, "error", err)
	return errors.NewAppError(errors.InternalError, "failed to save user").WithDetails(err.Error())
}

func (r *userRepository) DeleteUser(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete user", "user_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to delete user").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrUserNotFound
	}

	r.logger.Info("User deleted", "user_id", id)
	return nil
}
