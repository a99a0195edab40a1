package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	AccountNotFound        ErrorCode = "account_not_found"
	InsufficientFunds      ErrorCode = "insufficient_funds"
	InvalidAmount          ErrorCode = "invalid_amount"
	InvalidInput           ErrorCode = "invalid_input"
	SameAccountTransfer    ErrorCode = "same_account_transfer"
	UserNotFound           ErrorCode = "user_not_found"
	DuplicateUser          ErrorCode = "duplicate_user"
	CannotBeginTransaction ErrorCode = "cannot_begin_transaction"
	InternalError          ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails returns a copy of e carrying details, so the predefined
// errors below are never mutated.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Is matches any AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// HTTPStatus maps the error code to the response status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case AccountNotFound, UserNotFound:
		return http.StatusNotFound
	case InsufficientFunds:
		return http.StatusUnprocessableEntity
	case InvalidAmount, InvalidInput, SameAccountTransfer:
		return http.StatusBadRequest
	case DuplicateUser:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError unwraps err into an AppError. Errors of any other kind become
// an internal_error carrying the original message as details.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewAppError(InternalError, "an unexpected error occurred").WithDetails(err.Error())
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// Predefined errors for common cases
var (
	ErrAccountNotFound        = NewAppError(AccountNotFound, "account not found")
	ErrInsufficientFunds      = NewAppError(InsufficientFunds, "insufficient funds")
	ErrInvalidAmount          = NewAppError(InvalidAmount, "amount must be positive with at most two decimal places")
	ErrSameAccountTransfer    = NewAppError(SameAccountTransfer, "source and destination accounts must differ")
	ErrUserNotFound           = NewAppError(UserNotFound, "user not found")
	ErrDuplicateUser          = NewAppError(DuplicateUser, "a user with this email already exists")
	ErrCannotBeginTransaction = NewAppError(CannotBeginTransaction, "cannot begin a transaction inside another transaction")
)
