package domain

import "context"

// UnitOfWork groups the repositories and scopes them to one transaction.
//
// WithTransaction begins a transaction, hands fn a UnitOfWork bound to it,
// commits when fn returns nil and rolls back otherwise (including panics).
type UnitOfWork interface {
	Account() AccountRepository
	User() UserRepository
	WithTransaction(ctx context.Context, fn func(uow UnitOfWork) error) error
	Ping(ctx context.Context) error
}
