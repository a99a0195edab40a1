// Package memory is an in-process domain.UnitOfWork. Transactions are
// serialised by a single mutex and run against a cloned state that replaces
// the live state only on commit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

type state struct {
	accounts      map[int64]*domain.Account
	users         map[int64]*domain.User
	nextAccountID int64
	nextUserID    int64
}

func newState() *state {
	return &state{
		accounts: make(map[int64]*domain.Account),
		users:    make(map[int64]*domain.User),
	}
}

func (s *state) clone() *state {
	cp := &state{
		accounts:      make(map[int64]*domain.Account, len(s.accounts)),
		users:         make(map[int64]*domain.User, len(s.users)),
		nextAccountID: s.nextAccountID,
		nextUserID:    s.nextUserID,
	}
	for id, a := range s.accounts {
		cp.accounts[id] = copyAccount(a)
	}
	for id, u := range s.users {
		user := *u
		cp.users[id] = &user
	}
	return cp
}

// Store is safe for concurrent use.
type Store struct {
	mu    *sync.Mutex
	txMu  *sync.Mutex
	state *state
	inTx  bool

	// FailSave, when set, is consulted before every account save. Tests use
	// it to inject storage failures.
	FailSave func(account *domain.Account) error
}

var _ domain.UnitOfWork = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		mu:    &sync.Mutex{},
		txMu:  &sync.Mutex{},
		state: newState(),
	}
}

func (s *Store) Account() domain.AccountRepository {
	return &accountRepository{store: s}
}

func (s *Store) User() domain.UserRepository {
	return &userRepository{store: s}
}

func (s *Store) WithTransaction(ctx context.Context, fn func(domain.UnitOfWork) error) error {
	if s.inTx {
		return errors.ErrCannotBeginTransaction
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	working := s.state.clone()
	s.mu.Unlock()

	txStore := &Store{
		mu:       &sync.Mutex{},
		txMu:     s.txMu,
		state:    working,
		inTx:     true,
		FailSave: s.FailSave,
	}

	if err := fn(txStore); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = working
	s.mu.Unlock()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) locked(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// mutate also holds the transaction lock outside a transaction, so a write
// cannot land between a transaction's clone and its commit and be lost.
func (s *Store) mutate(fn func(st *state) error) error {
	if !s.inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	return s.locked(fn)
}

func copyAccount(a *domain.Account) *domain.Account {
	cp := *a
	cp.Transactions = make([]domain.Transaction, len(a.Transactions))
	copy(cp.Transactions, a.Transactions)
	return &cp
}

type accountRepository struct {
	store *Store
}

func (r *accountRepository) GetAccount(_ context.Context, id int64) (*domain.Account, error) {
	var out *domain.Account
	err := r.store.locked(func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return errors.ErrAccountNotFound
		}
		out = copyAccount(a)
		return nil
	})
	return out, err
}

func (r *accountRepository) GetAccountForUpdate(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := r.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	account.Transactions = []domain.Transaction{}
	return account, nil
}

func (r *accountRepository) SaveAccount(_ context.Context, account *domain.Account) error {
	if r.store.FailSave != nil {
		if err := r.store.FailSave(account); err != nil {
			return err
		}
	}

	return r.store.mutate(func(st *state) error {
		now := time.Now().UTC()

		var stored *domain.Account
		if account.ID == 0 {
			st.nextAccountID++
			account.ID = st.nextAccountID
			account.CreatedAt = now
			stored = &domain.Account{ID: account.ID, CreatedAt: now, Transactions: []domain.Transaction{}}
			st.accounts[account.ID] = stored
		} else {
			existing, ok := st.accounts[account.ID]
			if !ok {
				return errors.ErrAccountNotFound
			}
			stored = existing
			account.CreatedAt = existing.CreatedAt
		}

		account.UpdatedAt = now
		stored.Owner = account.Owner
		stored.Balance = account.Balance
		stored.UpdatedAt = now

		for i := range account.Transactions {
			entry := &account.Transactions[i]
			if !entry.Pending() {
				continue
			}
			entry.ID = uuid.New()
			entry.AccountID = account.ID
			stored.Transactions = append(stored.Transactions, *entry)
		}
		return nil
	})
}

type userRepository struct {
	store *Store
}

func (r *userRepository) ListUsers(_ context.Context) ([]domain.User, error) {
	users := []domain.User{}
	err := r.store.locked(func(st *state) error {
		for _, u := range st.users {
			users = append(users, *u)
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, err
}

func (r *userRepository) GetUser(_ context.Context, id int64) (*domain.User, error) {
	var out *domain.User
	err := r.store.locked(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return errors.ErrUserNotFound
		}
		user := *u
		out = &user
		return nil
	})
	return out, err
}

func (r *userRepository) SaveUser(_ context.Context, user *domain.User) error {
	return r.store.mutate(func(st *state) error {
		for _, u := range st.users {
			if u.Email == user.Email && u.ID != user.ID {
				return errors.ErrDuplicateUser
			}
		}

		now := time.Now().UTC()
		if user.ID == 0 {
			st.nextUserID++
			user.ID = st.nextUserID
			user.CreatedAt = now
		} else {
			existing, ok := st.users[user.ID]
			if !ok {
				return errors.ErrUserNotFound
			}
			user.CreatedAt = existing.CreatedAt
		}
		user.UpdatedAt = now

		stored := *user
		st.users[user.ID] = &stored
		return nil
	})
}

func (r *userRepository) DeleteUser(_ context.Context, id int64) error {
	return r.store.mutate(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return errors.ErrUserNotFound
		}
		delete(st.users, id)
		return nil
	})
}
