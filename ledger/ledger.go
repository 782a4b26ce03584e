package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrEthical07/goBank/money"
	"github.com/MrEthical07/goBank/store"
)

var (
	// ErrNotFound is returned when the account does not exist.
	ErrNotFound = errors.New("ledger: account not found")
	// ErrAlreadyExists is returned by Open for an identity that already has an account.
	ErrAlreadyExists = errors.New("ledger: account already exists")
	// ErrOverflow is returned when a balance would exceed the configured limit.
	ErrOverflow = errors.New("ledger: balance overflow")
	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	// ErrUnavailable wraps repository faults.
	ErrUnavailable = errors.New("ledger: storage unavailable")
)

// Config controls ledger bounds.
type Config struct {
	// MaxBalance caps every balance. Zero selects money.MaxMinorUnits.
	MaxBalance money.Money
}

// Ledger applies balance operations against a store.Repository.
// It is safe for concurrent use.
type Ledger struct {
	repo  store.Repository
	limit int64

	mu    sync.Mutex
	locks map[string]*accountLock
}

type accountLock struct {
	mu   sync.Mutex
	refs int
}

// New returns a Ledger backed by repo.
func New(repo store.Repository, cfg Config) (*Ledger, error) {
	if repo == nil {
		return nil, errors.New("ledger: repository is nil")
	}

	limit := cfg.MaxBalance.MinorUnits()
	if limit == 0 {
		limit = money.MaxMinorUnits
	}

	return &Ledger{
		repo:  repo,
		limit: limit,
		locks: make(map[string]*accountLock),
	}, nil
}

// Limit returns the effective balance ceiling.
func (l *Ledger) Limit() money.Money {
	m, _ := money.FromMinorUnits(l.limit)
	return m
}

// Open creates the account record for identity with its password hash and
// initial balance in one insert. Either the whole record exists afterwards or
// nothing was written.
func (l *Ledger) Open(ctx context.Context, identity, passwordHash string, initial money.Money) error {
	if initial.MinorUnits() > l.limit {
		return ErrOverflow
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := l.lock(identity)
	defer unlock()

	err := l.repo.Insert(ctx, store.Account{
		Identity:     identity,
		PasswordHash: passwordHash,
		Balance:      initial.MinorUnits(),
	})
	return mapStoreError(err)
}

// Read returns the current balance of identity.
func (l *Ledger) Read(ctx context.Context, identity string) (money.Money, error) {
	acct, err := l.repo.Get(ctx, identity)
	if err != nil {
		return money.Zero, mapStoreError(err)
	}
	return balanceOf(acct.Balance)
}

// Deposit adds amount to the balance of identity and returns the new balance.
// On ErrOverflow the balance is unchanged.
func (l *Ledger) Deposit(ctx context.Context, identity string, amount money.Money) (money.Money, error) {
	return l.adjust(ctx, identity, amount.MinorUnits())
}

// Withdraw subtracts amount from the balance of identity and returns the new
// balance. On ErrInsufficientFunds the balance is unchanged.
func (l *Ledger) Withdraw(ctx context.Context, identity string, amount money.Money) (money.Money, error) {
	return l.adjust(ctx, identity, -amount.MinorUnits())
}

func (l *Ledger) adjust(ctx context.Context, identity string, delta int64) (money.Money, error) {
	if err := ctx.Err(); err != nil {
		return money.Zero, err
	}

	unlock := l.lock(identity)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return money.Zero, err
	}

	next, err := l.repo.Adjust(ctx, identity, delta, l.limit)
	if err != nil {
		return money.Zero, mapStoreError(err)
	}
	return balanceOf(next)
}

// lock acquires the per-identity mutex and returns its release function.
func (l *Ledger) lock(identity string) func() {
	l.mu.Lock()
	al, ok := l.locks[identity]
	if !ok {
		al = &accountLock{}
		l.locks[identity] = al
	}
	al.refs++
	l.mu.Unlock()

	al.mu.Lock()

	return func() {
		al.mu.Unlock()

		l.mu.Lock()
		al.refs--
		if al.refs == 0 {
			delete(l.locks, identity)
		}
		l.mu.Unlock()
	}
}

func (l *Ledger) heldLocks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func balanceOf(minor int64) (money.Money, error) {
	m, err := money.FromMinorUnits(minor)
	if err != nil {
		return money.Zero, fmt.Errorf("%w: stored balance out of range", ErrUnavailable)
	}
	return m, nil
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrExists):
		return ErrAlreadyExists
	case errors.Is(err, store.ErrLimitExceeded):
		return ErrOverflow
	case errors.Is(err, store.ErrInsufficientFunds):
		return ErrInsufficientFunds
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
