// Package memory provides a process-local account repository.
//
// It is the default backend for tests and single-process deployments. Records
// live for the lifetime of the Store and are lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goBank/store"
)

// Store is an in-memory store.Repository. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	accounts map[string]store.Account
	now      func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[string]store.Account),
		now:      time.Now,
	}
}

// Get returns a copy of the record for identity.
func (s *Store) Get(ctx context.Context, identity string) (store.Account, error) {
	if err := ctx.Err(); err != nil {
		return store.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[identity]
	if !ok {
		return store.Account{}, store.ErrNotFound
	}
	return acct, nil
}

// Insert adds account if its identity is not yet present.
func (s *Store) Insert(ctx context.Context, account store.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Identity]; ok {
		return store.ErrExists
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = s.now().UTC()
	}
	s.accounts[account.Identity] = account
	return nil
}

// Adjust applies delta to the balance of identity when the result stays in [0, limit].
func (s *Store) Adjust(ctx context.Context, identity string, delta, limit int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[identity]
	if !ok {
		return 0, store.ErrNotFound
	}

	next, err := store.CheckAdjust(acct.Balance, delta, limit)
	if err != nil {
		return acct.Balance, err
	}
	acct.Balance = next
	s.accounts[identity] = acct
	return next, nil
}

// Len reports the number of stored accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

var _ store.Repository = (*Store)(nil)
