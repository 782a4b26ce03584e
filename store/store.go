package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for the identity.
	ErrNotFound = errors.New("account not found")
	// ErrExists is returned by Insert when the identity is already present.
	ErrExists = errors.New("account already exists")
	// ErrInsufficientFunds is returned by Adjust when the balance would go negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrLimitExceeded is returned by Adjust when the balance would exceed the limit.
	ErrLimitExceeded = errors.New("balance limit exceeded")
	// ErrUnavailable wraps backend faults such as lost connections.
	ErrUnavailable = errors.New("account store unavailable")
)

// Account is the persisted account record. Balance is in minor units.
type Account struct {
	Identity     string
	PasswordHash string
	Balance      int64
	CreatedAt    time.Time
}

// Repository is the storage contract the ledger depends on.
type Repository interface {
	Get(ctx context.Context, identity string) (Account, error)
	Insert(ctx context.Context, account Account) error
	Adjust(ctx context.Context, identity string, delta, limit int64) (int64, error)
}

// Pinger is implemented by repositories backed by a remote server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckAdjust reports the outcome of applying delta to balance under limit.
// Implementations that compute the update in process share it.
func CheckAdjust(balance, delta, limit int64) (int64, error) {
	if delta < 0 {
		if balance < -delta {
			return balance, ErrInsufficientFunds
		}
		return balance + delta, nil
	}
	if delta > limit-balance {
		return balance, ErrLimitExceeded
	}
	return balance + delta, nil
}
