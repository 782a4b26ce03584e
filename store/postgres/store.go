// Package postgres implements store.Repository on PostgreSQL through pgx.
//
// Accounts live in one table:
//
//	CREATE TABLE accounts (
//	    identity      TEXT PRIMARY KEY,
//	    password_hash TEXT NOT NULL,
//	    balance_minor BIGINT NOT NULL CHECK (balance_minor >= 0),
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// Insert relies on ON CONFLICT DO NOTHING and Adjust on a conditional UPDATE,
// so both are single statements and need no explicit transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goBank/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS accounts (
    identity      TEXT PRIMARY KEY,
    password_hash TEXT NOT NULL,
    balance_minor BIGINT NOT NULL CHECK (balance_minor >= 0),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const getAccountSQL = `
SELECT identity, password_hash, balance_minor, created_at
FROM accounts
WHERE identity = $1`

const insertAccountSQL = `
INSERT INTO accounts (identity, password_hash, balance_minor, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (identity) DO NOTHING`

// The target CTE reads the pre-update balance so a rejected update can be
// classified without a second round-trip.
const adjustBalanceSQL = `
WITH target AS (
    SELECT balance_minor FROM accounts WHERE identity = $1
), updated AS (
    UPDATE accounts
    SET balance_minor = balance_minor + $2
    WHERE identity = $1
      AND balance_minor + $2 >= 0
      AND balance_minor + $2 <= $3
    RETURNING balance_minor
)
SELECT (SELECT balance_minor FROM updated), (SELECT balance_minor FROM target)`

// DB is the subset of *pgxpool.Pool used by Store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Store is a PostgreSQL-backed store.Repository.
type Store struct {
	db  DB
	now func() time.Time
}

// NewStore wraps db. The accounts table must exist; see EnsureSchema.
func NewStore(db DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Connect opens a pgx pool for databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is empty")
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return pool, nil
}

// EnsureSchema creates the accounts table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return unavailable(err)
	}
	return nil
}

// Get loads the row for identity.
func (s *Store) Get(ctx context.Context, identity string) (store.Account, error) {
	var acct store.Account
	err := s.db.QueryRow(ctx, getAccountSQL, identity).Scan(
		&acct.Identity,
		&acct.PasswordHash,
		&acct.Balance,
		&acct.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Account{}, store.ErrNotFound
	}
	if err != nil {
		return store.Account{}, unavailable(err)
	}
	return acct, nil
}

// Insert adds the row unless the identity already exists.
func (s *Store) Insert(ctx context.Context, account store.Account) error {
	created := account.CreatedAt
	if created.IsZero() {
		created = s.now().UTC()
	}

	tag, err := s.db.Exec(ctx, insertAccountSQL,
		account.Identity,
		account.PasswordHash,
		account.Balance,
		created,
	)
	if err != nil {
		return unavailable(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrExists
	}
	return nil
}

// Adjust applies delta with one conditional UPDATE.
func (s *Store) Adjust(ctx context.Context, identity string, delta, limit int64) (int64, error) {
	var next, prev *int64
	if err := s.db.QueryRow(ctx, adjustBalanceSQL, identity, delta, limit).Scan(&next, &prev); err != nil {
		return 0, unavailable(err)
	}

	switch {
	case next != nil:
		return *next, nil
	case prev == nil:
		return 0, store.ErrNotFound
	default:
		if _, err := store.CheckAdjust(*prev, delta, limit); err != nil {
			return *prev, err
		}
		// the row changed between the CTE snapshot and the update
		if delta < 0 {
			return *prev, store.ErrInsufficientFunds
		}
		return *prev, store.ErrLimitExceeded
	}
}

// Ping checks connectivity to the database.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}

var (
	_ store.Repository = (*Store)(nil)
	_ store.Pinger     = (*Store)(nil)
	_ DB               = (*pgxpool.Pool)(nil)
)
