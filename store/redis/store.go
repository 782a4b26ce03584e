package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goBank/store"
	"github.com/redis/go-redis/v9"
)

const (
	adjustStatusNotFound     int64 = 0
	adjustStatusApplied      int64 = 1
	adjustStatusInsufficient int64 = 2
	adjustStatusLimit        int64 = 3
)

const insertAccountScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "h", ARGV[1], "b", ARGV[2], "c", ARGV[3])
return 1
`

var insertAccountLua = redis.NewScript(insertAccountScript)

const adjustBalanceScript = `
local raw = redis.call("HGET", KEYS[1], "b")
if not raw then
  return {0, 0}
end

local balance = tonumber(raw)
local delta = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local next_balance = balance + delta

if next_balance < 0 then
  return {2, balance}
end
if next_balance > limit then
  return {3, balance}
end

return {1, redis.call("HINCRBY", KEYS[1], "b", ARGV[1])}
`

var adjustBalanceLua = redis.NewScript(adjustBalanceScript)

// Store is a Redis-backed store.Repository.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a Store that namespaces keys under prefix.
// An empty prefix defaults to "bank".
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "bank"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(identity string) string {
	return s.prefix + ":acct:" + identity
}

// Get loads the account hash for identity.
func (s *Store) Get(ctx context.Context, identity string) (store.Account, error) {
	fields, err := s.redis.HGetAll(ctx, s.key(identity)).Result()
	if err != nil {
		return store.Account{}, unavailable(err)
	}
	if len(fields) == 0 {
		return store.Account{}, store.ErrNotFound
	}

	balance, err := strconv.ParseInt(fields["b"], 10, 64)
	if err != nil || balance < 0 {
		return store.Account{}, fmt.Errorf("%w: corrupt balance for account", store.ErrUnavailable)
	}

	acct := store.Account{
		Identity:     identity,
		PasswordHash: fields["h"],
		Balance:      balance,
	}
	if c, err := strconv.ParseInt(fields["c"], 10, 64); err == nil {
		acct.CreatedAt = time.Unix(c, 0).UTC()
	}
	return acct, nil
}

// Insert creates the account hash unless the key already exists.
func (s *Store) Insert(ctx context.Context, account store.Account) error {
	created := account.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	inserted, err := insertAccountLua.Run(
		ctx,
		s.redis,
		[]string{s.key(account.Identity)},
		account.PasswordHash,
		strconv.FormatInt(account.Balance, 10),
		strconv.FormatInt(created.Unix(), 10),
	).Int64()
	if err != nil {
		return unavailable(err)
	}
	if inserted == 0 {
		return store.ErrExists
	}
	return nil
}

// Adjust applies delta inside a Lua script so the bounds check and the write
// are one server-side step.
func (s *Store) Adjust(ctx context.Context, identity string, delta, limit int64) (int64, error) {
	res, err := adjustBalanceLua.Run(
		ctx,
		s.redis,
		[]string{s.key(identity)},
		delta,
		limit,
	).Int64Slice()
	if err != nil {
		return 0, unavailable(err)
	}
	if len(res) != 2 {
		return 0, fmt.Errorf("%w: unexpected script reply", store.ErrUnavailable)
	}

	switch res[0] {
	case adjustStatusApplied:
		return res[1], nil
	case adjustStatusNotFound:
		return 0, store.ErrNotFound
	case adjustStatusInsufficient:
		return res[1], store.ErrInsufficientFunds
	case adjustStatusLimit:
		return res[1], store.ErrLimitExceeded
	default:
		return 0, fmt.Errorf("%w: unknown adjust status %d", store.ErrUnavailable, res[0])
	}
}

// Ping checks connectivity to the Redis server.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

var (
	_ store.Repository = (*Store)(nil)
	_ store.Pinger     = (*Store)(nil)
)

// unavailable wraps a client error as store.ErrUnavailable. Context errors
// belong to the caller and pass through unchanged.
func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}
