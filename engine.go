package goBank

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goBank/credential"
	"github.com/MrEthical07/goBank/internal/rate"
	"github.com/MrEthical07/goBank/jwt"
	"github.com/MrEthical07/goBank/ledger"
	"github.com/MrEthical07/goBank/money"
	"github.com/MrEthical07/goBank/store"
	"github.com/redis/go-redis/v9"
)

// Engine is the bank core: the Authenticator (Register, Login) and the
// Transaction Gateway (Authorize, Handle, Deposit, Withdraw, Balance).
//
// An Engine is built once with [Builder] and is safe for concurrent use.
type Engine struct {
	config      Config
	ledger      *ledger.Ledger
	credentials *credential.Store
	tokens      *jwt.Manager
	repo        store.Repository
	redis       redis.UniversalClient
	logger      *slog.Logger
	rateLimiter *rate.Limiter
	audit       *auditDispatcher
	metrics     *Metrics
}

// Close drains the audit dispatcher. It does not close the repository or the
// Redis client, which belong to the caller.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the buffer
// was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the Engine counters. It is empty when
// metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// TokenTTL is the lifetime of tokens issued by Login.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil || e.tokens == nil {
		return 0
	}
	return e.tokens.TTL()
}

// BalanceLimit is the largest balance any account may hold.
func (e *Engine) BalanceLimit() money.Money {
	if e == nil || e.ledger == nil {
		return money.Zero
	}
	return e.ledger.Limit()
}

// Ping checks the storage backend and, when configured, Redis. Backends that
// do not implement store.Pinger are assumed healthy.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.repo == nil {
		return ErrEngineNotReady
	}
	if p, ok := e.repo.(store.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			e.logger.ErrorContext(ctx, "storage ping failed", "err", err)
			return fmt.Errorf("%w: storage", ErrInternal)
		}
	}
	if e.redis != nil {
		if err := e.redis.Ping(ctx).Err(); err != nil {
			e.logger.ErrorContext(ctx, "redis ping failed", "err", err)
			return fmt.Errorf("%w: redis", ErrInternal)
		}
	}
	return nil
}

func (e *Engine) ready() bool {
	return e != nil && e.ledger != nil && e.credentials != nil && e.tokens != nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// internalFault logs err with detail and returns an opaque ErrInternal.
func (e *Engine) internalFault(ctx context.Context, op string, err error) error {
	e.metricInc(MetricStorageFailure)
	e.logger.ErrorContext(ctx, "operation failed", "op", op, "err", err)
	return ErrInternal
}
