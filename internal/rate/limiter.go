package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	Namespace             string
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldown         time.Duration
	MaxRegistrationsPerIP int
	RegistrationWindow    time.Duration
}

// Limiter enforces per-identity and per-IP attempt budgets using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Namespace == "" {
		cfg.Namespace = "bank"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *Limiter) loginIdentityKey(identity string) string {
	return l.config.Namespace + ":rl:" + identity
}

func (l *Limiter) loginIPKey(ip string) string {
	return l.config.Namespace + ":rli:" + ip
}

func (l *Limiter) registerIPKey(ip string) string {
	return l.config.Namespace + ":rr:" + ip
}

// CheckLogin returns ErrRateLimited when identity or ip has used up its
// failed-login budget for the current window.
func (l *Limiter) CheckLogin(ctx context.Context, identity, ip string) error {
	if err := l.checkCounter(ctx, l.loginIdentityKey(identity), l.config.MaxLoginAttempts); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, l.loginIPKey(ip), l.config.MaxLoginAttempts); err != nil {
			return err
		}
	}

	return nil
}

// RecordLoginFailure counts a failed login for identity and ip.
// It returns ErrRateLimited once the budget is exhausted.
func (l *Limiter) RecordLoginFailure(ctx context.Context, identity, ip string) error {
	count, err := l.incrementWithTTL(ctx, l.loginIdentityKey(identity), l.config.LoginCooldown)
	if err != nil {
		return err
	}
	limited := count >= int64(l.config.MaxLoginAttempts)

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, l.loginIPKey(ip), l.config.LoginCooldown)
		if err != nil {
			return err
		}
		limited = limited || count >= int64(l.config.MaxLoginAttempts)
	}

	if limited {
		return ErrRateLimited
	}
	return nil
}

// ResetLogin clears the identity counter after a successful login. The IP
// counter is left alone so one good account cannot launder attempts on others.
func (l *Limiter) ResetLogin(ctx context.Context, identity string) error {
	if err := l.redis.Del(ctx, l.loginIdentityKey(identity)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// LoginAttempts returns the failed-login count for identity in the current window.
func (l *Limiter) LoginAttempts(ctx context.Context, identity string) (int, error) {
	count, err := l.redis.Get(ctx, l.loginIdentityKey(identity)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// AllowRegistration counts a registration attempt from ip and returns
// ErrRateLimited when the window budget is exceeded. An empty ip or a zero
// budget disables the check.
func (l *Limiter) AllowRegistration(ctx context.Context, ip string) error {
	if ip == "" || l.config.MaxRegistrationsPerIP <= 0 {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, l.registerIPKey(ip), l.config.RegistrationWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRegistrationsPerIP) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
