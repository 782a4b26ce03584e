package goBank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func throttleConfig() Config {
	cfg := testConfig()
	cfg.Security.MaxLoginAttempts = 3
	cfg.Security.LoginCooldown = time.Minute
	cfg.Security.MaxRegistrationsPerIP = 2
	cfg.Security.RegistrationWindow = time.Minute
	return cfg
}

func TestLoginThrottleLocksAfterFailures(t *testing.T) {
	mr, rdb := newTestRedis(t)
	e := newEngineTest(t, func(b *Builder) {
		b.WithConfig(throttleConfig()).WithRedis(rdb)
	})
	ctx := context.Background()
	mustRegister(t, e, "alice", "secretpw", "1.00")

	for i := 0; i < 3; i++ {
		if _, err := e.Login(ctx, "alice", "nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	if _, err := e.Login(ctx, "alice", "secretpw"); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}

	mr.FastForward(time.Minute + time.Second)

	mustLogin(t, e, "alice", "secretpw")
	if got := mr.Exists("bank:rl:alice"); got {
		t.Fatal("successful login should clear the failure counter")
	}

	snap := e.MetricsSnapshot()
	if snap.Counters[MetricLoginRateLimited] != 1 {
		t.Fatalf("rate limited counter = %d, want 1", snap.Counters[MetricLoginRateLimited])
	}
	if snap.Counters[MetricLoginFailure] != 3 {
		t.Fatalf("failure counter = %d, want 3", snap.Counters[MetricLoginFailure])
	}
}

func TestLoginThrottleCountsUnknownIdentities(t *testing.T) {
	_, rdb := newTestRedis(t)
	e := newEngineTest(t, func(b *Builder) {
		b.WithConfig(throttleConfig()).WithRedis(rdb)
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = e.Login(ctx, "ghost", "pw")
	}
	if _, err := e.Login(ctx, "ghost", "pw"); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}
}

func TestLoginThrottleFailsClosed(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()

	e := newEngineTest(t, func(b *Builder) {
		b.WithConfig(throttleConfig()).WithRedis(rdb)
	})
	mustRegister(t, e, "alice", "secretpw", "1.00")
	mr.Close()

	if _, err := e.Login(context.Background(), "alice", "secretpw"); !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if got := e.MetricsSnapshot().Counters[MetricStorageFailure]; got != 1 {
		t.Fatalf("storage failure counter = %d, want 1", got)
	}
}

func TestRegistrationThrottlePerIP(t *testing.T) {
	_, rdb := newTestRedis(t)
	e := newEngineTest(t, func(b *Builder) {
		b.WithConfig(throttleConfig()).WithRedis(rdb)
	})
	ctx := WithClientIP(context.Background(), "203.0.113.7")

	register := func(id string) error {
		return e.Register(ctx, id, "pw", "0.00")
	}
	if err := register("a1"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := register("a2"); err != nil {
		t.Fatalf("second: %v", err)
	}
	if err := register("a3"); !errors.Is(err, ErrRegistrationRateLimited) {
		t.Fatalf("expected ErrRegistrationRateLimited, got %v", err)
	}

	other := WithClientIP(context.Background(), "198.51.100.1")
	if err := e.Register(other, "a3", "pw", "0.00"); err != nil {
		t.Fatalf("other IP should not be limited: %v", err)
	}
	if err := e.Register(context.Background(), "a4", "pw", "0.00"); err != nil {
		t.Fatalf("unknown IP should not be limited: %v", err)
	}
}

func TestRegistrationThrottleOutage(t *testing.T) {
	tests := []struct {
		name     string
		failOpen bool
		want     error
	}{
		{name: "fail closed", failOpen: false, want: ErrInternal},
		{name: "fail open", failOpen: true, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, err := miniredis.Run()
			if err != nil {
				t.Fatalf("miniredis: %v", err)
			}
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
			defer rdb.Close()

			cfg := throttleConfig()
			cfg.Security.FailOpenRegistration = tt.failOpen
			e := newEngineTest(t, func(b *Builder) { b.WithConfig(cfg).WithRedis(rdb) })
			mr.Close()

			ctx := WithClientIP(context.Background(), "203.0.113.7")
			err = e.Register(ctx, "alice", "pw", "1.00")
			if tt.want == nil && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
