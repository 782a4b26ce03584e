// Command ledger-loadtest drives concurrent deposits and withdrawals against a
// Redis-backed ledger and checks that no update was lost.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goBank/ledger"
	"github.com/MrEthical07/goBank/money"
	redisstore "github.com/MrEthical07/goBank/store/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		accounts    = flag.Int("accounts", 1000, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (deposit + withdraw)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "bankload", "account key prefix")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	l, err := ledger.New(redisstore.NewStore(client, *prefix), ledger.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledger: %v\n", err)
		os.Exit(1)
	}

	ids := make([]string, *accounts)
	fmt.Printf("seeding %d accounts...\n", *accounts)
	startSeed := time.Now()
	for i := range ids {
		ids[i] = fmt.Sprintf("load-%d", i)
		if err := l.Open(ctx, ids[i], "x", money.Zero); err != nil && !errors.Is(err, ledger.ErrAlreadyExists) {
			fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	before := totalBalance(ctx, l, ids)
	cent, _ := money.FromMinorUnits(1)

	depositStats := runPhase(ids, *ops, *concurrency, func(id string) error {
		_, err := l.Deposit(ctx, id, cent)
		return err
	})
	withdrawStats := runPhase(ids, *ops, *concurrency, func(id string) error {
		_, err := l.Withdraw(ctx, id, cent)
		return err
	})

	after := totalBalance(ctx, l, ids)
	applied := int64(depositStats.ops) - depositStats.failures - (int64(withdrawStats.ops) - withdrawStats.failures)

	fmt.Println("---- results ----")
	printStats("deposit", depositStats)
	printStats("withdraw", withdrawStats)
	fmt.Printf("balance delta: got=%d want=%d\n", after-before, applied)
	if after-before != applied {
		fmt.Fprintln(os.Stderr, "lost update detected")
		os.Exit(1)
	}
}

func totalBalance(ctx context.Context, l *ledger.Ledger, ids []string) int64 {
	var sum int64
	for _, id := range ids {
		bal, err := l.Read(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", id, err)
			os.Exit(1)
		}
		sum += bal.MinorUnits()
	}
	return sum
}

func runPhase(ids []string, ops, concurrency int, op func(id string) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				id := ids[r.Intn(len(ids))]
				t0 := time.Now()
				err := op(id)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
