// Command bankd serves the bank API over HTTP.
//
// Configuration comes from the environment, optionally seeded from a .env
// file. BANK_SIGNING_KEY is mandatory; the process exits at startup without
// it. The account store is Postgres when DATABASE_URL is set, Redis when
// REDIS_ADDR is set, and in-memory otherwise; BANK_STORE overrides the choice.
//
// BANK_TRUST_PROXY makes per-IP throttling key on X-Forwarded-For / X-Real-IP;
// leave it off unless a proxy in front of bankd overwrites those headers.
// BANK_OTEL_ENABLED pushes engine metrics over OTLP/HTTP every
// BANK_OTEL_INTERVAL seconds; the endpoint comes from the standard
// OTEL_EXPORTER_OTLP_* variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goBank "github.com/MrEthical07/goBank"
	kafkaaudit "github.com/MrEthical07/goBank/audit/kafka"
	"github.com/MrEthical07/goBank/httpapi"
	"github.com/MrEthical07/goBank/store"
	"github.com/MrEthical07/goBank/store/memory"
	"github.com/MrEthical07/goBank/store/postgres"
	redisstore "github.com/MrEthical07/goBank/store/redis"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadSettings(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("bankd exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg settings, logger *slog.Logger) error {
	var rdb redis.UniversalClient
	if cfg.RedisAddr != "" {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
		defer rdb.Close()
	}

	repo, closeRepo, err := openRepository(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	defer closeRepo()
	logger.Info("account store ready", "store", cfg.Store)

	builder := goBank.New().
		WithConfig(cfg.engineConfig()).
		WithRepository(repo).
		WithLogger(logger)
	if rdb != nil {
		builder.WithRedis(rdb)
	}

	var sink *kafkaaudit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		sink, err = kafkaaudit.NewSink(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			return err
		}
		builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	logger.Info("engine ready", "security", engine.SecurityReport())

	shutdownTelemetry := func(context.Context) error { return nil }
	if cfg.OTelEnabled {
		shutdownTelemetry, err = startTelemetry(ctx, engine, cfg.OTelInterval)
		if err != nil {
			engine.Close()
			return fmt.Errorf("start telemetry: %w", err)
		}
		logger.Info("otel metrics enabled", "interval", cfg.OTelInterval)
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewServer(engine, httpapi.Options{
			Logger:            logger,
			AllowedOrigins:    cfg.AllowedOrigins,
			RequestTimeout:    30 * time.Second,
			TrustProxyHeaders: cfg.TrustProxy,
		}).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown", "err", err)
	}
	engine.Close()
	if sink != nil {
		if err := sink.Close(); err != nil {
			logger.Warn("audit sink close", "err", err)
		}
	}
	return nil
}

func openRepository(ctx context.Context, cfg settings, rdb redis.UniversalClient) (store.Repository, func(), error) {
	switch cfg.Store {
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewStore(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, pool.Close, nil
	case "redis":
		return redisstore.NewStore(rdb, "bank"), func() {}, nil
	default:
		return memory.New(), func() {}, nil
	}
}
