package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	goBank "github.com/MrEthical07/goBank"
	"github.com/MrEthical07/goBank/money"
)

type settings struct {
	HTTPAddr       string
	SigningKey     []byte
	SigningMethod  string
	TokenTTL       time.Duration
	MaxBalance     money.Money
	Store          string
	RedisAddr      string
	DatabaseURL    string
	DBMaxConns     int32
	KafkaBrokers   []string
	KafkaTopic     string
	LogLevel       slog.Level
	AllowedOrigins []string
	TrustProxy     bool
	OTelEnabled    bool
	OTelInterval   time.Duration
}

// loadSettings reads the process configuration through getenv. A missing
// signing key is an error.
func loadSettings(getenv func(string) string) (settings, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	s := settings{
		HTTPAddr:      env("BANK_HTTP_ADDR", ":8080"),
		SigningMethod: env("BANK_SIGNING_METHOD", "hs256"),
		RedisAddr:     env("REDIS_ADDR", ""),
		DatabaseURL:   env("DATABASE_URL", ""),
		KafkaTopic:    env("KAFKA_AUDIT_TOPIC", ""),
		DBMaxConns:    10,
		LogLevel:      slog.LevelInfo,
	}

	key := env("BANK_SIGNING_KEY", "")
	if key == "" {
		return settings{}, errors.New("BANK_SIGNING_KEY is required")
	}
	s.SigningKey = []byte(key)

	ttl, err := strconv.Atoi(env("BANK_TOKEN_TTL", "3600"))
	if err != nil || ttl <= 0 {
		return settings{}, errors.New("BANK_TOKEN_TTL must be a positive number of seconds")
	}
	s.TokenTTL = time.Duration(ttl) * time.Second

	if v := env("BANK_MAX_BALANCE", ""); v != "" {
		if s.MaxBalance, err = money.Parse(v); err != nil {
			return settings{}, fmt.Errorf("BANK_MAX_BALANCE: %w", err)
		}
	}

	if v := env("DB_MAX_CONNS", ""); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n <= 0 {
			return settings{}, errors.New("DB_MAX_CONNS must be a positive integer")
		}
		s.DBMaxConns = int32(n)
	}

	if v := env("KAFKA_BROKERS", ""); v != "" {
		s.KafkaBrokers = splitList(v)
	}
	if v := env("BANK_CORS_ORIGINS", ""); v != "" {
		s.AllowedOrigins = splitList(v)
	}

	boolEnv := func(key string) (bool, error) {
		v := env(key, "false")
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%s: invalid boolean %q", key, v)
		}
		return b, nil
	}
	if s.TrustProxy, err = boolEnv("BANK_TRUST_PROXY"); err != nil {
		return settings{}, err
	}
	if s.OTelEnabled, err = boolEnv("BANK_OTEL_ENABLED"); err != nil {
		return settings{}, err
	}
	interval, err := strconv.Atoi(env("BANK_OTEL_INTERVAL", "60"))
	if err != nil || interval <= 0 {
		return settings{}, errors.New("BANK_OTEL_INTERVAL must be a positive number of seconds")
	}
	s.OTelInterval = time.Duration(interval) * time.Second

	if err := s.LogLevel.UnmarshalText([]byte(env("BANK_LOG_LEVEL", "info"))); err != nil {
		return settings{}, fmt.Errorf("BANK_LOG_LEVEL: %w", err)
	}

	s.Store = env("BANK_STORE", "")
	switch {
	case s.Store != "":
	case s.DatabaseURL != "":
		s.Store = "postgres"
	case s.RedisAddr != "":
		s.Store = "redis"
	default:
		s.Store = "memory"
	}
	switch s.Store {
	case "memory":
	case "redis":
		if s.RedisAddr == "" {
			return settings{}, errors.New("BANK_STORE=redis requires REDIS_ADDR")
		}
	case "postgres":
		if s.DatabaseURL == "" {
			return settings{}, errors.New("BANK_STORE=postgres requires DATABASE_URL")
		}
	default:
		return settings{}, fmt.Errorf("unknown BANK_STORE %q", s.Store)
	}

	return s, nil
}

func (s settings) engineConfig() goBank.Config {
	cfg := goBank.DefaultConfig()
	cfg.Token.PrivateKey = s.SigningKey
	cfg.Token.SigningMethod = s.SigningMethod
	cfg.Token.TTL = s.TokenTTL
	cfg.Ledger.MaxBalance = s.MaxBalance
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
