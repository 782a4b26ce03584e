package goBank

import (
	"errors"
	"time"

	"github.com/MrEthical07/goBank/money"
)

// Config holds every Engine setting. Start from [DefaultConfig] and override
// fields; the Builder validates the result.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Ledger   LedgerConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures session token signing.
//
// PrivateKey is mandatory: there is no built-in key. For "hs256" it is the
// shared secret; for "ed25519" it is the private key (raw or PEM).
type TokenConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
	KeyID         string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id cost parameters.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

/*
====================================
LEDGER CONFIG
====================================
*/

// LedgerConfig bounds account balances. A zero MaxBalance selects
// money.MaxMinorUnits; a lower value tightens the ceiling.
type LedgerConfig struct {
	MaxBalance money.Money
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls login and registration throttling. Throttling needs
// a Redis client (Builder.WithRedis); without one it is disabled.
type SecurityConfig struct {
	RedisPrefix           string
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldown         time.Duration
	MaxRegistrationsPerIP int
	RegistrationWindow    time.Duration
	// FailOpenRegistration lets registration proceed when the limiter backend
	// is down. Login always fails closed.
	FailOpenRegistration bool
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// EmitTimeout bounds each sink call. Zero leaves it unbounded.
	EmitTimeout time.Duration
}

// MetricsConfig toggles in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns production-leaning defaults. The token signing key is
// left empty and must be supplied.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL:           time.Hour,
			SigningMethod: "hs256",
			Issuer:        "gobank",
		},
		Password: PasswordConfig{
			Memory:           65536,
			Time:             3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
			MaxPasswordBytes: 1024,
		},
		Ledger: LedgerConfig{
			MaxBalance: money.Zero,
		},
		Security: SecurityConfig{
			RedisPrefix:           "bank",
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldown:         15 * time.Minute,
			MaxRegistrationsPerIP: 10,
			RegistrationWindow:    time.Hour,
			FailOpenRegistration:  false,
		},
		Audit: AuditConfig{
			Enabled:     false,
			BufferSize:  1024,
			DropIfFull:  true,
			EmitTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for values the Engine cannot run with.
func (c *Config) Validate() error {
	// Token
	if c.Token.TTL <= 0 {
		return errors.New("Token TTL must be > 0")
	}
	if c.Token.SigningMethod != "hs256" && c.Token.SigningMethod != "ed25519" {
		return errors.New("unsupported token signing method")
	}
	if len(c.Token.PrivateKey) == 0 {
		return errors.New("Token PrivateKey is required")
	}
	if c.Token.SigningMethod == "hs256" && len(c.Token.PrivateKey) < 32 {
		return errors.New("hs256 PrivateKey must be at least 32 bytes")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MaxPasswordBytes < 0 {
		return errors.New("Password MaxPasswordBytes must be >= 0")
	}

	// Security
	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("Security MaxLoginAttempts must be > 0")
	}
	if c.Security.LoginCooldown <= 0 {
		return errors.New("Security LoginCooldown must be > 0")
	}
	if c.Security.MaxRegistrationsPerIP < 0 {
		return errors.New("Security MaxRegistrationsPerIP must be >= 0")
	}
	if c.Security.MaxRegistrationsPerIP > 0 && c.Security.RegistrationWindow <= 0 {
		return errors.New("Security RegistrationWindow must be > 0 when registrations are throttled")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Audit.EmitTimeout < 0 {
		return errors.New("Audit EmitTimeout must be >= 0")
	}

	return nil
}
