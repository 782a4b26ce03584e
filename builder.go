package goBank

import (
	"errors"
	"io"
	"log/slog"

	"github.com/MrEthical07/goBank/credential"
	"github.com/MrEthical07/goBank/internal/rate"
	"github.com/MrEthical07/goBank/jwt"
	"github.com/MrEthical07/goBank/ledger"
	"github.com/MrEthical07/goBank/password"
	"github.com/MrEthical07/goBank/store"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder can be used for one Build call.
type Builder struct {
	config Config
	repo   store.Repository
	redis  redis.UniversalClient
	logger *slog.Logger

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration. The value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRepository sets the account storage backend. Required.
func (b *Builder) WithRepository(repo store.Repository) *Builder {
	b.repo = repo
	return b
}

// WithRedis enables login and registration throttling on client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. The default discards output.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the destination for audit events and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles login and transaction latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
//
// Build fails when no repository is set or when the token signing key is
// missing, so a misconfigured process stops at startup.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.repo == nil {
		return nil, errors.New("account repository required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// -------- LEDGER --------
	l, err := ledger.New(b.repo, ledger.Config{MaxBalance: cfg.Ledger.MaxBalance})
	if err != nil {
		return nil, err
	}

	// -------- CREDENTIALS --------
	ph, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}
	creds, err := credential.NewStore(ph, b.repo, l)
	if err != nil {
		return nil, err
	}

	// -------- TOKENS --------
	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Token.TTL,
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
		KeyID:         cfg.Token.KeyID,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      cloneConfig(cfg),
		ledger:      l,
		credentials: creds,
		tokens:      tokens,
		repo:        b.repo,
		redis:       b.redis,
		logger:      logger,
	}

	if b.redis != nil {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			Namespace:             cfg.Security.RedisPrefix,
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldown:         cfg.Security.LoginCooldown,
			MaxRegistrationsPerIP: cfg.Security.MaxRegistrationsPerIP,
			RegistrationWindow:    cfg.Security.RegistrationWindow,
		})
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
