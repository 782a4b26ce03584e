package jwt

import (
	"crypto/ed25519"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the token lifetime used when Config.TTL is zero.
const DefaultTTL = time.Hour

// minHMACKeyBytes matches the HS256 output size.
const minHMACKeyBytes = 32

var (
	// ErrMalformed is returned for tokens that cannot be decoded or lack required claims.
	ErrMalformed = errors.New("token malformed")
	// ErrInvalidSignature is returned when the signature or algorithm does not verify.
	ErrInvalidSignature = errors.New("token signature invalid")
	// ErrExpired is returned for correctly signed tokens past their expiry.
	ErrExpired = errors.New("token expired")
	// ErrNoSigningKey is returned by NewManager when no key is configured.
	ErrNoSigningKey = errors.New("token signing key is not configured")
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with a shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key and verifies with its public key.
	MethodEd25519 SigningMethod = "ed25519"
)

// Config defines token signing parameters.
//
// For MethodHS256 PrivateKey is the shared secret (at least 32 bytes). For
// MethodEd25519 PrivateKey and PublicKey are raw keys or PEM blocks; a
// verify-only manager may omit PrivateKey.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
	KeyID         string
}

// Claims is the token payload. Subject holds the identity.
type Claims struct {
	jwt.RegisteredClaims
}

// Token is an issued token with its validity window.
type Token struct {
	Value     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager issues and verifies tokens. It is immutable after construction and
// safe for concurrent use.
type Manager struct {
	config    Config
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	now       func() time.Time
}

// NewManager validates cfg and prepares the keys.
//
// NewManager returns ErrNoSigningKey when the configuration carries no key, so
// a process without key material fails at startup rather than on first use.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	m := &Manager{config: cfg, now: time.Now}

	switch cfg.SigningMethod {
	case MethodHS256, "":
		if len(cfg.PrivateKey) == 0 {
			return nil, ErrNoSigningKey
		}
		if len(cfg.PrivateKey) < minHMACKeyBytes {
			return nil, errors.New("hs256 key must be at least 32 bytes")
		}
		m.config.SigningMethod = MethodHS256
		m.method = jwt.SigningMethodHS256
		m.signKey = cfg.PrivateKey
		m.verifyKey = cfg.PrivateKey
	case MethodEd25519:
		if len(cfg.PrivateKey) == 0 && len(cfg.PublicKey) == 0 {
			return nil, ErrNoSigningKey
		}
		m.method = jwt.SigningMethodEdDSA
		if len(cfg.PrivateKey) > 0 {
			priv, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			m.signKey = priv
			m.verifyKey = priv.Public()
		}
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			m.verifyKey = pub
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return m, nil
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}

// Issue signs a token for identity valid from now until now+TTL.
func (m *Manager) Issue(identity string) (Token, error) {
	if identity == "" {
		return Token{}, errors.New("identity is empty")
	}
	if m.signKey == nil {
		return Token{}, ErrNoSigningKey
	}

	now := m.now().Truncate(time.Second)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
			Issuer:    m.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(m.method, claims)
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}

	signed, err := token.SignedString(m.signKey)
	if err != nil {
		return Token{}, err
	}

	return Token{
		Value:     signed,
		ID:        claims.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.config.TTL),
	}, nil
}

// Verify checks tokenStr and returns the identity it was issued for.
//
// The error is one of ErrMalformed, ErrInvalidSignature or ErrExpired.
func (m *Manager) Verify(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", ErrMalformed
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, ErrInvalidSignature
		}
		if m.config.KeyID != "" {
			if kid, _ := t.Header["kid"].(string); kid != m.config.KeyID {
				return nil, ErrInvalidSignature
			}
		}
		return m.verifyKey, nil
	})
	if err != nil {
		return "", classify(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrMalformed
	}

	return claims.Subject, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, ErrInvalidSignature):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
