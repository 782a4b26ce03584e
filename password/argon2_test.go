package password

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// maxIdentityBytes is the longest password the credential grammar admits.
const maxIdentityBytes = 127

func bankConfig() Config {
	return Config{
		Memory:           8 * 1024,
		Time:             1,
		Parallelism:      1,
		SaltLength:       16,
		KeyLength:        32,
		MaxPasswordBytes: maxIdentityBytes,
	}
}

func newHasher(t *testing.T, cfg Config) *Argon2 {
	t.Helper()
	h, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	return h
}

func TestHashVerifyAccountPasswords(t *testing.T) {
	h := newHasher(t, bankConfig())

	tests := []struct {
		pw    string
		wrong string
	}{
		{"secretpw", "secretpx"},
		{"a", "b"},
		{"hunter_2.0", "hunter_2-0"},
		{"-.-", "-.-."},
		{strings.Repeat("z", maxIdentityBytes), strings.Repeat("z", maxIdentityBytes-1)},
	}

	for _, tt := range tests {
		hash, err := h.Hash(tt.pw)
		if err != nil {
			t.Fatalf("Hash(%q) error: %v", tt.pw, err)
		}
		if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
			t.Fatalf("unexpected PHC prefix: %s", hash)
		}
		if ok, err := h.Verify(tt.pw, hash); err != nil || !ok {
			t.Fatalf("Verify(%q): ok=%v err=%v", tt.pw, ok, err)
		}
		if ok, err := h.Verify(tt.wrong, hash); err != nil || ok {
			t.Fatalf("Verify(%q) against hash of %q: ok=%v err=%v", tt.wrong, tt.pw, ok, err)
		}
	}
}

func TestHashSaltsEachAccount(t *testing.T) {
	h := newHasher(t, bankConfig())

	alice, err := h.Hash("secretpw")
	if err != nil {
		t.Fatal(err)
	}
	bob, err := h.Hash("secretpw")
	if err != nil {
		t.Fatal(err)
	}
	if alice == bob {
		t.Fatal("two accounts with one password share a hash")
	}
	if ok, _ := h.Verify("secretpw", bob); !ok {
		t.Fatal("second hash does not verify")
	}
}

func TestPasswordLengthBounds(t *testing.T) {
	h := newHasher(t, bankConfig())

	if _, err := h.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("empty: expected ErrEmptyPassword, got %v", err)
	}

	over := strings.Repeat("q", maxIdentityBytes+1)
	if _, err := h.Hash(over); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("Hash: expected ErrPasswordTooLong, got %v", err)
	}

	hash, err := h.Hash("secretpw")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Verify(over, hash); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("Verify: expected ErrPasswordTooLong, got %v", err)
	}

	cfg := bankConfig()
	cfg.MaxPasswordBytes = 0
	d := newHasher(t, cfg)
	if _, err := d.Hash(strings.Repeat("q", DefaultMaxPasswordBytes)); err != nil {
		t.Fatalf("default limit rejected %d bytes: %v", DefaultMaxPasswordBytes, err)
	}
	if _, err := d.Hash(strings.Repeat("q", DefaultMaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("default limit: expected ErrPasswordTooLong, got %v", err)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	current := bankConfig()
	current.Memory = 16 * 1024
	current.Time = 2
	current.Parallelism = 2
	h := newHasher(t, current)

	tests := []struct {
		name   string
		stored func(*Config)
		want   bool
	}{
		{"same parameters", func(*Config) {}, false},
		{"less memory", func(c *Config) { c.Memory = 8 * 1024 }, true},
		{"fewer passes", func(c *Config) { c.Time = 1 }, true},
		{"less parallelism", func(c *Config) { c.Parallelism = 1 }, true},
		{"shorter key", func(c *Config) { c.KeyLength = 16 }, true},
		{"stronger stored hash", func(c *Config) { c.Memory = 32 * 1024; c.Time = 3 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := current
			tt.stored(&cfg)
			hash, err := newHasher(t, cfg).Hash("secretpw")
			if err != nil {
				t.Fatal(err)
			}
			got, err := h.NeedsUpgrade(hash)
			if err != nil {
				t.Fatalf("NeedsUpgrade error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("NeedsUpgrade = %v, want %v", got, tt.want)
			}
			if ok, err := h.Verify("secretpw", hash); err != nil || !ok {
				t.Fatalf("hash with stored parameters no longer verifies: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestVerifyRejectsCorruptStoredHash(t *testing.T) {
	h := newHasher(t, bankConfig())
	salt := base64.StdEncoding.EncodeToString(make([]byte, 16))
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	phc := func(alg, version, params, salt, key string) string {
		return fmt.Sprintf("$%s$%s$%s$%s$%s", alg, version, params, salt, key)
	}

	tests := map[string]string{
		"not phc":          "not-a-phc-hash",
		"argon2i":          phc("argon2i", "v=19", "m=8192,t=1,p=1", salt, key),
		"old version":      phc("argon2id", "v=18", "m=8192,t=1,p=1", salt, key),
		"missing version":  phc("argon2id", "19", "m=8192,t=1,p=1", salt, key),
		"missing param":    phc("argon2id", "v=19", "m=8192,t=1", salt, key),
		"unknown param":    phc("argon2id", "v=19", "m=8192,t=1,x=1", salt, key),
		"memory too small": phc("argon2id", "v=19", "m=1024,t=1,p=1", salt, key),
		"zero passes":      phc("argon2id", "v=19", "m=8192,t=0,p=1", salt, key),
		"salt not base64":  phc("argon2id", "v=19", "m=8192,t=1,p=1", "***", key),
		"salt too short":   phc("argon2id", "v=19", "m=8192,t=1,p=1", base64.StdEncoding.EncodeToString([]byte("short")), key),
		"empty key":        phc("argon2id", "v=19", "m=8192,t=1,p=1", salt, ""),
	}

	for name, stored := range tests {
		if _, err := h.Verify("secretpw", stored); err == nil {
			t.Fatalf("%s: expected error for %q", name, stored)
		}
		if _, err := h.NeedsUpgrade(stored); err == nil {
			t.Fatalf("%s: NeedsUpgrade accepted %q", name, stored)
		}
	}
}

func TestVerifyDummyNeverMatches(t *testing.T) {
	h := newHasher(t, bankConfig())

	for _, candidate := range []string{"", "secretpw", "admin", h.dummy, strings.Repeat("x", maxIdentityBytes+10)} {
		if h.VerifyDummy(candidate) {
			t.Fatalf("VerifyDummy(%q) returned true", candidate)
		}
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"memory", func(c *Config) { c.Memory = 4 * 1024 }},
		{"time", func(c *Config) { c.Time = 0 }},
		{"parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"salt", func(c *Config) { c.SaltLength = 8 }},
		{"key", func(c *Config) { c.KeyLength = 8 }},
		{"negative max", func(c *Config) { c.MaxPasswordBytes = -1 }},
	}

	for _, tt := range tests {
		cfg := bankConfig()
		tt.mutate(&cfg)
		if _, err := NewArgon2(cfg); err == nil {
			t.Fatalf("%s: expected config error", tt.name)
		}
	}
}
