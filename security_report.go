package goBank

import (
	"time"

	"github.com/MrEthical07/goBank/money"
)

// SecurityReport summarizes the Engine's security posture. It never includes
// key material.
type SecurityReport struct {
	SigningAlgorithm           string
	TokenTTL                   time.Duration
	Argon2                     PasswordConfigReport
	BalanceLimit               money.Money
	LoginThrottleActive        bool
	IPThrottleActive           bool
	RegistrationThrottleActive bool
	FailOpenRegistration       bool
	AuditEnabled               bool
}

// PasswordConfigReport mirrors the Argon2id cost parameters.
type PasswordConfigReport struct {
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

// SecurityReport returns the effective security settings.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	throttled := e.rateLimiter != nil

	return SecurityReport{
		SigningAlgorithm: e.config.Token.SigningMethod,
		TokenTTL:         e.TokenTTL(),
		Argon2: PasswordConfigReport{
			Memory:           e.config.Password.Memory,
			Time:             e.config.Password.Time,
			Parallelism:      e.config.Password.Parallelism,
			SaltLength:       e.config.Password.SaltLength,
			KeyLength:        e.config.Password.KeyLength,
			MaxPasswordBytes: e.config.Password.MaxPasswordBytes,
		},
		BalanceLimit:               e.BalanceLimit(),
		LoginThrottleActive:        throttled,
		IPThrottleActive:           throttled && e.config.Security.EnableIPThrottle,
		RegistrationThrottleActive: throttled && e.config.Security.MaxRegistrationsPerIP > 0,
		FailOpenRegistration:       e.config.Security.FailOpenRegistration,
		AuditEnabled:               e.audit != nil,
	}
}
