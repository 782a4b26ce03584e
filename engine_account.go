package goBank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goBank/credential"
	"github.com/MrEthical07/goBank/internal/rate"
	"github.com/MrEthical07/goBank/ledger"
	"github.com/MrEthical07/goBank/money"
)

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Balance   money.Money
}

// Register creates an account for identity with rawPassword and an opening
// balance parsed from initialBalanceInput.
//
// Identity and password must match [_.\-0-9a-z]{1,127}. Among concurrent
// registrations of one identity exactly one succeeds and the rest return
// ErrUsernameTaken. Password hashing happens before any ledger work.
func (e *Engine) Register(ctx context.Context, identity, rawPassword, initialBalanceInput string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	if err := credential.ValidateIdentity(identity); err != nil {
		return e.registerRejected(ctx, identity, ErrInvalidFormat, "identity")
	}
	if err := credential.ValidatePassword(rawPassword); err != nil {
		return e.registerRejected(ctx, identity, ErrInvalidFormat, "password")
	}
	initial, err := money.Parse(initialBalanceInput)
	if err != nil {
		if errors.Is(err, money.ErrOverflow) {
			return e.registerRejected(ctx, identity, ErrOverflow, "initial_balance")
		}
		return e.registerRejected(ctx, identity, ErrInvalidFormat, "initial_balance")
	}

	if err := e.checkRegistrationThrottle(ctx, identity); err != nil {
		return err
	}

	err = e.credentials.Register(ctx, identity, rawPassword, initial)
	switch {
	case err == nil:
	case errors.Is(err, credential.ErrUsernameTaken):
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterDuplicate, false, identity, ErrUsernameTaken, nil)
		return ErrUsernameTaken
	case errors.Is(err, credential.ErrInvalidFormat):
		return e.registerRejected(ctx, identity, ErrInvalidFormat, "credentials")
	case errors.Is(err, ledger.ErrOverflow):
		return e.registerRejected(ctx, identity, ErrOverflow, "initial_balance")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		e.emitAudit(ctx, auditEventRegisterFailure, false, identity, ErrInternal, nil)
		return e.internalFault(ctx, "register", err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, identity, nil, nil)
	e.logger.InfoContext(ctx, "account registered", "identity", identity)
	return nil
}

func (e *Engine) registerRejected(ctx context.Context, identity string, err error, field string) error {
	if errors.Is(err, ErrOverflow) {
		e.metricInc(MetricOverflowRejected)
	} else {
		e.metricInc(MetricRegisterInvalid)
	}
	e.logger.DebugContext(ctx, "registration rejected", "field", field, "err", err)
	e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, func() map[string]string {
		return map[string]string{
			"field": field,
		}
	})
	return err
}

func (e *Engine) checkRegistrationThrottle(ctx context.Context, identity string) error {
	if e.rateLimiter == nil {
		return nil
	}

	err := e.rateLimiter.AllowRegistration(ctx, clientIPFromContext(ctx))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		e.metricInc(MetricRegisterRateLimited)
		e.emitAudit(ctx, auditEventRegisterRateLimited, false, identity, ErrRegistrationRateLimited, nil)
		e.emitRateLimit(ctx, "register", identity)
		return ErrRegistrationRateLimited
	case e.config.Security.FailOpenRegistration:
		e.logger.WarnContext(ctx, "registration throttle unavailable, allowing", "err", err)
		return nil
	default:
		return e.internalFault(ctx, "register_throttle", err)
	}
}

// Login verifies identity and rawPassword and issues a session token.
//
// Unknown identities and wrong passwords both return an error matching
// ErrInvalidCredentials. The error also matches ErrUserNotFound or
// ErrWrongPassword; callers crossing a trust boundary must only expose the
// former. Unknown identities cost the same hash work as known ones.
func (e *Engine) Login(ctx context.Context, identity, rawPassword string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricLoginLatency, start)

	if credential.ValidateIdentity(identity) != nil || credential.ValidatePassword(rawPassword) != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidFormat, nil)
		return nil, ErrInvalidFormat
	}

	ip := clientIPFromContext(ctx)
	if e.rateLimiter != nil {
		if err := e.rateLimiter.CheckLogin(ctx, identity, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricLoginRateLimited)
				e.emitAudit(ctx, auditEventLoginRateLimited, false, identity, ErrLoginRateLimited, nil)
				e.emitRateLimit(ctx, "login", identity)
				return nil, ErrLoginRateLimited
			}
			return nil, e.internalFault(ctx, "login_throttle", err)
		}
	}

	verified, err := e.credentials.Verify(ctx, identity, rawPassword)
	switch {
	case err == nil:
	case errors.Is(err, credential.ErrNotFound):
		return nil, e.loginFailed(ctx, identity, ip, ErrUserNotFound)
	case errors.Is(err, credential.ErrWrongPassword):
		return nil, e.loginFailed(ctx, identity, ip, ErrWrongPassword)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, e.internalFault(ctx, "login_verify", err)
	}

	if verified.NeedsRehash {
		e.metricInc(MetricPasswordRehashNeeded)
		e.logger.InfoContext(ctx, "stored password hash uses outdated parameters", "identity", identity)
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.ResetLogin(ctx, identity); err != nil {
			e.logger.WarnContext(ctx, "login throttle reset failed", "err", err)
		}
	}

	token, err := e.tokens.Issue(verified.Identity)
	if err != nil {
		return nil, e.internalFault(ctx, "login_issue", err)
	}
	e.metricInc(MetricTokenIssued)

	balance, err := e.ledger.Read(ctx, verified.Identity)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, e.internalFault(ctx, "login_balance", err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, verified.Identity, nil, func() map[string]string {
		return map[string]string{
			"token_id": token.ID,
		}
	})

	return &LoginResult{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		Balance:   balance,
	}, nil
}

func (e *Engine) loginFailed(ctx context.Context, identity, ip string, cause error) error {
	e.metricInc(MetricLoginFailure)
	err := fmt.Errorf("%w: %w", ErrInvalidCredentials, cause)
	e.emitAudit(ctx, auditEventLoginFailure, false, identity, err, nil)

	if e.rateLimiter != nil {
		switch rerr := e.rateLimiter.RecordLoginFailure(ctx, identity, ip); {
		case rerr == nil:
		case errors.Is(rerr, rate.ErrRateLimited):
			e.emitRateLimit(ctx, "login", identity)
		default:
			e.logger.WarnContext(ctx, "login failure not recorded", "err", rerr)
		}
	}
	return err
}
