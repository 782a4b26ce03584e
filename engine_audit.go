package goBank

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventRegisterSuccess     = "register_success"
	auditEventRegisterFailure     = "register_failure"
	auditEventRegisterDuplicate   = "register_duplicate"
	auditEventRegisterRateLimited = "register_rate_limited"
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventLoginRateLimited    = "login_rate_limited"
	auditEventTokenRejected       = "token_rejected"
	auditEventDeposit             = "deposit"
	auditEventWithdraw            = "withdraw"
	auditEventRateLimitTriggered  = "rate_limit_triggered"
)

// AuditErrorCode is the stable error label written into AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidFormat      AuditErrorCode = "invalid_format"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrWrongPassword      AuditErrorCode = "wrong_password"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnauthenticated    AuditErrorCode = "unauthenticated"
	auditErrOverflow           AuditErrorCode = "overflow"
	auditErrInsufficientFunds  AuditErrorCode = "insufficient_funds"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identity string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:        newAuditEventID(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Identity:  identity,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope, identity string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, identity, nil, func() map[string]string {
		return map[string]string{
			"scope": scope,
		}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidFormat):
		return auditErrInvalidFormat
	case errors.Is(err, ErrUsernameTaken):
		return auditErrDuplicate
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrWrongPassword):
		return auditErrWrongPassword
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, ErrOverflow):
		return auditErrOverflow
	case errors.Is(err, ErrInsufficientFunds):
		return auditErrInsufficientFunds
	case errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrRegistrationRateLimited):
		return auditErrRateLimited
	default:
		return auditErrInternal
	}
}
