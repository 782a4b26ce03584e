package goBank

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goBank/ledger"
	"github.com/MrEthical07/goBank/money"
)

// TransactionKind selects the ledger operation performed by Handle.
type TransactionKind uint8

const (
	// Deposit credits the token holder's account.
	Deposit TransactionKind = iota + 1
	// Withdraw debits the token holder's account.
	Withdraw
)

func (k TransactionKind) String() string {
	switch k {
	case Deposit:
		return "deposit"
	case Withdraw:
		return "withdraw"
	default:
		return "unknown"
	}
}

func (k TransactionKind) auditEvent() string {
	if k == Withdraw {
		return auditEventWithdraw
	}
	return auditEventDeposit
}

// Authorize verifies token and returns the identity it was issued to. Every
// failure returns ErrUnauthenticated; the cause is only logged.
func (e *Engine) Authorize(ctx context.Context, token string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	identity, err := e.tokens.Verify(token)
	if err != nil {
		e.metricInc(MetricTokenRejected)
		e.logger.DebugContext(ctx, "token rejected", "err", err)
		e.emitAudit(ctx, auditEventTokenRejected, false, "", ErrUnauthenticated, nil)
		return "", ErrUnauthenticated
	}
	return identity, nil
}

// Handle authorizes token, parses amountInput and applies kind to the
// token holder's account. It returns the resulting balance. On any error
// the balance is unchanged.
func (e *Engine) Handle(ctx context.Context, kind TransactionKind, token, amountInput string) (money.Money, error) {
	if !e.ready() {
		return money.Zero, ErrEngineNotReady
	}
	if kind != Deposit && kind != Withdraw {
		return money.Zero, ErrInvalidFormat
	}
	start := time.Now()
	defer e.observe(MetricTransactionLatency, start)

	identity, err := e.Authorize(ctx, token)
	if err != nil {
		return money.Zero, err
	}

	amount, err := money.Parse(amountInput)
	if err != nil {
		e.metricInc(MetricInvalidAmount)
		mapped := ErrInvalidFormat
		if errors.Is(err, money.ErrOverflow) {
			mapped = ErrOverflow
		}
		e.emitAudit(ctx, kind.auditEvent(), false, identity, mapped, nil)
		return money.Zero, mapped
	}

	var balance money.Money
	switch kind {
	case Deposit:
		balance, err = e.ledger.Deposit(ctx, identity, amount)
	case Withdraw:
		balance, err = e.ledger.Withdraw(ctx, identity, amount)
	}
	if err != nil {
		mapped := e.mapLedgerError(ctx, kind.String(), err)
		e.emitAudit(ctx, kind.auditEvent(), false, identity, mapped, nil)
		return money.Zero, mapped
	}

	if kind == Deposit {
		e.metricInc(MetricDepositSuccess)
	} else {
		e.metricInc(MetricWithdrawSuccess)
	}
	e.emitAudit(ctx, kind.auditEvent(), true, identity, nil, func() map[string]string {
		return map[string]string{
			"amount": amount.String(),
		}
	})
	return balance, nil
}

// Deposit adds amountInput to the token holder's balance.
func (e *Engine) Deposit(ctx context.Context, token, amountInput string) (money.Money, error) {
	return e.Handle(ctx, Deposit, token, amountInput)
}

// Withdraw subtracts amountInput from the token holder's balance.
func (e *Engine) Withdraw(ctx context.Context, token, amountInput string) (money.Money, error) {
	return e.Handle(ctx, Withdraw, token, amountInput)
}

// Balance returns the token holder's current balance.
func (e *Engine) Balance(ctx context.Context, token string) (money.Money, error) {
	identity, err := e.Authorize(ctx, token)
	if err != nil {
		return money.Zero, err
	}

	balance, err := e.ledger.Read(ctx, identity)
	if err != nil {
		return money.Zero, e.mapLedgerError(ctx, "balance", err)
	}
	return balance, nil
}

func (e *Engine) mapLedgerError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, ledger.ErrOverflow):
		e.metricInc(MetricOverflowRejected)
		return ErrOverflow
	case errors.Is(err, ledger.ErrInsufficientFunds):
		e.metricInc(MetricInsufficientFunds)
		return ErrInsufficientFunds
	case errors.Is(err, ledger.ErrNotFound):
		// A valid token for a missing account: the account store was reset
		// or the token came from another deployment sharing the key.
		e.logger.WarnContext(ctx, "token subject has no account")
		return ErrUnauthenticated
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return e.internalFault(ctx, op, err)
	}
}
