package internaldefs

import (
	goBank "github.com/MrEthical07/goBank"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   goBank.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for export.
type HistogramDef struct {
	ID   goBank.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a fixed order.
var CounterDefs = []CounterDef{
	{ID: goBank.MetricRegisterSuccess, Name: "gobank_register_success_total", Help: "Accounts created."},
	{ID: goBank.MetricRegisterDuplicate, Name: "gobank_register_duplicate_total", Help: "Registrations rejected because the identity exists."},
	{ID: goBank.MetricRegisterInvalid, Name: "gobank_register_invalid_total", Help: "Registrations rejected for malformed input."},
	{ID: goBank.MetricRegisterRateLimited, Name: "gobank_register_rate_limited_total", Help: "Registrations rejected by the per-IP budget."},
	{ID: goBank.MetricLoginSuccess, Name: "gobank_login_success_total", Help: "Successful logins."},
	{ID: goBank.MetricLoginFailure, Name: "gobank_login_failure_total", Help: "Failed logins."},
	{ID: goBank.MetricLoginRateLimited, Name: "gobank_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: goBank.MetricPasswordRehashNeeded, Name: "gobank_password_rehash_needed_total", Help: "Logins whose stored hash uses outdated parameters."},
	{ID: goBank.MetricTokenIssued, Name: "gobank_token_issued_total", Help: "Session tokens issued."},
	{ID: goBank.MetricTokenRejected, Name: "gobank_token_rejected_total", Help: "Tokens that failed verification."},
	{ID: goBank.MetricDepositSuccess, Name: "gobank_deposit_success_total", Help: "Applied deposits."},
	{ID: goBank.MetricWithdrawSuccess, Name: "gobank_withdraw_success_total", Help: "Applied withdrawals."},
	{ID: goBank.MetricInvalidAmount, Name: "gobank_invalid_amount_total", Help: "Transactions rejected for malformed amounts."},
	{ID: goBank.MetricOverflowRejected, Name: "gobank_overflow_rejected_total", Help: "Operations rejected because the balance would exceed the ceiling."},
	{ID: goBank.MetricInsufficientFunds, Name: "gobank_insufficient_funds_total", Help: "Withdrawals rejected for insufficient balance."},
	{ID: goBank.MetricStorageFailure, Name: "gobank_storage_failure_total", Help: "Backend faults surfaced as internal errors."},
	{ID: goBank.MetricRateLimitHit, Name: "gobank_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: goBank.MetricLoginLatency, Name: "gobank_login_latency_seconds", Help: "Login latency histogram."},
	{ID: goBank.MetricTransactionLatency, Name: "gobank_transaction_latency_seconds", Help: "Deposit and withdrawal latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's eight
// latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in a form safe for instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling
// missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
