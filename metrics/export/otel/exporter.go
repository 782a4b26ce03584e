package otel

import (
	"context"
	"errors"
	"fmt"

	goBank "github.com/MrEthical07/goBank"
	"github.com/MrEthical07/goBank/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned when no Meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

// Instrument names. Outcomes are carried as attributes rather than one
// instrument per engine counter.
const (
	RegistrationsName   = "gobank.registrations"
	LoginsName          = "gobank.logins"
	TokensName          = "gobank.tokens"
	LedgerAppliedName   = "gobank.ledger.applied"
	LedgerRejectedName  = "gobank.ledger.rejected"
	RehashNeededName    = "gobank.password.rehash_needed"
	StorageFailuresName = "gobank.storage.failures"
	RateLimitHitsName   = "gobank.rate_limit.hits"
	AuditDroppedName    = "gobank.audit.dropped"
	LatencyBucketName   = "gobank.latency.bucket"
	LatencyCountName    = "gobank.latency.count"
)

type metricsSource interface {
	MetricsSnapshot() goBank.MetricsSnapshot
	AuditDropped() uint64
}

type series struct {
	id    goBank.MetricID
	attrs metric.ObserveOption
}

type family struct {
	name   string
	help   string
	series []series
}

func with(kv ...attribute.KeyValue) metric.ObserveOption {
	return metric.WithAttributeSet(attribute.NewSet(kv...))
}

func outcome(v string) metric.ObserveOption { return with(attribute.String("outcome", v)) }

var families = []family{
	{RegistrationsName, "Registration attempts by outcome.", []series{
		{goBank.MetricRegisterSuccess, outcome("success")},
		{goBank.MetricRegisterDuplicate, outcome("duplicate")},
		{goBank.MetricRegisterInvalid, outcome("invalid")},
		{goBank.MetricRegisterRateLimited, outcome("rate_limited")},
	}},
	{LoginsName, "Login attempts by outcome.", []series{
		{goBank.MetricLoginSuccess, outcome("success")},
		{goBank.MetricLoginFailure, outcome("failure")},
		{goBank.MetricLoginRateLimited, outcome("rate_limited")},
	}},
	{TokensName, "Session tokens by outcome.", []series{
		{goBank.MetricTokenIssued, outcome("issued")},
		{goBank.MetricTokenRejected, outcome("rejected")},
	}},
	{LedgerAppliedName, "Balance changes applied, by transaction kind.", []series{
		{goBank.MetricDepositSuccess, with(attribute.String("kind", goBank.Deposit.String()))},
		{goBank.MetricWithdrawSuccess, with(attribute.String("kind", goBank.Withdraw.String()))},
	}},
	{LedgerRejectedName, "Balance changes refused, by reason.", []series{
		{goBank.MetricInvalidAmount, with(attribute.String("reason", "invalid_amount"))},
		{goBank.MetricOverflowRejected, with(attribute.String("reason", "overflow"))},
		{goBank.MetricInsufficientFunds, with(attribute.String("reason", "insufficient_funds"))},
	}},
	{RehashNeededName, "Logins whose stored hash uses outdated parameters.", []series{
		{goBank.MetricPasswordRehashNeeded, with()},
	}},
	{StorageFailuresName, "Backend faults surfaced as internal errors.", []series{
		{goBank.MetricStorageFailure, with()},
	}},
	{RateLimitHitsName, "Throttle checks that denied a request.", []series{
		{goBank.MetricRateLimitHit, with()},
	}},
}

var latencyOps = map[goBank.MetricID]string{
	goBank.MetricLoginLatency:       "login",
	goBank.MetricTransactionLatency: "transaction",
}

type observedFamily struct {
	instrument metric.Int64ObservableCounter
	series     []series
}

// OTelExporter publishes engine snapshots through observable instruments.
// Each collection cycle reads one snapshot.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	families     []observedFamily
	auditDropped metric.Int64ObservableCounter
	latency      metric.Int64ObservableGauge
	latencyCount metric.Int64ObservableGauge
	bucketAttrs  map[goBank.MetricID][8]metric.ObserveOption
	opAttrs      map[goBank.MetricID]metric.ObserveOption
}

// NewOTelExporter registers instruments on meter that read from engine.
func NewOTelExporter(meter metric.Meter, engine *goBank.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:      source,
		bucketAttrs: make(map[goBank.MetricID][8]metric.ObserveOption, len(latencyOps)),
		opAttrs:     make(map[goBank.MetricID]metric.ObserveOption, len(latencyOps)),
	}
	observables := make([]metric.Observable, 0, len(families)+3)

	for _, f := range families {
		ins, err := meter.Int64ObservableCounter(f.name, metric.WithDescription(f.help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", f.name, err)
		}
		e.families = append(e.families, observedFamily{instrument: ins, series: f.series})
		observables = append(observables, ins)
	}

	var err error
	if e.auditDropped, err = meter.Int64ObservableCounter(AuditDroppedName,
		metric.WithDescription("Audit events dropped under dispatcher backpressure.")); err != nil {
		return nil, fmt.Errorf("create counter %s: %w", AuditDroppedName, err)
	}
	if e.latency, err = meter.Int64ObservableGauge(LatencyBucketName,
		metric.WithDescription("Cumulative latency samples at or below the le bound, in seconds."),
		metric.WithUnit("{sample}")); err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", LatencyBucketName, err)
	}
	if e.latencyCount, err = meter.Int64ObservableGauge(LatencyCountName,
		metric.WithDescription("Total latency samples."),
		metric.WithUnit("{sample}")); err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", LatencyCountName, err)
	}
	observables = append(observables, e.auditDropped, e.latency, e.latencyCount)

	for id, op := range latencyOps {
		var buckets [8]metric.ObserveOption
		for i, le := range internaldefs.HistogramBounds {
			buckets[i] = with(attribute.String("op", op), attribute.String("le", le))
		}
		e.bucketAttrs[id] = buckets
		e.opAttrs[id] = with(attribute.String("op", op))
	}

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for _, f := range e.families {
		for _, s := range f.series {
			o.ObserveInt64(f.instrument, int64(snapshot.Counters[s.id]), s.attrs)
		}
	}

	for id, buckets := range e.bucketAttrs {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[id]))
		for i := range cumulative {
			o.ObserveInt64(e.latency, int64(cumulative[i]), buckets[i])
		}
		o.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]), e.opAttrs[id])
	}

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
