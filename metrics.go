package goBank

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one Engine counter or histogram.
type MetricID uint16

const (
	// MetricRegisterSuccess counts accounts created.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterDuplicate counts registrations rejected because the identity exists.
	MetricRegisterDuplicate
	// MetricRegisterInvalid counts registrations rejected for malformed input.
	MetricRegisterInvalid
	// MetricRegisterRateLimited counts registrations rejected by the per-IP budget.
	MetricRegisterRateLimited
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess
	// MetricLoginFailure counts logins rejected for invalid credentials.
	MetricLoginFailure
	// MetricLoginRateLimited counts logins rejected by the throttle.
	MetricLoginRateLimited
	// MetricPasswordRehashNeeded counts logins whose stored hash uses outdated parameters.
	MetricPasswordRehashNeeded
	// MetricTokenIssued counts session tokens issued.
	MetricTokenIssued
	// MetricTokenRejected counts tokens that failed verification.
	MetricTokenRejected
	// MetricDepositSuccess counts applied deposits.
	MetricDepositSuccess
	// MetricWithdrawSuccess counts applied withdrawals.
	MetricWithdrawSuccess
	// MetricInvalidAmount counts transactions rejected for malformed amounts.
	MetricInvalidAmount
	// MetricOverflowRejected counts transactions rejected because the balance would exceed the ceiling.
	MetricOverflowRejected
	// MetricInsufficientFunds counts withdrawals rejected for insufficient balance.
	MetricInsufficientFunds
	// MetricStorageFailure counts storage faults surfaced as ErrInternal.
	MetricStorageFailure
	// MetricRateLimitHit counts throttle denials of any kind.
	MetricRateLimitHit
	// MetricLoginLatency is the login latency histogram.
	MetricLoginLatency
	// MetricTransactionLatency is the deposit and withdrawal latency histogram.
	MetricTransactionLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free Engine counters. A nil or disabled Metrics ignores
// all updates.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
// Histogram slices hold per-bucket (non-cumulative) counts.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in histogram id. Non-histogram ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || !isHistogram(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters and, when enabled, histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isHistogram(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range []MetricID{MetricLoginLatency, MetricTransactionLatency} {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func isHistogram(id MetricID) bool {
	return id == MetricLoginLatency || id == MetricTransactionLatency
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
