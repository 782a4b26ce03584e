package rate

import "errors"

var (
	// ErrRateLimited is returned when a counter is over its budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis command failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
