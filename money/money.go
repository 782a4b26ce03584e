package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MaxMinorUnits is the largest representable amount, 4294967295.99 in major units.
// The ceiling comes from a historical 32-bit unsigned cents accumulator; ledgers may
// enforce a lower bound through configuration but never a higher one.
const MaxMinorUnits int64 = 429496729599

// maxWholeDigits bounds the whole part before any arithmetic so parsing cannot
// overflow int64.
const maxWholeDigits = 16

var (
	// ErrInvalidFormat is returned when an amount string does not match the grammar.
	ErrInvalidFormat = errors.New("invalid amount format")
	// ErrOverflow is returned when a result would exceed the permitted ceiling.
	ErrOverflow = errors.New("amount overflow")
	// ErrUnderflow is returned when a result would be negative.
	ErrUnderflow = errors.New("amount underflow")
)

// Money is an exact amount in minor units. Values are immutable.
type Money struct {
	minor int64
}

// Zero is 0.00.
var Zero = Money{}

// FromMinorUnits converts a stored minor-unit count back into Money.
func FromMinorUnits(minor int64) (Money, error) {
	if minor < 0 {
		return Money{}, ErrUnderflow
	}
	if minor > MaxMinorUnits {
		return Money{}, ErrOverflow
	}
	return Money{minor: minor}, nil
}

// Parse reads an amount in `whole.ff` form.
//
// Shape violations return [ErrInvalidFormat]; a well-formed amount above
// [MaxMinorUnits] returns [ErrOverflow].
func Parse(input string) (Money, error) {
	n := len(input)
	if n < 4 || input[n-3] != '.' {
		return Money{}, ErrInvalidFormat
	}

	whole := input[:n-3]
	frac := input[n-2:]

	if !allDigits(whole) || !allDigits(frac) {
		return Money{}, ErrInvalidFormat
	}
	if len(whole) > 1 && whole[0] == '0' {
		return Money{}, ErrInvalidFormat
	}
	if len(whole) > maxWholeDigits {
		return Money{}, ErrOverflow
	}

	var minor int64
	for i := 0; i < len(whole); i++ {
		minor = minor*10 + int64(whole[i]-'0')
	}
	minor = minor*100 + int64(frac[0]-'0')*10 + int64(frac[1]-'0')

	if minor > MaxMinorUnits {
		return Money{}, ErrOverflow
	}
	return Money{minor: minor}, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MinorUnits returns the raw minor-unit count.
func (m Money) MinorUnits() int64 {
	return m.minor
}

// IsZero reports whether m is 0.00.
func (m Money) IsZero() bool {
	return m.minor == 0
}

// Cmp returns -1, 0 or +1 as m is less than, equal to, or greater than other.
func (m Money) Cmp(other Money) int {
	switch {
	case m.minor < other.minor:
		return -1
	case m.minor > other.minor:
		return 1
	default:
		return 0
	}
}

// Add returns m+other, or [ErrOverflow] when the sum exceeds [MaxMinorUnits].
func (m Money) Add(other Money) (Money, error) {
	return m.AddWithin(other, MaxMinorUnits)
}

// AddWithin returns m+other, or [ErrOverflow] when the sum exceeds limit.
// A limit above [MaxMinorUnits] is treated as [MaxMinorUnits].
func (m Money) AddWithin(other Money, limit int64) (Money, error) {
	if limit > MaxMinorUnits || limit < 0 {
		limit = MaxMinorUnits
	}
	if other.minor > limit-m.minor {
		return Money{}, ErrOverflow
	}
	return Money{minor: m.minor + other.minor}, nil
}

// Sub returns m-other, or [ErrUnderflow] when other is larger than m.
func (m Money) Sub(other Money) (Money, error) {
	if other.minor > m.minor {
		return Money{}, ErrUnderflow
	}
	return Money{minor: m.minor - other.minor}, nil
}

// String renders m with exactly two fractional digits, e.g. "10.00".
func (m Money) String() string {
	return decimal.New(m.minor, -2).StringFixed(2)
}

// MarshalText implements encoding.TextMarshaler using the display form.
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using [Parse].
func (m *Money) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
