// Package money provides fixed-precision decimal arithmetic for prices and
// amounts. No binary floating point is used inside the matching engine;
// Money wraps shopspring/decimal so every add, subtract, and comparison is
// exact.
package money

import (
	"errors"
	"strconv"

	"github.com/shopspring/decimal"
)

// DefaultScale is the number of decimal places a float64 boundary
// conversion is allowed to carry without being rejected as lossy.
const DefaultScale = 8

// ErrLossyConversion is returned when a float64 would lose precision if
// accepted as a Money value.
var ErrLossyConversion = errors.New("money: lossy float64 conversion rejected")

// ErrInvalid is returned by NewFromString on unparseable input.
var ErrInvalid = errors.New("money: invalid decimal string")

// Money is an exact fixed-precision decimal value.
type Money struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{d: decimal.Zero}

// NewFromString parses an exact decimal string. This is the preferred
// boundary conversion: it never loses precision.
func NewFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalid
	}
	return Money{d: d}, nil
}

// NewFromFloat64 converts a float64 at the system boundary. The reference
// source silently accepts lossy float conversions; this implementation
// rejects them instead. The float is formatted as its shortest decimal
// string that parses back to the same float64, and it is accepted only if
// that decimal has at most DefaultScale decimal places (so 0.1 is accepted
// as exactly 0.1, while 0.1+0.2, which formats as 0.30000000000000004, is
// rejected).
func NewFromFloat64(f float64) (Money, error) {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalid
	}
	if d.Exponent() < -DefaultScale {
		return Money{}, ErrLossyConversion
	}
	back, _ := d.Float64()
	if back != f {
		return Money{}, ErrLossyConversion
	}
	return Money{d: d}, nil
}

// MustFromInt64Scaled builds a Money from an integer numerator and a scale,
// e.g. MustFromInt64Scaled(10050, 2) == 100.50. Intended for tests and
// constant seed data.
func MustFromInt64Scaled(numerator int64, scale int32) Money {
	return Money{d: decimal.New(numerator, -scale)}
}

func (m Money) Add(other Money) Money { return Money{d: m.d.Add(other.d)} }
func (m Money) Sub(other Money) Money { return Money{d: m.d.Sub(other.d)} }
func (m Money) Mul(other Money) Money { return Money{d: m.d.Mul(other.d)} }

// Cmp returns -1, 0, or 1 per decimal.Decimal.Cmp.
func (m Money) Cmp(other Money) int { return m.d.Cmp(other.d) }

func (m Money) Equal(other Money) bool    { return m.d.Equal(other.d) }
func (m Money) LessThan(other Money) bool { return m.d.LessThan(other.d) }
func (m Money) GreaterThan(other Money) bool {
	return m.d.GreaterThan(other.d)
}
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.d.GreaterThanOrEqual(other.d)
}
func (m Money) LessThanOrEqual(other Money) bool {
	return m.d.LessThanOrEqual(other.d)
}

func (m Money) IsZero() bool     { return m.d.IsZero() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) Neg() Money { return Money{d: m.d.Neg()} }

// Min returns the smaller of m and other.
func (m Money) Min(other Money) Money {
	if m.d.LessThanOrEqual(other.d) {
		return m
	}
	return other
}

func (m Money) String() string { return m.d.String() }

// InexactFloat64 renders the value for the JSON wire boundary, where
// spec.md requires numeric fields as JSON numbers. This is a one-way,
// display-only conversion; it must never feed back into the engine.
func (m Money) InexactFloat64() float64 { return m.d.InexactFloat64() }

// MarshalJSON renders Money as a bare JSON number, matching the wire
// contract's "numeric fields rendered as JSON numbers."
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.InexactFloat64(), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a JSON number and rejects lossy float conversions
// per the boundary policy in NewFromFloat64.
func (m *Money) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return ErrInvalid
	}
	parsed, err := NewFromFloat64(f)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
