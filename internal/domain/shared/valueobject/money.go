package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is an amount in the smallest Rupiah unit.
// All billing arithmetic is integer arithmetic on this type; there is no
// fractional part and no floating point conversion.
type Money int64

// Zero is the zero amount.
const Zero Money = 0

var (
	// ErrFractionalAmount is returned when an input carries a fractional part.
	ErrFractionalAmount = errors.New("amount must be a whole number of rupiah")
	// ErrAmountOutOfRange is returned when an input does not fit in int64.
	ErrAmountOutOfRange = errors.New("amount is out of range")
)

var (
	maxMoney = decimal.NewFromInt(int64(^uint64(0) >> 1))
	minMoney = maxMoney.Neg()
)

var idPrinter = message.NewPrinter(language.Indonesian)

// ParseMoney parses a decimal string such as "150000", "150000.00" or "1.5e5".
// A non-zero fractional part is rejected.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// FromDecimal converts a decimal amount to Money, rejecting fractions.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Truncate(0)) {
		return Zero, ErrFractionalAmount
	}
	if d.GreaterThan(maxMoney) || d.LessThan(minMoney) {
		return Zero, ErrAmountOutOfRange
	}
	return Money(d.IntPart()), nil
}

// Int64 returns the raw amount.
func (m Money) Int64() int64 {
	return int64(m)
}

// Decimal returns the amount as a decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m == 0
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m > 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m < 0
}

// Min returns the smaller of two amounts.
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two amounts.
func Max(a, b Money) Money {
	if a > b {
		return a
	}
	return b
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// Format renders the amount with Indonesian digit grouping, e.g. "Rp 150.000".
func (m Money) Format() string {
	if m < 0 {
		return "-Rp " + idPrinter.Sprintf("%d", -int64(m))
	}
	return "Rp " + idPrinter.Sprintf("%d", int64(m))
}

// String implements fmt.Stringer.
func (m Money) String() string {
	return m.Format()
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
