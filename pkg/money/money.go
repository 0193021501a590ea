// Package money provides the fixed-point currency amount used on insurance recipes.
//
// All arithmetic is exact decimal arithmetic backed by shopspring/decimal. Printed
// totals are rounded with CurrencyRound, which rounds to the smallest coin accepted
// in cash transactions (0.05), not to plain cents.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// roundingStep is the smallest cash unit (5 Rappen), stepsPerUnit its
// inverse.
var (
	roundingStep = decimal.RequireFromString("0.05")
	stepsPerUnit = decimal.NewFromInt(20)
)

// Amount is a monetary value in the invoice currency.
// The zero value is 0.00 and ready to use.
type Amount struct {
	d decimal.Decimal
}

// Zero returns 0.00.
func Zero() Amount { return Amount{} }

// New creates an Amount from a decimal.
func New(d decimal.Decimal) Amount { return Amount{d: d} }

// FromCents creates an Amount from an integer number of cents.
func FromCents(cents int64) Amount { return Amount{d: decimal.New(cents, -2)} }

// Parse parses a decimal string such as "12.35" or "-0.05".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// Mul multiplies the amount by a decimal factor.
func (a Amount) Mul(f decimal.Decimal) Amount { return Amount{d: a.d.Mul(f)} }

// Abs returns the absolute value.
func (a Amount) Abs() Amount { return Amount{d: a.d.Abs()} }

// Neg returns -a.
func (a Amount) Neg() Amount { return Amount{d: a.d.Neg()} }

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// Equal reports whether both amounts have the same numeric value.
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// IsZero reports whether the amount is 0.
func (a Amount) IsZero() bool { return a.d.IsZero() }

// RoundCents rounds to two decimal places, half away from zero.
func (a Amount) RoundCents() Amount { return Amount{d: a.d.Round(2)} }

// CurrencyRound rounds to the nearest 0.05, half away from zero. It only
// multiplies, so no digits are lost to division precision.
func (a Amount) CurrencyRound() Amount {
	steps := a.d.Mul(stepsPerUnit).Round(0)
	return Amount{d: steps.Mul(roundingStep)}
}

// Format renders the amount with exactly two decimal digits and no grouping,
// e.g. "1234.50" or "-0.05".
func (a Amount) Format() string {
	return a.d.StringFixed(2)
}

// FormatGrouped renders the amount with two decimals and an apostrophe as
// thousands separator, e.g. "1'234.50".
func (a Amount) FormatGrouped() string {
	s := a.d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if a.d.Sign() < 0 && !a.d.Round(2).IsZero() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('\'')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// String implements fmt.Stringer.
func (a Amount) String() string { return a.Format() }

// MarshalJSON encodes the amount as a JSON string with exact digits.
func (a Amount) MarshalJSON() ([]byte, error) {
	return a.d.MarshalJSON()
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		a.d = decimal.Zero
		return nil
	}
	return a.d.UnmarshalJSON(data)
}

// Sum adds up all values. The sum of no values is 0.00.
func Sum(values ...Amount) Amount {
	total := Zero()
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
