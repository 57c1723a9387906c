package money

import (
	"fmt"
	"strings"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/shopspring/decimal"
)

// Money is an amount in a single ISO-4217 currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// New builds a Money value. The currency code is upper-cased.
func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: NormalizeCurrency(currency)}
}

// MustParse builds a Money value from a decimal string and panics on bad input.
// Intended for constants and tests.
func MustParse(amount, currency string) Money {
	return New(decimal.RequireFromString(amount), currency)
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return New(decimal.Zero, currency)
}

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// Round2 rounds half-up to two decimal places. For the non-negative amounts
// handled here this matches decimal's half-away-from-zero rounding.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// SameCurrency reports whether both values share a currency.
func (m Money) SameCurrency(o Money) bool { return m.Currency == o.Currency }

// Add sums two amounts of the same currency.
func (m Money) Add(o Money) (Money, error) {
	if !m.SameCurrency(o) {
		return Money{}, domain.NewIncompatibleCurrencyError(m.Currency, o.Currency)
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
}

// Sub subtracts o from m, clamping at zero.
func (m Money) Sub(o Money) (Money, error) {
	if !m.SameCurrency(o) {
		return Money{}, domain.NewIncompatibleCurrencyError(m.Currency, o.Currency)
	}
	d := m.Amount.Sub(o.Amount)
	if d.IsNegative() {
		d = decimal.Zero
	}
	return Money{Amount: d, Currency: m.Currency}, nil
}

// Mul multiplies the amount by a factor without rounding.
func (m Money) Mul(f decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(f), Currency: m.Currency}
}

// Times multiplies the amount by an integer quantity.
func (m Money) Times(qty int) Money {
	return m.Mul(decimal.NewFromInt(int64(qty)))
}

// Rounded returns m rounded half-up to two decimal places.
func (m Money) Rounded() Money {
	return Money{Amount: Round2(m.Amount), Currency: m.Currency}
}

// LessThan compares amounts. Currencies must match.
func (m Money) LessThan(o Money) (bool, error) {
	if !m.SameCurrency(o) {
		return false, domain.NewIncompatibleCurrencyError(m.Currency, o.Currency)
	}
	return m.Amount.LessThan(o.Amount), nil
}

// MinorUnits converts the amount to an integer count of cents, rounding half-up.
func (m Money) MinorUnits() int64 {
	return Round2(m.Amount).Shift(2).IntPart()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}
