// Package money provides the fixed-precision monetary value used throughout
// the ledger. Amounts are exact decimals rounded to two places at component
// boundaries; the 0.01 epsilon exists only to absorb rounding in values
// derived from external FX rates, never as a substitute for exact arithmetic.
package money

import (
	"encoding/json"
	"fmt"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance used when reconciling externally derived values.
var Epsilon = decimal.New(1, -2) // 0.01

// Money is a decimal amount tagged with an ISO-4217 currency code.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New creates a Money value, validating the currency code against the
// ISO-4217 registry.
func New(amount decimal.Decimal, currency string) (Money, error) {
	if gomoney.GetCurrency(currency) == nil {
		return Money{}, fmt.Errorf("unknown currency code %q", currency)
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustNew is New for statically known currency codes. It panics on an
// invalid code.
func MustNew(amount decimal.Decimal, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromFloat creates a Money value from a float, rounded to two places.
func FromFloat(amount float64, currency string) (Money, error) {
	return New(decimal.NewFromFloat(amount).Round(2), currency)
}

// Zero returns a zero amount in the given currency. The code is not
// validated; zero values are materialized internally for known groups.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// ValidCurrency reports whether code is a known ISO-4217 currency.
func ValidCurrency(code string) bool {
	return gomoney.GetCurrency(code) != nil
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Equal reports exact equality of amount and currency.
func (m Money) Equal(n Money) bool {
	return m.currency == n.currency && m.amount.Equal(n.amount)
}

// WithinEpsilon reports whether the two amounts differ by at most Epsilon.
// Currencies must match.
func (m Money) WithinEpsilon(n Money) bool {
	return sameCur(m, n) != "" && m.amount.Sub(n.amount).Abs().LessThanOrEqual(Epsilon)
}

func (m Money) Add(n Money) Money {
	return Money{amount: m.amount.Add(n.amount), currency: sameCur(m, n)}
}

func (m Money) Sub(n Money) Money {
	return Money{amount: m.amount.Sub(n.amount), currency: sameCur(m, n)}
}

func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Mul scales the amount by an exact decimal factor (an FX rate, a weight
// ratio). The result is not rounded; callers round at their boundary.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// Div divides the amount by an exact decimal divisor without rounding.
func (m Money) Div(divisor decimal.Decimal) Money {
	return Money{amount: m.amount.Div(divisor), currency: m.currency}
}

// Round returns the amount rounded to two decimal places, the fixed
// precision every persisted value carries.
func (m Money) Round() Money {
	return Money{amount: m.amount.Round(2), currency: m.currency}
}

func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}

// sameCur resolves the currency of a binary operation. A zero value with an
// empty code is weak and adopts the other side's currency; two concrete but
// different codes are a programming error.
func sameCur(a, b Money) string {
	if a.currency == "" {
		return b.currency
	}
	if b.currency == "" {
		return a.currency
	}
	if a.currency != b.currency {
		panic("money: currency mismatch " + a.currency + " != " + b.currency)
	}
	return a.currency
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.Round(2), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := New(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
