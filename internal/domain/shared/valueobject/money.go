package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RateScale is the number of decimal places kept when dividing exchange rates.
const RateScale int32 = 10

var hundred = decimal.NewFromInt(100)

// Money is an amount in one currency. Operations return new values and
// refuse to mix currencies.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustMoney is NewMoney for callers that already validated the currency.
func MustMoney(amount decimal.Decimal, currency Currency) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add %s to %s", other.currency, m.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns m - other.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot subtract %s from %s", other.currency, m.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// MultiplyByInt returns m * n rounded to the currency scale.
func (m Money) MultiplyByInt(n int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(n)), currency: m.currency}.Rounded()
}

// Rounded returns the amount rounded half-up to the currency scale.
func (m Money) Rounded() Money {
	return Money{amount: m.currency.Round(m.amount), currency: m.currency}
}

// Percentage returns percent% of m, rounded to the currency scale.
func (m Money) Percentage(percent decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(percent).Div(hundred), currency: m.currency}.Rounded()
}

// Convert applies rate and returns the amount in target, rounded to the
// target currency's scale.
func (m Money) Convert(rate decimal.Decimal, target Currency) Money {
	return Money{amount: m.amount.Mul(rate), currency: target}.Rounded()
}

// WithinTolerance reports whether |m - other| <= tolerance.
func (m Money) WithinTolerance(other Money, tolerance decimal.Decimal) (bool, error) {
	diff, err := m.Subtract(other)
	if err != nil {
		return false, err
	}
	return diff.amount.Abs().LessThanOrEqual(tolerance), nil
}

// String renders the amount at the currency scale, e.g. "1250.00 KES".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(m.currency.Scale()), m.currency)
}
