package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in a single currency. Amounts are
// rounded to 2 minor units (half-up) whenever they are derived from a
// multiplication, never on plain addition/subtraction.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

func FromFloat(v float64, currency string) Money {
	return Money{Amount: decimal.NewFromFloat(v).Round(2), Currency: currency}
}

// FromMinorUnits builds an amount from integer minor units, e.g. cents.
func FromMinorUnits(v int64, currency string) Money {
	return Money{Amount: decimal.New(v, -2), Currency: currency}
}

func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

func (m Money) LessThanOrEqual(o Money) bool {
	return m.Amount.LessThanOrEqual(o.Amount)
}

func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

func (m Money) Add(o Money) (Money, error) {
	if o.Currency != m.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, o.Currency)
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
}

func (m Money) Sub(o Money) (Money, error) {
	if o.Currency != m.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, o.Currency)
	}
	return Money{Amount: m.Amount.Sub(o.Amount), Currency: m.Currency}, nil
}

// Percent returns percent% of m rounded to 2 minor units.
// decimal.Round is half away from zero, which is half-up for the
// non-negative amounts handled here.
func (m Money) Percent(percent int) Money {
	if percent <= 0 {
		return Zero(m.Currency)
	}
	p := m.Amount.Mul(decimal.NewFromInt(int64(percent))).Div(decimal.NewFromInt(100))
	return Money{Amount: p.Round(2), Currency: m.Currency}
}

// MinorUnits returns the amount in cents for gateway calls.
func (m Money) MinorUnits() int64 {
	return m.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}
