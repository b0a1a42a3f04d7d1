package pmcalc

import (
	"encoding/json"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// M returns value in currency.
func M[T float64 | int | int64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float64 | int | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the amount rounded to the currency fraction, formatted the
// way the currency is usually written (e.g. €2,182.70).
func (m Money) String() string {
	cur := m.currency()
	minor := m.value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

func (m Money) Currency() string           { return m.cur }
func (m Money) Decimal() decimal.Decimal   { return m.value }
func (m Money) Equal(n Money) bool         { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool               { return m.value.IsZero() }
func (m Money) IsPositive() bool           { return m.value.IsPositive() }
func (m Money) Times(quantity int64) Money { return Money{value: m.value.Mul(decimal.NewFromInt(quantity)), cur: m.cur} }

// Add returns m+n. Both must share a currency, or one of them must have none.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }

// makes the "" currency totally weak.
func cur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("currency mismatch " + a.cur + "!=" + b.cur)
	}
	return a.cur
}

// MarshalJSON writes the amount rounded to the currency fraction, as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	fraction := int32(m.currency().Fraction)
	return json.Marshal(struct {
		Currency string      `json:"currency,omitempty"`
		Amount   json.Number `json:"amount"`
	}{
		Currency: m.cur,
		Amount:   json.Number(m.value.StringFixed(fraction)),
	})
}
