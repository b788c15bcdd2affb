// Package types provides value types shared across Bazaar entities.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultCurrency is used when a price is created without an explicit currency.
const DefaultCurrency = "qar"

// Money is a price in the smallest unit of its currency (dirhams for QAR,
// cents for USD). Arithmetic is integer-only.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"` // ISO 4217, lowercase
}

// New returns a Money value, normalising the currency code.
func New(amount int64, currency string) Money {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount, Currency: currency}
}

// QAR creates a Money value in Qatari riyals (dirhams).
func QAR(dirhams int64) Money { return Money{Amount: dirhams, Currency: "qar"} }

// USD creates a Money value in US dollars (cents).
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money { return New(0, currency) }

// Add adds two amounts. Panics if currencies differ.
func (m Money) Add(other Money) Money {
	m.mustMatch(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Multiply scales the amount by qty.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal reports whether both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// FormatMajor renders the amount in major units, e.g. "149.50".
func (m Money) FormatMajor() string {
	decimals := currencyDecimals(m.Currency)
	if decimals == 0 {
		return fmt.Sprintf("%d", m.Amount)
	}

	sign := ""
	abs := m.Amount
	if abs < 0 {
		sign = "-"
		abs = -abs
	}

	div := int64(1)
	for range decimals {
		div *= 10
	}

	return fmt.Sprintf("%s%d.%0*d", sign, abs/div, decimals, abs%div)
}

// String renders the amount followed by the upper-case currency code,
// e.g. "149.50 QAR".
func (m Money) String() string {
	return m.FormatMajor() + " " + strings.ToUpper(m.Currency)
}

// MarshalJSON adds a read-only "display" field next to amount and currency.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

func (m Money) mustMatch(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

// currencyDecimals returns the minor-unit exponent of a currency.
func currencyDecimals(currency string) int {
	switch strings.ToLower(currency) {
	case "jpy", "krw":
		return 0
	case "kwd", "bhd", "omr", "jod":
		return 3
	default:
		return 2
	}
}
