package models

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/finance-service/internal/apperrors"
)

// MaxAmount is the largest value a numeric(12,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// Amount is a currency value with two decimal places. It is encoded in JSON
// as a bare number ("amount": 3500.00) and accepts either a number or a
// numeric string on input.
type Amount struct {
	decimal.Decimal
}

// Limits on the parsed text and exponent. Rescaling a decimal costs time
// proportional to the exponent, so out-of-range input is rejected before any
// arithmetic touches it.
const (
	maxAmountLength   = 40
	minAmountExponent = -20
	maxAmountExponent = 12
)

// NewAmount parses s, e.g. NewAmount("12.34").
func NewAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxAmountLength {
		return Amount{}, apperrors.Invalid("amount", "is out of range")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, apperrors.Invalid("amount", "must be a number")
	}
	if exp := d.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return Amount{}, apperrors.Invalid("amount", "is out of range")
	}
	return Amount{Decimal: d}, nil
}

// MustAmount is NewAmount for literals known to be valid.
func MustAmount(s string) Amount {
	a, err := NewAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ZeroAmount returns 0.00.
func ZeroAmount() Amount {
	return Amount{Decimal: decimal.Zero}
}

func (a Amount) Add(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Add(b.Decimal)}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Sub(b.Decimal)}
}

func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

func (a Amount) String() string {
	return a.StringFixed(2)
}

// Validate checks a transaction amount: positive, at most two decimals and
// within the column range.
func (a Amount) Validate() error {
	if !a.IsPositive() {
		return apperrors.Invalid("amount", "must be positive")
	}
	if !a.Decimal.Equal(a.Round(2)) {
		return apperrors.Invalid("amount", "must have at most 2 decimal places")
	}
	if a.GreaterThan(MaxAmount) {
		return apperrors.Invalid("amount", "is too large")
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return apperrors.Invalid("amount", "must be a number")
	}
	parsed, err := NewAmount(string(bytes.Trim(data, `"`)))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
