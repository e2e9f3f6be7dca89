package fixedpoint

import (
	"errors"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedDecimal is returned by ParseDecimalStrict for input that is
// not a plain unsigned decimal.
var ErrMalformedDecimal = errors.New("malformed decimal string")

var decimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ParseDecimal converts a human amount such as "1.5" into smallest units.
// The fraction is right-padded or truncated to exactly decimals digits.
//
// Malformed input (signs, exponents, several dots, empty strings) yields
// zero instead of an error. Callers that must not treat a typo as a zero
// amount use ParseDecimalStrict.
func ParseDecimal(s string, decimals uint8) *big.Int {
	v, err := ParseDecimalStrict(s, decimals)
	if err != nil {
		return new(big.Int)
	}
	return v
}

// ParseDecimalStrict is ParseDecimal with an error for malformed input.
func ParseDecimalStrict(s string, decimals uint8) (*big.Int, error) {
	if !decimalPattern.MatchString(s) {
		return nil, ErrMalformedDecimal
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > int(decimals) {
		frac = frac[:decimals]
	} else {
		frac += strings.Repeat("0", int(decimals)-len(frac))
	}

	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, ErrMalformedDecimal
	}
	return v, nil
}

// FormatFixed renders smallest units as a human amount, e.g. 1500000 with
// 6 decimals is "1.5". Trailing fractional zeros are dropped.
func FormatFixed(v *big.Int, decimals uint8) string {
	return ToDecimal(v, decimals).String()
}

// FormatFixedDisplay is FormatFixed truncated to display fractional digits.
func FormatFixedDisplay(v *big.Int, decimals uint8, display int32) string {
	return ToDecimal(v, decimals).Truncate(display).String()
}

// ToDecimal scales a raw integer amount down by 10^decimals.
func ToDecimal(v *big.Int, decimals uint8) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -int32(decimals))
}

// FromDecimal scales a human amount up to smallest units, truncating any
// remaining fraction.
func FromDecimal(d decimal.Decimal, decimals uint8) *big.Int {
	return d.Shift(int32(decimals)).Truncate(0).BigInt()
}

// RatToDecimal converts an exact rational to a decimal rounded half-up to
// the given number of places.
func RatToDecimal(r *big.Rat, places int32) decimal.Decimal {
	num := decimal.NewFromBigInt(r.Num(), 0)
	den := decimal.NewFromBigInt(r.Denom(), 0)
	return num.DivRound(den, places)
}
