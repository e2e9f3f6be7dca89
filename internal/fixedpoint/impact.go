package fixedpoint

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ImpactSignificantDigits is the precision price impact is reported with.
const ImpactSignificantDigits = 2

var hundred = big.NewInt(100)

// RoundSignificant rounds d half-up (away from zero) to the given number of
// significant digits. 0.012345 with 2 digits is 0.012; 9.96 is 10.
func RoundSignificant(d decimal.Decimal, digits int32) decimal.Decimal {
	if d.IsZero() || digits <= 0 {
		return decimal.Zero
	}
	// Position of the leading digit relative to the decimal point.
	lead := int32(d.NumDigits()) + d.Exponent()
	return d.Round(digits - lead)
}

// PriceImpactPercent returns (expected-actual)/expected*100 rounded to two
// significant digits. Zero is returned when expected is zero or the actual
// amount is not worse than expected.
func PriceImpactPercent(expected, actual *big.Int) decimal.Decimal {
	if expected.Sign() <= 0 || actual.Cmp(expected) >= 0 {
		return decimal.Zero
	}

	diff := new(big.Int).Sub(expected, actual)
	r := new(big.Rat).SetFrac(new(big.Int).Mul(diff, hundred), expected)
	return RoundSignificant(RatToDecimal(r, 18), ImpactSignificantDigits)
}

// PriceMovePercent returns |after-before|/before*100 for two prices, rounded
// to two significant digits.
func PriceMovePercent(before, after *big.Rat) decimal.Decimal {
	if before.Sign() == 0 {
		return decimal.Zero
	}
	diff := new(big.Rat).Sub(after, before)
	diff.Abs(diff)
	diff.Quo(diff, before)
	diff.Mul(diff, new(big.Rat).SetInt(hundred))
	return RoundSignificant(RatToDecimal(diff, 18), ImpactSignificantDigits)
}
