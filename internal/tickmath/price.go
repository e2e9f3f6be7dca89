package tickmath

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
)

// ErrInvalidPrice is returned for zero or negative prices.
var ErrInvalidPrice = errors.New("price must be positive")

// floatPrec is the mantissa size used when taking square roots of prices.
const floatPrec = 256

// PriceFromSqrtPriceX64 returns the human price of token0 in token1 units.
// The sqrt price is squared into Q128.128 (raw token1 per raw token0) and
// rescaled by 10^(decimals0-decimals1).
func PriceFromSqrtPriceX64(sqrtPriceX64 *big.Int, decimals0, decimals1 uint8) *big.Rat {
	priceX128 := new(big.Int).Mul(sqrtPriceX64, sqrtPriceX64)
	price := new(big.Rat).SetFrac(priceX128, fixedpoint.Q128)
	return rescale(price, int(decimals0)-int(decimals1))
}

// InversePriceFromSqrtPriceX64 returns the human price of token1 in token0
// units.
func InversePriceFromSqrtPriceX64(sqrtPriceX64 *big.Int, decimals0, decimals1 uint8) (*big.Rat, error) {
	if sqrtPriceX64.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	return new(big.Rat).Inv(PriceFromSqrtPriceX64(sqrtPriceX64, decimals0, decimals1)), nil
}

// RawPriceFromSqrtPriceX64 returns the unscaled token1-per-token0 price.
func RawPriceFromSqrtPriceX64(sqrtPriceX64 *big.Int) *big.Rat {
	priceX128 := new(big.Int).Mul(sqrtPriceX64, sqrtPriceX64)
	return new(big.Rat).SetFrac(priceX128, fixedpoint.Q128)
}

// SqrtPriceX64FromHumanPrice converts a token1-per-token0 human price into a
// Q64.64 sqrt price, truncating toward zero.
func SqrtPriceX64FromHumanPrice(price decimal.Decimal, decimals0, decimals1 uint8) (*big.Int, error) {
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	return sqrtPriceX64FromRaw(rescale(price.Rat(), int(decimals1)-int(decimals0)))
}

// TickFromHumanPrice converts a UI price, expressed as units of token A per
// one token B, into the pool's base-unit tick. aIsToken0 tells which side of
// the canonical mint ordering A sits on. The result is not snapped to the
// tick-spacing grid.
//
// Prices outside the representable sqrt-price domain fail with
// ErrSqrtPriceOutOfRange rather than being clamped.
func TickFromHumanPrice(priceAPerB decimal.Decimal, decimalsA, decimalsB uint8, aIsToken0 bool) (int32, error) {
	if !priceAPerB.IsPositive() {
		return 0, ErrInvalidPrice
	}

	// The pool price is token1 per token0.
	price := priceAPerB.Rat()
	decimals0, decimals1 := decimalsB, decimalsA
	if aIsToken0 {
		price.Inv(price)
		decimals0, decimals1 = decimalsA, decimalsB
	}

	sqrtPriceX64, err := sqrtPriceX64FromRaw(rescale(price, int(decimals1)-int(decimals0)))
	if err != nil {
		return 0, err
	}
	return TickFromSqrtPriceX64(sqrtPriceX64)
}

func sqrtPriceX64FromRaw(raw *big.Rat) (*big.Int, error) {
	f := new(big.Float).SetPrec(floatPrec).SetRat(raw)
	f.Sqrt(f)
	f.Mul(f, new(big.Float).SetPrec(floatPrec).SetInt(fixedpoint.Q64))

	sqrtPriceX64, _ := f.Int(nil)
	if sqrtPriceX64.Cmp(fixedpoint.MaxUint128) > 0 {
		return nil, ErrSqrtPriceOutOfRange
	}
	return sqrtPriceX64, nil
}

// rescale multiplies r by 10^exp (exp may be negative).
func rescale(r *big.Rat, exp int) *big.Rat {
	switch {
	case exp > 0:
		return new(big.Rat).Mul(r, new(big.Rat).SetInt(fixedpoint.Pow10(exp)))
	case exp < 0:
		return new(big.Rat).Quo(r, new(big.Rat).SetInt(fixedpoint.Pow10(-exp)))
	default:
		return new(big.Rat).Set(r)
	}
}
