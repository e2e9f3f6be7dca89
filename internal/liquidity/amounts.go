// Package liquidity values concentrated-liquidity positions: the token
// amounts a liquidity figure represents over a tick range, the liquidity a
// single-sided amount buys, and the lifecycle of a position.
package liquidity

import (
	"errors"
	"math/big"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/tickmath"
)

var (
	ErrInvalidTickRange  = errors.New("tick lower must be below tick upper")
	ErrNegativeLiquidity = errors.New("liquidity must not be negative")
	ErrSideNotInRange    = errors.New("token side is not used at the current price")
	ErrInvalidSqrtPrice  = errors.New("sqrt price must be positive")
)

// Amount0Delta returns the token0 amount spanned by liquidity between two
// sqrt prices:
//
//	amount0 = liquidity * 2^64 * (sqrtB - sqrtA) / sqrtB / sqrtA
func Amount0Delta(sqrtRatioAX64, sqrtRatioBX64, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtRatioAX64.Cmp(sqrtRatioBX64) > 0 {
		sqrtRatioAX64, sqrtRatioBX64 = sqrtRatioBX64, sqrtRatioAX64
	}
	if sqrtRatioAX64.Sign() <= 0 {
		return new(big.Int)
	}

	numerator1 := fixedpoint.ToQ64(liquidity)
	numerator2 := new(big.Int).Sub(sqrtRatioBX64, sqrtRatioAX64)

	if roundUp {
		inner, _ := fixedpoint.MulDivCeil(numerator1, numerator2, sqrtRatioBX64)
		out, _ := fixedpoint.MulDivCeil(inner, big.NewInt(1), sqrtRatioAX64)
		return out
	}

	inner, _ := fixedpoint.MulDivFloor(numerator1, numerator2, sqrtRatioBX64)
	return inner.Quo(inner, sqrtRatioAX64)
}

// Amount1Delta returns the token1 amount spanned by liquidity between two
// sqrt prices:
//
//	amount1 = liquidity * (sqrtB - sqrtA) / 2^64
func Amount1Delta(sqrtRatioAX64, sqrtRatioBX64, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtRatioAX64.Cmp(sqrtRatioBX64) > 0 {
		sqrtRatioAX64, sqrtRatioBX64 = sqrtRatioBX64, sqrtRatioAX64
	}

	diff := new(big.Int).Sub(sqrtRatioBX64, sqrtRatioAX64)

	if roundUp {
		out, _ := fixedpoint.MulDivCeil(liquidity, diff, fixedpoint.Q64)
		return out
	}

	out, _ := fixedpoint.MulDivFloor(liquidity, diff, fixedpoint.Q64)
	return out
}

// AmountsFromLiquidity returns the token amounts liquidity represents over
// [tickLower, tickUpper] at the given sqrt price, rounded down.
//
// At or below the lower bound everything is token0; at or above the upper
// bound everything is token1; in between the value is split at the current
// price, so both edges are continuous.
func AmountsFromLiquidity(liquidity *big.Int, tickLower, tickUpper int32, sqrtPriceX64 *big.Int) (*big.Int, *big.Int, error) {
	return amountsFromLiquidity(liquidity, tickLower, tickUpper, sqrtPriceX64, false)
}

// AmountsForDeposit is AmountsFromLiquidity rounded up, the amounts a
// depositor must supply to mint liquidity.
func AmountsForDeposit(liquidity *big.Int, tickLower, tickUpper int32, sqrtPriceX64 *big.Int) (*big.Int, *big.Int, error) {
	return amountsFromLiquidity(liquidity, tickLower, tickUpper, sqrtPriceX64, true)
}

func amountsFromLiquidity(liquidity *big.Int, tickLower, tickUpper int32, sqrtPriceX64 *big.Int, roundUp bool) (*big.Int, *big.Int, error) {
	if liquidity.Sign() < 0 {
		return nil, nil, ErrNegativeLiquidity
	}
	if sqrtPriceX64 == nil || sqrtPriceX64.Sign() <= 0 {
		return nil, nil, ErrInvalidSqrtPrice
	}
	sqrtLower, sqrtUpper, err := rangeSqrtPrices(tickLower, tickUpper)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case sqrtPriceX64.Cmp(sqrtLower) <= 0:
		return Amount0Delta(sqrtLower, sqrtUpper, liquidity, roundUp), new(big.Int), nil
	case sqrtPriceX64.Cmp(sqrtUpper) >= 0:
		return new(big.Int), Amount1Delta(sqrtLower, sqrtUpper, liquidity, roundUp), nil
	default:
		amount0 := Amount0Delta(sqrtPriceX64, sqrtUpper, liquidity, roundUp)
		amount1 := Amount1Delta(sqrtLower, sqrtPriceX64, liquidity, roundUp)
		return amount0, amount1, nil
	}
}

// LiquidityFromAmount returns the liquidity a single-sided amount buys over
// [tickLower, tickUpper] at the given sqrt price, rounded down. Feeding the
// result back into AmountsFromLiquidity reproduces amount to within one
// unit.
//
// ErrSideNotInRange is returned when the requested side does not back the
// position at this price (token0 above the range, token1 below it).
func LiquidityFromAmount(amount *big.Int, tickLower, tickUpper int32, sqrtPriceX64 *big.Int, isToken0 bool) (*big.Int, error) {
	if sqrtPriceX64 == nil || sqrtPriceX64.Sign() <= 0 {
		return nil, ErrInvalidSqrtPrice
	}
	sqrtLower, sqrtUpper, err := rangeSqrtPrices(tickLower, tickUpper)
	if err != nil {
		return nil, err
	}

	if isToken0 {
		if sqrtPriceX64.Cmp(sqrtUpper) >= 0 {
			return nil, ErrSideNotInRange
		}
		sqrtA := sqrtLower
		if sqrtPriceX64.Cmp(sqrtLower) > 0 {
			sqrtA = sqrtPriceX64
		}
		return liquidityFromAmount0(amount, sqrtA, sqrtUpper), nil
	}

	if sqrtPriceX64.Cmp(sqrtLower) <= 0 {
		return nil, ErrSideNotInRange
	}
	sqrtB := sqrtUpper
	if sqrtPriceX64.Cmp(sqrtUpper) < 0 {
		sqrtB = sqrtPriceX64
	}
	return liquidityFromAmount1(amount, sqrtLower, sqrtB), nil
}

// liquidityFromAmount0 computes amount0 * sqrtA * sqrtB / ((sqrtB - sqrtA) * 2^64)
// with a single floor division.
func liquidityFromAmount0(amount0, sqrtA, sqrtB *big.Int) *big.Int {
	numerator := new(big.Int).Mul(amount0, sqrtA)
	numerator.Mul(numerator, sqrtB)
	denominator := fixedpoint.ToQ64(new(big.Int).Sub(sqrtB, sqrtA))
	return numerator.Quo(numerator, denominator)
}

// liquidityFromAmount1 computes amount1 * 2^64 / (sqrtB - sqrtA).
func liquidityFromAmount1(amount1, sqrtA, sqrtB *big.Int) *big.Int {
	numerator := fixedpoint.ToQ64(amount1)
	return numerator.Quo(numerator, new(big.Int).Sub(sqrtB, sqrtA))
}

func rangeSqrtPrices(tickLower, tickUpper int32) (*big.Int, *big.Int, error) {
	if tickLower >= tickUpper {
		return nil, nil, ErrInvalidTickRange
	}
	sqrtLower, err := tickmath.SqrtPriceX64FromTick(tickLower)
	if err != nil {
		return nil, nil, err
	}
	sqrtUpper, err := tickmath.SqrtPriceX64FromTick(tickUpper)
	if err != nil {
		return nil, nil, err
	}
	return sqrtLower, sqrtUpper, nil
}
