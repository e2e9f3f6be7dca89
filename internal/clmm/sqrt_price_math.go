// Package clmm quotes swaps against concentrated-liquidity pools. The
// tick walk itself sits behind SwapComputer; TickWalker is the default,
// built on the Q64.64 step math in this package.
package clmm

import (
	"errors"
	"math/big"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
)

var (
	ErrInvalidLiquidity = errors.New("liquidity must be positive")
	ErrInvalidPrice     = errors.New("invalid sqrt price")
)

// NextSqrtPriceFromInput returns the sqrt price after adding amountIn of
// the input token. zeroForOne means token0 is the input.
func NextSqrtPriceFromInput(sqrtPriceX64, liquidity, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPriceX64.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if liquidity.Sign() <= 0 {
		return nil, ErrInvalidLiquidity
	}

	if zeroForOne {
		return nextSqrtPriceFromAmount0RoundingUp(sqrtPriceX64, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmount1RoundingDown(sqrtPriceX64, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput returns the sqrt price after removing amountOut
// of the output token.
func NextSqrtPriceFromOutput(sqrtPriceX64, liquidity, amountOut *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPriceX64.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if liquidity.Sign() <= 0 {
		return nil, ErrInvalidLiquidity
	}

	if zeroForOne {
		return nextSqrtPriceFromAmount1RoundingDown(sqrtPriceX64, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmount0RoundingUp(sqrtPriceX64, liquidity, amountOut, false)
}

// nextSqrtPriceFromAmount0RoundingUp computes
//
//	L * sqrtP / (L ± amount * sqrtP)
//
// with L in Q64.64, rounding up so the price never moves too far.
func nextSqrtPriceFromAmount0RoundingUp(sqrtPriceX64, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPriceX64), nil
	}

	numerator1 := fixedpoint.ToQ64(liquidity)
	product := new(big.Int).Mul(amount, sqrtPriceX64)

	var denominator *big.Int
	if add {
		denominator = new(big.Int).Add(numerator1, product)
	} else {
		denominator = new(big.Int).Sub(numerator1, product)
		if denominator.Sign() <= 0 {
			return nil, pool.ErrInsufficientLiquidity
		}
	}

	return fixedpoint.MulDivCeil(numerator1, sqrtPriceX64, denominator)
}

// nextSqrtPriceFromAmount1RoundingDown computes sqrtP ± amount / L, rounding
// down.
func nextSqrtPriceFromAmount1RoundingDown(sqrtPriceX64, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if add {
		quotient, err := fixedpoint.MulDivFloor(amount, fixedpoint.Q64, liquidity)
		if err != nil {
			return nil, err
		}
		return quotient.Add(quotient, sqrtPriceX64), nil
	}

	quotient, err := fixedpoint.MulDivCeil(amount, fixedpoint.Q64, liquidity)
	if err != nil {
		return nil, err
	}
	if sqrtPriceX64.Cmp(quotient) <= 0 {
		return nil, pool.ErrInsufficientLiquidity
	}
	return quotient.Sub(sqrtPriceX64, quotient), nil
}
