package clmm

import (
	"math/big"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/liquidity"
)

// SwapStep is the result of swapping inside one constant-liquidity segment.
type SwapStep struct {
	SqrtPriceNextX64 *big.Int
	AmountIn         *big.Int // input consumed, fee excluded
	AmountOut        *big.Int
	FeeAmount        *big.Int
}

// ComputeSwapStep swaps inside [current, target] at constant liquidity.
//
// A non-negative amountRemaining is an exact-in budget that still includes
// the fee; a negative one is the output still owed. The direction follows
// from the prices: target at or below current means token0 in.
func ComputeSwapStep(sqrtPriceCurrentX64, sqrtPriceTargetX64, liq, amountRemaining *big.Int, feeRate fixedpoint.PPM) (*SwapStep, error) {
	zeroForOne := sqrtPriceCurrentX64.Cmp(sqrtPriceTargetX64) >= 0
	exactIn := amountRemaining.Sign() >= 0
	feeRate = feeRate.Clamp()

	step := &SwapStep{}
	var err error

	if exactIn {
		remainingLessFee := fixedpoint.ApplyFeePpm(amountRemaining, feeRate)
		step.AmountIn = inputDelta(sqrtPriceTargetX64, sqrtPriceCurrentX64, liq, zeroForOne)
		if remainingLessFee.Cmp(step.AmountIn) >= 0 {
			step.SqrtPriceNextX64 = new(big.Int).Set(sqrtPriceTargetX64)
		} else {
			step.SqrtPriceNextX64, err = NextSqrtPriceFromInput(sqrtPriceCurrentX64, liq, remainingLessFee, zeroForOne)
			if err != nil {
				return nil, err
			}
		}
	} else {
		owed := new(big.Int).Neg(amountRemaining)
		step.AmountOut = outputDelta(sqrtPriceTargetX64, sqrtPriceCurrentX64, liq, zeroForOne)
		if owed.Cmp(step.AmountOut) >= 0 {
			step.SqrtPriceNextX64 = new(big.Int).Set(sqrtPriceTargetX64)
		} else {
			step.SqrtPriceNextX64, err = NextSqrtPriceFromOutput(sqrtPriceCurrentX64, liq, owed, zeroForOne)
			if err != nil {
				return nil, err
			}
		}
	}

	reachedTarget := step.SqrtPriceNextX64.Cmp(sqrtPriceTargetX64) == 0

	// Amounts for a partial segment are recomputed from the new price.
	if !(reachedTarget && exactIn) {
		step.AmountIn = inputDelta(step.SqrtPriceNextX64, sqrtPriceCurrentX64, liq, zeroForOne)
	}
	if !(reachedTarget && !exactIn) {
		step.AmountOut = outputDelta(step.SqrtPriceNextX64, sqrtPriceCurrentX64, liq, zeroForOne)
	}

	if !exactIn {
		if owed := new(big.Int).Neg(amountRemaining); step.AmountOut.Cmp(owed) > 0 {
			step.AmountOut = owed
		}
	}

	if exactIn && !reachedTarget {
		// The rest of the budget is fee.
		step.FeeAmount = new(big.Int).Sub(amountRemaining, step.AmountIn)
		return step, nil
	}

	if step.AmountIn.Sign() == 0 {
		step.FeeAmount = new(big.Int)
		return step, nil
	}
	if feeRate.IsFull() {
		return nil, fixedpoint.ErrDivisionByZero
	}
	step.FeeAmount, err = fixedpoint.MulDivCeil(step.AmountIn, big.NewInt(int64(feeRate)), big.NewInt(fixedpoint.PPMScale-int64(feeRate)))
	if err != nil {
		return nil, err
	}
	return step, nil
}

// inputDelta is the input needed to move between two prices, rounded up.
func inputDelta(sqrtA, sqrtB, liq *big.Int, zeroForOne bool) *big.Int {
	if zeroForOne {
		return liquidity.Amount0Delta(sqrtA, sqrtB, liq, true)
	}
	return liquidity.Amount1Delta(sqrtA, sqrtB, liq, true)
}

// outputDelta is the output released between two prices, rounded down.
func outputDelta(sqrtA, sqrtB, liq *big.Int, zeroForOne bool) *big.Int {
	if zeroForOne {
		return liquidity.Amount1Delta(sqrtA, sqrtB, liq, false)
	}
	return liquidity.Amount0Delta(sqrtA, sqrtB, liq, false)
}
