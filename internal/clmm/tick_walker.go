package clmm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/doxx-org/doxx-app-sub000/internal/pool"
	"github.com/doxx-org/doxx-app-sub000/internal/tickmath"
)

// DefaultMaxSteps bounds the number of segments one swap may walk.
const DefaultMaxSteps = 512

// ErrMaxStepsExceeded is returned when a swap needs more segments than the
// walker allows.
var ErrMaxStepsExceeded = errors.New("swap exceeds tick walk step limit")

// SwapComputer runs the multi-tick swap for a concentrated-liquidity pool.
// amountSpecified is positive for exact-in (input including fee) and
// negative for exact-out (output wanted).
type SwapComputer interface {
	ComputeSwap(p *pool.ConcentratedLiquidity, zeroForOne bool, amountSpecified *big.Int) (*SwapResult, error)
}

// SwapResult is the outcome of a full swap.
type SwapResult struct {
	AmountIn  *big.Int // including fee
	AmountOut *big.Int
	FeeAmount *big.Int

	SqrtPriceBeforeX64 *big.Int
	SqrtPriceAfterX64  *big.Int
	TickAfter          int32
	LiquidityAfter     *big.Int

	TicksCrossed int
	// TickArrays lists the starts of the tick arrays the swap read, in walk
	// order. A transaction executing the swap must pass these accounts.
	TickArrays []int32
}

// TickWalker is the default SwapComputer. It walks the snapshot's
// initialized ticks, one ComputeSwapStep per constant-liquidity segment.
type TickWalker struct {
	MaxSteps      int
	TickArraySize int32
}

// ComputeSwap implements SwapComputer.
func (w TickWalker) ComputeSwap(p *pool.ConcentratedLiquidity, zeroForOne bool, amountSpecified *big.Int) (*SwapResult, error) {
	maxSteps := w.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	arraySize := w.TickArraySize
	if arraySize <= 0 {
		arraySize = tickmath.DefaultTickArraySize
	}

	ix, err := newTickIndex(p.Ticks, p.TickSpacing, arraySize)
	if err != nil {
		return nil, err
	}

	sqrtPrice := p.SqrtPrice()
	tick := p.TickCurrent
	liq := p.ActiveLiquidity()

	res := &SwapResult{
		AmountIn:           new(big.Int),
		AmountOut:          new(big.Int),
		FeeAmount:          new(big.Int),
		SqrtPriceBeforeX64: new(big.Int).Set(sqrtPrice),
	}

	limit := tickmath.MaxSqrtPriceX64
	if zeroForOne {
		limit = tickmath.MinSqrtPriceX64
	}

	exactIn := amountSpecified.Sign() > 0
	remaining := new(big.Int).Set(amountSpecified)
	start, err := tickmath.TickArrayStart(tick, p.TickSpacing, arraySize)
	if err != nil {
		return nil, err
	}
	res.TickArrays = append(res.TickArrays, start)

	for steps := 0; remaining.Sign() != 0 && sqrtPrice.Cmp(limit) != 0; steps++ {
		if steps >= maxSteps {
			return nil, fmt.Errorf("pool %s after %d steps: %w", p.ID(), steps, ErrMaxStepsExceeded)
		}

		next, arrayStart, initialized := ix.next(tick, zeroForOne)
		target := limit
		if initialized {
			target, _ = tickmath.SqrtPriceX64FromTick(next.Index)
			if arrayStart != res.TickArrays[len(res.TickArrays)-1] {
				res.TickArrays = append(res.TickArrays, arrayStart)
			}
		}

		step, err := ComputeSwapStep(sqrtPrice, target, liq, remaining, p.FeeRate)
		if err != nil {
			return nil, fmt.Errorf("pool %s at tick %d: %w", p.ID(), tick, err)
		}
		priceBefore := sqrtPrice
		sqrtPrice = step.SqrtPriceNextX64

		paid := new(big.Int).Add(step.AmountIn, step.FeeAmount)
		res.AmountIn.Add(res.AmountIn, paid)
		res.AmountOut.Add(res.AmountOut, step.AmountOut)
		res.FeeAmount.Add(res.FeeAmount, step.FeeAmount)
		if exactIn {
			remaining.Sub(remaining, paid)
		} else {
			remaining.Add(remaining, step.AmountOut)
		}

		switch {
		case initialized && sqrtPrice.Cmp(target) == 0:
			net := new(big.Int).Set(next.LiquidityNet)
			if zeroForOne {
				net.Neg(net)
			}
			liq.Add(liq, net)
			if liq.Sign() < 0 {
				return nil, fmt.Errorf("pool %s: liquidity negative after crossing tick %d: %w",
					p.ID(), next.Index, pool.ErrInvalidPoolState)
			}
			res.TicksCrossed++
			tick = next.Index
			if zeroForOne {
				tick--
			}
		case sqrtPrice.Cmp(priceBefore) != 0:
			if tick, err = tickmath.TickFromSqrtPriceX64(sqrtPrice); err != nil {
				return nil, err
			}
		}
	}

	if remaining.Sign() != 0 {
		return nil, fmt.Errorf("pool %s: %s left unfilled: %w", p.ID(), new(big.Int).Abs(remaining), pool.ErrInsufficientLiquidity)
	}

	res.SqrtPriceAfterX64 = sqrtPrice
	res.TickAfter = tick
	res.LiquidityAfter = liq
	return res, nil
}
