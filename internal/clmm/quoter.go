package clmm

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
	"github.com/doxx-org/doxx-app-sub000/internal/quote"
	"github.com/doxx-org/doxx-app-sub000/internal/tickmath"
)

// Quoter validates concentrated-liquidity swap requests, delegates the
// tick walk to a SwapComputer and normalizes the result.
type Quoter struct {
	computer SwapComputer
}

// NewQuoter returns a Quoter backed by computer, or by a default
// TickWalker when computer is nil.
func NewQuoter(computer SwapComputer) *Quoter {
	if computer == nil {
		computer = TickWalker{}
	}
	return &Quoter{computer: computer}
}

// ExactIn quotes selling amountIn of inputMint for outputMint.
func (q *Quoter) ExactIn(p *pool.ConcentratedLiquidity, inputMint, outputMint solana.PublicKey, amountIn *big.Int, slippage fixedpoint.BPS) (quote.Quote, error) {
	if amountIn.Sign() < 0 {
		return quote.Quote{}, pool.ErrNegativeAmount
	}
	return q.quote(p, inputMint, outputMint, amountIn, quote.ExactIn, slippage)
}

// ExactOut quotes buying amountOut of outputMint with inputMint.
func (q *Quoter) ExactOut(p *pool.ConcentratedLiquidity, inputMint, outputMint solana.PublicKey, amountOut *big.Int, slippage fixedpoint.BPS) (quote.Quote, error) {
	if amountOut.Sign() < 0 {
		return quote.Quote{}, pool.ErrNegativeAmount
	}
	return q.quote(p, inputMint, outputMint, new(big.Int).Neg(amountOut), quote.ExactOut, slippage)
}

func (q *Quoter) quote(p *pool.ConcentratedLiquidity, inputMint, outputMint solana.PublicKey, amountSpecified *big.Int, dir quote.Direction, slippage fixedpoint.BPS) (quote.Quote, error) {
	zeroForOne, err := pool.Side(p, inputMint)
	if err != nil {
		return quote.Quote{}, err
	}
	outputIsToken0, err := pool.Side(p, outputMint)
	if err != nil {
		return quote.Quote{}, err
	}
	if outputIsToken0 == zeroForOne {
		return quote.Quote{}, fmt.Errorf("input and output are both %s: %w", inputMint, pool.ErrInvalidInputMint)
	}
	if p.SwapDisabled() {
		return quote.Quote{}, fmt.Errorf("pool %s: %w", p.ID(), pool.ErrPoolSwapDisabled)
	}
	if err := p.Validate(); err != nil {
		return quote.Quote{}, err
	}

	res, err := q.computer.ComputeSwap(p, zeroForOne, amountSpecified)
	if err != nil {
		return quote.Quote{}, err
	}

	in, out := p.Token0, p.Token1
	if !zeroForOne {
		in, out = out, in
	}

	priceBefore := tickmath.RawPriceFromSqrtPriceX64(res.SqrtPriceBeforeX64)
	priceAfter := tickmath.RawPriceFromSqrtPriceX64(res.SqrtPriceAfterX64)

	return quote.New(quote.Params{
		PoolID:      p.ID(),
		Kind:        pool.KindConcentratedLiquidity,
		Direction:   dir,
		InputToken:  in,
		OutputToken: out,
		AmountIn:    res.AmountIn,
		AmountOut:   res.AmountOut,
		Fee:         res.FeeAmount,
		PriceImpact: fixedpoint.PriceMovePercent(priceBefore, priceAfter),
		Slippage:    slippage,
	}), nil
}
