package cpmm

import (
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
	"github.com/doxx-org/doxx-app-sub000/internal/quote"
)

// Quoter normalizes constant-product swaps into quote.Quote values.
type Quoter struct{}

// ExactIn quotes selling amountIn of inputMint with the given slippage.
func (Quoter) ExactIn(p *pool.ConstantProduct, inputMint solana.PublicKey, amountIn *big.Int, slippage fixedpoint.BPS) (quote.Quote, error) {
	res, err := swapExactIn(p, inputMint, amountIn)
	if err != nil {
		return quote.Quote{}, err
	}
	return normalize(p, quote.ExactIn, res, slippage), nil
}

// ExactOut quotes buying amountOut of outputMint with the given slippage.
func (Quoter) ExactOut(p *pool.ConstantProduct, outputMint solana.PublicKey, amountOut *big.Int, slippage fixedpoint.BPS) (quote.Quote, error) {
	res, err := swapExactOut(p, outputMint, amountOut)
	if err != nil {
		return quote.Quote{}, err
	}
	return normalize(p, quote.ExactOut, res, slippage), nil
}

func normalize(p *pool.ConstantProduct, dir quote.Direction, res *swapResult, slippage fixedpoint.BPS) quote.Quote {
	in, out := p.Token0, p.Token1
	if !res.inputIsToken0 {
		in, out = out, in
	}

	return quote.New(quote.Params{
		PoolID:      p.ID(),
		Kind:        pool.KindConstantProduct,
		Direction:   dir,
		InputToken:  in,
		OutputToken: out,
		AmountIn:    res.amountIn,
		AmountOut:   res.amountOut,
		Fee:         res.fee,
		PriceImpact: fixedpoint.PriceImpactPercent(res.spotOutput(), res.amountOut),
		Slippage:    slippage,
	})
}
