// Package cpmm quotes swaps and sizes LP deposits for constant-product
// pools.
//
//	(reserveIn + amountInAfterFee) * (reserveOut - amountOut) >= reserveIn * reserveOut
package cpmm

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
)

var ppmScale = big.NewInt(fixedpoint.PPMScale)

// swapResult is one side-resolved swap.
type swapResult struct {
	inputIsToken0 bool
	reserveIn     *big.Int
	reserveOut    *big.Int
	amountIn      *big.Int
	amountOut     *big.Int
	fee           *big.Int
}

// QuoteExactIn returns the output of selling amountIn of inputMint.
// A pool with an empty reserve quotes zero.
func QuoteExactIn(p *pool.ConstantProduct, inputMint solana.PublicKey, amountIn *big.Int) (*big.Int, error) {
	res, err := swapExactIn(p, inputMint, amountIn)
	if err != nil {
		return nil, err
	}
	return res.amountOut, nil
}

// QuoteExactOut returns the input needed to buy amountOut of outputMint.
// ErrInsufficientLiquidity is returned when amountOut would drain the
// reserve; ErrDivisionByZero when the effective fee is 100%.
func QuoteExactOut(p *pool.ConstantProduct, outputMint solana.PublicKey, amountOut *big.Int) (*big.Int, error) {
	res, err := swapExactOut(p, outputMint, amountOut)
	if err != nil {
		return nil, err
	}
	return res.amountIn, nil
}

func swapExactIn(p *pool.ConstantProduct, inputMint solana.PublicKey, amountIn *big.Int) (*swapResult, error) {
	inputIsToken0, err := pool.Side(p, inputMint)
	if err != nil {
		return nil, err
	}
	if amountIn.Sign() < 0 {
		return nil, pool.ErrNegativeAmount
	}
	reserveIn, reserveOut, err := sideReserves(p, inputIsToken0)
	if err != nil {
		return nil, err
	}

	res := &swapResult{
		inputIsToken0: inputIsToken0,
		reserveIn:     reserveIn,
		reserveOut:    reserveOut,
		amountIn:      new(big.Int).Set(amountIn),
		amountOut:     new(big.Int),
		fee:           new(big.Int),
	}
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return res, nil
	}

	rate := p.Fees.EffectiveRate(inputIsToken0, p.EnableCreatorFee)
	afterFee := fixedpoint.ApplyFeePpm(amountIn, rate)
	res.fee.Sub(amountIn, afterFee)

	out, err := fixedpoint.MulDivFloor(afterFee, reserveOut, new(big.Int).Add(reserveIn, afterFee))
	if err != nil {
		return nil, err
	}
	res.amountOut = out
	return res, nil
}

func swapExactOut(p *pool.ConstantProduct, outputMint solana.PublicKey, amountOut *big.Int) (*swapResult, error) {
	outputIsToken0, err := pool.Side(p, outputMint)
	if err != nil {
		return nil, err
	}
	if amountOut.Sign() < 0 {
		return nil, pool.ErrNegativeAmount
	}
	inputIsToken0 := !outputIsToken0
	reserveIn, reserveOut, err := sideReserves(p, inputIsToken0)
	if err != nil {
		return nil, err
	}

	if reserveIn.Sign() == 0 || amountOut.Cmp(reserveOut) >= 0 {
		return nil, fmt.Errorf("pool %s: want %s of reserve %s: %w",
			p.ID(), amountOut, reserveOut, pool.ErrInsufficientLiquidity)
	}

	rate := p.Fees.EffectiveRate(inputIsToken0, p.EnableCreatorFee)
	if rate.IsFull() {
		return nil, fmt.Errorf("pool %s: fee rate %s: %w", p.ID(), rate, fixedpoint.ErrDivisionByZero)
	}

	beforeFee, err := fixedpoint.MulDivFloor(amountOut, reserveIn, new(big.Int).Sub(reserveOut, amountOut))
	if err != nil {
		return nil, err
	}
	amountIn, err := fixedpoint.MulDivFloor(beforeFee, ppmScale, big.NewInt(fixedpoint.PPMScale-int64(rate)))
	if err != nil {
		return nil, err
	}

	return &swapResult{
		inputIsToken0: inputIsToken0,
		reserveIn:     reserveIn,
		reserveOut:    reserveOut,
		amountIn:      amountIn,
		amountOut:     new(big.Int).Set(amountOut),
		fee:           new(big.Int).Sub(amountIn, beforeFee),
	}, nil
}

func sideReserves(p *pool.ConstantProduct, inputIsToken0 bool) (*big.Int, *big.Int, error) {
	if p.SwapDisabled() {
		return nil, nil, fmt.Errorf("pool %s: %w", p.ID(), pool.ErrPoolSwapDisabled)
	}
	reserve0, reserve1, err := p.Reserves()
	if err != nil {
		return nil, nil, err
	}
	if inputIsToken0 {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}

// spotOutput is amountIn valued at the pre-trade price with no fee.
func (r *swapResult) spotOutput() *big.Int {
	if r.reserveIn.Sign() == 0 {
		return new(big.Int)
	}
	out, _ := fixedpoint.MulDivFloor(r.amountIn, r.reserveOut, r.reserveIn)
	return out
}
