// Package quote defines the normalized result every pool quoter produces
// and the route selector consumes.
package quote

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
)

// PricePlaces is the number of fractional digits implied prices keep.
const PricePlaces int32 = 12

// Direction says which side of a swap the caller fixed.
type Direction int

const (
	ExactIn Direction = iota
	ExactOut
)

// String returns a human-readable direction.
func (d Direction) String() string {
	switch d {
	case ExactIn:
		return "exact_in"
	case ExactOut:
		return "exact_out"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Quote is one pool's answer to a swap request. Quotes are built once and
// never mutated.
type Quote struct {
	PoolID    string
	Kind      pool.Kind
	Direction Direction

	InputToken  pool.Token
	OutputToken pool.Token
	AmountIn    *big.Int
	AmountOut   *big.Int
	Fee         *big.Int // charged on the input token

	// Price is output per one input, in human units.
	Price decimal.Decimal
	// PriceImpact is a percentage with two significant digits.
	PriceImpact decimal.Decimal

	Slippage fixedpoint.BPS
	// Bound is the minimum acceptable output for exact-in quotes and the
	// maximum acceptable input for exact-out quotes.
	Bound *big.Int
}

// MinOut returns the slippage-adjusted output floor of an exact-in quote.
func (q Quote) MinOut() *big.Int {
	if q.Direction != ExactIn {
		return nil
	}
	return q.Bound
}

// MaxIn returns the slippage-adjusted input ceiling of an exact-out quote.
func (q Quote) MaxIn() *big.Int {
	if q.Direction != ExactOut {
		return nil
	}
	return q.Bound
}

// String summarizes the quote for logs.
func (q Quote) String() string {
	return fmt.Sprintf("%s %s %s %s -> %s %s (bound %s, impact %s%%)",
		q.Kind, q.PoolID, fixedpoint.FormatFixed(q.AmountIn, q.InputToken.Decimals), q.InputToken,
		fixedpoint.FormatFixed(q.AmountOut, q.OutputToken.Decimals), q.OutputToken,
		q.Bound, q.PriceImpact)
}

// Params carries the values every quoter computes before normalization.
type Params struct {
	PoolID      string
	Kind        pool.Kind
	Direction   Direction
	InputToken  pool.Token
	OutputToken pool.Token
	AmountIn    *big.Int
	AmountOut   *big.Int
	Fee         *big.Int
	PriceImpact decimal.Decimal
	Slippage    fixedpoint.BPS
}

// New builds a Quote, deriving the implied price and the slippage bound:
// floor(out * (1 - bps)) for exact-in, ceil(in * (1 + bps)) for exact-out.
func New(p Params) Quote {
	slippage := p.Slippage.Clamp()

	var bound *big.Int
	if p.Direction == ExactOut {
		bound = fixedpoint.ApplySlippageCeil(p.AmountIn, slippage)
	} else {
		bound = fixedpoint.ApplySlippageFloor(p.AmountOut, slippage)
	}

	fee := p.Fee
	if fee == nil {
		fee = new(big.Int)
	}

	return Quote{
		PoolID:      p.PoolID,
		Kind:        p.Kind,
		Direction:   p.Direction,
		InputToken:  p.InputToken,
		OutputToken: p.OutputToken,
		AmountIn:    new(big.Int).Set(p.AmountIn),
		AmountOut:   new(big.Int).Set(p.AmountOut),
		Fee:         new(big.Int).Set(fee),
		Price:       ImpliedPrice(p.AmountIn, p.AmountOut, p.InputToken.Decimals, p.OutputToken.Decimals),
		PriceImpact: p.PriceImpact,
		Slippage:    slippage,
		Bound:       bound,
	}
}

// ImpliedPrice returns amountOut per one unit of input in human units.
func ImpliedPrice(amountIn, amountOut *big.Int, decimalsIn, decimalsOut uint8) decimal.Decimal {
	if amountIn.Sign() == 0 {
		return decimal.Zero
	}
	// (out / 10^dOut) / (in / 10^dIn) = out * 10^dIn / (in * 10^dOut)
	num := new(big.Int).Mul(amountOut, fixedpoint.Pow10(int(decimalsIn)))
	den := new(big.Int).Mul(amountIn, fixedpoint.Pow10(int(decimalsOut)))
	return fixedpoint.RatToDecimal(new(big.Rat).SetFrac(num, den), PricePlaces)
}
