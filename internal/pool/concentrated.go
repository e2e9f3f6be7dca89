package pool

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/tickmath"
)

// Concentrated-liquidity status bits. A set bit disables the operation.
const (
	StatusOpenPositionDisabled      uint8 = 1 << 0
	StatusDecreaseLiquidityDisabled uint8 = 1 << 1
	StatusCollectFeeDisabled        uint8 = 1 << 2
	StatusCollectRewardDisabled     uint8 = 1 << 3
	StatusClmmSwapDisabled          uint8 = 1 << 4
)

// Tick is an initialized tick boundary.
type Tick struct {
	Index int32
	// LiquidityNet is added to active liquidity when price crosses the tick
	// upward and subtracted when it crosses downward.
	LiquidityNet *big.Int
}

// ConcentratedLiquidity is a snapshot of a tick-range pool.
type ConcentratedLiquidity struct {
	Address      solana.PublicKey
	Token0       Token
	Token1       Token
	SqrtPriceX64 uint128.Uint128
	TickCurrent  int32
	TickSpacing  int32
	Liquidity    uint128.Uint128
	// Ticks holds every initialized tick, ascending.
	Ticks   []Tick
	FeeRate fixedpoint.PPM
	Status  uint8
}

func (*ConcentratedLiquidity) isPool() {}

// ID returns the pool address.
func (p *ConcentratedLiquidity) ID() string { return p.Address.String() }

// Kind returns KindConcentratedLiquidity.
func (p *ConcentratedLiquidity) Kind() Kind { return KindConcentratedLiquidity }

// Tokens returns token0 and token1.
func (p *ConcentratedLiquidity) Tokens() (Token, Token) { return p.Token0, p.Token1 }

// SwapDisabled reports whether the swap status bit is set.
func (p *ConcentratedLiquidity) SwapDisabled() bool { return p.Status&StatusClmmSwapDisabled != 0 }

// SqrtPrice returns the current Q64.64 sqrt price as a big integer.
func (p *ConcentratedLiquidity) SqrtPrice() *big.Int { return p.SqrtPriceX64.Big() }

// ActiveLiquidity returns the in-range liquidity as a big integer.
func (p *ConcentratedLiquidity) ActiveLiquidity() *big.Int { return p.Liquidity.Big() }

// Price returns the human price of token0 in token1.
func (p *ConcentratedLiquidity) Price() *big.Rat {
	return tickmath.PriceFromSqrtPriceX64(p.SqrtPrice(), p.Token0.Decimals, p.Token1.Decimals)
}

// Validate checks the snapshot invariants: positive spacing, ascending
// on-grid ticks inside the tick domain, and a current tick that matches the
// current sqrt price.
func (p *ConcentratedLiquidity) Validate() error {
	if !IsCanonicalOrder(p.Token0.Mint, p.Token1.Mint) {
		return fmt.Errorf("pool %s: %w", p.ID(), ErrMintOrder)
	}
	if p.TickSpacing <= 0 {
		return fmt.Errorf("pool %s: %w", p.ID(), tickmath.ErrInvalidTickSpacing)
	}

	for i, tick := range p.Ticks {
		if tick.Index < tickmath.MinTick || tick.Index > tickmath.MaxTick {
			return fmt.Errorf("pool %s: tick %d: %w", p.ID(), tick.Index, tickmath.ErrTickOutOfRange)
		}
		if tick.Index%p.TickSpacing != 0 {
			return fmt.Errorf("pool %s: tick %d not a multiple of spacing %d: %w",
				p.ID(), tick.Index, p.TickSpacing, ErrInvalidPoolState)
		}
		if i > 0 && tick.Index <= p.Ticks[i-1].Index {
			return fmt.Errorf("pool %s: ticks not strictly ascending at %d: %w",
				p.ID(), tick.Index, ErrInvalidPoolState)
		}
		if tick.LiquidityNet == nil {
			return fmt.Errorf("pool %s: tick %d missing liquidity net: %w", p.ID(), tick.Index, ErrInvalidPoolState)
		}
	}

	current, err := tickmath.TickFromSqrtPriceX64(p.SqrtPrice())
	if err != nil {
		return fmt.Errorf("pool %s: %w", p.ID(), err)
	}
	if current != p.TickCurrent {
		return fmt.Errorf("pool %s: tick %d does not match sqrt price tick %d: %w",
			p.ID(), p.TickCurrent, current, ErrInvalidPoolState)
	}
	return nil
}
