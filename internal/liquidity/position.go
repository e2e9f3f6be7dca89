package liquidity

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/doxx-org/doxx-app-sub000/internal/tickmath"
)

var (
	ErrTickNotOnSpacing              = errors.New("tick is not a multiple of tick spacing")
	ErrInsufficientPositionLiquidity = errors.New("withdrawal exceeds position liquidity")
	ErrPositionNotEmpty              = errors.New("position still holds liquidity or owed fees")
	ErrPositionClosed                = errors.New("position is closed")
	ErrNoDepositAmount               = errors.New("deposit amounts buy no liquidity")
)

// Position is a concentrated-liquidity range position.
type Position struct {
	TickLower int32
	TickUpper int32
	Liquidity *big.Int
	FeesOwed0 *big.Int
	FeesOwed1 *big.Int

	closed bool
}

// OpenPosition creates an empty position over [tickLower, tickUpper].
// Both bounds must sit on the spacing grid inside the tick domain.
func OpenPosition(tickLower, tickUpper, tickSpacing int32) (*Position, error) {
	if tickSpacing <= 0 {
		return nil, tickmath.ErrInvalidTickSpacing
	}
	if tickLower >= tickUpper {
		return nil, ErrInvalidTickRange
	}
	for _, tick := range []int32{tickLower, tickUpper} {
		if tick < tickmath.MinTick || tick > tickmath.MaxTick {
			return nil, fmt.Errorf("tick %d: %w", tick, tickmath.ErrTickOutOfRange)
		}
		if tick%tickSpacing != 0 {
			return nil, fmt.Errorf("tick %d, spacing %d: %w", tick, tickSpacing, ErrTickNotOnSpacing)
		}
	}

	return &Position{
		TickLower: tickLower,
		TickUpper: tickUpper,
		Liquidity: new(big.Int),
		FeesOwed0: new(big.Int),
		FeesOwed1: new(big.Int),
	}, nil
}

// Deposit adds liquidity to the position.
func (p *Position) Deposit(liquidity *big.Int) error {
	if p.closed {
		return ErrPositionClosed
	}
	if liquidity.Sign() < 0 {
		return ErrNegativeLiquidity
	}
	p.Liquidity = new(big.Int).Add(p.Liquidity, liquidity)
	return nil
}

// Withdraw removes liquidity from the position.
func (p *Position) Withdraw(liquidity *big.Int) error {
	if p.closed {
		return ErrPositionClosed
	}
	if liquidity.Sign() < 0 {
		return ErrNegativeLiquidity
	}
	if liquidity.Cmp(p.Liquidity) > 0 {
		return ErrInsufficientPositionLiquidity
	}
	p.Liquidity = new(big.Int).Sub(p.Liquidity, liquidity)
	return nil
}

// AccrueFees credits uncollected trading fees to the position.
func (p *Position) AccrueFees(fee0, fee1 *big.Int) error {
	if p.closed {
		return ErrPositionClosed
	}
	if fee0.Sign() < 0 || fee1.Sign() < 0 {
		return errors.New("fees must not be negative")
	}
	p.FeesOwed0 = new(big.Int).Add(p.FeesOwed0, fee0)
	p.FeesOwed1 = new(big.Int).Add(p.FeesOwed1, fee1)
	return nil
}

// Collect returns and clears the owed fees.
func (p *Position) Collect() (*big.Int, *big.Int) {
	fee0, fee1 := p.FeesOwed0, p.FeesOwed1
	p.FeesOwed0, p.FeesOwed1 = new(big.Int), new(big.Int)
	return fee0, fee1
}

// Amounts values the position's liquidity at the given sqrt price.
func (p *Position) Amounts(sqrtPriceX64 *big.Int) (*big.Int, *big.Int, error) {
	return AmountsFromLiquidity(p.Liquidity, p.TickLower, p.TickUpper, sqrtPriceX64)
}

// Closable reports whether liquidity and owed fees are all zero.
func (p *Position) Closable() bool {
	return p.Liquidity.Sign() == 0 && p.FeesOwed0.Sign() == 0 && p.FeesOwed1.Sign() == 0
}

// Close destroys an empty position.
func (p *Position) Close() error {
	if p.closed {
		return ErrPositionClosed
	}
	if !p.Closable() {
		return ErrPositionNotEmpty
	}
	p.closed = true
	return nil
}

// Closed reports whether Close has succeeded.
func (p *Position) Closed() bool {
	return p.closed
}

// Anchor names the token whose amount fixed a deposit's liquidity.
type Anchor int

const (
	AnchorToken0 Anchor = iota
	AnchorToken1
)

// String returns a human-readable anchor.
func (a Anchor) String() string {
	if a == AnchorToken1 {
		return "token1"
	}
	return "token0"
}

// DepositPlan is the liquidity and token amounts for opening or increasing
// a position from two balance caps.
type DepositPlan struct {
	Liquidity *big.Int
	Amount0   *big.Int // required token0, rounded up
	Amount1   *big.Int // required token1, rounded up
	Anchor    Anchor
}

// SizeDeposit sizes a deposit from the largest amounts the depositor is
// willing to spend. Each side implies a liquidity figure; the plan anchors
// on the side that leaves less unused balance, which is the smaller
// liquidity. An exact tie anchors on token0. Outside the range only one
// side is usable and it is always the anchor.
func SizeDeposit(max0, max1 *big.Int, tickLower, tickUpper int32, sqrtPriceX64 *big.Int) (*DepositPlan, error) {
	liq0, err0 := LiquidityFromAmount(max0, tickLower, tickUpper, sqrtPriceX64, true)
	if err0 != nil && !errors.Is(err0, ErrSideNotInRange) {
		return nil, err0
	}
	liq1, err1 := LiquidityFromAmount(max1, tickLower, tickUpper, sqrtPriceX64, false)
	if err1 != nil && !errors.Is(err1, ErrSideNotInRange) {
		return nil, err1
	}

	var liquidity *big.Int
	var anchor Anchor
	switch {
	case err0 != nil:
		liquidity, anchor = liq1, AnchorToken1
	case err1 != nil:
		liquidity, anchor = liq0, AnchorToken0
	case liq1.Cmp(liq0) < 0:
		liquidity, anchor = liq1, AnchorToken1
	default:
		liquidity, anchor = liq0, AnchorToken0
	}

	if liquidity.Sign() == 0 {
		return nil, ErrNoDepositAmount
	}

	amount0, amount1, err := AmountsForDeposit(liquidity, tickLower, tickUpper, sqrtPriceX64)
	if err != nil {
		return nil, err
	}

	return &DepositPlan{
		Liquidity: liquidity,
		Amount0:   amount0,
		Amount1:   amount1,
		Anchor:    anchor,
	}, nil
}
