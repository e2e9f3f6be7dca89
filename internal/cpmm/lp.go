package cpmm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
)

var (
	ErrDepositDisabled  = errors.New("pool deposits are disabled")
	ErrWithdrawDisabled = errors.New("pool withdrawals are disabled")
	ErrZeroLP           = errors.New("amounts mint no LP tokens")
	ErrLPExceedsSupply  = errors.New("LP amount exceeds supply")
)

// LPChange is the result of sizing a deposit or withdrawal.
type LPChange struct {
	LP      *big.Int
	Amount0 *big.Int
	Amount1 *big.Int
}

// MintLP sizes a deposit of at most max0 and max1.
//
// An empty pool mints isqrt(max0*max1) and takes both amounts. Otherwise
// the LP minted is the smaller of the two proportional shares and only the
// matching amount of the other token is consumed, rounded up in the pool's
// favor.
func MintLP(p *pool.ConstantProduct, max0, max1 *big.Int) (*LPChange, error) {
	if p.DepositDisabled() {
		return nil, fmt.Errorf("pool %s: %w", p.ID(), ErrDepositDisabled)
	}
	if max0.Sign() < 0 || max1.Sign() < 0 {
		return nil, pool.ErrNegativeAmount
	}

	supply := p.Supply()
	if supply.Sign() == 0 {
		lp := fixedpoint.Isqrt(new(big.Int).Mul(max0, max1))
		if lp.Sign() == 0 {
			return nil, ErrZeroLP
		}
		return &LPChange{LP: lp, Amount0: new(big.Int).Set(max0), Amount1: new(big.Int).Set(max1)}, nil
	}

	reserve0, reserve1, err := p.Reserves()
	if err != nil {
		return nil, err
	}
	if reserve0.Sign() == 0 || reserve1.Sign() == 0 {
		return nil, fmt.Errorf("pool %s: %w", p.ID(), pool.ErrInsufficientLiquidity)
	}

	lp0, _ := fixedpoint.MulDivFloor(max0, supply, reserve0)
	lp1, _ := fixedpoint.MulDivFloor(max1, supply, reserve1)
	lp := lp0
	if lp1.Cmp(lp0) < 0 {
		lp = lp1
	}
	if lp.Sign() == 0 {
		return nil, ErrZeroLP
	}

	amount0, _ := fixedpoint.MulDivCeil(lp, reserve0, supply)
	amount1, _ := fixedpoint.MulDivCeil(lp, reserve1, supply)
	return &LPChange{LP: lp, Amount0: amount0, Amount1: amount1}, nil
}

// BurnLP returns the reserves lp redeems, rounded down.
func BurnLP(p *pool.ConstantProduct, lp *big.Int) (*LPChange, error) {
	if p.WithdrawDisabled() {
		return nil, fmt.Errorf("pool %s: %w", p.ID(), ErrWithdrawDisabled)
	}
	if lp.Sign() < 0 {
		return nil, pool.ErrNegativeAmount
	}
	supply := p.Supply()
	if lp.Cmp(supply) > 0 {
		return nil, fmt.Errorf("burn %s of %s: %w", lp, supply, ErrLPExceedsSupply)
	}
	if supply.Sign() == 0 {
		return &LPChange{LP: new(big.Int), Amount0: new(big.Int), Amount1: new(big.Int)}, nil
	}

	reserve0, reserve1, err := p.Reserves()
	if err != nil {
		return nil, err
	}
	amount0, _ := fixedpoint.MulDivFloor(lp, reserve0, supply)
	amount1, _ := fixedpoint.MulDivFloor(lp, reserve1, supply)
	return &LPChange{LP: new(big.Int).Set(lp), Amount0: amount0, Amount1: amount1}, nil
}
