// Package route quotes a swap against every candidate pool for a pair and
// picks the best one.
package route

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/doxx-org/doxx-app-sub000/internal/clmm"
	"github.com/doxx-org/doxx-app-sub000/internal/cpmm"
	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
	"github.com/doxx-org/doxx-app-sub000/internal/quote"
)

var (
	ErrSamePair        = errors.New("input and output mint are the same")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidSlippage = errors.New("slippage must be within 0-10000 bps")
)

// Request asks for the best pool to swap Amount. For exact-in Amount is the
// input; for exact-out it is the output wanted.
type Request struct {
	InputMint  solana.PublicKey
	OutputMint solana.PublicKey
	Amount     *big.Int
	Direction  quote.Direction
	Slippage   fixedpoint.BPS
}

// Validate checks the request shape. Mint membership is checked per pool.
func (r Request) Validate() error {
	if r.InputMint.Equals(r.OutputMint) {
		return fmt.Errorf("%s: %w", r.InputMint, ErrSamePair)
	}
	if r.Amount == nil || r.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !r.Slippage.Valid() {
		return fmt.Errorf("%s: %w", r.Slippage, ErrInvalidSlippage)
	}
	return nil
}

// PoolQuoter dispatches a request to the quoter for the pool's kind.
type PoolQuoter struct {
	cpmm cpmm.Quoter
	clmm *clmm.Quoter
}

// NewPoolQuoter returns a PoolQuoter whose concentrated-liquidity quotes use
// computer, or the default tick walker when computer is nil.
func NewPoolQuoter(computer clmm.SwapComputer) *PoolQuoter {
	return &PoolQuoter{clmm: clmm.NewQuoter(computer)}
}

var defaultQuoter = NewPoolQuoter(nil)

// QuotePool quotes req against p with the default quoters.
func QuotePool(p pool.Pool, req Request) (quote.Quote, error) {
	return defaultQuoter.Quote(p, req)
}

// Quote quotes req against p.
func (q *PoolQuoter) Quote(p pool.Pool, req Request) (quote.Quote, error) {
	switch p := p.(type) {
	case *pool.ConstantProduct:
		if err := checkPair(p, req); err != nil {
			return quote.Quote{}, err
		}
		if req.Direction == quote.ExactOut {
			return q.cpmm.ExactOut(p, req.OutputMint, req.Amount, req.Slippage)
		}
		return q.cpmm.ExactIn(p, req.InputMint, req.Amount, req.Slippage)

	case *pool.ConcentratedLiquidity:
		if req.Direction == quote.ExactOut {
			return q.clmm.ExactOut(p, req.InputMint, req.OutputMint, req.Amount, req.Slippage)
		}
		return q.clmm.ExactIn(p, req.InputMint, req.OutputMint, req.Amount, req.Slippage)

	default:
		return quote.Quote{}, fmt.Errorf("%T: %w", p, pool.ErrUnknownKind)
	}
}

// checkPair makes sure the pool holds both sides of the request. The
// constant-product quoter only looks at one mint.
func checkPair(p pool.Pool, req Request) error {
	inIsToken0, err := pool.Side(p, req.InputMint)
	if err != nil {
		return err
	}
	outIsToken0, err := pool.Side(p, req.OutputMint)
	if err != nil {
		return err
	}
	if inIsToken0 == outIsToken0 {
		return fmt.Errorf("pool %s: %w", p.ID(), pool.ErrInvalidInputMint)
	}
	return nil
}
