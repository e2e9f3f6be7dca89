package pool

import (
	"errors"
	"fmt"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
)

// ErrUnknownCreatorFeeSide is returned by ParseCreatorFeeSide.
var ErrUnknownCreatorFeeSide = errors.New("unknown creator fee side")

// CreatorFeeSide selects which input token the creator fee is charged on.
type CreatorFeeSide uint8

const (
	CreatorFeeBothTokens CreatorFeeSide = iota
	CreatorFeeOnlyToken0
	CreatorFeeOnlyToken1
)

// String returns a human-readable side.
func (s CreatorFeeSide) String() string {
	switch s {
	case CreatorFeeOnlyToken0:
		return "token0"
	case CreatorFeeOnlyToken1:
		return "token1"
	default:
		return "both"
	}
}

// ParseCreatorFeeSide is the inverse of CreatorFeeSide.String. The empty
// string means both.
func ParseCreatorFeeSide(s string) (CreatorFeeSide, error) {
	switch s {
	case "", "both":
		return CreatorFeeBothTokens, nil
	case "token0":
		return CreatorFeeOnlyToken0, nil
	case "token1":
		return CreatorFeeOnlyToken1, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrUnknownCreatorFeeSide)
	}
}

// FeeConfig is a constant-product pool's fee schedule.
type FeeConfig struct {
	TradeFeeRate   fixedpoint.PPM
	CreatorFeeRate fixedpoint.PPM
	CreatorFeeOn   CreatorFeeSide
}

// EffectiveRate returns the rate charged on an input of the given side: the
// trade fee, plus the creator fee when it is enabled and charged on that
// side, capped at 100%.
func (f FeeConfig) EffectiveRate(inputIsToken0, creatorFeeEnabled bool) fixedpoint.PPM {
	rate := f.TradeFeeRate.Clamp()
	if creatorFeeEnabled && f.chargesCreatorFee(inputIsToken0) {
		rate = rate.Add(f.CreatorFeeRate.Clamp())
	}
	return rate
}

func (f FeeConfig) chargesCreatorFee(inputIsToken0 bool) bool {
	switch f.CreatorFeeOn {
	case CreatorFeeBothTokens:
		return true
	case CreatorFeeOnlyToken0:
		return inputIsToken0
	case CreatorFeeOnlyToken1:
		return !inputIsToken0
	default:
		return false
	}
}
