// Package fixedpoint provides deterministic integer arithmetic for swap and
// liquidity calculations. Every money-affecting path works on *big.Int;
// floating point is only used at display boundaries.
package fixedpoint

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrDivisionByZero is returned when a mul-div denominator is zero.
	ErrDivisionByZero = errors.New("division by zero")

	// Q64 is 2^64, the scale of a Q64.64 fixed-point number.
	Q64 = new(big.Int).Lsh(big.NewInt(1), 64)

	// Q128 is 2^128, the scale of a Q128.128 fixed-point number.
	Q128 = new(big.Int).Lsh(big.NewInt(1), 128)

	// MaxUint128 is the largest value a Q64.64 sqrt price may hold.
	MaxUint128 = new(big.Int).Sub(Q128, big.NewInt(1))

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// --- Mul-Div ---

// MulDivFloor returns floor(a*b/denominator).
// Non-negative operands that fit in 256 bits use a 512-bit intermediate;
// anything else falls back to arbitrary precision.
func MulDivFloor(a, b, denominator *big.Int) (*big.Int, error) {
	if denominator.Sign() == 0 {
		return nil, ErrDivisionByZero
	}

	if x, y, d, ok := toUint256(a, b, denominator); ok {
		if z, overflow := new(uint256.Int).MulDivOverflow(x, y, d); !overflow {
			return z.ToBig(), nil
		}
	}

	product := new(big.Int).Mul(a, b)
	// Div is Euclidean; with a positive denominator that is floor division.
	if denominator.Sign() > 0 {
		return product.Div(product, denominator), nil
	}
	q, m := new(big.Int).QuoRem(product, denominator, new(big.Int))
	if m.Sign() != 0 && (m.Sign() < 0) != (denominator.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
	}
	return q, nil
}

// MulDivCeil returns ceil(a*b/denominator) for non-negative operands.
func MulDivCeil(a, b, denominator *big.Int) (*big.Int, error) {
	if denominator.Sign() == 0 {
		return nil, ErrDivisionByZero
	}

	product := new(big.Int).Mul(a, b)
	q, r := new(big.Int).QuoRem(product, denominator, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q, nil
}

func toUint256(a, b, d *big.Int) (*uint256.Int, *uint256.Int, *uint256.Int, bool) {
	for _, v := range []*big.Int{a, b, d} {
		if v.Sign() < 0 || v.Cmp(maxUint256) > 0 {
			return nil, nil, nil, false
		}
	}
	x, _ := uint256.FromBig(a)
	y, _ := uint256.FromBig(b)
	z, _ := uint256.FromBig(d)
	return x, y, z, true
}

// --- Roots ---

// Isqrt returns floor(sqrt(n)) using Newton's method. Non-positive input
// returns zero.
func Isqrt(n *big.Int) *big.Int {
	if n.Sign() <= 0 {
		return new(big.Int)
	}

	// Start above the root: 2^ceil(bits/2) >= sqrt(n).
	x := new(big.Int).Lsh(big.NewInt(1), uint(n.BitLen()+1)/2)
	for {
		// y = (x + n/x) / 2
		y := new(big.Int).Quo(n, x)
		y.Add(y, x)
		y.Rsh(y, 1)
		if y.Cmp(x) >= 0 {
			return x
		}
		x = y
	}
}

// --- Q64.64 ---

// ToQ64 shifts an integer into Q64.64.
func ToQ64(v *big.Int) *big.Int {
	return new(big.Int).Lsh(v, 64)
}

// FromQ64 truncates a Q64.64 value to its integer part.
func FromQ64(v *big.Int) *big.Int {
	return new(big.Int).Rsh(v, 64)
}

// Pow10 returns 10^n as *big.Int. Negative n is treated as zero.
func Pow10(n int) *big.Int {
	if n < 0 {
		n = 0
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
