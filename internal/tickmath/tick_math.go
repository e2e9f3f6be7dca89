// Package tickmath converts between tick indices and Q64.64 square-root
// prices, and addresses ticks on the spacing grid and in tick arrays.
package tickmath

import (
	"errors"
	"math/big"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
)

// Tick bounds of the concentrated-liquidity program.
const (
	MinTick int32 = -443636
	MaxTick int32 = 443636
)

var (
	ErrTickOutOfRange      = errors.New("tick out of range")
	ErrSqrtPriceOutOfRange = errors.New("sqrt price out of range")
)

// Precomputed sqrt(1.0001^-(2^i)) in Q64.64 for i = 1..18. Bit 0 is
// handled separately since its starting value doubles as the accumulator.
var (
	sqrtRatioBit0 = mustParseBigInt("18445821805675395072")

	sqrtRatioFactors = [...]*big.Int{
		mustParseBigInt("18444899583751176192"), // 0x2
		mustParseBigInt("18443055278223355904"), // 0x4
		mustParseBigInt("18439367220385607680"), // 0x8
		mustParseBigInt("18431993317065453568"), // 0x10
		mustParseBigInt("18417254355718170624"), // 0x20
		mustParseBigInt("18387811781193609216"), // 0x40
		mustParseBigInt("18329067761203558400"), // 0x80
		mustParseBigInt("18212142134806163456"), // 0x100
		mustParseBigInt("17980523815641700352"), // 0x200
		mustParseBigInt("17526086738831433728"), // 0x400
		mustParseBigInt("16651378430235570176"), // 0x800
		mustParseBigInt("15030750278694412288"), // 0x1000
		mustParseBigInt("12247334978884435968"), // 0x2000
		mustParseBigInt("8131365268886854656"),  // 0x4000
		mustParseBigInt("3584323654725218816"),  // 0x8000
		mustParseBigInt("696457651848324352"),   // 0x10000
		mustParseBigInt("26294789957507116"),    // 0x20000
		mustParseBigInt("37481735321082"),       // 0x40000
	}

	// MinSqrtPriceX64 is the sqrt price at MinTick.
	MinSqrtPriceX64 = mustSqrtPrice(MinTick)

	// MaxSqrtPriceX64 is the sqrt price at MaxTick.
	MaxSqrtPriceX64 = mustSqrtPrice(MaxTick)
)

// mustParseBigInt parses a decimal string to big.Int, panics on error
func mustParseBigInt(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("tickmath: invalid constant " + s)
	}
	return n
}

func mustSqrtPrice(tick int32) *big.Int {
	p, err := SqrtPriceX64FromTick(tick)
	if err != nil {
		panic(err)
	}
	return p
}

// SqrtPriceX64FromTick returns sqrt(1.0001^tick) * 2^64.
//
// The ratio is accumulated for |tick| from the per-bit factors (each a
// Q64.64 multiply) and inverted for positive ticks.
func SqrtPriceX64FromTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfRange
	}

	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	var ratio *big.Int
	if absTick&0x1 != 0 {
		ratio = new(big.Int).Set(sqrtRatioBit0)
	} else {
		ratio = new(big.Int).Set(fixedpoint.Q64)
	}

	for i, factor := range sqrtRatioFactors {
		if absTick&(int32(1)<<(i+1)) != 0 {
			ratio = mulShift(ratio, factor)
		}
	}

	if tick > 0 {
		ratio = new(big.Int).Quo(fixedpoint.MaxUint128, ratio)
	}

	return ratio, nil
}

// TickFromSqrtPriceX64 returns the greatest tick whose sqrt price does not
// exceed sqrtPriceX64, i.e. floor(log(price) / log(1.0001)). It always
// satisfies SqrtPriceX64FromTick(TickFromSqrtPriceX64(p)) <= p.
func TickFromSqrtPriceX64(sqrtPriceX64 *big.Int) (int32, error) {
	if sqrtPriceX64 == nil || sqrtPriceX64.Cmp(MinSqrtPriceX64) < 0 || sqrtPriceX64.Cmp(MaxSqrtPriceX64) > 0 {
		return 0, ErrSqrtPriceOutOfRange
	}

	// Binary search over the monotonic tick -> sqrt price mapping.
	left, right := MinTick, MaxTick
	for left < right {
		mid := left + (right-left+1)/2
		sqrtRatio, _ := SqrtPriceX64FromTick(mid)
		if sqrtRatio.Cmp(sqrtPriceX64) <= 0 {
			left = mid
		} else {
			right = mid - 1
		}
	}

	return left, nil
}

// mulShift multiplies two Q64.64 values and shifts the product back by 64.
func mulShift(a, b *big.Int) *big.Int {
	result := new(big.Int).Mul(a, b)
	return result.Rsh(result, 64)
}
