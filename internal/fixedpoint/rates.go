package fixedpoint

import (
	"fmt"
	"math/big"
)

// Scale factors for rate types.
const (
	PPMScale int64 = 1_000_000 // parts per million: 100% = 1_000_000
	BPSScale int64 = 10_000    // basis points: 100% = 10_000
)

var (
	ppmDenominator = big.NewInt(PPMScale)
	bpsDenominator = big.NewInt(BPSScale)
)

// PPM is a fee rate in parts per million.
type PPM int64

// BPS is a tolerance in basis points (1 bps = 0.01%).
type BPS int64

// --- PPM ---

// Clamp bounds the rate to [0, 100%].
func (p PPM) Clamp() PPM {
	switch {
	case p < 0:
		return 0
	case p > PPM(PPMScale):
		return PPM(PPMScale)
	default:
		return p
	}
}

// Add returns p + q clamped to [0, 100%].
func (p PPM) Add(q PPM) PPM {
	return (p + q).Clamp()
}

// IsFull reports whether the rate takes the whole amount.
func (p PPM) IsFull() bool {
	return p.Clamp() == PPM(PPMScale)
}

// String returns the rate as a percentage, e.g. "0.25%".
func (p PPM) String() string {
	return fmt.Sprintf("%s%%", ToDecimal(big.NewInt(int64(p)), 4).String())
}

// --- BPS ---

// Clamp bounds the tolerance to [0, 100%].
func (b BPS) Clamp() BPS {
	switch {
	case b < 0:
		return 0
	case b > BPS(BPSScale):
		return BPS(BPSScale)
	default:
		return b
	}
}

// Valid reports whether b is inside [0, 10000].
func (b BPS) Valid() bool {
	return b >= 0 && b <= BPS(BPSScale)
}

// String returns the tolerance as a percentage, e.g. "0.5%".
func (b BPS) String() string {
	return fmt.Sprintf("%s%%", ToDecimal(big.NewInt(int64(b)), 2).String())
}

// --- Fee and slippage application ---

// ApplyFeePpm returns floor(amount * (1e6 - ppm) / 1e6). The rate is
// clamped to [0, 1e6] first, so the result never exceeds amount.
func ApplyFeePpm(amount *big.Int, ppm PPM) *big.Int {
	keep := big.NewInt(PPMScale - int64(ppm.Clamp()))
	out, _ := MulDivFloor(amount, keep, ppmDenominator)
	return out
}

// FeeFromPpm returns ceil(amount * ppm / 1e6), the portion ApplyFeePpm
// removes.
func FeeFromPpm(amount *big.Int, ppm PPM) *big.Int {
	return new(big.Int).Sub(amount, ApplyFeePpm(amount, ppm))
}

// ApplySlippageFloor returns the minimum acceptable output for an exact-in
// quote: floor(amount * (10000 - bps) / 10000).
func ApplySlippageFloor(amount *big.Int, bps BPS) *big.Int {
	keep := big.NewInt(BPSScale - int64(bps.Clamp()))
	out, _ := MulDivFloor(amount, keep, bpsDenominator)
	return out
}

// ApplySlippageCeil returns the maximum acceptable input for an exact-out
// quote: ceil(amount * (10000 + bps) / 10000).
func ApplySlippageCeil(amount *big.Int, bps BPS) *big.Int {
	grow := big.NewInt(BPSScale + int64(bps.Clamp()))
	out, _ := MulDivCeil(amount, grow, bpsDenominator)
	return out
}
