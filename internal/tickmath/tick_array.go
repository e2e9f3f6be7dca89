package tickmath

import "errors"

// DefaultTickArraySize is the number of ticks stored per on-chain tick array.
const DefaultTickArraySize int32 = 60

var (
	ErrInvalidTickSpacing   = errors.New("tick spacing must be positive")
	ErrInvalidTickArraySize = errors.New("tick array size must be positive")
)

// ClampToSpacing rounds tick to the nearest multiple of spacing inside
// [MinTick, MaxTick]. Halfway ticks round down. A tick outside the usable
// grid is pulled to the nearest in-range multiple.
func ClampToSpacing(tick, spacing int32) (int32, error) {
	if spacing <= 0 {
		return 0, ErrInvalidTickSpacing
	}

	lower := floorDiv(tick, spacing) * spacing
	rounded := lower
	if (tick-lower)*2 > spacing {
		rounded = lower + spacing
	}

	minUsable, maxUsable := UsableTickRange(spacing)
	switch {
	case rounded < minUsable:
		return minUsable, nil
	case rounded > maxUsable:
		return maxUsable, nil
	default:
		return rounded, nil
	}
}

// UsableTickRange returns the lowest and highest multiples of spacing that
// fall within [MinTick, MaxTick].
func UsableTickRange(spacing int32) (int32, int32) {
	minUsable := -floorDiv(-MinTick, spacing) * spacing
	maxUsable := floorDiv(MaxTick, spacing) * spacing
	return minUsable, maxUsable
}

// TickArrayStart returns the first tick of the tick array holding tick:
// floor(tick / (spacing*arraySize)) * (spacing*arraySize).
func TickArrayStart(tick, spacing, arraySize int32) (int32, error) {
	if spacing <= 0 {
		return 0, ErrInvalidTickSpacing
	}
	if arraySize <= 0 {
		return 0, ErrInvalidTickArraySize
	}

	ticksPerArray := spacing * arraySize
	return floorDiv(tick, ticksPerArray) * ticksPerArray, nil
}

// TickArrayOffset returns the slot of tick inside its tick array.
func TickArrayOffset(tick, spacing, arraySize int32) (int32, error) {
	start, err := TickArrayStart(tick, spacing, arraySize)
	if err != nil {
		return 0, err
	}
	return floorDiv(tick-start, spacing), nil
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
