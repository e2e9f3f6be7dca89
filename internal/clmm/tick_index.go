package clmm

import (
	"sort"

	"github.com/doxx-org/doxx-app-sub000/internal/pool"
	"github.com/doxx-org/doxx-app-sub000/internal/tickmath"
)

// tickIndex groups a pool's initialized ticks by tick array, the unit the
// on-chain program loads them in. Only arrays holding at least one
// initialized tick are kept.
type tickIndex struct {
	spacing   int32
	arraySize int32
	starts    []int32 // ascending
	arrays    map[int32][]pool.Tick
}

func newTickIndex(ticks []pool.Tick, spacing, arraySize int32) (*tickIndex, error) {
	ix := &tickIndex{
		spacing:   spacing,
		arraySize: arraySize,
		arrays:    make(map[int32][]pool.Tick),
	}
	for _, t := range ticks {
		start, err := tickmath.TickArrayStart(t.Index, spacing, arraySize)
		if err != nil {
			return nil, err
		}
		if _, ok := ix.arrays[start]; !ok {
			ix.starts = append(ix.starts, start)
		}
		ix.arrays[start] = append(ix.arrays[start], t)
	}
	// Input ticks are ascending, so starts and each array already are.
	return ix, nil
}

// next returns the next initialized tick a swap meets from tick, and the
// start of the array holding it. Moving down (zeroForOne) it is the
// greatest index <= tick; moving up it is the least index > tick.
func (ix *tickIndex) next(tick int32, zeroForOne bool) (pool.Tick, int32, bool) {
	start, err := tickmath.TickArrayStart(tick, ix.spacing, ix.arraySize)
	if err != nil {
		return pool.Tick{}, 0, false
	}

	if zeroForOne {
		j := sort.Search(len(ix.starts), func(i int) bool { return ix.starts[i] > start }) - 1
		for ; j >= 0; j-- {
			arr := ix.arrays[ix.starts[j]]
			k := sort.Search(len(arr), func(i int) bool { return arr[i].Index > tick }) - 1
			if k >= 0 {
				return arr[k], ix.starts[j], true
			}
		}
		return pool.Tick{}, 0, false
	}

	j := sort.Search(len(ix.starts), func(i int) bool { return ix.starts[i] >= start })
	for ; j < len(ix.starts); j++ {
		arr := ix.arrays[ix.starts[j]]
		k := sort.Search(len(arr), func(i int) bool { return arr[i].Index > tick })
		if k < len(arr) {
			return arr[k], ix.starts[j], true
		}
	}
	return pool.Tick{}, 0, false
}
