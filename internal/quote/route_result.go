package quote

import (
	"math/big"

	"github.com/doxx-org/doxx-app-sub000/internal/pool"
)

// RouteResult is the winning quote of a route search.
type RouteResult struct {
	Quote Quote

	// Bound repeats Quote.Bound: minOut for exact-in, maxIn for exact-out.
	Bound  *big.Int
	Kind   pool.Kind
	PoolID string

	// Considered counts candidate quotes; Skipped counts pools that failed
	// or produced no usable quote.
	Considered int
	Skipped    int
}

// NewRouteResult wraps the winning quote.
func NewRouteResult(q Quote, considered, skipped int) RouteResult {
	return RouteResult{
		Quote:      q,
		Bound:      new(big.Int).Set(q.Bound),
		Kind:       q.Kind,
		PoolID:     q.PoolID,
		Considered: considered,
		Skipped:    skipped,
	}
}
