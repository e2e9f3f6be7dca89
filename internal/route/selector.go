package route

import (
	"errors"

	"github.com/doxx-org/doxx-app-sub000/internal/quote"
)

// ErrNoRoute is returned when no candidate quote qualifies.
var ErrNoRoute = errors.New("no pool can fill the request")

// SelectBestExactIn picks the exact-in quote with the greatest minimum
// output. Quotes in the other direction or with no output do not qualify.
func SelectBestExactIn(quotes []quote.Quote) (quote.RouteResult, error) {
	return selectBest(quotes, quote.ExactIn, 0)
}

// SelectBestExactOut picks the exact-out quote with the smallest maximum
// input.
func SelectBestExactOut(quotes []quote.Quote) (quote.RouteResult, error) {
	return selectBest(quotes, quote.ExactOut, 0)
}

// Select picks the best quote for dir. failed counts pools that produced
// no quote at all and is reported as skipped.
func Select(dir quote.Direction, quotes []quote.Quote, failed int) (quote.RouteResult, error) {
	return selectBest(quotes, dir, failed)
}

func selectBest(quotes []quote.Quote, dir quote.Direction, failed int) (quote.RouteResult, error) {
	best := -1
	skipped := failed
	for i := range quotes {
		if !qualifies(quotes[i], dir) {
			skipped++
			continue
		}
		if best < 0 || better(quotes[i], quotes[best]) {
			best = i
		}
	}
	if best < 0 {
		return quote.RouteResult{}, ErrNoRoute
	}
	return quote.NewRouteResult(quotes[best], len(quotes), skipped), nil
}

func qualifies(q quote.Quote, dir quote.Direction) bool {
	return q.Direction == dir && q.Bound != nil &&
		q.AmountOut != nil && q.AmountOut.Sign() > 0
}

// better reports whether a beats b: better bound first, then pool kind
// priority, then pool ID, so the order never depends on input order.
func better(a, b quote.Quote) bool {
	if c := a.Bound.Cmp(b.Bound); c != 0 {
		if a.Direction == quote.ExactOut {
			return c < 0
		}
		return c > 0
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.PoolID < b.PoolID
}
