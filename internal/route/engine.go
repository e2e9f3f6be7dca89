package route

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/doxx-org/doxx-app-sub000/internal/clmm"
	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/platform/observability"
	"github.com/doxx-org/doxx-app-sub000/internal/platform/worker"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
	"github.com/doxx-org/doxx-app-sub000/internal/quote"
	"github.com/doxx-org/doxx-app-sub000/internal/tickmath"
)

// DefaultConcurrency caps in-flight pool quotes per route request.
const DefaultConcurrency = 8

// PoolSource supplies pool snapshots. Each snapshot must be internally
// consistent; the engine never mixes reads of one pool.
type PoolSource interface {
	// Candidates lists the IDs of pools trading mintA against mintB.
	Candidates(ctx context.Context, mintA, mintB solana.PublicKey) ([]string, error)
	// Snapshot returns the current state of one pool.
	Snapshot(ctx context.Context, id string) (pool.Pool, error)
}

// Engine fans a route request out over all candidate pools.
type Engine struct {
	source  PoolSource
	quoter  *PoolQuoter
	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  observability.Tracer
	limiter *semaphore.Weighted
}

// EngineConfig holds engine dependencies. Only Source is required.
type EngineConfig struct {
	Source  PoolSource
	Quoter  *PoolQuoter
	Logger  *observability.Logger
	Metrics *observability.Metrics
	Tracer  observability.Tracer

	// Concurrency bounds in-flight pool quotes; ignored when Limiter is set.
	Concurrency int
	// Limiter may be shared between engines.
	Limiter *semaphore.Weighted
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("pool source is required")
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency must be >= 0, got %d", cfg.Concurrency)
	}

	if cfg.Quoter == nil {
		cfg.Quoter = defaultQuoter
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NewNopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NewNopMetrics()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NewNoopTracer()
	}
	if cfg.Limiter == nil {
		if cfg.Concurrency == 0 {
			cfg.Concurrency = DefaultConcurrency
		}
		cfg.Limiter = semaphore.NewWeighted(int64(cfg.Concurrency))
	}

	return &Engine{
		source:  cfg.Source,
		quoter:  cfg.Quoter,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
		limiter: cfg.Limiter,
	}, nil
}

// Route quotes req against every candidate pool and returns the best
// result. A pool that fails to load or quote is logged and skipped; only
// cancellation of ctx aborts the search.
func (e *Engine) Route(ctx context.Context, req Request) (quote.RouteResult, error) {
	if err := req.Validate(); err != nil {
		return quote.RouteResult{}, err
	}

	ctx, span := e.tracer.StartSpan(ctx, "route.Route",
		attribute.String("input_mint", req.InputMint.String()),
		attribute.String("output_mint", req.OutputMint.String()),
		attribute.String("direction", req.Direction.String()),
		attribute.String("amount", req.Amount.String()),
	)
	defer span.End()

	start := time.Now()

	ids, err := e.source.Candidates(ctx, req.InputMint, req.OutputMint)
	if err != nil {
		span.NoticeError(err)
		return quote.RouteResult{}, fmt.Errorf("listing candidate pools: %w", err)
	}

	quotes := make([]*quote.Quote, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := e.limiter.Acquire(gctx, 1); err != nil {
				return err
			}
			defer e.limiter.Release(1)

			q, err := e.quotePool(gctx, id, req)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return nil
			}
			quotes[i] = &q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.NoticeError(err)
		return quote.RouteResult{}, err
	}

	candidates := make([]quote.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q != nil {
			candidates = append(candidates, *q)
		}
	}
	failed := len(ids) - len(candidates)

	result, err := Select(req.Direction, candidates, failed)
	if err != nil {
		e.metrics.RecordRoute(ctx, "")
		span.AddEvent("no_route", attribute.Int("pools", len(ids)))
		e.logger.LogWarn(ctx, "no route",
			"input_mint", req.InputMint.String(),
			"output_mint", req.OutputMint.String(),
			"pools", len(ids),
			"failed", failed,
		)
		return quote.RouteResult{}, err
	}

	e.metrics.RecordRoute(ctx, result.Kind.String())
	span.SetAttributes(
		attribute.String("pool_id", result.PoolID),
		attribute.String("kind", result.Kind.String()),
		attribute.String("bound", result.Bound.String()),
	)
	e.logger.LogInfo(ctx, "route selected",
		"pool_id", result.PoolID,
		"kind", result.Kind.String(),
		"direction", req.Direction.String(),
		"amount_in", result.Quote.AmountIn.String(),
		"amount_out", result.Quote.AmountOut.String(),
		"bound", result.Bound.String(),
		"price_impact", result.Quote.PriceImpact.String(),
		"considered", result.Considered,
		"skipped", result.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// quotePool fetches one snapshot and quotes it. Errors are logged, counted
// and recorded on the pool span before being returned.
func (e *Engine) quotePool(ctx context.Context, id string, req Request) (quote.Quote, error) {
	ctx, span := e.tracer.StartSpan(ctx, "route.quotePool", attribute.String("pool_id", id))
	defer span.End()

	start := time.Now()
	p, err := e.source.Snapshot(ctx, id)
	e.metrics.RecordSnapshotFetch(ctx, time.Since(start), err == nil)
	if err != nil {
		e.fail(ctx, span, id, "unknown", "fetch", err)
		return quote.Quote{}, err
	}
	kind := p.Kind().String()
	span.SetAttributes(attribute.String("kind", kind))

	q, err := e.quoter.Quote(p, req)
	if err != nil {
		e.fail(ctx, span, id, kind, failureReason(err), err)
		return quote.Quote{}, err
	}

	e.metrics.RecordQuote(ctx, kind, req.Direction.String(), time.Since(start))
	e.logger.LogDebug(ctx, "pool quoted",
		"pool_id", id,
		"kind", kind,
		"amount_in", q.AmountIn.String(),
		"amount_out", q.AmountOut.String(),
		"bound", q.Bound.String(),
	)
	return q, nil
}

func (e *Engine) fail(ctx context.Context, span observability.Span, id, kind, reason string, err error) {
	span.NoticeError(err)
	e.metrics.RecordQuoteFailure(ctx, kind, reason)
	e.logger.LogWarn(ctx, "pool skipped",
		"pool_id", id,
		"kind", kind,
		"reason", reason,
		"error", err.Error(),
	)
}

// failureReason maps quote errors to a low-cardinality metric label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, pool.ErrInvalidInputMint):
		return "invalid_input_mint"
	case errors.Is(err, pool.ErrPoolSwapDisabled):
		return "swap_disabled"
	case errors.Is(err, pool.ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	case errors.Is(err, fixedpoint.ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, clmm.ErrMaxStepsExceeded):
		return "max_steps"
	case errors.Is(err, pool.ErrInvalidPoolState),
		errors.Is(err, pool.ErrNegativeReserve),
		errors.Is(err, pool.ErrMintOrder),
		errors.Is(err, tickmath.ErrSqrtPriceOutOfRange),
		errors.Is(err, tickmath.ErrInvalidTickSpacing):
		return "invalid_pool_state"
	default:
		return "other"
	}
}

// BatchResult pairs a request with its outcome.
type BatchResult struct {
	Request Request
	Result  quote.RouteResult
	Err     error
}

// RouteBatch routes reqs on a pool of workers and returns results in
// request order. Each request still fans out over its pools.
func (e *Engine) RouteBatch(ctx context.Context, reqs []Request, workers int) []BatchResult {
	jobs := make([]worker.Job[quote.RouteResult], len(reqs))
	for i, req := range reqs {
		req := req
		jobs[i] = worker.Job[quote.RouteResult]{
			ID: strconv.Itoa(i),
			Execute: func(ctx context.Context) (quote.RouteResult, error) {
				return e.Route(ctx, req)
			},
		}
	}

	out := make([]BatchResult, len(reqs))
	for i, r := range worker.Run(ctx, workers, jobs) {
		out[i] = BatchResult{Request: reqs[i], Result: r.Value, Err: r.Err}
	}
	return out
}
