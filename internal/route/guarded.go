package route

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/doxx-org/doxx-app-sub000/internal/platform/cache"
	"github.com/doxx-org/doxx-app-sub000/internal/platform/observability"
	"github.com/doxx-org/doxx-app-sub000/internal/platform/resilience"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
)

// GuardConfig configures a GuardedSource. Zero values disable the
// corresponding guard, except Retry which then makes a single attempt.
type GuardConfig struct {
	Retry   resilience.RetryConfig
	Breaker resilience.CircuitBreakerConfig

	// RateLimit caps snapshot fetches per second across all pools.
	RateLimit float64
	Burst     int

	// StaleTTL is how long a fetched snapshot may stand in for a failed
	// fetch of the same pool.
	StaleTTL  time.Duration
	CacheSize int

	// Permanent reports errors that are neither retried nor covered by a
	// cached snapshot, such as an unknown pool.
	Permanent func(error) bool

	Logger  *observability.Logger
	Metrics *observability.Metrics

	// Now overrides the clock in tests.
	Now func() time.Time
}

// GuardedSource wraps a PoolSource with retries, a circuit breaker per
// pool, a fetch rate limit and a last-good snapshot fallback.
type GuardedSource struct {
	source    PoolSource
	retry     resilience.RetryConfig
	breakers  *resilience.Breakers
	limiter   *resilience.RateLimiter
	stale     cache.Cache[pool.Pool]
	staleTTL  time.Duration
	permanent func(error) bool
	logger    *observability.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

var _ PoolSource = (*GuardedSource)(nil)

// NewGuardedSource wraps source.
func NewGuardedSource(source PoolSource, cfg GuardConfig) *GuardedSource {
	if cfg.Logger == nil {
		cfg.Logger = observability.NewNopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NewNopMetrics()
	}
	if cfg.Permanent == nil {
		cfg.Permanent = func(error) bool { return false }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	g := &GuardedSource{
		source:    source,
		retry:     cfg.Retry,
		staleTTL:  cfg.StaleTTL,
		permanent: cfg.Permanent,
		logger:    cfg.Logger.WithFields("component", "guarded_source"),
		metrics:   cfg.Metrics,
		now:       cfg.Now,
	}

	breaker := cfg.Breaker
	breaker.Now = cfg.Now
	onChange := breaker.OnStateChange
	breaker.OnStateChange = func(name string, from, to resilience.State) {
		g.metrics.RecordBreakerChange(context.Background(), to.String())
		g.logger.LogWarn(context.Background(), "pool breaker changed state",
			"pool_id", name,
			"from", from.String(),
			"to", to.String(),
		)
		if onChange != nil {
			onChange(name, from, to)
		}
	}
	g.breakers = resilience.NewBreakers(breaker)

	if cfg.RateLimit > 0 {
		g.limiter = resilience.NewRateLimiter(cfg.RateLimit, cfg.Burst)
	}
	if cfg.StaleTTL > 0 {
		g.stale = cache.NewMemory[pool.Pool](cfg.CacheSize, cache.WithClock(cfg.Now))
	}

	return g
}

// Candidates lists pools from the wrapped source, retrying transient
// failures.
func (g *GuardedSource) Candidates(ctx context.Context, mintA, mintB solana.PublicKey) ([]string, error) {
	return resilience.Retry(ctx, g.retry, g.retryable, func(ctx context.Context) ([]string, error) {
		return g.source.Candidates(ctx, mintA, mintB)
	})
}

// Snapshot fetches one pool. When every attempt fails it falls back to the
// last snapshot fetched for the pool within StaleTTL.
func (g *GuardedSource) Snapshot(ctx context.Context, id string) (pool.Pool, error) {
	p, err := resilience.Retry(ctx, g.retry, g.retryable, func(ctx context.Context) (pool.Pool, error) {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return resilience.Call(ctx, g.breakers.Get(id), func(ctx context.Context) (pool.Pool, error) {
			return g.source.Snapshot(ctx, id)
		})
	})
	if err == nil {
		if g.stale != nil {
			g.stale.Set(id, p, g.staleTTL)
		}
		return p, nil
	}

	if g.stale == nil || ctx.Err() != nil || g.permanent(err) {
		return nil, err
	}
	cached, storedAt, cacheErr := g.stale.Get(id)
	if cacheErr != nil {
		return nil, err
	}

	reason := "fetch_error"
	if errors.Is(err, resilience.ErrCircuitOpen) {
		reason = "circuit_open"
	}
	g.metrics.RecordStaleSnapshot(ctx, reason)
	g.logger.LogWarn(ctx, "serving cached snapshot",
		"pool_id", id,
		"reason", reason,
		"age_ms", g.now().Sub(storedAt).Milliseconds(),
		"error", err.Error(),
	)
	return cached, nil
}

// OpenBreakers lists pools currently cut off by their breaker.
func (g *GuardedSource) OpenBreakers() []string {
	return g.breakers.Open()
}

// Close releases the snapshot cache.
func (g *GuardedSource) Close() error {
	if g.stale != nil {
		return g.stale.Close()
	}
	return nil
}

func (g *GuardedSource) retryable(err error) bool {
	return resilience.IsRetryable(err) &&
		!errors.Is(err, resilience.ErrRateLimitExceeded) &&
		!g.permanent(err)
}
