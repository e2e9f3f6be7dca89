package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doxx-org/doxx-app-sub000/internal/clmm"
	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/platform/config"
	"github.com/doxx-org/doxx-app-sub000/internal/platform/resilience"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
	"github.com/doxx-org/doxx-app-sub000/internal/quote"
	"github.com/doxx-org/doxx-app-sub000/internal/route"
	"github.com/doxx-org/doxx-app-sub000/internal/snapshot"
)

func newRouteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route PAIR AMOUNT [PAIR AMOUNT...]",
		Short: "Find the best pool for one or more swaps",
		Long: `Quotes each swap against every snapshot pool for the pair and prints the
winner. PAIR is IN-OUT, e.g. SOL-USDC; either side may be a mint. AMOUNT is
in human units of the input token, or of the output token with --exact-out.`,
		Example: "  quotesim route SOL-USDC 1.5\n  quotesim route --exact-out USDC-SOL 2 SOL-USDT 0.25",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected PAIR AMOUNT pairs, got %d args", len(args))
			}
			return nil
		},
		RunE: runRoute,
	}

	cmd.Flags().Bool("exact-out", false, "treat AMOUNT as the output wanted")
	cmd.Flags().Int("slippage-bps", -1, "slippage tolerance in bps (default from config)")
	cmd.Flags().String("snapshot", "", "pool snapshot file (default from config)")

	return cmd
}

func runRoute(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.close(ctx)

	path, _ := cmd.Flags().GetString("snapshot")
	if path == "" {
		path = a.cfg.Snapshot.Path
	}
	store := snapshot.NewStore()
	n, err := store.ReloadFile(path, a.registry)
	if err != nil {
		return err
	}
	a.logger.LogInfo(ctx, "snapshot loaded", "path", path, "pools", n)

	exactOut, _ := cmd.Flags().GetBool("exact-out")
	slippage := a.cfg.Engine.DefaultSlippage()
	if bps, _ := cmd.Flags().GetInt("slippage-bps"); bps >= 0 {
		slippage = fixedpoint.BPS(bps)
	}

	reqs, err := buildRequests(a.registry, store, args, exactOut, slippage)
	if err != nil {
		return err
	}

	source := route.NewGuardedSource(store, guardConfig(a))
	defer source.Close()

	engine, err := route.NewEngine(route.EngineConfig{
		Source: source,
		Quoter: route.NewPoolQuoter(clmm.TickWalker{
			MaxSteps:      a.cfg.Engine.MaxSteps,
			TickArraySize: a.cfg.Engine.TickArraySize,
		}),
		Logger:      a.logger.WithFields("component", "route"),
		Metrics:     a.metrics,
		Tracer:      a.tracing.Tracer(),
		Concurrency: a.cfg.Engine.Concurrency,
	})
	if err != nil {
		return err
	}

	var results []route.BatchResult
	if len(reqs) == 1 {
		res, err := engine.Route(ctx, reqs[0])
		results = []route.BatchResult{{Request: reqs[0], Result: res, Err: err}}
	} else {
		results = engine.RouteBatch(ctx, reqs, a.cfg.Engine.BatchWorkers)
	}

	printResults(cmd.OutOrStdout(), results)
	if open := source.OpenBreakers(); len(open) > 0 {
		a.logger.LogWarn(ctx, "pools cut off by breaker", "pools", open)
	}

	if n := countFailed(results); n > 0 {
		return fmt.Errorf("%d of %d requests failed", n, len(results))
	}
	return nil
}

// buildRequests turns PAIR AMOUNT argument pairs into route requests.
func buildRequests(registry *config.Registry, store *snapshot.Store, args []string, exactOut bool, slippage fixedpoint.BPS) ([]route.Request, error) {
	dir := quote.ExactIn
	if exactOut {
		dir = quote.ExactOut
	}

	reqs := make([]route.Request, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		input, output, err := registry.ParsePair(args[i])
		if err != nil {
			return nil, err
		}
		input, output = withPoolDecimals(store, input), withPoolDecimals(store, output)

		amountToken := input
		if exactOut {
			amountToken = output
		}
		amount, err := pool.ParseTokenAmount(amountToken, args[i+1])
		if err != nil {
			return nil, err
		}

		reqs = append(reqs, route.Request{
			InputMint:  input.Mint,
			OutputMint: output.Mint,
			Amount:     amount.Raw(),
			Direction:  dir,
			Slippage:   slippage,
		})
	}
	return reqs, nil
}

// withPoolDecimals fills an unregistered mint's metadata from the first
// snapshot pool that holds it.
func withPoolDecimals(store *snapshot.Store, tok pool.Token) pool.Token {
	if tok.Symbol != "" {
		return tok
	}
	for _, p := range store.List() {
		if found, err := pool.Find(p, tok.Mint); err == nil {
			return found
		}
	}
	return tok
}

func printResults(w io.Writer, results []route.BatchResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "DIRECTION\tIN\tOUT\tBOUND\tIMPACT\tPOOL\tKIND\tQUOTED\tSKIPPED")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\terror: %v\t\t\t\t\t\n",
				r.Request.Direction, r.Request.InputMint.Short(4), r.Request.OutputMint.Short(4), r.Err)
			continue
		}

		q := r.Result.Quote
		boundToken := q.OutputToken
		if q.Direction == quote.ExactOut {
			boundToken = q.InputToken
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s %s\t%s %s\t%s%%\t%s\t%s\t%d\t%d\n",
			q.Direction,
			fixedpoint.FormatFixed(q.AmountIn, q.InputToken.Decimals), q.InputToken,
			fixedpoint.FormatFixed(q.AmountOut, q.OutputToken.Decimals), q.OutputToken,
			fixedpoint.FormatFixed(r.Result.Bound, boundToken.Decimals), boundToken,
			q.PriceImpact,
			r.Result.PoolID,
			r.Result.Kind,
			r.Result.Considered,
			r.Result.Skipped,
		)
	}
}

func countFailed(results []route.BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// guardConfig maps snapshot settings onto the source guard. Unknown pools
// are never retried.
func guardConfig(a *app) route.GuardConfig {
	c := a.cfg.Snapshot
	return route.GuardConfig{
		Retry: resilience.RetryConfig{
			MaxAttempts: c.RetryAttempts,
			BaseDelay:   c.RetryBaseDelay,
			MaxDelay:    c.RetryMaxDelay,
			Jitter:      0.1,
		},
		Breaker: resilience.CircuitBreakerConfig{
			FailureThreshold: c.BreakerFailures,
			Timeout:          c.BreakerTimeout,
		},
		RateLimit: c.RateLimit,
		Burst:     c.RateBurst,
		StaleTTL:  c.StaleTTL,
		CacheSize: c.StaleCacheSize,
		Permanent: func(err error) bool { return errors.Is(err, snapshot.ErrPoolNotFound) },
		Logger:    a.logger,
		Metrics:   a.metrics,
	}
}
