package main

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/platform/config"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
	"github.com/doxx-org/doxx-app-sub000/internal/tickmath"
)

func newTickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tick PRICE",
		Short: "Convert a human price to a pool tick",
		Long: `Converts PRICE, in quote units per one base unit of --pair BASE-QUOTE, to the
tick of the pool holding both tokens, snaps it to --spacing and prints the
tick array that stores it.`,
		Example: "  quotesim tick 150 --pair SOL-USDC --spacing 60",
		Args:    cobra.ExactArgs(1),
		RunE:    runTick,
	}

	cmd.Flags().String("pair", "SOL-USDC", "BASE-QUOTE pair")
	cmd.Flags().Int32("spacing", 60, "pool tick spacing")

	return cmd
}

func runTick(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close(cmd.Context())

	pairName, _ := cmd.Flags().GetString("pair")
	spacing, _ := cmd.Flags().GetInt32("spacing")

	base, quoteTok, err := parseRegisteredPair(a.registry, pairName)
	if err != nil {
		return err
	}
	price, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", args[0], err)
	}

	rep, err := priceToTick(base, quoteTok, price, spacing, a.cfg.Engine.TickArraySize)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "pool:             %s/%s\n", rep.token0.Symbol, rep.token1.Symbol)
	fmt.Fprintf(out, "tick:             %d\n", rep.tick)
	fmt.Fprintf(out, "snapped tick:     %d (spacing %d)\n", rep.snapped, spacing)
	fmt.Fprintf(out, "tick array start: %d\n", rep.arrayStart)
	fmt.Fprintf(out, "sqrt price x64:   %s\n", rep.sqrtPriceX64)
	fmt.Fprintf(out, "snapped price:    %s %s per %s\n", rep.snappedPrice, quoteTok.Symbol, base.Symbol)
	return nil
}

// tickReport describes where a human price lands on a pool's tick grid.
type tickReport struct {
	token0, token1 pool.Token
	tick           int32
	snapped        int32
	arrayStart     int32
	sqrtPriceX64   *big.Int
	snappedPrice   decimal.Decimal // quote per base at the snapped tick
}

// priceToTick converts a quote-per-base price into the tick of the pool
// trading base against quote.
func priceToTick(base, quoteTok pool.Token, price decimal.Decimal, spacing, arraySize int32) (*tickReport, error) {
	quoteIsToken0 := pool.IsCanonicalOrder(quoteTok.Mint, base.Mint)

	tick, err := tickmath.TickFromHumanPrice(price, quoteTok.Decimals, base.Decimals, quoteIsToken0)
	if err != nil {
		return nil, err
	}
	snapped, err := tickmath.ClampToSpacing(tick, spacing)
	if err != nil {
		return nil, err
	}
	start, err := tickmath.TickArrayStart(snapped, spacing, arraySize)
	if err != nil {
		return nil, err
	}
	sqrtPrice, err := tickmath.SqrtPriceX64FromTick(snapped)
	if err != nil {
		return nil, err
	}

	rep := &tickReport{
		token0:       base,
		token1:       quoteTok,
		tick:         tick,
		snapped:      snapped,
		arrayStart:   start,
		sqrtPriceX64: sqrtPrice,
	}
	if quoteIsToken0 {
		rep.token0, rep.token1 = quoteTok, base
	}

	// The pool price is token1 per token0.
	poolPrice := tickmath.PriceFromSqrtPriceX64(sqrtPrice, rep.token0.Decimals, rep.token1.Decimals)
	if quoteIsToken0 {
		poolPrice.Inv(poolPrice)
	}
	rep.snappedPrice = fixedpoint.RoundSignificant(fixedpoint.RatToDecimal(poolPrice, 18), 8)
	return rep, nil
}

// parseRegisteredPair is ParsePair restricted to registered tokens, whose
// decimals are known.
func parseRegisteredPair(registry *config.Registry, pairName string) (pool.Token, pool.Token, error) {
	base, quoteTok, err := registry.ParsePair(pairName)
	if err != nil {
		return pool.Token{}, pool.Token{}, err
	}
	for _, tok := range []pool.Token{base, quoteTok} {
		if tok.Symbol == "" {
			return pool.Token{}, pool.Token{}, fmt.Errorf("mint %s is not registered; add it under tokens in the config", tok.Mint)
		}
	}
	return base, quoteTok, nil
}
