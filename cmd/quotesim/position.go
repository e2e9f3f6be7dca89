package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/liquidity"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
	"github.com/doxx-org/doxx-app-sub000/internal/tickmath"
)

func newPositionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Size a concentrated-liquidity deposit",
		Long: `Sizes a deposit into a price range from the most of each token you are
willing to spend. Prices are quote units per one base unit of --pair.`,
		Example: "  quotesim position --pair SOL-USDC --price 150 --lower 120 --upper 180 --base 2 --quote 300",
		Args:    cobra.NoArgs,
		RunE:    runPosition,
	}

	cmd.Flags().String("pair", "SOL-USDC", "BASE-QUOTE pair")
	cmd.Flags().Int32("spacing", 60, "pool tick spacing")
	cmd.Flags().String("price", "", "current price")
	cmd.Flags().String("lower", "", "lower bound price")
	cmd.Flags().String("upper", "", "upper bound price")
	cmd.Flags().String("base", "0", "most base token to deposit")
	cmd.Flags().String("quote", "0", "most quote token to deposit")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("lower")
	_ = cmd.MarkFlagRequired("upper")

	return cmd
}

// positionRequest is a deposit in human units.
type positionRequest struct {
	base, quote        pool.Token
	price              decimal.Decimal
	lower, upper       decimal.Decimal
	maxBase, maxQuote  string
	spacing, arraySize int32
}

// positionPlan is a sized deposit on the pool's canonical token order.
type positionPlan struct {
	token0, token1       pool.Token
	tickLower, tickUpper int32
	plan                 *liquidity.DepositPlan
}

func runPosition(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close(cmd.Context())

	pairName, _ := cmd.Flags().GetString("pair")
	base, quoteTok, err := parseRegisteredPair(a.registry, pairName)
	if err != nil {
		return err
	}

	req := positionRequest{base: base, quote: quoteTok, arraySize: a.cfg.Engine.TickArraySize}
	req.spacing, _ = cmd.Flags().GetInt32("spacing")
	req.maxBase, _ = cmd.Flags().GetString("base")
	req.maxQuote, _ = cmd.Flags().GetString("quote")
	for flag, dst := range map[string]*decimal.Decimal{"price": &req.price, "lower": &req.lower, "upper": &req.upper} {
		s, _ := cmd.Flags().GetString(flag)
		if *dst, err = decimal.NewFromString(s); err != nil {
			return fmt.Errorf("invalid --%s %q: %w", flag, s, err)
		}
	}

	res, err := sizePosition(req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "pool:      %s/%s\n", res.token0.Symbol, res.token1.Symbol)
	fmt.Fprintf(out, "range:     [%d, %d]\n", res.tickLower, res.tickUpper)
	fmt.Fprintf(out, "liquidity: %s\n", res.plan.Liquidity)
	fmt.Fprintf(out, "deposit:   %s %s + %s %s\n",
		fixedpoint.FormatFixed(res.plan.Amount0, res.token0.Decimals), res.token0.Symbol,
		fixedpoint.FormatFixed(res.plan.Amount1, res.token1.Decimals), res.token1.Symbol)
	fmt.Fprintf(out, "anchor:    %s\n", res.plan.Anchor)
	return nil
}

// sizePosition maps the request onto the canonical pool and sizes it.
func sizePosition(req positionRequest) (*positionPlan, error) {
	lower, err := priceToTick(req.base, req.quote, req.lower, req.spacing, req.arraySize)
	if err != nil {
		return nil, fmt.Errorf("lower price: %w", err)
	}
	upper, err := priceToTick(req.base, req.quote, req.upper, req.spacing, req.arraySize)
	if err != nil {
		return nil, fmt.Errorf("upper price: %w", err)
	}

	// When quote is token0 a higher human price is a lower pool price.
	tickLower, tickUpper := lower.snapped, upper.snapped
	if tickLower > tickUpper {
		tickLower, tickUpper = tickUpper, tickLower
	}
	if tickLower == tickUpper {
		return nil, fmt.Errorf("range [%s, %s] snaps to a single tick %d: %w",
			req.lower, req.upper, tickLower, liquidity.ErrInvalidTickRange)
	}

	token0, token1 := lower.token0, lower.token1
	baseIsToken0 := token0.Mint.Equals(req.base.Mint)

	// The pool price is token1 per token0.
	poolPrice := req.price
	if !baseIsToken0 {
		if !req.price.IsPositive() {
			return nil, tickmath.ErrInvalidPrice
		}
		poolPrice = decimal.NewFromInt(1).DivRound(req.price, 36)
	}
	sqrtPrice, err := tickmath.SqrtPriceX64FromHumanPrice(poolPrice, token0.Decimals, token1.Decimals)
	if err != nil {
		return nil, err
	}

	maxBase, err := pool.ParseTokenAmount(req.base, zeroIfEmpty(req.maxBase))
	if err != nil {
		return nil, err
	}
	maxQuote, err := pool.ParseTokenAmount(req.quote, zeroIfEmpty(req.maxQuote))
	if err != nil {
		return nil, err
	}
	max0, max1 := maxBase.Raw(), maxQuote.Raw()
	if !baseIsToken0 {
		max0, max1 = max1, max0
	}

	plan, err := liquidity.SizeDeposit(max0, max1, tickLower, tickUpper, sqrtPrice)
	if err != nil {
		return nil, err
	}

	return &positionPlan{
		token0:    token0,
		token1:    token1,
		tickLower: tickLower,
		tickUpper: tickUpper,
		plan:      plan,
	}, nil
}

// zeroIfEmpty keeps flag defaults parseable.
func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
