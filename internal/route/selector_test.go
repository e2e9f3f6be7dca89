package route

import (
	"errors"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
	"github.com/doxx-org/doxx-app-sub000/internal/quote"
)

var (
	sol  = pool.Token{Mint: solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"), Decimals: 9, Symbol: "SOL"}
	usdc = pool.Token{Mint: solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"), Decimals: 6, Symbol: "USDC"}
	usdt = pool.Token{Mint: solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"), Decimals: 6, Symbol: "USDT"}
)

func address(b byte) solana.PublicKey {
	var addr solana.PublicKey
	addr[31] = b
	return addr
}

// constantProduct is a SOL/USDC pool with 1e12 SOL and reserve1 USDC.
func constantProduct(b byte, reserve1 int64) *pool.ConstantProduct {
	return &pool.ConstantProduct{
		Address: address(b),
		Token0:  sol,
		Token1:  usdc,
		Vault0:  big.NewInt(1_000_000_000_000),
		Vault1:  big.NewInt(reserve1),
		Fees:    pool.FeeConfig{TradeFeeRate: 2500},
	}
}

// concentrated is a SOL/USDC pool at tick 0 holding 1.5e12 liquidity.
func concentrated(b byte) *pool.ConcentratedLiquidity {
	return &pool.ConcentratedLiquidity{
		Address:      address(b),
		Token0:       sol,
		Token1:       usdc,
		SqrtPriceX64: uint128.New(0, 1),
		TickSpacing:  60,
		Liquidity:    uint128.From64(1_500_000_000_000),
		Ticks: []pool.Tick{
			{Index: -1200, LiquidityNet: big.NewInt(500_000_000_000)},
			{Index: -600, LiquidityNet: big.NewInt(1_000_000_000_000)},
			{Index: 600, LiquidityNet: big.NewInt(-1_000_000_000_000)},
			{Index: 1200, LiquidityNet: big.NewInt(-500_000_000_000)},
		},
		FeeRate: 2500,
	}
}

func candidate(id string, kind pool.Kind, dir quote.Direction, out, bound int64) quote.Quote {
	return quote.Quote{
		PoolID:    id,
		Kind:      kind,
		Direction: dir,
		AmountIn:  big.NewInt(1_000),
		AmountOut: big.NewInt(out),
		Bound:     big.NewInt(bound),
	}
}

func TestSelectBestExactIn(t *testing.T) {
	tests := []struct {
		name       string
		quotes     []quote.Quote
		expectedID string
		skipped    int
	}{
		{
			name: "greatest min out wins",
			quotes: []quote.Quote{
				candidate("a", pool.KindConstantProduct, quote.ExactIn, 1_000, 990),
				candidate("b", pool.KindConcentratedLiquidity, quote.ExactIn, 1_010, 1_000),
				candidate("c", pool.KindConstantProduct, quote.ExactIn, 1_005, 995),
			},
			expectedID: "b",
		},
		{
			name: "tie goes to constant product",
			quotes: []quote.Quote{
				candidate("a", pool.KindConcentratedLiquidity, quote.ExactIn, 1_000, 990),
				candidate("b", pool.KindConstantProduct, quote.ExactIn, 1_000, 990),
			},
			expectedID: "b",
		},
		{
			name: "tie within a kind goes to lower pool id",
			quotes: []quote.Quote{
				candidate("z", pool.KindConstantProduct, quote.ExactIn, 1_000, 990),
				candidate("m", pool.KindConstantProduct, quote.ExactIn, 1_000, 990),
			},
			expectedID: "m",
		},
		{
			name: "zero output and wrong direction are skipped",
			quotes: []quote.Quote{
				candidate("a", pool.KindConstantProduct, quote.ExactIn, 0, 0),
				candidate("b", pool.KindConstantProduct, quote.ExactOut, 5_000, 5_000),
				candidate("c", pool.KindConcentratedLiquidity, quote.ExactIn, 10, 9),
			},
			expectedID: "c",
			skipped:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectBestExactIn(tt.quotes)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.PoolID != tt.expectedID {
				t.Errorf("got %s, want %s", got.PoolID, tt.expectedID)
			}
			if got.Considered != len(tt.quotes) {
				t.Errorf("considered: got %d, want %d", got.Considered, len(tt.quotes))
			}
			if got.Skipped != tt.skipped {
				t.Errorf("skipped: got %d, want %d", got.Skipped, tt.skipped)
			}
			if got.Bound.Cmp(got.Quote.Bound) != 0 {
				t.Errorf("bound: got %s, want %s", got.Bound, got.Quote.Bound)
			}
		})
	}
}

func TestSelectBestExactOut(t *testing.T) {
	quotes := []quote.Quote{
		candidate("a", pool.KindConstantProduct, quote.ExactOut, 1_000, 1_020),
		candidate("b", pool.KindConcentratedLiquidity, quote.ExactOut, 1_000, 1_010),
		candidate("c", pool.KindConcentratedLiquidity, quote.ExactOut, 1_000, 1_015),
	}

	got, err := SelectBestExactOut(quotes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PoolID != "b" {
		t.Errorf("got %s, want b", got.PoolID)
	}
	if got.Bound.Int64() != 1_010 {
		t.Errorf("max in: got %s, want 1010", got.Bound)
	}
	if got.Kind != pool.KindConcentratedLiquidity {
		t.Errorf("kind: got %s, want %s", got.Kind, pool.KindConcentratedLiquidity)
	}
}

func TestSelectIgnoresInputOrder(t *testing.T) {
	a := candidate("a", pool.KindConcentratedLiquidity, quote.ExactIn, 1_000, 990)
	b := candidate("b", pool.KindConstantProduct, quote.ExactIn, 1_000, 990)
	c := candidate("c", pool.KindConstantProduct, quote.ExactIn, 1_000, 990)

	orders := [][]quote.Quote{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	for _, quotes := range orders {
		got, err := SelectBestExactIn(quotes)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.PoolID != "b" {
			t.Errorf("order %s%s%s: got %s, want b",
				quotes[0].PoolID, quotes[1].PoolID, quotes[2].PoolID, got.PoolID)
		}
	}
}

func TestSelectNoRoute(t *testing.T) {
	tests := []struct {
		name   string
		quotes []quote.Quote
	}{
		{"no quotes", nil},
		{"only zero output", []quote.Quote{candidate("a", pool.KindConstantProduct, quote.ExactIn, 0, 0)}},
		{"only other direction", []quote.Quote{candidate("a", pool.KindConstantProduct, quote.ExactOut, 10, 11)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SelectBestExactIn(tt.quotes); !errors.Is(err, ErrNoRoute) {
				t.Errorf("got %v, want ErrNoRoute", err)
			}
		})
	}
}

func TestSelectCountsFailedPools(t *testing.T) {
	quotes := []quote.Quote{candidate("a", pool.KindConstantProduct, quote.ExactIn, 10, 9)}
	got, err := Select(quote.ExactIn, quotes, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Considered != 1 || got.Skipped != 3 {
		t.Errorf("got considered %d skipped %d, want 1 and 3", got.Considered, got.Skipped)
	}
}

func TestRequestValidate(t *testing.T) {
	valid := Request{
		InputMint:  sol.Mint,
		OutputMint: usdc.Mint,
		Amount:     big.NewInt(1_000_000),
		Slippage:   50,
	}

	tests := []struct {
		name     string
		mutate   func(r *Request)
		expected error
	}{
		{"valid", func(r *Request) {}, nil},
		{"same pair", func(r *Request) { r.OutputMint = sol.Mint }, ErrSamePair},
		{"nil amount", func(r *Request) { r.Amount = nil }, ErrInvalidAmount},
		{"zero amount", func(r *Request) { r.Amount = big.NewInt(0) }, ErrInvalidAmount},
		{"negative slippage", func(r *Request) { r.Slippage = -1 }, ErrInvalidSlippage},
		{"slippage above 100%", func(r *Request) { r.Slippage = fixedpoint.BPS(fixedpoint.BPSScale + 1) }, ErrInvalidSlippage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			if tt.expected == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expected) {
				t.Errorf("got %v, want %v", err, tt.expected)
			}
		})
	}
}

func TestQuotePool(t *testing.T) {
	exactIn := Request{InputMint: sol.Mint, OutputMint: usdc.Mint, Amount: big.NewInt(1_000_000), Slippage: 50}
	exactOut := exactIn
	exactOut.Direction = quote.ExactOut

	tests := []struct {
		name     string
		pool     pool.Pool
		req      Request
		amountIn int64
		out      int64
		bound    int64
	}{
		{"constant product exact in", constantProduct(1, 1_000_000_000_000), exactIn, 1_000_000, 997_499, 992_511},
		{"constant product exact out", constantProduct(1, 1_000_000_000_000), exactOut, 1_002_507, 1_000_000, 1_007_520},
		{"concentrated exact in", concentrated(7), exactIn, 1_000_000, 997_499, 992_511},
		{"concentrated exact out", concentrated(7), exactOut, 1_002_508, 1_000_000, 1_007_521},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuotePool(tt.pool, tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.AmountIn.Int64() != tt.amountIn {
				t.Errorf("amount in: got %s, want %d", got.AmountIn, tt.amountIn)
			}
			if got.AmountOut.Int64() != tt.out {
				t.Errorf("amount out: got %s, want %d", got.AmountOut, tt.out)
			}
			if got.Bound.Int64() != tt.bound {
				t.Errorf("bound: got %s, want %d", got.Bound, tt.bound)
			}
			if got.Direction != tt.req.Direction {
				t.Errorf("direction: got %s, want %s", got.Direction, tt.req.Direction)
			}
			if !got.InputToken.Equal(sol) || !got.OutputToken.Equal(usdc) {
				t.Errorf("tokens: got %s -> %s, want SOL -> USDC", got.InputToken, got.OutputToken)
			}
		})
	}
}

func TestQuotePoolRejects(t *testing.T) {
	foreign := Request{InputMint: usdt.Mint, OutputMint: usdc.Mint, Amount: big.NewInt(1_000), Slippage: 50}
	halfForeign := Request{InputMint: sol.Mint, OutputMint: usdt.Mint, Amount: big.NewInt(1_000), Slippage: 50}

	for _, p := range []pool.Pool{constantProduct(1, 1_000_000_000_000), concentrated(7)} {
		for _, req := range []Request{foreign, halfForeign} {
			if _, err := QuotePool(p, req); !errors.Is(err, pool.ErrInvalidInputMint) {
				t.Errorf("%s %s -> %s: got %v, want ErrInvalidInputMint", p.Kind(), req.InputMint, req.OutputMint, err)
			}
		}
	}

	if _, err := QuotePool(nil, foreign); !errors.Is(err, pool.ErrUnknownKind) {
		t.Errorf("nil pool: got %v, want ErrUnknownKind", err)
	}
}
