package cpmm

import (
	"errors"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
	"github.com/doxx-org/doxx-app-sub000/internal/quote"
)

var (
	usdc = pool.Token{Mint: solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"), Decimals: 6, Symbol: "USDC"}
	usdt = pool.Token{Mint: solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"), Decimals: 6, Symbol: "USDT"}
	sol  = pool.Token{Mint: solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"), Decimals: 9, Symbol: "SOL"}
)

func newPool(reserve0, reserve1 int64, fee fixedpoint.PPM) *pool.ConstantProduct {
	var addr solana.PublicKey
	addr[31] = 1
	return &pool.ConstantProduct{
		Address: addr,
		Token0:  usdc,
		Token1:  usdt,
		Vault0:  big.NewInt(reserve0),
		Vault1:  big.NewInt(reserve1),
		Fees:    pool.FeeConfig{TradeFeeRate: fee},
	}
}

func TestQuoteExactIn(t *testing.T) {
	creatorOnToken0 := func(p *pool.ConstantProduct) {
		p.EnableCreatorFee = true
		p.Fees.CreatorFeeRate = 1000
		p.Fees.CreatorFeeOn = pool.CreatorFeeOnlyToken0
	}

	tests := []struct {
		name     string
		mutate   func(p *pool.ConstantProduct)
		input    solana.PublicKey
		amountIn int64
		expected int64
	}{
		// floor(9975 * 2000000 / 1009975)
		{"token0 in", nil, usdc.Mint, 10_000, 19_752},
		{"token1 in", nil, usdt.Mint, 10_000, 4_962},
		{"creator fee on input side", creatorOnToken0, usdc.Mint, 10_000, 19_733},
		{"creator fee on other side", creatorOnToken0, usdt.Mint, 10_000, 4_962},
		{"zero input", nil, usdc.Mint, 0, 0},
		{"empty reserve", func(p *pool.ConstantProduct) { p.Vault1 = big.NewInt(0) }, usdc.Mint, 10_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPool(1_000_000, 2_000_000, 2500)
			if tt.mutate != nil {
				tt.mutate(p)
			}
			got, err := QuoteExactIn(p, tt.input, big.NewInt(tt.amountIn))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Int64() != tt.expected {
				t.Errorf("got %s, want %d", got, tt.expected)
			}
		})
	}
}

func TestQuoteExactOut(t *testing.T) {
	tests := []struct {
		name      string
		reserve0  int64
		reserve1  int64
		output    solana.PublicKey
		amountOut int64
		expected  int64
	}{
		{"small pool", 1_000, 2_000, usdt.Mint, 200, 111},
		{"reverse of exact-in scenario", 1_000_000, 2_000_000, usdt.Mint, 19_752, 9_998},
		{"half the reserve", 1_000_000, 2_000_000, usdt.Mint, 1_000_000, 1_002_506},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuoteExactOut(newPool(tt.reserve0, tt.reserve1, 2500), tt.output, big.NewInt(tt.amountOut))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Int64() != tt.expected {
				t.Errorf("got %s, want %d", got, tt.expected)
			}
		})
	}
}

func TestQuoteErrors(t *testing.T) {
	p := newPool(1_000_000, 2_000_000, 2500)

	if _, err := QuoteExactIn(p, sol.Mint, big.NewInt(1)); !errors.Is(err, pool.ErrInvalidInputMint) {
		t.Errorf("foreign mint: got %v, want ErrInvalidInputMint", err)
	}
	if _, err := QuoteExactOut(p, usdt.Mint, big.NewInt(2_000_000)); !errors.Is(err, pool.ErrInsufficientLiquidity) {
		t.Errorf("drain reserve: got %v, want ErrInsufficientLiquidity", err)
	}
	if _, err := QuoteExactOut(p, usdt.Mint, big.NewInt(3_000_000)); !errors.Is(err, pool.ErrInsufficientLiquidity) {
		t.Errorf("beyond reserve: got %v, want ErrInsufficientLiquidity", err)
	}

	full := newPool(1_000_000, 2_000_000, 1_000_000)
	if _, err := QuoteExactOut(full, usdt.Mint, big.NewInt(10)); !errors.Is(err, fixedpoint.ErrDivisionByZero) {
		t.Errorf("100%% fee: got %v, want ErrDivisionByZero", err)
	}
	if out, err := QuoteExactIn(full, usdc.Mint, big.NewInt(10_000)); err != nil || out.Sign() != 0 {
		t.Errorf("100%% fee exact-in: got %v, %v, want 0", out, err)
	}

	p.Status = pool.StatusSwapDisabled
	if _, err := QuoteExactIn(p, usdc.Mint, big.NewInt(1)); !errors.Is(err, pool.ErrPoolSwapDisabled) {
		t.Errorf("disabled: got %v, want ErrPoolSwapDisabled", err)
	}
	if _, err := QuoteExactIn(p, sol.Mint, big.NewInt(1)); !errors.Is(err, pool.ErrInvalidInputMint) {
		t.Errorf("mint is checked before status: got %v, want ErrInvalidInputMint", err)
	}
}

func TestQuoteMonotonic(t *testing.T) {
	p := newPool(1_000_000, 2_000_000, 2500)

	prevOut := big.NewInt(-1)
	for amount := int64(0); amount <= 500_000; amount += 997 {
		out, err := QuoteExactIn(p, usdc.Mint, big.NewInt(amount))
		if err != nil {
			t.Fatalf("exact-in %d: %v", amount, err)
		}
		if out.Cmp(prevOut) < 0 {
			t.Fatalf("exact-in not monotonic at %d: %s < %s", amount, out, prevOut)
		}
		prevOut = out
	}

	prevIn := big.NewInt(-1)
	for amount := int64(0); amount < 2_000_000; amount += 1_009 {
		in, err := QuoteExactOut(p, usdt.Mint, big.NewInt(amount))
		if err != nil {
			t.Fatalf("exact-out %d: %v", amount, err)
		}
		if in.Cmp(prevIn) < 0 {
			t.Fatalf("exact-out not monotonic at %d: %s < %s", amount, in, prevIn)
		}
		prevIn = in
	}
}

func TestQuoterExactIn(t *testing.T) {
	q, err := Quoter{}.ExactIn(newPool(1_000_000, 2_000_000, 2500), usdc.Mint, big.NewInt(10_000), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Kind != pool.KindConstantProduct || q.Direction != quote.ExactIn {
		t.Errorf("got kind %v direction %v", q.Kind, q.Direction)
	}
	if !q.InputToken.Equal(usdc) || !q.OutputToken.Equal(usdt) {
		t.Errorf("got %s -> %s, want USDC -> USDT", q.InputToken, q.OutputToken)
	}
	if q.AmountOut.Int64() != 19_752 || q.Fee.Int64() != 25 {
		t.Errorf("got out %s fee %s, want 19752 and 25", q.AmountOut, q.Fee)
	}
	if q.MinOut().Int64() != 19_653 {
		t.Errorf("min out: got %s, want 19653", q.MinOut())
	}
	if q.MaxIn() != nil {
		t.Errorf("exact-in quote has no max in")
	}
	if q.Price.String() != "1.9752" {
		t.Errorf("price: got %s, want 1.9752", q.Price)
	}
	// spot 20000, actual 19752: 1.24% -> 1.2
	if q.PriceImpact.String() != "1.2" {
		t.Errorf("impact: got %s, want 1.2", q.PriceImpact)
	}
}

func TestQuoterExactOut(t *testing.T) {
	q, err := Quoter{}.ExactOut(newPool(1_000_000, 2_000_000, 2500), usdt.Mint, big.NewInt(19_752), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.AmountIn.Int64() != 9_998 || q.Fee.Int64() != 24 {
		t.Errorf("got in %s fee %s, want 9998 and 24", q.AmountIn, q.Fee)
	}
	// ceil(9998 * 1.005)
	if q.MaxIn().Int64() != 10_048 {
		t.Errorf("max in: got %s, want 10048", q.MaxIn())
	}
	if q.PriceImpact.String() != "1.2" {
		t.Errorf("impact: got %s, want 1.2", q.PriceImpact)
	}
}

func TestMintLPEmptyPool(t *testing.T) {
	p := newPool(0, 0, 2500)
	got, err := MintLP(p, big.NewInt(100), big.NewInt(400))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LP.Int64() != 200 {
		t.Errorf("lp: got %s, want 200", got.LP)
	}
	if got.Amount0.Int64() != 100 || got.Amount1.Int64() != 400 {
		t.Errorf("amounts: got (%s, %s), want (100, 400)", got.Amount0, got.Amount1)
	}

	if _, err := MintLP(p, big.NewInt(0), big.NewInt(400)); !errors.Is(err, ErrZeroLP) {
		t.Errorf("got %v, want ErrZeroLP", err)
	}
}

func TestMintLPProportional(t *testing.T) {
	p := newPool(1_000, 4_000, 2500)
	p.LPSupply = big.NewInt(2_000)

	got, err := MintLP(p, big.NewInt(100), big.NewInt(1_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LP.Int64() != 200 {
		t.Errorf("lp: got %s, want 200", got.LP)
	}
	// Only the 400 token1 matching the 10% share is consumed.
	if got.Amount0.Int64() != 100 || got.Amount1.Int64() != 400 {
		t.Errorf("amounts: got (%s, %s), want (100, 400)", got.Amount0, got.Amount1)
	}

	p.Status = pool.StatusDepositDisabled
	if _, err := MintLP(p, big.NewInt(100), big.NewInt(400)); !errors.Is(err, ErrDepositDisabled) {
		t.Errorf("got %v, want ErrDepositDisabled", err)
	}
}

func TestBurnLP(t *testing.T) {
	p := newPool(1_000, 4_000, 2500)
	p.LPSupply = big.NewInt(2_000)

	got, err := BurnLP(p, big.NewInt(200))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Amount0.Int64() != 100 || got.Amount1.Int64() != 400 {
		t.Errorf("amounts: got (%s, %s), want (100, 400)", got.Amount0, got.Amount1)
	}

	if _, err := BurnLP(p, big.NewInt(2_001)); !errors.Is(err, ErrLPExceedsSupply) {
		t.Errorf("got %v, want ErrLPExceedsSupply", err)
	}
	p.Status = pool.StatusWithdrawDisabled
	if _, err := BurnLP(p, big.NewInt(1)); !errors.Is(err, ErrWithdrawDisabled) {
		t.Errorf("got %v, want ErrWithdrawDisabled", err)
	}
}
