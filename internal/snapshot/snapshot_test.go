package snapshot

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/doxx-org/doxx-app-sub000/internal/pool"
)

const (
	solMint  = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	usdtMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	cpmmID   = "58oQChx4yWmvKdwLLZzBi4ChoCc2fqCUWBkwMihLYQo2"
	clmmID   = "8sLbNZoA1cfnvMJLPfp98ZLAnFSYCFApfJKMbiXNLwxj"
)

const sample = `
pools:
  - kind: cpmm
    address: ` + cpmmID + `
    token0: {mint: ` + solMint + `, symbol: SOL, decimals: 9}
    token1: {symbol: USDC}
    vault0: "1000000000"
    vault1: "150000000"
    protocol_fees0: "1000"
    enable_creator_fee: true
    creator_fees1: "500"
    trade_fee_rate: 2500
    creator_fee_rate: 500
    creator_fee_on: token1
    lp_supply: "12000000"
  - kind: clmm
    address: ` + clmmID + `
    token0: {mint: ` + solMint + `, decimals: 9}
    token1: {mint: ` + usdcMint + `, decimals: 6}
    sqrt_price_x64: "18446744073709551616"
    tick_current: 0
    tick_spacing: 60
    liquidity: "1500000000000"
    fee_rate: 2500
    ticks:
      - {index: -600, liquidity_net: "1500000000000"}
      - {index: 600, liquidity_net: "-1500000000000"}
`

type registry map[string]pool.Token

func (r registry) Lookup(symbol string) (pool.Token, bool) {
	t, ok := r[symbol]
	return t, ok
}

var testTokens = registry{
	"USDC": {Mint: solana.MustPublicKeyFromBase58(usdcMint), Decimals: 6, Symbol: "USDC"},
	"SOL":  {Mint: solana.MustPublicKeyFromBase58(solMint), Decimals: 9, Symbol: "SOL"},
}

func TestDecode(t *testing.T) {
	pools, err := Decode(strings.NewReader(sample), testTokens)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pools) != 2 {
		t.Fatalf("got %d pools, want 2", len(pools))
	}

	cp, ok := pools[0].(*pool.ConstantProduct)
	if !ok {
		t.Fatalf("got %T, want *pool.ConstantProduct", pools[0])
	}
	if cp.Token1.Symbol != "USDC" || cp.Token1.Decimals != 6 {
		t.Errorf("token1 resolved to %+v", cp.Token1)
	}
	if cp.Fees.CreatorFeeOn != pool.CreatorFeeOnlyToken1 || !cp.EnableCreatorFee {
		t.Errorf("got fee config %+v", cp.Fees)
	}
	r0, r1, err := cp.Reserves()
	if err != nil {
		t.Fatalf("reserves: %v", err)
	}
	if r0.String() != "999999000" || r1.String() != "149999500" {
		t.Errorf("got reserves %s/%s, want 999999000/149999500", r0, r1)
	}

	cl, ok := pools[1].(*pool.ConcentratedLiquidity)
	if !ok {
		t.Fatalf("got %T, want *pool.ConcentratedLiquidity", pools[1])
	}
	if cl.ActiveLiquidity().String() != "1500000000000" || len(cl.Ticks) != 2 {
		t.Errorf("got liquidity %s with %d ticks", cl.ActiveLiquidity(), len(cl.Ticks))
	}
	if cl.Ticks[1].LiquidityNet.String() != "-1500000000000" {
		t.Errorf("got liquidity net %s", cl.Ticks[1].LiquidityNet)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	pools, err := Decode(strings.NewReader(sample), testTokens)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, pools); err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := Decode(&buf, nil)
	if err != nil {
		t.Fatalf("decode encoded: %v\n%s", err, buf.String())
	}

	for i := range pools {
		want, got := RecordOf(pools[i]), RecordOf(again[i])
		if want.Address != got.Address || want.Kind != got.Kind ||
			want.Vault1 != got.Vault1 || want.SqrtPriceX64 != got.SqrtPriceX64 ||
			*want.Token1.Decimals != *got.Token1.Decimals || len(want.Ticks) != len(got.Ticks) {
			t.Errorf("pool %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	base := func(body string) string {
		return "pools:\n  - kind: cpmm\n    address: " + cpmmID + "\n    token0: {mint: " + solMint + ", decimals: 9}\n    token1: {mint: " + usdcMint + ", decimals: 6}\n" + body
	}

	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"unknown kind", strings.Replace(base(""), "kind: cpmm", "kind: stable", 1), pool.ErrUnknownKind},
		{"bad vault", base("    vault0: \"12x\"\n"), ErrInvalidNumber},
		{"negative vault", base("    vault0: \"-1\"\n"), ErrInvalidNumber},
		{"bad creator side", base("    creator_fee_on: token2\n"), pool.ErrUnknownCreatorFeeSide},
		{"fees exceed vault", base("    vault0: \"10\"\n    protocol_fees0: \"11\"\n"), pool.ErrNegativeReserve},
		{"reversed mints", strings.NewReplacer(solMint, usdcMint, usdcMint, solMint).Replace(base("")), pool.ErrMintOrder},
		{"bad mint", strings.Replace(base(""), solMint, "not-a-key", 1), nil},
		{"unknown symbol", strings.Replace(base(""), "{mint: "+usdcMint+", decimals: 6}", "{symbol: BONK}", 1), ErrUnknownToken},
		{"duplicate", base("") + "  - kind: cpmm\n    address: " + cpmmID + "\n    token0: {mint: " + solMint + ", decimals: 9}\n    token1: {mint: " + usdcMint + ", decimals: 6}\n", ErrDuplicatePool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc), testTokens)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	doc := "pools:\n  - kind: cpmm\n    reserve0: \"1\"\n"
	if _, err := Decode(strings.NewReader(doc), nil); err == nil {
		t.Error("expected an error for an unknown field")
	}
}

func TestDecodeEmpty(t *testing.T) {
	pools, err := Decode(strings.NewReader(""), nil)
	if err != nil || len(pools) != 0 {
		t.Errorf("got %d pools, %v; want none", len(pools), err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewStore()
	n, err := store.ReloadFile(path, testTokens)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || store.Len() != 2 {
		t.Errorf("got %d loaded, %d stored; want 2", n, store.Len())
	}

	if _, err := store.ReloadFile(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("expected an error for a missing file")
	}
	if store.Len() != 2 {
		t.Errorf("failed reload changed the store: %d pools", store.Len())
	}
}

func TestStoreCandidates(t *testing.T) {
	pools, err := Decode(strings.NewReader(sample), testTokens)
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(pools...)
	ctx := context.Background()

	sol := solana.MustPublicKeyFromBase58(solMint)
	usdc := solana.MustPublicKeyFromBase58(usdcMint)
	usdt := solana.MustPublicKeyFromBase58(usdtMint)

	for _, pair := range [][2]solana.PublicKey{{sol, usdc}, {usdc, sol}} {
		ids, err := store.Candidates(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ids) != 2 || ids[0] != cpmmID || ids[1] != clmmID {
			t.Errorf("got %v, want [%s %s]", ids, cpmmID, clmmID)
		}
	}

	if ids, _ := store.Candidates(ctx, sol, usdt); len(ids) != 0 {
		t.Errorf("got %v for an unlisted pair", ids)
	}
	if ids, _ := store.Candidates(ctx, sol, sol); len(ids) != 0 {
		t.Errorf("got %v for the same mint twice", ids)
	}

	if !store.Remove(cpmmID) || store.Remove(cpmmID) {
		t.Error("remove should succeed exactly once")
	}
	if ids, _ := store.Candidates(ctx, sol, usdc); len(ids) != 1 || ids[0] != clmmID {
		t.Errorf("after remove got %v", ids)
	}

	if _, err := store.Snapshot(ctx, cpmmID); !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("got %v, want ErrPoolNotFound", err)
	}
	if p, err := store.Snapshot(ctx, clmmID); err != nil || p.Kind() != pool.KindConcentratedLiquidity {
		t.Errorf("got %v, %v", p, err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Snapshot(cancelled, clmmID); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestStoreListAndReplace(t *testing.T) {
	pools, err := Decode(strings.NewReader(sample), testTokens)
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(pools[1])
	store.Put(pools[0])
	store.Put(pools[0])

	list := store.List()
	if len(list) != 2 || list[0].ID() != cpmmID {
		t.Errorf("got %d pools, first %s", len(list), list[0].ID())
	}

	store.Replace(nil)
	if store.Len() != 0 {
		t.Errorf("got %d pools after replace, want 0", store.Len())
	}
}
