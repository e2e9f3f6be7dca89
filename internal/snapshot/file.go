// Package snapshot reads pool snapshots from YAML files and serves them to
// the route engine.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
	"lukechampine.com/uint128"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
	"github.com/doxx-org/doxx-app-sub000/internal/pool"
)

var (
	ErrDuplicatePool = errors.New("duplicate pool address")
	ErrUnknownToken  = errors.New("token has neither a mint nor a known symbol")
	ErrInvalidNumber = errors.New("invalid integer")
)

// TokenResolver looks tokens up by symbol. It lets snapshot files name a
// registered token instead of spelling out its mint.
type TokenResolver interface {
	Lookup(symbol string) (pool.Token, bool)
}

// File is the on-disk layout. Integer amounts are decimal strings so that
// 128-bit values survive YAML.
type File struct {
	Pools []PoolRecord `yaml:"pools"`
}

// TokenRecord names a token by mint or by registry symbol.
type TokenRecord struct {
	Mint     string `yaml:"mint,omitempty"`
	Symbol   string `yaml:"symbol,omitempty"`
	Decimals *uint8 `yaml:"decimals,omitempty"`
}

// TickRecord is one initialized tick.
type TickRecord struct {
	Index        int32  `yaml:"index"`
	LiquidityNet string `yaml:"liquidity_net"`
}

// PoolRecord is one pool of either kind. Fields of the other kind are
// ignored.
type PoolRecord struct {
	Kind    string      `yaml:"kind"`
	Address string      `yaml:"address"`
	Token0  TokenRecord `yaml:"token0"`
	Token1  TokenRecord `yaml:"token1"`
	Status  uint8       `yaml:"status,omitempty"`

	Vault0           string `yaml:"vault0,omitempty"`
	Vault1           string `yaml:"vault1,omitempty"`
	ProtocolFees0    string `yaml:"protocol_fees0,omitempty"`
	ProtocolFees1    string `yaml:"protocol_fees1,omitempty"`
	FundFees0        string `yaml:"fund_fees0,omitempty"`
	FundFees1        string `yaml:"fund_fees1,omitempty"`
	CreatorFees0     string `yaml:"creator_fees0,omitempty"`
	CreatorFees1     string `yaml:"creator_fees1,omitempty"`
	EnableCreatorFee bool   `yaml:"enable_creator_fee,omitempty"`
	TradeFeeRate     uint32 `yaml:"trade_fee_rate,omitempty"`
	CreatorFeeRate   uint32 `yaml:"creator_fee_rate,omitempty"`
	CreatorFeeOn     string `yaml:"creator_fee_on,omitempty"`
	LPSupply         string `yaml:"lp_supply,omitempty"`

	SqrtPriceX64 string       `yaml:"sqrt_price_x64,omitempty"`
	TickCurrent  int32        `yaml:"tick_current,omitempty"`
	TickSpacing  int32        `yaml:"tick_spacing,omitempty"`
	Liquidity    string       `yaml:"liquidity,omitempty"`
	FeeRate      uint32       `yaml:"fee_rate,omitempty"`
	Ticks        []TickRecord `yaml:"ticks,omitempty"`
}

// LoadFile reads and validates a snapshot file.
func LoadFile(path string, tokens TokenResolver) ([]pool.Pool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	pools, err := Decode(f, tokens)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pools, nil
}

// Decode parses a snapshot document. Every pool is validated and addresses
// must be unique. tokens may be nil.
func Decode(r io.Reader, tokens TokenResolver) ([]pool.Pool, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	seen := make(map[string]bool, len(file.Pools))
	pools := make([]pool.Pool, 0, len(file.Pools))
	for i, rec := range file.Pools {
		p, err := rec.Pool(tokens)
		if err != nil {
			return nil, fmt.Errorf("pool %d (%s): %w", i, rec.Address, err)
		}
		if seen[p.ID()] {
			return nil, fmt.Errorf("pool %d: %s: %w", i, p.ID(), ErrDuplicatePool)
		}
		seen[p.ID()] = true
		pools = append(pools, p)
	}
	return pools, nil
}

// Encode writes pools as a snapshot document.
func Encode(w io.Writer, pools []pool.Pool) error {
	file := File{Pools: make([]PoolRecord, 0, len(pools))}
	for _, p := range pools {
		file.Pools = append(file.Pools, RecordOf(p))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return enc.Close()
}

// Pool converts the record into a validated pool.
func (r PoolRecord) Pool(tokens TokenResolver) (pool.Pool, error) {
	kind, err := pool.ParseKind(r.Kind)
	if err != nil {
		return nil, err
	}
	address, err := solana.PublicKeyFromBase58(r.Address)
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	token0, err := r.Token0.token(tokens)
	if err != nil {
		return nil, fmt.Errorf("token0: %w", err)
	}
	token1, err := r.Token1.token(tokens)
	if err != nil {
		return nil, fmt.Errorf("token1: %w", err)
	}

	switch kind {
	case pool.KindConstantProduct:
		return r.constantProduct(address, token0, token1)
	default:
		return r.concentrated(address, token0, token1)
	}
}

func (r PoolRecord) constantProduct(address solana.PublicKey, token0, token1 pool.Token) (*pool.ConstantProduct, error) {
	side, err := pool.ParseCreatorFeeSide(r.CreatorFeeOn)
	if err != nil {
		return nil, err
	}

	p := &pool.ConstantProduct{
		Address:          address,
		Token0:           token0,
		Token1:           token1,
		EnableCreatorFee: r.EnableCreatorFee,
		Status:           r.Status,
		Fees: pool.FeeConfig{
			TradeFeeRate:   fixedpoint.PPM(r.TradeFeeRate),
			CreatorFeeRate: fixedpoint.PPM(r.CreatorFeeRate),
			CreatorFeeOn:   side,
		},
	}

	fields := []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"vault0", r.Vault0, &p.Vault0},
		{"vault1", r.Vault1, &p.Vault1},
		{"protocol_fees0", r.ProtocolFees0, &p.ProtocolFees0},
		{"protocol_fees1", r.ProtocolFees1, &p.ProtocolFees1},
		{"fund_fees0", r.FundFees0, &p.FundFees0},
		{"fund_fees1", r.FundFees1, &p.FundFees1},
		{"creator_fees0", r.CreatorFees0, &p.CreatorFees0},
		{"creator_fees1", r.CreatorFees1, &p.CreatorFees1},
		{"lp_supply", r.LPSupply, &p.LPSupply},
	}
	for _, f := range fields {
		v, err := parseUnsigned(f.raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (r PoolRecord) concentrated(address solana.PublicKey, token0, token1 pool.Token) (*pool.ConcentratedLiquidity, error) {
	sqrtPrice, err := uint128.FromString(r.SqrtPriceX64)
	if err != nil {
		return nil, fmt.Errorf("sqrt_price_x64 %q: %w", r.SqrtPriceX64, ErrInvalidNumber)
	}
	liq, err := uint128.FromString(orZeroString(r.Liquidity))
	if err != nil {
		return nil, fmt.Errorf("liquidity %q: %w", r.Liquidity, ErrInvalidNumber)
	}

	ticks := make([]pool.Tick, 0, len(r.Ticks))
	for _, t := range r.Ticks {
		net, ok := new(big.Int).SetString(t.LiquidityNet, 10)
		if !ok {
			return nil, fmt.Errorf("tick %d liquidity_net %q: %w", t.Index, t.LiquidityNet, ErrInvalidNumber)
		}
		ticks = append(ticks, pool.Tick{Index: t.Index, LiquidityNet: net})
	}

	p := &pool.ConcentratedLiquidity{
		Address:      address,
		Token0:       token0,
		Token1:       token1,
		SqrtPriceX64: sqrtPrice,
		TickCurrent:  r.TickCurrent,
		TickSpacing:  r.TickSpacing,
		Liquidity:    liq,
		Ticks:        ticks,
		FeeRate:      fixedpoint.PPM(r.FeeRate),
		Status:       r.Status,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// RecordOf converts a pool back into its file form.
func RecordOf(p pool.Pool) PoolRecord {
	switch p := p.(type) {
	case *pool.ConstantProduct:
		return PoolRecord{
			Kind:             p.Kind().String(),
			Address:          p.Address.String(),
			Token0:           recordOfToken(p.Token0),
			Token1:           recordOfToken(p.Token1),
			Status:           p.Status,
			Vault0:           intString(p.Vault0),
			Vault1:           intString(p.Vault1),
			ProtocolFees0:    intString(p.ProtocolFees0),
			ProtocolFees1:    intString(p.ProtocolFees1),
			FundFees0:        intString(p.FundFees0),
			FundFees1:        intString(p.FundFees1),
			CreatorFees0:     intString(p.CreatorFees0),
			CreatorFees1:     intString(p.CreatorFees1),
			EnableCreatorFee: p.EnableCreatorFee,
			TradeFeeRate:     uint32(p.Fees.TradeFeeRate),
			CreatorFeeRate:   uint32(p.Fees.CreatorFeeRate),
			CreatorFeeOn:     p.Fees.CreatorFeeOn.String(),
			LPSupply:         intString(p.LPSupply),
		}
	case *pool.ConcentratedLiquidity:
		ticks := make([]TickRecord, 0, len(p.Ticks))
		for _, t := range p.Ticks {
			ticks = append(ticks, TickRecord{Index: t.Index, LiquidityNet: t.LiquidityNet.String()})
		}
		return PoolRecord{
			Kind:         p.Kind().String(),
			Address:      p.Address.String(),
			Token0:       recordOfToken(p.Token0),
			Token1:       recordOfToken(p.Token1),
			Status:       p.Status,
			SqrtPriceX64: p.SqrtPriceX64.String(),
			TickCurrent:  p.TickCurrent,
			TickSpacing:  p.TickSpacing,
			Liquidity:    p.Liquidity.String(),
			FeeRate:      uint32(p.FeeRate),
			Ticks:        ticks,
		}
	default:
		return PoolRecord{}
	}
}

func (t TokenRecord) token(tokens TokenResolver) (pool.Token, error) {
	var tok pool.Token
	switch {
	case t.Mint != "":
		mint, err := solana.PublicKeyFromBase58(t.Mint)
		if err != nil {
			return pool.Token{}, fmt.Errorf("mint: %w", err)
		}
		tok = pool.Token{Mint: mint, Symbol: t.Symbol}
		if tokens != nil && t.Symbol != "" && t.Decimals == nil {
			if known, ok := tokens.Lookup(t.Symbol); ok && known.Mint.Equals(mint) {
				tok.Decimals = known.Decimals
			}
		}
	case t.Symbol != "" && tokens != nil:
		known, ok := tokens.Lookup(t.Symbol)
		if !ok {
			return pool.Token{}, fmt.Errorf("%s: %w", t.Symbol, ErrUnknownToken)
		}
		tok = known
	default:
		return pool.Token{}, ErrUnknownToken
	}

	if t.Decimals != nil {
		tok.Decimals = *t.Decimals
	}
	return tok, nil
}

func recordOfToken(t pool.Token) TokenRecord {
	decimals := t.Decimals
	return TokenRecord{Mint: t.Mint.String(), Symbol: t.Symbol, Decimals: &decimals}
}

func parseUnsigned(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(orZeroString(s), 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%q: %w", s, ErrInvalidNumber)
	}
	return v, nil
}

func orZeroString(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func intString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
