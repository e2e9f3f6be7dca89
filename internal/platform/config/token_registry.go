package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/doxx-org/doxx-app-sub000/internal/pool"
)

var (
	ErrUnknownToken   = errors.New("unknown token")
	ErrDuplicateToken = errors.New("token already registered")
)

// TokenInfo contains token metadata for quoting
type TokenInfo struct {
	Symbol       string // Token symbol (SOL, USDC, etc.)
	Mint         string // SPL mint address, base58
	Decimals     uint8  // Token decimals (9 for SOL, 6 for USDC, 5 for BONK)
	IsStablecoin bool   // Whether this is a stablecoin
}

// Token converts the entry to the pool model.
func (t TokenInfo) Token() (pool.Token, error) {
	mint, err := solana.PublicKeyFromBase58(t.Mint)
	if err != nil {
		return pool.Token{}, fmt.Errorf("token %s mint: %w", t.Symbol, err)
	}
	return pool.Token{Mint: mint, Decimals: t.Decimals, Symbol: t.Symbol}, nil
}

// DefaultTokens maps token symbols to well-known Solana mainnet mints.
// Wrapped SOL stands in for native SOL.
var DefaultTokens = map[string]TokenInfo{
	"SOL": {
		Symbol:   "SOL",
		Mint:     "So11111111111111111111111111111111111111112",
		Decimals: 9,
	},
	"USDC": {
		Symbol:       "USDC",
		Mint:         "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Decimals:     6,
		IsStablecoin: true,
	},
	"USDT": {
		Symbol:       "USDT",
		Mint:         "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
		Decimals:     6,
		IsStablecoin: true,
	},
	"BONK": {
		Symbol:   "BONK",
		Mint:     "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		Decimals: 5,
	},
	"JUP": {
		Symbol:   "JUP",
		Mint:     "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN",
		Decimals: 6,
	},
	"RAY": {
		Symbol:   "RAY",
		Mint:     "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R",
		Decimals: 6,
	},
}

// Registry resolves tokens by symbol or by mint. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	bySymbol map[string]TokenInfo
	byMint   map[solana.PublicKey]pool.Token
	tokens   map[string]pool.Token
}

// NewRegistry builds a registry from DefaultTokens plus extra. An extra
// entry may not reuse a symbol or mint that is already registered.
func NewRegistry(extra []TokenEntry) (*Registry, error) {
	r := &Registry{
		bySymbol: make(map[string]TokenInfo, len(DefaultTokens)+len(extra)),
		byMint:   make(map[solana.PublicKey]pool.Token, len(DefaultTokens)+len(extra)),
		tokens:   make(map[string]pool.Token, len(DefaultTokens)+len(extra)),
	}

	for _, info := range DefaultTokens {
		if err := r.add(info); err != nil {
			return nil, err
		}
	}
	for _, e := range extra {
		info := TokenInfo{
			Symbol:       strings.ToUpper(e.Symbol),
			Mint:         e.Mint,
			Decimals:     e.Decimals,
			IsStablecoin: e.Stablecoin,
		}
		if err := r.add(info); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(info TokenInfo) error {
	tok, err := info.Token()
	if err != nil {
		return err
	}
	if _, ok := r.bySymbol[info.Symbol]; ok {
		return fmt.Errorf("%s: %w", info.Symbol, ErrDuplicateToken)
	}
	if known, ok := r.byMint[tok.Mint]; ok {
		return fmt.Errorf("%s mint is already %s: %w", info.Symbol, known.Symbol, ErrDuplicateToken)
	}
	r.bySymbol[info.Symbol] = info
	r.byMint[tok.Mint] = tok
	r.tokens[info.Symbol] = tok
	return nil
}

// Lookup returns the token registered under symbol, case-insensitively.
func (r *Registry) Lookup(symbol string) (pool.Token, bool) {
	tok, ok := r.tokens[strings.ToUpper(symbol)]
	return tok, ok
}

// LookupMint returns the token registered for mint.
func (r *Registry) LookupMint(mint solana.PublicKey) (pool.Token, bool) {
	tok, ok := r.byMint[mint]
	return tok, ok
}

// Info returns the registry metadata for symbol.
func (r *Registry) Info(symbol string) (TokenInfo, bool) {
	info, ok := r.bySymbol[strings.ToUpper(symbol)]
	return info, ok
}

// Resolve accepts a symbol or a base58 mint. An unregistered mint
// resolves with zero decimals and no symbol.
func (r *Registry) Resolve(s string) (pool.Token, error) {
	if tok, ok := r.Lookup(s); ok {
		return tok, nil
	}
	mint, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return pool.Token{}, fmt.Errorf("%s: %w", s, ErrUnknownToken)
	}
	if tok, ok := r.byMint[mint]; ok {
		return tok, nil
	}
	return pool.Token{Mint: mint}, nil
}

// Symbols lists registered symbols in alphabetical order.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.bySymbol))
	for s := range r.bySymbol {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ParsePair parses a pair string like "SOL-USDC" into the input (left side)
// and output (right side) tokens. Either side may be a symbol or a mint.
//
// Example: ParsePair("SOL-USDC") returns:
//   - input:  SOL, So111...112, 9 decimals
//   - output: USDC, EPjF...Dt1v, 6 decimals
func (r *Registry) ParsePair(pairName string) (input pool.Token, output pool.Token, err error) {
	parts := strings.Split(pairName, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return pool.Token{}, pool.Token{}, fmt.Errorf("invalid pair format: %s (expected IN-OUT like SOL-USDC)", pairName)
	}

	input, err = r.Resolve(parts[0])
	if err != nil {
		return pool.Token{}, pool.Token{}, fmt.Errorf("input token: %w (known: %s)", err, strings.Join(r.Symbols(), ", "))
	}
	output, err = r.Resolve(parts[1])
	if err != nil {
		return pool.Token{}, pool.Token{}, fmt.Errorf("output token: %w (known: %s)", err, strings.Join(r.Symbols(), ", "))
	}

	if input.Mint.Equals(output.Mint) {
		return pool.Token{}, pool.Token{}, fmt.Errorf("input and output tokens must be different: %s", pairName)
	}

	return input, output, nil
}

// FormatPair renders two tokens as a pair name, preferring symbols.
// Example: SOL, USDC → "SOL-USDC"
func FormatPair(input, output pool.Token) string {
	return label(input) + "-" + label(output)
}

func label(t pool.Token) string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Mint.String()
}
