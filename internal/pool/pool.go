// Package pool holds the immutable pool snapshots the quoters read: token
// metadata, fee configuration and the two supported AMM designs.
//
// Pool is a closed set. Only *ConstantProduct and *ConcentratedLiquidity
// implement it, so a type switch over those two cases is exhaustive.
package pool

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrInvalidInputMint      = errors.New("mint does not belong to pool")
	ErrPoolSwapDisabled      = errors.New("pool swaps are disabled")
	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")
	ErrNegativeReserve       = errors.New("pool reserve is negative")
	ErrMintOrder             = errors.New("pool mints are not in canonical order")
	ErrInvalidPoolState      = errors.New("invalid pool state")
	ErrUnknownKind           = errors.New("unknown pool kind")
)

// Kind discriminates the pool variants. The numeric order is the route
// tie-break priority: lower kinds win ties.
type Kind int

const (
	KindConstantProduct Kind = iota
	KindConcentratedLiquidity
)

// String returns the short kind name used in config, logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindConstantProduct:
		return "cpmm"
	case KindConcentratedLiquidity:
		return "clmm"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "cpmm":
		return KindConstantProduct, nil
	case "clmm":
		return KindConcentratedLiquidity, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrUnknownKind)
	}
}

// Pool is a snapshot of one on-chain pool.
type Pool interface {
	// ID returns the pool address in base58.
	ID() string
	Kind() Kind
	// Tokens returns token0 and token1 in canonical order.
	Tokens() (Token, Token)
	SwapDisabled() bool

	isPool()
}

// Side reports whether mint is the pool's token0. ErrInvalidInputMint is
// returned when mint is neither pool token.
func Side(p Pool, mint solana.PublicKey) (bool, error) {
	token0, token1 := p.Tokens()
	switch {
	case mint.Equals(token0.Mint):
		return true, nil
	case mint.Equals(token1.Mint):
		return false, nil
	default:
		return false, fmt.Errorf("%s not in pool %s: %w", mint, p.ID(), ErrInvalidInputMint)
	}
}

// Other returns the pool token that is not mint.
func Other(p Pool, mint solana.PublicKey) (Token, error) {
	isToken0, err := Side(p, mint)
	if err != nil {
		return Token{}, err
	}
	token0, token1 := p.Tokens()
	if isToken0 {
		return token1, nil
	}
	return token0, nil
}

// Find returns the pool token with the given mint.
func Find(p Pool, mint solana.PublicKey) (Token, error) {
	isToken0, err := Side(p, mint)
	if err != nil {
		return Token{}, err
	}
	token0, token1 := p.Tokens()
	if isToken0 {
		return token0, nil
	}
	return token1, nil
}

// SortMints returns a and b ordered by their raw key bytes, the order pools
// store their mints in.
func SortMints(a, b solana.PublicKey) (solana.PublicKey, solana.PublicKey) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

// IsCanonicalOrder reports whether mint0 sorts strictly before mint1.
func IsCanonicalOrder(mint0, mint1 solana.PublicKey) bool {
	return bytes.Compare(mint0[:], mint1[:]) < 0
}
