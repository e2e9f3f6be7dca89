package pool

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// Constant-product status bits. A set bit disables the operation.
const (
	StatusDepositDisabled  uint8 = 1 << 0
	StatusWithdrawDisabled uint8 = 1 << 1
	StatusSwapDisabled     uint8 = 1 << 2
)

// ConstantProduct is a snapshot of an x*y=k pool.
type ConstantProduct struct {
	Address solana.PublicKey
	Token0  Token
	Token1  Token

	// Vault balances, including fees not yet withdrawn.
	Vault0 *big.Int
	Vault1 *big.Int

	// Accrued fee counters. They sit in the vaults but are not tradable.
	ProtocolFees0 *big.Int
	ProtocolFees1 *big.Int
	FundFees0     *big.Int
	FundFees1     *big.Int
	CreatorFees0  *big.Int
	CreatorFees1  *big.Int

	EnableCreatorFee bool
	Status           uint8
	Fees             FeeConfig
	LPSupply         *big.Int
}

func (*ConstantProduct) isPool() {}

// ID returns the pool address.
func (p *ConstantProduct) ID() string { return p.Address.String() }

// Kind returns KindConstantProduct.
func (p *ConstantProduct) Kind() Kind { return KindConstantProduct }

// Tokens returns token0 and token1.
func (p *ConstantProduct) Tokens() (Token, Token) { return p.Token0, p.Token1 }

// SwapDisabled reports whether the swap status bit is set.
func (p *ConstantProduct) SwapDisabled() bool { return p.Status&StatusSwapDisabled != 0 }

// DepositDisabled reports whether the deposit status bit is set.
func (p *ConstantProduct) DepositDisabled() bool { return p.Status&StatusDepositDisabled != 0 }

// WithdrawDisabled reports whether the withdraw status bit is set.
func (p *ConstantProduct) WithdrawDisabled() bool { return p.Status&StatusWithdrawDisabled != 0 }

// Reserves returns the tradable balances:
//
//	reserve = vault - protocol fees - fund fees - (creator fees if enabled)
func (p *ConstantProduct) Reserves() (*big.Int, *big.Int, error) {
	reserve0 := p.reserve(p.Vault0, p.ProtocolFees0, p.FundFees0, p.CreatorFees0)
	reserve1 := p.reserve(p.Vault1, p.ProtocolFees1, p.FundFees1, p.CreatorFees1)
	if reserve0.Sign() < 0 || reserve1.Sign() < 0 {
		return nil, nil, fmt.Errorf("pool %s (%s, %s): %w", p.ID(), reserve0, reserve1, ErrNegativeReserve)
	}
	return reserve0, reserve1, nil
}

func (p *ConstantProduct) reserve(vault, protocol, fund, creator *big.Int) *big.Int {
	r := new(big.Int).Set(orZero(vault))
	r.Sub(r, orZero(protocol))
	r.Sub(r, orZero(fund))
	if p.EnableCreatorFee {
		r.Sub(r, orZero(creator))
	}
	return r
}

// Supply returns the LP supply, zero when unset.
func (p *ConstantProduct) Supply() *big.Int {
	return new(big.Int).Set(orZero(p.LPSupply))
}

// Validate checks mint order and non-negative balances.
func (p *ConstantProduct) Validate() error {
	if !IsCanonicalOrder(p.Token0.Mint, p.Token1.Mint) {
		return fmt.Errorf("pool %s: %w", p.ID(), ErrMintOrder)
	}
	balances := []struct {
		name string
		v    *big.Int
	}{
		{"vault0", p.Vault0},
		{"vault1", p.Vault1},
		{"lp_supply", p.LPSupply},
	}
	for _, b := range balances {
		if b.v != nil && b.v.Sign() < 0 {
			return fmt.Errorf("pool %s: negative %s: %w", p.ID(), b.name, ErrInvalidPoolState)
		}
	}
	if _, _, err := p.Reserves(); err != nil {
		return err
	}
	return nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
