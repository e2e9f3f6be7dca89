package pool

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
)

var (
	ErrNegativeAmount = errors.New("token amount must not be negative")
	ErrTokenMismatch  = errors.New("token amounts are for different mints")
)

// Token identifies an SPL mint and its decimal exponent.
type Token struct {
	Mint     solana.PublicKey
	Decimals uint8
	Symbol   string // display only
}

// Equal compares mints. Decimals and symbol are metadata.
func (t Token) Equal(o Token) bool {
	return t.Mint.Equals(o.Mint)
}

// String returns the symbol, or the mint when no symbol is known.
func (t Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Mint.String()
}

// TokenAmount is a non-negative quantity of one token in its smallest unit.
// The zero value is not usable; build amounts with NewTokenAmount.
type TokenAmount struct {
	token  Token
	amount *big.Int
}

// NewTokenAmount copies amount into a TokenAmount.
func NewTokenAmount(token Token, amount *big.Int) (TokenAmount, error) {
	if amount == nil || amount.Sign() < 0 {
		return TokenAmount{}, ErrNegativeAmount
	}
	return TokenAmount{token: token, amount: new(big.Int).Set(amount)}, nil
}

// ParseTokenAmount parses a human decimal string such as "1.25" into the
// token's smallest unit. Malformed strings are rejected.
func ParseTokenAmount(token Token, s string) (TokenAmount, error) {
	raw, err := fixedpoint.ParseDecimalStrict(s, token.Decimals)
	if err != nil {
		return TokenAmount{}, fmt.Errorf("parse %s amount: %w", token, err)
	}
	return TokenAmount{token: token, amount: raw}, nil
}

// Token returns the amount's token.
func (a TokenAmount) Token() Token { return a.token }

// Raw returns a copy of the integer amount.
func (a TokenAmount) Raw() *big.Int {
	if a.amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.amount)
}

// Add returns a + b. Both must be amounts of the same mint.
func (a TokenAmount) Add(b TokenAmount) (TokenAmount, error) {
	if !a.token.Equal(b.token) {
		return TokenAmount{}, fmt.Errorf("%s + %s: %w", a.token, b.token, ErrTokenMismatch)
	}
	return TokenAmount{token: a.token, amount: new(big.Int).Add(a.Raw(), b.Raw())}, nil
}

// Sub returns a - b. The result may not go below zero.
func (a TokenAmount) Sub(b TokenAmount) (TokenAmount, error) {
	if !a.token.Equal(b.token) {
		return TokenAmount{}, fmt.Errorf("%s - %s: %w", a.token, b.token, ErrTokenMismatch)
	}
	diff := new(big.Int).Sub(a.Raw(), b.Raw())
	if diff.Sign() < 0 {
		return TokenAmount{}, ErrNegativeAmount
	}
	return TokenAmount{token: a.token, amount: diff}, nil
}

// Cmp compares two amounts of the same mint.
func (a TokenAmount) Cmp(b TokenAmount) (int, error) {
	if !a.token.Equal(b.token) {
		return 0, ErrTokenMismatch
	}
	return a.Raw().Cmp(b.Raw()), nil
}

// Decimal returns the human-scaled value.
func (a TokenAmount) Decimal() decimal.Decimal {
	return fixedpoint.ToDecimal(a.Raw(), a.token.Decimals)
}

// String formats the amount as "1.5 SOL".
func (a TokenAmount) String() string {
	return fmt.Sprintf("%s %s", fixedpoint.FormatFixed(a.Raw(), a.token.Decimals), a.token)
}
