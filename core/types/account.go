package types

import "math/big"

// Account records the settlement-asset balance held by an address. The credit
// module moves value between accounts exclusively through the settlement
// layer; balances are denominated in base units and stored as big integers so
// accounting never loses precision.
type Account struct {
	Balance *big.Int
	Nonce   uint64
}

// NewAccount returns an account with a zeroed balance.
func NewAccount() *Account {
	return &Account{Balance: big.NewInt(0)}
}

// Normalize populates nil balance fields so callers can mutate freely.
func (a *Account) Normalize() *Account {
	if a == nil {
		return NewAccount()
	}
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
	return a
}
