package state

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"moneymarket/core/types"
	"moneymarket/native/credit"
)

// ErrInsufficientFunds is returned when a settlement transfer exceeds the
// source account balance.
var ErrInsufficientFunds = errors.New("state: insufficient funds")

// GetAccount returns the stored account, defaulting to a zero balance.
func (m *Manager) GetAccount(addr credit.Address) (*types.Account, error) {
	data, ok, err := m.get(accountKey(addr))
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.NewAccount(), nil
	}
	account := new(types.Account)
	if err := rlp.DecodeBytes(data, account); err != nil {
		return nil, err
	}
	return account.Normalize(), nil
}

// PutAccount stores the account record.
func (m *Manager) PutAccount(addr credit.Address, account *types.Account) error {
	encoded, err := rlp.EncodeToBytes(account.Normalize())
	if err != nil {
		return err
	}
	return m.put(accountKey(addr), encoded)
}

// Settlement moves value between stored accounts and the ledger vault. It
// implements the credit engine's settlement interface; hosts with an external
// token layer substitute their own implementation.
type Settlement struct {
	manager *Manager
	vault   credit.Address
}

// NewSettlement wires a settlement layer over the manager's accounts with the
// given vault address holding the ledger's custody balance.
func NewSettlement(manager *Manager, vault credit.Address) *Settlement {
	return &Settlement{manager: manager, vault: vault}
}

// Collect pulls amount from the account into the vault.
func (s *Settlement) Collect(from credit.Address, amount *big.Int) error {
	return s.transfer(from, s.vault, amount)
}

// Disburse pushes amount from the vault to the account.
func (s *Settlement) Disburse(to credit.Address, amount *big.Int) error {
	return s.transfer(s.vault, to, amount)
}

func (s *Settlement) transfer(from, to credit.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	source, err := s.manager.GetAccount(from)
	if err != nil {
		return err
	}
	if source.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	dest, err := s.manager.GetAccount(to)
	if err != nil {
		return err
	}
	source.Balance = new(big.Int).Sub(source.Balance, amount)
	dest.Balance = new(big.Int).Add(dest.Balance, amount)
	if err := s.manager.PutAccount(from, source); err != nil {
		return err
	}
	return s.manager.PutAccount(to, dest)
}
