package state

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"

	"moneymarket/native/credit"
)

// GetMarket returns the stored market, or nil when none exists.
func (m *Manager) GetMarket(marketID string) (*credit.Market, error) {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return nil, err
	}
	data, ok, err := m.get(marketKey(marketID))
	if err != nil || !ok {
		return nil, err
	}
	market := new(credit.Market)
	if err := rlp.DecodeBytes(data, market); err != nil {
		return nil, err
	}
	return market.Normalize(), nil
}

// PutMarket stores the market record.
func (m *Manager) PutMarket(marketID string, market *credit.Market) error {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return err
	}
	if market == nil {
		return fmt.Errorf("state: nil market")
	}
	encoded, err := rlp.EncodeToBytes(market.Normalize())
	if err != nil {
		return err
	}
	return m.put(marketKey(marketID), encoded)
}

// GetPosition returns the borrower's position, or nil when none exists.
func (m *Manager) GetPosition(marketID string, borrower credit.Address) (*credit.Position, error) {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return nil, err
	}
	data, ok, err := m.get(borrowerKey(creditPositionPrefix, marketID, borrower))
	if err != nil || !ok {
		return nil, err
	}
	position := new(credit.Position)
	if err := rlp.DecodeBytes(data, position); err != nil {
		return nil, err
	}
	return position.Normalize(), nil
}

// PutPosition stores the position under its borrower key.
func (m *Manager) PutPosition(marketID string, position *credit.Position) error {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return err
	}
	if position == nil {
		return fmt.Errorf("state: nil position")
	}
	encoded, err := rlp.EncodeToBytes(position.Normalize())
	if err != nil {
		return err
	}
	return m.put(borrowerKey(creditPositionPrefix, marketID, position.Borrower), encoded)
}

// DeletePosition removes the borrower's position record.
func (m *Manager) DeletePosition(marketID string, borrower credit.Address) error {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return err
	}
	return m.delete(borrowerKey(creditPositionPrefix, marketID, borrower))
}

// GetCycles returns the append-only list of cycle-end timestamps.
func (m *Manager) GetCycles(marketID string) ([]uint64, error) {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return nil, err
	}
	data, ok, err := m.get(cyclesKey(marketID))
	if err != nil || !ok {
		return nil, err
	}
	var cycles []uint64
	if err := rlp.DecodeBytes(data, &cycles); err != nil {
		return nil, err
	}
	return cycles, nil
}

// PutCycles overwrites the cycle list. Callers only ever append.
func (m *Manager) PutCycles(marketID string, cycleEnds []uint64) error {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(cycleEnds)
	if err != nil {
		return err
	}
	return m.put(cyclesKey(marketID), encoded)
}

// GetObligation returns the borrower's open obligation, or nil.
func (m *Manager) GetObligation(marketID string, borrower credit.Address) (*credit.Obligation, error) {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return nil, err
	}
	data, ok, err := m.get(borrowerKey(creditObligationPrefix, marketID, borrower))
	if err != nil || !ok {
		return nil, err
	}
	ob := new(credit.Obligation)
	if err := rlp.DecodeBytes(data, ob); err != nil {
		return nil, err
	}
	return ob, nil
}

// PutObligation stores the obligation posted against the borrower.
func (m *Manager) PutObligation(marketID string, borrower credit.Address, ob *credit.Obligation) error {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return err
	}
	if ob == nil {
		return fmt.Errorf("state: nil obligation")
	}
	encoded, err := rlp.EncodeToBytes(ob)
	if err != nil {
		return err
	}
	return m.put(borrowerKey(creditObligationPrefix, marketID, borrower), encoded)
}

// DeleteObligation clears the borrower's obligation on full payment.
func (m *Manager) DeleteObligation(marketID string, borrower credit.Address) error {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return err
	}
	return m.delete(borrowerKey(creditObligationPrefix, marketID, borrower))
}

// GetMarkdown returns the provision recorded against the borrower, or nil.
func (m *Manager) GetMarkdown(marketID string, borrower credit.Address) (*big.Int, error) {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return nil, err
	}
	data, ok, err := m.get(borrowerKey(creditMarkdownPrefix, marketID, borrower))
	if err != nil || !ok {
		return nil, err
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(data, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// PutMarkdown stores the provision amount for the borrower.
func (m *Manager) PutMarkdown(marketID string, borrower credit.Address, amount *big.Int) error {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: markdown amount must be non-negative")
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return m.put(borrowerKey(creditMarkdownPrefix, marketID, borrower), encoded)
}

// DeleteMarkdown removes the borrower's provision record.
func (m *Manager) DeleteMarkdown(marketID string, borrower credit.Address) error {
	marketID, err := normalizeMarketID(marketID)
	if err != nil {
		return err
	}
	return m.delete(borrowerKey(creditMarkdownPrefix, marketID, borrower))
}

func normalizeMarketID(marketID string) (string, error) {
	marketID = strings.TrimSpace(marketID)
	if marketID == "" {
		return "", fmt.Errorf("state: market identifier required")
	}
	return marketID, nil
}
