package state

import (
	"errors"
	"fmt"

	"moneymarket/storage"
)

// Manager persists ledger records into a key-value backend using canonical
// RLP encoding. It implements the credit engine's state interface; each
// record type lives under its own key prefix so markets, positions and
// obligations stay independently addressable.
type Manager struct {
	db storage.Database
}

// NewManager wraps the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, fmt.Errorf("state manager unavailable")
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (m *Manager) put(key, value []byte) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state manager unavailable")
	}
	return m.db.Put(key, value)
}

func (m *Manager) delete(key []byte) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state manager unavailable")
	}
	return m.db.Delete(key)
}
