package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"moneymarket/native/credit"
	"moneymarket/storage"
)

func testAddress(suffix byte) credit.Address {
	var addr credit.Address
	addr[len(addr)-1] = suffix
	return addr
}

func TestMarketRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	missing, err := manager.GetMarket("main")
	require.NoError(t, err)
	require.Nil(t, missing)

	market := &credit.Market{
		TotalSupplyAssets: big.NewInt(1_000_000),
		TotalSupplyShares: big.NewInt(999_000),
		TotalBorrowAssets: big.NewInt(250_000),
		TotalBorrowShares: big.NewInt(249_000),
		TotalMarkdown:     big.NewInt(1_234),
		LastAccrualTime:   1_700_000_000,
		CreditAuthority:   testAddress(0xAA),
	}
	require.NoError(t, manager.PutMarket("main", market))

	loaded, err := manager.GetMarket("main")
	require.NoError(t, err)
	require.Equal(t, market.TotalSupplyAssets, loaded.TotalSupplyAssets)
	require.Equal(t, market.TotalBorrowShares, loaded.TotalBorrowShares)
	require.Equal(t, market.TotalMarkdown, loaded.TotalMarkdown)
	require.Equal(t, market.LastAccrualTime, loaded.LastAccrualTime)
	require.Equal(t, market.CreditAuthority, loaded.CreditAuthority)

	// Stored records decode into fresh structs: mutating a loaded copy must
	// not leak back into the store.
	loaded.TotalSupplyAssets.SetInt64(0)
	reloaded, err := manager.GetMarket("main")
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), reloaded.TotalSupplyAssets.Int64())
}

func TestPositionAndObligationLifecycle(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	borrower := testAddress(0x01)

	position := &credit.Position{
		Borrower:        borrower,
		BorrowShares:    big.NewInt(42_000),
		PremiumRateBps:  200,
		CreditLimit:     big.NewInt(100_000),
		LastAccrualTime: 1_700_000_500,
	}
	require.NoError(t, manager.PutPosition("main", position))

	loaded, err := manager.GetPosition("main", borrower)
	require.NoError(t, err)
	require.Equal(t, position.BorrowShares, loaded.BorrowShares)
	require.Equal(t, position.PremiumRateBps, loaded.PremiumRateBps)

	ob := &credit.Obligation{
		DueDate:       1_700_100_000,
		AmountDue:     big.NewInt(1_000),
		EndingBalance: big.NewInt(10_000),
	}
	require.NoError(t, manager.PutObligation("main", borrower, ob))

	open, err := manager.GetObligation("main", borrower)
	require.NoError(t, err)
	require.Equal(t, ob.AmountDue, open.AmountDue)
	require.Equal(t, ob.DueDate, open.DueDate)

	require.NoError(t, manager.DeleteObligation("main", borrower))
	cleared, err := manager.GetObligation("main", borrower)
	require.NoError(t, err)
	require.Nil(t, cleared)

	require.NoError(t, manager.DeletePosition("main", borrower))
	gone, err := manager.GetPosition("main", borrower)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestCyclesAppendOnly(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	cycles, err := manager.GetCycles("main")
	require.NoError(t, err)
	require.Empty(t, cycles)

	require.NoError(t, manager.PutCycles("main", []uint64{100, 200, 300}))
	cycles, err = manager.GetCycles("main")
	require.NoError(t, err)
	require.Equal(t, []uint64{100, 200, 300}, cycles)
}

func TestMarkdownRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	borrower := testAddress(0x02)

	md, err := manager.GetMarkdown("main", borrower)
	require.NoError(t, err)
	require.Nil(t, md)

	require.NoError(t, manager.PutMarkdown("main", borrower, big.NewInt(5_000)))
	md, err = manager.GetMarkdown("main", borrower)
	require.NoError(t, err)
	require.Equal(t, int64(5_000), md.Int64())

	require.Error(t, manager.PutMarkdown("main", borrower, big.NewInt(-1)))

	require.NoError(t, manager.DeleteMarkdown("main", borrower))
	md, err = manager.GetMarkdown("main", borrower)
	require.NoError(t, err)
	require.Nil(t, md)
}

func TestMarketIDRequired(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	_, err := manager.GetMarket("  ")
	require.Error(t, err)
	require.Error(t, manager.PutCycles("", nil))
}

func TestSettlementTransfers(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	vault := testAddress(0xFF)
	alice := testAddress(0x0A)

	account, err := manager.GetAccount(alice)
	require.NoError(t, err)
	account.Balance = big.NewInt(1_000)
	require.NoError(t, manager.PutAccount(alice, account))

	settlement := NewSettlement(manager, vault)

	require.NoError(t, settlement.Collect(alice, big.NewInt(400)))
	account, err = manager.GetAccount(alice)
	require.NoError(t, err)
	require.Equal(t, int64(600), account.Balance.Int64())
	vaultAcc, err := manager.GetAccount(vault)
	require.NoError(t, err)
	require.Equal(t, int64(400), vaultAcc.Balance.Int64())

	require.ErrorIs(t, settlement.Collect(alice, big.NewInt(601)), ErrInsufficientFunds)

	require.NoError(t, settlement.Disburse(alice, big.NewInt(150)))
	account, err = manager.GetAccount(alice)
	require.NoError(t, err)
	require.Equal(t, int64(750), account.Balance.Int64())

	require.ErrorIs(t, settlement.Disburse(alice, big.NewInt(10_000)), ErrInsufficientFunds)
}
