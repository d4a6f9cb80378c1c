package credit

import (
	"math/big"
	"testing"
)

// Walks a borrower through a full delinquency arc: a 10,000 draw at a 10%
// base rate with a 2% premium, a cycle obligation due immediately, and eight
// days of silence. With a weekly grace window the borrower is one day
// delinquent, so the 5% penalty has accrued for exactly one day.
func TestDelinquencyScenario(t *testing.T) {
	cfg := testConfig()
	engine, _, _, clock := newTestEngine(t, cfg, 1000, 1_000_000)
	bootMarket(t, engine, 100_000, 50_000, 200)

	control, _, _, controlClock := newTestEngine(t, cfg, 1000, 1_000_000)
	bootMarket(t, control, 100_000, 50_000, 200)

	if err := engine.Borrow(borrower, testMarket, big.NewInt(10_000)); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if err := control.Borrow(borrower, testMarket, big.NewInt(10_000)); err != nil {
		t.Fatalf("control borrow: %v", err)
	}

	dueDate := clock.now
	closeCycle(t, engine, dueDate, 10_000)

	ob, err := engine.ObligationOf(testMarket, borrower)
	if err != nil {
		t.Fatalf("obligation: %v", err)
	}
	if ob.AmountDue.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("amount due %s, want 1000", ob.AmountDue)
	}

	// Status follows the clock without any state transition being recorded.
	checkpoints := []struct {
		offset uint64
		want   RepaymentStatus
	}{
		{0, StatusGracePeriod},
		{3 * day, StatusGracePeriod},
		{week - 1, StatusGracePeriod},
		{week, StatusDelinquent},
		{8 * day, StatusDelinquent},
		{week + 30*day, StatusDefault},
	}
	for _, cp := range checkpoints {
		status, err := engine.StatusOf(testMarket, borrower, dueDate+cp.offset)
		if err != nil {
			t.Fatalf("status at +%d: %v", cp.offset, err)
		}
		if status != cp.want {
			t.Fatalf("status at +%d = %s, want %s", cp.offset, status, cp.want)
		}
	}

	// Eight days out: base plus premium for eight days, penalty for one.
	clock.advance(8 * day)
	controlClock.advance(8 * day)
	accrueAt(t, engine, clock.now)
	if err := control.Accrue(testMarket, borrower, controlClock.now); err != nil {
		t.Fatalf("control accrue: %v", err)
	}

	debt := debtOf(t, engine, borrower)
	if debt.Cmp(big.NewInt(10_020)) < 0 || debt.Cmp(big.NewInt(10_035)) > 0 {
		t.Fatalf("delinquent debt %s outside expected band", debt)
	}
	controlDebt := debtOf(t, control, borrower)
	if debt.Cmp(controlDebt) <= 0 {
		t.Fatalf("penalty missing: delinquent %s vs obligation-free %s", debt, controlDebt)
	}

	// Settling the obligation plus accrued interest exits delinquency.
	repaid, err := engine.Repay(borrower, testMarket, debt)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if repaid.Cmp(debt) != 0 {
		t.Fatalf("repaid %s, want %s", repaid, debt)
	}
	status, err := engine.StatusOf(testMarket, borrower, clock.now)
	if err != nil {
		t.Fatalf("status after cure: %v", err)
	}
	if status != StatusCurrent {
		t.Fatalf("expected current after full repayment, got %s", status)
	}
	if remaining := debtOf(t, engine, borrower); remaining.Sign() != 0 {
		t.Fatalf("expected zero debt after full repayment, got %s", remaining)
	}
}
