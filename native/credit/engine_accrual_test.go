package credit

import (
	"math/big"
	"testing"
)

// borrowFixture boots a funded market with an open credit line and an
// outstanding draw of principal.
func borrowFixture(t *testing.T, baseBps, premiumBps uint64, principal int64) (*Engine, *testClock) {
	t.Helper()
	engine, _, _, clock := newTestEngine(t, testConfig(), baseBps, 1_000_000)
	bootMarket(t, engine, 1_000_000, 500_000, premiumBps)
	if err := engine.Borrow(borrower, testMarket, big.NewInt(principal)); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	return engine, clock
}

func accrueAt(t *testing.T, engine *Engine, now uint64) {
	t.Helper()
	if err := engine.Accrue(testMarket, borrower, now); err != nil {
		t.Fatalf("accrue at %d: %v", now, err)
	}
}

// Accruing once over a month and accruing every day must land on the same
// debt up to per-call rounding. Each accrual floors interest at two stages,
// so the drift bound grows with the number of calls, never with elapsed time.
func TestAccrualPathIndependence(t *testing.T) {
	oneShot, clockA := borrowFixture(t, 1000, 200, 100_000)
	stepwise, clockB := borrowFixture(t, 1000, 200, 100_000)

	clockA.advance(30 * day)
	accrueAt(t, oneShot, clockA.now)

	for i := 0; i < 30; i++ {
		clockB.advance(day)
		accrueAt(t, stepwise, clockB.now)
	}

	debtA := debtOf(t, oneShot, borrower)
	debtB := debtOf(t, stepwise, borrower)
	if debtA.Cmp(big.NewInt(100_000)) <= 0 {
		t.Fatalf("expected interest to accrue, debt %s", debtA)
	}
	diff := new(big.Int).Sub(debtA, debtB)
	diff.Abs(diff)
	if diff.Cmp(big.NewInt(100)) > 0 {
		t.Fatalf("accrual path dependent: one-shot %s vs stepwise %s", debtA, debtB)
	}
}

// An open obligation inside its grace window accrues exactly as if no
// obligation existed. The penalty starts only once grace expires.
func TestGraceWindowCarriesNoPenalty(t *testing.T) {
	withObligation, clockA := borrowFixture(t, 0, 200, 100_000)
	control, clockB := borrowFixture(t, 0, 200, 100_000)

	dueDate := clockA.now + day
	err := withObligation.CloseCycleAndPostObligations(authority, testMarket, dueDate,
		[]Address{borrower}, []uint64{1000}, []*big.Int{big.NewInt(100_000)})
	if err != nil {
		t.Fatalf("close cycle: %v", err)
	}
	clockA.now = dueDate
	clockB.now = dueDate
	accrueAt(t, control, clockB.now)

	// Three days past due is still inside the weekly grace window.
	clockA.advance(3 * day)
	clockB.advance(3 * day)
	accrueAt(t, withObligation, clockA.now)
	accrueAt(t, control, clockB.now)

	status, err := withObligation.StatusOf(testMarket, borrower, clockA.now)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != StatusGracePeriod {
		t.Fatalf("expected grace period, got %s", status)
	}
	graced := debtOf(t, withObligation, borrower)
	plain := debtOf(t, control, borrower)
	if graced.Cmp(plain) != 0 {
		t.Fatalf("grace window charged a penalty: %s vs %s", graced, plain)
	}

	// One day past the grace boundary the penalty kicks in.
	clockA.advance(5 * day)
	clockB.advance(5 * day)
	accrueAt(t, withObligation, clockA.now)
	accrueAt(t, control, clockB.now)

	status, err = withObligation.StatusOf(testMarket, borrower, clockA.now)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != StatusDelinquent {
		t.Fatalf("expected delinquent, got %s", status)
	}
	penalised := debtOf(t, withObligation, borrower)
	plain = debtOf(t, control, borrower)
	if penalised.Cmp(plain) <= 0 {
		t.Fatalf("expected penalty interest past grace: %s vs %s", penalised, plain)
	}
}

// Accruing across the grace boundary in one call must match accruing up to
// the boundary and then past it, up to per-call rounding. The penalty is
// charged for the post-boundary seconds only, never retroactively.
func TestPenaltySplitsAtGraceBoundary(t *testing.T) {
	oneShot, clockA := borrowFixture(t, 500, 300, 100_000)
	stepwise, clockB := borrowFixture(t, 500, 300, 100_000)

	for _, fixture := range []struct {
		engine *Engine
		clock  *testClock
	}{{oneShot, clockA}, {stepwise, clockB}} {
		dueDate := fixture.clock.now + day
		err := fixture.engine.CloseCycleAndPostObligations(authority, testMarket, dueDate,
			[]Address{borrower}, []uint64{1000}, []*big.Int{big.NewInt(100_000)})
		if err != nil {
			t.Fatalf("close cycle: %v", err)
		}
		fixture.clock.now = dueDate
	}

	boundary := clockA.now + week

	clockA.now = boundary + 2*day
	accrueAt(t, oneShot, clockA.now)

	clockB.now = boundary
	accrueAt(t, stepwise, clockB.now)
	clockB.now = boundary + 2*day
	accrueAt(t, stepwise, clockB.now)

	debtA := debtOf(t, oneShot, borrower)
	debtB := debtOf(t, stepwise, borrower)
	diff := new(big.Int).Sub(debtA, debtB)
	diff.Abs(diff)
	if diff.Cmp(big.NewInt(8)) > 0 {
		t.Fatalf("boundary split drifted: one-shot %s vs stepwise %s", debtA, debtB)
	}
}

// Base interest lands on every borrower through the share ratio while premium
// interest mints shares against the premium borrower alone.
func TestPremiumChargedPerBorrower(t *testing.T) {
	engine, _, _, clock := newTestEngine(t, testConfig(), 1000, 1_000_000)
	bootMarket(t, engine, 1_000_000, 500_000, 400)
	plainBorrower := makeAddress(0x04)
	if err := engine.SetCreditLine(authority, testMarket, plainBorrower, big.NewInt(500_000), 0); err != nil {
		t.Fatalf("set credit line: %v", err)
	}
	if err := engine.Borrow(borrower, testMarket, big.NewInt(100_000)); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if err := engine.Borrow(plainBorrower, testMarket, big.NewInt(100_000)); err != nil {
		t.Fatalf("borrow plain: %v", err)
	}

	clock.advance(90 * day)
	accrueAt(t, engine, clock.now)
	if err := engine.Accrue(testMarket, plainBorrower, clock.now); err != nil {
		t.Fatalf("accrue plain: %v", err)
	}

	premiumDebt := debtOf(t, engine, borrower)
	plainDebt := debtOf(t, engine, plainBorrower)
	if plainDebt.Cmp(big.NewInt(100_000)) <= 0 {
		t.Fatalf("expected base interest on plain borrower, debt %s", plainDebt)
	}
	if premiumDebt.Cmp(plainDebt) <= 0 {
		t.Fatalf("expected premium borrower to owe more: %s vs %s", premiumDebt, plainDebt)
	}
}

// Interest accrued to the market also accrues to the supply side, so lender
// share value grows with borrower debt and nothing leaks.
func TestAccrualConservesValue(t *testing.T) {
	engine, state, _, clock := borrowFixtureWithState(t, 1000, 200, 100_000)

	clock.advance(45 * day)
	accrueAt(t, engine, clock.now)

	market := state.markets[testMarket]
	borrowGrowth := new(big.Int).Sub(market.TotalBorrowAssets, big.NewInt(100_000))
	supplyGrowth := new(big.Int).Sub(market.TotalSupplyAssets, big.NewInt(1_000_000))
	if borrowGrowth.Sign() <= 0 {
		t.Fatalf("expected borrow growth, got %s", borrowGrowth)
	}
	if borrowGrowth.Cmp(supplyGrowth) != 0 {
		t.Fatalf("interest leaked: borrows grew %s, supply grew %s", borrowGrowth, supplyGrowth)
	}
}

func borrowFixtureWithState(t *testing.T, baseBps, premiumBps uint64, principal int64) (*Engine, *mockState, *mockSettlement, *testClock) {
	t.Helper()
	engine, state, settlement, clock := newTestEngine(t, testConfig(), baseBps, 1_000_000)
	bootMarket(t, engine, 1_000_000, 500_000, premiumBps)
	if err := engine.Borrow(borrower, testMarket, big.NewInt(principal)); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	return engine, state, settlement, clock
}
