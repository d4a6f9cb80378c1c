package credit

import (
	"math/big"
	"testing"
)

func TestMulDivRounding(t *testing.T) {
	down := mulDivDown(big.NewInt(10), big.NewInt(10), big.NewInt(3))
	if down.Cmp(big.NewInt(33)) != 0 {
		t.Fatalf("mulDivDown = %s, want 33", down)
	}
	up := mulDivUp(big.NewInt(10), big.NewInt(10), big.NewInt(3))
	if up.Cmp(big.NewInt(34)) != 0 {
		t.Fatalf("mulDivUp = %s, want 34", up)
	}
	// Exact division rounds the same in both directions.
	exactDown := mulDivDown(big.NewInt(10), big.NewInt(9), big.NewInt(3))
	exactUp := mulDivUp(big.NewInt(10), big.NewInt(9), big.NewInt(3))
	if exactDown.Cmp(exactUp) != 0 || exactDown.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("exact division diverged: down %s, up %s", exactDown, exactUp)
	}
}

func TestShareConversions(t *testing.T) {
	// First deposit into an empty market prices shares off the virtual
	// offsets alone.
	minted := toSharesDown(big.NewInt(1_000), big.NewInt(0), big.NewInt(0))
	if minted.Cmp(big.NewInt(1_000_000_000)) != 0 {
		t.Fatalf("bootstrap mint %s, want 1e9", minted)
	}
	back := toAssetsDown(minted, big.NewInt(1_000), minted)
	if back.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("round trip %s, want 1000", back)
	}

	// The up direction never returns less than the down direction.
	up := toAssetsUp(big.NewInt(123_456), big.NewInt(10_007), big.NewInt(999_983))
	down := toAssetsDown(big.NewInt(123_456), big.NewInt(10_007), big.NewInt(999_983))
	if up.Cmp(down) < 0 {
		t.Fatalf("toAssetsUp %s below toAssetsDown %s", up, down)
	}
	diff := new(big.Int).Sub(up, down)
	if diff.Cmp(big.NewInt(1)) > 0 {
		t.Fatalf("rounding directions differ by more than one: %s", diff)
	}
}

func TestTaylorCompoundBounds(t *testing.T) {
	// 5% annual over one day stays within the quadratic error envelope of
	// the linear rate.
	rate := bpsToPerSecondRay(500)
	growth := taylorCompound(rate, day)

	linear := new(big.Int).Mul(rate, big.NewInt(day))
	if growth.Cmp(linear) < 0 {
		t.Fatalf("compound growth %s below linear %s", growth, linear)
	}
	quadratic := mulDivDown(linear, linear, ray)
	ceiling := new(big.Int).Add(linear, quadratic)
	if growth.Cmp(ceiling) > 0 {
		t.Fatalf("compound growth %s above envelope %s", growth, ceiling)
	}
}

func TestTaylorCompoundClampsWindow(t *testing.T) {
	rate := bpsToPerSecondRay(1_000)
	oneYear := taylorCompound(rate, secondsPerYear)
	threeYears := taylorCompound(rate, 3*secondsPerYear)
	if oneYear.Cmp(threeYears) != 0 {
		t.Fatalf("window not clamped: %s vs %s", oneYear, threeYears)
	}
}

func TestTaylorCompoundZero(t *testing.T) {
	if growth := taylorCompound(big.NewInt(0), day); growth.Sign() != 0 {
		t.Fatalf("zero rate grew: %s", growth)
	}
	if growth := taylorCompound(bpsToPerSecondRay(500), 0); growth.Sign() != 0 {
		t.Fatalf("zero elapsed grew: %s", growth)
	}
}

func TestBpsOf(t *testing.T) {
	if v := bpsOf(big.NewInt(10_000), 1000); v.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("10%% of 10000 = %s, want 1000", v)
	}
	// Fractions round down.
	if v := bpsOf(big.NewInt(9_999), 1); v.Sign() != 0 {
		t.Fatalf("1bps of 9999 = %s, want 0", v)
	}
	if v := bpsOf(nil, 1000); v.Sign() != 0 {
		t.Fatalf("nil amount = %s, want 0", v)
	}
}

func TestBpsToPerSecondRay(t *testing.T) {
	full := bpsToPerSecondRay(10_000)
	want := new(big.Int).Quo(ray, big.NewInt(secondsPerYear))
	if full.Cmp(want) != 0 {
		t.Fatalf("100%% per-second ray %s, want %s", full, want)
	}
	if zero := bpsToPerSecondRay(0); zero.Sign() != 0 {
		t.Fatalf("zero bps ray %s, want 0", zero)
	}
}

func TestInterestFor(t *testing.T) {
	// A growth of exactly half ray yields half the principal, floored.
	half := new(big.Int).Quo(ray, big.NewInt(2))
	if v := interestFor(big.NewInt(101), half); v.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("interest %s, want 50", v)
	}
	if v := interestFor(big.NewInt(0), half); v.Sign() != 0 {
		t.Fatalf("zero principal accrued %s", v)
	}
}
