package credit

import "math/big"

var (
	basisPoints = big.NewInt(10_000)
	ray         = mustBigInt("1000000000000000000000000000") // 1e27 rate precision

	// Virtual share/asset offsets keep the share price defined on an empty
	// market and blunt share-price manipulation at bootstrap.
	virtualShares = big.NewInt(1_000_000)
	virtualAssets = big.NewInt(1)
)

const secondsPerYear = 31_536_000

// maxCompoundSeconds caps a single compounding window. Longer gaps are
// clamped so the Taylor expansion stays inside its accuracy envelope.
const maxCompoundSeconds = secondsPerYear

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

func mulDivDown(a, b, denominator *big.Int) *big.Int {
	if a == nil || b == nil || denominator == nil || denominator.Sign() == 0 {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, denominator)
}

func mulDivUp(a, b, denominator *big.Int) *big.Int {
	if a == nil || b == nil || denominator == nil || denominator.Sign() == 0 {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	product.Add(product, new(big.Int).Sub(denominator, big.NewInt(1)))
	return product.Quo(product, denominator)
}

// Share conversions round in the ledger's favour: up on debt owed, down on
// credit given. Each direction is explicit at the call site.

func toSharesDown(assets, totalAssets, totalShares *big.Int) *big.Int {
	return mulDivDown(assets, addVirtualShares(totalShares), addVirtualAssets(totalAssets))
}

func toSharesUp(assets, totalAssets, totalShares *big.Int) *big.Int {
	return mulDivUp(assets, addVirtualShares(totalShares), addVirtualAssets(totalAssets))
}

func toAssetsDown(shares, totalAssets, totalShares *big.Int) *big.Int {
	return mulDivDown(shares, addVirtualAssets(totalAssets), addVirtualShares(totalShares))
}

func toAssetsUp(shares, totalAssets, totalShares *big.Int) *big.Int {
	return mulDivUp(shares, addVirtualAssets(totalAssets), addVirtualShares(totalShares))
}

func addVirtualShares(totalShares *big.Int) *big.Int {
	if totalShares == nil {
		return new(big.Int).Set(virtualShares)
	}
	return new(big.Int).Add(totalShares, virtualShares)
}

func addVirtualAssets(totalAssets *big.Int) *big.Int {
	if totalAssets == nil {
		return new(big.Int).Set(virtualAssets)
	}
	return new(big.Int).Add(totalAssets, virtualAssets)
}

// bpsToPerSecondRay reduces an annual basis-point rate to a per-second ray.
func bpsToPerSecondRay(bps uint64) *big.Int {
	if bps == 0 {
		return big.NewInt(0)
	}
	scaled := new(big.Int).Mul(ray, new(big.Int).SetUint64(bps))
	scaled.Quo(scaled, basisPoints)
	return scaled.Quo(scaled, big.NewInt(secondsPerYear))
}

// taylorCompound approximates e^(rate*elapsed) - 1 in ray precision using the
// first three series terms. The approximation is accurate well past realistic
// annual rates over the clamped one-year window and, because every interval
// starts from the last recorded timestamp, repeated sub-interval accrual
// drifts from a single accrual only by per-call rounding.
func taylorCompound(ratePerSecondRay *big.Int, elapsed uint64) *big.Int {
	if ratePerSecondRay == nil || ratePerSecondRay.Sign() <= 0 || elapsed == 0 {
		return big.NewInt(0)
	}
	if elapsed > maxCompoundSeconds {
		elapsed = maxCompoundSeconds
	}
	x := new(big.Int).Mul(ratePerSecondRay, new(big.Int).SetUint64(elapsed))

	second := mulDivDown(x, x, ray)
	second.Quo(second, big.NewInt(2))

	third := mulDivDown(second, x, ray)
	third.Quo(third, big.NewInt(3))

	growth := new(big.Int).Add(x, second)
	return growth.Add(growth, third)
}

// interestFor applies a ray growth factor to a principal amount.
func interestFor(principal, growthRay *big.Int) *big.Int {
	if principal == nil || principal.Sign() <= 0 || growthRay == nil || growthRay.Sign() <= 0 {
		return big.NewInt(0)
	}
	return mulDivDown(principal, growthRay, ray)
}

func bpsOf(amount *big.Int, bps uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	return mulDivDown(amount, new(big.Int).SetUint64(bps), basisPoints)
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
