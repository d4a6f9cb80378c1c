package credit

import "math/big"

// RateModel supplies the market base rate. Implementations must be pure
// view-only queries of the snapshot they are handed; the engine re-evaluates
// the model on every accrual rather than caching its output.
type RateModel interface {
	// PerSecondRateRay returns the base borrow rate per second in ray
	// precision, given the market's current supply and borrow totals.
	PerSecondRateRay(totalSupplyAssets, totalBorrowAssets *big.Int) *big.Int
}

// KinkedRateModel derives the base rate from utilisation with a two-slope
// curve: a gentle slope up to the kink to encourage borrowing, a steep slope
// beyond it to defend liquidity.
type KinkedRateModel struct {
	// BaseRate is the minimum annual borrow rate applied at zero utilisation.
	BaseRate *big.Rat
	// Slope1 is the annual rate increase per unit of utilisation below the kink.
	Slope1 *big.Rat
	// Slope2 governs the additional increase applied above the kink.
	Slope2 *big.Rat
	// Kink is the utilisation ratio where the slope changes.
	Kink *big.Rat
}

// NewKinkedRateModel constructs a rate model from decimal inputs, e.g. a 2%
// base rate is 0.02 and an 80% kink utilisation is 0.8.
func NewKinkedRateModel(baseRate, slope1, slope2, kink float64) *KinkedRateModel {
	model := &KinkedRateModel{
		BaseRate: new(big.Rat),
		Slope1:   new(big.Rat),
		Slope2:   new(big.Rat),
		Kink:     new(big.Rat),
	}
	model.BaseRate.SetFloat64(baseRate)
	model.Slope1.SetFloat64(slope1)
	model.Slope2.SetFloat64(slope2)
	model.Kink.SetFloat64(kink)
	return model
}

// Clone returns a deep copy of the rate model.
func (m *KinkedRateModel) Clone() *KinkedRateModel {
	if m == nil {
		return nil
	}
	return &KinkedRateModel{
		BaseRate: cloneRat(m.BaseRate),
		Slope1:   cloneRat(m.Slope1),
		Slope2:   cloneRat(m.Slope2),
		Kink:     cloneRat(m.Kink),
	}
}

// Utilisation computes U = totalBorrowed / totalSupplied, defined as zero
// when either side is empty.
func (m *KinkedRateModel) Utilisation(totalSupplied, totalBorrowed *big.Int) *big.Rat {
	if totalBorrowed == nil || totalBorrowed.Sign() == 0 {
		return new(big.Rat)
	}
	if totalSupplied == nil || totalSupplied.Sign() == 0 {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(totalBorrowed, totalSupplied)
}

// AnnualRate derives the annual base borrow rate at the current utilisation.
func (m *KinkedRateModel) AnnualRate(totalSupplied, totalBorrowed *big.Int) *big.Rat {
	if m == nil {
		return new(big.Rat)
	}
	rate := cloneRat(m.BaseRate)
	utilisation := m.Utilisation(totalSupplied, totalBorrowed)
	if utilisation.Sign() == 0 {
		return rate
	}

	kink := cloneRat(m.Kink)
	slope1 := cloneRat(m.Slope1)
	slope2 := cloneRat(m.Slope2)
	if kink.Sign() == 0 || utilisation.Cmp(kink) <= 0 {
		// Linear region before the kink.
		return rate.Add(rate, new(big.Rat).Mul(slope1, utilisation))
	}

	// Rate at the kink using slope1, then the excess using slope2.
	rate.Add(rate, new(big.Rat).Mul(slope1, kink))
	excess := new(big.Rat).Sub(utilisation, kink)
	return rate.Add(rate, new(big.Rat).Mul(slope2, excess))
}

// PerSecondRateRay implements the RateModel interface.
func (m *KinkedRateModel) PerSecondRateRay(totalSupplyAssets, totalBorrowAssets *big.Int) *big.Int {
	return annualRatToPerSecondRay(m.AnnualRate(totalSupplyAssets, totalBorrowAssets))
}

// FixedRateModel returns the same annual base rate regardless of utilisation.
// It keeps accrual expectations exact in tests and suits externally priced
// markets where the base rate arrives from governance.
type FixedRateModel struct {
	// AnnualBps is the base rate in annual basis points.
	AnnualBps uint64
}

// PerSecondRateRay implements the RateModel interface.
func (m FixedRateModel) PerSecondRateRay(_, _ *big.Int) *big.Int {
	return bpsToPerSecondRay(m.AnnualBps)
}

func annualRatToPerSecondRay(r *big.Rat) *big.Int {
	if r == nil || r.Sign() <= 0 {
		return big.NewInt(0)
	}
	scaled := new(big.Rat).Mul(r, new(big.Rat).SetInt(ray))
	scaled.Quo(scaled, new(big.Rat).SetInt64(secondsPerYear))
	return new(big.Int).Quo(scaled.Num(), scaled.Denom())
}

func cloneRat(r *big.Rat) *big.Rat {
	if r == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(r)
}

// DefaultRateModel provides a conservative kinked curve with a modest base
// rate, mirroring common money-market defaults.
var DefaultRateModel = NewKinkedRateModel(0.02, 0.15, 0.6, 0.8)
