package credit

import (
	"encoding/hex"
	"math/big"
)

// Address identifies an account within the ledger. It matches the fixed-width
// identifiers used by the settlement layer so positions and authority checks
// stay platform independent.
type Address [20]byte

// Hex returns the lowercase hex encoding of the address.
func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

// IsZero reports whether the address is the all-zero value.
func (a Address) IsZero() bool {
	for _, b := range a {
		if b != 0 {
			return false
		}
	}
	return true
}

// Market captures the aggregate accounting state for one lending pool.
// Amounts are denominated in base units and expressed as big integers so
// share/asset conversions never lose precision.
type Market struct {
	// TotalSupplyAssets is the lender-recognised asset total, including
	// accrued interest and net of applied markdowns.
	TotalSupplyAssets *big.Int
	// TotalSupplyShares is the supply share total backing TotalSupplyAssets.
	TotalSupplyShares *big.Int
	// TotalBorrowAssets tracks the outstanding debt across all borrowers.
	TotalBorrowAssets *big.Int
	// TotalBorrowShares is the borrow share total backing TotalBorrowAssets.
	TotalBorrowShares *big.Int
	// TotalMarkdown is the sum of loss provisions currently applied against
	// defaulted positions. TotalSupplyAssets + TotalMarkdown is conserved
	// across markdown apply/reverse sequences.
	TotalMarkdown *big.Int
	// LastAccrualTime records the unix second when base interest was last
	// compounded into the aggregates.
	LastAccrualTime uint64
	// CreditAuthority is the only principal permitted to close cycles, grant
	// credit lines and drive markdown changes for this market.
	CreditAuthority Address
}

// Normalize populates nil aggregate fields so accrual code can mutate freely.
func (m *Market) Normalize() *Market {
	if m == nil {
		return nil
	}
	if m.TotalSupplyAssets == nil {
		m.TotalSupplyAssets = big.NewInt(0)
	}
	if m.TotalSupplyShares == nil {
		m.TotalSupplyShares = big.NewInt(0)
	}
	if m.TotalBorrowAssets == nil {
		m.TotalBorrowAssets = big.NewInt(0)
	}
	if m.TotalBorrowShares == nil {
		m.TotalBorrowShares = big.NewInt(0)
	}
	if m.TotalMarkdown == nil {
		m.TotalMarkdown = big.NewInt(0)
	}
	return m
}

// Clone returns a deep copy of the market.
func (m *Market) Clone() *Market {
	if m == nil {
		return nil
	}
	clone := &Market{
		LastAccrualTime: m.LastAccrualTime,
		CreditAuthority: m.CreditAuthority,
	}
	if m.TotalSupplyAssets != nil {
		clone.TotalSupplyAssets = new(big.Int).Set(m.TotalSupplyAssets)
	}
	if m.TotalSupplyShares != nil {
		clone.TotalSupplyShares = new(big.Int).Set(m.TotalSupplyShares)
	}
	if m.TotalBorrowAssets != nil {
		clone.TotalBorrowAssets = new(big.Int).Set(m.TotalBorrowAssets)
	}
	if m.TotalBorrowShares != nil {
		clone.TotalBorrowShares = new(big.Int).Set(m.TotalBorrowShares)
	}
	if m.TotalMarkdown != nil {
		clone.TotalMarkdown = new(big.Int).Set(m.TotalMarkdown)
	}
	return clone.Normalize()
}

// Position maintains the per-borrower state within a market. Debt is tracked
// as borrow shares rather than raw assets so market-wide base interest flows
// into every position proportionally.
type Position struct {
	// Borrower is the account holding the debt.
	Borrower Address
	// BorrowShares is the borrower's slice of the market borrow share total.
	BorrowShares *big.Int
	// PremiumRateBps is the borrower-specific risk surcharge in annual basis
	// points, added on top of the market base rate.
	PremiumRateBps uint64
	// CreditLimit caps the debt the borrower may draw.
	CreditLimit *big.Int
	// LastAccrualTime records the unix second when the borrower's premium
	// (and penalty) interest was last compounded.
	LastAccrualTime uint64
}

// Normalize populates nil fields so accrual code can mutate freely.
func (p *Position) Normalize() *Position {
	if p == nil {
		return nil
	}
	if p.BorrowShares == nil {
		p.BorrowShares = big.NewInt(0)
	}
	if p.CreditLimit == nil {
		p.CreditLimit = big.NewInt(0)
	}
	return p
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := &Position{
		Borrower:        p.Borrower,
		PremiumRateBps:  p.PremiumRateBps,
		LastAccrualTime: p.LastAccrualTime,
	}
	if p.BorrowShares != nil {
		clone.BorrowShares = new(big.Int).Set(p.BorrowShares)
	}
	if p.CreditLimit != nil {
		clone.CreditLimit = new(big.Int).Set(p.CreditLimit)
	}
	return clone.Normalize()
}

// Obligation is the repayment posted against a borrower at cycle close. Once
// posted the amount due is immutable; only payment in full clears it.
type Obligation struct {
	// DueDate is the cycle-close timestamp the obligation was posted at.
	DueDate uint64
	// AmountDue is the minimum payment required to return to Current.
	AmountDue *big.Int
	// EndingBalance snapshots the borrower's debt at cycle close.
	EndingBalance *big.Int
}

// Clone returns a deep copy of the obligation.
func (o *Obligation) Clone() *Obligation {
	if o == nil {
		return nil
	}
	clone := &Obligation{DueDate: o.DueDate}
	if o.AmountDue != nil {
		clone.AmountDue = new(big.Int).Set(o.AmountDue)
	}
	if o.EndingBalance != nil {
		clone.EndingBalance = new(big.Int).Set(o.EndingBalance)
	}
	return clone
}

// RepaymentStatus derives from the obligation state and the current time. It
// is never stored; callers re-evaluate it on every touch.
type RepaymentStatus uint8

const (
	// StatusCurrent means the borrower has no obligation due.
	StatusCurrent RepaymentStatus = iota
	// StatusGracePeriod means an obligation is due and the grace window is
	// still open. No penalty accrues.
	StatusGracePeriod
	// StatusDelinquent means the grace window has lapsed. Penalty interest
	// accrues from the first delinquent second forward.
	StatusDelinquent
	// StatusDefault means the delinquency window has also lapsed. Penalty
	// continues and the position becomes markdown eligible.
	StatusDefault
)

// String returns the canonical status label.
func (s RepaymentStatus) String() string {
	switch s {
	case StatusCurrent:
		return "current"
	case StatusGracePeriod:
		return "grace_period"
	case StatusDelinquent:
		return "delinquent"
	case StatusDefault:
		return "default"
	default:
		return "unknown"
	}
}
