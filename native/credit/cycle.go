package credit

import (
	"math/big"

	nativecommon "moneymarket/native/common"
	"moneymarket/observability/metrics"
)

// CloseCycleAndPostObligations closes the payment cycle ending at cycleEnd
// and posts a repayment obligation for every listed borrower. Each borrower
// is accrued to cycleEnd first so the obligation lands on up-to-date debt.
//
// The cycle list is append-only: cycleEnd must be strictly after the previous
// close and at least the configured cycle duration later. Every borrower is
// validated before anything is persisted, so a single bad entry rejects the
// whole call with no effect.
func (e *Engine) CloseCycleAndPostObligations(
	caller Address,
	marketID string,
	cycleEnd uint64,
	borrowers []Address,
	repaymentBps []uint64,
	endingBalances []*big.Int,
) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if len(borrowers) != len(repaymentBps) || len(borrowers) != len(endingBalances) {
		return e.reject("length_mismatch", ErrLengthMismatch)
	}
	market, err := e.loadMarket(marketID)
	if err != nil {
		return err
	}
	if err := e.requireAuthority(market, caller); err != nil {
		return err
	}

	cycles, err := e.state.GetCycles(marketID)
	if err != nil {
		return err
	}
	if len(cycles) > 0 {
		last := cycles[len(cycles)-1]
		if cycleEnd <= last {
			return e.reject("cycle_order", ErrCycleOrder)
		}
		if cycleEnd < last+e.cfg.CycleDurationSeconds {
			return e.reject("cycle_too_soon", ErrCycleTooSoon)
		}
	}

	// Pass 1: accrue and validate everything in memory. Each borrower may
	// appear once: a repeated entry would accrue the same interval into the
	// shared market aggregates twice, minting interest no position owes.
	positions := make([]*Position, len(borrowers))
	obligations := make([]*Obligation, len(borrowers))
	seen := make(map[Address]struct{}, len(borrowers))
	for i, borrower := range borrowers {
		if _, dup := seen[borrower]; dup {
			return e.reject("duplicate_borrower", ErrDuplicateBorrower)
		}
		seen[borrower] = struct{}{}
		if endingBalances[i] == nil || endingBalances[i].Sign() < 0 {
			return e.reject("invalid_amount", ErrInvalidAmount)
		}
		position, open, err := e.accrue(marketID, market, borrower, cycleEnd)
		if err != nil {
			return err
		}
		if open != nil {
			status := classify(cycleEnd, open, e.cfg.GracePeriodSeconds, e.cfg.DelinquencySeconds)
			if penaltyApplies(status) {
				return e.reject("unresolved_obligation", ErrUnresolvedObligation)
			}
			// A prior obligation still inside grace keeps its terms; the
			// borrower is skipped rather than having the amount due mutated.
			positions[i] = position
			continue
		}
		positions[i] = position
		obligations[i] = &Obligation{
			DueDate:       cycleEnd,
			AmountDue:     bpsOf(endingBalances[i], repaymentBps[i]),
			EndingBalance: cloneBig(endingBalances[i]),
		}
	}

	// Pass 2: persist.
	posted := 0
	for i, borrower := range borrowers {
		if positions[i] != nil {
			if err := e.state.PutPosition(marketID, positions[i]); err != nil {
				return err
			}
		}
		if obligations[i] == nil {
			continue
		}
		if err := e.state.PutObligation(marketID, borrower, obligations[i]); err != nil {
			return err
		}
		e.emit(newObligationPostedEvent(marketID, borrower, obligations[i]))
		posted++
	}
	if err := e.state.PutCycles(marketID, append(cycles, cycleEnd)); err != nil {
		return err
	}
	if err := e.state.PutMarket(marketID, market); err != nil {
		return err
	}

	metrics.Credit().RecordCycleClose(marketID, posted)
	e.emit(newCycleClosedEvent(marketID, cycleEnd, posted))
	e.logInfo("cycle closed", "market", marketID, "cycleEnd", cycleEnd, "obligations", posted)
	return nil
}

// Cycles returns the append-only list of cycle-end timestamps for the market.
func (e *Engine) Cycles(marketID string) ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if _, err := e.loadMarket(marketID); err != nil {
		return nil, err
	}
	return e.state.GetCycles(marketID)
}

// ObligationOf returns a copy of the borrower's open obligation, or nil.
func (e *Engine) ObligationOf(marketID string, borrower Address) (*Obligation, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	ob, err := e.state.GetObligation(marketID, borrower)
	if err != nil {
		return nil, err
	}
	return ob.Clone(), nil
}
