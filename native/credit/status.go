package credit

// classify derives the repayment status from the open obligation and the
// current time. The status is intentionally never persisted: storing it would
// reintroduce the staleness bugs the accrual path-independence property
// guards against.
//
// Timeline relative to the obligation due date D, grace window G and
// delinquency window W:
//
//	now < D+G      grace period (no penalty)
//	D+G <= now < D+G+W  delinquent (penalty accrues)
//	now >= D+G+W   default (penalty accrues, markdown eligible)
//
// Only payment in full or a write-off leaves Delinquent/Default; no timeout
// implicitly cures an obligation.
func classify(now uint64, ob *Obligation, graceSeconds, delinquencySeconds uint64) RepaymentStatus {
	if ob == nil {
		return StatusCurrent
	}
	if now < ob.DueDate {
		// Posted but not yet due. No penalty applies.
		return StatusCurrent
	}
	graceEnd := ob.DueDate + graceSeconds
	if now < graceEnd {
		return StatusGracePeriod
	}
	if now < graceEnd+delinquencySeconds {
		return StatusDelinquent
	}
	return StatusDefault
}

// penaltyApplies reports whether the penalty rate component accrues in the
// given status.
func penaltyApplies(status RepaymentStatus) bool {
	return status == StatusDelinquent || status == StatusDefault
}

// delinquencyStart returns the first second the penalty rate applies for the
// obligation, i.e. the end of the grace window.
func delinquencyStart(ob *Obligation, graceSeconds uint64) uint64 {
	if ob == nil {
		return 0
	}
	return ob.DueDate + graceSeconds
}
