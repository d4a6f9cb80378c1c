package credit

import (
	"math/big"
	"strconv"

	"moneymarket/core/types"
)

const (
	EventTypeMarketCreated     = "credit.market.created"
	EventTypeCreditLineSet     = "credit.line.set"
	EventTypeSupplied          = "credit.supplied"
	EventTypeWithdrawn         = "credit.withdrawn"
	EventTypeBorrowed          = "credit.borrowed"
	EventTypeRepaid            = "credit.repaid"
	EventTypeCycleClosed       = "credit.cycle.closed"
	EventTypeObligationPosted  = "credit.obligation.posted"
	EventTypeObligationCleared = "credit.obligation.cleared"
	EventTypeMarkdownApplied   = "credit.markdown.applied"
	EventTypeWrittenOff        = "credit.written_off"
)

type creditEvent struct {
	evt *types.Event
}

func (e creditEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e creditEvent) Event() *types.Event { return e.evt }

func newMarketCreatedEvent(marketID string, authority Address) *types.Event {
	return &types.Event{
		Type: EventTypeMarketCreated,
		Attributes: map[string]string{
			"market":    marketID,
			"authority": authority.Hex(),
		},
	}
}

func newCreditLineEvent(marketID string, borrower Address, limit *big.Int, premiumBps uint64) *types.Event {
	return &types.Event{
		Type: EventTypeCreditLineSet,
		Attributes: map[string]string{
			"market":     marketID,
			"borrower":   borrower.Hex(),
			"limit":      formatAmount(limit),
			"premiumBps": strconv.FormatUint(premiumBps, 10),
		},
	}
}

func newTransferEvent(eventType, marketID string, account Address, amount, shares *big.Int) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"market":  marketID,
			"account": account.Hex(),
			"amount":  formatAmount(amount),
			"shares":  formatAmount(shares),
		},
	}
}

func newCycleClosedEvent(marketID string, cycleEnd uint64, obligations int) *types.Event {
	return &types.Event{
		Type: EventTypeCycleClosed,
		Attributes: map[string]string{
			"market":      marketID,
			"cycleEnd":    strconv.FormatUint(cycleEnd, 10),
			"obligations": strconv.Itoa(obligations),
		},
	}
}

func newObligationPostedEvent(marketID string, borrower Address, ob *Obligation) *types.Event {
	attrs := map[string]string{
		"market":   marketID,
		"borrower": borrower.Hex(),
	}
	if ob != nil {
		attrs["dueDate"] = strconv.FormatUint(ob.DueDate, 10)
		attrs["amountDue"] = formatAmount(ob.AmountDue)
		attrs["endingBalance"] = formatAmount(ob.EndingBalance)
	}
	return &types.Event{Type: EventTypeObligationPosted, Attributes: attrs}
}

func newObligationClearedEvent(marketID string, borrower Address, paid *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeObligationCleared,
		Attributes: map[string]string{
			"market":   marketID,
			"borrower": borrower.Hex(),
			"paid":     formatAmount(paid),
		},
	}
}

func newMarkdownEvent(marketID string, borrower Address, markdown, delta *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeMarkdownApplied,
		Attributes: map[string]string{
			"market":   marketID,
			"borrower": borrower.Hex(),
			"markdown": formatAmount(markdown),
			"delta":    formatAmount(delta),
		},
	}
}

func newWriteOffEvent(marketID string, borrower Address, debt, loss *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeWrittenOff,
		Attributes: map[string]string{
			"market":   marketID,
			"borrower": borrower.Hex(),
			"debt":     formatAmount(debt),
			"loss":     formatAmount(loss),
		},
	}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
