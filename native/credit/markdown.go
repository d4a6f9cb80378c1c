package credit

import (
	"math/big"

	nativecommon "moneymarket/native/common"
	"moneymarket/observability/metrics"
)

// ApplyMarkdown provisions a credit loss against a defaulted borrower. The
// recorded markdown becomes min(requested, currentDebt) and the market's
// recognised supply moves by the delta against the previously recorded
// markdown. Requesting zero reverses the provision in full.
//
// Because the adjustment is always a delta against stored state and always
// capped at interest-accrued debt, no sequence of apply/reverse calls can
// mint recognised supply beyond principal plus accrued interest.
func (e *Engine) ApplyMarkdown(caller Address, marketID string, borrower Address, requested *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if requested == nil || requested.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	market, err := e.loadMarket(marketID)
	if err != nil {
		return nil, err
	}
	if err := e.requireAuthority(market, caller); err != nil {
		return nil, err
	}

	now := e.now()
	position, ob, err := e.accrue(marketID, market, borrower, now)
	if err != nil {
		return nil, err
	}
	if requested.Sign() > 0 {
		status := classify(now, ob, e.cfg.GracePeriodSeconds, e.cfg.DelinquencySeconds)
		if status != StatusDefault {
			return nil, e.reject("markdown_not_defaulted", ErrMarkdownNotDefaulted)
		}
	}

	debt := e.debtOf(market, position)
	actual := minBig(requested, debt)

	previous, err := e.state.GetMarkdown(marketID, borrower)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		previous = big.NewInt(0)
	}
	delta := new(big.Int).Sub(actual, previous)

	market.TotalSupplyAssets = new(big.Int).Sub(market.TotalSupplyAssets, delta)
	market.TotalMarkdown = new(big.Int).Add(market.TotalMarkdown, delta)

	if actual.Sign() == 0 {
		if err := e.state.DeleteMarkdown(marketID, borrower); err != nil {
			return nil, err
		}
	} else if err := e.state.PutMarkdown(marketID, borrower, actual); err != nil {
		return nil, err
	}
	if position != nil {
		if err := e.state.PutPosition(marketID, position); err != nil {
			return nil, err
		}
	}
	if err := e.state.PutMarket(marketID, market); err != nil {
		return nil, err
	}

	metrics.Credit().SetMarkdown(marketID, bigToFloat(market.TotalMarkdown))
	e.emit(newMarkdownEvent(marketID, borrower, actual, delta))
	e.logInfo("markdown applied", "market", marketID, "borrower", borrower.Hex(),
		"markdown", actual.String(), "delta", delta.String())
	return actual, nil
}

// WriteOff charges off a borrower's debt entirely: the provision is replaced
// by a realised loss, the borrow shares are burned and the position and
// obligation are cleared. Write-off and payment in full are the only exits
// from Default.
func (e *Engine) WriteOff(caller Address, marketID string, borrower Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	market, err := e.loadMarket(marketID)
	if err != nil {
		return nil, err
	}
	if err := e.requireAuthority(market, caller); err != nil {
		return nil, err
	}

	now := e.now()
	position, _, err := e.accrue(marketID, market, borrower, now)
	if err != nil {
		return nil, err
	}
	if position == nil || position.BorrowShares.Sign() == 0 {
		return nil, e.reject("no_debt", ErrNoDebt)
	}

	debt := e.debtOf(market, position)

	// The provision was an estimate; the write-off realises the full loss.
	if err := e.reverseMarkdown(marketID, market, borrower); err != nil {
		return nil, err
	}
	market.TotalBorrowAssets = new(big.Int).Sub(market.TotalBorrowAssets, debt)
	if market.TotalBorrowAssets.Sign() < 0 {
		market.TotalBorrowAssets = big.NewInt(0)
	}
	market.TotalBorrowShares = new(big.Int).Sub(market.TotalBorrowShares, position.BorrowShares)
	market.TotalSupplyAssets = new(big.Int).Sub(market.TotalSupplyAssets, debt)
	if market.TotalSupplyAssets.Sign() < 0 {
		market.TotalSupplyAssets = big.NewInt(0)
	}

	if err := e.state.DeleteObligation(marketID, borrower); err != nil {
		return nil, err
	}
	if err := e.state.DeletePosition(marketID, borrower); err != nil {
		return nil, err
	}
	if err := e.state.PutMarket(marketID, market); err != nil {
		return nil, err
	}

	metrics.Credit().SetMarkdown(marketID, bigToFloat(market.TotalMarkdown))
	e.emit(newWriteOffEvent(marketID, borrower, debt, debt))
	e.logInfo("debt written off", "market", marketID, "borrower", borrower.Hex(), "debt", debt.String())
	return debt, nil
}

// reverseMarkdown restores the recognised supply reduced by the borrower's
// provision and clears the stored markdown. The in-memory market is mutated;
// the caller persists it.
func (e *Engine) reverseMarkdown(marketID string, market *Market, borrower Address) error {
	previous, err := e.state.GetMarkdown(marketID, borrower)
	if err != nil {
		return err
	}
	if previous == nil || previous.Sign() == 0 {
		return nil
	}
	market.TotalSupplyAssets = new(big.Int).Add(market.TotalSupplyAssets, previous)
	market.TotalMarkdown = new(big.Int).Sub(market.TotalMarkdown, previous)
	if market.TotalMarkdown.Sign() < 0 {
		market.TotalMarkdown = big.NewInt(0)
	}
	return e.state.DeleteMarkdown(marketID, borrower)
}
