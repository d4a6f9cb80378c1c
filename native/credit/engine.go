package credit

import (
	"log/slog"
	"math/big"
	"strings"
	"time"

	"moneymarket/core/events"
	"moneymarket/core/types"
	nativecommon "moneymarket/native/common"
	"moneymarket/observability/metrics"
)

const moduleName = "credit"

// engineState is the persistence surface the engine mutates. Implementations
// must apply each operation atomically: every Put issued by a single engine
// call either all commits or none of it does.
type engineState interface {
	GetMarket(marketID string) (*Market, error)
	PutMarket(marketID string, market *Market) error
	GetPosition(marketID string, borrower Address) (*Position, error)
	PutPosition(marketID string, position *Position) error
	DeletePosition(marketID string, borrower Address) error
	GetCycles(marketID string) ([]uint64, error)
	PutCycles(marketID string, cycleEnds []uint64) error
	GetObligation(marketID string, borrower Address) (*Obligation, error)
	PutObligation(marketID string, borrower Address, ob *Obligation) error
	DeleteObligation(marketID string, borrower Address) error
	GetMarkdown(marketID string, borrower Address) (*big.Int, error)
	PutMarkdown(marketID string, borrower Address, amount *big.Int) error
	DeleteMarkdown(marketID string, borrower Address) error
}

// Settlement moves real value between accounts on behalf of the ledger. The
// engine records share and asset bookkeeping only; custody is delegated here.
type Settlement interface {
	// Collect pulls amount from the account into the ledger's custody.
	Collect(from Address, amount *big.Int) error
	// Disburse pushes amount from the ledger's custody to the account.
	Disburse(to Address, amount *big.Int) error
}

// Engine orchestrates the credit ledger state transitions: interest accrual,
// payment cycles, repayment obligations and markdown provisioning.
type Engine struct {
	state      engineState
	settlement Settlement
	emitter    events.Emitter
	rateModel  RateModel
	cfg        Config
	pauses     nativecommon.PauseView
	logger     *slog.Logger
	nowFn      func() uint64
}

// NewEngine constructs a credit engine with the supplied configuration, a
// no-op emitter and the configured default rate curve. Callers wire state,
// settlement and optional collaborators via the setters.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:       cfg,
		emitter:   events.NoopEmitter{},
		rateModel: cfg.RateModel(),
		nowFn:     func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetSettlement wires the engine to the value-transfer layer.
func (e *Engine) SetSettlement(settlement Settlement) { e.settlement = settlement }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetRateModel configures the base-rate source consulted during accrual.
// Passing nil restores the configured default curve.
func (e *Engine) SetRateModel(model RateModel) {
	if e == nil {
		return
	}
	if model == nil {
		e.rateModel = e.cfg.RateModel()
		return
	}
	e.rateModel = model
}

// SetPauses wires the governance pause switches.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetLogger attaches a structured logger. A nil logger keeps the engine
// silent.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil {
		return
	}
	e.logger = logger
}

// SetNowFunc overrides the time source (unix seconds). Primarily intended for
// tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return e.nowFn()
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(creditEvent{evt: event})
}

func (e *Engine) logInfo(msg string, args ...any) {
	if e != nil && e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

func (e *Engine) reject(reason string, err error) error {
	metrics.Credit().RecordRejection(reason)
	return err
}

// CreateMarket initialises a new lending pool governed by the given credit
// authority. The market starts empty with its accrual clock at the current
// time.
func (e *Engine) CreateMarket(marketID string, authority Address) (*Market, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	marketID = strings.TrimSpace(marketID)
	if marketID == "" || authority.IsZero() {
		return nil, ErrInvalidAmount
	}
	existing, err := e.state.GetMarket(marketID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, e.reject("market_exists", ErrMarketExists)
	}
	market := (&Market{
		LastAccrualTime: e.now(),
		CreditAuthority: authority,
	}).Normalize()
	if err := e.state.PutMarket(marketID, market); err != nil {
		return nil, err
	}
	e.emit(newMarketCreatedEvent(marketID, authority))
	e.logInfo("market created", "market", marketID, "authority", authority.Hex())
	return market, nil
}

// SetCreditLine grants or adjusts a borrower's credit limit and premium rate.
// Only the market's credit authority may call it. The borrower is accrued
// first so the new premium applies from this moment forward, never
// retroactively.
func (e *Engine) SetCreditLine(caller Address, marketID string, borrower Address, limit *big.Int, premiumBps uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if limit == nil || limit.Sign() < 0 {
		return ErrInvalidAmount
	}
	market, err := e.loadMarket(marketID)
	if err != nil {
		return err
	}
	if err := e.requireAuthority(market, caller); err != nil {
		return err
	}
	now := e.now()
	position, _, err := e.accrue(marketID, market, borrower, now)
	if err != nil {
		return err
	}
	if position == nil {
		position = (&Position{Borrower: borrower, LastAccrualTime: now}).Normalize()
	}
	position.CreditLimit = cloneBig(limit)
	position.PremiumRateBps = premiumBps
	if err := e.state.PutPosition(marketID, position); err != nil {
		return err
	}
	if err := e.state.PutMarket(marketID, market); err != nil {
		return err
	}
	e.emit(newCreditLineEvent(marketID, borrower, limit, premiumBps))
	e.logInfo("credit line set", "market", marketID, "borrower", borrower.Hex(),
		"limit", limit.String(), "premiumBps", premiumBps)
	return nil
}

// Supply records freshly deposited liquidity and returns the minted supply
// shares. Per-depositor share distribution lives in the external vault layer;
// the ledger tracks aggregates only.
func (e *Engine) Supply(account Address, marketID string, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.settlement == nil {
		return nil, ErrNilSettlement
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	market, err := e.loadMarket(marketID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	e.accrueMarket(market, now)

	// Credit given rounds down.
	minted := toSharesDown(amount, market.TotalSupplyAssets, market.TotalSupplyShares)
	if minted.Sign() == 0 {
		return nil, ErrInvalidAmount
	}
	if err := e.settlement.Collect(account, amount); err != nil {
		return nil, err
	}
	market.TotalSupplyAssets = new(big.Int).Add(market.TotalSupplyAssets, amount)
	market.TotalSupplyShares = new(big.Int).Add(market.TotalSupplyShares, minted)
	if err := e.state.PutMarket(marketID, market); err != nil {
		return nil, err
	}
	e.emit(newTransferEvent(EventTypeSupplied, marketID, account, amount, minted))
	return minted, nil
}

// Withdraw burns supply shares and releases the corresponding assets through
// the settlement layer. The redeemed amount is returned. Share ownership is
// enforced by the calling vault layer.
func (e *Engine) Withdraw(account Address, marketID string, shares *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.settlement == nil {
		return nil, ErrNilSettlement
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if shares == nil || shares.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	market, err := e.loadMarket(marketID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	e.accrueMarket(market, now)

	if market.TotalSupplyShares.Cmp(shares) < 0 {
		return nil, e.reject("insufficient_shares", ErrInsufficientShares)
	}
	redeemed := toAssetsDown(shares, market.TotalSupplyAssets, market.TotalSupplyShares)
	if e.availableLiquidity(market).Cmp(redeemed) < 0 {
		return nil, e.reject("insufficient_liquidity", ErrInsufficientLiquidity)
	}
	market.TotalSupplyAssets = new(big.Int).Sub(market.TotalSupplyAssets, redeemed)
	market.TotalSupplyShares = new(big.Int).Sub(market.TotalSupplyShares, shares)
	if err := e.settlement.Disburse(account, redeemed); err != nil {
		return nil, err
	}
	if err := e.state.PutMarket(marketID, market); err != nil {
		return nil, err
	}
	e.emit(newTransferEvent(EventTypeWithdrawn, marketID, account, redeemed, shares))
	return redeemed, nil
}

// Borrow draws on the borrower's credit line, minting borrow shares and
// disbursing the amount through the settlement layer.
func (e *Engine) Borrow(borrower Address, marketID string, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.settlement == nil {
		return ErrNilSettlement
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	market, err := e.loadMarket(marketID)
	if err != nil {
		return err
	}
	now := e.now()
	position, _, err := e.accrue(marketID, market, borrower, now)
	if err != nil {
		return err
	}
	if position == nil || position.CreditLimit.Sign() == 0 {
		return e.reject("no_credit_line", ErrNoCreditLine)
	}
	debt := e.debtOf(market, position)
	projected := new(big.Int).Add(debt, amount)
	if projected.Cmp(position.CreditLimit) > 0 {
		return e.reject("credit_limit", ErrCreditLimit)
	}
	if e.availableLiquidity(market).Cmp(amount) < 0 {
		return e.reject("insufficient_liquidity", ErrInsufficientLiquidity)
	}

	// Debt owed rounds up.
	minted := toSharesUp(amount, market.TotalBorrowAssets, market.TotalBorrowShares)
	position.BorrowShares = new(big.Int).Add(position.BorrowShares, minted)
	market.TotalBorrowShares = new(big.Int).Add(market.TotalBorrowShares, minted)
	market.TotalBorrowAssets = new(big.Int).Add(market.TotalBorrowAssets, amount)

	if err := e.settlement.Disburse(borrower, amount); err != nil {
		return err
	}
	if err := e.state.PutPosition(marketID, position); err != nil {
		return err
	}
	if err := e.state.PutMarket(marketID, market); err != nil {
		return err
	}
	e.emit(newTransferEvent(EventTypeBorrowed, marketID, borrower, amount, minted))
	return nil
}

// Repay collects a payment from the borrower and burns the matching borrow
// shares. While an obligation is open the payment must cover its full amount
// due; anything less is rejected with no state change. Paying the obligation
// clears it, and a cured borrower's outstanding markdown is reversed.
func (e *Engine) Repay(borrower Address, marketID string, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.settlement == nil {
		return nil, ErrNilSettlement
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	market, err := e.loadMarket(marketID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	position, ob, err := e.accrue(marketID, market, borrower, now)
	if err != nil {
		return nil, err
	}
	if position == nil || position.BorrowShares.Sign() == 0 {
		return nil, e.reject("no_debt", ErrNoDebt)
	}
	if ob != nil && amount.Cmp(ob.AmountDue) < 0 {
		// Partial obligation payments would leave an ambiguous residual;
		// nothing is persisted, including the in-memory accrual above.
		return nil, e.reject("partial_obligation", ErrMustPayFullObligation)
	}

	debt := e.debtOf(market, position)
	repaid := minBig(amount, debt)

	var burned *big.Int
	if repaid.Cmp(debt) == 0 {
		burned = cloneBig(position.BorrowShares)
	} else {
		// Debt remaining rounds up, so shares burned round down.
		burned = toSharesDown(repaid, market.TotalBorrowAssets, market.TotalBorrowShares)
	}

	if err := e.settlement.Collect(borrower, repaid); err != nil {
		return nil, err
	}
	position.BorrowShares = new(big.Int).Sub(position.BorrowShares, burned)
	market.TotalBorrowShares = new(big.Int).Sub(market.TotalBorrowShares, burned)
	market.TotalBorrowAssets = new(big.Int).Sub(market.TotalBorrowAssets, repaid)
	if market.TotalBorrowAssets.Sign() < 0 {
		market.TotalBorrowAssets = big.NewInt(0)
	}

	if ob != nil {
		if err := e.state.DeleteObligation(marketID, borrower); err != nil {
			return nil, err
		}
		e.emit(newObligationClearedEvent(marketID, borrower, repaid))
		// Full payment cures the borrower: any provision against the
		// position is reversed.
		if err := e.reverseMarkdown(marketID, market, borrower); err != nil {
			return nil, err
		}
	}

	if position.BorrowShares.Sign() == 0 && position.CreditLimit.Sign() == 0 {
		if err := e.state.DeletePosition(marketID, borrower); err != nil {
			return nil, err
		}
	} else if err := e.state.PutPosition(marketID, position); err != nil {
		return nil, err
	}
	if err := e.state.PutMarket(marketID, market); err != nil {
		return nil, err
	}
	e.emit(newTransferEvent(EventTypeRepaid, marketID, borrower, repaid, burned))
	e.logInfo("repayment recorded", "market", marketID, "borrower", borrower.Hex(),
		"amount", repaid.String(), "obligationCleared", ob != nil)
	return repaid, nil
}

// Accrue advances the market and borrower accrual clocks to now, compounding
// base, premium and (when delinquent or defaulted) penalty interest. Anyone
// may touch a borrower; accrual is idempotent for a given timestamp.
func (e *Engine) Accrue(marketID string, borrower Address, now uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	market, err := e.loadMarket(marketID)
	if err != nil {
		return err
	}
	if now < market.LastAccrualTime {
		return e.reject("time_reversal", ErrTimeReversal)
	}
	position, _, err := e.accrue(marketID, market, borrower, now)
	if err != nil {
		return err
	}
	if position != nil {
		if err := e.state.PutPosition(marketID, position); err != nil {
			return err
		}
	}
	return e.state.PutMarket(marketID, market)
}

// StatusOf reports the borrower's repayment status as of now. The status is a
// pure function of the open obligation and the clock; it is never cached.
func (e *Engine) StatusOf(marketID string, borrower Address, now uint64) (RepaymentStatus, error) {
	if e == nil || e.state == nil {
		return StatusCurrent, ErrNilState
	}
	if _, err := e.loadMarket(marketID); err != nil {
		return StatusCurrent, err
	}
	ob, err := e.state.GetObligation(marketID, borrower)
	if err != nil {
		return StatusCurrent, err
	}
	return classify(now, ob, e.cfg.GracePeriodSeconds, e.cfg.DelinquencySeconds), nil
}

// DebtOf converts the borrower's shares to assets at the market's current
// ratio. Callers wanting debt as of a later timestamp accrue first.
func (e *Engine) DebtOf(marketID string, borrower Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	market, err := e.loadMarket(marketID)
	if err != nil {
		return nil, err
	}
	position, err := e.state.GetPosition(marketID, borrower)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return big.NewInt(0), nil
	}
	return e.debtOf(market, position.Normalize()), nil
}

// MarkdownOf returns the provision currently applied against the borrower.
func (e *Engine) MarkdownOf(marketID string, borrower Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	md, err := e.state.GetMarkdown(marketID, borrower)
	if err != nil {
		return nil, err
	}
	if md == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(md), nil
}

// --- accrual internals ---

// accrue runs both accrual stages for the borrower and returns the refreshed
// position (nil when the borrower has none) and open obligation. Mutations
// stay in memory; callers persist after their own validation passes.
func (e *Engine) accrue(marketID string, market *Market, borrower Address, now uint64) (*Position, *Obligation, error) {
	baseInterest := e.accrueMarket(market, now)

	position, err := e.state.GetPosition(marketID, borrower)
	if err != nil {
		return nil, nil, err
	}
	ob, err := e.state.GetObligation(marketID, borrower)
	if err != nil {
		return nil, nil, err
	}
	if position == nil {
		return nil, ob, nil
	}
	position.Normalize()
	extra := e.accruePosition(market, position, ob, now)

	metrics.Credit().RecordAccrual(marketID, "base", bigToFloat(baseInterest))
	if extra.Sign() > 0 {
		metrics.Credit().RecordAccrual(marketID, "premium", bigToFloat(extra))
	}
	return position, ob, nil
}

// accrueMarket compounds the base rate into the aggregates over the interval
// since the market's last accrual. Interest raises total borrowed and total
// supplied by the same amount: lenders earn exactly what borrowers owe.
func (e *Engine) accrueMarket(market *Market, now uint64) *big.Int {
	if market == nil || now <= market.LastAccrualTime {
		return big.NewInt(0)
	}
	elapsed := now - market.LastAccrualTime
	market.LastAccrualTime = now
	if market.TotalBorrowAssets.Sign() == 0 || e.rateModel == nil {
		return big.NewInt(0)
	}
	rate := e.rateModel.PerSecondRateRay(market.TotalSupplyAssets, market.TotalBorrowAssets)
	growth := taylorCompound(rate, elapsed)
	interest := interestFor(market.TotalBorrowAssets, growth)
	if interest.Sign() > 0 {
		market.TotalBorrowAssets = new(big.Int).Add(market.TotalBorrowAssets, interest)
		market.TotalSupplyAssets = new(big.Int).Add(market.TotalSupplyAssets, interest)
	}
	return interest
}

// accruePosition compounds the borrower's premium, plus the penalty for any
// portion of the interval past the grace window. The extra debt mints borrow
// shares at the pre-accrual ratio so it lands on this borrower alone while
// still flowing into the market totals.
func (e *Engine) accruePosition(market *Market, position *Position, ob *Obligation, now uint64) *big.Int {
	if position == nil || now <= position.LastAccrualTime {
		return big.NewInt(0)
	}
	last := position.LastAccrualTime
	position.LastAccrualTime = now
	if position.BorrowShares.Sign() == 0 {
		return big.NewInt(0)
	}

	premiumRay := bpsToPerSecondRay(position.PremiumRateBps)
	penaltyRay := bpsToPerSecondRay(e.cfg.PenaltyRateBps)
	combinedRay := new(big.Int).Add(premiumRay, penaltyRay)

	// Penalty applies from the first delinquent second forward, never
	// retroactively, so the interval splits at the grace boundary.
	var growth *big.Int
	boundary := delinquencyStart(ob, e.cfg.GracePeriodSeconds)
	switch {
	case ob == nil || now <= boundary:
		growth = taylorCompound(premiumRay, now-last)
	case last >= boundary:
		growth = taylorCompound(combinedRay, now-last)
	default:
		before := taylorCompound(premiumRay, boundary-last)
		after := taylorCompound(combinedRay, now-boundary)
		// (1+a)(1+b)-1 composed in ray precision.
		growth = new(big.Int).Add(before, after)
		growth.Add(growth, mulDivDown(before, after, ray))
	}

	debt := e.debtOf(market, position)
	extra := interestFor(debt, growth)
	if extra.Sign() == 0 {
		return extra
	}
	mintedShares := toSharesUp(extra, market.TotalBorrowAssets, market.TotalBorrowShares)
	position.BorrowShares = new(big.Int).Add(position.BorrowShares, mintedShares)
	market.TotalBorrowShares = new(big.Int).Add(market.TotalBorrowShares, mintedShares)
	market.TotalBorrowAssets = new(big.Int).Add(market.TotalBorrowAssets, extra)
	market.TotalSupplyAssets = new(big.Int).Add(market.TotalSupplyAssets, extra)
	return extra
}

func (e *Engine) debtOf(market *Market, position *Position) *big.Int {
	if market == nil || position == nil || position.BorrowShares == nil || position.BorrowShares.Sign() == 0 {
		return big.NewInt(0)
	}
	return toAssetsUp(position.BorrowShares, market.TotalBorrowAssets, market.TotalBorrowShares)
}

func (e *Engine) availableLiquidity(market *Market) *big.Int {
	liquidity := new(big.Int).Sub(market.TotalSupplyAssets, market.TotalBorrowAssets)
	if liquidity.Sign() < 0 {
		return big.NewInt(0)
	}
	return liquidity
}

func (e *Engine) loadMarket(marketID string) (*Market, error) {
	marketID = strings.TrimSpace(marketID)
	if marketID == "" {
		return nil, ErrMarketNotFound
	}
	market, err := e.state.GetMarket(marketID)
	if err != nil {
		return nil, err
	}
	if market == nil {
		return nil, ErrMarketNotFound
	}
	return market.Normalize(), nil
}

func (e *Engine) requireAuthority(market *Market, caller Address) error {
	if market == nil || caller != market.CreditAuthority {
		return e.reject("not_authority", ErrNotAuthority)
	}
	return nil
}

func bigToFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
