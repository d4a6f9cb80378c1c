package credit

import "errors"

var (
	ErrNilState              = errors.New("credit engine: state not configured")
	ErrNilSettlement         = errors.New("credit engine: settlement layer not configured")
	ErrMarketNotFound        = errors.New("credit engine: market not initialised")
	ErrMarketExists          = errors.New("credit engine: market already exists")
	ErrInvalidAmount         = errors.New("credit engine: amount must be positive")
	ErrNotAuthority          = errors.New("credit engine: caller is not the credit authority")
	ErrNoCreditLine          = errors.New("credit engine: borrower has no credit line")
	ErrCreditLimit           = errors.New("credit engine: borrow exceeds credit limit")
	ErrInsufficientLiquidity = errors.New("credit engine: insufficient liquidity")
	ErrInsufficientShares    = errors.New("credit engine: insufficient supply shares")
	ErrNoDebt                = errors.New("credit engine: no outstanding debt")
	ErrCycleOrder            = errors.New("credit engine: cycle end must be after the previous cycle")
	ErrCycleTooSoon          = errors.New("credit engine: cycle duration has not elapsed")
	ErrLengthMismatch        = errors.New("credit engine: borrower and schedule lengths differ")
	ErrDuplicateBorrower     = errors.New("credit engine: borrower listed more than once")
	ErrMustPayFullObligation = errors.New("credit engine: partial obligation payment rejected")
	ErrUnresolvedObligation  = errors.New("credit engine: borrower has an unresolved obligation past grace")
	ErrMarkdownNotDefaulted  = errors.New("credit engine: markdown requires default status")
	ErrTimeReversal          = errors.New("credit engine: timestamp precedes last accrual")
)
