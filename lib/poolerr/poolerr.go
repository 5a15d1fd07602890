// Package poolerr defines the sentinel errors the pool engine can fail
// with. Every public operation either succeeds with no partial state
// mutation or fails with one of these. Call sites return the sentinels
// as they are, without added context, so callers discriminate with
// errors.Is.
package poolerr

import "github.com/pkg/errors"

var (
	// ErrInvalidTickRange covers lower >= upper, out-of-bounds ticks, and
	// ticks not aligned to tickSpacing.
	ErrInvalidTickRange = errors.New("invalid tick range")

	// ErrZeroLiquidity is returned when a mint amount is zero.
	ErrZeroLiquidity = errors.New("zero liquidity")

	// ErrAlreadyInitialized is returned when Initialize is called on a
	// pool that already has a nonzero sqrt price.
	ErrAlreadyInitialized = errors.New("pool already initialized")

	// ErrInvalidPriceLimit is returned when a swap's sqrtPriceLimitX96
	// lies on the wrong side of the current price, or outside the
	// absolute tick bounds.
	ErrInvalidPriceLimit = errors.New("invalid sqrt price limit")

	// ErrNotEnoughLiquidity is returned when crossing a tick or burning
	// would take active or position liquidity below zero, and when a
	// flash loan or a price step needs active liquidity the pool lacks.
	ErrNotEnoughLiquidity = errors.New("not enough liquidity")

	// ErrInsufficientInputAmount is returned when a mint or swap callback
	// fails to deliver the amount owed to the pool.
	ErrInsufficientInputAmount = errors.New("insufficient input amount")

	// ErrFlashLoanNotPaid is returned when a flash callback fails to
	// repay principal plus fee.
	ErrFlashLoanNotPaid = errors.New("flash loan not paid")

	// ErrOverflow marks a fixed-point operation whose result cannot be
	// represented in 256 bits.
	ErrOverflow = errors.New("fixed point overflow")

	// ErrOld is returned by the oracle when a requested observation
	// predates the oldest initialized slot in the ring.
	ErrOld = errors.New("observation older than oldest recorded")

	// ErrPositionNotFound is returned when collecting against a position
	// that was never minted.
	ErrPositionNotFound = errors.New("position not found")
)
