// Package pool is the concentrated-liquidity state machine: it owns a
// pair's price, active liquidity, tick bookkeeping, positions, and TWAP
// observations, and exposes the mint/burn/collect/swap/flash operations a
// caller settles through callbacks.
//
// Builds on the core mint and swap-loop algorithms familiar from the
// reference protocol, backed by the position/ticktable/oracle packages
// instead of bare structs and a string-keyed position map, with a
// reentrancy guard, callback settlement, and event emission layered on
// top, and errors propagated everywhere instead of discarded or panicked.
package pool

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"

	"github.com/tricorn-fi/clmm-engine/lib/constants"
	"github.com/tricorn-fi/clmm-engine/lib/fullmath"
	"github.com/tricorn-fi/clmm-engine/lib/oracle"
	"github.com/tricorn-fi/clmm-engine/lib/poolerr"
	"github.com/tricorn-fi/clmm-engine/lib/position"
	"github.com/tricorn-fi/clmm-engine/lib/sqrtprice_math"
	"github.com/tricorn-fi/clmm-engine/lib/swapmath"
	"github.com/tricorn-fi/clmm-engine/lib/tickmath"
	"github.com/tricorn-fi/clmm-engine/lib/ticktable"
)

// TokenLike is what the pool needs from an ERC20-style balance sheet to
// settle mints, swaps, and flash loans: read its own balance, push tokens
// out to a recipient, and pull a prior payment back from one when the
// callback that was supposed to cover it fails.
type TokenLike interface {
	BalanceOf(owner common.Address) *ui.Int
	Transfer(to common.Address, amount *ui.Int) error
	// TransferFrom claws amount back from an address the pool already
	// paid, undoing a Transfer whose matching callback did not pay for
	// itself. There is no revert to fall back on outside the EVM, so the
	// pool has to reverse the leg it already sent by hand.
	TransferFrom(from common.Address, amount *ui.Int) error
}

// MintCallback lets the caller fund a mint after the pool has computed
// the amounts owed.
type MintCallback interface {
	UniswapV3MintCallback(amount0, amount1 *ui.Int, data []byte) error
}

// SwapCallback lets the caller fund a swap's input leg after the pool has
// already paid out the output leg.
type SwapCallback interface {
	UniswapV3SwapCallback(amount0, amount1 *ui.Int, data []byte) error
}

// FlashCallback lets the caller repay a flash loan plus its fee.
type FlashCallback interface {
	UniswapV3FlashCallback(fee0, fee1 *ui.Int, data []byte) error
}

// Slot0 bundles the pool's hottest-read state.
type Slot0 struct {
	SqrtPriceX96               *ui.Int
	Tick                       int32
	ObservationIndex           uint16
	ObservationCardinality     uint16
	ObservationCardinalityNext uint16
	Unlocked                   bool
}

// Pool is one token0/token1 concentrated-liquidity market.
type Pool struct {
	mu sync.Mutex

	Address       common.Address
	Token0Address common.Address
	Token1Address common.Address
	Token0        TokenLike
	Token1        TokenLike

	Fee         uint32
	TickSpacing int32

	Slot0 Slot0

	FeeGrowthGlobal0X128 *ui.Int
	FeeGrowthGlobal1X128 *ui.Int
	Liquidity            *ui.Int

	Ticks        *ticktable.Table
	Positions    *position.Table
	Observations *oracle.Buffer

	events []Event
}

// New constructs an uninitialized pool. Initialize must be called before
// any other operation.
func New(address, token0Address, token1Address common.Address, token0, token1 TokenLike, fee uint32, tickSpacing int32) *Pool {
	return &Pool{
		Address:              address,
		Token0Address:        token0Address,
		Token1Address:        token1Address,
		Token0:               token0,
		Token1:               token1,
		Fee:                  fee,
		TickSpacing:          tickSpacing,
		FeeGrowthGlobal0X128: new(ui.Int),
		FeeGrowthGlobal1X128: new(ui.Int),
		Liquidity:            new(ui.Int),
		Ticks:                ticktable.New(tickSpacing),
		Positions:            position.New(),
		Observations:         oracle.New(),
	}
}

// Initialize sets the pool's starting price and seeds its observation
// buffer. It may be called exactly once.
func (p *Pool) Initialize(sqrtPriceX96 *ui.Int, blockTimestamp uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Slot0.SqrtPriceX96 != nil {
		return poolerr.ErrAlreadyInitialized
	}

	tick, err := tickmath.GetTickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return err
	}

	cardinality, cardinalityNext := p.Observations.Initialize(blockTimestamp)
	p.Slot0 = Slot0{
		SqrtPriceX96:               sqrtPriceX96.Clone(),
		Tick:                       tick,
		ObservationIndex:           0,
		ObservationCardinality:     cardinality,
		ObservationCardinalityNext: cardinalityNext,
		Unlocked:                   true,
	}
	p.emit(InitializeEvent{SqrtPriceX96: sqrtPriceX96.Clone(), Tick: tick})
	return nil
}

func (p *Pool) currentTickCumulative(blockTimestamp uint32) int64 {
	cums, err := p.Observations.Observe(blockTimestamp, []uint32{0}, p.Slot0.Tick, p.Slot0.ObservationIndex, p.Slot0.ObservationCardinality)
	if err != nil {
		return 0
	}
	return cums[0]
}

// modifyPosition applies liquidityDelta (positive for mint, negative for
// burn) to a position's range, updating tick and global liquidity
// bookkeeping, and returns the token amounts owed for the change.
func (p *Pool) modifyPosition(owner common.Address, tickLower, tickUpper int32, liquidityDelta *ui.Int, blockTimestamp uint32) (position.Info, *ui.Int, *ui.Int, error) {
	if tickLower >= tickUpper {
		return position.Info{}, nil, nil, poolerr.ErrInvalidTickRange
	}
	if tickLower < tickmath.MinTick || tickUpper > tickmath.MaxTick {
		return position.Info{}, nil, nil, poolerr.ErrInvalidTickRange
	}
	if tickLower%p.TickSpacing != 0 || tickUpper%p.TickSpacing != 0 {
		return position.Info{}, nil, nil, poolerr.ErrInvalidTickRange
	}

	tick := p.Slot0.Tick
	tickCumulative := p.currentTickCumulative(blockTimestamp)

	if _, err := p.Ticks.Update(tickLower, tick, liquidityDelta, p.FeeGrowthGlobal0X128, p.FeeGrowthGlobal1X128, tickCumulative, false); err != nil {
		return position.Info{}, nil, nil, err
	}
	if _, err := p.Ticks.Update(tickUpper, tick, liquidityDelta, p.FeeGrowthGlobal0X128, p.FeeGrowthGlobal1X128, tickCumulative, true); err != nil {
		return position.Info{}, nil, nil, err
	}

	feeGrowthInside0, feeGrowthInside1 := p.Ticks.GetFeeGrowthInside(tickLower, tickUpper, tick, p.FeeGrowthGlobal0X128, p.FeeGrowthGlobal1X128)

	info, err := p.Positions.Update(owner, tickLower, tickUpper, liquidityDelta, feeGrowthInside0, feeGrowthInside1)
	if err != nil {
		return position.Info{}, nil, nil, err
	}

	sqrtLower, err := tickmath.GetSqrtRatioAtTick(tickLower)
	if err != nil {
		return position.Info{}, nil, nil, err
	}
	sqrtUpper, err := tickmath.GetSqrtRatioAtTick(tickUpper)
	if err != nil {
		return position.Info{}, nil, nil, err
	}

	var amount0, amount1 *ui.Int
	switch {
	case tick < tickLower:
		amount0, err = sqrtprice_math.GetAmount0DeltaSigned(sqrtLower, sqrtUpper, liquidityDelta)
		amount1 = new(ui.Int)
	case tick < tickUpper:
		amount0, err = sqrtprice_math.GetAmount0DeltaSigned(p.Slot0.SqrtPriceX96, sqrtUpper, liquidityDelta)
		if err == nil {
			amount1, err = sqrtprice_math.GetAmount1DeltaSigned(sqrtLower, p.Slot0.SqrtPriceX96, liquidityDelta)
		}
		if err == nil {
			liquidityNext := new(ui.Int).Add(p.Liquidity, liquidityDelta)
			if liquidityDelta.Sign() < 0 && p.Liquidity.Cmp(new(ui.Int).Neg(liquidityDelta)) < 0 {
				return position.Info{}, nil, nil, poolerr.ErrNotEnoughLiquidity
			}
			p.Liquidity = liquidityNext
		}
	default:
		amount0 = new(ui.Int)
		amount1, err = sqrtprice_math.GetAmount1DeltaSigned(sqrtLower, sqrtUpper, liquidityDelta)
	}
	if err != nil {
		return position.Info{}, nil, nil, err
	}

	return info, amount0, amount1, nil
}

// Mint credits recipient's position with amount of liquidity across
// [tickLower, tickUpper), then invokes callback so the caller can pay the
// computed amount0/amount1. It fails if the callback does not leave the
// pool's balances at least that much larger.
func (p *Pool) Mint(recipient common.Address, tickLower, tickUpper int32, amount *ui.Int, blockTimestamp uint32, callback MintCallback, data []byte) (*ui.Int, *ui.Int, error) {
	if amount.Sign() <= 0 {
		return nil, nil, poolerr.ErrZeroLiquidity
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// modifyPosition mutates Ticks, Positions, and Liquidity directly, but
	// the callback below can still fail to pay: snapshot all three so a
	// failed mint leaves no state change, per the all-or-nothing invariant.
	ticksBefore := p.Ticks.Clone()
	positionsBefore := p.Positions.Clone()
	liquidityBefore := p.Liquidity.Clone()
	rollback := func() { p.Ticks, p.Positions, p.Liquidity = ticksBefore, positionsBefore, liquidityBefore }

	_, amount0, amount1, err := p.modifyPosition(recipient, tickLower, tickUpper, amount, blockTimestamp)
	if err != nil {
		rollback()
		return nil, nil, err
	}

	balance0Before, balance1Before := new(ui.Int), new(ui.Int)
	if amount0.Sign() > 0 {
		balance0Before = p.Token0.BalanceOf(p.Address)
	}
	if amount1.Sign() > 0 {
		balance1Before = p.Token1.BalanceOf(p.Address)
	}

	if err := callback.UniswapV3MintCallback(amount0, amount1, data); err != nil {
		rollback()
		return nil, nil, err
	}

	if amount0.Sign() > 0 && p.Token0.BalanceOf(p.Address).Cmp(new(ui.Int).Add(balance0Before, amount0)) < 0 {
		rollback()
		return nil, nil, poolerr.ErrInsufficientInputAmount
	}
	if amount1.Sign() > 0 && p.Token1.BalanceOf(p.Address).Cmp(new(ui.Int).Add(balance1Before, amount1)) < 0 {
		rollback()
		return nil, nil, poolerr.ErrInsufficientInputAmount
	}

	p.emit(MintEvent{Owner: recipient, TickLower: tickLower, TickUpper: tickUpper, Amount: amount.Clone(), Amount0: amount0.Clone(), Amount1: amount1.Clone()})
	return amount0, amount1, nil
}

// Burn removes amount of liquidity from owner's position, banking the
// freed principal (plus any fees already accrued) as tokens owed. It does
// not transfer anything; call Collect to withdraw.
func (p *Pool) Burn(owner common.Address, tickLower, tickUpper int32, amount *ui.Int, blockTimestamp uint32) (*ui.Int, *ui.Int, error) {
	if amount.Sign() <= 0 {
		return nil, nil, poolerr.ErrZeroLiquidity
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ticksBefore := p.Ticks.Clone()
	positionsBefore := p.Positions.Clone()
	liquidityBefore := p.Liquidity.Clone()
	rollback := func() { p.Ticks, p.Positions, p.Liquidity = ticksBefore, positionsBefore, liquidityBefore }

	negated := new(ui.Int).Neg(amount)
	_, amount0Signed, amount1Signed, err := p.modifyPosition(owner, tickLower, tickUpper, negated, blockTimestamp)
	if err != nil {
		rollback()
		return nil, nil, err
	}
	amount0 := new(ui.Int).Neg(amount0Signed)
	amount1 := new(ui.Int).Neg(amount1Signed)

	if amount0.Sign() > 0 || amount1.Sign() > 0 {
		if _, err := p.Positions.CreditOwed(owner, tickLower, tickUpper, amount0, amount1); err != nil {
			rollback()
			return nil, nil, err
		}
	}

	p.emit(BurnEvent{Owner: owner, TickLower: tickLower, TickUpper: tickUpper, Amount: amount.Clone(), Amount0: amount0, Amount1: amount1})
	return amount0, amount1, nil
}

// Collect withdraws up to (amount0Requested, amount1Requested) of a
// position's owed tokens to recipient.
func (p *Pool) Collect(recipient, owner common.Address, tickLower, tickUpper int32, amount0Requested, amount1Requested *ui.Int) (*ui.Int, *ui.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	positionsBefore := p.Positions.Clone()
	amount0, amount1, err := p.Positions.Collect(owner, tickLower, tickUpper, amount0Requested, amount1Requested)
	if err != nil {
		return nil, nil, err
	}

	if amount0.Sign() > 0 {
		if err := p.Token0.Transfer(recipient, amount0); err != nil {
			p.Positions = positionsBefore
			return nil, nil, err
		}
	}
	if amount1.Sign() > 0 {
		if err := p.Token1.Transfer(recipient, amount1); err != nil {
			if amount0.Sign() > 0 {
				_ = p.Token0.TransferFrom(recipient, amount0)
			}
			p.Positions = positionsBefore
			return nil, nil, err
		}
	}

	p.emit(CollectEvent{Owner: owner, Recipient: recipient, TickLower: tickLower, TickUpper: tickUpper, Amount0: amount0, Amount1: amount1})
	return amount0, amount1, nil
}

type swapState struct {
	amountSpecifiedRemaining *ui.Int
	amountCalculated         *ui.Int
	sqrtPriceX96             *ui.Int
	tick                     int32
	feeGrowthGlobalX128      *ui.Int
	liquidity                *ui.Int
}

// Swap executes an exact-input trade in the given direction, walking
// across initialized ticks until amountSpecified is consumed or
// sqrtPriceLimitX96 is reached, then invokes callback so the caller can
// pay the input leg (the output leg is paid up front).
func (p *Pool) Swap(recipient common.Address, zeroForOne bool, amountSpecified *ui.Int, sqrtPriceLimitX96 *ui.Int, blockTimestamp uint32, callback SwapCallback, data []byte) (*ui.Int, *ui.Int, error) {
	if amountSpecified.Sign() <= 0 {
		return nil, nil, poolerr.ErrInsufficientInputAmount
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Slot0.SqrtPriceX96 == nil {
		return nil, nil, poolerr.ErrNotEnoughLiquidity
	}
	slot0Start := p.Slot0

	if zeroForOne {
		if sqrtPriceLimitX96.Cmp(slot0Start.SqrtPriceX96) >= 0 || sqrtPriceLimitX96.Cmp(tickmath.MinSqrtRatio) <= 0 {
			return nil, nil, poolerr.ErrInvalidPriceLimit
		}
	} else {
		if sqrtPriceLimitX96.Cmp(slot0Start.SqrtPriceX96) <= 0 || sqrtPriceLimitX96.Cmp(tickmath.MaxSqrtRatio) >= 0 {
			return nil, nil, poolerr.ErrInvalidPriceLimit
		}
	}

	feeGrowthGlobalX128 := p.FeeGrowthGlobal0X128.Clone()
	if !zeroForOne {
		feeGrowthGlobalX128 = p.FeeGrowthGlobal1X128.Clone()
	}

	state := swapState{
		amountSpecifiedRemaining: amountSpecified.Clone(),
		amountCalculated:         new(ui.Int),
		sqrtPriceX96:             slot0Start.SqrtPriceX96.Clone(),
		tick:                     slot0Start.Tick,
		feeGrowthGlobalX128:      feeGrowthGlobalX128,
		liquidity:                p.Liquidity.Clone(),
	}

	// The walk crosses ticks and mutates their fee-growth-outside snapshots
	// as it goes, before the callback below has proven the swap's input
	// leg actually gets paid. Walk a working copy so a failed swap leaves
	// Ticks untouched; it only replaces p.Ticks once the swap has settled.
	ticks := p.Ticks.Clone()

	var latestTickCumulative int64
	var computedLatestObservation bool

	for !state.amountSpecifiedRemaining.IsZero() && state.sqrtPriceX96.Cmp(sqrtPriceLimitX96) != 0 {
		sqrtPriceStartX96 := state.sqrtPriceX96

		tickNext, initialized := ticks.NextInitializedTickWithinOneWord(state.tick, zeroForOne)
		if tickNext < tickmath.MinTick {
			tickNext = tickmath.MinTick
		} else if tickNext > tickmath.MaxTick {
			tickNext = tickmath.MaxTick
		}

		boundaryPriceX96, err := tickmath.GetSqrtRatioAtTick(tickNext)
		if err != nil {
			return nil, nil, err
		}

		target := boundaryPriceX96
		if zeroForOne {
			if boundaryPriceX96.Cmp(sqrtPriceLimitX96) < 0 {
				target = sqrtPriceLimitX96
			}
		} else {
			if boundaryPriceX96.Cmp(sqrtPriceLimitX96) > 0 {
				target = sqrtPriceLimitX96
			}
		}

		step, err := swapmath.ComputeSwapStep(state.sqrtPriceX96, target, state.liquidity, state.amountSpecifiedRemaining, p.Fee)
		if err != nil {
			return nil, nil, err
		}
		state.sqrtPriceX96 = step.SqrtRatioNextX96
		state.amountSpecifiedRemaining = new(ui.Int).Sub(state.amountSpecifiedRemaining, new(ui.Int).Add(step.AmountIn, step.FeeAmount))
		state.amountCalculated = new(ui.Int).Sub(state.amountCalculated, step.AmountOut)

		if state.liquidity.Sign() > 0 {
			feeDelta, err := fullmath.MulDiv(step.FeeAmount, constants.Q128, state.liquidity)
			if err != nil {
				return nil, nil, err
			}
			state.feeGrowthGlobalX128 = new(ui.Int).Add(state.feeGrowthGlobalX128, feeDelta)
		}

		if state.sqrtPriceX96.Cmp(boundaryPriceX96) == 0 {
			if initialized {
				if !computedLatestObservation {
					cums, err := p.Observations.Observe(blockTimestamp, []uint32{0}, slot0Start.Tick, slot0Start.ObservationIndex, slot0Start.ObservationCardinality)
					if err != nil {
						return nil, nil, err
					}
					latestTickCumulative = cums[0]
					computedLatestObservation = true
				}

				var fg0, fg1 *ui.Int
				if zeroForOne {
					fg0, fg1 = state.feeGrowthGlobalX128, p.FeeGrowthGlobal1X128
				} else {
					fg0, fg1 = p.FeeGrowthGlobal0X128, state.feeGrowthGlobalX128
				}
				liquidityNet := ticks.Cross(tickNext, fg0, fg1, latestTickCumulative)
				if zeroForOne {
					liquidityNet = new(ui.Int).Neg(liquidityNet)
				}
				if liquidityNet.Sign() < 0 && state.liquidity.Cmp(new(ui.Int).Neg(liquidityNet)) < 0 {
					return nil, nil, poolerr.ErrNotEnoughLiquidity
				}
				state.liquidity = new(ui.Int).Add(state.liquidity, liquidityNet)
			}
			if zeroForOne {
				state.tick = tickNext - 1
			} else {
				state.tick = tickNext
			}
		} else if state.sqrtPriceX96.Cmp(sqrtPriceStartX96) != 0 {
			state.tick, err = tickmath.GetTickAtSqrtRatio(state.sqrtPriceX96)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	// Nothing above this point has touched p yet; commit only fires once
	// the output leg is confirmed paid for below, so a failed swap leaves
	// Slot0, Liquidity, FeeGrowthGlobal, and Ticks exactly as they were.
	commit := func() {
		if state.tick != slot0Start.Tick {
			newIndex, newCardinality := p.Observations.Write(slot0Start.ObservationIndex, blockTimestamp, slot0Start.Tick, slot0Start.ObservationCardinality, slot0Start.ObservationCardinalityNext)
			p.Slot0.ObservationIndex = newIndex
			p.Slot0.ObservationCardinality = newCardinality
		}
		p.Slot0.SqrtPriceX96 = state.sqrtPriceX96
		p.Slot0.Tick = state.tick
		p.Liquidity = state.liquidity
		p.Ticks = ticks

		if zeroForOne {
			p.FeeGrowthGlobal0X128 = state.feeGrowthGlobalX128
		} else {
			p.FeeGrowthGlobal1X128 = state.feeGrowthGlobalX128
		}
	}

	amount0, amount1 := new(ui.Int), new(ui.Int)
	if zeroForOne {
		amount0.Sub(amountSpecified, state.amountSpecifiedRemaining)
		amount1.Set(state.amountCalculated)
	} else {
		amount1.Sub(amountSpecified, state.amountSpecifiedRemaining)
		amount0.Set(state.amountCalculated)
	}

	// The output leg has to reach recipient before the callback fires, so
	// a flash swap can use it before paying the input leg back. If the
	// callback then fails to pay, or underpays, that output leg is
	// clawed back through TransferFrom rather than left gone for good.
	if zeroForOne {
		outputPaid := amount1.Sign() < 0
		if outputPaid {
			if err := p.Token1.Transfer(recipient, new(ui.Int).Neg(amount1)); err != nil {
				return nil, nil, err
			}
		}
		balance0Before := p.Token0.BalanceOf(p.Address)
		if err := callback.UniswapV3SwapCallback(amount0, amount1, data); err != nil {
			if outputPaid {
				_ = p.Token1.TransferFrom(recipient, new(ui.Int).Neg(amount1))
			}
			return nil, nil, err
		}
		if p.Token0.BalanceOf(p.Address).Cmp(new(ui.Int).Add(balance0Before, amount0)) < 0 {
			if outputPaid {
				_ = p.Token1.TransferFrom(recipient, new(ui.Int).Neg(amount1))
			}
			return nil, nil, poolerr.ErrInsufficientInputAmount
		}
	} else {
		outputPaid := amount0.Sign() < 0
		if outputPaid {
			if err := p.Token0.Transfer(recipient, new(ui.Int).Neg(amount0)); err != nil {
				return nil, nil, err
			}
		}
		balance1Before := p.Token1.BalanceOf(p.Address)
		if err := callback.UniswapV3SwapCallback(amount0, amount1, data); err != nil {
			if outputPaid {
				_ = p.Token0.TransferFrom(recipient, new(ui.Int).Neg(amount0))
			}
			return nil, nil, err
		}
		if p.Token1.BalanceOf(p.Address).Cmp(new(ui.Int).Add(balance1Before, amount1)) < 0 {
			if outputPaid {
				_ = p.Token0.TransferFrom(recipient, new(ui.Int).Neg(amount0))
			}
			return nil, nil, poolerr.ErrInsufficientInputAmount
		}
	}

	commit()
	p.emit(SwapEvent{Recipient: recipient, Amount0: amount0, Amount1: amount1, SqrtPriceX96: state.sqrtPriceX96.Clone(), Liquidity: state.liquidity.Clone(), Tick: state.tick})
	return amount0, amount1, nil
}

// Flash lends amount0/amount1 to recipient, then invokes callback to
// collect a fee proportional to p.Fee. The fee is credited to liquidity
// providers via the fee-growth accumulators once repaid, per the
// borrower's actual paid amount rather than the nominal fee, matching
// how the reference protocol lets a borrower overpay.
func (p *Pool) Flash(recipient common.Address, amount0, amount1 *ui.Int, callback FlashCallback, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Liquidity.IsZero() {
		return poolerr.ErrNotEnoughLiquidity
	}

	fee0, err := fullmath.MulDivRoundingUp(amount0, ui.NewInt(uint64(p.Fee)), constants.E6)
	if err != nil {
		return err
	}
	fee1, err := fullmath.MulDivRoundingUp(amount1, ui.NewInt(uint64(p.Fee)), constants.E6)
	if err != nil {
		return err
	}

	balance0Before := p.Token0.BalanceOf(p.Address)
	balance1Before := p.Token1.BalanceOf(p.Address)

	if amount0.Sign() > 0 {
		if err := p.Token0.Transfer(recipient, amount0); err != nil {
			return err
		}
	}
	if amount1.Sign() > 0 {
		if err := p.Token1.Transfer(recipient, amount1); err != nil {
			return err
		}
	}

	clawBackPrincipal := func() {
		if amount0.Sign() > 0 {
			_ = p.Token0.TransferFrom(recipient, amount0)
		}
		if amount1.Sign() > 0 {
			_ = p.Token1.TransferFrom(recipient, amount1)
		}
	}

	if err := callback.UniswapV3FlashCallback(fee0, fee1, data); err != nil {
		clawBackPrincipal()
		return err
	}

	balance0After := p.Token0.BalanceOf(p.Address)
	balance1After := p.Token1.BalanceOf(p.Address)

	if balance0After.Cmp(new(ui.Int).Add(balance0Before, fee0)) < 0 || balance1After.Cmp(new(ui.Int).Add(balance1Before, fee1)) < 0 {
		clawBackPrincipal()
		return poolerr.ErrFlashLoanNotPaid
	}

	paid0 := new(ui.Int).Sub(balance0After, balance0Before)
	paid1 := new(ui.Int).Sub(balance1After, balance1Before)

	if paid0.Sign() > 0 {
		delta, err := fullmath.MulDiv(paid0, constants.Q128, p.Liquidity)
		if err != nil {
			return err
		}
		p.FeeGrowthGlobal0X128 = new(ui.Int).Add(p.FeeGrowthGlobal0X128, delta)
	}
	if paid1.Sign() > 0 {
		delta, err := fullmath.MulDiv(paid1, constants.Q128, p.Liquidity)
		if err != nil {
			return err
		}
		p.FeeGrowthGlobal1X128 = new(ui.Int).Add(p.FeeGrowthGlobal1X128, delta)
	}

	p.emit(FlashEvent{Recipient: recipient, Amount0: amount0.Clone(), Amount1: amount1.Clone(), Paid0: paid0, Paid1: paid1})
	return nil
}

// IncreaseObservationCardinalityNext reserves additional observation
// slots so a future write can grow into them without a torn cardinality
// bump mid-write.
func (p *Pool) IncreaseObservationCardinalityNext(next uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if next <= p.Slot0.ObservationCardinalityNext {
		return
	}
	old := p.Slot0.ObservationCardinalityNext
	p.Slot0.ObservationCardinalityNext = p.Observations.Grow(old, next)
	p.emit(IncreaseObservationCardinalityNextEvent{ObservationCardinalityNextOld: old, ObservationCardinalityNextNew: p.Slot0.ObservationCardinalityNext})
}

// Observe returns the tick-cumulative observed secondsAgo[i] seconds
// before blockTimestamp, for each entry in secondsAgos.
func (p *Pool) Observe(blockTimestamp uint32, secondsAgos []uint32) ([]int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Observations.Observe(blockTimestamp, secondsAgos, p.Slot0.Tick, p.Slot0.ObservationIndex, p.Slot0.ObservationCardinality)
}

// GetSlot0 returns a copy of the pool's Slot0.
func (p *Pool) GetSlot0() Slot0 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Slot0
}

// GetLiquidity returns the pool's currently active liquidity.
func (p *Pool) GetLiquidity() *ui.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Liquidity.Clone()
}

// GetTick returns a copy of a tick's stored info.
func (p *Pool) GetTick(tick int32) ticktable.Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Ticks.Get(tick)
}

// GetPosition returns a copy of a position's stored info.
func (p *Pool) GetPosition(owner common.Address, tickLower, tickUpper int32) position.Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Positions.Get(owner, tickLower, tickUpper)
}

// DrainEvents returns and clears the events emitted since the last drain.
func (p *Pool) DrainEvents() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	events := p.events
	p.events = nil
	return events
}
