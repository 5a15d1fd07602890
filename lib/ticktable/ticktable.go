// Package ticktable holds the per-tick liquidity and fee-growth-outside
// bookkeeping the pool consults on every mint, burn, and swap-step tick
// crossing.
//
// Keys ticks directly by index in a map, since a real pool's touched-tick
// set is sparse but not scanned in order the way a sorted-slice search
// would want, and delegates "is this tick initialized" bookkeeping to
// lib/tickbitmap so the bit-set-iff-initialized invariant lives in one place.
package ticktable

import (
	ui "github.com/holiman/uint256"

	"github.com/tricorn-fi/clmm-engine/lib/constants"
	"github.com/tricorn-fi/clmm-engine/lib/poolerr"
	"github.com/tricorn-fi/clmm-engine/lib/tickbitmap"
)

// Info is the per-tick state: gross liquidity (a reference count of
// absolute range-endpoint contributions), net liquidity to apply when
// crossing left-to-right, and the fee-growth/tick-cumulative snapshots
// taken "outside" this tick the last time it was crossed.
type Info struct {
	LiquidityGross       *ui.Int
	LiquidityNet         *ui.Int // two's-complement signed
	FeeGrowthOutside0X128 *ui.Int
	FeeGrowthOutside1X128 *ui.Int
	TickCumulativeOutside int64
	Initialized           bool
}

func newInfo() *Info {
	return &Info{
		LiquidityGross:        new(ui.Int),
		LiquidityNet:          new(ui.Int),
		FeeGrowthOutside0X128: new(ui.Int),
		FeeGrowthOutside1X128: new(ui.Int),
	}
}

func (i *Info) clone() *Info {
	return &Info{
		LiquidityGross:        i.LiquidityGross.Clone(),
		LiquidityNet:          i.LiquidityNet.Clone(),
		FeeGrowthOutside0X128: i.FeeGrowthOutside0X128.Clone(),
		FeeGrowthOutside1X128: i.FeeGrowthOutside1X128.Clone(),
		TickCumulativeOutside: i.TickCumulativeOutside,
		Initialized:           i.Initialized,
	}
}

// Table is the pool's full set of touched ticks plus the bitmap tracking
// which of them are currently initialized.
type Table struct {
	ticks                map[int32]*Info
	bitmap               *tickbitmap.Bitmap
	tickSpacing          int32
	maxLiquidityPerTick  *ui.Int
}

// New returns an empty tick table for the given tick spacing.
func New(tickSpacing int32) *Table {
	return &Table{
		ticks:               make(map[int32]*Info),
		bitmap:              tickbitmap.New(),
		tickSpacing:         tickSpacing,
		maxLiquidityPerTick: constants.MaxLiquidityPerTick(tickSpacing),
	}
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	ticks := make(map[int32]*Info, len(t.ticks))
	for k, v := range t.ticks {
		ticks[k] = v.clone()
	}
	return &Table{
		ticks:               ticks,
		bitmap:              t.bitmap.Clone(),
		tickSpacing:         t.tickSpacing,
		maxLiquidityPerTick: t.maxLiquidityPerTick,
	}
}

// Get returns a copy of the info stored at tick, or a zero Info with
// initialized=false if the tick has never been touched or was cleared.
func (t *Table) Get(tick int32) Info {
	info, ok := t.ticks[tick]
	if !ok {
		return Info{LiquidityGross: new(ui.Int), LiquidityNet: new(ui.Int), FeeGrowthOutside0X128: new(ui.Int), FeeGrowthOutside1X128: new(ui.Int)}
	}
	return *info.clone()
}

// Bitmap exposes the underlying bitmap for the pool's swap loop.
func (t *Table) Bitmap() *tickbitmap.Bitmap { return t.bitmap }

// Update applies liquidityDelta to tick's gross and net liquidity. For a
// lower tick the delta adds directly to liquidityNet; for an upper tick it
// subtracts. Returns flipped=true iff liquidityGross transitioned to/from
// zero, in which case Update has already toggled the tick's bitmap bit.
func (t *Table) Update(
	tick, tickCurrent int32,
	liquidityDelta *ui.Int,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 *ui.Int,
	tickCumulative int64,
	upper bool,
) (flipped bool, err error) {
	info, ok := t.ticks[tick]
	if !ok {
		info = newInfo()
	}

	liquidityGrossBefore := info.LiquidityGross.Clone()
	liquidityGrossAfter := addSigned(liquidityGrossBefore, liquidityDelta)
	if liquidityGrossAfter.Cmp(t.maxLiquidityPerTick) > 0 {
		return false, poolerr.ErrOverflow
	}

	flipped = liquidityGrossBefore.IsZero() != liquidityGrossAfter.IsZero()

	if liquidityGrossBefore.IsZero() {
		// First touch: ticks at or below the current price inherit the
		// global growth so far as their "outside" snapshot; ticks above
		// start at zero, since price hasn't crossed them yet.
		if tick <= tickCurrent {
			info.FeeGrowthOutside0X128 = feeGrowthGlobal0X128.Clone()
			info.FeeGrowthOutside1X128 = feeGrowthGlobal1X128.Clone()
			info.TickCumulativeOutside = tickCumulative
		}
		info.Initialized = true
	}

	info.LiquidityGross = liquidityGrossAfter
	if upper {
		info.LiquidityNet = new(ui.Int).Sub(info.LiquidityNet, liquidityDelta)
	} else {
		info.LiquidityNet = new(ui.Int).Add(info.LiquidityNet, liquidityDelta)
	}

	if liquidityGrossAfter.IsZero() {
		delete(t.ticks, tick)
	} else {
		t.ticks[tick] = info
	}

	if flipped {
		t.bitmap.FlipTick(tick, t.tickSpacing)
	}
	return flipped, nil
}

// addSigned adds a two's-complement signed delta to an unsigned
// accumulator, returning the unsigned result. Both liquidityGross values
// are always non-negative in a well-formed pool; delta may be negative on
// a burn.
func addSigned(base, delta *ui.Int) *ui.Int {
	return new(ui.Int).Add(base, delta)
}

// Cross flips tick's fee-growth-outside and tick-cumulative-outside
// snapshots to (global - outside) and returns the tick's current
// liquidityNet, which the swap loop adds (or subtracts, when moving
// leftward) to the pool's active liquidity.
func (t *Table) Cross(tick int32, feeGrowthGlobal0X128, feeGrowthGlobal1X128 *ui.Int, tickCumulative int64) *ui.Int {
	info, ok := t.ticks[tick]
	if !ok {
		return new(ui.Int)
	}
	info.FeeGrowthOutside0X128 = new(ui.Int).Sub(feeGrowthGlobal0X128, info.FeeGrowthOutside0X128)
	info.FeeGrowthOutside1X128 = new(ui.Int).Sub(feeGrowthGlobal1X128, info.FeeGrowthOutside1X128)
	info.TickCumulativeOutside = tickCumulative - info.TickCumulativeOutside
	return info.LiquidityNet.Clone()
}

// GetFeeGrowthInside computes the fee growth accrued per unit of liquidity
// inside [lower, upper) given the current tick and the global fee growth
// accumulators, using each boundary tick's outside snapshot. Subtraction
// is modular (wraps at 2^256), by design.
func (t *Table) GetFeeGrowthInside(lower, upper, tickCurrent int32, feeGrowthGlobal0X128, feeGrowthGlobal1X128 *ui.Int) (inside0, inside1 *ui.Int) {
	lowerInfo := t.Get(lower)
	upperInfo := t.Get(upper)

	var below0, below1 *ui.Int
	if tickCurrent >= lower {
		below0, below1 = lowerInfo.FeeGrowthOutside0X128, lowerInfo.FeeGrowthOutside1X128
	} else {
		below0 = new(ui.Int).Sub(feeGrowthGlobal0X128, lowerInfo.FeeGrowthOutside0X128)
		below1 = new(ui.Int).Sub(feeGrowthGlobal1X128, lowerInfo.FeeGrowthOutside1X128)
	}

	var above0, above1 *ui.Int
	if tickCurrent < upper {
		above0, above1 = upperInfo.FeeGrowthOutside0X128, upperInfo.FeeGrowthOutside1X128
	} else {
		above0 = new(ui.Int).Sub(feeGrowthGlobal0X128, upperInfo.FeeGrowthOutside0X128)
		above1 = new(ui.Int).Sub(feeGrowthGlobal1X128, upperInfo.FeeGrowthOutside1X128)
	}

	inside0 = new(ui.Int).Sub(new(ui.Int).Sub(feeGrowthGlobal0X128, below0), above0)
	inside1 = new(ui.Int).Sub(new(ui.Int).Sub(feeGrowthGlobal1X128, below1), above1)
	return inside0, inside1
}

// NextInitializedTickWithinOneWord delegates to the bitmap. The result is
// not clamped to the absolute tick bounds; a word boundary can lie past
// MinTick/MaxTick.
func (t *Table) NextInitializedTickWithinOneWord(tick int32, lte bool) (int32, bool) {
	return t.bitmap.NextInitializedTickWithinOneWord(tick, t.tickSpacing, lte)
}
