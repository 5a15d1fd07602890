// Package constants holds the fixed-point unit constants shared by every
// math package in the pool engine.
package constants

import (
	ui "github.com/holiman/uint256"
)

var (
	Zero = new(ui.Int)
	One  = ui.NewInt(1)
	Two  = ui.NewInt(2)

	MaxUint256, _ = ui.FromHex("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	// Q64 is 2^64.
	Q64 = new(ui.Int).Lsh(One, 64)
	// Q96 is 2^96, the Q64.96 fixed-point unit used for sqrt prices.
	Q96 = new(ui.Int).Lsh(One, 96)
	// Q128 is 2^128, the Q128.128 fixed-point unit used for fee growth.
	Q128 = new(ui.Int).Lsh(One, 128)
	// Q192 is 2^192, used when squaring a Q96 sqrt price back to a plain price.
	Q192 = new(ui.Int).Lsh(One, 192)

	E6  = ui.NewInt(1_000_000)
	E18 = new(ui.Int).Exp(ui.NewInt(10), ui.NewInt(18))
)

// TickSpacings maps a fee tier (in hundredths of a bip, denominator 1e6) to
// the tick spacing the pool enforces for that tier. Mirrors the fee tiers a
// factory would hand out; this engine takes tickSpacing directly rather than
// owning the factory's tier table, but the map is kept for callers who only
// know the fee.
var TickSpacings = map[uint32]int32{
	100:   1,
	500:   10,
	3000:  60,
	10000: 200,
}

// MaxLiquidityPerTick returns the saturation cap on liquidityGross for a
// given tick spacing: the number of usable ticks divides evenly into the
// max uint128, bounding how much liquidity any single tick can reference.
func MaxLiquidityPerTick(tickSpacing int32) *ui.Int {
	numTicks := (887272/int64(tickSpacing))*2 + 1
	maxUint128 := new(ui.Int).Sub(new(ui.Int).Lsh(One, 128), One)
	return new(ui.Int).Div(maxUint128, ui.NewInt(uint64(numTicks)))
}
