// Package tickmath implements the bijection between integer ticks and
// Q64.96 sqrt prices: sqrtP = 1.0001^(tick/2) * 2^96.
//
// Precomputes every tick's sqrt ratio into a lookup table at package init
// and binary-searches it for the inverse. This shape makes GetTickAtSqrtRatio
// exact by construction rather than approximate-then-correct, at the cost
// of ~57MB resident for the full [-887272, 887272] range, acceptable for a
// long-lived pool process.
package tickmath

import (
	"math/big"

	ui "github.com/holiman/uint256"

	"github.com/tricorn-fi/clmm-engine/lib/constants"
	"github.com/tricorn-fi/clmm-engine/lib/poolerr"
)

const (
	// MinTick is the minimum tick usable on any pool.
	MinTick int32 = -887272
	// MaxTick is the maximum tick usable on any pool.
	MaxTick int32 = -MinTick
	// TotalTicks is the number of representable ticks, inclusive.
	TotalTicks int = int(MaxTick-MinTick) + 1
)

var (
	Q32 = ui.NewInt(1 << 32)

	// MinSqrtRatio is the sqrt ratio at MinTick.
	MinSqrtRatio = ui.NewInt(4295128739)
	// MaxSqrtRatio is the sqrt ratio at MaxTick.
	MaxSqrtRatio = mustFromDecimal("1461446703485210103287273052203988822378723970342")
)

func mustFromDecimal(s string) *ui.Int {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("tickmath: bad constant " + s)
	}
	v, overflow := ui.FromBig(b)
	if overflow {
		panic("tickmath: constant does not fit in 256 bits: " + s)
	}
	return v
}

// table is a package-level cache of sqrt ratios indexed by tick - MinTick.
type lookupTable struct {
	ticks []*ui.Int
}

var table = buildTable()

func buildTable() *lookupTable {
	t := &lookupTable{ticks: make([]*ui.Int, TotalTicks)}
	for i := 0; i < TotalTicks; i++ {
		t.ticks[i] = computeSqrtRatioAtTick(int32(i) + MinTick)
	}
	return t
}

// GetSqrtRatioAtTick returns the Q64.96 sqrt ratio for tick.
func GetSqrtRatioAtTick(tick int32) (*ui.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, poolerr.ErrInvalidTickRange
	}
	return new(ui.Int).Set(table.ticks[int(tick-MinTick)]), nil
}

// GetTickAtSqrtRatio returns the greatest tick whose sqrt ratio is less
// than or equal to sqrtRatioX96.
func GetTickAtSqrtRatio(sqrtRatioX96 *ui.Int) (int32, error) {
	if sqrtRatioX96.Cmp(MinSqrtRatio) < 0 || sqrtRatioX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, poolerr.ErrInvalidTickRange
	}
	l, r := 0, TotalTicks-1
	for l < r {
		mid := (l + r + 1) / 2
		if table.ticks[mid].Cmp(sqrtRatioX96) > 0 {
			r = mid - 1
		} else {
			l = mid
		}
	}
	return int32(l) + MinTick, nil
}

// computeSqrtRatioAtTick evaluates sqrt(1.0001)^tick * 2^96 via the
// canonical bit-decomposition constants, so results match bit-for-bit
// across implementations of the same protocol.
func computeSqrtRatioAtTick(tick int32) *ui.Int {
	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	var ratio *ui.Int
	if absTick&0x1 != 0 {
		ratio, _ = ui.FromHex("0xfffcb933bd6fad37aa2d162d1a594001")
	} else {
		ratio, _ = ui.FromHex("0x100000000000000000000000000000000")
	}
	apply := func(mask int32, hex string) {
		if absTick&mask != 0 {
			ratio = mulShift(ratio, hex)
		}
	}
	apply(0x2, "0xfff97272373d413259a46990580e213a")
	apply(0x4, "0xfff2e50f5f656932ef12357cf3c7fdcc")
	apply(0x8, "0xffe5caca7e10e4e61c3624eaa0941cd0")
	apply(0x10, "0xffcb9843d60f6159c9db58835c926644")
	apply(0x20, "0xff973b41fa98c081472e6896dfb254c0")
	apply(0x40, "0xff2ea16466c96a3843ec78b326b52861")
	apply(0x80, "0xfe5dee046a99a2a811c461f1969c3053")
	apply(0x100, "0xfcbe86c7900a88aedcffc83b479aa3a4")
	apply(0x200, "0xf987a7253ac413176f2b074cf7815e54")
	apply(0x400, "0xf3392b0822b70005940c7a398e4b70f3")
	apply(0x800, "0xe7159475a2c29b7443b29c7fa6e889d9")
	apply(0x1000, "0xd097f3bdfd2022b8845ad8f792aa5825")
	apply(0x2000, "0xa9f746462d870fdf8a65dc1f90e061e5")
	apply(0x4000, "0x70d869a156d2a1b890bb3df62baf32f7")
	apply(0x8000, "0x31be135f97d08fd981231505542fcfa6")
	apply(0x10000, "0x9aa508b5b7a84e1c677de54f3e99bc9")
	apply(0x20000, "0x5d6af8dedb81196699c329225ee604")
	apply(0x40000, "0x2216e584f5fa1ea926041bedfe98")
	apply(0x80000, "0x48a170391f7dc42444e8fa2")

	if tick > 0 {
		ratio = new(ui.Int).Div(constants.MaxUint256, ratio)
	}

	// Shift from Q128.128 back down to Q64.96, rounding up.
	if new(ui.Int).SMod(ratio, Q32).Sign() > 0 {
		return new(ui.Int).Add(new(ui.Int).Div(ratio, Q32), constants.One)
	}
	return new(ui.Int).Div(ratio, Q32)
}

func mulShift(val *ui.Int, mulBy string) *ui.Int {
	mulByBig, _ := ui.FromHex(mulBy)
	return new(ui.Int).Rsh(new(ui.Int).Mul(val, mulByBig), 128)
}
