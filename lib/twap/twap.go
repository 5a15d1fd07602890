// Package twap turns a pool's raw tick-cumulative observations into the
// time-weighted average figures a consumer actually wants: a mean tick
// over a window, and that tick's price.
//
// Consult divides the tick-cumulative delta across the requested window
// by its length in seconds, the same rule the reference protocol's
// OracleLibrary.consult uses. A naive fixed-length sliding average of
// squared sqrt prices, with no notion of elapsed time between samples,
// is not a time-weighted average at all: a pool that goes quiet for an
// hour and one that ticks every block would produce the same average
// under that approach despite having very different price histories.
package twap

import (
	ui "github.com/holiman/uint256"

	"github.com/tricorn-fi/clmm-engine/lib/constants"
	"github.com/tricorn-fi/clmm-engine/lib/fullmath"
	"github.com/tricorn-fi/clmm-engine/lib/tickmath"
)

// Source is the subset of *pool.Pool that Consult needs. Kept as an
// interface so tests can supply a bare oracle without a full pool.
type Source interface {
	Observe(blockTimestamp uint32, secondsAgos []uint32) ([]int64, error)
}

// Consult returns the arithmetic mean tick over the window
// [blockTimestamp-secondsAgo, blockTimestamp]. secondsAgo must be
// positive.
func Consult(source Source, blockTimestamp uint32, secondsAgo uint32) (int32, error) {
	cumulatives, err := source.Observe(blockTimestamp, []uint32{secondsAgo, 0})
	if err != nil {
		return 0, err
	}

	tickCumulativesDelta := cumulatives[1] - cumulatives[0]
	meanTick := tickCumulativesDelta / int64(secondsAgo)
	if tickCumulativesDelta < 0 && tickCumulativesDelta%int64(secondsAgo) != 0 {
		meanTick--
	}
	return int32(meanTick), nil
}

// MeanPriceX128 converts a mean tick into a Q128.128 fixed-point price of
// token1 per unit of token0.
func MeanPriceX128(meanTick int32) (*ui.Int, error) {
	sqrtRatio, err := tickmath.GetSqrtRatioAtTick(meanTick)
	if err != nil {
		return nil, err
	}
	return fullmath.MulDiv(sqrtRatio, sqrtRatio, constants.Q64)
}
