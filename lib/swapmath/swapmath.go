// Package swapmath computes a single swap step: given the current and
// target sqrt prices, the active liquidity, and the amount remaining to
// swap, it clamps to whichever bound is hit first and returns the
// amountIn/amountOut/fee for that step.
//
// The exact-output branch (amountRemaining < 0) is kept in place as an
// extension point, but Pool.Swap (lib/pool) never calls ComputeSwapStep
// with a negative remaining amount, since this engine treats
// amountSpecified as exact-input only.
package swapmath

import (
	ui "github.com/holiman/uint256"

	"github.com/tricorn-fi/clmm-engine/lib/constants"
	"github.com/tricorn-fi/clmm-engine/lib/fullmath"
	sqrtmath "github.com/tricorn-fi/clmm-engine/lib/sqrtprice_math"
)

// Step is the result of executing one swap step.
type Step struct {
	SqrtRatioNextX96 *ui.Int
	AmountIn         *ui.Int
	AmountOut        *ui.Int
	FeeAmount        *ui.Int
}

// ComputeSwapStep advances price from sqrtRatioCurrentX96 towards
// sqrtRatioTargetX96 given liquidity, consuming at most amountRemaining
// (positive means exact-input, negative means exact-output) at feePips
// (denominator 1e6).
func ComputeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *ui.Int, feePips uint32) (Step, error) {
	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0
	exactIn := amountRemaining.Sign() >= 0

	feePipsI := ui.NewInt(uint64(feePips))
	var sqrtRatioNextX96, amountIn, amountOut *ui.Int
	var err error

	if exactIn {
		remainingLessFee := new(ui.Int).Div(
			new(ui.Int).Mul(amountRemaining, new(ui.Int).Sub(constants.E6, feePipsI)),
			constants.E6,
		)
		if zeroForOne {
			amountIn, err = sqrtmath.GetAmount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
		} else {
			amountIn, err = sqrtmath.GetAmount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
		}
		if err != nil {
			return Step{}, err
		}

		if remainingLessFee.Cmp(amountIn) >= 0 {
			sqrtRatioNextX96 = new(ui.Int).Set(sqrtRatioTargetX96)
		} else {
			sqrtRatioNextX96, err = sqrtmath.GetNextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, remainingLessFee, zeroForOne)
			if err != nil {
				return Step{}, err
			}
		}
	} else {
		amountRemainingOut := new(ui.Int).Neg(amountRemaining)
		if zeroForOne {
			amountOut, err = sqrtmath.GetAmount1Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false)
		} else {
			amountOut, err = sqrtmath.GetAmount0Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false)
		}
		if err != nil {
			return Step{}, err
		}

		if amountRemainingOut.Cmp(amountOut) >= 0 {
			sqrtRatioNextX96 = new(ui.Int).Set(sqrtRatioTargetX96)
		} else {
			sqrtRatioNextX96, err = sqrtmath.GetNextSqrtPriceFromOutput(sqrtRatioCurrentX96, liquidity, amountRemainingOut, zeroForOne)
			if err != nil {
				return Step{}, err
			}
		}
	}

	reachedTarget := sqrtRatioTargetX96.Cmp(sqrtRatioNextX96) == 0

	if zeroForOne {
		if !(reachedTarget && exactIn) {
			amountIn, err = sqrtmath.GetAmount0Delta(sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true)
			if err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			amountOut, err = sqrtmath.GetAmount1Delta(sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
			if err != nil {
				return Step{}, err
			}
		}
	} else {
		if !(reachedTarget && exactIn) {
			amountIn, err = sqrtmath.GetAmount1Delta(sqrtRatioCurrentX96, sqrtRatioNextX96, liquidity, true)
			if err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			amountOut, err = sqrtmath.GetAmount0Delta(sqrtRatioCurrentX96, sqrtRatioNextX96, liquidity, false)
			if err != nil {
				return Step{}, err
			}
		}
	}

	if !exactIn && amountOut.Cmp(new(ui.Int).Neg(amountRemaining)) > 0 {
		amountOut = new(ui.Int).Neg(amountRemaining)
	}

	var feeAmount *ui.Int
	if exactIn && sqrtRatioNextX96.Cmp(sqrtRatioTargetX96) != 0 {
		// Didn't reach the target: the whole remainder becomes fee.
		feeAmount = new(ui.Int).Sub(amountRemaining, amountIn)
	} else {
		feeAmount, err = fullmath.MulDivRoundingUp(amountIn, feePipsI, new(ui.Int).Sub(constants.E6, feePipsI))
		if err != nil {
			return Step{}, err
		}
	}

	return Step{
		SqrtRatioNextX96: sqrtRatioNextX96,
		AmountIn:         amountIn,
		AmountOut:        amountOut,
		FeeAmount:        feeAmount,
	}, nil
}
