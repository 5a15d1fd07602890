// Package sqrtprice_math computes the next sqrt price from a swap amount
// and the token deltas swept between two sqrt prices at a given liquidity.
//
// Returns errors instead of panicking on overflow, and exposes signed variants
// (GetAmount0DeltaSigned / GetAmount1DeltaSigned) used by position updates
// where a burn's liquidityDelta is negative.
package sqrtprice_math

import (
	ui "github.com/holiman/uint256"

	"github.com/tricorn-fi/clmm-engine/lib/constants"
	"github.com/tricorn-fi/clmm-engine/lib/fullmath"
	"github.com/tricorn-fi/clmm-engine/lib/poolerr"
)

var maxUint160 = new(ui.Int).Sub(new(ui.Int).Lsh(constants.One, 160), constants.One)

func multiplyIn256(x, y *ui.Int) *ui.Int {
	product := new(ui.Int).Mul(x, y)
	return new(ui.Int).And(product, constants.MaxUint256)
}

func addIn256(x, y *ui.Int) *ui.Int {
	sum := new(ui.Int).Add(x, y)
	return new(ui.Int).And(sum, constants.MaxUint256)
}

// GetAmount0Delta returns the amount of token0 swept moving liquidity L
// from sqrtRatioAX96 to sqrtRatioBX96 (order-independent), rounded per
// roundUp: amounts owed by the user round up, amounts owed to the user
// round down.
func GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *ui.Int, roundUp bool) (*ui.Int, error) {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	numerator1 := new(ui.Int).Lsh(liquidity, 96)
	numerator2 := new(ui.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		inner, err := fullmath.MulDivRoundingUp(numerator1, numerator2, sqrtRatioBX96)
		if err != nil {
			return nil, err
		}
		return fullmath.MulDivRoundingUp(inner, constants.One, sqrtRatioAX96)
	}

	inner, err := fullmath.MulDiv(numerator1, numerator2, sqrtRatioBX96)
	if err != nil {
		return nil, err
	}
	return new(ui.Int).Div(inner, sqrtRatioAX96), nil
}

// GetAmount1Delta returns the amount of token1 swept moving liquidity L
// between the two sqrt ratios (order-independent).
func GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *ui.Int, roundUp bool) (*ui.Int, error) {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	diff := new(ui.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		return fullmath.MulDivRoundingUp(liquidity, diff, constants.Q96)
	}
	return fullmath.MulDiv(liquidity, diff, constants.Q96)
}

// GetAmount0DeltaSigned mirrors GetAmount0Delta but takes a signed
// liquidity delta: positive rounds up (owed by the caller), negative
// rounds down and negates (owed to the caller), matching how a mint vs. a
// burn must round in the pool's favor.
func GetAmount0DeltaSigned(sqrtRatioAX96, sqrtRatioBX96, liquidity *ui.Int) (*ui.Int, error) {
	if liquidity.Sign() < 0 {
		amt, err := GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, new(ui.Int).Neg(liquidity), false)
		if err != nil {
			return nil, err
		}
		return new(ui.Int).Neg(amt), nil
	}
	return GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity, true)
}

// GetAmount1DeltaSigned is GetAmount0DeltaSigned's token1 counterpart.
func GetAmount1DeltaSigned(sqrtRatioAX96, sqrtRatioBX96, liquidity *ui.Int) (*ui.Int, error) {
	if liquidity.Sign() < 0 {
		amt, err := GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, new(ui.Int).Neg(liquidity), false)
		if err != nil {
			return nil, err
		}
		return new(ui.Int).Neg(amt), nil
	}
	return GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity, true)
}

// GetNextSqrtPriceFromInput returns the sqrt price after adding amountIn
// of token0 (zeroForOne) or token1 to the pool.
func GetNextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *ui.Int, zeroForOne bool) (*ui.Int, error) {
	if sqrtPX96.Sign() <= 0 {
		return nil, poolerr.ErrInvalidPriceLimit
	}
	if liquidity.Sign() <= 0 {
		return nil, poolerr.ErrNotEnoughLiquidity
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput returns the sqrt price after removing
// amountOut of token1 (zeroForOne) or token0 from the pool.
func GetNextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *ui.Int, zeroForOne bool) (*ui.Int, error) {
	if sqrtPX96.Sign() <= 0 {
		return nil, poolerr.ErrInvalidPriceLimit
	}
	if liquidity.Sign() <= 0 {
		return nil, poolerr.ErrNotEnoughLiquidity
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}

// nextSqrtPriceFromAmount0RoundingUp implements
// sqrtP' = L*sqrtP / (L + amount*sqrtP) when adding, and the mirror image
// when removing, rounding the outer division up so the price is never
// understated in the pool's favor.
func nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *ui.Int, add bool) (*ui.Int, error) {
	if amount.IsZero() {
		return new(ui.Int).Set(sqrtPX96), nil
	}

	numerator1 := new(ui.Int).Lsh(liquidity, 96)

	if add {
		product := multiplyIn256(amount, sqrtPX96)
		if new(ui.Int).Div(product, amount).Eq(sqrtPX96) {
			denominator := addIn256(numerator1, product)
			if denominator.Cmp(numerator1) >= 0 {
				return fullmath.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
			}
		}
		denom := new(ui.Int).Add(new(ui.Int).Div(numerator1, sqrtPX96), amount)
		return fullmath.MulDivRoundingUp(numerator1, constants.One, denom)
	}

	product := multiplyIn256(amount, sqrtPX96)
	if numerator1.Cmp(product) <= 0 {
		return nil, poolerr.ErrNotEnoughLiquidity
	}
	denominator := new(ui.Int).Sub(numerator1, product)
	return fullmath.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
}

// nextSqrtPriceFromAmount1RoundingDown implements sqrtP' = sqrtP +
// amount*Q96/L when adding, sqrtP - amount*Q96/L when removing.
func nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *ui.Int, add bool) (*ui.Int, error) {
	if add {
		var quotient *ui.Int
		if amount.Cmp(maxUint160) <= 0 {
			quotient = new(ui.Int).Div(new(ui.Int).Lsh(amount, 96), liquidity)
		} else {
			q, err := fullmath.MulDiv(amount, constants.Q96, liquidity)
			if err != nil {
				return nil, err
			}
			quotient = q
		}
		return new(ui.Int).Add(sqrtPX96, quotient), nil
	}

	quotient, err := fullmath.MulDivRoundingUp(amount, constants.Q96, liquidity)
	if err != nil {
		return nil, err
	}
	if sqrtPX96.Cmp(quotient) <= 0 {
		return nil, poolerr.ErrNotEnoughLiquidity
	}
	return new(ui.Int).Sub(sqrtPX96, quotient), nil
}
