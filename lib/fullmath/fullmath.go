// Package fullmath implements the 512-bit-intermediate multiply-divide the
// rest of the engine relies on to keep 256-bit fixed-point products from
// overflowing before the division brings them back down.
//
// Surfaces overflow as poolerr.ErrOverflow instead of panicking, since
// arithmetic overflow should be a typed, propagated error rather than
// fatal to the whole process.
package fullmath

import (
	ui "github.com/holiman/uint256"

	"github.com/tricorn-fi/clmm-engine/lib/constants"
	"github.com/tricorn-fi/clmm-engine/lib/poolerr"
)

// MulDiv computes floor(a*b/denominator) using a full 512-bit intermediate
// product, so the result is correct even when a*b overflows 256 bits.
func MulDiv(a, b, denominator *ui.Int) (*ui.Int, error) {
	result, overflow := new(ui.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		return nil, poolerr.ErrOverflow
	}
	return result, nil
}

// MulDivRoundingUp computes ceil(a*b/denominator).
func MulDivRoundingUp(a, b, denominator *ui.Int) (*ui.Int, error) {
	if a.IsZero() || b.IsZero() {
		return new(ui.Int), nil
	}
	result, err := MulDiv(a, b, denominator)
	if err != nil {
		return nil, err
	}
	rem := new(ui.Int).MulMod(a, b, denominator)
	if !rem.IsZero() {
		if result.Cmp(constants.MaxUint256) == 0 {
			return nil, poolerr.ErrOverflow
		}
		result = new(ui.Int).Add(result, constants.One)
	}
	return result, nil
}

// MulDivRounding dispatches to MulDiv or MulDivRoundingUp based on
// roundUp, matching the "rounding is a contract" discipline every call
// site documents explicitly rather than inferring.
func MulDivRounding(a, b, denominator *ui.Int, roundUp bool) (*ui.Int, error) {
	if roundUp {
		return MulDivRoundingUp(a, b, denominator)
	}
	return MulDiv(a, b, denominator)
}
