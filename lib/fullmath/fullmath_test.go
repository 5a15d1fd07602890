package fullmath_test

import (
	"testing"

	ui "github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/tricorn-fi/clmm-engine/lib/constants"
	"github.com/tricorn-fi/clmm-engine/lib/fullmath"
	"github.com/tricorn-fi/clmm-engine/lib/poolerr"
)

func TestMulDivExact(t *testing.T) {
	got, err := fullmath.MulDiv(ui.NewInt(6), ui.NewInt(7), ui.NewInt(2))
	require.NoError(t, err)
	require.Equal(t, uint64(21), got.Uint64())
}

func TestMulDivFloor(t *testing.T) {
	got, err := fullmath.MulDiv(ui.NewInt(7), ui.NewInt(7), ui.NewInt(2))
	require.NoError(t, err)
	require.Equal(t, uint64(24), got.Uint64())
}

func TestMulDivRoundingUpExact(t *testing.T) {
	got, err := fullmath.MulDivRoundingUp(ui.NewInt(6), ui.NewInt(7), ui.NewInt(2))
	require.NoError(t, err)
	require.Equal(t, uint64(21), got.Uint64())
}

func TestMulDivRoundingUpRemainder(t *testing.T) {
	got, err := fullmath.MulDivRoundingUp(ui.NewInt(7), ui.NewInt(7), ui.NewInt(2))
	require.NoError(t, err)
	require.Equal(t, uint64(25), got.Uint64())
}

func TestMulDivRoundingUpZeroOperand(t *testing.T) {
	got, err := fullmath.MulDivRoundingUp(new(ui.Int), ui.NewInt(7), ui.NewInt(2))
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestMulDivOverflows(t *testing.T) {
	_, err := fullmath.MulDiv(constants.MaxUint256, constants.MaxUint256, constants.One)
	require.ErrorIs(t, err, poolerr.ErrOverflow)
}

func TestMulDivRoundingDispatch(t *testing.T) {
	down, err := fullmath.MulDivRounding(ui.NewInt(7), ui.NewInt(7), ui.NewInt(2), false)
	require.NoError(t, err)
	require.Equal(t, uint64(24), down.Uint64())

	up, err := fullmath.MulDivRounding(ui.NewInt(7), ui.NewInt(7), ui.NewInt(2), true)
	require.NoError(t, err)
	require.Equal(t, uint64(25), up.Uint64())
}
