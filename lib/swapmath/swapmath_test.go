package swapmath_test

import (
	"testing"

	ui "github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/tricorn-fi/clmm-engine/lib/constants"
	"github.com/tricorn-fi/clmm-engine/lib/swapmath"
	"github.com/tricorn-fi/clmm-engine/lib/tickmath"
)

func TestComputeSwapStepFullStepReachesTarget(t *testing.T) {
	current := constants.Q96
	target, err := tickmath.GetSqrtRatioAtTick(-60)
	require.NoError(t, err)
	liquidity := ui.NewInt(1_000_000_000_000_000_000)

	step, err := swapmath.ComputeSwapStep(current, target, liquidity, ui.NewInt(10_000_000_000_000_000), 3000)
	require.NoError(t, err)
	require.Equal(t, target.String(), step.SqrtRatioNextX96.String())
	require.True(t, step.FeeAmount.Sign() > 0)
}

func TestComputeSwapStepPartialStepAllRemainingBecomesFeeAndAmountIn(t *testing.T) {
	current := constants.Q96
	target, err := tickmath.GetSqrtRatioAtTick(-60)
	require.NoError(t, err)
	liquidity := ui.NewInt(1_000_000_000_000_000_000)

	remaining := ui.NewInt(10)
	step, err := swapmath.ComputeSwapStep(current, target, liquidity, remaining, 3000)
	require.NoError(t, err)
	require.NotEqual(t, target.String(), step.SqrtRatioNextX96.String())

	sum := new(ui.Int).Add(step.AmountIn, step.FeeAmount)
	require.Equal(t, remaining.String(), sum.String())
}

func TestComputeSwapStepFeeFormulaMatchesSpec(t *testing.T) {
	current := constants.Q96
	target, err := tickmath.GetSqrtRatioAtTick(-1)
	require.NoError(t, err)
	liquidity := ui.NewInt(1_000_000_000_000_000_000_0)

	step, err := swapmath.ComputeSwapStep(current, target, liquidity, ui.NewInt(1_000_000_000_000_000), 3000)
	require.NoError(t, err)
	require.Equal(t, target.String(), step.SqrtRatioNextX96.String())
	// feeAmount = ceil(amountIn * fee / (1e6 - fee)) when the step reaches target.
	num := new(ui.Int).Mul(step.AmountIn, ui.NewInt(3000))
	denom := ui.NewInt(997000)
	expected := new(ui.Int).Div(num, denom)
	rem := new(ui.Int).Mod(num, denom)
	if !rem.IsZero() {
		expected.Add(expected, ui.NewInt(1))
	}
	require.Equal(t, expected.String(), step.FeeAmount.String())
}
