package sqrtprice_math_test

import (
	"testing"

	ui "github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/tricorn-fi/clmm-engine/lib/constants"
	sqrtmath "github.com/tricorn-fi/clmm-engine/lib/sqrtprice_math"
)

func TestGetAmount0DeltaRoundsUp(t *testing.T) {
	lower := constants.Q96
	upper := new(ui.Int).Add(constants.Q96, new(ui.Int).Div(constants.Q96, ui.NewInt(1000)))
	liquidity := ui.NewInt(1_000_000_000_000)

	up, err := sqrtmath.GetAmount0Delta(lower, upper, liquidity, true)
	require.NoError(t, err)
	down, err := sqrtmath.GetAmount0Delta(lower, upper, liquidity, false)
	require.NoError(t, err)
	require.True(t, up.Cmp(down) >= 0)
}

func TestGetNextSqrtPriceFromInputZeroForOneDecreasesPrice(t *testing.T) {
	price := constants.Q96
	liquidity := ui.NewInt(1_000_000_000_000_000_000)
	amountIn := ui.NewInt(1_000_000)

	next, err := sqrtmath.GetNextSqrtPriceFromInput(price, liquidity, amountIn, true)
	require.NoError(t, err)
	require.True(t, next.Cmp(price) < 0)
}

func TestGetNextSqrtPriceFromInputOneForZeroIncreasesPrice(t *testing.T) {
	price := constants.Q96
	liquidity := ui.NewInt(1_000_000_000_000_000_000)
	amountIn := ui.NewInt(1_000_000)

	next, err := sqrtmath.GetNextSqrtPriceFromInput(price, liquidity, amountIn, false)
	require.NoError(t, err)
	require.True(t, next.Cmp(price) > 0)
}

func TestGetNextSqrtPriceFromInputZeroAmountIsNoOp(t *testing.T) {
	price := constants.Q96
	liquidity := ui.NewInt(1_000_000_000_000_000_000)

	next, err := sqrtmath.GetNextSqrtPriceFromInput(price, liquidity, new(ui.Int), true)
	require.NoError(t, err)
	require.Equal(t, price.String(), next.String())
}

func TestGetAmountDeltaSignedNegatesForBurn(t *testing.T) {
	lower := constants.Q96
	upper := new(ui.Int).Add(constants.Q96, new(ui.Int).Div(constants.Q96, ui.NewInt(1000)))

	positive, err := sqrtmath.GetAmount0DeltaSigned(lower, upper, ui.NewInt(1_000_000_000_000))
	require.NoError(t, err)
	require.True(t, positive.Sign() > 0)

	negative, err := sqrtmath.GetAmount0DeltaSigned(lower, upper, new(ui.Int).Neg(ui.NewInt(1_000_000_000_000)))
	require.NoError(t, err)
	require.True(t, negative.Sign() < 0)
}
