package position_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/tricorn-fi/clmm-engine/lib/position"
)

var alice = common.HexToAddress("0x000000000000000000000000000000000000a1")

func TestKeyDependsOnAllThreeFields(t *testing.T) {
	k1 := position.Key(alice, -60, 60)
	k2 := position.Key(alice, -60, 120)
	k3 := position.Key(common.HexToAddress("0xb2"), -60, 60)

	require.NotEqual(t, k1, k2)
	require.NotEqual(t, k1, k3)
	require.Equal(t, k1, position.Key(alice, -60, 60))
}

func TestUpdateFirstMintAccruesNothing(t *testing.T) {
	table := position.New()

	info, err := table.Update(alice, -60, 60, ui.NewInt(1000), new(ui.Int), new(ui.Int))
	require.NoError(t, err)
	require.Equal(t, "1000", info.Liquidity.String())
	require.True(t, info.TokensOwed0.IsZero())
	require.True(t, info.TokensOwed1.IsZero())
}

func TestUpdateAccruesFeesFromGrowthDeltaBeforeApplyingDelta(t *testing.T) {
	table := position.New()
	_, err := table.Update(alice, -60, 60, ui.NewInt(1000), new(ui.Int), new(ui.Int))
	require.NoError(t, err)

	q128 := new(ui.Int).Lsh(ui.NewInt(1), 128)
	fg0 := q128.Clone() // one full unit of fee growth per unit liquidity
	info, err := table.Update(alice, -60, 60, new(ui.Int), fg0, new(ui.Int))
	require.NoError(t, err)
	require.Equal(t, "1000", info.TokensOwed0.String())
	require.Equal(t, "1000", info.Liquidity.String())
}

func TestUpdateRejectsBurnExceedingLiquidity(t *testing.T) {
	table := position.New()
	_, err := table.Update(alice, -60, 60, ui.NewInt(500), new(ui.Int), new(ui.Int))
	require.NoError(t, err)

	_, err = table.Update(alice, -60, 60, new(ui.Int).Neg(ui.NewInt(600)), new(ui.Int), new(ui.Int))
	require.Error(t, err)
}

func TestUpdateRejectsNoOpOnUntouchedPosition(t *testing.T) {
	table := position.New()
	_, err := table.Update(alice, -60, 60, new(ui.Int), new(ui.Int), new(ui.Int))
	require.Error(t, err)
}

func TestCollectCapsAtOwedAndDecrements(t *testing.T) {
	table := position.New()
	_, err := table.Update(alice, -60, 60, ui.NewInt(1000), new(ui.Int), new(ui.Int))
	require.NoError(t, err)

	q128 := new(ui.Int).Lsh(ui.NewInt(1), 128)
	_, err = table.Update(alice, -60, 60, new(ui.Int), q128, new(ui.Int))
	require.NoError(t, err)

	amount0, amount1, err := table.Collect(alice, -60, 60, ui.NewInt(10_000), ui.NewInt(10_000))
	require.NoError(t, err)
	require.Equal(t, "1000", amount0.String())
	require.True(t, amount1.IsZero())

	got := table.Get(alice, -60, 60)
	require.True(t, got.TokensOwed0.IsZero())
}

func TestCollectUnknownPositionErrors(t *testing.T) {
	table := position.New()
	_, _, err := table.Collect(alice, -60, 60, ui.NewInt(1), ui.NewInt(1))
	require.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	table := position.New()
	_, err := table.Update(alice, -60, 60, ui.NewInt(1000), new(ui.Int), new(ui.Int))
	require.NoError(t, err)

	clone := table.Clone()
	_, err = clone.Update(alice, -60, 60, ui.NewInt(500), new(ui.Int), new(ui.Int))
	require.NoError(t, err)

	original := table.Get(alice, -60, 60)
	require.Equal(t, "1000", original.Liquidity.String())
}
