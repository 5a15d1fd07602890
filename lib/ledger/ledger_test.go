package ledger_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/tricorn-fi/clmm-engine/lib/ledger"
)

var (
	token0 = common.HexToAddress("0x00000000000000000000000000000000000010")
	token1 = common.HexToAddress("0x00000000000000000000000000000000000011")
	trader = common.HexToAddress("0x00000000000000000000000000000000000a01")
	pool   = common.HexToAddress("0x00000000000000000000000000000000000001")
)

func TestCreditAndBalanceOf(t *testing.T) {
	l := ledger.New(nil)
	l.Credit(token0, trader, ui.NewInt(1000))

	view := l.View(token0, trader)
	require.Equal(t, "1000", view.BalanceOf(trader).String())
}

func TestTransferMovesBalance(t *testing.T) {
	l := ledger.New(nil)
	l.Credit(token0, trader, ui.NewInt(1000))

	view := l.View(token0, trader)
	require.NoError(t, view.Transfer(pool, ui.NewInt(400)))

	require.Equal(t, "600", view.BalanceOf(trader).String())
	require.Equal(t, "400", view.BalanceOf(pool).String())
}

func TestTransferInsufficientBalanceErrors(t *testing.T) {
	l := ledger.New(nil)
	l.Credit(token0, trader, ui.NewInt(100))

	view := l.View(token0, trader)
	err := view.Transfer(pool, ui.NewInt(101))
	require.Error(t, err)
}

func TestSettlerPaysBothLegsFromTrader(t *testing.T) {
	l := ledger.New(nil)
	l.Credit(token0, trader, ui.NewInt(1000))
	l.Credit(token1, trader, ui.NewInt(1000))

	settler := ledger.NewSettler(l, trader, pool, token0, token1)
	require.NoError(t, settler.UniswapV3MintCallback(ui.NewInt(300), ui.NewInt(500), nil))

	require.Equal(t, "300", l.View(token0, pool).BalanceOf(pool).String())
	require.Equal(t, "500", l.View(token1, pool).BalanceOf(pool).String())
	require.Equal(t, "700", l.View(token0, trader).BalanceOf(trader).String())
	require.Equal(t, "500", l.View(token1, trader).BalanceOf(trader).String())
}

func TestSettlerIgnoresNonPositiveAmounts(t *testing.T) {
	l := ledger.New(nil)
	l.Credit(token0, trader, ui.NewInt(1000))

	settler := ledger.NewSettler(l, trader, pool, token0, token1)
	require.NoError(t, settler.UniswapV3SwapCallback(new(ui.Int), new(ui.Int).Neg(ui.NewInt(50)), nil))

	require.Equal(t, "1000", l.View(token0, trader).BalanceOf(trader).String())
}
