package pool_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/tricorn-fi/clmm-engine/lib/pool"
	"github.com/tricorn-fi/clmm-engine/lib/poolerr"
)

var (
	poolAddr = common.HexToAddress("0x00000000000000000000000000000000000001")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000a11")
)

// ledger is a bare-bones shared balance sheet used only to exercise the
// pool's callback settlement paths in tests.
type ledger struct {
	balances map[common.Address]*ui.Int
}

func newLedger() *ledger { return &ledger{balances: make(map[common.Address]*ui.Int)} }

func (l *ledger) credit(addr common.Address, amount *ui.Int) {
	current, ok := l.balances[addr]
	if !ok {
		current = new(ui.Int)
	}
	l.balances[addr] = new(ui.Int).Add(current, amount)
}

// accountView is a TokenLike bound to a single address in the ledger.
type accountView struct {
	ledger *ledger
	addr   common.Address
}

func (a accountView) BalanceOf(owner common.Address) *ui.Int {
	b, ok := a.ledger.balances[owner]
	if !ok {
		return new(ui.Int)
	}
	return b.Clone()
}

func (a accountView) Transfer(to common.Address, amount *ui.Int) error {
	a.ledger.credit(a.addr, new(ui.Int).Neg(amount))
	a.ledger.credit(to, amount)
	return nil
}

func (a accountView) TransferFrom(from common.Address, amount *ui.Int) error {
	a.ledger.credit(from, new(ui.Int).Neg(amount))
	a.ledger.credit(a.addr, amount)
	return nil
}

type payer struct {
	view          accountView
	pendingFlash0 *ui.Int
	pendingFlash1 *ui.Int
}

func (p *payer) UniswapV3MintCallback(amount0, amount1 *ui.Int, data []byte) error {
	if amount0.Sign() > 0 {
		if err := p.view.Transfer(poolAddr, amount0); err != nil {
			return err
		}
	}
	if amount1.Sign() > 0 {
		if err := p.view.Transfer(poolAddr, amount1); err != nil {
			return err
		}
	}
	return nil
}

func (p *payer) UniswapV3SwapCallback(amount0, amount1 *ui.Int, data []byte) error {
	if amount0.Sign() > 0 {
		if err := p.view.Transfer(poolAddr, amount0); err != nil {
			return err
		}
	}
	if amount1.Sign() > 0 {
		if err := p.view.Transfer(poolAddr, amount1); err != nil {
			return err
		}
	}
	return nil
}

// prepareFlash records the principal about to be borrowed so
// UniswapV3FlashCallback can repay principal plus fee: the pool has
// already sent the principal out by the time this callback fires, so
// repaying only the fee would leave the pool short.
func (p *payer) prepareFlash(amount0, amount1 *ui.Int) {
	p.pendingFlash0 = amount0
	p.pendingFlash1 = amount1
}

func (p *payer) UniswapV3FlashCallback(fee0, fee1 *ui.Int, data []byte) error {
	amount0, amount1 := new(ui.Int), new(ui.Int)
	if p.pendingFlash0 != nil {
		amount0 = p.pendingFlash0
	}
	if p.pendingFlash1 != nil {
		amount1 = p.pendingFlash1
	}
	if err := p.view.Transfer(poolAddr, new(ui.Int).Add(amount0, fee0)); err != nil {
		return err
	}
	return p.view.Transfer(poolAddr, new(ui.Int).Add(amount1, fee1))
}

func q96() *ui.Int { return new(ui.Int).Lsh(ui.NewInt(1), 96) }

func newTestPool(t *testing.T) (*pool.Pool, *ledger, *payer) {
	l := newLedger()
	token0 := accountView{ledger: l, addr: poolAddr}
	token1 := accountView{ledger: l, addr: poolAddr}
	p := pool.New(poolAddr, common.HexToAddress("0xa0"), common.HexToAddress("0xa1"), token0, token1, 3000, 60)
	require.NoError(t, p.Initialize(q96(), 1000))

	al := &payer{view: accountView{ledger: l, addr: alice}}
	deepPockets := new(ui.Int).Mul(ui.NewInt(1_000_000_000_000_000_000), ui.NewInt(1_000_000))
	l.credit(alice, deepPockets)
	return p, l, al
}

func TestInitializeSetsTickAndSlot0(t *testing.T) {
	p, _, _ := newTestPool(t)
	slot0 := p.GetSlot0()
	require.Equal(t, int32(0), slot0.Tick)
	require.Equal(t, q96().String(), slot0.SqrtPriceX96.String())
	require.True(t, slot0.Unlocked)
}

func TestInitializeTwiceErrors(t *testing.T) {
	p, _, _ := newTestPool(t)
	err := p.Initialize(q96(), 1000)
	require.Error(t, err)
}

func TestMintRequiresCallbackToPay(t *testing.T) {
	p, _, al := newTestPool(t)

	amount0, amount1, err := p.Mint(alice, -600, 600, ui.NewInt(1_000_000), 1001, al, nil)
	require.NoError(t, err)
	require.True(t, amount0.Sign() > 0)
	require.True(t, amount1.Sign() > 0)

	liquidity := p.GetLiquidity()
	require.Equal(t, "1000000", liquidity.String())

	info := p.GetPosition(alice, -600, 600)
	require.Equal(t, "1000000", info.Liquidity.String())
}

func TestMintOutOfRangeContributesOnlyOneToken(t *testing.T) {
	p, _, al := newTestPool(t)

	amount0, amount1, err := p.Mint(alice, 600, 1200, ui.NewInt(1_000_000), 1001, al, nil)
	require.NoError(t, err)
	require.True(t, amount0.Sign() > 0)
	require.True(t, amount1.IsZero())

	// out-of-range liquidity does not count toward active liquidity
	require.True(t, p.GetLiquidity().IsZero())
}

func TestSwapMovesPriceAndAccruesFees(t *testing.T) {
	p, _, al := newTestPool(t)
	_, _, err := p.Mint(alice, -6000, 6000, ui.NewInt(10_000_000), 1001, al, nil)
	require.NoError(t, err)

	limit := new(ui.Int).Add(tickmathMinSqrtRatio(), ui.NewInt(1))
	amount0, amount1, err := p.Swap(alice, true, ui.NewInt(1_000), limit, 1002, al, nil)
	require.NoError(t, err)
	require.Equal(t, "1000", amount0.String())
	require.True(t, amount1.Sign() < 0)

	slot0 := p.GetSlot0()
	require.NotEqual(t, "0", slot0.SqrtPriceX96.String())
	require.True(t, slot0.SqrtPriceX96.Lt(q96()))
	require.True(t, p.FeeGrowthGlobal0X128.Sign() > 0)
}

func TestBurnThenCollectReturnsPrincipal(t *testing.T) {
	p, _, al := newTestPool(t)
	_, _, err := p.Mint(alice, -600, 600, ui.NewInt(1_000_000), 1001, al, nil)
	require.NoError(t, err)

	amount0, amount1, err := p.Burn(alice, -600, 600, ui.NewInt(1_000_000), 1002)
	require.NoError(t, err)
	require.True(t, amount0.Sign() > 0)
	require.True(t, amount1.Sign() > 0)

	collected0, collected1, err := p.Collect(alice, alice, -600, 600, amount0, amount1)
	require.NoError(t, err)
	require.Equal(t, amount0.String(), collected0.String())
	require.Equal(t, amount1.String(), collected1.String())
}

func TestFlashCreditsFeeGrowth(t *testing.T) {
	p, _, al := newTestPool(t)
	_, _, err := p.Mint(alice, -600, 600, ui.NewInt(1_000_000), 1001, al, nil)
	require.NoError(t, err)

	al.prepareFlash(ui.NewInt(1000), ui.NewInt(1000))
	err = p.Flash(alice, ui.NewInt(1000), ui.NewInt(1000), al, nil)
	require.NoError(t, err)
	require.True(t, p.FeeGrowthGlobal0X128.Sign() > 0)
	require.True(t, p.FeeGrowthGlobal1X128.Sign() > 0)

	events := p.DrainEvents()
	found := false
	for _, e := range events {
		if _, ok := e.(pool.FlashEvent); ok {
			found = true
		}
	}
	require.True(t, found)
}

// deadbeat implements the mint and swap callback interfaces by paying nothing,
// so a caller can assert that a rejected mint or swap leaves no trace.
type deadbeat struct{}

func (deadbeat) UniswapV3MintCallback(amount0, amount1 *ui.Int, data []byte) error { return nil }
func (deadbeat) UniswapV3SwapCallback(amount0, amount1 *ui.Int, data []byte) error { return nil }

func TestMintLeavesNoStateOnUnpaidCallback(t *testing.T) {
	p, _, _ := newTestPool(t)

	_, _, err := p.Mint(alice, -600, 600, ui.NewInt(1_000_000), 1001, deadbeat{}, nil)
	require.ErrorIs(t, err, poolerr.ErrInsufficientInputAmount)

	require.True(t, p.GetLiquidity().IsZero())
	require.True(t, p.GetPosition(alice, -600, 600).Liquidity.IsZero())
	require.False(t, p.GetTick(-600).Initialized)
	require.False(t, p.GetTick(600).Initialized)
}

func TestSwapClawsBackOutputOnUnpaidCallback(t *testing.T) {
	p, l, al := newTestPool(t)
	_, _, err := p.Mint(alice, -6000, 6000, ui.NewInt(10_000_000), 1001, al, nil)
	require.NoError(t, err)

	slot0Before := p.GetSlot0()
	liquidityBefore := p.GetLiquidity()
	poolBalanceBefore := l.balances[poolAddr]

	limit := new(ui.Int).Add(tickmathMinSqrtRatio(), ui.NewInt(1))
	_, _, err = p.Swap(alice, true, ui.NewInt(1_000), limit, 1002, deadbeat{}, nil)
	require.ErrorIs(t, err, poolerr.ErrInsufficientInputAmount)

	require.Equal(t, slot0Before.SqrtPriceX96.String(), p.GetSlot0().SqrtPriceX96.String())
	require.Equal(t, slot0Before.Tick, p.GetSlot0().Tick)
	require.Equal(t, liquidityBefore.String(), p.GetLiquidity().String())
	require.Equal(t, poolBalanceBefore.String(), l.balances[poolAddr].String())
}

func tickmathMinSqrtRatio() *ui.Int {
	// mirrors tickmath.MinSqrtRatio; kept local so the swap test can build
	// a below-range price limit without importing tickmath just for this.
	return ui.NewInt(4295128739)
}
