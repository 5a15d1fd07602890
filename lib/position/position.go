// Package position tracks per-owner, per-range liquidity and the fees it
// has accrued since its last touch.
//
// Update accrues owed fees from the fee-growth-inside delta, then applies
// the liquidity delta, in that order. Position keys are derived by hashing
// (owner, lower, upper) with go-ethereum's crypto.Keccak256Hash;
// go-ethereum's common.Address is the same on-chain identity type
// fleshka4-1inch-test-task and agatticelli-cex-dex-arbitrage-bot use.
package position

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	ui "github.com/holiman/uint256"

	"github.com/tricorn-fi/clmm-engine/lib/constants"
	"github.com/tricorn-fi/clmm-engine/lib/fullmath"
	"github.com/tricorn-fi/clmm-engine/lib/poolerr"
)

// Info is one owner's stake in one tick range.
type Info struct {
	Liquidity                *ui.Int
	FeeGrowthInside0LastX128 *ui.Int
	FeeGrowthInside1LastX128 *ui.Int
	TokensOwed0              *ui.Int
	TokensOwed1              *ui.Int
}

func newInfo() *Info {
	return &Info{
		Liquidity:                new(ui.Int),
		FeeGrowthInside0LastX128: new(ui.Int),
		FeeGrowthInside1LastX128: new(ui.Int),
		TokensOwed0:              new(ui.Int),
		TokensOwed1:              new(ui.Int),
	}
}

func (i *Info) clone() *Info {
	return &Info{
		Liquidity:                i.Liquidity.Clone(),
		FeeGrowthInside0LastX128: i.FeeGrowthInside0LastX128.Clone(),
		FeeGrowthInside1LastX128: i.FeeGrowthInside1LastX128.Clone(),
		TokensOwed0:              i.TokensOwed0.Clone(),
		TokensOwed1:              i.TokensOwed1.Clone(),
	}
}

// Key hashes (owner, lower, upper) into the map key used to locate a
// position, matching the reference protocol's keccak256(owner, tickLower,
// tickUpper) position identifier.
func Key(owner common.Address, lower, upper int32) common.Hash {
	buf := make([]byte, common.AddressLength+4+4)
	copy(buf, owner.Bytes())
	binary.BigEndian.PutUint32(buf[common.AddressLength:], uint32(lower))
	binary.BigEndian.PutUint32(buf[common.AddressLength+4:], uint32(upper))
	return crypto.Keccak256Hash(buf)
}

// Table is the pool's full set of positions, keyed by Key.
type Table struct {
	positions map[common.Hash]*Info
}

// New returns an empty position table.
func New() *Table {
	return &Table{positions: make(map[common.Hash]*Info)}
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	positions := make(map[common.Hash]*Info, len(t.positions))
	for k, v := range t.positions {
		positions[k] = v.clone()
	}
	return &Table{positions: positions}
}

// Get returns a copy of the position at (owner, lower, upper), or a
// zero-valued Info if it has never been touched.
func (t *Table) Get(owner common.Address, lower, upper int32) Info {
	info, ok := t.positions[Key(owner, lower, upper)]
	if !ok {
		return *newInfo()
	}
	return *info.clone()
}

// Update accrues fees earned since the position's last snapshot, floor(
// (feeGrowthInside - feeGrowthInsideLast) * liquidity / Q128) per token
// using modular subtraction, before applying liquidityDelta, so fee
// accrual always happens against the liquidity that earned it.
// Fails if liquidityDelta is zero with nothing accrued, or if a negative
// delta would take liquidity below zero.
func (t *Table) Update(owner common.Address, lower, upper int32, liquidityDelta, feeGrowthInside0X128, feeGrowthInside1X128 *ui.Int) (Info, error) {
	key := Key(owner, lower, upper)
	info, ok := t.positions[key]
	if !ok {
		info = newInfo()
	}

	liquidityNext := new(ui.Int).Add(info.Liquidity, liquidityDelta)
	if liquidityDelta.Sign() < 0 && info.Liquidity.Cmp(new(ui.Int).Neg(liquidityDelta)) < 0 {
		return Info{}, poolerr.ErrNotEnoughLiquidity
	}

	delta0 := new(ui.Int).Sub(feeGrowthInside0X128, info.FeeGrowthInside0LastX128)
	delta1 := new(ui.Int).Sub(feeGrowthInside1X128, info.FeeGrowthInside1LastX128)

	owed0, err := fullmath.MulDiv(delta0, info.Liquidity, constants.Q128)
	if err != nil {
		return Info{}, err
	}
	owed1, err := fullmath.MulDiv(delta1, info.Liquidity, constants.Q128)
	if err != nil {
		return Info{}, err
	}

	if liquidityDelta.IsZero() && owed0.IsZero() && owed1.IsZero() {
		return Info{}, poolerr.ErrZeroLiquidity
	}

	info.TokensOwed0 = new(ui.Int).Add(info.TokensOwed0, owed0)
	info.TokensOwed1 = new(ui.Int).Add(info.TokensOwed1, owed1)
	info.Liquidity = liquidityNext
	info.FeeGrowthInside0LastX128 = feeGrowthInside0X128.Clone()
	info.FeeGrowthInside1LastX128 = feeGrowthInside1X128.Clone()

	t.positions[key] = info
	return *info.clone(), nil
}

// CreditOwed adds amount0/amount1 directly to a position's owed balances,
// used by a burn to bank the principal it freed alongside whatever fees
// Update already accrued in the same call.
func (t *Table) CreditOwed(owner common.Address, lower, upper int32, amount0, amount1 *ui.Int) (Info, error) {
	key := Key(owner, lower, upper)
	info, ok := t.positions[key]
	if !ok {
		return Info{}, poolerr.ErrPositionNotFound
	}
	info.TokensOwed0 = new(ui.Int).Add(info.TokensOwed0, amount0)
	info.TokensOwed1 = new(ui.Int).Add(info.TokensOwed1, amount1)
	return *info.clone(), nil
}

// Collect caps requested amounts by tokensOwed, decrements the owed
// balance, and returns what was actually collected.
func (t *Table) Collect(owner common.Address, lower, upper int32, amount0Requested, amount1Requested *ui.Int) (amount0, amount1 *ui.Int, err error) {
	key := Key(owner, lower, upper)
	info, ok := t.positions[key]
	if !ok {
		return nil, nil, poolerr.ErrPositionNotFound
	}

	amount0 = amount0Requested
	if amount0.Cmp(info.TokensOwed0) > 0 {
		amount0 = info.TokensOwed0.Clone()
	}
	amount1 = amount1Requested
	if amount1.Cmp(info.TokensOwed1) > 0 {
		amount1 = info.TokensOwed1.Clone()
	}

	info.TokensOwed0 = new(ui.Int).Sub(info.TokensOwed0, amount0)
	info.TokensOwed1 = new(ui.Int).Sub(info.TokensOwed1, amount1)
	return amount0, amount1, nil
}
