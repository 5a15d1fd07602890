package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Settler implements pool.MintCallback, pool.SwapCallback, and
// pool.FlashCallback on behalf of a single trader address, paying
// whatever positive amount the pool asks for out of that trader's
// balance in the ledger.
type Settler struct {
	ledger *Ledger
	trader common.Address
	pool   common.Address
	token0 common.Address
	token1 common.Address
	logger *zap.Logger

	pendingFlash0 *ui.Int
	pendingFlash1 *ui.Int
}

// NewSettler returns a callback handler that settles token0/token1
// movements between trader and pool through ledger.
func NewSettler(l *Ledger, trader, pool, token0, token1 common.Address) *Settler {
	return &Settler{ledger: l, trader: trader, pool: pool, token0: token0, token1: token1, logger: l.logger}
}

// PrepareFlash records the principal a caller is about to borrow through
// pool.Flash, so UniswapV3FlashCallback can repay principal plus fee.
// pool.FlashCallback only carries the fee, the same way the reference
// protocol's interface does, so the borrower has to remember what it
// asked for.
func (s *Settler) PrepareFlash(amount0, amount1 *ui.Int) {
	s.pendingFlash0 = amount0
	s.pendingFlash1 = amount1
}

func (s *Settler) pay(amount0, amount1 *ui.Int) error {
	if amount0.Sign() > 0 {
		if err := s.ledger.transfer(s.token0, s.trader, s.pool, amount0); err != nil {
			return err
		}
	}
	if amount1.Sign() > 0 {
		if err := s.ledger.transfer(s.token1, s.trader, s.pool, amount1); err != nil {
			return err
		}
	}
	return nil
}

// UniswapV3MintCallback pays the amounts a mint requires.
func (s *Settler) UniswapV3MintCallback(amount0, amount1 *ui.Int, data []byte) error {
	s.logger.Debug("settling mint callback", zap.String("amount0", amount0.String()), zap.String("amount1", amount1.String()))
	return s.pay(amount0, amount1)
}

// UniswapV3SwapCallback pays the swap's input leg; the output leg was
// already transferred by the pool before this is invoked.
func (s *Settler) UniswapV3SwapCallback(amount0, amount1 *ui.Int, data []byte) error {
	s.logger.Debug("settling swap callback", zap.String("amount0", amount0.String()), zap.String("amount1", amount1.String()))
	return s.pay(amount0, amount1)
}

// UniswapV3FlashCallback repays a flash loan's principal plus its fee.
// The pool already sent the principal out before invoking this callback,
// so repaying only the fee would leave the pool short by the principal.
func (s *Settler) UniswapV3FlashCallback(fee0, fee1 *ui.Int, data []byte) error {
	amount0, amount1 := new(ui.Int), new(ui.Int)
	if s.pendingFlash0 != nil {
		amount0 = s.pendingFlash0
	}
	if s.pendingFlash1 != nil {
		amount1 = s.pendingFlash1
	}
	repay0 := new(ui.Int).Add(amount0, fee0)
	repay1 := new(ui.Int).Add(amount1, fee1)
	s.logger.Debug("settling flash callback",
		zap.String("repay0", repay0.String()), zap.String("repay1", repay1.String()))
	return s.pay(repay0, repay1)
}
