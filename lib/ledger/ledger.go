// Package ledger is an in-memory token balance sheet and pool-callback
// handler used to replay a recorded transaction tape against lib/pool
// without a real chain underneath it.
//
// Interposes a balance sheet so lib/pool's callback-based settlement has
// something real to call into, and logs every movement with zap the way
// luoyeETH-liquidityScope's internal/aggregate.Aggregator logs its work.
package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/tricorn-fi/clmm-engine/lib/poolerr"
)

// Ledger tracks per-token, per-address balances and answers the
// pool.TokenLike interface for any address it is asked to act as.
type Ledger struct {
	logger   *zap.Logger
	balances map[common.Address]map[common.Address]*ui.Int // token -> owner -> balance
}

// New returns an empty ledger. A nil logger falls back to zap.NewNop().
func New(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		logger:   logger,
		balances: make(map[common.Address]map[common.Address]*ui.Int),
	}
}

// Credit mints amount of token into owner's balance, for seeding a
// replay's starting state.
func (l *Ledger) Credit(token, owner common.Address, amount *ui.Int) {
	accounts, ok := l.balances[token]
	if !ok {
		accounts = make(map[common.Address]*ui.Int)
		l.balances[token] = accounts
	}
	current, ok := accounts[owner]
	if !ok {
		current = new(ui.Int)
	}
	accounts[owner] = new(ui.Int).Add(current, amount)
	l.logger.Debug("credited balance", zap.String("token", token.Hex()), zap.String("owner", owner.Hex()), zap.String("amount", amount.String()))
}

func (l *Ledger) balanceOf(token, owner common.Address) *ui.Int {
	accounts, ok := l.balances[token]
	if !ok {
		return new(ui.Int)
	}
	balance, ok := accounts[owner]
	if !ok {
		return new(ui.Int)
	}
	return balance.Clone()
}

func (l *Ledger) transfer(token, from, to common.Address, amount *ui.Int) error {
	if amount.IsZero() {
		return nil
	}
	balance := l.balanceOf(token, from)
	if balance.Cmp(amount) < 0 {
		l.logger.Warn("insufficient balance for transfer",
			zap.String("token", token.Hex()),
			zap.String("from", from.Hex()),
			zap.String("amount", amount.String()),
			zap.String("balance", balance.String()),
		)
		return poolerr.ErrInsufficientInputAmount
	}
	l.balances[token][from] = new(ui.Int).Sub(balance, amount)

	toBalance := l.balanceOf(token, to)
	if _, ok := l.balances[token]; !ok {
		l.balances[token] = make(map[common.Address]*ui.Int)
	}
	l.balances[token][to] = new(ui.Int).Add(toBalance, amount)

	l.logger.Debug("transferred balance",
		zap.String("token", token.Hex()),
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.String("amount", amount.String()),
	)
	return nil
}

// View returns a pool.TokenLike bound to (token, owner): BalanceOf reads
// any address's balance of token, Transfer moves token out of owner.
func (l *Ledger) View(token, owner common.Address) *AccountView {
	return &AccountView{ledger: l, token: token, owner: owner}
}

// AccountView implements pool.TokenLike for one (token, owner) pair.
type AccountView struct {
	ledger *Ledger
	token  common.Address
	owner  common.Address
}

// BalanceOf returns any address's balance of the bound token.
func (v *AccountView) BalanceOf(addr common.Address) *ui.Int {
	return v.ledger.balanceOf(v.token, addr)
}

// Transfer moves amount of the bound token from the bound owner to to.
func (v *AccountView) Transfer(to common.Address, amount *ui.Int) error {
	return v.ledger.transfer(v.token, v.owner, to, amount)
}

// TransferFrom moves amount of the bound token from from back to the
// bound owner, undoing a Transfer the bound owner already made to from.
func (v *AccountView) TransferFrom(from common.Address, amount *ui.Int) error {
	return v.ledger.transfer(v.token, from, v.owner, amount)
}
