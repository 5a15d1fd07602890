package pool

import (
	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
)

// Event is emitted by pool operations for a caller (such as cmd/replay,
// through DrainEvents) to log or index. It mirrors the reference protocol's contract events.
type Event interface {
	isPoolEvent()
}

// InitializeEvent fires once, when a pool's starting price is set.
type InitializeEvent struct {
	SqrtPriceX96 *ui.Int
	Tick         int32
}

// MintEvent fires when liquidity is added to a position.
type MintEvent struct {
	Owner               common.Address
	TickLower, TickUpper int32
	Amount               *ui.Int
	Amount0, Amount1     *ui.Int
}

// BurnEvent fires when liquidity is removed from a position.
type BurnEvent struct {
	Owner               common.Address
	TickLower, TickUpper int32
	Amount               *ui.Int
	Amount0, Amount1     *ui.Int
}

// CollectEvent fires when owed tokens are withdrawn from a position.
type CollectEvent struct {
	Owner, Recipient     common.Address
	TickLower, TickUpper int32
	Amount0, Amount1     *ui.Int
}

// SwapEvent fires on every completed swap.
type SwapEvent struct {
	Recipient        common.Address
	Amount0, Amount1 *ui.Int
	SqrtPriceX96     *ui.Int
	Liquidity        *ui.Int
	Tick             int32
}

// FlashEvent fires on every repaid flash loan.
type FlashEvent struct {
	Recipient        common.Address
	Amount0, Amount1 *ui.Int
	Paid0, Paid1     *ui.Int
}

// IncreaseObservationCardinalityNextEvent fires when the reserved
// observation window grows.
type IncreaseObservationCardinalityNextEvent struct {
	ObservationCardinalityNextOld uint16
	ObservationCardinalityNextNew uint16
}

func (InitializeEvent) isPoolEvent()                        {}
func (MintEvent) isPoolEvent()                              {}
func (BurnEvent) isPoolEvent()                              {}
func (CollectEvent) isPoolEvent()                           {}
func (SwapEvent) isPoolEvent()                              {}
func (FlashEvent) isPoolEvent()                              {}
func (IncreaseObservationCardinalityNextEvent) isPoolEvent() {}

func (p *Pool) emit(e Event) {
	p.events = append(p.events, e)
}
