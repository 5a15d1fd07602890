// Package tape decodes the JSON transaction log cmd/replay drives a pool
// with.
//
// Decodes the same shape of record (type, timestamp, amounts, tick range)
// that a replay's transaction loop dispatches on, plus the recipient/owner
// address fields lib/pool's callback-based API needs to know who is
// funding each action.
package tape

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
)

// Transaction is one recorded pool operation.
type Transaction struct {
	Type              string `json:"type"`
	ID                string `json:"id"`
	Timestamp         uint32 `json:"timestamp"`
	Owner             string `json:"owner,omitempty"`
	Amount            string `json:"amount,omitempty"`
	Amount0           string `json:"amount0,omitempty"`
	Amount1           string `json:"amount1,omitempty"`
	SqrtPriceX96      string `json:"sqrtPriceX96,omitempty"`
	SqrtPriceLimitX96 string `json:"sqrtPriceLimitX96,omitempty"`
	ZeroForOne        bool   `json:"zeroForOne,omitempty"`
	TickLower         int32  `json:"tickLower,omitempty"`
	TickUpper         int32  `json:"tickUpper,omitempty"`

	// Amount0Desired/Amount1Desired describe a Mint in terms of token
	// amounts a router would quote, rather than a raw liquidity figure.
	// When set, the replay converts them to liquidity against the pool's
	// current price before calling pool.Mint.
	Amount0Desired string `json:"amount0Desired,omitempty"`
	Amount1Desired string `json:"amount1Desired,omitempty"`
}

// Amount0DesiredInt parses Amount0Desired as a *uint256.Int, defaulting to zero.
func (t Transaction) Amount0DesiredInt() (*ui.Int, error) { return parseOrZero(t.Amount0Desired) }

// Amount1DesiredInt parses Amount1Desired as a *uint256.Int, defaulting to zero.
func (t Transaction) Amount1DesiredInt() (*ui.Int, error) { return parseOrZero(t.Amount1Desired) }

// OwnerAddress parses Owner, defaulting to the zero address when empty.
func (t Transaction) OwnerAddress() common.Address {
	if t.Owner == "" {
		return common.Address{}
	}
	return common.HexToAddress(t.Owner)
}

// AmountInt parses Amount as a *uint256.Int, defaulting to zero.
func (t Transaction) AmountInt() (*ui.Int, error) { return parseOrZero(t.Amount) }

// Amount0Int parses Amount0 as a *uint256.Int, defaulting to zero.
func (t Transaction) Amount0Int() (*ui.Int, error) { return parseOrZero(t.Amount0) }

// Amount1Int parses Amount1 as a *uint256.Int, defaulting to zero.
func (t Transaction) Amount1Int() (*ui.Int, error) { return parseOrZero(t.Amount1) }

// SqrtPriceX96Int parses SqrtPriceX96 as a *uint256.Int.
func (t Transaction) SqrtPriceX96Int() (*ui.Int, error) { return parseOrZero(t.SqrtPriceX96) }

// SqrtPriceLimitX96Int parses SqrtPriceLimitX96 as a *uint256.Int.
func (t Transaction) SqrtPriceLimitX96Int() (*ui.Int, error) { return parseOrZero(t.SqrtPriceLimitX96) }

func parseOrZero(s string) (*ui.Int, error) {
	if s == "" {
		return new(ui.Int), nil
	}
	v, err := ui.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("tape: parse %q: %w", s, err)
	}
	return v, nil
}

// Load reads a JSON array of transactions from path.
func Load(path string) ([]Transaction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tape: read %s: %w", path, err)
	}
	var txs []Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, fmt.Errorf("tape: decode %s: %w", path, err)
	}
	return txs, nil
}
