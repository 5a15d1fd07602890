package tape_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/tricorn-fi/clmm-engine/lib/tape"
)

const fixture = `[
  {
    "type": "Mint",
    "id": "tx-1",
    "timestamp": 1000,
    "owner": "0x00000000000000000000000000000000000a01",
    "amount": "500000",
    "tickLower": -600,
    "tickUpper": 600
  },
  {
    "type": "Swap",
    "id": "tx-2",
    "timestamp": 1001,
    "owner": "0x00000000000000000000000000000000000a01",
    "amount": "1000",
    "zeroForOne": true,
    "sqrtPriceLimitX96": "4295128739"
  },
  {
    "type": "Collect",
    "id": "tx-3",
    "timestamp": 1002
  }
]`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tape.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	return path
}

func TestLoadDecodesTape(t *testing.T) {
	txs, err := tape.Load(writeFixture(t))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	require.Equal(t, "Mint", txs[0].Type)
	require.Equal(t, uint32(1000), txs[0].Timestamp)
	require.Equal(t, int32(-600), txs[0].TickLower)
	require.Equal(t, int32(600), txs[0].TickUpper)

	require.Equal(t, "Swap", txs[1].Type)
	require.True(t, txs[1].ZeroForOne)

	require.Equal(t, "Collect", txs[2].Type)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := tape.Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestAmountIntParsesDecimal(t *testing.T) {
	tx := tape.Transaction{Amount: "500000"}
	amount, err := tx.AmountInt()
	require.NoError(t, err)
	require.Equal(t, "500000", amount.String())
}

func TestAmountIntDefaultsToZeroWhenEmpty(t *testing.T) {
	tx := tape.Transaction{}
	amount, err := tx.AmountInt()
	require.NoError(t, err)
	require.True(t, amount.IsZero())
}

func TestSqrtPriceLimitX96IntParsesDecimal(t *testing.T) {
	tx := tape.Transaction{SqrtPriceLimitX96: "4295128739"}
	limit, err := tx.SqrtPriceLimitX96Int()
	require.NoError(t, err)
	require.Equal(t, "4295128739", limit.String())
}

func TestOwnerAddressDefaultsToZeroAddress(t *testing.T) {
	tx := tape.Transaction{}
	require.Equal(t, "0x0000000000000000000000000000000000000000", tx.OwnerAddress().Hex())
}

func TestOwnerAddressParsesHex(t *testing.T) {
	tx := tape.Transaction{Owner: "0x00000000000000000000000000000000000a01"}
	require.NotEqual(t, common.Address{}, tx.OwnerAddress())
}

func TestAmountIntRejectsGarbage(t *testing.T) {
	tx := tape.Transaction{Amount: "not-a-number"}
	_, err := tx.AmountInt()
	require.Error(t, err)
}
