// Command replay drives a lib/pool.Pool through a recorded JSON
// transaction tape, settling every mint, swap, and flash through an
// in-memory lib/ledger.Ledger instead of a live chain.
//
// Grounded on luoyeETH-liquidityScope's cmd/indexer/main.go: a cobra root
// command with a "run" subcommand, config merged through viper, and a
// zap.NewProductionConfig logger built from a --log-level flag. It replays
// a tape by switching on each transaction's type and driving the matching
// lib/pool operation, logging any mismatch between a recorded amount and
// what the pool actually computed through zap instead of crashing the replay.
package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tricorn-fi/clmm-engine/lib/ledger"
	"github.com/tricorn-fi/clmm-engine/lib/liquidity_amounts"
	"github.com/tricorn-fi/clmm-engine/lib/pool"
	"github.com/tricorn-fi/clmm-engine/lib/tape"
	"github.com/tricorn-fi/clmm-engine/lib/tickmath"
	"github.com/tricorn-fi/clmm-engine/lib/twap"
)

func main() {
	root := &cobra.Command{
		Use:          "replay",
		Short:        "Replay a recorded transaction tape against a concentrated-liquidity pool",
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a replay",
		RunE:  runReplay,
	}

	runCmd.Flags().String("config", "", "config file path")
	runCmd.Flags().String("pool", "", "pool address")
	runCmd.Flags().String("token0", "", "token0 address")
	runCmd.Flags().String("token1", "", "token1 address")
	runCmd.Flags().Uint32("fee", 3000, "pool fee, in hundredths of a bip")
	runCmd.Flags().Int32("tick-spacing", 60, "tick spacing")
	runCmd.Flags().String("sqrt-price", "", "initial sqrtPriceX96")
	runCmd.Flags().String("tape", "", "path to the JSON transaction tape")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sqrtPrice, err := ui.FromDecimal(cfg.SqrtPriceX96)
	if err != nil {
		return fmt.Errorf("parse sqrt-price: %w", err)
	}

	txs, err := tape.Load(cfg.Tape)
	if err != nil {
		return fmt.Errorf("load tape: %w", err)
	}

	poolAddr := common.HexToAddress(cfg.PoolAddress)
	token0Addr := common.HexToAddress(cfg.Token0)
	token1Addr := common.HexToAddress(cfg.Token1)

	l := ledger.New(logger)
	for _, seed := range cfg.Seed {
		amount, err := ui.FromDecimal(seed.Amount)
		if err != nil {
			return fmt.Errorf("parse seed amount %q: %w", seed.Amount, err)
		}
		l.Credit(common.HexToAddress(seed.Token), common.HexToAddress(seed.Owner), amount)
	}

	p := pool.New(poolAddr, token0Addr, token1Addr,
		l.View(token0Addr, poolAddr), l.View(token1Addr, poolAddr),
		cfg.Fee, cfg.TickSpacing)

	var firstTimestamp uint32
	if len(txs) > 0 {
		firstTimestamp = txs[0].Timestamp
	}
	if err := p.Initialize(sqrtPrice, firstTimestamp); err != nil {
		return fmt.Errorf("initialize pool: %w", err)
	}

	settlers := make(map[common.Address]*ledger.Settler)
	settlerFor := func(owner common.Address) *ledger.Settler {
		s, ok := settlers[owner]
		if !ok {
			s = ledger.NewSettler(l, owner, poolAddr, token0Addr, token1Addr)
			settlers[owner] = s
		}
		return s
	}

	logger.Info("replay starting", zap.Int("transactions", len(txs)), zap.String("pool", poolAddr.Hex()))

	for _, tx := range txs {
		if err := applyTransaction(p, l, settlerFor, tx, logger); err != nil {
			logger.Warn("transaction failed",
				zap.String("id", tx.ID),
				zap.String("type", tx.Type),
				zap.Error(err),
			)
		}
	}

	logger.Info("replay complete", zap.Int("events", len(p.DrainEvents())))
	summarize(p, l, token0Addr, token1Addr, settlers, txs, logger)
	return nil
}

// summarize logs the ending balance of every address that traded and,
// when enough of the tape's window has elapsed, the mean tick over the
// last 60 seconds of recorded time.
func summarize(p *pool.Pool, l *ledger.Ledger, token0Addr, token1Addr common.Address, settlers map[common.Address]*ledger.Settler, txs []tape.Transaction, logger *zap.Logger) {
	for owner := range settlers {
		logger.Info("ending balance",
			zap.String("owner", owner.Hex()),
			zap.String("token0", l.View(token0Addr, owner).BalanceOf(owner).String()),
			zap.String("token1", l.View(token1Addr, owner).BalanceOf(owner).String()),
		)
	}

	if len(txs) == 0 {
		return
	}
	lastTimestamp := txs[len(txs)-1].Timestamp
	const window = uint32(60)
	if lastTimestamp < window {
		return
	}
	meanTick, err := twap.Consult(p, lastTimestamp, window)
	if err != nil {
		logger.Warn("twap consult failed", zap.Error(err))
		return
	}
	logger.Info("ending twap", zap.Int32("mean_tick", meanTick), zap.Uint32("window_seconds", window))
}

// mintLiquidity resolves the liquidity a Mint transaction supplies. A tape
// can record liquidity directly, or quote a mint the way a router would, as
// desired token amounts; the latter is converted against the pool's current
// price and the position's tick range through lib/liquidity_amounts.
func mintLiquidity(p *pool.Pool, tx tape.Transaction) (*ui.Int, error) {
	amount0Desired, err := tx.Amount0DesiredInt()
	if err != nil {
		return nil, err
	}
	amount1Desired, err := tx.Amount1DesiredInt()
	if err != nil {
		return nil, err
	}
	if amount0Desired.IsZero() && amount1Desired.IsZero() {
		return tx.AmountInt()
	}

	sqrtRatioAX96, err := tickmath.GetSqrtRatioAtTick(tx.TickLower)
	if err != nil {
		return nil, fmt.Errorf("mint tick lower: %w", err)
	}
	sqrtRatioBX96, err := tickmath.GetSqrtRatioAtTick(tx.TickUpper)
	if err != nil {
		return nil, fmt.Errorf("mint tick upper: %w", err)
	}
	sqrtRatioX96 := p.GetSlot0().SqrtPriceX96

	liquidity, err := liquidity_amounts.GetLiquidityForAmount(sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, amount0Desired, amount1Desired)
	if err != nil {
		return nil, fmt.Errorf("convert desired amounts to liquidity: %w", err)
	}
	return liquidity, nil
}

func applyTransaction(p *pool.Pool, l *ledger.Ledger, settlerFor func(common.Address) *ledger.Settler, tx tape.Transaction, logger *zap.Logger) error {
	owner := tx.OwnerAddress()

	switch tx.Type {
	case "Mint":
		amount, err := mintLiquidity(p, tx)
		if err != nil {
			return err
		}
		amount0, amount1, err := p.Mint(owner, tx.TickLower, tx.TickUpper, amount, tx.Timestamp, settlerFor(owner), nil)
		if err != nil {
			return err
		}
		logMismatch(logger, tx, amount0, amount1)

	case "Burn":
		amount, err := tx.AmountInt()
		if err != nil {
			return err
		}
		amount0, amount1, err := p.Burn(owner, tx.TickLower, tx.TickUpper, amount, tx.Timestamp)
		if err != nil {
			return err
		}
		logMismatch(logger, tx, amount0, amount1)

	case "Collect":
		amount0Requested, err := tx.Amount0Int()
		if err != nil {
			return err
		}
		amount1Requested, err := tx.Amount1Int()
		if err != nil {
			return err
		}
		if _, _, err := p.Collect(owner, owner, tx.TickLower, tx.TickUpper, amount0Requested, amount1Requested); err != nil {
			return err
		}

	case "Swap":
		amount, err := tx.AmountInt()
		if err != nil {
			return err
		}
		limit, err := tx.SqrtPriceLimitX96Int()
		if err != nil {
			return err
		}
		amount0, amount1, err := p.Swap(owner, tx.ZeroForOne, amount, limit, tx.Timestamp, settlerFor(owner), nil)
		if err != nil {
			return err
		}
		logMismatch(logger, tx, amount0, amount1)

	case "Flash":
		amount0, err := tx.Amount0Int()
		if err != nil {
			return err
		}
		amount1, err := tx.Amount1Int()
		if err != nil {
			return err
		}
		settler := settlerFor(owner)
		settler.PrepareFlash(amount0, amount1)
		if err := p.Flash(owner, amount0, amount1, settler, nil); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown transaction type %q", tx.Type)
	}

	return nil
}

// logMismatch compares a recorded transaction's amounts against what the
// pool actually computed. A recorded tape and a from-scratch replay can
// legitimately diverge on fee rounding, so this only logs it.
func logMismatch(logger *zap.Logger, tx tape.Transaction, amount0, amount1 *ui.Int) {
	recorded0, err0 := tx.Amount0Int()
	recorded1, err1 := tx.Amount1Int()
	if err0 != nil || err1 != nil || (recorded0.IsZero() && recorded1.IsZero()) {
		return
	}
	if recorded0.Cmp(amount0) != 0 || recorded1.Cmp(amount1) != 0 {
		logger.Warn("recorded amounts diverge from replayed amounts",
			zap.String("id", tx.ID),
			zap.String("recorded0", recorded0.String()),
			zap.String("recorded1", recorded1.String()),
			zap.String("replayed0", amount0.String()),
			zap.String("replayed1", amount1.String()),
		)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
