package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/big"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	feels "github.com/FeelsDEX/feels-sub005"
	"github.com/FeelsDEX/feels-sub005/commitment"
	"github.com/FeelsDEX/feels-sub005/helpers"
	"github.com/FeelsDEX/feels-sub005/internal/config"
	testutils "github.com/FeelsDEX/feels-sub005/internal/test/utils"
	"github.com/FeelsDEX/feels-sub005/types"
)

func main() {
	root := &cobra.Command{
		Use:          "simulator",
		Short:        "Swap-flow simulator for the pricing core",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a randomized swap sequence through the engine",
		RunE:  runSimulation,
	}

	runCmd.Flags().Int64("seed", 1, "rng seed")
	runCmd.Flags().Int("swaps", 1000, "number of swaps to execute")
	runCmd.Flags().Int("markets", 3, "number of hub markets")
	runCmd.Flags().Uint64("max-in", 1_000_000, "max amount_in per swap")
	runCmd.Flags().String("out", "./data/swaps.jsonl", "output JSONL path")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulator(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	rng := rand.New(rand.NewSource(cfg.Seed))
	clock := &testutils.Clock{Ts: 1_700_000_000, SlotN: 1}

	hub := solana.NewWallet().PublicKey()
	sink := &feels.MemorySink{}
	engine, err := feels.NewEngine(
		hub,
		testutils.Weights(),
		testutils.ProtocolState(500_000, 1_000_000, 10_000_000),
		feels.WithClock(clock),
		feels.WithSink(sink),
		feels.WithLogger(log),
	)
	if err != nil {
		return err
	}

	tokens := make([]solana.PublicKey, cfg.Markets)
	poolTypes := []types.PoolType{types.Stable, types.Normal, types.Volatile}
	for i := range tokens {
		tokens[i] = solana.NewWallet().PublicKey()
		pool := testutils.Pool(hub, tokens[i], poolTypes[i%len(poolTypes)])
		if err := engine.AddPool(pool); err != nil {
			return err
		}
		engine.SetProvider(pool.Market, commitment.DirectProvider{
			In:  decimal.NewFromFloat(0.001),
			Out: decimal.NewFromFloat(0.001),
		})
		// Seed the GTWAP window so JIT can price from the start.
		for j := 0; j < 6; j++ {
			engine.Observe(pool.Market, clock.Slot(), clock.Now(), decimal.NewFromInt(1))
			clock.Advance(10)
		}
	}

	timeState, levState := testutils.NeutralDomains()

	executed, failed := 0, 0
	for i := 0; i < cfg.Swaps; i++ {
		clock.Advance(int64(1 + rng.Intn(10)))

		from := tokens[rng.Intn(len(tokens))]
		to := hub
		switch rng.Intn(3) {
		case 1:
			from, to = hub, tokens[rng.Intn(len(tokens))]
		case 2:
			to = tokens[rng.Intn(len(tokens))]
		}
		if from.Equals(to) {
			continue
		}

		amountIn := new(big.Int).SetUint64(1 + rng.Uint64()%cfg.MaxIn)
		_, err := engine.ExecuteSwap(types.SwapParams{
			From:          from,
			To:            to,
			AmountIn:      amountIn,
			MinAmountOut:  helpers.GetMinAmountWithSlippage(amountIn, 5),
			TimeState:     timeState,
			LeverageState: levState,
		})
		if err != nil {
			failed++
			log.Debug("swap rejected", zap.Error(err))
			continue
		}
		executed++

		if bands := engine.OpenBands(); bands != 0 {
			return fmt.Errorf("band leak detected: %d open after swap %d", bands, i)
		}
	}

	if err := writeRecords(cfg.Out, sink.Records); err != nil {
		return err
	}

	log.Info("simulation complete",
		zap.Int("executed", executed),
		zap.Int("rejected", failed),
		zap.Int("records", len(sink.Records)),
		zap.Int32("floor_tick", engine.State().Floor.FloorTick),
		zap.String("buffer", engine.State().Buffer.Balance.Dec()),
	)
	return nil
}

func writeRecords(path string, records []feels.SwapRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}
	return w.Flush()
}
