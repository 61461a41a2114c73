package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "NFT marketplace fill indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Index marketplace events into fills and order refreshes",
		RunE:  runSync,
	}

	syncCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	syncCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	syncCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest minus confirmations")
	syncCmd.Flags().Uint64("confirmations", 12, "blocks kept behind the chain head when to is 0")
	syncCmd.Flags().StringSlice("address", nil, "optional emitter allowlist (comma-separated)")
	syncCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	syncCmd.Flags().Int("concurrency", 8, "transactions processed in parallel")
	syncCmd.Flags().String("out", "./data/onchain.jsonl", "output JSONL path, used without pg-dsn")
	syncCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	syncCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path, used without pg-dsn")
	syncCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	syncCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	syncCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	syncCmd.Flags().String("pg-dsn", "", "Postgres DSN for output, orders, prices and state")
	syncCmd.Flags().String("redis-addr", "", "optional Redis address for the pool cache")
	syncCmd.Flags().String("redis-password", "", "Redis password")
	syncCmd.Flags().Int("redis-db", 0, "Redis database")
	syncCmd.Flags().String("wrapped-native", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "wrapped native token address")
	syncCmd.Flags().String("native-usd-price", "", "fixed native USD price (e.g. 2000.5), used without pg-dsn")
	syncCmd.Flags().String("nftx-vault-factory", "", "NFTX vault factory, empty skips the registration check")
	syncCmd.Flags().String("nftx-amm-factory", "", "NFTX AMM factory, empty skips the pair check")
	syncCmd.Flags().String("zora-offer-omnibus", "", "Zora offers module address")
	syncCmd.Flags().StringToString("sources", nil, "router address to fill source (address=source,...)")
	syncCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(syncCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Classify and decode raw logs offline",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/decoded_events.jsonl", "output decoded events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().Uint64("chain-id", 1, "chain id selecting the contract allowlists")
	decodeCmd.Flags().String("zora-offer-omnibus", "", "Zora offers module address")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
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

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
