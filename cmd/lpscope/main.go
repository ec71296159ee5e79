package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lpScope/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "lpscope",
		Short:        "Uniswap V3 liquidity position valuation",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			return config.LoadDotEnv(envFile)
		},
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading configuration")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculate_lp HTTP API",
		RunE:  runServe,
	}
	addValuationFlags(serveCmd)
	serveCmd.Flags().String("listen", ":3000", "HTTP listen address")
	serveCmd.Flags().Int("rate-limit", 100, "requests allowed per client IP per window")
	serveCmd.Flags().Duration("rate-window", 15*time.Minute, "rate limit window")
	serveCmd.Flags().Duration("request-timeout", 30*time.Second, "upper bound for one calculation")
	serveCmd.Flags().StringSlice("cors-origins", []string{"*"}, "allowed CORS origins")
	serveCmd.Flags().StringSlice("trusted-proxies", nil, "proxies allowed to set X-Forwarded-For")
	root.AddCommand(serveCmd)

	calcCmd := &cobra.Command{
		Use:   "calc <pool-address> <user-address>",
		Short: "Value one position and print it as JSON",
		Args:  cobra.ExactArgs(2),
		RunE:  runCalc,
	}
	addValuationFlags(calcCmd)
	root.AddCommand(calcCmd)

	populateCmd := &cobra.Command{
		Use:   "populate",
		Short: "Populate the pool registry from factory PoolCreated logs",
		RunE:  runPopulate,
	}
	populateCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	populateCmd.Flags().String("factory", config.DefaultFactory, "Uniswap V3 factory address")
	populateCmd.Flags().Uint64("from", config.DefaultFactoryBlock, "start block (inclusive)")
	populateCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest finalized")
	populateCmd.Flags().Uint64("finality-margin", 10, "blocks behind head treated as final")
	populateCmd.Flags().Uint64("batch-size", 5000, "blocks per batch")
	populateCmd.Flags().Duration("batch-pause", 2*time.Second, "pause between batches")
	populateCmd.Flags().String("sink", config.SinkJSONL, "registry sink (jsonl, postgres)")
	populateCmd.Flags().String("out", "./data/pools.jsonl", "output JSONL path")
	populateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	populateCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path (jsonl sink)")
	populateCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	populateCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	populateCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	populateCmd.Flags().String("metrics-listen", "", "serve Prometheus metrics on this address while running (disabled when empty)")
	populateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(populateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addValuationFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "Ethereum RPC URL")
	cmd.Flags().String("registry-rpc", "", "RPC URL of the chain hosting the registry contract, if different")
	cmd.Flags().String("registry-address", "", "pool registry contract address")
	cmd.Flags().String("registry-source", config.RegistryContract, "registry source (contract, postgres)")
	cmd.Flags().String("position-manager", config.DefaultPositionManager, "NonfungiblePositionManager address")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for the postgres registry source")
	cmd.Flags().Int("fetch-concurrency", 8, "parallel position reads")
	cmd.Flags().Bool("token-cache", false, "keep token symbol and decimals in memory after the first read")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
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
