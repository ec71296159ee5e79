package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lpScope/internal/chain"
	"lpScope/internal/config"
	"lpScope/internal/indexer"
	"lpScope/internal/metrics"
	"lpScope/internal/storage"
	"lpScope/internal/storage/postgres"
)

const populateStateName = "pool_created"

func runPopulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPopulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if !common.IsHexAddress(cfg.Factory) {
		return fmt.Errorf("invalid factory address: %s", cfg.Factory)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var (
		sink       storage.Storage
		checkpoint indexer.CheckpointStore
	)
	switch cfg.Sink {
	case config.SinkPostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sink = store
		if cfg.CheckpointEnabled {
			checkpoint = &indexer.DBCheckpoint{Store: store, Name: populateStateName}
		}
	default:
		sink = storage.NewJsonlStorage(cfg.Out)
		checkpoint = indexer.NewFileCheckpoint(cfg.Checkpoint, cfg.CheckpointEnabled)
	}

	var m *metrics.Metrics
	if cfg.MetricsListen != "" {
		registry := prometheus.NewRegistry()
		if m, err = metrics.New(registry); err != nil {
			return err
		}
		stopMetrics := metrics.Serve(ctx, metrics.NewServer(cfg.MetricsListen, registry), logger)
		defer stopMetrics()
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		Factory:        common.HexToAddress(cfg.Factory),
		FromBlock:      cfg.FromBlock,
		ToBlock:        cfg.ToBlock,
		FinalityMargin: cfg.FinalityMargin,
		BatchSize:      cfg.BatchSize,
		BatchPause:     cfg.BatchPause,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
	}, chainClient, sink, checkpoint, logger)
	var ingested int
	runner.OnIngested = func(n int) {
		ingested += n
		m.AddPoolsIngested(n)
	}

	logger.Info("populate start",
		zap.String("factory", cfg.Factory),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Duration("batch_pause", cfg.BatchPause),
		zap.String("sink", cfg.Sink),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	if err := runner.Run(ctx); err != nil {
		return err
	}

	logger.Info("populate complete", zap.Int("pools_ingested", ingested))
	return nil
}
