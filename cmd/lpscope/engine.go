package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lpScope/internal/chain"
	"lpScope/internal/config"
	"lpScope/internal/dex"
	"lpScope/internal/metrics"
	"lpScope/internal/storage/postgres"
	"lpScope/internal/valuation"
)

// buildEngine connects to the configured chains and registry. The returned
// cleanup releases every connection it opened.
func buildEngine(ctx context.Context, cfg config.ServeConfig, m *metrics.Metrics, logger *zap.Logger) (*valuation.Engine, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*valuation.Engine, func(), error) {
		cleanup()
		return nil, nil, err
	}

	if !common.IsHexAddress(cfg.PositionManager) {
		return fail(fmt.Errorf("invalid position manager address: %s", cfg.PositionManager))
	}
	readerCfg := dex.ReaderConfig{
		PositionManager:  common.HexToAddress(cfg.PositionManager),
		FetchConcurrency: cfg.FetchConcurrency,
		Observer:         m.ObserveChainCall,
		Logger:           logger,
	}

	if cfg.TokenCache {
		readerCfg.Tokens = dex.NewTokenCache()
	}

	mainChain, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fail(fmt.Errorf("connect rpc: %w", err))
	}
	closers = append(closers, mainChain.Close)

	engineCfg := valuation.Config{
		Concurrency: cfg.FetchConcurrency,
		Logger:      logger,
		OnOutcome:   m.ObserveCalculation,
	}

	switch cfg.RegistrySource {
	case config.RegistryPostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		closers = append(closers, store.Close)

		chainID, err := mainChain.GetChainID(ctx)
		if err != nil {
			return fail(fmt.Errorf("get chain id: %w", err))
		}
		engineCfg.Pools = postgres.NewRegistrySource(store, chainID.Uint64())
	default:
		if !common.IsHexAddress(cfg.RegistryAddress) {
			return fail(fmt.Errorf("invalid registry address: %s", cfg.RegistryAddress))
		}
		readerCfg.Registry = common.HexToAddress(cfg.RegistryAddress)

		if cfg.RegistryRPCURL != "" && cfg.RegistryRPCURL != cfg.RPCURL {
			registryChain, err := chain.NewClient(ctx, cfg.RegistryRPCURL)
			if err != nil {
				return fail(fmt.Errorf("connect registry rpc: %w", err))
			}
			closers = append(closers, registryChain.Close)
			readerCfg.RegistryCaller = registryChain
		}
	}

	reader, err := dex.NewReader(mainChain, readerCfg)
	if err != nil {
		return fail(err)
	}
	engine, err := valuation.NewEngine(reader, engineCfg)
	if err != nil {
		return fail(err)
	}

	logger.Info("valuation engine ready",
		zap.String("registry_source", cfg.RegistrySource),
		zap.String("position_manager", readerCfg.PositionManager.Hex()),
		zap.Bool("separate_registry_chain", readerCfg.RegistryCaller != nil),
		zap.Bool("token_cache", cfg.TokenCache),
	)
	return engine, cleanup, nil
}
