package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"lpScope/internal/dex"
	"lpScope/internal/model"
	"lpScope/internal/storage"
)

// LogSource is the subset of the chain client the runner reads from.
type LogSource interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	FinalizedBlockNumber(ctx context.Context, margin uint64) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// RunConfig holds runtime settings for the registry population job.
type RunConfig struct {
	Factory   common.Address
	FromBlock uint64
	// ToBlock of 0 means the latest block minus FinalityMargin.
	ToBlock        uint64
	FinalityMargin uint64
	BatchSize      uint64
	BatchPause     time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

type logKey struct {
	tx    common.Hash
	index uint
}

// Runner scans factory PoolCreated logs and writes pool rows to storage.
type Runner struct {
	cfg        RunConfig
	chain      LogSource
	sink       storage.Storage
	checkpoint CheckpointStore
	retry      retryPolicy
	logger     *zap.Logger
	seen       map[logKey]struct{}

	// OnIngested is called with the number of pools written per batch.
	OnIngested func(n int)
}

// NewRunner builds a Runner with its dependencies. A nil checkpoint disables resuming.
func NewRunner(cfg RunConfig, chainClient LogSource, sink storage.Storage, checkpoint CheckpointStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainClient,
		sink:       sink,
		checkpoint: checkpoint,
		retry:      newRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff),
		logger:     logger,
		seen:       make(map[logKey]struct{}),
	}
}

func (r *Runner) validate() error {
	switch {
	case r.chain == nil:
		return errors.New("chain client is nil")
	case r.sink == nil:
		return errors.New("storage is nil")
	case r.cfg.BatchSize == 0:
		return errors.New("batch size must be greater than zero")
	case r.cfg.Factory == (common.Address{}):
		return errors.New("factory address is required")
	}
	return nil
}

// Run ingests every PoolCreated log between the resume point and the target block.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.validate(); err != nil {
		return err
	}

	topic, err := dex.PoolCreatedTopic()
	if err != nil {
		return fmt.Errorf("pool created topic: %w", err)
	}
	chainID, err := r.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	window, ok, err := r.window(ctx)
	if err != nil {
		return err
	}
	if !ok {
		r.logger.Info("nothing to sync", zap.Uint64("from", r.cfg.FromBlock), zap.Uint64("to", r.cfg.ToBlock))
		return nil
	}

	batches, err := SplitRange(window.From, window.To, r.cfg.BatchSize)
	if err != nil {
		return err
	}
	r.logger.Info("sync window",
		zap.Uint64("from", window.From),
		zap.Uint64("to", window.To),
		zap.Int("batches", len(batches)),
	)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.ingest(ctx, chainID.Uint64(), topic, batch)
		if err != nil {
			return err
		}
		if r.OnIngested != nil {
			r.OnIngested(n)
		}
		if r.checkpoint != nil {
			if err := r.checkpoint.Save(ctx, batch.To); err != nil {
				return fmt.Errorf("save checkpoint: %w", err)
			}
		}
		r.logger.Info("batch complete",
			zap.Int("pools", n),
			zap.Uint64("from", batch.From),
			zap.Uint64("to", batch.To),
			zap.Int("remaining", len(batches)-i-1),
		)

		if r.cfg.BatchPause > 0 && i < len(batches)-1 {
			if err := sleep(ctx, r.cfg.BatchPause); err != nil {
				return err
			}
		}
	}
	return nil
}

// window resolves the target block and applies the checkpoint.
func (r *Runner) window(ctx context.Context) (BlockRange, bool, error) {
	to := r.cfg.ToBlock
	if to == 0 {
		finalized, err := r.chain.FinalizedBlockNumber(ctx, r.cfg.FinalityMargin)
		if err != nil {
			return BlockRange{}, false, fmt.Errorf("get finalized block: %w", err)
		}
		to = finalized
	}

	var (
		last    uint64
		resumed bool
	)
	if r.checkpoint != nil {
		var err error
		last, resumed, err = r.checkpoint.Load(ctx)
		if err != nil {
			return BlockRange{}, false, fmt.Errorf("load checkpoint: %w", err)
		}
		if resumed {
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last))
		}
	}

	window, ok := pendingRange(r.cfg.FromBlock, to, last, resumed)
	return window, ok, nil
}

// ingest fetches one batch of logs and writes the decoded pools. An empty batch
// is still written so sinks observe progress.
func (r *Runner) ingest(ctx context.Context, chainID uint64, topic common.Hash, batch BlockRange) (int, error) {
	logs, err := retry(ctx, r.retry, func(ctx context.Context) ([]types.Log, error) {
		return r.chain.FilterLogs(ctx, batch.From, batch.To, []common.Address{r.cfg.Factory}, []common.Hash{topic})
	}, func(attempt int, err error) {
		r.logger.Warn("filter logs failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Uint64("from", batch.From),
			zap.Uint64("to", batch.To),
		)
	})
	if err != nil {
		return 0, fmt.Errorf("filter logs %d-%d: %w", batch.From, batch.To, err)
	}

	timestamps := make(map[uint64]uint64)
	pools := make([]model.Pool, 0, len(logs))
	for _, log := range logs {
		if log.Removed || r.markSeen(log) {
			continue
		}

		ts, ok := timestamps[log.BlockNumber]
		if !ok {
			ts, err = r.blockTimestamp(ctx, log.BlockNumber)
			if err != nil {
				return 0, err
			}
			timestamps[log.BlockNumber] = ts
		}

		pool, err := buildPool(chainID, log, ts)
		if err != nil {
			r.logger.Warn("skip undecodable log",
				zap.Error(err),
				zap.Uint64("block_number", log.BlockNumber),
				zap.String("tx_hash", log.TxHash.Hex()),
			)
			continue
		}
		pools = append(pools, pool)
	}

	if err := r.sink.PutPoolBatch(ctx, pools); err != nil {
		return 0, fmt.Errorf("store pools: %w", err)
	}
	return len(pools), nil
}

func (r *Runner) blockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	ts, err := retry(ctx, r.retry, func(ctx context.Context) (uint64, error) {
		return r.chain.BlockTimestamp(ctx, number)
	}, func(attempt int, err error) {
		r.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Int("attempt", attempt), zap.Uint64("block_number", number))
	})
	if err != nil {
		return 0, fmt.Errorf("block timestamp %d: %w", number, err)
	}
	return ts, nil
}

// markSeen reports whether the log was already ingested by this runner.
func (r *Runner) markSeen(log types.Log) bool {
	key := logKey{tx: log.TxHash, index: log.Index}
	if _, ok := r.seen[key]; ok {
		return true
	}
	r.seen[key] = struct{}{}
	return false
}
