// Package valuation computes a user's position snapshot for a pool.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lpScope/internal/model"
	"lpScope/internal/position"
	"lpScope/internal/validate"
)

// Status tags the result of a calculation.
type Status string

const (
	StatusOK       Status = "ok"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// Outcome is the tagged result of CalculateLP. Result is set only for StatusOK;
// Err carries the cause of the other statuses.
type Outcome struct {
	Status Status
	Result *model.ValuationResult
	Err    error
}

// Chain is the set of main-chain reads the engine performs.
type Chain interface {
	position.Source
	LatestBlock(ctx context.Context) (*big.Int, error)
	TokenInfo(ctx context.Context, token common.Address, block *big.Int) (model.TokenInfo, error)
	TokenBalance(ctx context.Context, token common.Address, holder common.Address, block *big.Int) (*big.Int, error)
	UnclaimedFees(ctx context.Context, id *big.Int, recipient common.Address, block *big.Int) (*big.Int, *big.Int, error)
}

// Config carries the engine's optional collaborators.
type Config struct {
	// Pools answers registry lookups. Defaults to the chain when it can.
	Pools       validate.PoolSource
	Concurrency int
	Logger      *zap.Logger
	// OnOutcome is called with the status of every completed calculation.
	OnOutcome func(status string)
}

// Engine runs the valuation pipeline.
type Engine struct {
	chain     Chain
	pools     validate.PoolSource
	validator *validate.Validator
	resolver  *position.Resolver
	logger    *zap.Logger
	onOutcome func(status string)
}

// NewEngine wires the pipeline on top of a chain reader.
func NewEngine(chain Chain, cfg Config) (*Engine, error) {
	if chain == nil {
		return nil, fmt.Errorf("chain reader is nil")
	}
	pools := cfg.Pools
	if pools == nil {
		src, ok := chain.(validate.PoolSource)
		if !ok {
			return nil, fmt.Errorf("no pool source configured")
		}
		pools = src
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		chain:     chain,
		pools:     pools,
		validator: validate.NewValidator(pools),
		resolver:  position.NewResolver(chain, cfg.Concurrency),
		logger:    logger,
		onOutcome: cfg.OnOutcome,
	}, nil
}

// CalculateLP values the position userAddress holds in poolAddress. Malformed
// addresses are returned as *model.InvalidAddressError; every later failure is
// reported through the Outcome.
func (e *Engine) CalculateLP(ctx context.Context, poolAddress, userAddress string) (Outcome, error) {
	pool, err := validate.Parse(poolAddress, "pool")
	if err != nil {
		return Outcome{}, err
	}
	user, err := validate.Parse(userAddress, "user")
	if err != nil {
		return Outcome{}, err
	}

	block, result, err := e.calculate(ctx, pool, user)
	outcome := e.outcome(result, err)

	if outcome.Status != StatusOK {
		fields := []zap.Field{
			zap.String("pool", pool.Hex()),
			zap.String("user", user.Hex()),
			zap.String("status", string(outcome.Status)),
			zap.Error(outcome.Err),
		}
		if block != nil {
			fields = append(fields, zap.Uint64("block", block.Uint64()))
		}
		if outcome.Status == StatusFailed {
			e.logger.Error("calculate lp failed", fields...)
		} else {
			e.logger.Info("calculate lp found nothing", fields...)
		}
	}
	if e.onOutcome != nil {
		e.onOutcome(string(outcome.Status))
	}
	return outcome, nil
}

func (e *Engine) outcome(result *model.ValuationResult, err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Status: StatusOK, Result: result}
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrPositionNotFound):
		return Outcome{Status: StatusNotFound, Err: err}
	default:
		return Outcome{Status: StatusFailed, Err: err}
	}
}

func (e *Engine) calculate(ctx context.Context, pool, user common.Address) (*big.Int, *model.ValuationResult, error) {
	block, err := e.chain.LatestBlock(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("pin block: %w", err)
	}

	exists, err := e.validator.PoolExists(ctx, pool, block)
	if err != nil {
		return block, nil, fmt.Errorf("check pool: %w", err)
	}
	if !exists {
		return block, nil, fmt.Errorf("pool %s: %w", pool.Hex(), model.ErrNotFound)
	}

	record, err := e.pools.GetPool(ctx, pool, block)
	if err != nil {
		return block, nil, fmt.Errorf("get pool: %w", err)
	}

	var (
		info0, info1       model.TokenInfo
		balance0, balance1 *big.Int
		ids                []*big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		info0, err = e.chain.TokenInfo(gctx, record.Token0, block)
		return err
	})
	g.Go(func() (err error) {
		info1, err = e.chain.TokenInfo(gctx, record.Token1, block)
		return err
	})
	g.Go(func() (err error) {
		balance0, err = e.chain.TokenBalance(gctx, record.Token0, pool, block)
		return err
	})
	g.Go(func() (err error) {
		balance1, err = e.chain.TokenBalance(gctx, record.Token1, pool, block)
		return err
	})
	g.Go(func() (err error) {
		ids, err = e.chain.OwnedPositionIDs(gctx, user, block)
		return err
	})
	if err := g.Wait(); err != nil {
		return block, nil, fmt.Errorf("read pool state: %w", err)
	}

	pos, err := e.resolver.Match(ctx, ids, record, block)
	if err != nil {
		return block, nil, fmt.Errorf("resolve position: %w", err)
	}

	fees0, fees1, err := e.chain.UnclaimedFees(ctx, pos.ID, user, block)
	if err != nil {
		return block, nil, fmt.Errorf("unclaimed fees: %w", err)
	}

	value0, value1 := RelativeValues(balance0, balance1, info0.Decimals, info1.Decimals)

	return block, &model.ValuationResult{
		Token0:       record.Token0.Hex(),
		Token1:       record.Token1.Hex(),
		Token0Symbol: info0.Symbol,
		Token1Symbol: info1.Symbol,
		Token0Value:  value0,
		Token1Value:  value1,
		Token0Fees:   fees0,
		Token1Fees:   fees1,
		FeeTier:      record.FeeTier,
		NFTID:        pos.ID,
		MinTick:      pos.TickLower,
		MaxTick:      pos.TickUpper,
		BlockNumber:  block.Uint64(),
	}, nil
}
