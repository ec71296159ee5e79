// Package position picks the position NFT a user holds on a given pool.
package position

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"lpScope/internal/model"
)

const defaultConcurrency = 8

// Source reads position NFTs from the position manager.
type Source interface {
	OwnedPositionIDs(ctx context.Context, owner common.Address, block *big.Int) ([]*big.Int, error)
	Position(ctx context.Context, id *big.Int, block *big.Int) (model.Position, error)
}

// Resolver selects the owned position matching a pool record.
type Resolver struct {
	source      Source
	concurrency int
}

// NewResolver creates a resolver. concurrency bounds parallel positions() reads.
func NewResolver(source Source, concurrency int) *Resolver {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Resolver{source: source, concurrency: concurrency}
}

// Resolve enumerates the owner's positions and returns the first one on target.
func (r *Resolver) Resolve(ctx context.Context, owner common.Address, target model.PoolRecord, block *big.Int) (model.Position, error) {
	ids, err := r.source.OwnedPositionIDs(ctx, owner, block)
	if err != nil {
		return model.Position{}, fmt.Errorf("owned positions: %w", err)
	}
	return r.Match(ctx, ids, target, block)
}

// Match loads every candidate and returns the first match in ids order.
// Loads run concurrently but the order of ids decides ties.
func (r *Resolver) Match(ctx context.Context, ids []*big.Int, target model.PoolRecord, block *big.Int) (model.Position, error) {
	if len(ids) == 0 {
		return model.Position{}, model.ErrPositionNotFound
	}

	candidates := make([]model.Position, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			pos, err := r.source.Position(gctx, id, block)
			if err != nil {
				return fmt.Errorf("position %s: %w", id, err)
			}
			candidates[i] = pos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Position{}, err
	}

	return Select(candidates, target)
}

// Select returns the first candidate on exactly target's pair and fee tier.
func Select(candidates []model.Position, target model.PoolRecord) (model.Position, error) {
	for _, pos := range candidates {
		if pos.Matches(target) {
			return pos, nil
		}
	}
	return model.Position{}, model.ErrPositionNotFound
}
