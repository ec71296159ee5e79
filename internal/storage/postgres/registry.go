package postgres

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpScope/internal/model"
)

// PoolFinder looks up stored pool rows.
type PoolFinder interface {
	FindPool(ctx context.Context, chainID uint64, address common.Address, block *big.Int) (model.Pool, error)
}

// RegistrySource serves registry lookups from the pools table populated by
// the populate job, in place of the on-chain registry contract.
type RegistrySource struct {
	finder  PoolFinder
	chainID uint64
}

func NewRegistrySource(finder PoolFinder, chainID uint64) *RegistrySource {
	return &RegistrySource{finder: finder, chainID: chainID}
}

// GetPool returns the pool's token pair and fee tier as of block.
func (r *RegistrySource) GetPool(ctx context.Context, pool common.Address, block *big.Int) (model.PoolRecord, error) {
	row, err := r.finder.FindPool(ctx, r.chainID, pool, block)
	if err != nil {
		return model.PoolRecord{}, err
	}
	return row.Record(), nil
}
