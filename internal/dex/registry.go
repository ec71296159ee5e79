package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpScope/internal/model"
)

// GetPool looks up the registry record for a pool. Untracked pools yield an
// error wrapping model.ErrNotFound.
func (r *Reader) GetPool(ctx context.Context, pool common.Address, block *big.Int) (model.PoolRecord, error) {
	if r.registryAddr == (common.Address{}) {
		return model.PoolRecord{}, fmt.Errorf("registry address is not configured")
	}

	registry, err := RegistryABI()
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("parse registry abi: %w", err)
	}

	if !r.registryPinned {
		block = nil
	}

	values, err := r.call(ctx, r.registry, r.registryAddr, registry, "get_liquidity_pool", common.Address{}, block, pool)
	if err != nil {
		if isRevert(err) {
			return model.PoolRecord{}, fmt.Errorf("pool %s: %w", pool.Hex(), model.ErrNotFound)
		}
		return model.PoolRecord{}, err
	}
	if len(values) < 3 {
		return model.PoolRecord{}, &model.ChainCallError{Contract: r.registryAddr, Method: "get_liquidity_pool", Err: fmt.Errorf("expected 3 values, got %d", len(values))}
	}

	token0, err := asAddress(values[0])
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("token_0: %w", err)
	}
	token1, err := asAddress(values[1])
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("token_1: %w", err)
	}
	fee, err := asFeeTier(values[2])
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("fee: %w", err)
	}

	if token0 == (common.Address{}) && token1 == (common.Address{}) {
		return model.PoolRecord{}, fmt.Errorf("pool %s: %w", pool.Hex(), model.ErrNotFound)
	}

	return model.PoolRecord{Token0: token0, Token1: token1, FeeTier: fee}, nil
}
