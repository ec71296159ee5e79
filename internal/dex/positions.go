package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"lpScope/internal/model"
)

// maxUint128 is the largest amount collect() accepts; asking for it reports everything owed.
var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// collectParams mirrors INonfungiblePositionManager.CollectParams.
type collectParams struct {
	TokenId    *big.Int
	Recipient  common.Address
	Amount0Max *big.Int
	Amount1Max *big.Int
}

// OwnedPositionIDs enumerates the owner's position NFTs, most recently indexed first.
func (r *Reader) OwnedPositionIDs(ctx context.Context, owner common.Address, block *big.Int) ([]*big.Int, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse position manager abi: %w", err)
	}

	values, err := r.call(ctx, r.chain, r.positionManager, parsed, "balanceOf", common.Address{}, block, owner)
	if err != nil {
		return nil, err
	}
	count, err := asBigInt(values[0])
	if err != nil {
		return nil, &model.ChainCallError{Contract: r.positionManager, Method: "balanceOf", Err: err}
	}
	if !count.IsInt64() || count.Int64() > int64(^uint32(0)) {
		return nil, &model.ChainCallError{Contract: r.positionManager, Method: "balanceOf", Err: fmt.Errorf("implausible position count %s", count)}
	}

	n := int(count.Int64())
	ids := make([]*big.Int, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			values, err := r.call(gctx, r.chain, r.positionManager, parsed, "tokenOfOwnerByIndex", common.Address{}, block, owner, big.NewInt(int64(i)))
			if err != nil {
				return err
			}
			id, err := asBigInt(values[0])
			if err != nil {
				return &model.ChainCallError{Contract: r.positionManager, Method: "tokenOfOwnerByIndex", Err: err}
			}
			ids[n-1-i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ids, nil
}

// Position decodes the position manager's positions(tokenId) tuple.
func (r *Reader) Position(ctx context.Context, id *big.Int, block *big.Int) (model.Position, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return model.Position{}, fmt.Errorf("parse position manager abi: %w", err)
	}

	values, err := r.call(ctx, r.chain, r.positionManager, parsed, "positions", common.Address{}, block, id)
	if err != nil {
		return model.Position{}, err
	}
	if len(values) < 12 {
		return model.Position{}, &model.ChainCallError{Contract: r.positionManager, Method: "positions", Err: fmt.Errorf("expected 12 values, got %d", len(values))}
	}

	decodeErr := func(field string, err error) error {
		return &model.ChainCallError{Contract: r.positionManager, Method: "positions", Err: fmt.Errorf("%s: %w", field, err)}
	}

	token0, err := asAddress(values[2])
	if err != nil {
		return model.Position{}, decodeErr("token0", err)
	}
	token1, err := asAddress(values[3])
	if err != nil {
		return model.Position{}, decodeErr("token1", err)
	}
	fee, err := asFeeTier(values[4])
	if err != nil {
		return model.Position{}, decodeErr("fee", err)
	}
	tickLower, err := asTick(values[5])
	if err != nil {
		return model.Position{}, decodeErr("tickLower", err)
	}
	tickUpper, err := asTick(values[6])
	if err != nil {
		return model.Position{}, decodeErr("tickUpper", err)
	}

	return model.Position{
		ID:        new(big.Int).Set(id),
		Token0:    token0,
		Token1:    token1,
		FeeTier:   fee,
		TickLower: tickLower,
		TickUpper: tickUpper,
	}, nil
}

// UnclaimedFees simulates collect() with maximal amounts through eth_call, sent
// from the recipient, so the contract reports what it owes without moving funds.
func (r *Reader) UnclaimedFees(ctx context.Context, id *big.Int, recipient common.Address, block *big.Int) (*big.Int, *big.Int, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, nil, fmt.Errorf("parse position manager abi: %w", err)
	}

	params := collectParams{
		TokenId:    id,
		Recipient:  recipient,
		Amount0Max: maxUint128,
		Amount1Max: maxUint128,
	}
	values, err := r.call(ctx, r.chain, r.positionManager, parsed, "collect", recipient, block, params)
	if err != nil {
		return nil, nil, err
	}
	if len(values) < 2 {
		return nil, nil, &model.ChainCallError{Contract: r.positionManager, Method: "collect", Err: fmt.Errorf("expected 2 values, got %d", len(values))}
	}

	amount0, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, &model.ChainCallError{Contract: r.positionManager, Method: "collect", Err: err}
	}
	amount1, err := asBigInt(values[1])
	if err != nil {
		return nil, nil, &model.ChainCallError{Contract: r.positionManager, Method: "collect", Err: err}
	}
	return amount0, amount1, nil
}
