package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"lpScope/internal/model"
)

// PoolCreatedTopic returns topic0 of the factory PoolCreated event.
func PoolCreatedTopic() (common.Hash, error) {
	parsed, err := FactoryABI()
	if err != nil {
		return common.Hash{}, err
	}
	return parsed.Events["PoolCreated"].ID, nil
}

// DecodePoolCreated converts a factory PoolCreated log into a registry row.
// ChainID and CreatedAt are left for the caller to fill.
func DecodePoolCreated(log types.Log) (model.Pool, error) {
	parsed, err := FactoryABI()
	if err != nil {
		return model.Pool{}, fmt.Errorf("parse factory abi: %w", err)
	}
	event := parsed.Events["PoolCreated"]

	if len(log.Topics) != 4 {
		return model.Pool{}, fmt.Errorf("expected 4 topics, got %d", len(log.Topics))
	}
	if log.Topics[0] != event.ID {
		return model.Pool{}, fmt.Errorf("unexpected topic0: %s", log.Topics[0].Hex())
	}

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.Pool{}, fmt.Errorf("unpack PoolCreated: %w", err)
	}
	if len(values) != 2 {
		return model.Pool{}, fmt.Errorf("expected 2 data values, got %d", len(values))
	}

	tickSpacing, err := asTick(values[0])
	if err != nil {
		return model.Pool{}, fmt.Errorf("tick spacing: %w", err)
	}
	pool, err := asAddress(values[1])
	if err != nil {
		return model.Pool{}, fmt.Errorf("pool: %w", err)
	}

	fee, err := asFeeTier(new(big.Int).SetBytes(log.Topics[3].Bytes()))
	if err != nil {
		return model.Pool{}, fmt.Errorf("fee: %w", err)
	}

	return model.Pool{
		Address:        pool.Hex(),
		Token0:         common.BytesToAddress(log.Topics[1].Bytes()).Hex(),
		Token1:         common.BytesToAddress(log.Topics[2].Bytes()).Hex(),
		Fee:            fee,
		TickSpacing:    tickSpacing,
		FirstSeenBlock: log.BlockNumber,
	}, nil
}
