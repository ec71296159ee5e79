package indexer

import (
	"github.com/ethereum/go-ethereum/core/types"

	"lpScope/internal/dex"
	"lpScope/internal/model"
)

func buildPool(chainID uint64, log types.Log, timestamp uint64) (model.Pool, error) {
	pool, err := dex.DecodePoolCreated(log)
	if err != nil {
		return model.Pool{}, err
	}
	pool.ChainID = chainID
	pool.CreatedAt = timestamp
	return pool, nil
}
