package model

import "github.com/ethereum/go-ethereum/common"

// PoolRecord is the registry's view of a pool: its token pair and fee tier.
type PoolRecord struct {
	Token0  common.Address
	Token1  common.Address
	FeeTier uint32
}

// Pool represents a V3 pool registry row for storage.
type Pool struct {
	ChainID        uint64 `json:"chain_id"`
	Address        string `json:"address"`
	Token0         string `json:"token0"`
	Token1         string `json:"token1"`
	Fee            uint32 `json:"fee"`
	TickSpacing    int32  `json:"tick_spacing"`
	FirstSeenBlock uint64 `json:"first_seen_block"`
	CreatedAt      uint64 `json:"created_at"`
}

// Record converts a stored pool row into the registry record used for valuation.
func (p Pool) Record() PoolRecord {
	return PoolRecord{
		Token0:  common.HexToAddress(p.Token0),
		Token1:  common.HexToAddress(p.Token1),
		FeeTier: p.Fee,
	}
}
