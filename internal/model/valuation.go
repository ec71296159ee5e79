package model

import "math/big"

// ValuationResult is the point-in-time snapshot of a user's position in a pool.
type ValuationResult struct {
	Token0       string   `json:"token_0"`
	Token1       string   `json:"token_1"`
	Token0Symbol string   `json:"token_0_symbol"`
	Token1Symbol string   `json:"token_1_symbol"`
	Token0Value  float64  `json:"token_0_value"`
	Token1Value  float64  `json:"token_1_value"`
	Token0Fees   *big.Int `json:"token_0_fees"`
	Token1Fees   *big.Int `json:"token_1_fees"`
	FeeTier      uint32   `json:"fee_tier"`
	NFTID        *big.Int `json:"nft_id"`
	MinTick      int32    `json:"min_tick"`
	MaxTick      int32    `json:"max_tick"`
	BlockNumber  uint64   `json:"block_number"`
}
