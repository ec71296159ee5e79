package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Position is an NFT-backed liquidity position held at the position manager.
type Position struct {
	ID        *big.Int
	Token0    common.Address
	Token1    common.Address
	FeeTier   uint32
	TickLower int32
	TickUpper int32
}

// Matches reports whether the position is on exactly the given pair and fee tier.
// Token order is significant.
func (p Position) Matches(target PoolRecord) bool {
	return p.Token0 == target.Token0 && p.Token1 == target.Token1 && p.FeeTier == target.FeeTier
}
