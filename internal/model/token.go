package model

import "github.com/ethereum/go-ethereum/common"

// TokenInfo captures the ERC20 metadata needed for valuation.
type TokenInfo struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}
