// Package validate checks user-supplied addresses before any chain read.
package validate

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"lpScope/internal/model"
)

// Syntax accepts a 20-byte hex address with an optional 0x prefix. All-lowercase
// and all-uppercase hex pass; mixed case must carry a valid EIP-55 checksum.
func Syntax(address string, tag string) error {
	_, err := Parse(address, tag)
	return err
}

// Parse validates the address like Syntax and returns it decoded.
func Parse(address string, tag string) (common.Address, error) {
	invalid := &model.InvalidAddressError{Tag: tag, Address: address}

	body := address
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		body = body[2:]
	}
	if len(body) != 2*common.AddressLength || !common.IsHexAddress(body) {
		return common.Address{}, invalid
	}

	parsed := common.HexToAddress(body)
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return parsed, nil
	}
	if parsed.Hex()[2:] != body {
		return common.Address{}, invalid
	}
	return parsed, nil
}

// PoolSource resolves registry records.
type PoolSource interface {
	GetPool(ctx context.Context, pool common.Address, block *big.Int) (model.PoolRecord, error)
}

// Validator performs the existence checks that need a registry.
type Validator struct {
	pools PoolSource
}

// NewValidator creates a validator backed by the given pool source.
func NewValidator(pools PoolSource) *Validator {
	return &Validator{pools: pools}
}

// PoolExists reports whether the registry tracks pool. Registry failures other
// than a missing record are returned as errors.
func (v *Validator) PoolExists(ctx context.Context, pool common.Address, block *big.Int) (bool, error) {
	if v.pools == nil {
		return false, fmt.Errorf("pool source is nil")
	}
	if _, err := v.pools.GetPool(ctx, pool, block); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
