package model

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNotFound marks a pool that the registry does not track.
	ErrNotFound = errors.New("not found")
	// ErrPositionNotFound marks an owner with no position on the requested pair and fee tier.
	ErrPositionNotFound = errors.New("position not found")
)

// InvalidAddressError is returned for input that is not a 20-byte hex address.
type InvalidAddressError struct {
	Tag     string
	Address string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address for %s", e.Tag)
}

// ChainCallError wraps a failed contract read.
type ChainCallError struct {
	Contract common.Address
	Method   string
	Err      error
}

func (e *ChainCallError) Error() string {
	return fmt.Sprintf("call %s on %s: %v", e.Method, e.Contract.Hex(), e.Err)
}

func (e *ChainCallError) Unwrap() error {
	return e.Err
}
