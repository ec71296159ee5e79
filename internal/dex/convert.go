package dex

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	minTick = big.NewInt(-1 << 23)
	maxTick = big.NewInt(1<<23 - 1)
)

// bytes32ToString decodes a NUL-padded bytes32 symbol as returned by legacy tokens.
func bytes32ToString(value interface{}) (string, bool) {
	raw, ok := value.([32]byte)
	if !ok {
		return "", false
	}
	return strings.TrimRight(string(raw[:]), "\x00"), true
}

func asAddress(value interface{}) (common.Address, error) {
	if addr, ok := value.(common.Address); ok {
		return addr, nil
	}
	return common.Address{}, fmt.Errorf("expected address, got %T", value)
}

// asBigInt copies an ABI integer. Types narrower than 64 bits unpack as native
// Go integers, wider ones as *big.Int.
func asBigInt(value interface{}) (*big.Int, error) {
	if v, ok := value.(*big.Int); ok {
		if v == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(v), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	n, err := asBigInt(value)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || n.Cmp(big.NewInt(math.MaxUint8)) > 0 {
		return 0, fmt.Errorf("uint8 out of range: %s", n)
	}
	return uint8(n.Uint64()), nil
}

// asFeeTier normalizes a uint24 fee to uint32 so registry and position manager
// values compare equal.
func asFeeTier(value interface{}) (uint32, error) {
	fee, err := asBigInt(value)
	if err != nil {
		return 0, err
	}
	if fee.Sign() < 0 || fee.Cmp(big.NewInt(math.MaxUint32)) > 0 {
		return 0, fmt.Errorf("fee tier out of range: %s", fee)
	}
	return uint32(fee.Uint64()), nil
}

// asTick decodes an int24 tick or tick spacing.
func asTick(value interface{}) (int32, error) {
	n, err := asBigInt(value)
	if err != nil {
		return 0, err
	}
	if n.Cmp(minTick) < 0 || n.Cmp(maxTick) > 0 {
		return 0, fmt.Errorf("int24 out of range: %s", n)
	}
	return int32(n.Int64()), nil
}
