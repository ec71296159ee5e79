package validate

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"lpScope/internal/model"
)

func TestSyntax(t *testing.T) {
	cases := []struct {
		name    string
		address string
		ok      bool
	}{
		{"checksummed", "0x7b1E5D984A43eE732de195628d20d05CFaBc3cC7", true},
		{"lowercase", "0x7b1e5d984a43ee732de195628d20d05cfabc3cc7", true},
		{"uppercase body", "0x7B1E5D984A43EE732DE195628D20D05CFABC3CC7", true},
		{"no prefix", "e403043a0f9c7b9f315cf145166eb747d9790e77", true},
		{"bad checksum", "0x7b1E5D984A43eE732de195628d20d05CFaBc3cc7", false},
		{"short", "0x7b1e5d984a43ee732de195628d20d05cfabc3c", false},
		{"long", "0x7b1e5d984a43ee732de195628d20d05cfabc3cc700", false},
		{"non hex", "0x7b1e5d984a43ee732de195628d20d05cfabc3czz", false},
		{"empty", "", false},
		{"prefix only", "0x", false},
		{"garbage", "not-an-address", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Syntax(tc.address, "pool")
			if tc.ok {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			var invalid *model.InvalidAddressError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected invalid address error, got %v", err)
			}
			if invalid.Tag != "pool" || invalid.Address != tc.address {
				t.Fatalf("error context mismatch: %+v", invalid)
			}
		})
	}
}

func TestParseReturnsAddress(t *testing.T) {
	got, err := Parse("e403043a0f9c7b9f315cf145166eb747d9790e77", "user")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Hex() != "0xe403043A0F9C7B9F315Cf145166EB747D9790E77" {
		t.Fatalf("address mismatch: %s", got.Hex())
	}
}

type poolSourceFunc func(ctx context.Context, pool common.Address, block *big.Int) (model.PoolRecord, error)

func (f poolSourceFunc) GetPool(ctx context.Context, pool common.Address, block *big.Int) (model.PoolRecord, error) {
	return f(ctx, pool, block)
}

func TestPoolExists(t *testing.T) {
	known := common.HexToAddress("0x7b1E5D984A43eE732de195628d20d05CFaBc3cC7")
	broken := common.HexToAddress("0x0000000000000000000000000000000000000bad")
	var seenBlock *big.Int

	v := NewValidator(poolSourceFunc(func(_ context.Context, pool common.Address, block *big.Int) (model.PoolRecord, error) {
		seenBlock = block
		switch pool {
		case known:
			return model.PoolRecord{FeeTier: 3000}, nil
		case broken:
			return model.PoolRecord{}, errors.New("rpc unavailable")
		default:
			return model.PoolRecord{}, fmt.Errorf("pool %s: %w", pool.Hex(), model.ErrNotFound)
		}
	}))

	ctx := context.Background()
	exists, err := v.PoolExists(ctx, known, big.NewInt(7))
	if err != nil || !exists {
		t.Fatalf("expected known pool to exist: %v %v", exists, err)
	}
	if seenBlock == nil || seenBlock.Int64() != 7 {
		t.Fatalf("block not forwarded")
	}

	exists, err = v.PoolExists(ctx, common.HexToAddress("0x01"), nil)
	if err != nil || exists {
		t.Fatalf("expected unknown pool to be absent: %v %v", exists, err)
	}

	if _, err := v.PoolExists(ctx, broken, nil); err == nil {
		t.Fatalf("expected registry failure to propagate")
	}
}
