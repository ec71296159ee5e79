package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"lpScope/internal/model"
)

type memoryFinder struct {
	rows map[common.Address]model.Pool
}

func (m *memoryFinder) FindPool(_ context.Context, chainID uint64, address common.Address, block *big.Int) (model.Pool, error) {
	row, ok := m.rows[address]
	if !ok || row.ChainID != chainID || (block != nil && row.FirstSeenBlock > block.Uint64()) {
		return model.Pool{}, fmt.Errorf("pool %s: %w", address.Hex(), model.ErrNotFound)
	}
	return row, nil
}

func TestRegistrySourceGetPool(t *testing.T) {
	poolAddr := common.HexToAddress("0x7b1E5D984A43eE732de195628d20d05CFaBc3cC7")
	weth := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	ondo := common.HexToAddress("0xfAbA6f8e4a5E8Ab82F62fe7C39859FA577269BE3")

	finder := &memoryFinder{rows: map[common.Address]model.Pool{
		poolAddr: {
			ChainID:        1,
			Address:        poolAddr.Hex(),
			Token0:         weth.Hex(),
			Token1:         ondo.Hex(),
			Fee:            3000,
			FirstSeenBlock: 15000000,
		},
	}}
	source := NewRegistrySource(finder, 1)
	ctx := context.Background()

	record, err := source.GetPool(ctx, poolAddr, big.NewInt(16000000))
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if record.Token0 != weth || record.Token1 != ondo || record.FeeTier != 3000 {
		t.Fatalf("record mismatch: %+v", record)
	}

	if _, err := source.GetPool(ctx, poolAddr, big.NewInt(14000000)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("pool created after the block should be not found, got %v", err)
	}

	other := NewRegistrySource(finder, 56)
	if _, err := other.GetPool(ctx, poolAddr, nil); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("pool on another chain should be not found, got %v", err)
	}
}
