package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"lpScope/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pools.jsonl")
	sink := NewJsonlStorage(path)
	ctx := context.Background()

	first := []model.Pool{{
		ChainID:        1,
		Address:        "0x7b1E5D984A43eE732de195628d20d05CFaBc3cC7",
		Token0:         "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		Token1:         "0xfAbA6f8e4a5E8Ab82F62fe7C39859FA577269BE3",
		Fee:            3000,
		TickSpacing:    60,
		FirstSeenBlock: 14000000,
	}}
	second := []model.Pool{{ChainID: 1, Address: "0x0000000000000000000000000000000000000002", Fee: 500, TickSpacing: 10}}

	if err := sink.PutPoolBatch(ctx, first); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := sink.PutPoolBatch(ctx, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if err := sink.PutPoolBatch(ctx, second); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var got []model.Pool
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var pool model.Pool
		if err := json.Unmarshal(scanner.Bytes(), &pool); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		got = append(got, pool)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if got[0] != first[0] || got[1] != second[0] {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
