package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lpScope/internal/model"
)

// JsonlStorage appends pool rows to a JSON lines file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutPoolBatch appends one line per pool and syncs the file, so a checkpoint
// saved after it never runs ahead of the data.
func (s *JsonlStorage) PutPoolBatch(_ context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}

	buf := bufio.NewWriter(file)
	enc := json.NewEncoder(buf)
	for i := range pools {
		if err := enc.Encode(&pools[i]); err != nil {
			file.Close()
			return fmt.Errorf("encode pool %s: %w", pools[i].Address, err)
		}
	}
	if err := buf.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("flush %s: %w", s.path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	return file.Close()
}
