package indexer

import (
	"errors"
	"fmt"
)

// BlockRange is an inclusive span of blocks.
type BlockRange struct {
	From uint64
	To   uint64
}

// Blocks returns the number of blocks in the range.
func (r BlockRange) Blocks() uint64 {
	return r.To - r.From + 1
}

// SplitRange cuts [from, to] into consecutive ranges of at most size blocks.
func SplitRange(from, to, size uint64) ([]BlockRange, error) {
	switch {
	case size == 0:
		return nil, errors.New("batch size must be greater than zero")
	case to < from:
		return nil, fmt.Errorf("invalid block range %d-%d", from, to)
	}

	out := make([]BlockRange, 0, (to-from)/size+1)
	for start := from; ; start += size {
		end := to
		if to-start >= size {
			end = start + size - 1
		}
		out = append(out, BlockRange{From: start, To: end})
		if end == to {
			return out, nil
		}
	}
}

// pendingRange narrows [from, to] to what is left after the last processed block.
// ok is false when nothing remains.
func pendingRange(from, to, last uint64, resumed bool) (BlockRange, bool) {
	if resumed && last >= from {
		if last == ^uint64(0) {
			return BlockRange{}, false
		}
		from = last + 1
	}
	if from > to {
		return BlockRange{}, false
	}
	return BlockRange{From: from, To: to}, true
}
