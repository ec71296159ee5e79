package dex

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"lpScope/internal/model"
)

// TokenCache caches token metadata by address. Symbol and decimals are
// treated as immutable once read.
type TokenCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenInfo
}

// NewTokenCache returns an empty cache.
func NewTokenCache() *TokenCache {
	return &TokenCache{data: make(map[common.Address]model.TokenInfo)}
}

// Get returns the cached metadata of address, if any.
func (c *TokenCache) Get(address common.Address) (model.TokenInfo, bool) {
	c.mu.RLock()
	info, ok := c.data[address]
	c.mu.RUnlock()
	return info, ok
}

// Set stores info under its address.
func (c *TokenCache) Set(info model.TokenInfo) {
	c.mu.Lock()
	c.data[info.Address] = info
	c.mu.Unlock()
}

// Len reports how many tokens are cached.
func (c *TokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
