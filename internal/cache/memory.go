package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is the process-local L1. Entries are stored as JSON so callers
// never share mutable values, and all entries share one TTL.
type MemoryCache struct {
	lru *expirable.LRU[string, []byte]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (m *MemoryCache) Set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	m.lru.Add(key, data)
	return nil
}

func (m *MemoryCache) SetBytes(key string, data []byte) {
	m.lru.Add(key, data)
}

func (m *MemoryCache) Get(key string, dest interface{}) error {
	data, ok := m.lru.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return nil
}

func (m *MemoryCache) Delete(key string) {
	m.lru.Remove(key)
}

func (m *MemoryCache) Len() int {
	return m.lru.Len()
}
