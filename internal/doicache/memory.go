// Package doicache provides the response caches behind archival DOI lookups.
//
// Entries never expire unless a TTL is configured: archived-file records for a
// DOI rarely change and repeat lookups stay reproducible. The in-memory layer
// is always bounded by capacity.
package doicache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCapacity bounds the in-memory layer when no capacity is configured.
const DefaultCapacity = 10000

// Memory is a thread-safe LRU cache of response bodies.
type Memory struct {
	entries *expirable.LRU[string, []byte]
	ttl     time.Duration
}

// MemoryConfig configures a Memory cache. A zero TTL keeps entries until evicted.
type MemoryConfig struct {
	Capacity int
	TTL      time.Duration
}

// NewMemory creates an LRU cache.
func NewMemory(cfg MemoryConfig) *Memory {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	ttl := cfg.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &Memory{
		entries: expirable.NewLRU[string, []byte](capacity, nil, ttl),
		ttl:     ttl,
	}
}

// Get returns a cached body and marks it recently used.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	body, ok := m.entries.Get(key)
	return body, ok, nil
}

// Put stores a body, evicting the least recently used entry when full.
func (m *Memory) Put(_ context.Context, key string, body []byte) error {
	m.entries.Add(key, body)
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	return m.entries.Len()
}

// TTL returns the configured entry lifetime, zero when entries never expire.
func (m *Memory) TTL() time.Duration {
	return m.ttl
}
