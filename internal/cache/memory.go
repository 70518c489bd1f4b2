package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Memory is a size-bounded in-process cache. Entries expire after ttl
// (zero disables expiry); the least recently used entries are evicted first.
type Memory struct {
	entries     map[string]*memoryEntry
	now         func() time.Time
	ttl         time.Duration
	maxSize     int64
	currentSize int64
	hits        atomic.Int64
	misses      atomic.Int64
	mu          sync.Mutex
}

type memoryEntry struct {
	createdAt  time.Time
	lastAccess time.Time
	data       []byte
}

// NewMemory creates a memory cache holding at most maxSizeBytes.
func NewMemory(maxSizeBytes int64, ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]*memoryEntry),
		maxSize: maxSizeBytes,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Name implements Layer.
func (m *Memory) Name() string { return "MEMORY" }

// Get implements Layer.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if ok && m.ttl > 0 && m.now().Sub(e.createdAt) > m.ttl {
		m.removeLocked(key, e)
		ok = false
	}
	if !ok {
		m.misses.Add(1)
		return nil, false, nil
	}

	e.lastAccess = m.now()
	m.hits.Add(1)
	return e.data, true, nil
}

// Set implements Layer. Objects larger than the whole cache are not stored.
func (m *Memory) Set(_ context.Context, key string, data []byte) error {
	size := int64(len(data))
	if size > m.maxSize {
		log.Debug().Str("key", key).Int64("size", size).Msg("Object exceeds memory cache size, not cached")
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[key]; ok {
		m.removeLocked(key, old)
	}
	for m.currentSize+size > m.maxSize {
		if !m.evictLocked() {
			break
		}
	}

	now := m.now()
	m.entries[key] = &memoryEntry{data: data, createdAt: now, lastAccess: now}
	m.currentSize += size
	return nil
}

// Clear implements Layer.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*memoryEntry)
	m.currentSize = 0
	m.hits.Store(0)
	m.misses.Store(0)
	return nil
}

// Stats implements Layer.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	objects, size := len(m.entries), m.currentSize
	m.mu.Unlock()

	hits, misses := m.hits.Load(), m.misses.Load()
	return Stats{
		Name:      "Memory",
		Objects:   objects,
		SizeBytes: size,
		Hits:      hits,
		Misses:    misses,
		HitRate:   hitRate(hits, misses),
	}
}

func (m *Memory) evictLocked() bool {
	var oldestKey string
	var oldest *memoryEntry
	for k, e := range m.entries {
		if oldest == nil || e.lastAccess.Before(oldest.lastAccess) {
			oldestKey, oldest = k, e
		}
	}
	if oldest == nil {
		return false
	}

	m.removeLocked(oldestKey, oldest)
	log.Trace().Str("key", oldestKey).Msg("Evicted from memory cache")
	return true
}

func (m *Memory) removeLocked(key string, e *memoryEntry) {
	delete(m.entries, key)
	m.currentSize -= int64(len(e.data))
}
