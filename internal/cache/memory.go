package cache

import (
	"context"
	"sync"
	"time"

	"options-screener/internal/models"
)

type memoryEntry struct {
	result    models.AnalysisResult
	expiresAt time.Time
}

// MemoryCache is a process-local cache. Expired entries are dropped lazily on
// read and swept on write.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Cache.
func (m *MemoryCache) Get(ctx context.Context, key string) (*models.AnalysisResult, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(entry.expiresAt) {
		return nil, false, nil
	}
	result := entry.result
	return &result, true, nil
}

// Set implements Cache.
func (m *MemoryCache) Set(ctx context.Context, key string, result *models.AnalysisResult, ttl time.Duration) error {
	if result == nil || ttl <= 0 {
		return nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.entries[key] = memoryEntry{result: *result, expiresAt: now.Add(ttl)}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close implements Cache.
func (m *MemoryCache) Close() error {
	return nil
}
