package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value   []byte
	expires time.Time // нулевое значение - без истечения
}

// MemoryCache - in-memory CacheRepo для одного процесса и тестов
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time

	requests, hits, misses int64
}

// NewMemoryCache создаёт пустой кеш
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

// Get возвращает копию значения
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	item, ok := m.items[key]
	if ok && !item.expires.IsZero() && !m.now().Before(item.expires) {
		delete(m.items, key)
		ok = false
	}
	if !ok {
		m.misses++
		return nil, ErrCacheMiss
	}
	m.hits++
	return append([]byte(nil), item.value...), nil
}

// Set сохраняет копию значения
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expires = m.now().Add(ttl)
	}
	m.items[key] = item
	return nil
}

// Delete удаляет ключ
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Close очищает кеш
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]memoryItem)
	return nil
}

// GetMetrics возвращает счётчики обращений
func (m *MemoryCache) GetMetrics() CacheMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newMetrics(m.requests, m.hits, m.misses, 0)
}
