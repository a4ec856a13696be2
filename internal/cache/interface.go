package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss возвращается, если ключа нет в кеше
var ErrCacheMiss = errors.New("cache: промах")

// CacheRepo определяет интерфейс хранилища кеша.
//
// Использование:
//
//	repo := NewMemoryCache()
//	err := repo.Set(ctx, "key", data, 30*time.Second)
//	data, err := repo.Get(ctx, "key")
type CacheRepo interface {
	// Get получает значение по ключу. Возвращает ErrCacheMiss, если ключ не найден.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение с указанным TTL. TTL = 0 означает отсутствие истечения.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет ключ из кеша.
	Delete(ctx context.Context, key string) error

	// Close закрывает соединение с кешем.
	Close() error

	// GetMetrics возвращает метрики кеша.
	GetMetrics() CacheMetrics
}

// CacheMetrics содержит счётчики обращений к кешу
type CacheMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	HitRatio      float64 `json:"hit_ratio"`
	Errors        int64   `json:"errors"`
}

func newMetrics(requests, hits, misses, errs int64) CacheMetrics {
	m := CacheMetrics{
		TotalRequests: requests,
		CacheHits:     hits,
		CacheMisses:   misses,
		Errors:        errs,
	}
	if requests > 0 {
		m.HitRatio = float64(hits) / float64(requests)
	}
	return m
}
