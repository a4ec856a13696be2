package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/rts-pathing/internal/config"
	"github.com/annel0/rts-pathing/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisCache реализует CacheRepo поверх Redis.
// Все ключи получают общий префикс, чтобы несколько сервисов делили одну базу.
type RedisCache struct {
	client *redis.Client
	prefix string
	maxTTL time.Duration

	requests int64
	hits     int64
	misses   int64
	errors   int64
}

// NewRedisCache подключается к Redis и проверяет соединение
func NewRedisCache(cfg config.CacheConfig) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisURL(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     10,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Redis cache initialized: %s", cfg.GetRedisURL())
	return &RedisCache{
		client: rdb,
		prefix: cfg.KeyPrefix,
		maxTTL: time.Hour,
	}, nil
}

func (r *RedisCache) key(key string) string {
	return r.prefix + key
}

// Get получает значение по ключу
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	atomic.AddInt64(&r.requests, 1)

	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == nil {
		atomic.AddInt64(&r.hits, 1)
		return val, nil
	}

	atomic.AddInt64(&r.misses, 1)
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	atomic.AddInt64(&r.errors, 1)
	logging.Error("Redis Get error for key %s: %v", key, err)
	return nil, fmt.Errorf("redis get error: %w", err)
}

// Set сохраняет значение. TTL больше часа обрезается.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl > r.maxTTL {
		ttl = r.maxTTL
	}

	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		atomic.AddInt64(&r.errors, 1)
		logging.Error("Redis Set error for key %s: %v", key, err)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Delete удаляет ключ
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		atomic.AddInt64(&r.errors, 1)
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// GetMetrics возвращает счётчики обращений
func (r *RedisCache) GetMetrics() CacheMetrics {
	return newMetrics(
		atomic.LoadInt64(&r.requests),
		atomic.LoadInt64(&r.hits),
		atomic.LoadInt64(&r.misses),
		atomic.LoadInt64(&r.errors),
	)
}
