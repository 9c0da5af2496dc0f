package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/mmo-miner/internal/logging"
)

// RedisCache реализует CacheRepo поверх Redis.
// Полезен при нескольких процессах сервера: сериализованные чанки,
// посчитанные одним процессом, переиспользуются остальными.
type RedisCache struct {
	client     *redis.Client
	defaultTTL time.Duration

	requests int64
	hits     int64
	misses   int64
}

// NewRedisCache подключается к Redis по URL (redis://host:port/db).
func NewRedisCache(url string, defaultTTL time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	opts.ReadTimeout = 5 * time.Second
	opts.WriteTimeout = 5 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logging.Info("🗄️ Redis кеш чанков подключен: %s", opts.Addr)
	return &RedisCache{client: rdb, defaultTTL: defaultTTL}, nil
}

// Get получает значение по ключу. Возвращает ErrCacheMiss при отсутствии.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	atomic.AddInt64(&r.requests, 1)

	val, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		atomic.AddInt64(&r.hits, 1)
		return val, nil
	}

	atomic.AddInt64(&r.misses, 1)
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	logging.Error("Redis Get %s: %v", key, err)
	return nil, fmt.Errorf("redis get: %w", err)
}

// Set сохраняет значение. При ttl=0 используется defaultTTL кеша.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl == 0 {
		ttl = r.defaultTTL
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logging.Error("Redis Set %s: %v", key, err)
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete удаляет ключ из кеша.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// GetMetrics возвращает текущие метрики кеша.
func (r *RedisCache) GetMetrics() *CacheMetrics {
	hits := atomic.LoadInt64(&r.hits)
	misses := atomic.LoadInt64(&r.misses)

	metrics := &CacheMetrics{
		TotalRequests: atomic.LoadInt64(&r.requests),
		CacheHits:     hits,
		CacheMisses:   misses,
		LastUpdate:    time.Now(),
	}
	if total := hits + misses; total > 0 {
		metrics.HitRatio = float64(hits) / float64(total)
	}
	return metrics
}
