// Package cache кеширует сериализованные полезные нагрузки чанков
// (закодированные сетки высот и биомов). Генерация чанка детерминирована,
// поэтому кеш может жить долго и безопасно разделяться между комнатами
// с одинаковым сидом.
package cache

import (
	"context"
	"fmt"
	"time"
)

// CacheRepo определяет интерфейс кеша сериализованных чанков.
//
// Использование:
//
//	repo := NewMemoryCache(4096, 5*time.Minute)
//	data, err := repo.Get(ctx, "chunk:12345:0:0")
//	err = repo.Set(ctx, "chunk:12345:0:0", data, 5*time.Minute)
type CacheRepo interface {
	// Get получает значение по ключу.
	// Возвращает ErrCacheMiss если ключ не найден.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение с указанным TTL.
	// TTL = 0 означает отсутствие истечения.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет ключ из кеша.
	Delete(ctx context.Context, key string) error

	// Close закрывает соединение с кешем.
	Close() error

	// GetMetrics возвращает метрики кеша.
	GetMetrics() *CacheMetrics
}

// CacheMetrics содержит метрики производительности кеша.
type CacheMetrics struct {
	TotalRequests int64     `json:"total_requests"`
	CacheHits     int64     `json:"cache_hits"`
	CacheMisses   int64     `json:"cache_misses"`
	HitRatio      float64   `json:"hit_ratio"`
	TotalKeys     int64     `json:"total_keys"`
	LastUpdate    time.Time `json:"last_update"`
}

// Ошибки кеша
var (
	ErrCacheMiss  = NewCacheError("cache miss")
	ErrInvalidKey = NewCacheError("invalid key")
)

// CacheError представляет ошибку кеша.
type CacheError struct {
	Message string
}

func (e *CacheError) Error() string {
	return e.Message
}

func NewCacheError(message string) *CacheError {
	return &CacheError{Message: message}
}

// IsCacheMiss проверяет, является ли ошибка промахом кеша.
func IsCacheMiss(err error) bool {
	return err == ErrCacheMiss
}

// ChunkKey строит ключ кеша для чанка: chunk:<seed>:<cx>:<cz>.
// Сид входит в ключ, чтобы комнаты с разными мирами не пересекались.
func ChunkKey(seed int64, cx, cz int) string {
	return fmt.Sprintf("chunk:%d:%d:%d", seed, cx, cz)
}
