package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache реализует CacheRepo в памяти процесса.
// Используется по умолчанию, когда Redis не сконфигурирован.
// Вытеснение ленивое: протухшие записи удаляются при обращении,
// при переполнении выбрасывается самая старая запись.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]*memEntry
	maxEntries int
	defaultTTL time.Duration

	requests int64
	hits     int64
	misses   int64
}

type memEntry struct {
	value     []byte
	createdAt time.Time
	expiresAt time.Time // нулевое значение — без истечения
}

// NewMemoryCache создаёт in-memory кеш.
// maxEntries <= 0 означает без ограничения, defaultTTL применяется при ttl=0 в Set.
func NewMemoryCache(maxEntries int, defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]*memEntry),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
	}
}

// Get получает значение по ключу. Возвращает ErrCacheMiss при отсутствии.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	atomic.AddInt64(&m.requests, 1)

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if ok && entry.expired(time.Now()) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		ok = false
	}

	if !ok {
		atomic.AddInt64(&m.misses, 1)
		return nil, ErrCacheMiss
	}

	atomic.AddInt64(&m.hits, 1)
	return entry.value, nil
}

// Set сохраняет значение. При ttl=0 используется defaultTTL кеша.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl == 0 {
		ttl = m.defaultTTL
	}

	now := time.Now()
	entry := &memEntry{value: value, createdAt: now}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evictOldestLocked(now)
	}
	m.entries[key] = entry
	return nil
}

// Delete удаляет ключ из кеша.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Close очищает кеш.
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]*memEntry)
	m.mu.Unlock()
	return nil
}

// GetMetrics возвращает текущие метрики кеша.
func (m *MemoryCache) GetMetrics() *CacheMetrics {
	hits := atomic.LoadInt64(&m.hits)
	misses := atomic.LoadInt64(&m.misses)

	m.mu.RLock()
	keys := int64(len(m.entries))
	m.mu.RUnlock()

	metrics := &CacheMetrics{
		TotalRequests: atomic.LoadInt64(&m.requests),
		CacheHits:     hits,
		CacheMisses:   misses,
		TotalKeys:     keys,
		LastUpdate:    time.Now(),
	}
	if total := hits + misses; total > 0 {
		metrics.HitRatio = float64(hits) / float64(total)
	}
	return metrics
}

// evictOldestLocked освобождает место: сперва протухшие, иначе самая старая запись.
// Вызывается под mu.
func (m *MemoryCache) evictOldestLocked(now time.Time) {
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
			return
		}
	}

	var oldestKey string
	var oldestAt time.Time
	for key, entry := range m.entries {
		if oldestKey == "" || entry.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.createdAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}
