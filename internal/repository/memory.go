package repository

import (
	"context"
	"sync"
	"time"
)

type memoryToken struct {
	subject   string
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryTokenStore is the in-process token store used when Redis is absent
// or down. Entries do not survive a restart.
type MemoryTokenStore struct {
	tokens     sync.Map
	rateLimits sync.Map
	mu         sync.Mutex
	now        func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{now: time.Now}
}

func (r *MemoryTokenStore) SaveToken(_ context.Context, purpose, token, subject string, ttl time.Duration) error {
	r.tokens.Store(tokenKey(purpose, token), memoryToken{subject: subject, expiresAt: r.now().Add(ttl)})
	return nil
}

func (r *MemoryTokenStore) ConsumeToken(_ context.Context, purpose, token string) (string, error) {
	val, ok := r.tokens.LoadAndDelete(tokenKey(purpose, token))
	if !ok {
		return "", nil
	}
	entry := val.(memoryToken)
	if r.now().After(entry.expiresAt) {
		return "", nil
	}
	return entry.subject, nil
}

func (r *MemoryTokenStore) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}

func (r *MemoryTokenStore) ResetRateLimit(_ context.Context, key string) error {
	r.rateLimits.Delete(key)
	return nil
}
