package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"botdesk/internal/domain"

	"github.com/rs/zerolog"
)

const failoverRecheck = time.Minute

// FailoverTokenStore prefers primary and switches to fallback after the first
// primary error, retrying primary once per minute.
type FailoverTokenStore struct {
	primary  domain.TokenStore
	fallback domain.TokenStore
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverTokenStore(primary, fallback domain.TokenStore, logger *zerolog.Logger) *FailoverTokenStore {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverTokenStore{primary: primary, fallback: fallback, logger: logger}
}

func (r *FailoverTokenStore) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > failoverRecheck {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverTokenStore) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("primary token store failed, falling back to memory")
	}
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverTokenStore) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("primary token store recovered")
	}
}

func (r *FailoverTokenStore) SaveToken(ctx context.Context, purpose, token, subject string, ttl time.Duration) error {
	if r.usePrimary() {
		err := r.primary.SaveToken(ctx, purpose, token, subject, ttl)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SaveToken(ctx, purpose, token, subject, ttl)
}

// ConsumeToken checks primary first, then fallback, so tokens issued while
// primary was down stay redeemable after it recovers.
func (r *FailoverTokenStore) ConsumeToken(ctx context.Context, purpose, token string) (string, error) {
	if r.usePrimary() {
		subject, err := r.primary.ConsumeToken(ctx, purpose, token)
		if err == nil {
			r.markUp()
			if subject != "" {
				return subject, nil
			}
		} else {
			r.markDown(err)
		}
	}
	return r.fallback.ConsumeToken(ctx, purpose, token)
}

func (r *FailoverTokenStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverTokenStore) ResetRateLimit(ctx context.Context, key string) error {
	if r.usePrimary() {
		err := r.primary.ResetRateLimit(ctx, key)
		if err == nil {
			r.markUp()
			return r.fallback.ResetRateLimit(ctx, key)
		}
		r.markDown(err)
	}
	return r.fallback.ResetRateLimit(ctx, key)
}
