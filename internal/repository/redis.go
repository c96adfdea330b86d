package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"botdesk/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix     = "token"
	rateLimitKeyPrefix = "rate_limit"
)

// RedisTokenStore keeps one-time tokens (email verification, password reset)
// and attempt counters in Redis.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func tokenKey(purpose, token string) string {
	return fmt.Sprintf("%s:%s:%s", tokenKeyPrefix, purpose, token)
}

func (r *RedisTokenStore) SaveToken(ctx context.Context, purpose, token, subject string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Set(ctx, tokenKey(purpose, token), subject, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save token in redis: %w", err)
	}
	return nil
}

// ConsumeToken returns the token's subject and deletes it. Unknown or
// expired tokens yield "".
func (r *RedisTokenStore) ConsumeToken(ctx context.Context, purpose, token string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}
	val, err := r.client.GetDel(ctx, tokenKey(purpose, token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume token from redis: %w", err)
	}
	return val, nil
}

func (r *RedisTokenStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	k := fmt.Sprintf("%s:%s", rateLimitKeyPrefix, key)
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, k, window)
	}

	return count <= int64(limit), nil
}

func (r *RedisTokenStore) ResetRateLimit(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, fmt.Sprintf("%s:%s", rateLimitKeyPrefix, key)).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
