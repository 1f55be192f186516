package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-ingestor/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// RedisStore Redis 緩存
type RedisStore struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedisStore 連線 Redis 並測試連接
func NewRedisStore(ctx context.Context, rc config.RedisConfig, cc config.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreFromClient(client, cc.TTL), nil
}

// NewRedisStoreFromClient 以既有 client 建立緩存
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:     client,
		prefix:     "recipe-ingestor:",
		defaultTTL: ttl,
	}
}

// Get 獲取緩存
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}
	return data, nil
}

// Set 設置緩存
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Stats Redis 連線池統計
func (s *RedisStore) Stats() map[string]interface{} {
	ps := s.client.PoolStats()
	return map[string]interface{}{
		"backend":     "redis",
		"hits":        ps.Hits,
		"misses":      ps.Misses,
		"timeouts":    ps.Timeouts,
		"total_conns": ps.TotalConns,
		"idle_conns":  ps.IdleConns,
	}
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
