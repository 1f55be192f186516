// Package cache 提供分類與營養分析結果的緩存
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrMiss 緩存未命中
var ErrMiss = common.ErrCacheMiss

// Store 緩存後端
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Stats() map[string]interface{}
	Close() error
}

// New 依設定建立緩存，停用時回傳 nil
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}
	switch cfg.Cache.Backend {
	case "redis":
		rs, err := NewRedisStore(ctx, cfg.Redis, cfg.Cache)
		if err != nil {
			return nil, err
		}
		return rs, nil
	case "memory", "":
		return NewMemoryStore(cfg.Cache), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// GetJSON 讀取並解析 JSON 緩存
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool) {
	var v T
	if s == nil {
		return v, false
	}
	data, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			common.LogWarn("讀取快取失敗", zap.Error(err))
		}
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		common.LogWarn("快取內容無法解析", zap.Error(err))
		return v, false
	}
	return v, true
}

// SetJSON 序列化後寫入緩存，失敗只記錄不回傳
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) {
	if s == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		common.LogWarn("快取序列化失敗", zap.Error(err))
		return
	}
	if err := s.Set(ctx, key, data, ttl); err != nil {
		common.LogWarn("寫入快取失敗", zap.Error(err))
	}
}
