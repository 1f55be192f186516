package cuisine

import (
	"context"
	"strings"
	"time"

	"recipe-ingestor/internal/core/cache"
	"recipe-ingestor/internal/pkg/common"
)

// CachedClassifier 以緩存包裝分類服務，只緩存成功結果
type CachedClassifier struct {
	inner Classifier
	store cache.Store
	ttl   time.Duration
}

// NewCachedClassifier store 為 nil 時直接回傳 inner
func NewCachedClassifier(inner Classifier, store cache.Store, ttl time.Duration) Classifier {
	if store == nil {
		return inner
	}
	return &CachedClassifier{inner: inner, store: store, ttl: ttl}
}

func (c *CachedClassifier) Name() string {
	return c.inner.Name()
}

func (c *CachedClassifier) key(text string) string {
	return common.HashKey("cuisine:"+c.inner.Name(), strings.TrimSpace(text))
}

// ClassifyRecipe 先查緩存，未命中再呼叫底層服務
func (c *CachedClassifier) ClassifyRecipe(ctx context.Context, text string) (*Classification, error) {
	key := c.key(text)
	if cls, ok := cache.GetJSON[Classification](ctx, c.store, key); ok {
		return &cls, nil
	}

	cls, err := c.inner.ClassifyRecipe(ctx, text)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, c.store, key, cls, c.ttl)
	return cls, nil
}

func (c *CachedClassifier) ClassifyBatch(ctx context.Context, texts []string) ([]Classification, error) {
	return ClassifyEach(ctx, c, texts)
}

func (c *CachedClassifier) IsReady(ctx context.Context) bool {
	return c.inner.IsReady(ctx)
}
