package macro

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recipe-ingestor/internal/core/cache"
	"recipe-ingestor/internal/pkg/common"
)

// CachedAnalyzer 緩存成功的分析結果
type CachedAnalyzer struct {
	inner Analyzer
	store cache.Store
	ttl   time.Duration
}

// NewCachedAnalyzer store 為 nil 時直接回傳 inner
func NewCachedAnalyzer(inner Analyzer, store cache.Store, ttl time.Duration) Analyzer {
	if store == nil {
		return inner
	}
	return &CachedAnalyzer{inner: inner, store: store, ttl: ttl}
}

func (c *CachedAnalyzer) Name() string {
	return c.inner.Name()
}

func (c *CachedAnalyzer) AnalyzeIngredient(ctx context.Context, name string, grams float64) (*MacroAnalysisResult, error) {
	key := common.HashKey("macro:ingredient:"+c.inner.Name(), strings.ToLower(strings.TrimSpace(name)), fmt.Sprintf("%g", grams))
	return c.cached(ctx, key, func() (*MacroAnalysisResult, error) {
		return c.inner.AnalyzeIngredient(ctx, name, grams)
	})
}

func (c *CachedAnalyzer) AnalyzeRecipe(ctx context.Context, text string, servings *int) (*MacroAnalysisResult, error) {
	s := "none"
	if servings != nil {
		s = fmt.Sprint(*servings)
	}
	key := common.HashKey("macro:recipe:"+c.inner.Name(), strings.TrimSpace(text), s)
	return c.cached(ctx, key, func() (*MacroAnalysisResult, error) {
		return c.inner.AnalyzeRecipe(ctx, text, servings)
	})
}

func (c *CachedAnalyzer) SearchFoods(ctx context.Context, query string, limit int) ([]string, error) {
	return c.inner.SearchFoods(ctx, query, limit)
}

func (c *CachedAnalyzer) IsAvailable(ctx context.Context) bool {
	return c.inner.IsAvailable(ctx)
}

func (c *CachedAnalyzer) cached(ctx context.Context, key string, fn func() (*MacroAnalysisResult, error)) (*MacroAnalysisResult, error) {
	if res, ok := cache.GetJSON[MacroAnalysisResult](ctx, c.store, key); ok {
		return &res, nil
	}
	res, err := fn()
	if err != nil {
		return nil, err
	}
	if res.OK() {
		cache.SetJSON(ctx, c.store, key, res, c.ttl)
	}
	return res, nil
}
