package macro

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"recipe-ingestor/internal/core/fallback"
	"recipe-ingestor/internal/pkg/common"
)

// Manager 依序嘗試主要與備援營養分析服務
type Manager struct {
	chain *fallback.Chain[Analyzer]
}

// NewManager 建立營養分析管理器
func NewManager(primary Analyzer, fallbacks ...Analyzer) *Manager {
	named := make([]fallback.Named[Analyzer], 0, len(fallbacks))
	for _, a := range fallbacks {
		named = append(named, fallback.Named[Analyzer]{Name: a.Name(), Provider: a})
	}
	return &Manager{
		chain: fallback.NewChain(fallback.Named[Analyzer]{Name: primary.Name(), Provider: primary}, named...),
	}
}

// AnalyzeIngredient 分析單一食材，grams <= 0 時以 100g 計
func (m *Manager) AnalyzeIngredient(ctx context.Context, name string, grams float64) *MacroAnalysisResult {
	if grams <= 0 {
		grams = DefaultIngredientGrams
	}
	out := fallback.Do(ctx, m.chain, "analyze_ingredient", func(ctx context.Context, a Analyzer) fallback.Result[*MacroAnalysisResult] {
		return classify(a.AnalyzeIngredient(ctx, name, grams))
	})
	return finish(out, name, AnalysisIngredient)
}

// AnalyzeRecipe 分析整份食譜
func (m *Manager) AnalyzeRecipe(ctx context.Context, text string, servings *int) *MacroAnalysisResult {
	out := fallback.Do(ctx, m.chain, "analyze_recipe", func(ctx context.Context, a Analyzer) fallback.Result[*MacroAnalysisResult] {
		return classify(a.AnalyzeRecipe(ctx, text, servings))
	})
	return finish(out, TruncateName(text), AnalysisRecipe)
}

// SearchFoods 回傳第一個有結果的服務之搜尋結果
func (m *Manager) SearchFoods(ctx context.Context, query string, limit int) []string {
	out := fallback.Do(ctx, m.chain, "search_foods", func(ctx context.Context, a Analyzer) fallback.Result[[]string] {
		foods, err := a.SearchFoods(ctx, query, limit)
		if err != nil {
			return fallback.Fail[[]string](kindOf(err), err)
		}
		if len(foods) == 0 {
			return fallback.Fail[[]string](fallback.KindNotFound, fmt.Errorf("no foods found for %q", query))
		}
		return fallback.OK(foods)
	})
	if !out.OK() {
		return []string{}
	}
	return out.Value
}

// IsAvailable 任一服務可用即視為可用
func (m *Manager) IsAvailable(ctx context.Context) bool {
	for _, p := range m.chain.Providers() {
		if p.Provider.IsAvailable(ctx) {
			return true
		}
	}
	return false
}

// ProviderStatus 各服務可用狀態
func (m *Manager) ProviderStatus(ctx context.Context) map[string]bool {
	status := make(map[string]bool, m.chain.Len())
	for _, p := range m.chain.Providers() {
		status[p.Name] = p.Provider.IsAvailable(ctx)
	}
	return status
}

// AnalyzeMultipleIngredients 逐筆分析，結果長度與輸入相同
func (m *Manager) AnalyzeMultipleIngredients(ctx context.Context, names []string) []*MacroAnalysisResult {
	common.LogInfo("開始批次食材分析", zap.Int("count", len(names)))
	results := make([]*MacroAnalysisResult, 0, len(names))
	for i, name := range names {
		if i >= MaxBatchSize {
			results = append(results, ErrorResult(name, fmt.Sprintf("batch limit of %d exceeded", MaxBatchSize), AnalysisIngredient, ""))
			continue
		}
		results = append(results, m.AnalyzeIngredient(ctx, name, DefaultIngredientGrams))
	}
	common.LogInfo("批次食材分析完成", zap.Int("total", len(names)), zap.Int("successful", countOK(results)))
	return results
}

// AnalyzeMultipleRecipes 逐筆分析，結果長度與輸入相同
func (m *Manager) AnalyzeMultipleRecipes(ctx context.Context, texts []string) []*MacroAnalysisResult {
	common.LogInfo("開始批次食譜分析", zap.Int("count", len(texts)))
	results := make([]*MacroAnalysisResult, 0, len(texts))
	for i, text := range texts {
		if i >= MaxBatchSize {
			results = append(results, ErrorResult(TruncateName(text), fmt.Sprintf("batch limit of %d exceeded", MaxBatchSize), AnalysisRecipe, ""))
			continue
		}
		results = append(results, m.AnalyzeRecipe(ctx, text, nil))
	}
	common.LogInfo("批次食譜分析完成", zap.Int("total", len(texts)), zap.Int("successful", countOK(results)))
	return results
}

// classify 將服務回傳值轉為備援鏈結果
func classify(res *MacroAnalysisResult, err error) fallback.Result[*MacroAnalysisResult] {
	if err != nil {
		return fallback.Fail[*MacroAnalysisResult](kindOf(err), err)
	}
	if res == nil {
		return fallback.Fail[*MacroAnalysisResult](fallback.KindProviderFailure, errors.New("analyzer returned no result"))
	}

	var kind fallback.ErrorKind
	switch res.Status {
	case StatusSuccess:
		return fallback.OK(res)
	case StatusNotFound:
		kind = fallback.KindNotFound
	case StatusPartial:
		kind = fallback.KindPartial
	default:
		kind = fallback.KindProviderFailure
	}

	msg := res.ErrorMessage
	if msg == "" {
		msg = string(res.Status)
	}
	r := fallback.Fail[*MacroAnalysisResult](kind, errors.New(msg))
	r.Value = res
	return r
}

func kindOf(err error) fallback.ErrorKind {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return fallback.KindUnavailable
	}
	return fallback.KindProviderFailure
}

func finish(out fallback.Outcome[*MacroAnalysisResult], foodName string, analysisType AnalysisType) *MacroAnalysisResult {
	if out.OK() {
		return out.Value
	}
	msg := "all analysis providers failed"
	if out.Err != nil {
		msg = out.Err.Error()
	}
	return ErrorResult(foodName, msg, analysisType, "")
}

func countOK(results []*MacroAnalysisResult) int {
	n := 0
	for _, r := range results {
		if r.OK() {
			n++
		}
	}
	return n
}
