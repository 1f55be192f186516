package cuisine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"recipe-ingestor/internal/core/fallback"
	"recipe-ingestor/internal/pkg/common"
)

// Result 經過備援鏈後的分類結果
type Result struct {
	Status         fallback.Status    `json:"status"`
	Classification *Classification    `json:"classification,omitempty"`
	Provider       string             `json:"provider,omitempty"`
	Error          string             `json:"error,omitempty"`
	Attempts       []fallback.Attempt `json:"-"`
}

// OK 是否成功
func (r Result) OK() bool {
	return r.Status == fallback.StatusSuccess
}

// Manager 依序嘗試主要與備援分類服務
type Manager struct {
	chain *fallback.Chain[Classifier]
}

// NewManager 建立分類管理器
func NewManager(primary Classifier, fallbacks ...Classifier) *Manager {
	named := make([]fallback.Named[Classifier], 0, len(fallbacks))
	for _, c := range fallbacks {
		named = append(named, fallback.Named[Classifier]{Name: c.Name(), Provider: c})
	}
	return &Manager{
		chain: fallback.NewChain(fallback.Named[Classifier]{Name: primary.Name(), Provider: primary}, named...),
	}
}

// ClassifyRecipe 分類單筆食譜文字
func (m *Manager) ClassifyRecipe(ctx context.Context, text string) Result {
	if !ValidateRecipeText(text) {
		common.LogWarn("分類文字無效", zap.Int("length", len(text)))
		return Result{Status: fallback.StatusFailed, Error: ErrInvalidRecipeText.Error()}
	}

	out := fallback.Do(ctx, m.chain, "classify_recipe", func(ctx context.Context, c Classifier) fallback.Result[*Classification] {
		cls, err := c.ClassifyRecipe(ctx, text)
		if err != nil {
			return fallback.Fail[*Classification](kindOf(err), err)
		}
		if cls == nil || cls.PrimaryCuisine == "" {
			return fallback.Fail[*Classification](fallback.KindPartial, ErrUnexpectedResponse)
		}
		return fallback.OK(cls)
	})
	return toResult(out)
}

// ClassifyRecipeFromData 以標題與食材名稱分類
func (m *Manager) ClassifyRecipeFromData(ctx context.Context, title string, ingredients []string) Result {
	return m.ClassifyRecipe(ctx, PrepareRecipeText(title, ingredients))
}

// ClassifyBatch 逐筆分類，失敗項目以 FAILED 佔位
func (m *Manager) ClassifyBatch(ctx context.Context, texts []string) []Result {
	results := make([]Result, 0, len(texts))
	for _, text := range texts {
		results = append(results, m.ClassifyRecipe(ctx, text))
	}
	common.LogInfo("批次分類完成", zap.Int("total", len(texts)), zap.Int("successful", countOK(results)))
	return results
}

// IsReady 任一服務可用即視為可用
func (m *Manager) IsReady(ctx context.Context) bool {
	for _, p := range m.chain.Providers() {
		if p.Provider.IsReady(ctx) {
			return true
		}
	}
	return false
}

// ProviderStatus 各服務可用狀態
func (m *Manager) ProviderStatus(ctx context.Context) map[string]bool {
	status := make(map[string]bool, m.chain.Len())
	for _, p := range m.chain.Providers() {
		status[p.Name] = p.Provider.IsReady(ctx)
	}
	return status
}

func kindOf(err error) fallback.ErrorKind {
	switch {
	case errors.Is(err, ErrProviderUnavailable):
		return fallback.KindUnavailable
	case errors.Is(err, ErrUnexpectedResponse):
		return fallback.KindPartial
	default:
		return fallback.KindProviderFailure
	}
}

func toResult(out fallback.Outcome[*Classification]) Result {
	r := Result{
		Status:         out.Status,
		Classification: out.Value,
		Provider:       out.Provider,
		Attempts:       out.Attempts,
	}
	if out.Err != nil {
		r.Error = out.Err.Error()
	}
	return r
}

func countOK(results []Result) int {
	n := 0
	for _, r := range results {
		if r.OK() {
			n++
		}
	}
	return n
}
