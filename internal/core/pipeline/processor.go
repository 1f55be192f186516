// Package pipeline 串接擷取、正規化、補充與儲存
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recipe-ingestor/internal/core/cuisine"
	"recipe-ingestor/internal/core/macro"
	"recipe-ingestor/internal/core/recipe"
	"recipe-ingestor/internal/core/scraper"
	"recipe-ingestor/internal/pkg/common"
)

// Status 單一網址的處理結果
type Status string

const (
	StatusIngested Status = "INGESTED"
	StatusSkipped  Status = "SKIPPED"
	StatusPreview  Status = "PREVIEW"
	StatusFailed   Status = "FAILED"
)

// PageScraper 下載並解析食譜頁面
type PageScraper interface {
	Scrape(ctx context.Context, rawURL string) (recipe.ScrapeResult, error)
}

// CuisineClassifier *cuisine.Manager 即符合
type CuisineClassifier interface {
	ClassifyRecipeFromData(ctx context.Context, title string, ingredients []string) cuisine.Result
}

// MacroAnalyzer *macro.Manager 即符合
type MacroAnalyzer interface {
	AnalyzeRecipe(ctx context.Context, text string, servings *int) *macro.MacroAnalysisResult
}

// Store 食譜儲存，*postgres.RecipeRepo 即符合
type Store interface {
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	Save(ctx context.Context, data *common.RecipeData) (uuid.UUID, error)
}

// Options 處理器依賴；Cuisine、Macros、Store 可為 nil
type Options struct {
	Scraper    PageScraper
	Normalizer *recipe.Normalizer
	Cuisine    CuisineClassifier
	Macros     MacroAnalyzer
	Store      Store
}

// Result 單一網址的處理紀錄
type Result struct {
	URL      string             `json:"url"`
	Status   Status             `json:"status"`
	RecipeID string             `json:"recipe_id,omitempty"`
	Recipe   *common.RecipeData `json:"recipe,omitempty"`
	Enriched []string           `json:"enriched,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Summary 批次處理統計
type Summary struct {
	Total    int       `json:"total"`
	Ingested int       `json:"ingested"`
	Skipped  int       `json:"skipped"`
	Preview  int       `json:"preview"`
	Failed   int       `json:"failed"`
	Results  []*Result `json:"results"`
}

// Processor 逐一處理食譜網址
type Processor struct {
	scraper    PageScraper
	normalizer *recipe.Normalizer
	cuisine    CuisineClassifier
	macros     MacroAnalyzer
	store      Store
}

// NewProcessor 創建處理器
func NewProcessor(opts Options) *Processor {
	n := opts.Normalizer
	if n == nil {
		n = recipe.NewNormalizer(nil)
	}
	return &Processor{
		scraper:    opts.Scraper,
		normalizer: n,
		cuisine:    opts.Cuisine,
		macros:     opts.Macros,
		store:      opts.Store,
	}
}

// FromScraper 將 *scraper.Scraper 包裝為 PageScraper
func FromScraper(s *scraper.Scraper) PageScraper {
	return pageScraper{s: s}
}

type pageScraper struct {
	s *scraper.Scraper
}

func (p pageScraper) Scrape(ctx context.Context, rawURL string) (recipe.ScrapeResult, error) {
	page, err := p.s.Scrape(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Process 擷取、正規化、補充菜系與營養並儲存；已存在的網址略過
func (p *Processor) Process(ctx context.Context, rawURL string) (*Result, error) {
	start := time.Now()
	res := &Result{URL: rawURL}

	if p.store != nil {
		exists, err := p.store.ExistsBySourceURL(ctx, rawURL)
		if err != nil {
			return p.fail(res, fmt.Errorf("check existing: %w", err))
		}
		if exists {
			res.Status = StatusSkipped
			common.LogInfo("食譜已存在，略過", zap.String("url", rawURL))
			return res, nil
		}
	}

	data, err := p.Normalize(ctx, rawURL)
	if err != nil {
		return p.fail(res, err)
	}
	res.Recipe = data
	res.Enriched = p.Enrich(ctx, data)

	if p.store == nil {
		res.Status = StatusPreview
		return res, nil
	}
	id, err := p.store.Save(ctx, data)
	if err != nil {
		return p.fail(res, fmt.Errorf("save recipe: %w", err))
	}
	res.Status = StatusIngested
	res.RecipeID = id.String()

	common.LogInfo("食譜匯入完成",
		zap.String("url", rawURL),
		zap.String("recipe_id", res.RecipeID),
		zap.String("title", data.Title),
		zap.Strings("enriched", res.Enriched),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

// Normalize 只做擷取與正規化，不補充也不儲存
func (p *Processor) Normalize(ctx context.Context, rawURL string) (*common.RecipeData, error) {
	if p.scraper == nil {
		return nil, errors.New("pipeline: no scraper configured")
	}
	src, err := p.scraper.Scrape(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return p.normalizer.Normalize(src, rawURL)
}

// Enrich 補上缺少的菜系與營養，回傳補充過的欄位
func (p *Processor) Enrich(ctx context.Context, data *common.RecipeData) []string {
	var enriched []string

	if data.CuisineType == "" && p.cuisine != nil {
		r := p.cuisine.ClassifyRecipeFromData(ctx, data.Title, data.IngredientNames())
		switch {
		case !r.OK():
			common.LogWarn("菜系分類失敗", zap.String("url", data.SourceURL), zap.String("error", r.Error))
		case r.Classification.PrimaryCuisine == cuisine.OtherCuisine:
			common.LogDebug("菜系無法判定", zap.String("url", data.SourceURL))
		default:
			data.CuisineType = r.Classification.PrimaryCuisine
			enriched = append(enriched, "cuisine")
		}
	}

	if data.Macros == nil && p.macros != nil {
		text := common.IngredientSliceToString(data.Ingredients)
		r := p.macros.AnalyzeRecipe(ctx, text, data.Servings)
		if r != nil && r.OK() && r.MacroNutrients != nil {
			data.Macros = r.MacroNutrients.ToMacroNutrition(data.Servings)
			enriched = append(enriched, "macros")
		} else if r != nil {
			common.LogWarn("營養分析失敗", zap.String("url", data.SourceURL), zap.String("error", r.ErrorMessage))
		}
	}
	return enriched
}

// Run 依序處理所有網址，ctx 取消時停止
func (p *Processor) Run(ctx context.Context, urls []string) *Summary {
	sum := &Summary{Results: make([]*Result, 0, len(urls))}
	for _, u := range urls {
		if ctx.Err() != nil {
			common.LogWarn("批次處理中止", zap.Int("remaining", len(urls)-sum.Total), zap.Error(ctx.Err()))
			break
		}
		res, _ := p.Process(ctx, u)
		sum.add(res)
	}
	common.LogInfo("批次處理完成",
		zap.Int("total", sum.Total),
		zap.Int("ingested", sum.Ingested),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
	)
	return sum
}

func (s *Summary) add(r *Result) {
	s.Total++
	s.Results = append(s.Results, r)
	switch r.Status {
	case StatusIngested:
		s.Ingested++
	case StatusSkipped:
		s.Skipped++
	case StatusPreview:
		s.Preview++
	default:
		s.Failed++
	}
}

func (p *Processor) fail(res *Result, err error) (*Result, error) {
	res.Status = StatusFailed
	res.Error = err.Error()
	common.LogError("食譜處理失敗", zap.String("url", res.URL), zap.Error(err))
	return res, err
}
