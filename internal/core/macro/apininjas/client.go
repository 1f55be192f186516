// Package apininjas API Ninjas nutrition 端點，支援單一食材與整份食譜文字分析
package apininjas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"recipe-ingestor/internal/core/macro"
	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"
)

const (
	providerName   = "api_ninjas"
	sourcePremium  = "API Ninja"
	sourceFree     = "API Ninja (Free)"
	nutritionPath  = "/v1/nutrition"
	readyTimeout   = 5 * time.Second
	confidenceFull = 0.8
	confidenceFree = 0.5
)

// item API Ninjas 回傳的單筆項目，免費方案部分欄位是字串說明
type item map[string]any

// Client API Ninjas 營養分析
type Client struct {
	client *resty.Client
	apiKey string
}

// NewClient 創建客戶端
func NewClient(cfg config.APINinjasConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("X-Api-Key", cfg.APIKey)
	}
	return &Client{client: client, apiKey: cfg.APIKey}
}

func (c *Client) Name() string {
	return providerName
}

// AnalyzeIngredient 分析指定重量的食材
func (c *Client) AnalyzeIngredient(ctx context.Context, name string, grams float64) (*macro.MacroAnalysisResult, error) {
	common.LogInfo("營養分析請求",
		zap.String("provider", providerName),
		zap.String("food_name", name),
		zap.Float64("grams", grams),
		zap.String("analysis_type", string(macro.AnalysisIngredient)),
	)
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: API Ninja API key not provided", macro.ErrUnavailable)
	}

	items, status, err := c.query(ctx, fmt.Sprintf("%gg %s", grams, name))
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || len(items) == 0 {
		return &macro.MacroAnalysisResult{
			FoodName:     name,
			Status:       macro.StatusNotFound,
			AnalysisType: macro.AnalysisIngredient,
			ErrorMessage: fmt.Sprintf("No nutrition data found for '%s'", name),
			Source:       sourcePremium,
		}, nil
	}

	data := items[0]
	nutrients := parseNutrients(data)
	premium := data.premium()
	nutrients.FillCalories()

	res := &macro.MacroAnalysisResult{
		FoodName:       name,
		Status:         macro.StatusSuccess,
		AnalysisType:   macro.AnalysisIngredient,
		MacroNutrients: nutrients,
		Source:         source(premium),
		Confidence:     confidence(premium),
		RawData:        map[string]any(data),
	}
	common.LogInfo("營養分析成功", zap.String("food_name", name), zap.Float64("calories", nutrients.Calories), zap.Float64("confidence", res.Confidence))
	return res, nil
}

// AnalyzeRecipe 將整份食譜文字交給服務解析，逐項加總
func (c *Client) AnalyzeRecipe(ctx context.Context, text string, servings *int) (*macro.MacroAnalysisResult, error) {
	foodName := macro.TruncateName(text)
	common.LogInfo("營養分析請求",
		zap.String("provider", providerName),
		zap.String("food_name", foodName),
		zap.String("analysis_type", string(macro.AnalysisRecipe)),
	)
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: API Ninja API key not provided", macro.ErrUnavailable)
	}

	items, status, err := c.query(ctx, text)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || len(items) == 0 {
		return &macro.MacroAnalysisResult{
			FoodName:     foodName,
			Status:       macro.StatusNotFound,
			AnalysisType: macro.AnalysisRecipe,
			ErrorMessage: "No nutrition data found for recipe",
			Source:       sourcePremium,
		}, nil
	}

	total := &macro.MacroNutrients{}
	var (
		ingredients []macro.RecipeIngredientResult
		weight      float64
		premium     bool
		raw         = make([]map[string]any, 0, len(items))
	)
	for _, it := range items {
		n := parseNutrients(it)
		total.Add(n)

		r := macro.RecipeIngredientResult{
			Name:           it.name(),
			MacroNutrients: n,
			Confidence:     confidenceFull,
		}
		if g, ok := it.number("serving_size_g"); ok && g > 0 {
			r.Quantity = common.Ptr(g)
			r.Unit = common.Ptr("g")
			weight += g
		}
		ingredients = append(ingredients, r)
		premium = premium || it.premium()
		raw = append(raw, map[string]any(it))
	}
	total.FillCalories()

	res := &macro.MacroAnalysisResult{
		FoodName:          foodName,
		Status:            macro.StatusSuccess,
		AnalysisType:      macro.AnalysisRecipe,
		MacroNutrients:    total,
		RecipeIngredients: ingredients,
		Servings:          servings,
		Source:            source(premium),
		Confidence:        confidence(premium),
		RawData:           raw,
	}
	if weight > 0 {
		res.TotalWeight = common.Ptr(weight)
	}
	common.LogInfo("食譜營養分析成功", zap.String("food_name", foodName), zap.Int("items", len(items)), zap.Float64("calories", total.Calories))
	return res, nil
}

// SearchFoods 沒有搜尋端點，查詢成功時回傳查詢字串本身
func (c *Client) SearchFoods(ctx context.Context, query string, _ int) ([]string, error) {
	res, err := c.AnalyzeIngredient(ctx, query, macro.DefaultIngredientGrams)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return []string{}, nil
	}
	return []string{res.FoodName}, nil
}

// IsAvailable 200 與 404 都代表服務正常
func (c *Client) IsAvailable(ctx context.Context) bool {
	if c.apiKey == "" {
		common.LogWarn("API Ninja 無法使用", zap.String("reason", "no api key"))
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("query", "apple").
		Get(nutritionPath)
	if err != nil {
		common.LogWarn("API Ninja 可用性檢查失敗", zap.Error(err))
		return false
	}
	ok := resp.StatusCode() == http.StatusOK || resp.StatusCode() == http.StatusNotFound
	common.LogDebug("API Ninja 可用性檢查", zap.Bool("available", ok), zap.Int("status", resp.StatusCode()))
	return ok
}

// DetailedNutrients 取得三大營養素以外的資訊
func (c *Client) DetailedNutrients(ctx context.Context, name string) ([]macro.NutrientInfo, error) {
	res, err := c.AnalyzeIngredient(ctx, name, macro.DefaultIngredientGrams)
	if err != nil {
		return nil, err
	}
	data, ok := res.RawData.(map[string]any)
	if !res.OK() || !ok {
		return []macro.NutrientInfo{}, nil
	}

	mapping := []struct {
		key  string
		name string
		unit macro.NutrientUnit
	}{
		{"potassium_mg", "Potassium", macro.UnitMilligrams},
		{"serving_size_g", "Serving Size", macro.UnitGrams},
	}

	nutrients := []macro.NutrientInfo{}
	for _, m := range mapping {
		if v, ok := item(data).number(m.key); ok {
			nutrients = append(nutrients, macro.NutrientInfo{
				Name:       m.name,
				Value:      v,
				Unit:       m.unit,
				Per100g:    true,
				Confidence: confidenceFull,
			})
		}
	}
	return nutrients, nil
}

// query 呼叫 nutrition 端點，404 不視為錯誤
func (c *Client) query(ctx context.Context, q string) ([]item, int, error) {
	common.LogDebug("API Ninja 請求", zap.String("query", truncate(q, 100)))

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("query", q).
		Get(nutritionPath)
	if err != nil {
		return nil, 0, fmt.Errorf("API Ninja request failed: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, http.StatusNotFound, nil
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return nil, resp.StatusCode(), fmt.Errorf("%w: API Ninja returned %d", macro.ErrUnavailable, resp.StatusCode())
	default:
		return nil, resp.StatusCode(), fmt.Errorf("API Ninja returned %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	var items []item
	if err := common.ParseJSONBytes(resp.Body(), &items); err != nil {
		return nil, resp.StatusCode(), fmt.Errorf("failed to parse API Ninja response: %w", err)
	}
	return items, resp.StatusCode(), nil
}

func parseNutrients(it item) *macro.MacroNutrients {
	n := &macro.MacroNutrients{
		Calories:      it.value("calories"),
		Protein:       it.value("protein_g"),
		Carbohydrates: it.value("carbohydrates_total_g"),
		Fat:           it.value("fat_total_g"),
	}
	n.Fiber = it.optional("fiber_g")
	n.Sugar = it.optional("sugar_g")
	n.Sodium = it.optional("sodium_mg")
	n.Cholesterol = it.optional("cholesterol_mg")
	n.SaturatedFat = it.optional("fat_saturated_g")
	return n
}

// number 欄位存在且為數字時回傳其值
func (it item) number(key string) (float64, bool) {
	switch v := it[key].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func (it item) value(key string) float64 {
	v, _ := it.number(key)
	return v
}

// optional 欄位不存在時為 nil，存在但非數字時為 0
func (it item) optional(key string) *float64 {
	if _, ok := it[key]; !ok {
		return nil
	}
	return common.Ptr(it.value(key))
}

// premium 付費方案才會回傳數值型的熱量與蛋白質
func (it item) premium() bool {
	_, cal := it.number("calories")
	_, protein := it.number("protein_g")
	return cal && protein
}

func (it item) name() string {
	if s, ok := it["name"].(string); ok && s != "" {
		return s
	}
	return "Unknown"
}

func source(premium bool) string {
	if premium {
		return sourcePremium
	}
	return sourceFree
}

func confidence(premium bool) float64 {
	if premium {
		return confidenceFull
	}
	return confidenceFree
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
