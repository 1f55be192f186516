// Package usda FoodData Central 食材搜尋，營養素以每 100g 換算至指定重量
package usda

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"recipe-ingestor/internal/core/macro"
	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"
)

const (
	providerName = "usda"
	sourceName   = "USDA FoodData Central"
	searchPath   = "/fdc/v1/foods/search"
	confidence   = 0.9
)

// FoodData Central 營養素編號
const (
	nutrientEnergy       = "208"
	nutrientProtein      = "203"
	nutrientFat          = "204"
	nutrientCarbohydrate = "205"
	nutrientFiber        = "291"
	nutrientSugar        = "269"
	nutrientSodium       = "307"
	nutrientCholesterol  = "601"
	nutrientSaturatedFat = "606"
)

type searchResponse struct {
	TotalHits int    `json:"totalHits"`
	Foods     []food `json:"foods"`
}

type food struct {
	FdcID         int            `json:"fdcId"`
	Description   string         `json:"description"`
	DataType      string         `json:"dataType"`
	FoodNutrients []foodNutrient `json:"foodNutrients"`
}

type foodNutrient struct {
	NutrientNumber string  `json:"nutrientNumber"`
	NutrientName   string  `json:"nutrientName"`
	UnitName       string  `json:"unitName"`
	Value          float64 `json:"value"`
}

// Client USDA 營養分析
type Client struct {
	client  *resty.Client
	apiKey  string
	enabled bool
}

// NewClient 創建客戶端
func NewClient(cfg config.USDAConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	return &Client{client: client, apiKey: cfg.APIKey, enabled: cfg.Enabled}
}

func (c *Client) Name() string {
	return providerName
}

// AnalyzeIngredient 取第一筆搜尋結果，依重量換算
func (c *Client) AnalyzeIngredient(ctx context.Context, name string, grams float64) (*macro.MacroAnalysisResult, error) {
	foods, err := c.search(ctx, name, 1)
	if err != nil {
		return nil, err
	}
	if len(foods) == 0 {
		return &macro.MacroAnalysisResult{
			FoodName:     name,
			Status:       macro.StatusNotFound,
			AnalysisType: macro.AnalysisIngredient,
			ErrorMessage: fmt.Sprintf("No nutrition data found for '%s'", name),
			Source:       sourceName,
		}, nil
	}

	f := foods[0]
	per100g := nutrients(f.FoodNutrients)
	scaled := per100g.Scale(grams / 100)
	scaled.FillCalories()

	common.LogDebug("USDA 分析完成", zap.String("food_name", name), zap.String("match", f.Description), zap.Int("fdc_id", f.FdcID))
	return &macro.MacroAnalysisResult{
		FoodName:       name,
		Status:         macro.StatusSuccess,
		AnalysisType:   macro.AnalysisIngredient,
		MacroNutrients: scaled,
		Source:         sourceName,
		Confidence:     confidence,
		RawData: map[string]any{
			"fdc_id":      f.FdcID,
			"description": f.Description,
			"data_type":   f.DataType,
		},
	}, nil
}

// AnalyzeRecipe 不支援整份食譜文字
func (c *Client) AnalyzeRecipe(_ context.Context, text string, servings *int) (*macro.MacroAnalysisResult, error) {
	res := macro.ErrorResult(macro.TruncateName(text), "recipe analysis is not supported by USDA FoodData Central", macro.AnalysisRecipe, sourceName)
	res.Servings = servings
	return res, nil
}

// SearchFoods 回傳符合的食材描述
func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	foods, err := c.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(foods))
	for _, f := range foods {
		names = append(names, f.Description)
	}
	return names, nil
}

// IsAvailable 以一筆搜尋確認金鑰有效
func (c *Client) IsAvailable(ctx context.Context) bool {
	if !c.enabled || c.apiKey == "" {
		return false
	}
	_, err := c.search(ctx, "apple", 1)
	if err != nil {
		common.LogWarn("USDA 無法使用", zap.Error(err))
		return false
	}
	return true
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]food, error) {
	if !c.enabled || c.apiKey == "" {
		return nil, fmt.Errorf("%w: USDA FoodData Central not configured", macro.ErrUnavailable)
	}

	var out searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":  c.apiKey,
			"query":    query,
			"pageSize": strconv.Itoa(limit),
		}).
		SetResult(&out).
		Get(searchPath)
	if err != nil {
		return nil, fmt.Errorf("USDA request failed: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return out.Foods, nil
	case http.StatusForbidden, http.StatusUnauthorized, http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: USDA returned %d", macro.ErrUnavailable, resp.StatusCode())
	default:
		return nil, fmt.Errorf("USDA returned %d: %s", resp.StatusCode(), resp.String())
	}
}

// nutrients 將每 100g 的營養素清單轉換為結構，能量只取 kcal
func nutrients(list []foodNutrient) *macro.MacroNutrients {
	n := &macro.MacroNutrients{}
	for _, fn := range list {
		v := fn.Value
		switch fn.NutrientNumber {
		case nutrientEnergy:
			if strings.EqualFold(fn.UnitName, "KCAL") {
				n.Calories = v
			}
		case nutrientProtein:
			n.Protein = v
		case nutrientFat:
			n.Fat = v
		case nutrientCarbohydrate:
			n.Carbohydrates = v
		case nutrientFiber:
			n.Fiber = common.Ptr(v)
		case nutrientSugar:
			n.Sugar = common.Ptr(v)
		case nutrientSodium:
			n.Sodium = common.Ptr(v)
		case nutrientCholesterol:
			n.Cholesterol = common.Ptr(v)
		case nutrientSaturatedFat:
			n.SaturatedFat = common.Ptr(v)
		}
	}
	return n
}
