// Package cuisine 食譜菜系分類，多個分類服務依序備援
package cuisine

import (
	"context"
	"errors"
	"math"
	"strings"
)

// ConfidenceLevel 信心等級
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

// 信心門檻：低於 Low 為 LOW，低於 Medium 為 MEDIUM，其餘為 HIGH
const (
	LowConfidenceThreshold    = 0.6
	MediumConfidenceThreshold = 0.8
)

// 分類文字最多取用的食材數
const maxIngredientsInText = 15

// OtherCuisine 無法歸類時的標籤
const OtherCuisine = "Other"

// SupportedCuisines 分類候選標籤
var SupportedCuisines = []string{
	"Italian",
	"Chinese",
	"Mexican",
	"Indian",
	"Japanese",
	"French",
	"Thai",
	"Mediterranean",
	"American",
	"Korean",
	"Vietnamese",
	"Spanish",
	"Greek",
	"Middle Eastern",
	"German",
	"British",
	"Turkish",
	"Moroccan",
	"Lebanese",
	"Peruvian",
	"Brazilian",
	"Caribbean",
	"African",
	"Russian",
	"Scandinavian",
	OtherCuisine,
}

var (
	// ErrInvalidRecipeText 文字為空或太短
	ErrInvalidRecipeText = errors.New("empty or invalid recipe text")
	// ErrProviderUnavailable 服務暫時無法使用（未設定、模型載入中、被限流）
	ErrProviderUnavailable = errors.New("classifier unavailable")
	// ErrUnexpectedResponse 回應格式不符
	ErrUnexpectedResponse = errors.New("unexpected classifier response")
)

// Alternative 次要候選菜系
type Alternative struct {
	Cuisine    string  `json:"cuisine"`
	Confidence float64 `json:"confidence"`
}

// Classification 分類結果。信心等級一律由 NewClassification 依分數推導。
type Classification struct {
	PrimaryCuisine  string          `json:"primary_cuisine"`
	Confidence      float64         `json:"confidence"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	Alternatives    []Alternative   `json:"alternatives"`
	Reasoning       string          `json:"reasoning,omitempty"`
}

// NewClassification 建立分類結果，分數限制在 [0,1]
func NewClassification(primary string, confidence float64, alternatives []Alternative, reasoning string) *Classification {
	confidence = clamp01(confidence)
	if alternatives == nil {
		alternatives = []Alternative{}
	}
	for i := range alternatives {
		alternatives[i].Confidence = clamp01(alternatives[i].Confidence)
	}
	return &Classification{
		PrimaryCuisine:  primary,
		Confidence:      confidence,
		ConfidenceLevel: LevelFor(confidence),
		Alternatives:    alternatives,
		Reasoning:       reasoning,
	}
}

// LevelFor 依分數推導信心等級
func LevelFor(confidence float64) ConfidenceLevel {
	switch {
	case confidence < LowConfidenceThreshold:
		return ConfidenceLow
	case confidence < MediumConfidenceThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// Threshold 信心等級的最低分數
func Threshold(level ConfidenceLevel) float64 {
	switch level {
	case ConfidenceMedium:
		return LowConfidenceThreshold
	case ConfidenceHigh:
		return MediumConfidenceThreshold
	default:
		return 0
	}
}

// NormalizeLabel 將任意大小寫的標籤對應到支援清單，找不到時回傳 Other
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	for _, c := range SupportedCuisines {
		if strings.EqualFold(c, label) {
			return c
		}
	}
	return OtherCuisine
}

// PrepareRecipeText 以標題與前 15 項食材組成分類文字
func PrepareRecipeText(title string, ingredients []string) string {
	var parts []string
	if title = strings.TrimSpace(title); title != "" {
		parts = append(parts, "Title: "+title)
	}
	if len(ingredients) > maxIngredientsInText {
		ingredients = ingredients[:maxIngredientsInText]
	}
	if len(ingredients) > 0 {
		parts = append(parts, "Ingredients: "+strings.Join(ingredients, ", "))
	}
	return strings.Join(parts, ". ")
}

// ValidateRecipeText 至少需要 3 個非空白字元
func ValidateRecipeText(text string) bool {
	return len([]rune(strings.TrimSpace(text))) >= 3
}

// Classifier 菜系分類服務
type Classifier interface {
	Name() string
	ClassifyRecipe(ctx context.Context, text string) (*Classification, error)
	ClassifyBatch(ctx context.Context, texts []string) ([]Classification, error)
	IsReady(ctx context.Context) bool
}

// ClassifyEach 逐筆分類，單筆失敗以 Other/0 佔位以維持長度，供各服務實作 ClassifyBatch
func ClassifyEach(ctx context.Context, c Classifier, texts []string) ([]Classification, error) {
	out := make([]Classification, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		cls, err := c.ClassifyRecipe(ctx, text)
		if err != nil {
			out = append(out, *NewClassification(OtherCuisine, 0, nil, "Batch classification error: "+err.Error()))
			continue
		}
		out = append(out, *cls)
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
