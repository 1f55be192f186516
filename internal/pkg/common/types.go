package common

import (
	"fmt"
	"strings"
)

// IngredientData 單一食材行解析後的結構
type IngredientData struct {
	Name         string   `json:"name"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Unit         *string  `json:"unit,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
	OriginalText string   `json:"original_text"`
}

// String 以「數量 單位 名稱 (備註)」格式輸出
func (i IngredientData) String() string {
	var parts []string
	if i.Quantity != nil {
		parts = append(parts, FormatQuantity(*i.Quantity))
	}
	if i.Unit != nil {
		parts = append(parts, *i.Unit)
	}
	parts = append(parts, i.Name)
	s := strings.Join(parts, " ")
	if i.Notes != nil && *i.Notes != "" {
		s += " (" + *i.Notes + ")"
	}
	return s
}

// MacroNutrition 頁面提供的每份營養資訊
type MacroNutrition struct {
	Calories      *float64 `json:"calories,omitempty"`
	Protein       *float64 `json:"protein,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Fat           *float64 `json:"fat,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty"`
	Sugar         *float64 `json:"sugar,omitempty"`
	Sodium        *float64 `json:"sodium,omitempty"`
	SaturatedFat  *float64 `json:"saturated_fat,omitempty"`
	Cholesterol   *float64 `json:"cholesterol,omitempty"`
}

// RecipeData 正規化後的食譜
type RecipeData struct {
	Title               string           `json:"title"`
	SourceURL           string           `json:"source_url"`
	Description         string           `json:"description,omitempty"`
	Ingredients         []IngredientData `json:"ingredients"`
	Instructions        []string         `json:"instructions"`
	PrepTime            *int             `json:"prep_time,omitempty"`
	CookTime            *int             `json:"cook_time,omitempty"`
	Servings            *int             `json:"servings,omitempty"`
	CuisineType         string           `json:"cuisine_type,omitempty"`
	ImageURL            string           `json:"image_url,omitempty"`
	Author              string           `json:"author,omitempty"`
	Rating              *float64         `json:"rating,omitempty"`
	Nutrition           map[string]any   `json:"nutrition,omitempty"`
	Macros              *MacroNutrition  `json:"macros,omitempty"`
	Tags                []string         `json:"tags"`
	DietaryRestrictions []string         `json:"dietary_restrictions"`
	Provider            string           `json:"provider,omitempty"`
}

// TotalTime 準備與烹調時間總和（分鐘），皆缺少時回傳 nil
func (r *RecipeData) TotalTime() *int {
	if r.PrepTime == nil && r.CookTime == nil {
		return nil
	}
	total := 0
	if r.PrepTime != nil {
		total += *r.PrepTime
	}
	if r.CookTime != nil {
		total += *r.CookTime
	}
	return &total
}

// IngredientNames 依序取出食材名稱
func (r *RecipeData) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}

// FormatQuantity 將數量格式化，整數不帶小數
func FormatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", q), "0"), ".")
}

// Ptr 取得值的指標
func Ptr[T any](v T) *T {
	return &v
}
