// Package macro 營養素分析，多個營養資料服務依序備援
package macro

import (
	"context"
	"errors"
	"unicode/utf8"

	"recipe-ingestor/internal/pkg/common"
)

// Status 分析狀態
type Status string

const (
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
	StatusPartial  Status = "PARTIAL"
	StatusNotFound Status = "NOT_FOUND"
)

// AnalysisType 分析對象
type AnalysisType string

const (
	// AnalysisIngredient 單一食材
	AnalysisIngredient AnalysisType = "INGREDIENT"
	// AnalysisRecipe 整份食譜，營養素為總和
	AnalysisRecipe AnalysisType = "RECIPE"
)

// NutrientUnit 營養素單位
type NutrientUnit string

const (
	UnitGrams              NutrientUnit = "g"
	UnitMilligrams         NutrientUnit = "mg"
	UnitMicrograms         NutrientUnit = "μg"
	UnitCalories           NutrientUnit = "kcal"
	UnitInternationalUnits NutrientUnit = "IU"
)

const (
	// DefaultIngredientGrams 未指定重量時的分析份量
	DefaultIngredientGrams = 100.0
	// MaxBatchSize 單次批次分析上限
	MaxBatchSize = 50
	// 名稱截斷長度
	maxFoodNameLength = 50
)

// 每克熱量
const (
	CaloriesPerGramProtein      = 4.0
	CaloriesPerGramCarbohydrate = 4.0
	CaloriesPerGramFat          = 9.0
)

// ErrUnavailable 服務未設定或暫時無法使用
var ErrUnavailable = errors.New("macro analyzer unavailable")

// NutrientInfo 額外營養素資訊
type NutrientInfo struct {
	Name       string       `json:"name"`
	Value      float64      `json:"value"`
	Unit       NutrientUnit `json:"unit"`
	Per100g    bool         `json:"per_100g"`
	Confidence float64      `json:"confidence"`
}

// MacroNutrients 營養素總量（非每 100g）
type MacroNutrients struct {
	Calories      float64  `json:"calories"`
	Protein       float64  `json:"protein"`
	Carbohydrates float64  `json:"carbohydrates"`
	Fat           float64  `json:"fat"`
	Fiber         *float64 `json:"fiber,omitempty"`
	Sugar         *float64 `json:"sugar,omitempty"`
	Sodium        *float64 `json:"sodium,omitempty"`
	Cholesterol   *float64 `json:"cholesterol,omitempty"`
	SaturatedFat  *float64 `json:"saturated_fat,omitempty"`
}

// RecipeIngredientResult 食譜分析中的單一食材
type RecipeIngredientResult struct {
	Name           string          `json:"name"`
	Quantity       *float64        `json:"quantity,omitempty"`
	Unit           *string         `json:"unit,omitempty"`
	MacroNutrients *MacroNutrients `json:"macro_nutrients,omitempty"`
	Confidence     float64         `json:"confidence"`
}

// MacroAnalysisResult 營養分析結果
type MacroAnalysisResult struct {
	FoodName            string                   `json:"food_name"`
	Status              Status                   `json:"status"`
	AnalysisType        AnalysisType             `json:"analysis_type"`
	MacroNutrients      *MacroNutrients          `json:"macro_nutrients,omitempty"`
	RecipeIngredients   []RecipeIngredientResult `json:"recipe_ingredients,omitempty"`
	TotalWeight         *float64                 `json:"total_weight,omitempty"`
	Servings            *int                     `json:"servings,omitempty"`
	AdditionalNutrients []NutrientInfo           `json:"additional_nutrients,omitempty"`
	Source              string                   `json:"source,omitempty"`
	Confidence          float64                  `json:"confidence"`
	ErrorMessage        string                   `json:"error_message,omitempty"`
	RawData             any                      `json:"raw_data,omitempty"`
}

// OK 是否成功
func (r *MacroAnalysisResult) OK() bool {
	return r != nil && r.Status == StatusSuccess
}

// ErrorResult 建立失敗結果
func ErrorResult(foodName, message string, analysisType AnalysisType, source string) *MacroAnalysisResult {
	return &MacroAnalysisResult{
		FoodName:     foodName,
		Status:       StatusFailed,
		AnalysisType: analysisType,
		ErrorMessage: message,
		Source:       source,
	}
}

// TruncateName 食譜文字作為名稱時只保留前 50 字
func TruncateName(text string) string {
	if utf8.RuneCountInString(text) <= maxFoodNameLength {
		return text
	}
	return string([]rune(text)[:maxFoodNameLength]) + "..."
}

// EstimateCalories 依蛋白質、碳水、脂肪估算熱量
func EstimateCalories(protein, carbohydrates, fat float64) float64 {
	return protein*CaloriesPerGramProtein + carbohydrates*CaloriesPerGramCarbohydrate + fat*CaloriesPerGramFat
}

// FillCalories 熱量缺漏時以三大營養素估算，回傳是否有補值
func (m *MacroNutrients) FillCalories() bool {
	if m == nil || m.Calories > 0 {
		return false
	}
	est := EstimateCalories(m.Protein, m.Carbohydrates, m.Fat)
	if est <= 0 {
		return false
	}
	m.Calories = est
	return true
}

// Add 累加另一份營養素
func (m *MacroNutrients) Add(o *MacroNutrients) {
	if o == nil {
		return
	}
	m.Calories += o.Calories
	m.Protein += o.Protein
	m.Carbohydrates += o.Carbohydrates
	m.Fat += o.Fat
	m.Fiber = addOptional(m.Fiber, o.Fiber)
	m.Sugar = addOptional(m.Sugar, o.Sugar)
	m.Sodium = addOptional(m.Sodium, o.Sodium)
	m.Cholesterol = addOptional(m.Cholesterol, o.Cholesterol)
	m.SaturatedFat = addOptional(m.SaturatedFat, o.SaturatedFat)
}

// Scale 依比例縮放全部數值
func (m *MacroNutrients) Scale(factor float64) *MacroNutrients {
	if m == nil {
		return nil
	}
	return &MacroNutrients{
		Calories:      m.Calories * factor,
		Protein:       m.Protein * factor,
		Carbohydrates: m.Carbohydrates * factor,
		Fat:           m.Fat * factor,
		Fiber:         scaleOptional(m.Fiber, factor),
		Sugar:         scaleOptional(m.Sugar, factor),
		Sodium:        scaleOptional(m.Sodium, factor),
		Cholesterol:   scaleOptional(m.Cholesterol, factor),
		SaturatedFat:  scaleOptional(m.SaturatedFat, factor),
	}
}

// ToMacroNutrition 轉為食譜資料使用的營養格式，servings > 1 時換算為每份
func (m *MacroNutrients) ToMacroNutrition(servings *int) *common.MacroNutrition {
	if m == nil {
		return nil
	}
	per := m
	if servings != nil && *servings > 1 {
		per = m.Scale(1 / float64(*servings))
	}
	return &common.MacroNutrition{
		Calories:      common.Ptr(per.Calories),
		Protein:       common.Ptr(per.Protein),
		Carbohydrates: common.Ptr(per.Carbohydrates),
		Fat:           common.Ptr(per.Fat),
		Fiber:         per.Fiber,
		Sugar:         per.Sugar,
		Sodium:        per.Sodium,
		SaturatedFat:  per.SaturatedFat,
		Cholesterol:   per.Cholesterol,
	}
}

// Analyzer 營養分析服務。失敗以 error 或非 SUCCESS 狀態表示，兩者皆會讓備援鏈前進。
type Analyzer interface {
	Name() string
	AnalyzeIngredient(ctx context.Context, name string, grams float64) (*MacroAnalysisResult, error)
	AnalyzeRecipe(ctx context.Context, text string, servings *int) (*MacroAnalysisResult, error)
	SearchFoods(ctx context.Context, query string, limit int) ([]string, error)
	IsAvailable(ctx context.Context) bool
}

func addOptional(a, b *float64) *float64 {
	switch {
	case b == nil:
		return a
	case a == nil:
		return common.Ptr(*b)
	default:
		return common.Ptr(*a + *b)
	}
}

func scaleOptional(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	return common.Ptr(*v * factor)
}
