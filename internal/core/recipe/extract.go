package recipe

import (
	"regexp"
	"strconv"
	"strings"

	"recipe-ingestor/internal/pkg/common"
)

var (
	numericPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	restrictionSplitRe = regexp.MustCompile(`[,;&|]`)
)

// ExtractNumericValue 從數字或 "211 kcal" 之類的字串取出數值
func ExtractNumericValue(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case float32:
		f := float64(n)
		return &f
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case int32:
		f := float64(n)
		return &f
	case interface{ Float64() (float64, error) }:
		// json.Number
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		return &f
	case string:
		m := numericPattern.FindStringSubmatch(n)
		if m == nil {
			return nil
		}
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

// ExtractMacros 從營養資訊取出主要營養素，全部缺少時回傳 nil
func ExtractMacros(nutrients map[string]any) *common.MacroNutrition {
	if len(nutrients) == 0 {
		return nil
	}

	macros := &common.MacroNutrition{
		Calories:      ExtractNumericValue(nutrients["calories"]),
		Protein:       ExtractNumericValue(nutrients["proteinContent"]),
		Carbohydrates: ExtractNumericValue(nutrients["carbohydrateContent"]),
		Fat:           ExtractNumericValue(nutrients["fatContent"]),
		Fiber:         ExtractNumericValue(nutrients["fiberContent"]),
		Sugar:         ExtractNumericValue(nutrients["sugarContent"]),
		Sodium:        ExtractNumericValue(nutrients["sodiumContent"]),
		SaturatedFat:  ExtractNumericValue(nutrients["saturatedFatContent"]),
		Cholesterol:   ExtractNumericValue(nutrients["cholesterolContent"]),
	}

	// 飽和脂肪與膽固醇不單獨構成有效營養資訊
	canonical := []*float64{
		macros.Calories, macros.Protein, macros.Carbohydrates, macros.Fat,
		macros.Fiber, macros.Sugar, macros.Sodium,
	}
	for _, v := range canonical {
		if v != nil {
			return macros
		}
	}
	return nil
}

// ExtractTags 由分類與菜系欄位產生標籤，逗號分隔的值會拆開
func ExtractTags(category, cuisine string) []string {
	var tags []string
	for _, field := range []string{category, cuisine} {
		tags = append(tags, strings.Split(field, ",")...)
	}
	return common.DedupeStrings(tags)
}

// ExtractDietaryRestrictions 接受字串或列表，轉為小寫並去重
func ExtractDietaryRestrictions(v any) []string {
	var raw []string
	switch r := v.(type) {
	case string:
		raw = restrictionSplitRe.Split(r, -1)
	case []string:
		raw = r
	case []any:
		for _, item := range r {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	default:
		return []string{}
	}

	lowered := make([]string, 0, len(raw))
	for _, s := range raw {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(s)))
	}
	return common.DedupeStrings(lowered)
}
