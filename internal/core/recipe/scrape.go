// Package recipe 將擷取結果正規化為 RecipeData
package recipe

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"recipe-ingestor/internal/pkg/common"
)

// ScrapeResult 擷取後端提供的欄位存取介面，每個欄位都可能失敗或缺少
type ScrapeResult interface {
	Title() (string, error)
	Description() (string, error)
	Ingredients() ([]string, error)
	InstructionsList() ([]string, error)
	// PrepTime 與 CookTime 回傳 time.Duration 或文字，例如 "1 hour 20 mins"
	PrepTime() (any, error)
	CookTime() (any, error)
	Yields() (string, error)
	Cuisine() (string, error)
	Category() (string, error)
	Image() (string, error)
	Author() (string, error)
	Ratings() (float64, error)
	Nutrients() (map[string]any, error)
	// DietaryRestrictions 回傳字串或字串列表
	DietaryRestrictions() (any, error)
	Host() (string, error)
}

// SafeExtract 呼叫存取函式；錯誤、panic 或 nil 值時回傳預設值
func SafeExtract[T any](fn func() (T, error), def T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			common.LogDebug("欄位擷取 panic，使用預設值", zap.String("panic", fmt.Sprint(r)))
			out = def
		}
	}()

	v, err := fn()
	if err != nil {
		return def
	}
	if isNil(v) {
		return def
	}
	return v
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
