package scraper

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"recipe-ingestor/internal/pkg/common"
)

const recipeType = "Recipe"

// findRecipeNode 在所有 ld+json 區塊中尋找第一個 Recipe 物件
func findRecipeNode(doc *goquery.Document) map[string]any {
	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			common.LogDebug("ld+json 區塊無法解析", zap.Int("index", i), zap.Error(err))
			return true
		}
		found = searchRecipe(v)
		return found == nil
	})
	return found
}

// searchRecipe 走訪陣列、@graph 與巢狀物件
func searchRecipe(v any) map[string]any {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if r := searchRecipe(item); r != nil {
				return r
			}
		}
	case map[string]any:
		if isType(t["@type"], recipeType) {
			return t
		}
		if graph, ok := t["@graph"]; ok {
			if r := searchRecipe(graph); r != nil {
				return r
			}
		}
		if main, ok := t["mainEntity"]; ok {
			return searchRecipe(main)
		}
	}
	return nil
}

// isType @type 可能是字串或字串陣列
func isType(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}
