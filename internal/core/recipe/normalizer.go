package recipe

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"recipe-ingestor/internal/core/ingredient"
	"recipe-ingestor/internal/pkg/common"
)

// UnknownTitle 擷取後端找不到標題時的佔位字串
const UnknownTitle = "Unknown Recipe"

// ErrMissingRequiredField 缺少必要欄位
var ErrMissingRequiredField = errors.New("missing required field")

// MissingRequiredFieldError 指出缺少哪個必要欄位與來源 URL
type MissingRequiredFieldError struct {
	Field     string
	SourceURL string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field %q for %s", e.Field, e.SourceURL)
}

func (e *MissingRequiredFieldError) Unwrap() error {
	return ErrMissingRequiredField
}

// Normalizer 將 ScrapeResult 轉為 RecipeData
type Normalizer struct {
	parser *ingredient.Parser
}

// NewNormalizer 建立正規化器，parser 為 nil 時使用寬鬆模式
func NewNormalizer(parser *ingredient.Parser) *Normalizer {
	if parser == nil {
		parser = ingredient.NewParser(ingredient.Config{})
	}
	return &Normalizer{parser: parser}
}

// Normalize 取出所有欄位。標題、食材與步驟為必要欄位，缺少時不回傳部分結果。
func (n *Normalizer) Normalize(src ScrapeResult, sourceURL string) (*common.RecipeData, error) {
	title := strings.TrimSpace(SafeExtract(src.Title, UnknownTitle))
	if title == "" || title == UnknownTitle {
		return nil, n.missing("title", sourceURL)
	}

	rawIngredients := nonBlank(SafeExtract(src.Ingredients, []string{}), false)
	if len(rawIngredients) == 0 {
		return nil, n.missing("ingredients", sourceURL)
	}

	instructions := nonBlank(SafeExtract(src.InstructionsList, []string{}), true)
	if len(instructions) == 0 {
		return nil, n.missing("instructions", sourceURL)
	}

	ingredients, err := n.parser.ParseAll(rawIngredients)
	if err != nil {
		common.LogError("食材解析失敗",
			zap.String("source_url", sourceURL),
			zap.Error(err),
		)
		return nil, fmt.Errorf("normalize %s: %w", sourceURL, err)
	}
	if len(ingredients) == 0 {
		return nil, n.missing("ingredients", sourceURL)
	}

	common.LogDebug("食材解析完成",
		zap.Int("raw_count", len(rawIngredients)),
		zap.Int("parsed_count", len(ingredients)),
	)

	category := SafeExtract(src.Category, "")
	cuisine := strings.TrimSpace(SafeExtract(src.Cuisine, ""))
	nutrients := SafeExtract(src.Nutrients, map[string]any(nil))

	data := &common.RecipeData{
		Title:               title,
		SourceURL:           sourceURL,
		Description:         strings.TrimSpace(SafeExtract(src.Description, "")),
		Ingredients:         ingredients,
		Instructions:        instructions,
		PrepTime:            ParseDuration(SafeExtract[any](src.PrepTime, nil)),
		CookTime:            ParseDuration(SafeExtract[any](src.CookTime, nil)),
		Servings:            ParseServings(SafeExtract(src.Yields, "")),
		CuisineType:         cuisine,
		ImageURL:            SafeExtract(src.Image, ""),
		Author:              SafeExtract(src.Author, ""),
		Rating:              ParseRating(SafeExtract(src.Ratings, 0)),
		Nutrition:           nutrients,
		Macros:              ExtractMacros(nutrients),
		Tags:                ExtractTags(category, cuisine),
		DietaryRestrictions: ExtractDietaryRestrictions(SafeExtract[any](src.DietaryRestrictions, nil)),
		Provider:            SafeExtract(src.Host, ""),
	}

	common.LogInfo("食譜正規化完成",
		zap.String("title", data.Title),
		zap.Int("ingredients", len(data.Ingredients)),
		zap.Int("instructions", len(data.Instructions)),
		zap.Bool("has_macros", data.Macros != nil),
	)
	return data, nil
}

func (n *Normalizer) missing(field, sourceURL string) error {
	common.LogError("缺少必要欄位", zap.String("field", field), zap.String("source_url", sourceURL))
	return &MissingRequiredFieldError{Field: field, SourceURL: sourceURL}
}

// nonBlank 去除空白項目；trim 為 false 時保留原始文字
func nonBlank(lines []string, trim bool) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if trim {
			l = strings.TrimSpace(l)
		}
		out = append(out, l)
	}
	return out
}
