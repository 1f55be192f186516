package ingredient

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"recipe-ingestor/internal/pkg/common"
)

var (
	// ErrEmptyIngredient 空白食材行
	ErrEmptyIngredient = errors.New("empty ingredient line")
	// ErrUnparseableIngredient 無法取出食材名稱
	ErrUnparseableIngredient = errors.New("unparseable ingredient")
)

// UnparseableIngredientError 嚴格模式下無法解析的食材行
type UnparseableIngredientError struct {
	Line    string
	Cleaned string
}

func (e *UnparseableIngredientError) Error() string {
	return fmt.Sprintf("unparseable ingredient %q", e.Line)
}

func (e *UnparseableIngredientError) Unwrap() error {
	return ErrUnparseableIngredient
}

const glyphClass = `[¼½¾⅐⅑⅒⅓⅔⅕⅖⅗⅘⅙⅚⅛⅜⅝⅞]`

// leadingQuantityPattern 行首數量：帶分數、數字加分數字元、分數字元、分數、小數
var leadingQuantityPattern = regexp.MustCompile(`^\s*(\d+\s+\d+/\d+|\d+\s*` + glyphClass + `|` + glyphClass + `|\d+/\d+|\d+(?:\.\d+)?|\.\d+)`)

var (
	firstParenPattern = regexp.MustCompile(`\(([^)]+)\)`)
	allParenPattern   = regexp.MustCompile(`\([^)]+\)`)
)

// Config 解析器設定
type Config struct {
	// Strict 為 true 時無法取出名稱即回傳錯誤，否則退回使用整行文字
	Strict bool
	// ExtraUnits 額外的單位詞彙
	ExtraUnits []string
}

// Parser 食材字串解析器，建立後可安全共用
type Parser struct {
	strict      bool
	unitPattern *regexp.Regexp
}

// NewParser 建立解析器
func NewParser(cfg Config) *Parser {
	units := make([]string, 0, len(CommonUnits)+len(cfg.ExtraUnits))
	units = append(units, CommonUnits...)
	units = append(units, cfg.ExtraUnits...)
	return &Parser{
		strict:      cfg.Strict,
		unitPattern: compileUnitPattern(units),
	}
}

// Strict 是否為嚴格模式
func (p *Parser) Strict() bool {
	return p.strict
}

// Parse 解析單行食材
func (p *Parser) Parse(line string) (*common.IngredientData, error) {
	if strings.TrimSpace(line) == "" {
		return nil, ErrEmptyIngredient
	}

	cleaned := StripCostInfo(line)
	rest := cleaned

	var quantity *float64
	var unit *string

	if m := leadingQuantityPattern.FindStringSubmatchIndex(cleaned); m != nil {
		if q := ParseQuantity(cleaned[m[2]:m[3]]); q != nil {
			quantity = q
			rest = strings.TrimLeft(cleaned[m[1]:], " \t")
			if um := p.unitPattern.FindStringSubmatch(rest); um != nil {
				u := strings.ToLower(um[1])
				unit = &u
				rest = rest[len(um[0]):]
			}
		}
	}

	name, notes := ExtractNameAndNotes(rest)
	if name == "" {
		if p.strict {
			return nil, &UnparseableIngredientError{Line: line, Cleaned: cleaned}
		}
		fallbackName := cleaned
		if fallbackName == "" {
			fallbackName = strings.TrimSpace(line)
		}
		common.LogWarn("食材名稱解析失敗，改用原始文字",
			zap.String("line", line),
			zap.String("fallback", fallbackName),
		)
		return &common.IngredientData{
			Name:         fallbackName,
			OriginalText: line,
		}, nil
	}

	return &common.IngredientData{
		Name:         name,
		Quantity:     quantity,
		Unit:         unit,
		Notes:        notes,
		OriginalText: line,
	}, nil
}

// ParseAll 依序解析多行食材。嚴格模式遇到第一個錯誤即中止，寬鬆模式略過空白行。
func (p *Parser) ParseAll(lines []string) ([]common.IngredientData, error) {
	out := make([]common.IngredientData, 0, len(lines))
	for i, line := range lines {
		ing, err := p.Parse(line)
		if err != nil {
			if !p.strict && errors.Is(err, ErrEmptyIngredient) {
				common.LogWarn("略過空白食材行", zap.Int("index", i))
				continue
			}
			return nil, fmt.Errorf("ingredient %d: %w", i+1, err)
		}
		out = append(out, *ing)
	}
	return out, nil
}

// ExtractNameAndNotes 取出名稱與第一個括號內的備註
func ExtractNameAndNotes(text string) (string, *string) {
	m := firstParenPattern.FindStringSubmatch(text)
	if m == nil {
		return collapseSpaces(text), nil
	}
	name := collapseSpaces(allParenPattern.ReplaceAllString(text, ""))
	notes := strings.TrimSpace(m[1])
	if notes == "" {
		return name, nil
	}
	return name, &notes
}
