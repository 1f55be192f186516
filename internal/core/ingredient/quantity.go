// Package ingredient 將食材字串拆解為數量、單位、名稱與備註
package ingredient

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// fractionGlyph Unicode 分數字元與其數值
type fractionGlyph struct {
	glyph string
	value float64
}

// fractionGlyphs 依固定順序掃描
var fractionGlyphs = []fractionGlyph{
	{"¼", 0.25},
	{"½", 0.5},
	{"¾", 0.75},
	{"⅐", 1.0 / 7},
	{"⅑", 1.0 / 9},
	{"⅒", 0.1},
	{"⅓", 1.0 / 3},
	{"⅔", 2.0 / 3},
	{"⅕", 0.2},
	{"⅖", 0.4},
	{"⅗", 0.6},
	{"⅘", 0.8},
	{"⅙", 1.0 / 6},
	{"⅚", 5.0 / 6},
	{"⅛", 0.125},
	{"⅜", 0.375},
	{"⅝", 0.625},
	{"⅞", 0.875},
}

var (
	mixedFractionPattern  = regexp.MustCompile(`^(\d+)\s+(\d+)/(\d+)`)
	simpleFractionPattern = regexp.MustCompile(`^([+-]?\d+)\s*/\s*(\d+)$`)
	decimalPattern        = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// GlyphValue 回傳 Unicode 分數字元的數值
func GlyphValue(glyph string) (float64, bool) {
	for _, f := range fractionGlyphs {
		if f.glyph == glyph {
			return f.value, true
		}
	}
	return 0, false
}

// ParseQuantity 解析數量字串，支援小數、分數、帶分數與 Unicode 分數。
// 無法解析時回傳 nil。
func ParseQuantity(s string) *float64 {
	for _, f := range fractionGlyphs {
		if !strings.Contains(s, f.glyph) {
			continue
		}
		prefix := strings.TrimSpace(strings.SplitN(s, f.glyph, 2)[0])
		if prefix == "" {
			return finite(f.value)
		}
		whole := parseDecimal(prefix)
		if whole == nil {
			return nil
		}
		return finite(*whole + f.value)
	}

	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}

	if m := mixedFractionPattern.FindStringSubmatch(trimmed); m != nil {
		whole, _ := strconv.Atoi(m[1])
		num, _ := strconv.Atoi(m[2])
		den, _ := strconv.Atoi(m[3])
		if den == 0 {
			return nil
		}
		return finite(float64(whole) + float64(num)/float64(den))
	}

	if strings.Contains(trimmed, "/") {
		m := simpleFractionPattern.FindStringSubmatch(trimmed)
		if m == nil {
			return nil
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		den, err := strconv.Atoi(m[2])
		if err != nil || den == 0 {
			return nil
		}
		return finite(float64(num) / float64(den))
	}

	return parseDecimal(trimmed)
}

func parseDecimal(s string) *float64 {
	if !decimalPattern.MatchString(s) {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return finite(v)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
