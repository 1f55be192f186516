package ingredient

import (
	"regexp"
	"strings"
)

var (
	parenGroupPattern   = regexp.MustCompile(`\(([^)]*)\)`)
	danglingCommaParen  = regexp.MustCompile(`\s*,\s*\)`)
	emptyParenPattern   = regexp.MustCompile(`\(\s*\)`)
	whitespaceRunsRegex = regexp.MustCompile(`\s+`)
)

// StripCostInfo 移除括號內的價格標記，例如
// "2 tomatoes (vine ripe, $1.28)" -> "2 tomatoes (vine ripe)"。
// 不含 "$" 的字串只做空白正規化。
func StripCostInfo(s string) string {
	if !strings.Contains(s, "$") {
		return collapseSpaces(s)
	}

	cleaned := parenGroupPattern.ReplaceAllStringFunc(s, func(group string) string {
		inner := group[1 : len(group)-1]
		if !strings.Contains(inner, "$") {
			return group
		}
		var kept []string
		for _, part := range strings.Split(inner, ",") {
			part = strings.TrimSpace(part)
			if strings.Contains(part, "$") {
				continue
			}
			kept = append(kept, part)
		}
		if len(kept) == 0 {
			return ""
		}
		return "(" + strings.Join(kept, ", ") + ")"
	})

	cleaned = danglingCommaParen.ReplaceAllString(cleaned, ")")
	cleaned = emptyParenPattern.ReplaceAllString(cleaned, "")
	cleaned = collapseSpaces(cleaned)
	return strings.TrimSpace(strings.TrimRight(cleaned, ","))
}

func collapseSpaces(s string) string {
	return whitespaceRunsRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}
