package ingredient

import (
	"regexp"
	"sort"
	"strings"
)

// CommonUnits 預設的度量單位詞彙
var CommonUnits = []string{
	"tablespoons", "tablespoon",
	"teaspoons", "teaspoon",
	"milliliters", "milliliter",
	"kilograms", "kilogram",
	"packages", "package",
	"bottles", "bottle",
	"gallons", "gallon",
	"pounds", "pound",
	"ounces", "ounce",
	"quarts", "quart",
	"liters", "liter",
	"sticks", "stick",
	"cloves", "clove",
	"pieces", "piece",
	"slices", "slice",
	"pints", "pint",
	"grams", "gram",
	"cups", "cup",
	"cans", "can",
	"bags", "bag",
	"jars", "jar",
	"pinches", "pinch",
	"dashes", "dash",
	"bunches", "bunch",
	"sprigs", "sprig",
	"lbs", "tbsp", "tsp", "oz", "lb", "ml", "kg",
	"g", "l", "c",
}

// compileUnitPattern 依長度由長到短編譯單位比對，避免 "tablespoon" 先吃掉 "tablespoons"
func compileUnitPattern(units []string) *regexp.Regexp {
	seen := make(map[string]struct{}, len(units))
	vocab := make([]string, 0, len(units))
	for _, u := range units {
		u = strings.ToLower(strings.TrimSpace(u))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		vocab = append(vocab, u)
	}
	sort.SliceStable(vocab, func(i, j int) bool {
		return len(vocab[i]) > len(vocab[j])
	})

	quoted := make([]string, len(vocab))
	for i, u := range vocab {
		quoted[i] = regexp.QuoteMeta(u)
	}
	return regexp.MustCompile(`(?i)^(` + strings.Join(quoted, "|") + `)\b\.?`)
}
