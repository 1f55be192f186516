package discovery

import (
	"regexp"
	"strings"
)

var recipeSuffixes = []string{
	`/[^/]+/$`,
	`/[a-z0-9-]+/$`,
}

var excludedSuffixes = []string{
	`/category/`,
	`/tag/`,
	`/page/`,
	`/author/`,
	`/\d{4}/`,
	`/search/`,
	`/index/`,
	`/(about|contact|faq|privacy|terms)`,
	`/(login|register|account)`,
	`/extra-bytes/`,
	`/weekly-recap`,
	`/.*-recap`,
	`/.*-challenge`,
	`/.*-week-\d+`,
	`/feeding-america`,
	`/meal-plans?$`,
	`/.*-meal-plan`,
	`/roundup`,
	`/.*-giveaway`,
	`/best-of-`,
	`/top-\d+`,
	`/.*-\d{4}/$`,
	`/prices-and-portions`,
}

// urlFilter 判斷 sitemap 中的網址是否為單篇食譜
type urlFilter struct {
	baseURL  string
	domain   string
	recipe   []*regexp.Regexp
	excluded []*regexp.Regexp
}

func newURLFilter(baseURL, domain string) *urlFilter {
	f := &urlFilter{
		baseURL:  strings.TrimRight(baseURL, "/"),
		domain:   domain,
		recipe:   compile(domain, recipeSuffixes),
		excluded: compile(domain, excludedSuffixes),
	}
	return f
}

func compile(domain string, suffixes []string) []*regexp.Regexp {
	prefix := `(?i)` + regexp.QuoteMeta(domain)
	out := make([]*regexp.Regexp, 0, len(suffixes))
	for _, s := range suffixes {
		out = append(out, regexp.MustCompile(prefix+s))
	}
	return out
}

// Filter 排除非食譜頁面並依出現順序去重
func (f *urlFilter) Filter(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !f.isRecipe(u) {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func (f *urlFilter) isRecipe(u string) bool {
	if !strings.Contains(strings.ToLower(u), f.domain) {
		return false
	}
	if matchAny(f.excluded, u) {
		return false
	}
	if matchAny(f.recipe, u) {
		return true
	}

	// 單層路徑且長度大於 3 視為食譜
	segments := strings.Split(strings.Trim(strings.TrimPrefix(u, f.baseURL), "/"), "/")
	return len(segments) == 1 && len(segments[0]) > 3
}

// isListing 分類頁連結的基本過濾
func (f *urlFilter) isListing(u string) bool {
	return !strings.HasPrefix(u, f.baseURL+"/") ||
		strings.Contains(u, "/category/") ||
		strings.Contains(u, "/tag/") ||
		strings.Contains(u, "/page/")
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
