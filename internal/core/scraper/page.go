package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrNoRecipe 頁面沒有 Recipe JSON-LD
	ErrNoRecipe = errors.New("no schema.org Recipe found")
	// ErrFieldNotFound 欄位不存在
	ErrFieldNotFound = errors.New("field not found")
)

var (
	schemaPrefix = regexp.MustCompile(`(?i)^https?://schema\.org/`)
	camelSplit   = regexp.MustCompile(`([a-z])([A-Z])`)
	spaces       = regexp.MustCompile(`\s+`)
)

// Page 已解析的食譜頁面
type Page struct {
	url  string
	host string
	node map[string]any
	doc  *goquery.Document
}

// ParsePage 解析 HTML，找不到 Recipe 時回傳 ErrNoRecipe
func ParsePage(body []byte, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	node := findRecipeNode(doc)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRecipe, pageURL)
	}

	host := ""
	if u, err := url.Parse(pageURL); err == nil {
		host = normalizeHost(u.Hostname())
	}
	return &Page{url: pageURL, host: host, node: node, doc: doc}, nil
}

// URL 頁面網址
func (p *Page) URL() string {
	return p.url
}

func (p *Page) Title() (string, error) {
	if s := p.text("name"); s != "" {
		return s, nil
	}
	if og, ok := p.doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return cleanText(og), nil
	}
	return "", missing("name")
}

func (p *Page) Description() (string, error) {
	return p.required("description")
}

func (p *Page) Ingredients() ([]string, error) {
	v, ok := p.node["recipeIngredient"]
	if !ok {
		v, ok = p.node["ingredients"]
	}
	if !ok {
		return nil, missing("recipeIngredient")
	}
	lines := stringList(v)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, cleanText(l))
	}
	return out, nil
}

// InstructionsList 支援純文字、HowToStep 與 HowToSection
func (p *Page) InstructionsList() ([]string, error) {
	v, ok := p.node["recipeInstructions"]
	if !ok {
		return nil, missing("recipeInstructions")
	}
	var steps []string
	collectSteps(v, &steps)
	return steps, nil
}

func collectSteps(v any, out *[]string) {
	switch t := v.(type) {
	case string:
		for _, line := range strings.Split(cleanTextKeepLines(t), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				*out = append(*out, line)
			}
		}
	case []any:
		for _, item := range t {
			collectSteps(item, out)
		}
	case map[string]any:
		if isType(t["@type"], "HowToSection") {
			collectSteps(t["itemListElement"], out)
			return
		}
		if s, ok := t["text"].(string); ok {
			if s = cleanText(s); s != "" {
				*out = append(*out, s)
			}
			return
		}
		if s, ok := t["name"].(string); ok {
			if s = cleanText(s); s != "" {
				*out = append(*out, s)
			}
		}
	}
}

// PrepTime 回傳 ISO-8601 字串，例如 PT15M
func (p *Page) PrepTime() (any, error) {
	return p.required("prepTime")
}

func (p *Page) CookTime() (any, error) {
	return p.required("cookTime")
}

// Yields 陣列時取第一個
func (p *Page) Yields() (string, error) {
	v, ok := p.node["recipeYield"]
	if !ok {
		return "", missing("recipeYield")
	}
	list := stringList(v)
	if len(list) == 0 {
		return "", missing("recipeYield")
	}
	return cleanText(list[0]), nil
}

func (p *Page) Cuisine() (string, error) {
	return p.joined("recipeCuisine")
}

func (p *Page) Category() (string, error) {
	return p.joined("recipeCategory")
}

// Image 可能是字串、ImageObject 或其陣列
func (p *Page) Image() (string, error) {
	if s := firstURL(p.node["image"]); s != "" {
		return s, nil
	}
	if og, ok := p.doc.Find(`meta[property="og:image"]`).Attr("content"); ok && og != "" {
		return og, nil
	}
	return "", missing("image")
}

func (p *Page) Author() (string, error) {
	if s := firstName(p.node["author"]); s != "" {
		return s, nil
	}
	return "", missing("author")
}

func (p *Page) Ratings() (float64, error) {
	agg, ok := p.node["aggregateRating"].(map[string]any)
	if !ok {
		return 0, missing("aggregateRating")
	}
	switch v := agg["ratingValue"].(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("ratingValue %q: %w", v, err)
		}
		return f, nil
	}
	return 0, missing("aggregateRating.ratingValue")
}

// Nutrients 回傳 NutritionInformation，去除 @type
func (p *Page) Nutrients() (map[string]any, error) {
	n, ok := p.node["nutrition"].(map[string]any)
	if !ok {
		return nil, missing("nutrition")
	}
	out := make(map[string]any, len(n))
	for k, v := range n {
		if strings.HasPrefix(k, "@") {
			continue
		}
		out[k] = v
	}
	return out, nil
}

// DietaryRestrictions schema.org 的 VeganDiet 轉為 Vegan Diet
func (p *Page) DietaryRestrictions() (any, error) {
	v, ok := p.node["suitableForDiet"]
	if !ok {
		return nil, missing("suitableForDiet")
	}
	raw := stringList(v)
	out := make([]string, 0, len(raw))
	for _, d := range raw {
		d = schemaPrefix.ReplaceAllString(strings.TrimSpace(d), "")
		d = camelSplit.ReplaceAllString(d, "$1 $2")
		if d != "" {
			out = append(out, d)
		}
	}
	return out, nil
}

func (p *Page) Host() (string, error) {
	if p.host == "" {
		return "", missing("host")
	}
	return p.host, nil
}

func (p *Page) text(key string) string {
	if s, ok := p.node[key].(string); ok {
		return cleanText(s)
	}
	return ""
}

func (p *Page) required(key string) (string, error) {
	if s := p.text(key); s != "" {
		return s, nil
	}
	return "", missing(key)
}

func (p *Page) joined(key string) (string, error) {
	list := stringList(p.node[key])
	if len(list) == 0 {
		return "", missing(key)
	}
	return cleanText(strings.Join(list, ", ")), nil
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrFieldNotFound, field)
}

// stringList 字串、數字或其陣列轉為字串清單
func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{t}
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, stringList(item)...)
		}
		return out
	}
	return nil
}

func firstURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if s := firstURL(item); s != "" {
				return s
			}
		}
	case map[string]any:
		if s, ok := t["url"].(string); ok {
			return strings.TrimSpace(s)
		}
		if s, ok := t["contentUrl"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func firstName(v any) string {
	switch t := v.(type) {
	case string:
		return cleanText(t)
	case []any:
		for _, item := range t {
			if s := firstName(item); s != "" {
				return s
			}
		}
	case map[string]any:
		if s, ok := t["name"].(string); ok {
			return cleanText(s)
		}
	}
	return ""
}

// cleanText 移除 HTML 標籤與實體並合併空白
func cleanText(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(stripHTML(s), " "))
}

// cleanTextKeepLines 同 cleanText，但保留換行
func cleanTextKeepLines(s string) string {
	s = stripHTML(strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n").Replace(s))
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaces.ReplaceAllString(l, " "))
	}
	return strings.Join(lines, "\n")
}

func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return doc.Find("body").Text()
}
