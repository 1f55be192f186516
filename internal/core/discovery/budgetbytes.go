// Package discovery 從 sitemap 或分類頁找出食譜網址
package discovery

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"
)

const (
	// DefaultBaseURL BudgetBytes 首頁
	DefaultBaseURL = "https://www.budgetbytes.com"
	// DefaultLimit 未指定數量時回傳的網址數
	DefaultLimit = 10
	// maxSitemapURLs sitemap index 超過此數量即停止抓取子 sitemap
	maxSitemapURLs = 5000
)

var sitemapPaths = []string{
	"/post-sitemap.xml",
	"/post-sitemap2.xml",
}

var categoryPaths = []string{
	"/category/recipes/main-dish/",
	"/category/recipes/side-dish/",
	"/category/recipes/breakfast/",
	"/category/recipes/appetizer/",
	"/category/recipes/dessert/",
	"/category/recipes/soup/",
	"/category/recipes/salad/",
}

// 依序嘗試，第一個有結果的選擇器勝出
var linkSelectors = []string{
	"article h2 a[href]",
	"article h3 a[href]",
	".recipe-card a[href]",
	".post-title a[href]",
	"h2.entry-title a[href]",
	".entry-header a[href]",
}

// Fetcher 下載頁面，*scraper.Fetcher 即符合
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Discoverer 探索食譜網址
type Discoverer interface {
	Discover(ctx context.Context, limit int) ([]string, error)
}

// BudgetBytes 透過 sitemap 探索食譜，失敗時改爬分類頁
type BudgetBytes struct {
	fetcher Fetcher
	baseURL string
	filter  *urlFilter
}

// NewBudgetBytes 創建探索器，BaseURL 為空時使用 DefaultBaseURL
func NewBudgetBytes(fetcher Fetcher, cfg config.DiscoveryConfig) *BudgetBytes {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &BudgetBytes{
		fetcher: fetcher,
		baseURL: base,
		filter:  newURLFilter(base, domainOf(base)),
	}
}

// Discover 回傳至多 limit 個食譜網址
func (b *BudgetBytes) Discover(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	common.LogInfo("開始探索食譜網址", zap.String("base_url", b.baseURL), zap.Int("limit", limit))

	found := b.fromSitemaps(ctx)
	method := "sitemap"
	if len(found) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found = b.fromCategories(ctx, limit)
		method = "category"
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(found) > limit {
		found = found[:limit]
	}
	common.LogInfo("食譜網址探索完成",
		zap.Int("discovered", len(found)),
		zap.String("method", method),
	)
	return found, nil
}

// fromSitemaps 第一個有內容的 sitemap 即停止
func (b *BudgetBytes) fromSitemaps(ctx context.Context) []string {
	for _, p := range sitemapPaths {
		if ctx.Err() != nil {
			return nil
		}
		sitemapURL := b.baseURL + p
		urls := b.readSitemap(ctx, sitemapURL, true)
		if len(urls) == 0 {
			continue
		}
		recipes := b.filter.Filter(urls)
		common.LogInfo("Filtered recipe URLs",
			zap.String("sitemap_url", sitemapURL),
			zap.Int("total", len(urls)),
			zap.Int("recipes", len(recipes)),
		)
		return recipes
	}
	return nil
}

func (b *BudgetBytes) readSitemap(ctx context.Context, sitemapURL string, followIndex bool) []string {
	body, err := b.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		common.LogWarn("sitemap 下載失敗", zap.String("sitemap_url", sitemapURL), zap.Error(err))
		return nil
	}
	kind, locs, err := parseSitemap(body)
	if err != nil {
		common.LogWarn("sitemap 解析失敗", zap.String("sitemap_url", sitemapURL), zap.Error(err))
		return nil
	}
	if kind == kindURLSet {
		return locs
	}
	if !followIndex {
		return nil
	}

	var urls []string
	for _, child := range locs {
		if !strings.Contains(child, "post-sitemap") {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		sub := b.readSitemap(ctx, child, false)
		common.LogDebug("子 sitemap", zap.String("sitemap_url", child), zap.Int("count", len(sub)))
		urls = append(urls, sub...)
		if len(urls) > maxSitemapURLs {
			break
		}
	}
	return urls
}

func (b *BudgetBytes) fromCategories(ctx context.Context, limit int) []string {
	common.LogInfo("sitemap 無結果，改爬分類頁")

	var found []string
	for _, p := range categoryPaths {
		if len(found) >= limit || ctx.Err() != nil {
			break
		}
		pageURL := b.baseURL + p
		links, err := b.crawlCategory(ctx, pageURL, limit-len(found))
		if err != nil {
			common.LogWarn("分類頁下載失敗", zap.String("category_url", pageURL), zap.Error(err))
			continue
		}
		found = common.DedupeStrings(append(found, links...))
	}
	return found
}

func (b *BudgetBytes) crawlCategory(ctx context.Context, pageURL string, limit int) ([]string, error) {
	body, err := b.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var links *goquery.Selection
	for _, sel := range linkSelectors {
		if s := doc.Find(sel); s.Length() > 0 {
			links = s
			break
		}
	}
	if links == nil {
		return nil, nil
	}

	var out []string
	links.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if strings.HasPrefix(href, "/") {
			href = b.baseURL + href
		}
		if href == "" || b.filter.isListing(href) {
			return true
		}
		out = append(out, href)
		return len(out) < limit
	})
	return out, nil
}

// domainOf https://www.budgetbytes.com 轉為 budgetbytes.com
func domainOf(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return strings.ToLower(base)
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
